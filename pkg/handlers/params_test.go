package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathUUID(t *testing.T) {
	id := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/texts/"+id.String(), nil)
	req.SetPathValue("textID", id.String())

	got, err := PathUUID(req, "textID")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestPathUUID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/texts", nil)

	_, err := PathUUID(req, "textID")
	assert.Error(t, err)
}

func TestPathUUID_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/texts/nope", nil)
	req.SetPathValue("textID", "nope")

	_, err := PathUUID(req, "textID")
	assert.Error(t, err)
}

func TestParseUUIDs_FailsOnFirstBad(t *testing.T) {
	good := uuid.New()

	ids, err := parseUUIDs([]string{good.String()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{good}, ids)

	_, err = parseUUIDs([]string{good.String(), "bad"})
	assert.Error(t, err)
}

func TestQueryHelpers(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/x?limit=25&text_id="+id.String()+"&bad=zz", nil)

	assert.Equal(t, 25, QueryInt(req, "limit"))
	assert.Equal(t, 0, QueryInt(req, "missing"))
	assert.Equal(t, 0, QueryInt(req, "bad"))

	assert.Equal(t, id, QueryUUID(req, "text_id"))
	assert.Equal(t, uuid.Nil, QueryUUID(req, "missing"))
	assert.Equal(t, uuid.Nil, QueryUUID(req, "bad"))
}
