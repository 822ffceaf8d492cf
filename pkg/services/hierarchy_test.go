package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHierarchy_CirculaireBlocked(t *testing.T) {
	for _, target := range []string{"loi", "decret", "décret", "décret-loi"} {
		for _, effect := range []string{"ABROGE", "MODIFIE", "REMPLACE"} {
			adv := ValidateHierarchy("circulaire", target, effect)

			require.NotNil(t, adv, "circulaire/%s/%s", target, effect)
			assert.Equal(t, SeverityError, adv.Severity)
			assert.True(t, adv.Blocking())
			assert.True(t, strings.HasPrefix(adv.Message, "Une circulaire ne peut pas"), adv.Message)
			assert.Contains(t, adv.Message, "COMPLÈTE")
		}
	}
}

func TestValidateHierarchy_CirculaireMayComplete(t *testing.T) {
	assert.Nil(t, ValidateHierarchy("circulaire", "loi", "COMPLETE"))
	assert.Nil(t, ValidateHierarchy("circulaire", "decret", "RENUMEROTE"))
}

func TestValidateHierarchy_ArreteOnLoiWarns(t *testing.T) {
	for _, source := range []string{"arrete", "arrêté"} {
		for _, effect := range []string{"ABROGE", "MODIFIE", "REMPLACE"} {
			adv := ValidateHierarchy(source, "loi", effect)

			require.NotNil(t, adv, "%s/loi/%s", source, effect)
			assert.Equal(t, SeverityWarning, adv.Severity)
			assert.False(t, adv.Blocking())
			assert.True(t, strings.HasPrefix(adv.Message, "Un arrêté ne peut généralement pas"), adv.Message)
		}
	}
}

func TestValidateHierarchy_DecretOnLoiWarns(t *testing.T) {
	for _, source := range []string{"decret", "décret"} {
		adv := ValidateHierarchy(source, "loi", "MODIFIE")

		require.NotNil(t, adv)
		assert.Equal(t, SeverityWarning, adv.Severity)
		assert.True(t, strings.HasPrefix(adv.Message, "Un décret ne peut pas modifier une loi."), adv.Message)
	}
}

func TestValidateHierarchy_CaseInsensitive(t *testing.T) {
	adv := ValidateHierarchy("CIRCULAIRE", "Loi", "abroge")

	require.NotNil(t, adv)
	assert.Equal(t, SeverityError, adv.Severity)
}

func TestValidateHierarchy_NoRuleMatches(t *testing.T) {
	assert.Nil(t, ValidateHierarchy("loi", "decret", "ABROGE"))
	assert.Nil(t, ValidateHierarchy("loi", "loi", "MODIFIE"))
	assert.Nil(t, ValidateHierarchy("decret", "arrete", "REMPLACE"))
	assert.Nil(t, ValidateHierarchy("arrete", "decret", "MODIFIE"))
	assert.Nil(t, ValidateHierarchy("circulaire", "circulaire", "ABROGE"))
	assert.Nil(t, ValidateHierarchy("decret", "loi", "COMPLETE"))
}

func TestValidateHierarchy_FirstMatchWins(t *testing.T) {
	// circulaire/décret matches rule 1 before anything else could apply
	adv := ValidateHierarchy("circulaire", "décret", "REMPLACE")

	require.NotNil(t, adv)
	assert.Equal(t, SeverityError, adv.Severity)
	assert.Contains(t, adv.Message, "remplace")
	assert.Contains(t, adv.Message, "décret")
}
