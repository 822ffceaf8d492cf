package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquipmentNextInspection(t *testing.T) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	e := &Equipment{PeriodicityMonths: 6}
	next := e.NextInspection(date)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), *next)

	// Zero periodicity means no recurring obligation.
	e.PeriodicityMonths = 0
	assert.Nil(t, e.NextInspection(date))
}

func TestTrainingExpiresAt(t *testing.T) {
	training := &Training{ValidityMonths: 12}
	session := &TrainingSession{Date: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)}

	exp := training.ExpiresAt(session)
	require.NotNil(t, exp)
	assert.Equal(t, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), *exp)

	assert.Nil(t, training.ExpiresAt(nil))

	noValidity := &Training{ValidityMonths: 0}
	assert.Nil(t, noValidity.ExpiresAt(session))
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidActType("loi"))
	assert.False(t, ValidActType("constitution"))

	assert.True(t, ValidEffectType("ABROGE"))
	assert.False(t, ValidEffectType("abroge"))

	assert.True(t, ValidApplicability("non_concerne"))
	assert.False(t, ValidApplicability("exclu"))

	assert.True(t, ValidConformityState("partiellement_conforme"))
	assert.False(t, ValidConformityState("partiel"))

	assert.True(t, ValidSubscriptionStatus("expiree"))
	assert.False(t, ValidSubscriptionStatus("terminee"))

	assert.True(t, ValidIncidentStatus("cloture"))
	assert.False(t, ValidIncidentStatus("ferme"))

	assert.True(t, ValidInspectionResult("reserve"))
	assert.False(t, ValidInspectionResult("ok"))
}
