// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type siretHolder struct {
	Siret string `validate:"required,siret"`
}

type wasteCodeHolder struct {
	Code string `validate:"required,waste_code"`
}

func TestSiretValidation(t *testing.T) {
	valid := []string{"12345678901234", "00000000000000"}
	for _, s := range valid {
		assert.NoError(t, ValidateStruct(&siretHolder{Siret: s}), s)
	}

	invalid := []string{"1234567890123", "123456789012345", "1234567890123a", "12 34567890123", ""}
	for _, s := range invalid {
		assert.Error(t, ValidateStruct(&siretHolder{Siret: s}), s)
	}
}

func TestWasteCodeValidation(t *testing.T) {
	valid := []string{"01 01 01", "20 03 01", "13 02 05*"}
	for _, c := range valid {
		assert.NoError(t, ValidateStruct(&wasteCodeHolder{Code: c}), c)
	}

	invalid := []string{"010101", "01-01-01", "01 01", "01 01 01**", "ab cd ef"}
	for _, c := range invalid {
		assert.Error(t, ValidateStruct(&wasteCodeHolder{Code: c}), c)
	}
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(&siretHolder{Siret: "bad"})
	errors := GetValidationErrors(err)

	assert.Len(t, errors, 1)
	assert.Equal(t, "siret", errors[0].Field)
	assert.Equal(t, "siret", errors[0].Tag)
}

func TestGetValidationErrorsNil(t *testing.T) {
	assert.Empty(t, GetValidationErrors(nil))
}
