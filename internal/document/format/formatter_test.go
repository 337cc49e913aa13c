package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumericCode(t *testing.T) {
	assert.Equal(t, "00000042", NumericCode("42"))
	assert.Equal(t, "00000001", NumericCode(""))
	assert.Equal(t, "123456789", NumericCode("123456789"))
}

func TestDocumentKey(t *testing.T) {
	key := DocumentKey("12.345.678/0001-90", "42")
	assert.Equal(t, "NFe12345678000190000000042", key)
}

func TestDocumentKeyDefaultsNumber(t *testing.T) {
	assert.Equal(t, "NFe12345678000190000000001", DocumentKey("12345678000190", ""))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "01310100", Digits("01310-100"))
	assert.Equal(t, "11987654321", Digits("(11) 98765-4321"))
	assert.Equal(t, "", Digits("S/N"))
}
