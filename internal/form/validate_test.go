package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() []FormField {
	return []FormField{
		{FieldID: "name", Label: "Name", BBox: BBox{10, 10, 200, 40}, InputMode: InputModeVoice, WriteLanguage: WriteLanguageEnglish},
		{FieldID: "dob", Label: "Date of Birth", BBox: BBox{10, 50, 200, 80}, InputMode: InputModePlaceholder, WriteLanguage: WriteLanguageEnglish},
	}
}

func TestValidateCatalog_Valid(t *testing.T) {
	assert.NoError(t, ValidateCatalog(validFields()))
}

func TestValidateCatalog_Empty(t *testing.T) {
	err := ValidateCatalog(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fields")
}

func TestValidateCatalog_DuplicateID(t *testing.T) {
	fields := validFields()
	fields[1].FieldID = fields[0].FieldID

	err := ValidateCatalog(fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field_id")
}

func TestValidateCatalog_EmptyLabel(t *testing.T) {
	fields := validFields()
	fields[0].Label = "   "

	err := ValidateCatalog(fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty label")
}

func TestValidateCatalog_BadBBox(t *testing.T) {
	fields := validFields()
	fields[0].BBox = BBox{200, 40, 10, 10}

	err := ValidateCatalog(fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bbox")
}

func TestValidateCatalog_UnknownInputMode(t *testing.T) {
	fields := validFields()
	fields[0].InputMode = "typed"

	err := ValidateCatalog(fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown input_mode")
}

func TestNormalizeCatalog_Defaults(t *testing.T) {
	fields := []FormField{
		{FieldID: "name", Label: "Name", BBox: BBox{10, 10, 200, 40}},
	}

	out := NormalizeCatalog(fields)
	assert.Equal(t, InputModeVoice, out[0].InputMode)
	assert.Equal(t, WriteLanguageEnglish, out[0].WriteLanguage)

	// Input slice untouched.
	assert.Equal(t, InputMode(""), fields[0].InputMode)
}
