package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBBox_Valid(t *testing.T) {
	tests := []struct {
		name string
		bbox BBox
		want bool
	}{
		{"normal box", BBox{10, 20, 110, 60}, true},
		{"zero box", BBox{0, 0, 0, 0}, false},
		{"inverted x", BBox{100, 20, 10, 60}, false},
		{"inverted y", BBox{10, 60, 110, 20}, false},
		{"degenerate line", BBox{10, 20, 10, 60}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bbox.Valid())
		})
	}
}

func TestSession_Complete(t *testing.T) {
	s := &Session{
		Fields: []FormField{
			{FieldID: "f1", Label: "Name", BBox: BBox{0, 0, 10, 10}, InputMode: InputModeVoice},
			{FieldID: "f2", Label: "DOB", BBox: BBox{0, 20, 10, 30}, InputMode: InputModePlaceholder},
		},
	}

	s.CurrentFieldIndex = 0
	assert.False(t, s.Complete())

	s.CurrentFieldIndex = 1
	assert.False(t, s.Complete())

	s.CurrentFieldIndex = 2
	assert.True(t, s.Complete())
}

func TestSession_CurrentField(t *testing.T) {
	s := &Session{
		Fields: []FormField{
			{FieldID: "f1", Label: "Name"},
			{FieldID: "f2", Label: "DOB"},
		},
	}

	f, ok := s.CurrentField()
	assert.True(t, ok)
	assert.Equal(t, "f1", f.FieldID)

	s.CurrentFieldIndex = 2
	_, ok = s.CurrentField()
	assert.False(t, ok)
}

func TestSession_Clone_IsDeep(t *testing.T) {
	s := &Session{
		SessionID: "s-1",
		Fields: []FormField{
			{FieldID: "f1", Label: "Name"},
		},
		CollectedValues: map[string]string{"f1": "John"},
	}

	cp := s.Clone()
	cp.Fields[0].Label = "Changed"
	cp.CollectedValues["f1"] = "Jane"
	cp.CollectedValues["f2"] = "extra"

	assert.Equal(t, "Name", s.Fields[0].Label)
	assert.Equal(t, "John", s.CollectedValues["f1"])
	assert.NotContains(t, s.CollectedValues, "f2")
}
