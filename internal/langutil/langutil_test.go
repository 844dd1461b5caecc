package langutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "plain code", input: "hi", want: "hi", ok: true},
		{name: "region dropped", input: "ta-IN", want: "ta", ok: true},
		{name: "iso-639-2", input: "hin", want: "hi", ok: true},
		{name: "uppercase", input: "EN", want: "en", ok: true},
		{name: "padded", input: "  fr ", want: "fr", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "garbage", input: "??", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Hindi", DisplayName("hi"))
	assert.Equal(t, "Tamil", DisplayName("ta"))
	// Unparseable codes fall back to themselves.
	assert.Equal(t, "??", DisplayName("??"))
}

func TestDetectFromText(t *testing.T) {
	got := DetectFromText("This lecture introduces the fundamentals of linear algebra, covering vectors, matrices and linear transformations in detail.")
	assert.Equal(t, "en", got)

	assert.Equal(t, "", DetectFromText(""))
	assert.Equal(t, "", DetectFromText("ok"))
}
