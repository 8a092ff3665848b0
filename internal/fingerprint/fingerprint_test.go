package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSHA256(t *testing.T) {
	h := Default()

	got := h.Compute("What is 2+2?", "4")

	assert.Equal(t, "0x76438fdc5ba7db1231dd0a29df0197acde2447d65dfdf235c9d135d4d4787d66", got)
}

func TestComputeCanonicalizesInput(t *testing.T) {
	h := Default()

	tests := []struct {
		name     string
		question string
		answer   string
	}{
		{"surrounding whitespace", "  What is 2+2? ", "\t4\n"},
		{"already canonical", "What is 2+2?", "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, h.Compute("What is 2+2?", "4"), h.Compute(tt.question, tt.answer))
		})
	}
}

func TestComputeNormalizesUnicode(t *testing.T) {
	h := Default()
	composed := "Caf\u00e9?"
	decomposed := "Cafe\u0301?"

	assert.Equal(t, h.Compute(composed, "Yes"), h.Compute(decomposed, "Yes"))
	assert.Equal(t, "0x40ab0b5d3fc8f92c3714133926f40c7d3365ce1340c873498a25e66684dd8226", h.Compute(decomposed, "Yes"))
}

func TestComputeKeccak256(t *testing.T) {
	h, err := New(SchemeKeccak256)
	require.NoError(t, err)

	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", h.Compute("", ""))
	assert.NotEqual(t, Default().Compute("q", "a"), h.Compute("q", "a"))
}

func TestNewScheme(t *testing.T) {
	h, err := New("")
	require.NoError(t, err)
	assert.Equal(t, SchemeSHA256, h.Scheme())

	_, err = New("md5")
	assert.Error(t, err)
}

func TestDifferentAnswersDiffer(t *testing.T) {
	h := Default()

	assert.NotEqual(t, h.Compute("Pick one", "A"), h.Compute("Pick one", "B"))
}

func TestNormalizeMatchesCompute(t *testing.T) {
	h := Default()
	fp := h.Compute("What is 2+2?", "4")

	assert.Equal(t, fp, Normalize(strings.ToUpper(fp)))
	assert.Equal(t, fp, Normalize("  "+fp+"\n"))
}
