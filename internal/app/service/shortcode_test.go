package service

import (
	"testing"

	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortCodeGenerator_UniqueFixedWidthCodes(t *testing.T) {
	gen, err := NewShortCodeGenerator(20000)
	require.NoError(t, err)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		code := gen.Generate()
		require.Len(t, code, model.ShortCodeLength)
		require.Regexp(t, `^[a-zA-Z0-9]+$`, code)
		_, dup := seen[code]
		require.False(t, dup, "duplicate code %s", code)
		seen[code] = struct{}{}
	}
}

func TestShortCodeGenerator_SeedMarksCodesIssued(t *testing.T) {
	gen, err := NewShortCodeGenerator(100)
	require.NoError(t, err)

	gen.Seed([]string{"abcd1234"})
	assert.True(t, gen.issued.TestString("abcd1234"))
	assert.False(t, gen.issued.TestString("zzzz9999"))
}
