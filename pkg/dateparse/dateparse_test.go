package dateparse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regoffice/pkg/dateparse"
)

func TestParse(t *testing.T) {
	want := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"01/05/1990",
		"01-05-1990",
		"01 05 1990",
		"01051990",
		"1990-05-01",
	} {
		t.Run(raw, func(t *testing.T) {
			got, ok := dateparse.Parse(raw)
			require.True(t, ok)
			assert.True(t, want.Equal(got))
		})
	}
}

func TestParseRejectsUnusableText(t *testing.T) {
	for _, raw := range []string{
		"",
		"  ",
		"not a date",
		"32/01/1990",
		"01/13/1990",
		"1990/05/01",
		"05/1990",
	} {
		t.Run("rejects "+raw, func(t *testing.T) {
			_, ok := dateparse.Parse(raw)
			assert.False(t, ok)
		})
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	got, ok := dateparse.Parse("  01/05/1990  ")
	require.True(t, ok)
	assert.Equal(t, 1990, got.Year())
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 3, 10, 17, 45, 12, 999, time.FixedZone("X", 3600))
	got := dateparse.StartOfDay(in)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), got)
}
