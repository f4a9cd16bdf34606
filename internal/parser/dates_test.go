package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateNormalizerParse(t *testing.T) {
	loc := time.UTC
	n := NewDateNormalizer(loc)

	cases := []struct {
		in     string
		expect time.Time
		ok     bool
	}{
		{in: "Oct 14 2025", expect: time.Date(2025, time.October, 14, 0, 0, 0, 0, loc), ok: true},
		{in: "Oct 14 2025 3:30 PM", expect: time.Date(2025, time.October, 14, 15, 30, 0, 0, loc), ok: true},
		{in: "  Jan  5,   2024 ", expect: time.Date(2024, time.January, 5, 0, 0, 0, 0, loc), ok: true},
		{in: "2024-01-06", expect: time.Date(2024, time.January, 6, 0, 0, 0, 0, loc), ok: true},
		// month first wins on ambiguous numeric dates
		{in: "01/05/2024", expect: time.Date(2024, time.January, 5, 0, 0, 0, 0, loc), ok: true},
		{in: "Abierto: Ene 7 2024", expect: time.Date(2024, time.January, 7, 0, 0, 0, 0, loc), ok: true},
		{in: "Creado el 7 de diciembre de 2023", expect: time.Date(2023, time.December, 7, 0, 0, 0, 0, loc), ok: true},
		{in: "", ok: false},
		{in: "Printer is broken", ok: false},
		{in: "Feb 31 2024", ok: false},
	}

	for _, test := range cases {
		got, ok := n.Parse(test.in)
		require.Equal(t, test.ok, ok, test.in)
		if test.ok {
			require.True(t, test.expect.Equal(got), "%q: expected %s, got %s", test.in, test.expect, got)
		}
	}
}

func TestDateNormalizerUsesLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	n := NewDateNormalizer(loc)

	got, ok := n.Parse("Mar 3 2024")
	require.True(t, ok)
	require.Equal(t, loc, got.Location())
}
