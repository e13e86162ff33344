package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSalaryBand(t *testing.T) {
	cases := []struct {
		in       string
		min, max int64
	}{
		{"50000", 50000, 50000},
		{"40,000 - 60,000", 40000, 60000},
		{"40k to 60k", 40000, 60000},
		{"45K", 45000, 45000},
		{"6-8 lpa", 600000, 800000},
		{"6 lpa", 600000, 600000},
		{"₹ 3.5 lakh", 350000, 350000},
		{"Rs 25000-30000", 25000, 30000},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			band, err := ParseSalaryBand(c.in)
			require.NoError(t, err)
			require.NotNil(t, band)
			assert.Equal(t, c.min, *band.Min)
			assert.Equal(t, c.max, *band.Max)
		})
	}
}

func TestParseSalaryBand_Empty(t *testing.T) {
	band, err := ParseSalaryBand("   ")
	assert.NoError(t, err)
	assert.Nil(t, band)
}

func TestParseSalaryBand_Malformed(t *testing.T) {
	for _, in := range []string{"negotiable", "60000-40000", "-", "10k-abc"} {
		_, err := ParseSalaryBand(in)
		assert.ErrorIs(t, err, ErrMalformedSalary, in)
	}
}
