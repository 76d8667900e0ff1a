package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIDRFormat(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "Rp. 0,00"},
		{"5", "Rp. 5,00"},
		{"950", "Rp. 950,00"},
		{"1000", "Rp. 1.000,00"},
		{"1234567.89", "Rp. 1.234.567,89"},
		{"150000", "Rp. 150.000,00"},
		{"1000000000.5", "Rp. 1.000.000.000,50"},
		{"-25000", "Rp. -25.000,00"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			v, err := decimal.NewFromString(tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, IDR{}.Format(v))
		})
	}
}

func TestIDRFormatDoesNotRoundBeyondDisplay(t *testing.T) {
	v := decimal.RequireFromString("199.999")
	_ = IDR{}.Format(v)
	assert.True(t, v.Equal(decimal.RequireFromString("199.999")))
}
