package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMoney(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"₹4,490.00", 4490.00},
		{"Rs. 4490", 4490.00},
		{"Rs 4490", 4490.00},
		{"INR4490.00", 4490.00},
		{"1,57,500.00", 157500.00},
		{"684.90\n", 684.90},
		{" 900.00 ", 900.00},
		{"968", 968.00},
	}

	for _, c := range cases {
		got, ok := CleanMoney(c.in)
		assert.True(t, ok, "CleanMoney(%q) should parse", c.in)
		assert.InDelta(t, c.want, got, 0.001, "CleanMoney(%q)", c.in)
	}
}

func TestCleanMoneyNoDigits(t *testing.T) {
	for _, in := range []string{"", "—", "Rs.", "₹", "   "} {
		_, ok := CleanMoney(in)
		assert.False(t, ok, "CleanMoney(%q) should not parse", in)
	}
}
