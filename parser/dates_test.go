package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDateShapes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"DATE 30/06/2017", "2017-06-30"},
		{"DATE 23-JUL-2025", "2025-07-23"},
		{"DATE 23 JUL 2025", "2025-07-23"},
		{"DATE 23 - JAN - 2025", "2025-01-23"},
		{"DATE JUL 23, 2025", "2025-07-23"},
		{"DATE 23/1/25", "2025-01-23"},
		{"DATE 1 SEPTEMBER 2024", "2024-09-01"},
		{"DATE 23 SEPT 2025", "2025-09-23"},
	}

	for _, c := range cases {
		got := FindDate(c.in)
		require.NotNil(t, got, "FindDate(%q)", c.in)
		assert.Equal(t, c.want, *got, "FindDate(%q)", c.in)
	}
}

func TestFindDateEarliest(t *testing.T) {
	got := FindDate("INVOICE DATE 23-JUL-2025 DUE DATE 23-AUG-2025")
	require.NotNil(t, got)
	assert.Equal(t, "2025-07-23", *got)
}

func TestFindDateUnparseableCandidatesSkipped(t *testing.T) {
	// 45/45/2020 is date-shaped but not a calendar date; the later valid
	// candidate still comes through
	got := FindDate("REF 45/45/2020 DATE 01/02/2021")
	require.NotNil(t, got)
	assert.Equal(t, "2021-02-01", *got)
}

func TestFindDateNone(t *testing.T) {
	assert.Nil(t, FindDate("NO DATES HERE"))
}
