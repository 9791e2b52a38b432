package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLineEndings(t *testing.T) {
	out := Normalize("line one\r\nline two\rline three")
	assert.False(t, strings.Contains(out, "\r"))
}

func TestNormalizeCollapsesWhitespaceBlankLines(t *testing.T) {
	out := Normalize("supplier\n   \ntotal 5.00")
	assert.Equal(t, "supplier\ntotal 5.00", out)
}

func TestNormalizeZeroMisreadIsDocumentWide(t *testing.T) {
	// a single digit-O-digit token flips every O in the document,
	// legitimate letters included
	out := Normalize("INV 12O45 TOTAL")
	assert.Equal(t, "INV 12045 T0TAL", out)
}

func TestNormalizeEllMisreadIsDocumentWide(t *testing.T) {
	out := Normalize("Bill ll 500")
	assert.Equal(t, "Bi11 11 500", out)
}

func TestNormalizeLeavesCleanTextAlone(t *testing.T) {
	in := "Hello World 123"
	assert.Equal(t, in, Normalize(in))
}
