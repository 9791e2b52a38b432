package parser

import (
	"regexp"
	"strings"
)

var (
	reSpacedBlank = regexp.MustCompile(`\n\s+\n`)
	reZeroAsO     = regexp.MustCompile(`\b\d+O\d+\b`)
	reOneAsEll    = regexp.MustCompile(`\b[lI]{2,}\b`)
)

// Normalize cleans raw OCR text before matching: line terminators become
// "\n" and blank lines that hold only whitespace collapse away. Two coarse
// artifact corrections follow, both applied document-wide: a digit-O-digit
// token anywhere turns every "O" into "0", and a run of two or more l/I
// characters turns every "l" into "1". Both substitutions can over-correct
// legitimate letters; that trade-off is intentional.
func Normalize(text string) string {
	t := strings.ReplaceAll(text, "\r", "\n")
	t = reSpacedBlank.ReplaceAllString(t, "\n")
	if reZeroAsO.MatchString(t) {
		t = strings.ReplaceAll(t, "O", "0")
	}
	if reOneAsEll.MatchString(t) {
		t = strings.ReplaceAll(t, "l", "1")
	}
	return t
}
