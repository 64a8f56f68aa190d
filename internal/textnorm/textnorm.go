// Package textnorm holds the string primitives every other package builds on:
// accent/case folding, lenient number parsing and date-likeness detection.
// All functions are total: malformed input yields a sentinel, never an error.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	firstNum   = regexp.MustCompile(`-?\d+(\.\d+)?`)
	isoPrefix  = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}`)
	latamDate  = regexp.MustCompile(`^\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}$`)
	emojiRange = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}]`)
)

// stripMarks decomposes and drops combining marks ("Más" -> "Mas").
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize folds s for comparisons: trimmed, lower-cased, accent-free, restricted
// to [a-z0-9_ ] with single spaces. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = stripMarks(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(b.String(), " "))
}

// Fold lower-cases, strips accents and collapses whitespace but keeps punctuation,
// so symbols such as '<', '>', '+' and '-' survive for label parsing.
func Fold(s string) string {
	s = stripMarks(strings.ToLower(strings.TrimSpace(s)))
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// ParseNumber extracts the first decimal numeral of v. The first comma is read as
// a decimal separator, so "12,5 días" parses as 12.5. ok is false when v holds no
// numeral at all.
func ParseNumber(v string) (f float64, ok bool) {
	s := strings.Replace(v, ",", ".", 1)
	m := firstNum.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsNumericLike reports whether ParseNumber finds a numeral in v.
func IsNumericLike(v string) bool {
	_, ok := ParseNumber(v)
	return ok
}

var dateLayouts = []string{
	time.RFC3339, time.RFC1123, time.RFC1123Z, time.RFC822,
	"2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006/01/02 15:04:05",
	"1/2/2006 15:04", "1/2/2006 15:04:05", "2/1/2006 15:04:05",
	"Jan 2 2006", "Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "02-Jan-2006",
	"Mon Jan 2 2006", "Mon Jan _2 15:04:05 2006",
}

// LooksLikeDate is deliberately permissive: an ISO-like prefix, a D/M/Y shape with
// '/', '.' or '-' separators, or any value one of the known layouts accepts.
func LooksLikeDate(v string) bool {
	s := strings.TrimSpace(v)
	if s == "" {
		return false
	}
	if isoPrefix.MatchString(s) || latamDate.MatchString(s) {
		return true
	}
	for _, l := range dateLayouts {
		if _, err := time.Parse(l, s); err == nil {
			return true
		}
	}
	return false
}

// CleanDisplayText tidies a cell for display or export. It is never used for
// classification.
func CleanDisplayText(v string) string {
	s := strings.ReplaceAll(v, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\ufffd", "")
	s = emojiRange.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
