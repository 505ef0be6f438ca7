package httputil

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var numericEntity = regexp.MustCompile(`&#([xX][0-9a-fA-F]+|[0-9]+);`)

var namedEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#039;", "'",
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
)

// DecodeHTMLEntities replaces numeric character references, then a fixed set
// of named entities. Anything else is left as is.
func DecodeHTMLEntities(text string) string {
	text = numericEntity.ReplaceAllStringFunc(text, func(m string) string {
		digits := m[2 : len(m)-1]
		base := 10
		if digits[0] == 'x' || digits[0] == 'X' {
			digits, base = digits[1:], 16
		}
		n, err := strconv.ParseInt(digits, base, 32)
		if err != nil || n <= 0 || !utf8.ValidRune(rune(n)) {
			return m
		}
		return string(rune(n))
	})
	return namedEntities.Replace(text)
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// CleanText strips tags, decodes entities and collapses whitespace.
func CleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = DecodeHTMLEntities(s)
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
