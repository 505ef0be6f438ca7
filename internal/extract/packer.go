package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// packedArgs captures payload, radix, count and symbol table of a
// P.A.C.K.E.R. script: }('payload',62,123,'a|b|c'.split('|'),0,{})
var packedArgs = regexp.MustCompile(`(?s)\}\s*\(\s*'((?:[^'\\]|\\.)*)'\s*,\s*(\d+|\[\])\s*,\s*(\d+)\s*,\s*'((?:[^'\\]|\\.)*)'\.split\(\s*'\|'\s*\)`)

var packedWord = regexp.MustCompile(`\b\w+\b`)

const packAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var packedUnquote = strings.NewReplacer(`\\`, `\`, `\'`, `'`)

// Unpack reverses the eval(function(p,a,c,k,e,d)...) packer. Radices above
// 62 are not supported.
func Unpack(script string) (string, bool) {
	m := packedArgs.FindStringSubmatch(script)
	if m == nil {
		return "", false
	}

	payload := packedUnquote.Replace(m[1])
	radix := 62
	if m[2] != "[]" {
		radix, _ = strconv.Atoi(m[2])
	}
	if radix < 2 || radix > len(packAlphabet) {
		return "", false
	}
	symbols := strings.Split(packedUnquote.Replace(m[4]), "|")

	out := packedWord.ReplaceAllStringFunc(payload, func(word string) string {
		idx, ok := decodeRadix(word, radix)
		if !ok || idx >= len(symbols) || symbols[idx] == "" {
			return word
		}
		return symbols[idx]
	})
	return out, true
}

func decodeRadix(word string, radix int) (int, bool) {
	if len(word) == 0 || len(word) > 8 {
		return 0, false
	}
	digits := packAlphabet[:radix]
	n := 0
	for i := 0; i < len(word); i++ {
		d := strings.IndexByte(digits, word[i])
		if d < 0 {
			return 0, false
		}
		n = n*radix + d
	}
	return n, true
}
