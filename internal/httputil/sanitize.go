package httputil

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"
)

// maxFilenameBytes keeps names under common filesystem limits once an
// extension is added.
const maxFilenameBytes = 180

// ValidateURL reports whether rawURL is an absolute http(s) URL with a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	switch {
	case err != nil:
		return fmt.Errorf("malformed URL: %w", err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	case u.Host == "":
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	return nil
}

// SanitizeFilename turns an episode title into a single path element.
// Separators and reserved characters become '_', control characters are
// dropped, and the result never starts or ends with a dot.
func SanitizeFilename(title string) string {
	title = strings.ReplaceAll(title, "..", "_")

	name := strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, title)

	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " ._")
	name = truncateUTF8(name, maxFilenameBytes)

	if name == "" {
		return "untitled"
	}
	return name
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return strings.TrimRight(s[:cut], " ._")
}

// SafeDownloadPath joins dir and filename and rejects results outside dir.
func SafeDownloadPath(dir, filename string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	resolved := filepath.Join(absDir, SanitizeFilename(filename))
	rel, err := filepath.Rel(absDir, resolved)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return "", fmt.Errorf("path %q escapes %q", resolved, absDir)
	}
	return resolved, nil
}

// EncodeQuery encodes a search keyword for the site's `s=` query parameter.
func EncodeQuery(query string) string {
	return url.QueryEscape(strings.Join(strings.Fields(query), " "))
}
