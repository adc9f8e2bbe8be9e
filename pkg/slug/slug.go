package slug

import (
	"crypto/rand"
	"strings"
	"unicode"
)

// Option configures slug generation.
type Option func(*config)

type config struct {
	maxLength    int
	suffixLength int
}

// MaxLength caps the generated slug at n runes. Longer input is truncated.
func MaxLength(n int) Option {
	return func(c *config) {
		c.maxLength = n
	}
}

// WithSuffix appends a random lowercase alphanumeric suffix of the given
// length, joined by a hyphen, to reduce collisions when the input alone is
// not unique. Example: "acme-print-x7g3k2".
func WithSuffix(length int) Option {
	return func(c *config) {
		c.suffixLength = length
	}
}

// Make turns s into a URL-safe identifier. Letters and digits are kept and
// lowercased, common Latin diacritics fold to ASCII, and every other run of
// characters collapses into a single hyphen. The result never starts or
// ends with a hyphen.
func Make(s string, opts ...Option) string {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	var b strings.Builder
	b.Grow(len(s))

	count := 0
	pending := false // a hyphen is owed before the next kept rune

	for _, r := range s {
		if cfg.maxLength > 0 && count >= cfg.maxLength {
			break
		}

		r = unicode.ToLower(r)
		if folded, ok := diacritics[r]; ok {
			r = folded
		}

		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			pending = count > 0
			continue
		}

		if pending {
			if cfg.maxLength > 0 && count+2 > cfg.maxLength {
				break
			}
			b.WriteByte('-')
			count++
			pending = false
		}
		b.WriteRune(r)
		count++
	}

	out := b.String()
	if cfg.suffixLength > 0 {
		out = joinSuffix(out, cfg)
	}
	return out
}

// joinSuffix attaches the random suffix, truncating the main slug when
// needed so the total stays within maxLength.
func joinSuffix(s string, cfg config) string {
	n := cfg.suffixLength
	if cfg.maxLength > 0 && n > cfg.maxLength {
		n = cfg.maxLength
	}
	suffix := randomSuffix(n)

	if cfg.maxLength > 0 {
		keep := cfg.maxLength - n - 1
		if keep <= 0 {
			return suffix
		}
		if runes := []rune(s); len(runes) > keep {
			s = strings.TrimRight(string(runes[:keep]), "-")
		}
	}

	if s == "" {
		return suffix
	}
	return s + "-" + suffix
}

// diacritics folds the Latin diacritics that show up in real company and
// product names to plain ASCII. Input is lowercased before lookup, so only
// lowercase forms are listed. Not a full Unicode normalization pass.
var diacritics = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a', 'ā': 'a', 'ă': 'a', 'ą': 'a', 'æ': 'a',
	'ç': 'c', 'ć': 'c', 'č': 'c',
	'đ': 'd', 'ď': 'd',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e', 'ē': 'e', 'ė': 'e', 'ę': 'e', 'ě': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i', 'ī': 'i', 'į': 'i',
	'ł': 'l',
	'ñ': 'n', 'ń': 'n', 'ň': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o', 'ō': 'o', 'œ': 'o',
	'ř': 'r',
	'ś': 's', 'š': 's', 'ș': 's', 'ß': 's',
	'ť': 't', 'ț': 't',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u', 'ū': 'u', 'ů': 'u', 'ų': 'u',
	'ý': 'y', 'ÿ': 'y',
	'ź': 'z', 'ž': 'z', 'ż': 'z',
}

const suffixCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// Deterministic fallback keeps Make total.
		for i := range b {
			b[i] = suffixCharset[i%len(suffixCharset)]
		}
		return string(b)
	}
	for i := range b {
		b[i] = suffixCharset[int(b[i])%len(suffixCharset)]
	}
	return string(b)
}
