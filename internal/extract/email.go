package extract

import (
	"regexp"
	"strings"
)

// Spoken email handling. Transcription renders addresses many ways:
// "john@acme.com", "john at acme dot com", "t-bone 7777 at hotmail dot com",
// or split across utterances ("t-bone", then "7777 at hotmail dot com").
// Patterns run most specific first so the name+digits forms win before the
// generic ones.

const tldAlt = `com|net|org|io|ai|us|uk|ca|gov|edu`

var (
	emailRe      = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	emailExactRe = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)
)

type spokenPattern struct {
	re    *regexp.Regexp
	build func(m []string) string
}

// cleanLocal strips the separators transcription inserts into the local part.
func cleanLocal(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

var spokenPatterns = []spokenPattern{
	// Name split around digits: "t-bone 7777 at hotmail dot com".
	{
		re: regexp.MustCompile(`([a-z-]+)\s*(\d+)\s+at\s+([a-z0-9-]+)\s+dot\s+(` + tldAlt + `)\b`),
		build: func(m []string) string {
			return cleanLocal(m[1]+m[2]) + "@" + m[3] + "." + m[4]
		},
	},
	// Two-part TLD: "jane at company dot co dot uk".
	{
		re: regexp.MustCompile(`([a-z0-9._-]+)\s+at\s+([a-z0-9-]+)\s+dot\s+co\s+dot\s+(uk|nz|za)\b`),
		build: func(m []string) string {
			return cleanLocal(m[1]) + "@" + m[2] + ".co." + m[3]
		},
	},
	// Fully spoken: "name at domain dot com".
	{
		re: regexp.MustCompile(`([a-z0-9._-]+)\s+at\s+([a-z0-9-]+)\s+dot\s+(` + tldAlt + `)\b`),
		build: func(m []string) string {
			return cleanLocal(m[1]) + "@" + m[2] + "." + m[3]
		},
	},
	// Bare .co: "name at domain dot co".
	{
		re: regexp.MustCompile(`([a-z0-9._-]+)\s+at\s+([a-z0-9-]+)\s+dot\s+co\b`),
		build: func(m []string) string {
			return cleanLocal(m[1]) + "@" + m[2] + ".co"
		},
	},
	// Mixed: "name@domain dot com".
	{
		re: regexp.MustCompile(`([a-z0-9._-]+)@([a-z0-9-]+)\s+dot\s+(` + tldAlt + `)\b`),
		build: func(m []string) string {
			return cleanLocal(m[1]) + "@" + m[2] + "." + m[3]
		},
	},
	// Mixed: "name at domain.com".
	{
		re: regexp.MustCompile(`([a-z0-9._-]+)\s+at\s+([a-z0-9-]+)\.(` + tldAlt + `)\b`),
		build: func(m []string) string {
			return cleanLocal(m[1]) + "@" + m[2] + "." + m[3]
		},
	},
}

var fragmentShapeRe = regexp.MustCompile(`^[a-z-]+\s*\d*\.?$`)

var emailCueRe = regexp.MustCompile(`@|\bat\b|\bdot\b|\.com\b|hotmail|gmail|yahoo|outlook`)

var fragmentFiller = map[string]bool{
	"my email":         true,
	"email":            true,
	"my email address": true,
	"email address":    true,
	"is":               true,
	"yes":              true,
	"no":               true,
}

// ValidateEmail applies the structural checks used before any address is
// stored: exactly one @, bounded local and domain parts, dotted domain.
func ValidateEmail(email string) bool {
	if email == "" || strings.Count(email, "@") != 1 {
		return false
	}
	if !emailExactRe.MatchString(email) {
		return false
	}
	at := strings.IndexByte(email, '@')
	local, domain := email[:at], email[at+1:]
	if len(local) == 0 || len(local) > 64 {
		return false
	}
	if len(domain) == 0 || len(domain) > 255 {
		return false
	}
	return strings.Contains(domain, ".")
}

// NormalizeSpokenEmail lowercases and converts spoken separators in an
// address-shaped string: " at " becomes @, " dot " becomes ".", and any
// remaining spaces are removed.
func NormalizeSpokenEmail(email string) string {
	s := strings.ToLower(strings.TrimSpace(email))
	s = strings.ReplaceAll(s, " at ", "@")
	s = strings.ReplaceAll(s, " dot ", ".")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

func (a *Accumulator) observeEmail(text string) {
	lower := strings.ToLower(text)

	// Direct form first.
	if raw := emailRe.FindString(text); raw != "" {
		if candidate := NormalizeSpokenEmail(raw); ValidateEmail(candidate) {
			a.setEmail(candidate)
			return
		}
	}

	a.bufferEmailFragment(lower)

	// With two or more buffered fragments, match against the combined
	// buffer so an address split across turns reassembles.
	candidate := lower
	if len(a.emailFragments) >= 2 {
		candidate = strings.Join(a.emailFragments, " ")
	}
	a.matchSpoken(candidate)
}

func (a *Accumulator) matchSpoken(text string) {
	for _, p := range spokenPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := p.build(m)
		if ValidateEmail(candidate) {
			a.setEmail(candidate)
			return
		}
	}
}

// setEmail always overwrites: a caller correcting a misheard address must
// win over the earlier capture.
func (a *Accumulator) setEmail(email string) {
	a.Entities.Email = email
	a.emailFragments = nil
}

func (a *Accumulator) bufferEmailFragment(lower string) {
	lower = strings.TrimSpace(lower)
	if fragmentFiller[lower] {
		return
	}
	looksLike := emailCueRe.MatchString(lower)
	if !looksLike {
		if !fragmentShapeRe.MatchString(lower) || len(strings.Fields(lower)) > 2 {
			return
		}
	}
	a.emailFragments = pushFragment(a.emailFragments, lower)
}
