package identity

import (
	"strings"
	"time"
	"unicode"

	"github.com/gosimple/unidecode"
)

// Generational suffixes stripped from normalized names. "v" is included only
// when it follows at least two other tokens, so single-initial surnames
// survive.
var nameSuffixes = map[string]bool{
	"jr":  true,
	"sr":  true,
	"ii":  true,
	"iii": true,
	"iv":  true,
	"v":   true,
}

// NormalizeName canonicalizes a player name for index lookups and fuzzy
// comparison. The same function is used by the store when it writes the
// normalized-name index and by the matcher when it reads it, so the two can
// never disagree.
//
//	NormalizeName("Patrick Mahomes II")  == "patrick mahomes"
//	NormalizeName("patrick MAHOMES ii")  == "patrick mahomes"
//	NormalizeName("Ja'Marr Chase")       == "jamarr chase"
//	NormalizeName("JuJu Smith-Schuster") == "juju smith schuster"
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}

	// Fold accents and any other non-ASCII to their closest ASCII form.
	name = unidecode.Unidecode(name)
	name = strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '/', unicode.IsSpace(r):
			b.WriteByte(' ')
		default:
			// Apostrophes, periods, commas and the rest vanish entirely so
			// "Ja'Marr" and "JaMarr" collapse to the same token.
		}
	}

	tokens := strings.Fields(b.String())
	if len(tokens) > 2 && nameSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	} else if len(tokens) == 2 && tokens[1] != "v" && nameSuffixes[tokens[1]] {
		tokens = tokens[:1]
	}

	return strings.Join(tokens, " ")
}

// Provider date layouts seen in the wild, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02.01.2006",
}

// NormalizeDate parses a provider-supplied date string and returns it in ISO
// yyyy-mm-dd form. Unparseable input normalizes to "" so an unusable date is
// indistinguishable from an absent one.
func NormalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// NormalizeTeam canonicalizes a team string for corroboration checks. Team
// values are compared only for equality, so a simple lowercase/punctuation
// fold is enough.
func NormalizeTeam(team string) string {
	return foldToken(team)
}

// collegePrefixes and collegeSuffixes are boilerplate stripped from school
// names so "University of Alabama" and "Alabama" corroborate each other.
var (
	collegePrefixes = []string{"university of ", "college of "}
	collegeSuffixes = []string{" university", " college"}
)

// NormalizeCollege canonicalizes a college name for corroboration checks.
//
//	NormalizeCollege("Ohio St.")               == "ohio state"
//	NormalizeCollege("University of Alabama")  == "alabama"
func NormalizeCollege(college string) string {
	c := foldToken(college)
	if c == "" {
		return ""
	}

	for _, p := range collegePrefixes {
		c = strings.TrimPrefix(c, p)
	}
	for _, s := range collegeSuffixes {
		c = strings.TrimSuffix(c, s)
	}

	// "st" as a trailing token is the common abbreviation of "state".
	tokens := strings.Fields(c)
	for i, tok := range tokens {
		if tok == "st" {
			tokens[i] = "state"
		}
	}
	return strings.Join(tokens, " ")
}

// foldToken lowercases, ASCII-folds and strips punctuation from a short
// free-text value.
func foldToken(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(unidecode.Unidecode(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '&', unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeMetadata returns a copy of m with every comparison attribute in
// canonical form. The engine normalizes once on entry so every pass sees the
// same values.
func NormalizeMetadata(m *SourceMetadata) *SourceMetadata {
	if m == nil {
		return nil
	}
	out := *m
	out.BirthDate = NormalizeDate(m.BirthDate)
	out.Team = NormalizeTeam(m.Team)
	out.College = NormalizeCollege(m.College)
	return &out
}
