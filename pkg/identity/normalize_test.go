package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Patrick Mahomes", "patrick mahomes"},
		{"case insensitive", "patrick MAHOMES", "patrick mahomes"},
		{"generational suffix", "Patrick Mahomes II", "patrick mahomes"},
		{"suffix case", "patrick MAHOMES ii", "patrick mahomes"},
		{"jr with period", "Odell Beckham Jr.", "odell beckham"},
		{"sr suffix", "Marvin Harrison Sr", "marvin harrison"},
		{"fifth suffix", "William Fuller V", "william fuller"},
		{"v kept for two tokens", "Herb V", "herb v"},
		{"apostrophe", "Ja'Marr Chase", "jamarr chase"},
		{"hyphen splits", "JuJu Smith-Schuster", "juju smith schuster"},
		{"accents folded", "José Ramírez", "jose ramirez"},
		{"whitespace collapsed", "  Josh   Allen  ", "josh allen"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeNameRoundTrip(t *testing.T) {
	// The same athlete under two providers' spellings lands on one key.
	assert.Equal(t, NormalizeName("Patrick Mahomes II"), NormalizeName("patrick MAHOMES ii"))

	// A genuinely different name string stays distinct.
	assert.NotEqual(t, NormalizeName("Patrick Mahomes II"), NormalizeName("Pat Mahomes"))
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso passthrough", "1995-09-17", "1995-09-17"},
		{"us slashes", "09/17/1995", "1995-09-17"},
		{"us slashes short", "9/17/1995", "1995-09-17"},
		{"long form", "September 17, 1995", "1995-09-17"},
		{"short month", "Sep 17, 1995", "1995-09-17"},
		{"timestamp", "1995-09-17T00:00:00Z", "1995-09-17"},
		{"dotted european", "17.09.1995", "1995-09-17"},
		{"garbage", "yesterday", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestNormalizeTeam(t *testing.T) {
	assert.Equal(t, "kc", NormalizeTeam("KC"))
	assert.Equal(t, "kansas city chiefs", NormalizeTeam("Kansas City Chiefs"))
	assert.Equal(t, NormalizeTeam("CIN"), NormalizeTeam("cin"))
	assert.Equal(t, "", NormalizeTeam(""))
}

func TestNormalizeCollege(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ohio St.", "ohio state"},
		{"Ohio State", "ohio state"},
		{"University of Alabama", "alabama"},
		{"Alabama", "alabama"},
		{"Texas Tech University", "texas tech"},
		{"LSU", "lsu"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCollege(tt.in))
		})
	}
}

func TestNormalizeMetadata(t *testing.T) {
	draft := 2017
	in := &SourceMetadata{
		Name:      "Patrick Mahomes",
		Position:  PositionQB,
		BirthDate: "09/17/1995",
		Team:      "KC",
		College:   "Texas Tech University",
		DraftYear: &draft,
	}

	out := NormalizeMetadata(in)

	assert.Equal(t, "1995-09-17", out.BirthDate)
	assert.Equal(t, "kc", out.Team)
	assert.Equal(t, "texas tech", out.College)
	// Input is left untouched.
	assert.Equal(t, "09/17/1995", in.BirthDate)

	assert.Nil(t, NormalizeMetadata(nil))
}

func TestSetCanonicalName(t *testing.T) {
	p := &Player{}
	p.SetCanonicalName("Ja'Marr Chase")

	assert.Equal(t, "Ja'Marr Chase", p.CanonicalName)
	assert.Equal(t, "jamarr chase", p.CanonicalNameNormalized)
}

func TestMatchesName(t *testing.T) {
	p := &Player{CanonicalNameNormalized: "joshua allen", AliasNames: []string{"josh allen"}}

	assert.True(t, p.MatchesName("joshua allen"))
	assert.True(t, p.MatchesName("josh allen"))
	assert.False(t, p.MatchesName("josh allan"))
}
