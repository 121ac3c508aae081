package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otherjamesbrown/playerlink/pkg/identity"
)

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want func(t *testing.T, ratio int)
	}{
		{
			name: "identical",
			a:    "patrick mahomes",
			b:    "patrick mahomes",
			want: func(t *testing.T, r int) { assert.Equal(t, 100, r) },
		},
		{
			name: "token order ignored",
			a:    "mahomes patrick",
			b:    "patrick mahomes",
			want: func(t *testing.T, r int) { assert.Equal(t, 100, r) },
		},
		{
			name: "subset scores full",
			a:    "mahomes",
			b:    "patrick mahomes",
			want: func(t *testing.T, r int) { assert.Equal(t, 100, r) },
		},
		{
			name: "shortened first name stays below admission floors",
			a:    "pat mahomes",
			b:    "patrick mahomes",
			want: func(t *testing.T, r int) { assert.Less(t, r, 85) },
		},
		{
			name: "unrelated names score low",
			a:    "josh allen",
			b:    "patrick mahomes",
			want: func(t *testing.T, r int) { assert.Less(t, r, 50) },
		},
		{
			name: "empty input",
			a:    "",
			b:    "patrick mahomes",
			want: func(t *testing.T, r int) { assert.Equal(t, 0, r) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, TokenSetRatio(tt.a, tt.b))
		})
	}
}

func TestTokenSetRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"jamarr chase", "chase jamarr"},
		{"pat mahomes", "patrick mahomes"},
		{"josh allen", "joshua allen"},
	}
	for _, p := range pairs {
		assert.Equal(t, TokenSetRatio(p[0], p[1]), TokenSetRatio(p[1], p[0]), "ratio must be symmetric for %v", p)
	}
}

func TestScoreCandidate_Bonuses(t *testing.T) {
	bonuses := DefaultConfig().Bonuses
	draft := 2020

	player := identity.Player{
		PlayerID:                "pl_1",
		CanonicalName:           "Ja'Marr Chase",
		CanonicalNameNormalized: "jamarr chase",
		BirthDate:               "2000-03-01",
		CurrentTeam:             "CIN",
		College:                 "LSU",
		DebutYear:               &draft,
	}

	tests := []struct {
		name      string
		meta      *identity.SourceMetadata
		wantScore int
		wantBoost bool
	}{
		{
			name:      "no metadata beyond name",
			meta:      &identity.SourceMetadata{},
			wantScore: 100,
			wantBoost: false,
		},
		{
			name:      "team corroboration adds past 100",
			meta:      &identity.SourceMetadata{Team: "cin"},
			wantScore: 105,
			wantBoost: true,
		},
		{
			name: "all corroborating fields stack",
			meta: &identity.SourceMetadata{
				BirthDate: "2000-03-01",
				Team:      "CIN",
				College:   "LSU",
				DraftYear: &draft,
			},
			wantScore: 123,
			wantBoost: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := scoreCandidate(player, "jamarr chase", tt.meta, bonuses)
			assert.Equal(t, tt.wantScore, sc.score)
			assert.Equal(t, tt.wantBoost, sc.boosted)
			assert.Equal(t, 100, sc.raw)
		})
	}
}

func TestScoreCandidate_BonusLiftsWeakName(t *testing.T) {
	player := identity.Player{
		PlayerID:                "pl_2",
		CanonicalName:           "Patrick Mahomes",
		CanonicalNameNormalized: "patrick mahomes",
		BirthDate:               "1995-09-17",
		CurrentTeam:             "KC",
	}

	meta := &identity.SourceMetadata{BirthDate: "1995-09-17", Team: "KC"}
	sc := scoreCandidate(player, "pat mahomes", meta, DefaultConfig().Bonuses)

	// Raw ratio is below the high floor, but corroboration lifts the
	// admission score past the medium floor.
	assert.Less(t, sc.raw, 90)
	assert.True(t, sc.boosted)
	assert.Equal(t, sc.raw+10+5, sc.score)
}

func TestScoreCandidate_UsesAliases(t *testing.T) {
	player := identity.Player{
		PlayerID:                "pl_3",
		CanonicalName:           "William Smith",
		CanonicalNameNormalized: "william smith",
		AliasNames:              []string{"billy smith"},
	}

	sc := scoreCandidate(player, "billy smith", nil, DefaultConfig().Bonuses)
	assert.Equal(t, 100, sc.raw)
}

func TestFuzzyConfidence(t *testing.T) {
	assert.Equal(t, 0.75, fuzzyConfidence(100))
	assert.Equal(t, 0.75, fuzzyConfidence(95))
	assert.Equal(t, 0.70, fuzzyConfidence(94))
	assert.Equal(t, 0.70, fuzzyConfidence(90))
	assert.Equal(t, 0.60, fuzzyConfidence(89))
	assert.Equal(t, 0.60, fuzzyConfidence(0))
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"mahomes", "mahomes ii", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshteinDistance(tt.a, tt.b), "distance(%q, %q)", tt.a, tt.b)
	}
}
