package resolver

import (
	"sort"
	"strings"

	"github.com/otherjamesbrown/playerlink/pkg/identity"
)

// TokenSetRatio computes a token-based similarity between two normalized
// names on a 0-100 scale. Token order does not matter and tokens shared by
// both names never count against the score, so "chase jamarr" scores 100
// against "jamarr chase" and a missing middle token costs little.
func TokenSetRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	setA := tokenSet(a)
	setB := tokenSet(b)

	var common, onlyA, onlyB []string
	for tok := range setA {
		if setB[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if !setA[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	full1 := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	full2 := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := levenshteinSimilarity(full1, full2)
	if base != "" {
		if s := levenshteinSimilarity(base, full1); s > best {
			best = s
		}
		if s := levenshteinSimilarity(base, full2); s > best {
			best = s
		}
	}

	return int(best*100 + 0.5)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// levenshteinSimilarity returns 1 - distance/maxLen.
func levenshteinSimilarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// scoredCandidate carries both the boosted ranking score and the raw name
// ratio the admission floors and confidence bucket read.
type scoredCandidate struct {
	player  identity.Player
	raw     int // name ratio only, 0-100
	score   int // raw + metadata bonuses, uncapped
	boosted bool
	reasons []string
}

// scoreCandidate scores one pool player against the input metadata. The name
// ratio is taken against the canonical name and every alias, keeping the
// best. Corroborating metadata adds bonus points that rank candidates against
// each other; admission floors and the confidence bucket read the raw ratio
// alone. The total is left uncapped so a bonus still separates two
// perfect-name candidates.
func scoreCandidate(p identity.Player, inputName string, meta *identity.SourceMetadata, bonuses BonusConfig) scoredCandidate {
	raw := TokenSetRatio(inputName, p.CanonicalNameNormalized)
	for _, alias := range p.AliasNames {
		if r := TokenSetRatio(inputName, alias); r > raw {
			raw = r
		}
	}

	sc := scoredCandidate{player: p, raw: raw, score: raw}
	if meta == nil {
		return sc
	}

	if meta.BirthDate != "" && p.BirthDate != "" && meta.BirthDate == p.BirthDate {
		sc.score += bonuses.BirthDate
		sc.boosted = true
		sc.reasons = append(sc.reasons, "birth date match")
	}
	if meta.Team != "" && p.CurrentTeam != "" &&
		identity.NormalizeTeam(meta.Team) == identity.NormalizeTeam(p.CurrentTeam) {
		sc.score += bonuses.Team
		sc.boosted = true
		sc.reasons = append(sc.reasons, "team match")
	}
	if meta.College != "" && p.College != "" &&
		identity.NormalizeCollege(meta.College) == identity.NormalizeCollege(p.College) {
		sc.score += bonuses.College
		sc.boosted = true
		sc.reasons = append(sc.reasons, "college match")
	}
	if meta.DraftYear != nil && p.DebutYear != nil && *meta.DraftYear == *p.DebutYear {
		sc.score += bonuses.DraftYear
		sc.boosted = true
		sc.reasons = append(sc.reasons, "draft year match")
	}

	return sc
}

// fuzzyConfidence buckets the raw (unboosted) ratio into a confidence value.
func fuzzyConfidence(raw int) float64 {
	switch {
	case raw >= 95:
		return 0.75
	case raw >= 90:
		return 0.70
	default:
		return 0.60
	}
}
