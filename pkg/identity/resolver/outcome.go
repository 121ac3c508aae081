package resolver

import "github.com/otherjamesbrown/playerlink/pkg/identity"

// OutcomeKind discriminates the three resolution results.
type OutcomeKind string

const (
	// OutcomeResolved means exactly one player was identified.
	OutcomeResolved OutcomeKind = "resolved"

	// OutcomeAmbiguous means multiple candidates survived and no tie-break
	// separated them; the record was queued for review.
	OutcomeAmbiguous OutcomeKind = "ambiguous"

	// OutcomeUnresolved means no candidate cleared any pass; the record was
	// queued for review.
	OutcomeUnresolved OutcomeKind = "unresolved"
)

// Candidate is one scored possibility surfaced by a non-deciding pass.
type Candidate struct {
	PlayerID   string  `json:"player_id"`
	Name       string  `json:"name"`
	Score      int     `json:"score"`
	Confidence float64 `json:"confidence,omitempty"`
	Reasons    []string `json:"reasons,omitempty"`
}

// Outcome is the tagged result of one Resolve call. Exactly one of the
// three shapes holds depending on Kind:
//
//   - OutcomeResolved: PlayerID, Confidence and Method are set.
//   - OutcomeAmbiguous: Candidates holds the competing players, best first.
//   - OutcomeUnresolved: only Kind (and QueueEntryID when enqueued) is set.
//
// Ambiguity and no-match are outcomes the caller branches on, not errors;
// the error return of Resolve is reserved for store failures and malformed
// input.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	PlayerID   string               `json:"player_id,omitempty"`
	Confidence float64              `json:"confidence,omitempty"`
	Method     identity.MatchMethod `json:"method,omitempty"`

	Candidates []Candidate `json:"candidates,omitempty"`

	// QueueEntryID is set when this call created a new review-queue entry.
	// Zero when the entry already existed (idempotent suppression) or the
	// record resolved.
	QueueEntryID int64 `json:"queue_entry_id,omitempty"`
}

// Resolved reports whether the outcome identifies a single player.
func (o Outcome) Resolved() bool { return o.Kind == OutcomeResolved }

func resolved(playerID string, confidence float64, method identity.MatchMethod) Outcome {
	return Outcome{
		Kind:       OutcomeResolved,
		PlayerID:   playerID,
		Confidence: confidence,
		Method:     method,
	}
}
