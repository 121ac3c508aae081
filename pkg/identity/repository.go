package identity

import "context"

// NameFilter narrows a FindByName lookup with corroborating attributes.
// Zero values mean "do not filter on this attribute".
type NameFilter struct {
	Position  Position
	BirthDate string // ISO yyyy-mm-dd
	Team      string // normalized
}

// CandidateFilter selects the pre-filtered pool for the fuzzy pass: by
// position when known, else by birth date, else a bounded slice of active
// players ordered by player id.
type CandidateFilter struct {
	Position  Position
	BirthDate string // ISO yyyy-mm-dd
	Limit     int    // 0 means the store default cap
}

// AuditFilter narrows ListAudit.
type AuditFilter struct {
	SessionID  string
	Source     Source
	ExternalID string
	Action     AuditAction
	Limit      int
}

// Store is the identity store contract consumed by the resolution engine and
// by playerlink's read-side commands. Implementations must support multiple
// concurrent readers; AddIdentifier must be serialized (or compare-and-swap)
// so two concurrent resolutions can never both claim the same
// (source, external_id) for different players.
//
// Lookup methods return ErrNotFound for a missing single record; set-valued
// lookups return empty slices. Store unreachability surfaces as
// ErrStoreUnavailable wrapped with detail.
type Store interface {
	// Players.
	CreatePlayer(ctx context.Context, p *Player) error
	GetPlayer(ctx context.Context, playerID string) (*Player, error)

	// Identifier index.
	FindByIdentifier(ctx context.Context, source Source, externalID string) (*Player, error)
	AddIdentifier(ctx context.Context, id Identifier) error
	IdentifiersFor(ctx context.Context, playerID string) ([]Identifier, error)

	// Name index. FindByName is an exact-match filter over the normalized
	// canonical-name and alias indexes; ambiguity (len > 1) is an expected
	// outcome, not an error.
	FindByName(ctx context.Context, normalizedName string, f NameFilter) ([]Player, error)
	CandidatesForFuzzy(ctx context.Context, f CandidateFilter) ([]Player, error)

	// Aliases.
	AddAlias(ctx context.Context, a Alias) error
	AliasesFor(ctx context.Context, playerID string) ([]Alias, error)

	// Resolution queue. EnqueueResolution reports false when a pending entry
	// for the same (source, external_id) already exists (idempotent enqueue).
	EnqueueResolution(ctx context.Context, e *ResolutionQueueEntry) (bool, error)
	ListQueue(ctx context.Context, status QueueStatus, limit int) ([]ResolutionQueueEntry, error)
	SetQueueStatus(ctx context.Context, id int64, status QueueStatus) error

	// Audit log, append-only.
	AppendAudit(ctx context.Context, e *AuditLogEntry) error
	ListAudit(ctx context.Context, f AuditFilter) ([]AuditLogEntry, error)
}

// DefaultFuzzyPoolCap bounds the fuzzy candidate pool when no narrowing
// filter is available, trading recall for a bounded worst-case scan.
const DefaultFuzzyPoolCap = 5000
