// Package identity provides the canonical player identity store for
// playerlink. It defines the data model shared by the resolution engine and
// its collaborators (stat loaders, lineup unifiers, exporters) and the store
// contracts the engine reads and writes through.
package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	plerrors "github.com/otherjamesbrown/playerlink/pkg/errors"
)

// Source identifies an external data provider. The set is closed: records
// from unknown providers are rejected at validation time.
type Source string

const (
	SourceGSIS       Source = "gsis"
	SourceSleeper    Source = "sleeper"
	SourceESPN       Source = "espn"
	SourceYahoo      Source = "yahoo"
	SourceSportradar Source = "sportradar"
	SourcePFR        Source = "pfr"
	SourceRotowire   Source = "rotowire"
)

// KnownSources returns all recognized provider names.
func KnownSources() []Source {
	return []Source{
		SourceGSIS, SourceSleeper, SourceESPN, SourceYahoo,
		SourceSportradar, SourcePFR, SourceRotowire,
	}
}

// Valid reports whether s is a recognized provider.
func (s Source) Valid() bool {
	for _, known := range KnownSources() {
		if s == known {
			return true
		}
	}
	return false
}

// Position is a player's roster position. An empty value means unknown.
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionOL  Position = "OL"
	PositionDL  Position = "DL"
	PositionLB  Position = "LB"
	PositionDB  Position = "DB"
	PositionK   Position = "K"
	PositionP   Position = "P"
	PositionLS  Position = "LS"
	PositionDEF Position = "DEF"
)

// PlayerStatus is a player's roster status.
type PlayerStatus string

const (
	StatusActive    PlayerStatus = "active"
	StatusPractice  PlayerStatus = "practice"
	StatusInjured   PlayerStatus = "injured"
	StatusSuspended PlayerStatus = "suspended"
	StatusRetired   PlayerStatus = "retired"
	StatusUnsigned  PlayerStatus = "unsigned"
	StatusUnknown   PlayerStatus = "unknown"
)

// MatchMethod indicates how an identifier mapping was established.
type MatchMethod string

const (
	MethodExact           MatchMethod = "exact"
	MethodCrosswalk       MatchMethod = "crosswalk"
	MethodNameDOB         MatchMethod = "name_dob"
	MethodNamePositionDOB MatchMethod = "name_position_dob"
	MethodFuzzy           MatchMethod = "fuzzy"
	MethodManual          MatchMethod = "manual"
	MethodInferred        MatchMethod = "inferred"
)

// Player is the canonical identity for one real-world athlete.
//
// PlayerID is generated once and never reused or mutated.
// CanonicalNameNormalized is always a pure function of CanonicalName; use
// SetCanonicalName to keep the two in sync.
type Player struct {
	PlayerID                string       `json:"player_id"`
	CanonicalName           string       `json:"canonical_name"`
	CanonicalNameNormalized string       `json:"canonical_name_normalized"`
	Position                Position     `json:"position,omitempty"`
	BirthDate               string       `json:"birth_date,omitempty"` // ISO yyyy-mm-dd
	College                 string       `json:"college,omitempty"`
	CurrentTeam             string       `json:"current_team,omitempty"`
	Status                  PlayerStatus `json:"status"`
	DebutYear               *int         `json:"debut_year,omitempty"`
	FinalYear               *int         `json:"final_year,omitempty"`
	CreatedAt               time.Time    `json:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at"`

	// AliasNames holds the player's normalized alias strings when the read
	// path serves name matching (FindByName, CandidatesForFuzzy). It is not
	// persisted on the players relation itself.
	AliasNames []string `json:"alias_names,omitempty"`
}

// NewPlayerID generates a fresh opaque player id.
func NewPlayerID() string {
	return "pl_" + uuid.NewString()
}

// SetCanonicalName updates the canonical name and its derived normalized form.
func (p *Player) SetCanonicalName(name string) {
	p.CanonicalName = name
	p.CanonicalNameNormalized = NormalizeName(name)
}

// MatchesName reports whether normalized matches the player's normalized
// canonical name or any of its loaded aliases.
func (p *Player) MatchesName(normalized string) bool {
	if p.CanonicalNameNormalized == normalized {
		return true
	}
	for _, a := range p.AliasNames {
		if a == normalized {
			return true
		}
	}
	return false
}

// Identifier maps one external source's id to a player.
//
// The pair (Source, ExternalID) is unique across the store: at most one
// player may claim a given external id from a given source. A write that
// would violate this fails with ErrDuplicateIdentifier and is never resolved
// by overwrite.
type Identifier struct {
	PlayerID   string      `json:"player_id"`
	Source     Source      `json:"source"`
	ExternalID string      `json:"external_id"`
	Confidence float64     `json:"confidence"`
	Method     MatchMethod `json:"match_method"`
	VerifiedAt *time.Time  `json:"verified_at,omitempty"`
	VerifiedBy string      `json:"verified_by,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// AliasType classifies where an alternate name came from.
type AliasType string

const (
	AliasTypeNickname  AliasType = "nickname"
	AliasTypeLegal     AliasType = "legal"
	AliasTypeBroadcast AliasType = "broadcast"
)

// Alias is an alternate name string for a player. It widens the
// name-matching surface; it is never an identity key by itself.
type Alias struct {
	PlayerID        string    `json:"player_id"`
	Alias           string    `json:"alias"`
	AliasNormalized string    `json:"alias_normalized"`
	Source          Source    `json:"source,omitempty"`
	AliasType       AliasType `json:"alias_type,omitempty"`
}

// SourceMetadata carries the descriptive fields a provider attached to a
// record. Any subset may be absent; empty strings and nil pointers mean
// "not supplied".
type SourceMetadata struct {
	Name      string   `json:"name,omitempty"`
	Position  Position `json:"position,omitempty"`
	BirthDate string   `json:"birth_date,omitempty"`
	Team      string   `json:"team,omitempty"`
	College   string   `json:"college,omitempty"`
	DraftYear *int     `json:"draft_year,omitempty"`

	// CrossIDs holds other providers' ids stated on the same record, e.g. a
	// Sleeper payload that also carries the player's GSIS id.
	CrossIDs map[Source]string `json:"cross_ids,omitempty"`
}

// InputRecord is one external record submitted for resolution.
type InputRecord struct {
	Source     Source          `json:"source"`
	ExternalID string          `json:"external_id"`
	Metadata   *SourceMetadata `json:"metadata,omitempty"`
}

// Validate checks the record is well-formed enough to attempt resolution.
func (r InputRecord) Validate() error {
	if r.ExternalID == "" {
		return fmt.Errorf("empty external id: %w", plerrors.ErrValidation)
	}
	if !r.Source.Valid() {
		return fmt.Errorf("unknown source %q: %w", r.Source, plerrors.ErrValidation)
	}
	return nil
}

// QueueStatus is the review state of a resolution queue entry.
type QueueStatus string

const (
	QueuePending  QueueStatus = "pending"
	QueueResolved QueueStatus = "resolved"
	QueueRejected QueueStatus = "rejected"
)

// QueueCandidate is one scored candidate attached to a queue entry.
type QueueCandidate struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Score    int      `json:"score"`
	Reasons  []string `json:"reasons,omitempty"`
}

// ResolutionQueueEntry is a held, unresolved or ambiguous attempt awaiting
// human review. The engine writes entries; an external review workflow
// resolves them through the manual-override path.
type ResolutionQueueEntry struct {
	ID            int64           `json:"id"`
	Source        Source          `json:"source"`
	ExternalID    string          `json:"external_id"`
	Metadata      *SourceMetadata `json:"metadata,omitempty"`
	BestCandidate *QueueCandidate `json:"best_candidate,omitempty"`
	Candidates    []QueueCandidate `json:"candidates,omitempty"`
	Status        QueueStatus     `json:"status"`
	Priority      int             `json:"priority"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AuditAction classifies the outcome recorded by an audit entry.
type AuditAction string

const (
	AuditMatchSuccess  AuditAction = "match_success"
	AuditMatchConflict AuditAction = "match_conflict"
	AuditMatchFailure  AuditAction = "match_failure"
)

// AuditLogEntry is one append-only record of a resolution attempt. Entries
// are never mutated or deleted; they serve post-hoc quality audits, not
// correctness.
type AuditLogEntry struct {
	ID         int64                  `json:"id"`
	SessionID  string                 `json:"session_id"`
	Action     AuditAction            `json:"action"`
	PlayerID   string                 `json:"player_id,omitempty"`
	Source     Source                 `json:"source,omitempty"`
	ExternalID string                 `json:"external_id,omitempty"`
	Confidence *float64               `json:"confidence,omitempty"`
	Method     MatchMethod            `json:"match_method,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Result     string                 `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewSessionID generates an id grouping the audit entries of one engine
// session.
func NewSessionID() string {
	return "sess_" + uuid.NewString()
}
