package identity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	plerrors "github.com/otherjamesbrown/playerlink/pkg/errors"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and the
// CLI's --dry-run resolution mode; production traffic runs against
// PostgresStore. Semantics mirror the Postgres implementation exactly,
// including the (source, external_id) uniqueness invariant.
type MemoryStore struct {
	mu sync.RWMutex

	players     map[string]*Player
	identifiers map[identifierKey]Identifier
	byPlayer    map[string][]identifierKey
	aliases     map[string][]Alias
	queue       []*ResolutionQueueEntry
	audit       []AuditLogEntry

	nextQueueID int64
	nextAuditID int64
}

type identifierKey struct {
	source     Source
	externalID string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:     make(map[string]*Player),
		identifiers: make(map[identifierKey]Identifier),
		byPlayer:    make(map[string][]identifierKey),
		aliases:     make(map[string][]Alias),
	}
}

// CreatePlayer adds a new canonical player.
func (s *MemoryStore) CreatePlayer(ctx context.Context, p *Player) error {
	if p.PlayerID == "" {
		return fmt.Errorf("player id required: %w", plerrors.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[p.PlayerID]; ok {
		return fmt.Errorf("player %s: %w", p.PlayerID, plerrors.ErrAlreadyExists)
	}

	cp := *p
	if cp.CanonicalNameNormalized == "" {
		cp.CanonicalNameNormalized = NormalizeName(cp.CanonicalName)
	}
	if cp.Status == "" {
		cp.Status = StatusUnknown
	}
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	cp.AliasNames = nil

	s.players[cp.PlayerID] = &cp
	return nil
}

// GetPlayer returns a player by id.
func (s *MemoryStore) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, plerrors.ErrNotFound)
	}
	return s.snapshotLocked(p), nil
}

// FindByIdentifier resolves a (source, external_id) pair to its player.
func (s *MemoryStore) FindByIdentifier(ctx context.Context, source Source, externalID string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.identifiers[identifierKey{source, externalID}]
	if !ok {
		return nil, fmt.Errorf("identifier %s:%s: %w", source, externalID, plerrors.ErrNotFound)
	}
	p, ok := s.players[id.PlayerID]
	if !ok {
		return nil, fmt.Errorf("identifier %s:%s references missing player %s: %w",
			source, externalID, id.PlayerID, plerrors.ErrNotFound)
	}
	return s.snapshotLocked(p), nil
}

// AddIdentifier records a new (source, external_id) → player mapping. A
// conflicting claim fails with ErrDuplicateIdentifier and leaves the store
// unchanged; re-adding the same mapping is a no-op.
func (s *MemoryStore) AddIdentifier(ctx context.Context, id Identifier) error {
	if id.ExternalID == "" {
		return fmt.Errorf("empty external id: %w", plerrors.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id.PlayerID]; !ok {
		return fmt.Errorf("player %s: %w", id.PlayerID, plerrors.ErrNotFound)
	}

	key := identifierKey{id.Source, id.ExternalID}
	if existing, ok := s.identifiers[key]; ok {
		if existing.PlayerID == id.PlayerID {
			return nil
		}
		return fmt.Errorf("%s:%s already maps to player %s: %w",
			id.Source, id.ExternalID, existing.PlayerID, plerrors.ErrDuplicateIdentifier)
	}

	if id.CreatedAt.IsZero() {
		id.CreatedAt = time.Now().UTC()
	}
	s.identifiers[key] = id
	s.byPlayer[id.PlayerID] = append(s.byPlayer[id.PlayerID], key)
	return nil
}

// IdentifiersFor lists a player's external identifiers.
func (s *MemoryStore) IdentifiersFor(ctx context.Context, playerID string) ([]Identifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.byPlayer[playerID]
	out := make([]Identifier, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.identifiers[k])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out, nil
}

// FindByName returns all players whose normalized canonical name or alias
// equals normalizedName and who pass the filter.
func (s *MemoryStore) FindByName(ctx context.Context, normalizedName string, f NameFilter) ([]Player, error) {
	if normalizedName == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Player
	for _, p := range s.players {
		snap := s.snapshotLocked(p)
		if !snap.MatchesName(normalizedName) {
			continue
		}
		if f.Position != "" && p.Position != f.Position {
			continue
		}
		if f.BirthDate != "" && p.BirthDate != f.BirthDate {
			continue
		}
		if f.Team != "" && NormalizeTeam(p.CurrentTeam) != f.Team {
			continue
		}
		out = append(out, *snap)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

// CandidatesForFuzzy returns the pre-filtered pool for the fuzzy pass.
func (s *MemoryStore) CandidatesForFuzzy(ctx context.Context, f CandidateFilter) ([]Player, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultFuzzyPoolCap
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Player
	for _, p := range s.players {
		switch {
		case f.Position != "":
			if p.Position != f.Position {
				continue
			}
		case f.BirthDate != "":
			if p.BirthDate != f.BirthDate {
				continue
			}
		default:
			if p.Status != StatusActive {
				continue
			}
		}
		out = append(out, *s.snapshotLocked(p))
	}

	// Deterministic order so the cap removes the same tail every time.
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AddAlias attaches an alternate name to a player.
func (s *MemoryStore) AddAlias(ctx context.Context, a Alias) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[a.PlayerID]; !ok {
		return fmt.Errorf("player %s: %w", a.PlayerID, plerrors.ErrNotFound)
	}
	if a.AliasNormalized == "" {
		a.AliasNormalized = NormalizeName(a.Alias)
	}
	for _, existing := range s.aliases[a.PlayerID] {
		if existing.AliasNormalized == a.AliasNormalized {
			return nil
		}
	}
	s.aliases[a.PlayerID] = append(s.aliases[a.PlayerID], a)
	return nil
}

// AliasesFor lists a player's aliases.
func (s *MemoryStore) AliasesFor(ctx context.Context, playerID string) ([]Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Alias, len(s.aliases[playerID]))
	copy(out, s.aliases[playerID])
	return out, nil
}

// EnqueueResolution adds a review-queue entry unless a pending entry for the
// same (source, external_id) already exists.
func (s *MemoryStore) EnqueueResolution(ctx context.Context, e *ResolutionQueueEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.queue {
		if existing.Status == QueuePending &&
			existing.Source == e.Source && existing.ExternalID == e.ExternalID {
			return false, nil
		}
	}

	s.nextQueueID++
	cp := *e
	cp.ID = s.nextQueueID
	if cp.Status == "" {
		cp.Status = QueuePending
	}
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.queue = append(s.queue, &cp)

	e.ID = cp.ID
	e.Status = cp.Status
	return true, nil
}

// ListQueue returns queue entries, newest first. An empty status matches all.
func (s *MemoryStore) ListQueue(ctx context.Context, status QueueStatus, limit int) ([]ResolutionQueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ResolutionQueueEntry
	for i := len(s.queue) - 1; i >= 0; i-- {
		e := s.queue[i]
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, *e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// SetQueueStatus transitions a queue entry, normally to resolved or rejected
// after a human review decision.
func (s *MemoryStore) SetQueueStatus(ctx context.Context, id int64, status QueueStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.queue {
		if e.ID == id {
			e.Status = status
			e.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("queue entry %d: %w", id, plerrors.ErrNotFound)
}

// AppendAudit appends one audit entry. Entries are never mutated afterwards.
func (s *MemoryStore) AppendAudit(ctx context.Context, e *AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAuditID++
	cp := *e
	cp.ID = s.nextAuditID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.audit = append(s.audit, cp)

	e.ID = cp.ID
	e.CreatedAt = cp.CreatedAt
	return nil
}

// ListAudit returns audit entries, newest first.
func (s *MemoryStore) ListAudit(ctx context.Context, f AuditFilter) ([]AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []AuditLogEntry
	for i := len(s.audit) - 1; i >= 0; i-- {
		e := s.audit[i]
		if f.SessionID != "" && e.SessionID != f.SessionID {
			continue
		}
		if f.Source != "" && e.Source != f.Source {
			continue
		}
		if f.ExternalID != "" && e.ExternalID != f.ExternalID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// snapshotLocked copies a player and loads its normalized aliases for name
// matching. Callers must hold at least the read lock.
func (s *MemoryStore) snapshotLocked(p *Player) *Player {
	cp := *p
	if aliases := s.aliases[p.PlayerID]; len(aliases) > 0 {
		cp.AliasNames = make([]string, 0, len(aliases))
		for _, a := range aliases {
			cp.AliasNames = append(cp.AliasNames, a.AliasNormalized)
		}
	}
	return &cp
}

var _ Store = (*MemoryStore)(nil)
