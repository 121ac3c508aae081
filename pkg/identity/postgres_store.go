package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	plerrors "github.com/otherjamesbrown/playerlink/pkg/errors"
)

// PostgresStore implements Store using PostgreSQL. Identifier uniqueness is
// enforced by the UNIQUE(source, external_id) constraint, so two concurrent
// resolutions can never both claim the same external id: the constraint
// serializes the write and the loser sees ErrDuplicateIdentifier.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed identity store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const playerColumns = `
	p.player_id, p.canonical_name, p.canonical_name_normalized, p.position,
	p.birth_date, p.college, p.current_team, p.status,
	p.debut_year, p.final_year, p.created_at, p.updated_at`

// CreatePlayer inserts a new canonical player.
func (s *PostgresStore) CreatePlayer(ctx context.Context, p *Player) error {
	if p.PlayerID == "" {
		return fmt.Errorf("player id required: %w", plerrors.ErrValidation)
	}
	if p.CanonicalNameNormalized == "" {
		p.CanonicalNameNormalized = NormalizeName(p.CanonicalName)
	}
	if p.Status == "" {
		p.Status = StatusUnknown
	}

	query := `
		INSERT INTO players (
			player_id, canonical_name, canonical_name_normalized, position,
			birth_date, college, current_team, status, debut_year, final_year
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query,
		p.PlayerID,
		p.CanonicalName,
		p.CanonicalNameNormalized,
		nullableString(string(p.Position)),
		nullableDate(p.BirthDate),
		nullableString(p.College),
		nullableString(p.CurrentTeam),
		string(p.Status),
		p.DebutYear,
		p.FinalYear,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("player %s: %w", p.PlayerID, plerrors.ErrAlreadyExists)
		}
		return storeErr("creating player", err)
	}
	return nil
}

// GetPlayer retrieves a player by id, aliases included.
func (s *PostgresStore) GetPlayer(ctx context.Context, playerID string) (*Player, error) {
	query := `
		SELECT` + playerColumns + `,
			COALESCE(array_agg(a.alias_normalized) FILTER (WHERE a.alias_normalized IS NOT NULL), '{}')
		FROM players p
		LEFT JOIN aliases a ON a.player_id = p.player_id
		WHERE p.player_id = $1
		GROUP BY p.player_id
	`

	p, err := scanPlayer(s.db.QueryRow(ctx, query, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("player %s: %w", playerID, plerrors.ErrNotFound)
		}
		return nil, storeErr("getting player", err)
	}
	return p, nil
}

// FindByIdentifier resolves a (source, external_id) pair to its player.
func (s *PostgresStore) FindByIdentifier(ctx context.Context, source Source, externalID string) (*Player, error) {
	query := `
		SELECT` + playerColumns + `,
			COALESCE(array_agg(a.alias_normalized) FILTER (WHERE a.alias_normalized IS NOT NULL), '{}')
		FROM identifiers i
		JOIN players p ON p.player_id = i.player_id
		LEFT JOIN aliases a ON a.player_id = p.player_id
		WHERE i.source = $1 AND i.external_id = $2
		GROUP BY p.player_id
	`

	p, err := scanPlayer(s.db.QueryRow(ctx, query, string(source), externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("identifier %s:%s: %w", source, externalID, plerrors.ErrNotFound)
		}
		return nil, storeErr("finding by identifier", err)
	}
	return p, nil
}

// AddIdentifier records a (source, external_id) → player mapping. The write
// path is compare-and-swap: the insert does nothing on conflict and the
// existing claim decides whether the call was an idempotent repeat or a
// rejected duplicate.
func (s *PostgresStore) AddIdentifier(ctx context.Context, id Identifier) error {
	if id.ExternalID == "" {
		return fmt.Errorf("empty external id: %w", plerrors.ErrValidation)
	}

	query := `
		INSERT INTO identifiers (
			player_id, source, external_id, confidence, match_method,
			verified_at, verified_by, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source, external_id) DO NOTHING
	`

	tag, err := s.db.Exec(ctx, query,
		id.PlayerID,
		string(id.Source),
		id.ExternalID,
		id.Confidence,
		string(id.Method),
		id.VerifiedAt,
		nullableString(id.VerifiedBy),
		nullableString(id.Notes),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("player %s: %w", id.PlayerID, plerrors.ErrNotFound)
		}
		return storeErr("adding identifier", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Conflict: find out who holds the claim.
	var existing string
	err = s.db.QueryRow(ctx,
		`SELECT player_id FROM identifiers WHERE source = $1 AND external_id = $2`,
		string(id.Source), id.ExternalID,
	).Scan(&existing)
	if err != nil {
		return storeErr("checking identifier claim", err)
	}
	if existing == id.PlayerID {
		return nil
	}
	return fmt.Errorf("%s:%s already maps to player %s: %w",
		id.Source, id.ExternalID, existing, plerrors.ErrDuplicateIdentifier)
}

// IdentifiersFor lists a player's external identifiers.
func (s *PostgresStore) IdentifiersFor(ctx context.Context, playerID string) ([]Identifier, error) {
	query := `
		SELECT player_id, source, external_id, confidence, match_method,
			verified_at, verified_by, notes, created_at
		FROM identifiers
		WHERE player_id = $1
		ORDER BY source, external_id
	`

	rows, err := s.db.Query(ctx, query, playerID)
	if err != nil {
		return nil, storeErr("listing identifiers", err)
	}
	defer rows.Close()

	var out []Identifier
	for rows.Next() {
		var id Identifier
		var source, method string
		var verifiedBy, notes *string
		if err := rows.Scan(&id.PlayerID, &source, &id.ExternalID, &id.Confidence,
			&method, &id.VerifiedAt, &verifiedBy, &notes, &id.CreatedAt); err != nil {
			return nil, storeErr("scanning identifier", err)
		}
		id.Source = Source(source)
		id.Method = MatchMethod(method)
		id.VerifiedBy = derefString(verifiedBy)
		id.Notes = derefString(notes)
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating identifiers", err)
	}
	return out, nil
}

// FindByName is an exact-match filter over the normalized canonical-name and
// alias indexes.
func (s *PostgresStore) FindByName(ctx context.Context, normalizedName string, f NameFilter) ([]Player, error) {
	if normalizedName == "" {
		return nil, nil
	}

	query := `
		SELECT` + playerColumns + `,
			COALESCE(array_agg(a.alias_normalized) FILTER (WHERE a.alias_normalized IS NOT NULL), '{}')
		FROM players p
		LEFT JOIN aliases a ON a.player_id = p.player_id
		WHERE (p.canonical_name_normalized = $1
			OR EXISTS (
				SELECT 1 FROM aliases a2
				WHERE a2.player_id = p.player_id AND a2.alias_normalized = $1
			))
	`
	args := []interface{}{normalizedName}
	argNum := 2

	if f.Position != "" {
		query += fmt.Sprintf(" AND p.position = $%d", argNum)
		args = append(args, string(f.Position))
		argNum++
	}
	if f.BirthDate != "" {
		query += fmt.Sprintf(" AND p.birth_date = $%d::date", argNum)
		args = append(args, f.BirthDate)
		argNum++
	}
	if f.Team != "" {
		query += fmt.Sprintf(" AND lower(p.current_team) = $%d", argNum)
		args = append(args, f.Team)
	}

	query += " GROUP BY p.player_id ORDER BY p.player_id"

	return s.queryPlayers(ctx, "finding by name", query, args...)
}

// CandidatesForFuzzy returns the pre-filtered pool for the fuzzy pass: by
// position when known, else by birth date, else active players ordered by
// player id up to the cap.
func (s *PostgresStore) CandidatesForFuzzy(ctx context.Context, f CandidateFilter) ([]Player, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultFuzzyPoolCap
	}

	base := `
		SELECT` + playerColumns + `,
			COALESCE(array_agg(a.alias_normalized) FILTER (WHERE a.alias_normalized IS NOT NULL), '{}')
		FROM players p
		LEFT JOIN aliases a ON a.player_id = p.player_id
	`

	var where string
	var args []interface{}
	switch {
	case f.Position != "":
		where = "WHERE p.position = $1"
		args = append(args, string(f.Position))
	case f.BirthDate != "":
		where = "WHERE p.birth_date = $1::date"
		args = append(args, f.BirthDate)
	default:
		where = "WHERE p.status = $1"
		args = append(args, string(StatusActive))
	}

	query := fmt.Sprintf("%s %s GROUP BY p.player_id ORDER BY p.player_id LIMIT %d", base, where, limit)
	return s.queryPlayers(ctx, "gathering fuzzy candidates", query, args...)
}

// AddAlias attaches an alternate name to a player. Re-adding an existing
// alias is a no-op.
func (s *PostgresStore) AddAlias(ctx context.Context, a Alias) error {
	if a.AliasNormalized == "" {
		a.AliasNormalized = NormalizeName(a.Alias)
	}

	query := `
		INSERT INTO aliases (player_id, alias, alias_normalized, source, alias_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_id, alias_normalized) DO NOTHING
	`

	_, err := s.db.Exec(ctx, query,
		a.PlayerID, a.Alias, a.AliasNormalized,
		nullableString(string(a.Source)), nullableString(string(a.AliasType)))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("player %s: %w", a.PlayerID, plerrors.ErrNotFound)
		}
		return storeErr("adding alias", err)
	}
	return nil
}

// AliasesFor lists a player's aliases.
func (s *PostgresStore) AliasesFor(ctx context.Context, playerID string) ([]Alias, error) {
	query := `
		SELECT player_id, alias, alias_normalized, source, alias_type
		FROM aliases
		WHERE player_id = $1
		ORDER BY alias_normalized
	`

	rows, err := s.db.Query(ctx, query, playerID)
	if err != nil {
		return nil, storeErr("listing aliases", err)
	}
	defer rows.Close()

	var out []Alias
	for rows.Next() {
		var a Alias
		var source, aliasType *string
		if err := rows.Scan(&a.PlayerID, &a.Alias, &a.AliasNormalized, &source, &aliasType); err != nil {
			return nil, storeErr("scanning alias", err)
		}
		a.Source = Source(derefString(source))
		a.AliasType = AliasType(derefString(aliasType))
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating aliases", err)
	}
	return out, nil
}

// EnqueueResolution inserts a review-queue entry. The partial unique index on
// (source, external_id) WHERE status = 'pending' makes the enqueue
// idempotent; a suppressed insert reports false.
func (s *PostgresStore) EnqueueResolution(ctx context.Context, e *ResolutionQueueEntry) (bool, error) {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return false, fmt.Errorf("marshaling queue metadata: %w", err)
	}
	best, err := json.Marshal(e.BestCandidate)
	if err != nil {
		return false, fmt.Errorf("marshaling best candidate: %w", err)
	}
	candidates, err := json.Marshal(e.Candidates)
	if err != nil {
		return false, fmt.Errorf("marshaling candidates: %w", err)
	}

	query := `
		INSERT INTO resolution_queue (
			source, external_id, metadata, best_candidate, candidates, status, priority
		) VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		ON CONFLICT (source, external_id) WHERE status = 'pending' DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		string(e.Source), e.ExternalID, metadata, best, candidates, e.Priority,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, storeErr("enqueueing resolution", err)
	}
	e.Status = QueuePending
	return true, nil
}

// ListQueue returns queue entries, newest first. An empty status matches all.
func (s *PostgresStore) ListQueue(ctx context.Context, status QueueStatus, limit int) ([]ResolutionQueueEntry, error) {
	query := `
		SELECT id, source, external_id, metadata, best_candidate, candidates,
			status, priority, created_at, updated_at
		FROM resolution_queue
	`
	var args []interface{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, string(status))
	}
	query += " ORDER BY priority DESC, created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("listing queue", err)
	}
	defer rows.Close()

	var out []ResolutionQueueEntry
	for rows.Next() {
		var e ResolutionQueueEntry
		var source, entryStatus string
		var metadata, best, candidates []byte
		if err := rows.Scan(&e.ID, &source, &e.ExternalID, &metadata, &best,
			&candidates, &entryStatus, &e.Priority, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, storeErr("scanning queue entry", err)
		}
		e.Source = Source(source)
		e.Status = QueueStatus(entryStatus)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling queue metadata: %w", err)
			}
		}
		if len(best) > 0 {
			if err := json.Unmarshal(best, &e.BestCandidate); err != nil {
				return nil, fmt.Errorf("unmarshaling best candidate: %w", err)
			}
		}
		if len(candidates) > 0 {
			if err := json.Unmarshal(candidates, &e.Candidates); err != nil {
				return nil, fmt.Errorf("unmarshaling candidates: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating queue", err)
	}
	return out, nil
}

// SetQueueStatus transitions a queue entry after a review decision.
func (s *PostgresStore) SetQueueStatus(ctx context.Context, id int64, status QueueStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE resolution_queue SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return storeErr("updating queue status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("queue entry %d: %w", id, plerrors.ErrNotFound)
	}
	return nil
}

// AppendAudit appends one audit entry. The relation is append-only; nothing
// in the store's surface updates or deletes it.
func (s *PostgresStore) AppendAudit(ctx context.Context, e *AuditLogEntry) error {
	contextJSON, err := json.Marshal(e.Context)
	if err != nil {
		return fmt.Errorf("marshaling audit context: %w", err)
	}

	query := `
		INSERT INTO audit_log (
			session_id, action, player_id, source, external_id,
			confidence, match_method, context, result, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err = s.db.QueryRow(ctx, query,
		e.SessionID,
		string(e.Action),
		nullableString(e.PlayerID),
		nullableString(string(e.Source)),
		nullableString(e.ExternalID),
		e.Confidence,
		nullableString(string(e.Method)),
		contextJSON,
		nullableString(e.Result),
		nullableString(e.Error),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return storeErr("appending audit entry", err)
	}
	return nil
}

// ListAudit returns audit entries, newest first.
func (s *PostgresStore) ListAudit(ctx context.Context, f AuditFilter) ([]AuditLogEntry, error) {
	query := `
		SELECT id, session_id, action, player_id, source, external_id,
			confidence, match_method, context, result, error, created_at
		FROM audit_log
		WHERE 1 = 1
	`
	var args []interface{}
	argNum := 1

	if f.SessionID != "" {
		query += fmt.Sprintf(" AND session_id = $%d", argNum)
		args = append(args, f.SessionID)
		argNum++
	}
	if f.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argNum)
		args = append(args, string(f.Source))
		argNum++
	}
	if f.ExternalID != "" {
		query += fmt.Sprintf(" AND external_id = $%d", argNum)
		args = append(args, f.ExternalID)
		argNum++
	}
	if f.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argNum)
		args = append(args, string(f.Action))
	}

	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("listing audit entries", err)
	}
	defer rows.Close()

	var out []AuditLogEntry
	for rows.Next() {
		var e AuditLogEntry
		var action string
		var playerID, source, externalID, method, result, errMsg *string
		var contextJSON []byte
		if err := rows.Scan(&e.ID, &e.SessionID, &action, &playerID, &source,
			&externalID, &e.Confidence, &method, &contextJSON, &result, &errMsg, &e.CreatedAt); err != nil {
			return nil, storeErr("scanning audit entry", err)
		}
		e.Action = AuditAction(action)
		e.PlayerID = derefString(playerID)
		e.Source = Source(derefString(source))
		e.ExternalID = derefString(externalID)
		e.Method = MatchMethod(derefString(method))
		e.Result = derefString(result)
		e.Error = derefString(errMsg)
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &e.Context); err != nil {
				return nil, fmt.Errorf("unmarshaling audit context: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating audit entries", err)
	}
	return out, nil
}

// queryPlayers runs a player query and scans all rows.
func (s *PostgresStore) queryPlayers(ctx context.Context, op, query string, args ...interface{}) ([]Player, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return out, nil
}

// scanPlayer scans one player row including the aggregated alias array.
func scanPlayer(row pgx.Row) (*Player, error) {
	var p Player
	var position, college, team *string
	var status string
	var birthDate *time.Time

	err := row.Scan(
		&p.PlayerID, &p.CanonicalName, &p.CanonicalNameNormalized, &position,
		&birthDate, &college, &team, &status,
		&p.DebutYear, &p.FinalYear, &p.CreatedAt, &p.UpdatedAt,
		&p.AliasNames,
	)
	if err != nil {
		return nil, err
	}

	p.Position = Position(derefString(position))
	p.College = derefString(college)
	p.CurrentTeam = derefString(team)
	p.Status = PlayerStatus(status)
	if birthDate != nil {
		p.BirthDate = birthDate.Format("2006-01-02")
	}
	if len(p.AliasNames) == 0 {
		p.AliasNames = nil
	}
	return &p, nil
}

// storeErr classifies a low-level pgx error into the domain taxonomy.
func storeErr(op string, err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%s: %v: %w", op, err, plerrors.ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// isConnectionError reports whether err indicates the store is unreachable
// rather than a bad statement: network failures, cancelled dials, and the
// Postgres "connection exception" class (08xxx).
func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
		return true
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableDate(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Store = (*PostgresStore)(nil)
