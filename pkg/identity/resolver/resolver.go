// Package resolver implements cascading player identity resolution.
//
// A resolution attempt runs a fixed sequence of passes, cheapest and most
// trustworthy first: manual override, exact identifier, crosswalk,
// deterministic name matching, fuzzy name matching. The first pass that
// produces a decision short-circuits the cascade. Anything the cascade
// cannot decide lands in the review queue; every attempt, decided or not,
// appends exactly one audit entry.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"time"

	plerrors "github.com/otherjamesbrown/playerlink/pkg/errors"
	"github.com/otherjamesbrown/playerlink/pkg/identity"
	"github.com/otherjamesbrown/playerlink/pkg/logging"
)

// Confidence values assigned by the deciding pass.
const (
	ConfidenceManual     = 1.0
	ConfidenceExact      = 1.0
	ConfidenceCrosswalk  = 0.95
	ConfidenceNamePosDOB = 0.85
	ConfidenceNameDOB    = 0.80
)

// Engine resolves external player records to canonical identities. It is
// safe for concurrent use; all mutable state lives in the injected store
// and cache.
type Engine struct {
	config    Config
	store     identity.Store
	overrides *OverrideTable
	cache     NameCache
	log       logging.Logger
	metrics   *Metrics
	tracer    *tracer
	sessionID string
}

// NewEngine creates a resolution engine. A nil overrides table, cache or
// logger is replaced with an inert one.
func NewEngine(config Config, store identity.Store, overrides *OverrideTable, cache NameCache, log logging.Logger) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resolver config: %w", err)
	}
	if overrides == nil {
		overrides = NewOverrideTable(nil)
	}
	if cache == nil {
		cache = NewNopCache()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	return &Engine{
		config:    config,
		store:     store,
		overrides: overrides,
		cache:     cache,
		log:       log,
		tracer:    newTracer(),
		sessionID: identity.NewSessionID(),
	}, nil
}

// SetMetrics attaches Prometheus metrics. Call before the first Resolve.
func (e *Engine) SetMetrics(m *Metrics) { e.metrics = m }

// SessionID returns the audit session id grouping this engine's entries.
func (e *Engine) SessionID() string { return e.sessionID }

// Resolve maps one external record to a canonical player. The returned
// error is reserved for malformed input and store failures; "no match" and
// "too many matches" are reported through the Outcome.
func (e *Engine) Resolve(ctx context.Context, record identity.InputRecord) (Outcome, error) {
	start := time.Now()

	if err := record.Validate(); err != nil {
		return Outcome{}, err
	}

	ctx, span := e.tracer.startResolve(ctx, string(record.Source), record.ExternalID)
	defer span.End()

	meta := identity.NormalizeMetadata(record.Metadata)
	out, auditCtx, err := e.runCascade(ctx, record, meta)
	if err != nil {
		recordError(span, err)
		return Outcome{}, err
	}

	// Unresolved and ambiguous records go to the review queue before the
	// audit write so the audit entry can reference the queue entry.
	if out.Kind != OutcomeResolved {
		queued, qerr := e.enqueue(ctx, record, meta, out)
		if qerr != nil {
			recordError(span, qerr)
			return Outcome{}, qerr
		}
		out.QueueEntryID = queued
	}

	if err := e.audit(ctx, record, out, auditCtx); err != nil {
		recordError(span, err)
		return Outcome{}, err
	}

	recordOutcome(span, out)
	e.observe(record, out, time.Since(start))
	e.log.Debug("resolution complete",
		logging.F("source", record.Source),
		logging.F("external_id", record.ExternalID),
		logging.F("outcome", out.Kind),
		logging.F("method", out.Method),
		logging.F("player_id", out.PlayerID))

	return out, nil
}

// runCascade executes the passes in order and returns the first decision.
// The returned map is the audit context accumulated along the way.
func (e *Engine) runCascade(ctx context.Context, record identity.InputRecord, meta *identity.SourceMetadata) (Outcome, map[string]interface{}, error) {
	auditCtx := map[string]interface{}{}

	// Pass 1: manual override.
	if ov, ok := e.overrides.Lookup(record.Source, record.ExternalID); ok {
		auditCtx["pass"] = "override"
		if ov.Note != "" {
			auditCtx["override_note"] = ov.Note
		}
		return resolved(ov.PlayerID, ov.Confidence, identity.MethodManual), auditCtx, nil
	}

	// Pass 2: exact identifier, fronted by the name cache.
	cacheKey := string(record.Source) + ":" + record.ExternalID
	if playerID, ok := e.cache.Get(ctx, cacheKey); ok {
		e.countCache("hit")
		auditCtx["pass"] = "exact"
		auditCtx["cache"] = true
		return resolved(playerID, ConfidenceExact, identity.MethodExact), auditCtx, nil
	}
	e.countCache("miss")

	out, decided, err := e.passExact(ctx, record, cacheKey, auditCtx)
	if err != nil || decided {
		return out, auditCtx, err
	}

	// Pass 3: crosswalk identifiers carried in the metadata.
	if meta != nil && len(meta.CrossIDs) > 0 {
		out, decided, err = e.passCrosswalk(ctx, record, meta, cacheKey, auditCtx)
		if err != nil || decided {
			return out, auditCtx, err
		}
	}

	// Pass 4: deterministic name matching. More than one hit is ambiguous
	// and the fuzzy pass is skipped: fuzzy scoring must never break a tie
	// that exact fields could not.
	if meta != nil && meta.Name != "" && meta.BirthDate != "" {
		out, decided, err = e.passDeterministicName(ctx, record, meta, cacheKey, auditCtx)
		if err != nil || decided {
			return out, auditCtx, err
		}
	}

	// Pass 5: fuzzy name matching.
	if meta != nil && meta.Name != "" {
		out, decided, err = e.passFuzzy(ctx, record, meta, cacheKey, auditCtx)
		if err != nil || decided {
			return out, auditCtx, err
		}
	}

	auditCtx["pass"] = "exhausted"
	return Outcome{Kind: OutcomeUnresolved}, auditCtx, nil
}

// passExact looks the identifier up directly.
func (e *Engine) passExact(ctx context.Context, record identity.InputRecord, cacheKey string, auditCtx map[string]interface{}) (Outcome, bool, error) {
	ctx, span := e.tracer.startPass(ctx, "exact")
	defer span.End()

	p, err := e.store.FindByIdentifier(ctx, record.Source, record.ExternalID)
	if err != nil {
		if plerrors.IsNotFound(err) {
			return Outcome{}, false, nil
		}
		return Outcome{}, false, err
	}

	e.cache.Set(ctx, cacheKey, p.PlayerID)
	auditCtx["pass"] = "exact"
	return resolved(p.PlayerID, ConfidenceExact, identity.MethodExact), true, nil
}

// passCrosswalk follows other providers' ids stated on the same record.
// Sources are tried in a fixed order so concurrent records with the same
// cross-ids behave deterministically.
func (e *Engine) passCrosswalk(ctx context.Context, record identity.InputRecord, meta *identity.SourceMetadata, cacheKey string, auditCtx map[string]interface{}) (Outcome, bool, error) {
	ctx, span := e.tracer.startPass(ctx, "crosswalk")
	defer span.End()

	sources := make([]identity.Source, 0, len(meta.CrossIDs))
	for src := range meta.CrossIDs {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	for _, src := range sources {
		crossID := meta.CrossIDs[src]
		if crossID == "" || src == record.Source {
			continue
		}
		p, err := e.store.FindByIdentifier(ctx, src, crossID)
		if err != nil {
			if plerrors.IsNotFound(err) {
				continue
			}
			return Outcome{}, false, err
		}

		auditCtx["pass"] = "crosswalk"
		auditCtx["crosswalk_source"] = string(src)
		out, err := e.claim(ctx, record, p.PlayerID, ConfidenceCrosswalk, identity.MethodCrosswalk, cacheKey, auditCtx)
		return out, true, err
	}
	return Outcome{}, false, nil
}

// passDeterministicName matches on normalized name plus exact discriminator
// fields. Position narrows first when known; exactly one hit is required.
func (e *Engine) passDeterministicName(ctx context.Context, record identity.InputRecord, meta *identity.SourceMetadata, cacheKey string, auditCtx map[string]interface{}) (Outcome, bool, error) {
	ctx, span := e.tracer.startPass(ctx, "name")
	defer span.End()

	normalized := identity.NormalizeName(meta.Name)
	if normalized == "" {
		return Outcome{}, false, nil
	}

	type attempt struct {
		filter     identity.NameFilter
		confidence float64
		method     identity.MatchMethod
		label      string
	}

	attempts := []attempt{}
	if meta.Position != "" {
		attempts = append(attempts, attempt{
			filter:     identity.NameFilter{Position: meta.Position, BirthDate: meta.BirthDate},
			confidence: ConfidenceNamePosDOB,
			method:     identity.MethodNamePositionDOB,
			label:      "name_position_dob",
		})
	}
	attempts = append(attempts, attempt{
		filter:     identity.NameFilter{BirthDate: meta.BirthDate},
		confidence: ConfidenceNameDOB,
		method:     identity.MethodNameDOB,
		label:      "name_dob",
	})

	for _, a := range attempts {
		players, err := e.store.FindByName(ctx, normalized, a.filter)
		if err != nil {
			return Outcome{}, false, err
		}

		switch len(players) {
		case 0:
			continue
		case 1:
			auditCtx["pass"] = a.label
			out, err := e.claim(ctx, record, players[0].PlayerID, a.confidence, a.method, cacheKey, auditCtx)
			return out, true, err
		default:
			// Exact fields could not separate the candidates; escalate
			// rather than letting fuzzy scoring guess.
			auditCtx["pass"] = a.label
			auditCtx["match_count"] = len(players)
			return Outcome{
				Kind:       OutcomeAmbiguous,
				Candidates: playersToCandidates(players, e.config.MaxQueueCandidates),
			}, true, nil
		}
	}
	return Outcome{}, false, nil
}

// passFuzzy scores a pre-filtered candidate pool. Candidates whose raw name
// ratio misses the floors are discarded before scoring; the best survivor
// wins when it leads the runner-up by the configured margin.
func (e *Engine) passFuzzy(ctx context.Context, record identity.InputRecord, meta *identity.SourceMetadata, cacheKey string, auditCtx map[string]interface{}) (Outcome, bool, error) {
	inputName := identity.NormalizeName(meta.Name)
	if inputName == "" {
		return Outcome{}, false, nil
	}

	ctx, span := e.tracer.startPass(ctx, "fuzzy")
	defer span.End()

	pool, err := e.store.CandidatesForFuzzy(ctx, identity.CandidateFilter{
		Position:  meta.Position,
		BirthDate: meta.BirthDate,
		Limit:     e.config.FuzzyPoolCap,
	})
	if err != nil {
		return Outcome{}, false, err
	}
	if e.metrics != nil {
		e.metrics.FuzzyPoolSize.Observe(float64(len(pool)))
	}
	recordPoolSize(span, len(pool))
	auditCtx["fuzzy_pool_size"] = len(pool)
	if len(pool) == 0 {
		return Outcome{}, false, nil
	}

	// Floors apply to the raw name ratio alone; bonuses only rank the
	// candidates that clear one, so corroborating metadata can never lift a
	// weak name over a floor.
	var admitted []scoredCandidate
	for _, p := range pool {
		sc := scoreCandidate(p, inputName, meta, e.config.Bonuses)
		if sc.raw >= e.config.Thresholds.FuzzyHigh ||
			(sc.boosted && sc.raw >= e.config.Thresholds.FuzzyMedium) {
			admitted = append(admitted, sc)
		}
	}
	if len(admitted) == 0 {
		return Outcome{}, false, nil
	}

	sort.Slice(admitted, func(i, j int) bool {
		if admitted[i].score != admitted[j].score {
			return admitted[i].score > admitted[j].score
		}
		return admitted[i].player.PlayerID < admitted[j].player.PlayerID
	})

	auditCtx["pass"] = "fuzzy"
	auditCtx["top_score"] = admitted[0].score

	if len(admitted) > 1 && admitted[0].score-admitted[1].score < e.config.Thresholds.Margin {
		auditCtx["runner_up_score"] = admitted[1].score
		return Outcome{
			Kind:       OutcomeAmbiguous,
			Candidates: scoredToCandidates(admitted, e.config.MaxQueueCandidates),
		}, true, nil
	}

	best := admitted[0]
	out, err := e.claim(ctx, record, best.player.PlayerID, fuzzyConfidence(best.raw), identity.MethodFuzzy, cacheKey, auditCtx)
	return out, true, err
}

// claim persists the identifier mapping decided by a pass. A duplicate
// rejection means another writer claimed the identifier first; the claim
// holder wins and the conflict is surfaced through the audit context.
func (e *Engine) claim(ctx context.Context, record identity.InputRecord, playerID string, confidence float64, method identity.MatchMethod, cacheKey string, auditCtx map[string]interface{}) (Outcome, error) {
	err := e.store.AddIdentifier(ctx, identity.Identifier{
		PlayerID:   playerID,
		Source:     record.Source,
		ExternalID: record.ExternalID,
		Confidence: confidence,
		Method:     method,
	})
	if err == nil {
		e.cache.Set(ctx, cacheKey, playerID)
		return resolved(playerID, confidence, method), nil
	}
	if !plerrors.IsDuplicateIdentifier(err) {
		return Outcome{}, err
	}

	e.cache.Invalidate(ctx, cacheKey)
	if e.metrics != nil {
		e.metrics.ConflictsTotal.WithLabelValues(string(record.Source)).Inc()
	}

	holder, ferr := e.store.FindByIdentifier(ctx, record.Source, record.ExternalID)
	if ferr != nil {
		return Outcome{}, fmt.Errorf("identifier conflict and claim lookup failed: %w", ferr)
	}

	e.log.Warn("identifier conflict, keeping existing claim",
		logging.F("source", record.Source),
		logging.F("external_id", record.ExternalID),
		logging.F("attempted_player", playerID),
		logging.F("existing_player", holder.PlayerID))

	auditCtx["conflict"] = true
	auditCtx["attempted_player"] = playerID
	e.cache.Set(ctx, cacheKey, holder.PlayerID)
	return resolved(holder.PlayerID, ConfidenceExact, identity.MethodExact), nil
}

// enqueue sends an undecided record to the review queue. Returns the new
// entry id, or zero when a pending entry already existed.
func (e *Engine) enqueue(ctx context.Context, record identity.InputRecord, meta *identity.SourceMetadata, out Outcome) (int64, error) {
	entry := &identity.ResolutionQueueEntry{
		Source:     record.Source,
		ExternalID: record.ExternalID,
		Metadata:   meta,
	}
	for i, c := range out.Candidates {
		qc := identity.QueueCandidate{
			PlayerID: c.PlayerID,
			Name:     c.Name,
			Score:    c.Score,
			Reasons:  c.Reasons,
		}
		if i == 0 {
			best := qc
			entry.BestCandidate = &best
		}
		entry.Candidates = append(entry.Candidates, qc)
	}

	created, err := e.store.EnqueueResolution(ctx, entry)
	if err != nil {
		return 0, err
	}
	if e.metrics != nil {
		e.metrics.QueuedTotal.WithLabelValues(string(record.Source), string(out.Kind)).Inc()
	}
	if !created {
		return 0, nil
	}
	return entry.ID, nil
}

// audit appends the single audit entry every resolution attempt produces.
func (e *Engine) audit(ctx context.Context, record identity.InputRecord, out Outcome, auditCtx map[string]interface{}) error {
	entry := &identity.AuditLogEntry{
		SessionID:  e.sessionID,
		Source:     record.Source,
		ExternalID: record.ExternalID,
		Context:    auditCtx,
	}

	switch out.Kind {
	case OutcomeResolved:
		entry.Action = identity.AuditMatchSuccess
		entry.PlayerID = out.PlayerID
		entry.Method = out.Method
		conf := out.Confidence
		entry.Confidence = &conf
		entry.Result = fmt.Sprintf("resolved to %s via %s", out.PlayerID, out.Method)
	case OutcomeAmbiguous:
		entry.Action = identity.AuditMatchConflict
		entry.Result = fmt.Sprintf("%d candidates, none separable", len(out.Candidates))
	default:
		entry.Action = identity.AuditMatchFailure
		entry.Result = "no candidate cleared any pass"
	}

	if err := e.store.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// observe records per-call metrics.
func (e *Engine) observe(record identity.InputRecord, out Outcome, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.ResolutionsTotal.WithLabelValues(
		string(record.Source), string(out.Kind), string(out.Method)).Inc()
	e.metrics.ResolveSeconds.WithLabelValues(string(record.Source)).Observe(elapsed.Seconds())
	if out.Kind == OutcomeResolved {
		e.metrics.MatchConfidence.WithLabelValues(
			string(record.Source), string(out.Method)).Observe(out.Confidence)
	}
}

func (e *Engine) countCache(result string) {
	if e.metrics != nil {
		e.metrics.CacheHitsTotal.WithLabelValues(result).Inc()
	}
}

func playersToCandidates(players []identity.Player, limit int) []Candidate {
	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	out := make([]Candidate, 0, len(players))
	for _, p := range players {
		out = append(out, Candidate{
			PlayerID: p.PlayerID,
			Name:     p.CanonicalName,
			Score:    100,
			Reasons:  []string{"deterministic fields matched"},
		})
	}
	return out
}

func scoredToCandidates(scored []scoredCandidate, limit int) []Candidate {
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	out := make([]Candidate, 0, len(scored))
	for _, sc := range scored {
		out = append(out, Candidate{
			PlayerID:   sc.player.PlayerID,
			Name:       sc.player.CanonicalName,
			Score:      sc.score,
			Confidence: fuzzyConfidence(sc.raw),
			Reasons:    sc.reasons,
		})
	}
	return out
}
