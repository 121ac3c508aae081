package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/otherjamesbrown/playerlink/pkg/identity"
	"github.com/otherjamesbrown/playerlink/pkg/logging"
)

// BatchItem is the result of one record in a batch.
type BatchItem struct {
	Record  identity.InputRecord `json:"record"`
	Outcome Outcome              `json:"outcome"`
	Error   string               `json:"error,omitempty"`
}

// BatchResult summarizes a ResolveBatch run. Items preserves input order.
type BatchResult struct {
	BatchID    string      `json:"batch_id"`
	Items      []BatchItem `json:"items"`
	Resolved   int64       `json:"resolved"`
	Ambiguous  int64       `json:"ambiguous"`
	Unresolved int64       `json:"unresolved"`
	Failed     int64       `json:"failed"`
	ElapsedMs  int64       `json:"elapsed_ms"`
}

// ResolveBatch resolves records concurrently over a bounded worker pool.
// Individual record failures are captured per item; the error return is
// reserved for context cancellation.
func (e *Engine) ResolveBatch(ctx context.Context, records []identity.InputRecord) (*BatchResult, error) {
	start := time.Now()
	batchID := "batch_" + uuid.NewString()

	ctx, span := e.tracer.t.Start(ctx, SpanResolveBatch)
	defer span.End()
	span.SetAttributes(attribute.Int(AttrBatchSize, len(records)))

	result := &BatchResult{
		BatchID: batchID,
		Items:   make([]BatchItem, len(records)),
	}
	if len(records) == 0 {
		return result, nil
	}

	workers := e.config.BatchWorkers
	if workers > len(records) {
		workers = len(records)
	}

	log := e.log.With(logging.F("batch_id", batchID))
	log.Info("starting batch resolution",
		logging.F("records", len(records)),
		logging.F("workers", workers))

	jobs := make(chan int)
	var wg sync.WaitGroup
	var resolvedN, ambiguousN, unresolvedN, failedN atomic.Int64

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rec := records[idx]
				out, err := e.Resolve(ctx, rec)
				item := BatchItem{Record: rec, Outcome: out}
				if err != nil {
					item.Error = err.Error()
					failedN.Add(1)
				} else {
					switch out.Kind {
					case OutcomeResolved:
						resolvedN.Add(1)
					case OutcomeAmbiguous:
						ambiguousN.Add(1)
					default:
						unresolvedN.Add(1)
					}
				}
				result.Items[idx] = item
			}
		}()
	}

	var ctxErr error
dispatch:
	for i := range records {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	result.Resolved = resolvedN.Load()
	result.Ambiguous = ambiguousN.Load()
	result.Unresolved = unresolvedN.Load()
	result.Failed = failedN.Load()
	result.ElapsedMs = time.Since(start).Milliseconds()

	log.Info("batch resolution complete",
		logging.F("resolved", result.Resolved),
		logging.F("ambiguous", result.Ambiguous),
		logging.F("unresolved", result.Unresolved),
		logging.F("failed", result.Failed),
		logging.F("elapsed_ms", result.ElapsedMs))

	return result, ctxErr
}
