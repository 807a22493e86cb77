package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// QueueStore is the persistence boundary of a dispatch cycle. SelectPending
// is the read-only variant for single-poller deployments; ClaimPending
// additionally leases the returned rows to claimID so overlapping cycles
// never pick up the same item.
type QueueStore interface {
	SelectPending(ctx context.Context, limit int, keyword string) ([]OrderItem, error)
	ClaimPending(ctx context.Context, claimID string, limit int, keyword string) ([]OrderItem, error)
	ReleaseItems(ctx context.Context, ids []int64) error
	ReleaseClaim(ctx context.Context, claimID string) error
	MarkPrinted(ctx context.Context, ids []int64) (int64, error)
}

// EventSink receives dispatch lifecycle notifications. A nil sink is valid.
type EventSink interface {
	BatchDispatched(claimID string, jobIDs []int64, skipped []SkippedItem)
	ItemsPrinted(ids []int64, affected int64)
}

type DispatcherOptions struct {
	DefaultLimit int
	Claim        bool
}

// Dispatcher composes selector, formatter and router into print batches
// and owns acknowledgment. It holds no mutable state of its own.
type Dispatcher struct {
	store     QueueStore
	formatter *Formatter
	router    *Router
	sink      EventSink
	limit     int
	claim     bool
}

func NewDispatcher(store QueueStore, formatter *Formatter, router *Router, sink EventSink, opts DispatcherOptions) *Dispatcher {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 5
	}
	return &Dispatcher{
		store:     store,
		formatter: formatter,
		router:    router,
		sink:      sink,
		limit:     opts.DefaultLimit,
		claim:     opts.Claim,
	}
}

// Dispatch runs one cycle: claim (or select) up to limit pending items,
// format and route each, and return the batch in selector order. A
// validation failure on one item is recorded in Skipped and its claim
// released; it never aborts the rest of the batch. A store failure aborts
// the whole cycle with no jobs.
func (d *Dispatcher) Dispatch(ctx context.Context, limit int, keyword string) (*Batch, error) {
	if limit <= 0 {
		limit = d.limit
	}

	batch := &Batch{}

	var (
		items []OrderItem
		err   error
	)
	if d.claim {
		batch.ClaimID = uuid.NewString()
		items, err = d.store.ClaimPending(ctx, batch.ClaimID, limit, keyword)
	} else {
		items, err = d.store.SelectPending(ctx, limit, keyword)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select pending items: %w", err)
	}

	var skippedIDs []int64
	for _, item := range items {
		content, err := d.formatter.Format(item)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return nil, fmt.Errorf("failed to format item %d: %w", item.ID, err)
			}
			log.Printf("[dispatch] skipping item %d: %v", item.ID, err)
			batch.Skipped = append(batch.Skipped, SkippedItem{ID: item.ID, Error: err.Error()})
			skippedIDs = append(skippedIDs, item.ID)
			continue
		}

		dest := d.router.Route(item.Code)
		log.Printf("[dispatch] routing item %d (%s) to %s", item.ID, item.Code, dest.Name)

		batch.Jobs = append(batch.Jobs, PrintJob{
			ID:        item.ID,
			CreatedAt: item.Date,
			CreatedBy: item.OrderBy,
			Content:   content,
			PrinterInfo: PrinterInfo{
				Name:        dest.Name,
				Destination: dest,
			},
		})
	}

	// Skipped items go straight back to the pool; holding their lease
	// until expiry would only delay the operator noticing them.
	if d.claim && len(skippedIDs) > 0 {
		if err := d.store.ReleaseItems(ctx, skippedIDs); err != nil {
			log.Printf("[dispatch] failed to release skipped items: %v", err)
		}
	}

	if d.sink != nil {
		d.sink.BatchDispatched(batch.ClaimID, jobIDs(batch.Jobs), batch.Skipped)
	}

	return batch, nil
}

// Acknowledge bulk-marks ids as printed. Idempotent: already-printed ids
// affect zero rows. The affected count is reported as-is; a shortfall
// means some ids were already handled.
func (d *Dispatcher) Acknowledge(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	affected, err := d.store.MarkPrinted(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark items printed: %w", err)
	}

	if affected < int64(len(ids)) {
		log.Printf("[dispatch] acknowledged %d of %d items", affected, len(ids))
	}

	if d.sink != nil {
		d.sink.ItemsPrinted(ids, affected)
	}

	return affected, nil
}

// Release frees every unprinted item still leased to claimID, returning
// it to the pending pool. Callers use it after a failed physical send.
func (d *Dispatcher) Release(ctx context.Context, claimID string) error {
	if claimID == "" {
		return nil
	}
	if err := d.store.ReleaseClaim(ctx, claimID); err != nil {
		return fmt.Errorf("failed to release claim %s: %w", claimID, err)
	}
	return nil
}

func jobIDs(jobs []PrintJob) []int64 {
	ids := make([]int64, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	return ids
}
