package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

// AwardReconciler periodically re-drives the project award for accepted bids
// whose remote mutation never landed. The acceptance itself already
// committed; this loop only repairs the cross-service marker, so replaying
// MarkAwarded must stay idempotent on the project side.
type AwardReconciler struct {
	repo      bids.BidRepository
	gateway   bids.ProjectGateway
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

// NewAwardReconciler creates a reconciler polling at interval.
func NewAwardReconciler(
	repo bids.BidRepository,
	gateway bids.ProjectGateway,
	batchSize int,
	interval time.Duration,
	logger *slog.Logger,
) *AwardReconciler {
	return &AwardReconciler{
		repo:      repo,
		gateway:   gateway,
		batchSize: batchSize,
		interval:  interval,
		logger:    logger,
	}
}

// Run starts the polling loop
func (r *AwardReconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Initial run
	if err := r.processBatch(ctx); err != nil {
		r.logger.Error("Error processing batch", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.processBatch(ctx); err != nil {
				r.logger.Error("Error processing batch", "error", err)
			}
		}
	}
}

func (r *AwardReconciler) processBatch(ctx context.Context) error {
	pending, err := r.repo.ListAwardPending(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch award-pending bids: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	r.logger.Info("Reconciling awards", "count", len(pending))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, bid := range pending {
		g.Go(func() error {
			if err := r.gateway.MarkAwarded(ctx, bid.ProjectID, bid.FreelancerID); err != nil {
				// Leave the marker unset; the next sweep retries.
				r.logger.Warn("award propagation still failing",
					"bid_id", bid.ID, "project_id", bid.ProjectID, "error", err)
				return nil
			}
			if err := r.repo.MarkAwardSynced(ctx, bid.ID, time.Now().UTC()); err != nil {
				return fmt.Errorf("failed to mark award synced for bid %s: %w", bid.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
