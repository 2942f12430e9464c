package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

const uniqueViolation = "23505"

// PostgresBidRepository implements bids.BidRepository using pgx. The
// aggregate's collections live in JSONB columns; every write goes through a
// version fence so concurrent transitions cannot silently overwrite each
// other.
type PostgresBidRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBidRepository creates a new PostgreSQL bid repository
func NewPostgresBidRepository(pool *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{pool: pool}
}

const bidColumns = `
	id, project_id, freelancer_id, amount, delivery_time, delivery_unit,
	proposal, status, is_active, attachments, counter_offers, milestones,
	client_feedback, freelancer_feedback, accepted_at, rejected_at,
	withdrawn_at, award_synced_at, version, created_at, updated_at`

// Insert persists a new bid. The partial unique index on
// (project_id, freelancer_id) for active rows surfaces as ErrDuplicateBid.
func (r *PostgresBidRepository) Insert(ctx context.Context, bid *bids.Bid) error {
	attachments, counterOffers, milestones, err := marshalCollections(bid)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bids (` + bidColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err = r.pool.Exec(ctx, query,
		bid.ID,
		bid.ProjectID,
		bid.FreelancerID,
		bid.Amount,
		bid.DeliveryTime,
		bid.DeliveryUnit,
		bid.Proposal,
		bid.Status,
		bid.IsActive,
		attachments,
		counterOffers,
		milestones,
		feedbackJSON(bid.ClientFeedback),
		feedbackJSON(bid.FreelancerFeedback),
		bid.AcceptedAt,
		bid.RejectedAt,
		bid.WithdrawnAt,
		bid.AwardSyncedAt,
		bid.Version,
		bid.CreatedAt,
		bid.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return bids.ErrDuplicateBid
		}
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// GetByID retrieves a bid by its ID
func (r *PostgresBidRepository) GetByID(ctx context.Context, id uuid.UUID) (*bids.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	bid, err := scanBid(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bids.ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return bid, nil
}

// ListByProject retrieves active bids for a project plus the total count.
func (r *PostgresBidRepository) ListByProject(ctx context.Context, projectID uuid.UUID, opts bids.ListOptions) ([]*bids.Bid, int64, error) {
	opts = opts.Normalize()

	var total int64
	countQuery := `SELECT COUNT(*) FROM bids WHERE project_id = $1 AND is_active`
	if err := r.pool.QueryRow(ctx, countQuery, projectID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bids: %w", err)
	}

	// opts.Sort and opts.Order are whitelisted by Normalize.
	query := fmt.Sprintf(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE project_id = $1 AND is_active
		ORDER BY %s %s
		LIMIT $2 OFFSET $3
	`, opts.Sort, opts.Order)

	rows, err := r.pool.Query(ctx, query, projectID, opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	result, err := collectBids(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListByFreelancer retrieves a freelancer's active bids, optionally filtered
// by status, plus the total count.
func (r *PostgresBidRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, status bids.Status, opts bids.ListOptions) ([]*bids.Bid, int64, error) {
	opts = opts.Normalize()

	filter := `freelancer_id = $1 AND is_active AND ($2 = '' OR status = $2)`

	var total int64
	countQuery := `SELECT COUNT(*) FROM bids WHERE ` + filter
	if err := r.pool.QueryRow(ctx, countQuery, freelancerID, string(status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bids: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE `+filter+`
		ORDER BY %s %s
		LIMIT $3 OFFSET $4
	`, opts.Sort, opts.Order)

	rows, err := r.pool.Query(ctx, query, freelancerID, string(status), opts.Limit, opts.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	result, err := collectBids(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// Update writes the aggregate conditioned on the stored version matching
// bid.Version, then bumps both. Zero affected rows means another writer got
// there first.
func (r *PostgresBidRepository) Update(ctx context.Context, bid *bids.Bid) error {
	attachments, counterOffers, milestones, err := marshalCollections(bid)
	if err != nil {
		return err
	}

	query := `
		UPDATE bids
		SET amount = $3, delivery_time = $4, delivery_unit = $5, proposal = $6,
		    status = $7, is_active = $8, attachments = $9, counter_offers = $10,
		    milestones = $11, client_feedback = $12, freelancer_feedback = $13,
		    accepted_at = $14, rejected_at = $15, withdrawn_at = $16,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		bid.ID,
		bid.Version,
		bid.Amount,
		bid.DeliveryTime,
		bid.DeliveryUnit,
		bid.Proposal,
		bid.Status,
		bid.IsActive,
		attachments,
		counterOffers,
		milestones,
		feedbackJSON(bid.ClientFeedback),
		feedbackJSON(bid.FreelancerFeedback),
		bid.AcceptedAt,
		bid.RejectedAt,
		bid.WithdrawnAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update bid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bids.ErrVersionConflict
	}
	bid.Version++
	bid.UpdatedAt = time.Now().UTC()
	return nil
}

// ListAwardPending retrieves accepted bids whose award has not been
// confirmed against the project service yet, oldest first.
func (r *PostgresBidRepository) ListAwardPending(ctx context.Context, limit int) ([]*bids.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE status = 'accepted' AND is_active AND award_synced_at IS NULL
		ORDER BY accepted_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query award-pending bids: %w", err)
	}
	defer rows.Close()

	return collectBids(rows)
}

// MarkAwardSynced records the confirmation timestamp. Not version-fenced:
// accepted bids take no further lifecycle transitions.
func (r *PostgresBidRepository) MarkAwardSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE bids SET award_synced_at = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark award synced: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bids.ErrBidNotFound
	}
	return nil
}

func marshalCollections(bid *bids.Bid) (attachments, counterOffers, milestones []byte, err error) {
	if attachments, err = json.Marshal(bid.Attachments); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal attachments: %w", err)
	}
	if counterOffers, err = json.Marshal(bid.CounterOffers); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal counter offers: %w", err)
	}
	if milestones, err = json.Marshal(bid.Milestones); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal milestones: %w", err)
	}
	return attachments, counterOffers, milestones, nil
}

func feedbackJSON(f *bids.Feedback) []byte {
	if f == nil {
		return nil
	}
	// Feedback has no marshalable failure modes.
	b, _ := json.Marshal(f)
	return b
}

func scanBid(row pgx.Row) (*bids.Bid, error) {
	var (
		bid                bids.Bid
		attachments        []byte
		counterOffers      []byte
		milestones         []byte
		clientFeedback     []byte
		freelancerFeedback []byte
	)
	err := row.Scan(
		&bid.ID,
		&bid.ProjectID,
		&bid.FreelancerID,
		&bid.Amount,
		&bid.DeliveryTime,
		&bid.DeliveryUnit,
		&bid.Proposal,
		&bid.Status,
		&bid.IsActive,
		&attachments,
		&counterOffers,
		&milestones,
		&clientFeedback,
		&freelancerFeedback,
		&bid.AcceptedAt,
		&bid.RejectedAt,
		&bid.WithdrawnAt,
		&bid.AwardSyncedAt,
		&bid.Version,
		&bid.CreatedAt,
		&bid.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(attachments, &bid.Attachments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attachments: %w", err)
	}
	if err := json.Unmarshal(counterOffers, &bid.CounterOffers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal counter offers: %w", err)
	}
	if err := json.Unmarshal(milestones, &bid.Milestones); err != nil {
		return nil, fmt.Errorf("failed to unmarshal milestones: %w", err)
	}
	if clientFeedback != nil {
		if err := json.Unmarshal(clientFeedback, &bid.ClientFeedback); err != nil {
			return nil, fmt.Errorf("failed to unmarshal client feedback: %w", err)
		}
	}
	if freelancerFeedback != nil {
		if err := json.Unmarshal(freelancerFeedback, &bid.FreelancerFeedback); err != nil {
			return nil, fmt.Errorf("failed to unmarshal freelancer feedback: %w", err)
		}
	}
	return &bid, nil
}

func collectBids(rows pgx.Rows) ([]*bids.Bid, error) {
	var result []*bids.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		result = append(result, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}
	return result, nil
}
