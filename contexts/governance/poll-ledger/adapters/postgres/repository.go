// Package postgresadapter is the durable execution environment. Derived
// addresses are primary keys, so "create account" is an INSERT and the
// database's unique-violation error is the occupied-address signal; compound
// transitions run inside one transaction.
package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pollchain/contexts/governance/poll-ledger/domain/address"
	"pollchain/contexts/governance/poll-ledger/domain/entities"
	domainerrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	"pollchain/contexts/governance/poll-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreatePoll(ctx context.Context, poll entities.Poll) error {
	row := pollModelFromEntity(poll)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAccountExists
		}
		return r.logError("ledger_repo_create_poll_failed", err,
			"poll_id", poll.PollID,
			"address", poll.Address.String(),
		)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, addr address.Address) (entities.Poll, error) {
	var row pollModel
	err := r.db.WithContext(ctx).
		Where("address = ?", addr.String()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, domainerrors.ErrAccountNotFound
		}
		return entities.Poll{}, r.logError("ledger_repo_get_poll_failed", err, "address", addr.String())
	}
	return row.toEntity()
}

// AddCandidate inserts the candidate account and bumps the owning poll's
// counter inside one transaction; a duplicate derived address aborts both.
// The poll row is locked first so the position read from candidate_count is
// the value the insert commits with; racing registrations serialize on the
// row lock and can never share a position.
func (r *Repository) AddCandidate(ctx context.Context, candidate entities.Candidate) (entities.Candidate, error) {
	var committed candidateModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var poll pollModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", candidate.Poll.String()).
			First(&poll).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrAccountNotFound
			}
			return err
		}
		candidate.Position = poll.CandidateCount
		row := candidateModelFromEntity(candidate)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		update := tx.Model(&pollModel{}).
			Where("address = ?", candidate.Poll.String()).
			UpdateColumn("candidate_count", gorm.Expr("candidate_count + 1"))
		if update.Error != nil {
			return update.Error
		}
		committed = row
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return entities.Candidate{}, domainerrors.ErrAccountExists
		}
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return entities.Candidate{}, err
		}
		return entities.Candidate{}, r.logError("ledger_repo_add_candidate_failed", err,
			"poll_id", candidate.PollID,
			"candidate", candidate.Name,
		)
	}
	return committed.toEntity()
}

func (r *Repository) GetCandidate(ctx context.Context, addr address.Address) (entities.Candidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("address = ?", addr.String()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrAccountNotFound
		}
		return entities.Candidate{}, r.logError("ledger_repo_get_candidate_failed", err, "address", addr.String())
	}
	return row.toEntity()
}

func (r *Repository) ListCandidates(ctx context.Context, poll address.Address) ([]entities.Candidate, error) {
	var rows []candidateModel
	err := r.db.WithContext(ctx).
		Where("poll_address = ?", poll.String()).
		Order("position ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("ledger_repo_list_candidates_failed", err, "poll_address", poll.String())
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// CastVote creates the receipt and increments the candidate's counter in one
// transaction. The receipt primary key is the derived (poll, voter) address,
// so a second ballot from the same voter hits a unique violation and the
// whole transition rolls back: no partial vote is possible.
func (r *Repository) CastVote(
	ctx context.Context,
	receipt entities.VoterReceipt,
	candidateAddr address.Address,
) (entities.Candidate, error) {
	var committed candidateModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := receiptModelFromEntity(receipt)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		update := tx.Model(&candidateModel{}).
			Where("address = ?", candidateAddr.String()).
			UpdateColumn("votes", gorm.Expr("votes + 1"))
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrAccountNotFound
		}
		return tx.Where("address = ?", candidateAddr.String()).First(&committed).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return entities.Candidate{}, domainerrors.ErrAccountExists
		}
		if errors.Is(err, domainerrors.ErrAccountNotFound) {
			return entities.Candidate{}, err
		}
		return entities.Candidate{}, r.logError("ledger_repo_cast_vote_failed", err,
			"poll_id", receipt.PollID,
			"receipt", receipt.Address.String(),
		)
	}
	return committed.toEntity()
}

func (r *Repository) GetReceipt(ctx context.Context, addr address.Address) (entities.VoterReceipt, bool, error) {
	var row receiptModel
	err := r.db.WithContext(ctx).
		Where("address = ?", addr.String()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoterReceipt{}, false, nil
		}
		return entities.VoterReceipt{}, false, r.logError("ledger_repo_get_receipt_failed", err, "address", addr.String())
	}
	receipt, err := row.toEntity()
	if err != nil {
		return entities.VoterReceipt{}, false, err
	}
	return receipt, true, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	row := outboxModel{
		ID:           outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    createdAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("ledger_repo_append_outbox_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("ledger_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	update := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if update.Error != nil {
		return r.logError("ledger_repo_mark_outbox_failed", update.Error, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "governance/poll-ledger",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("poll ledger repository operation failed", fields...)
	return fmt.Errorf("%w: %v", domainerrors.ErrEnvironment, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.LedgerStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
