package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hananlabs/wishpos-backend/pkg/db"
	"github.com/hananlabs/wishpos-backend/pkg/db/models"
	"github.com/hananlabs/wishpos-backend/pkg/enums"
	pkgerrors "github.com/hananlabs/wishpos-backend/pkg/errors"
)

// Ledger implements begin-or-replay semantics for retried create calls.
type Ledger interface {
	BeginOrReplay(ctx context.Context, key string, operation enums.OperationType, requestHash string) (BeginResult, error)
	Complete(ctx context.Context, key string, response []byte, linkedWishlistID uuid.UUID) error
	Fail(ctx context.Context, key string) error
}

// BeginResult tells the caller whether to proceed or replay.
type BeginResult struct {
	Fresh          bool
	CachedResponse []byte
}

type ledger struct {
	repo *Repository
}

// NewLedger builds a DB-backed idempotency ledger.
func NewLedger(repo *Repository) (Ledger, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency repo is required")
	}
	return &ledger{repo: repo}, nil
}

// Fingerprint hashes a request body so key reuse with a different payload can
// be rejected instead of replayed.
func Fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// BeginOrReplay claims the key or resolves what happened to it. Outcomes:
// fresh claim, verbatim replay of a COMPLETED record, or ConflictError while
// another instance of the same key is mid-flight.
func (l *ledger) BeginOrReplay(ctx context.Context, key string, operation enums.OperationType, requestHash string) (BeginResult, error) {
	record := &models.IdempotencyRecord{
		Key:           key,
		OperationType: operation,
		Status:        enums.IdempotencyStatusProcessing,
		RequestHash:   requestHash,
	}

	err := l.repo.Insert(ctx, record)
	if err == nil {
		return BeginResult{Fresh: true}, nil
	}
	if !db.IsUniqueViolation(err, "idempotency_records_key_key") {
		return BeginResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record idempotency key")
	}

	existing, err := l.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost a race with a rollback; treat as mid-flight.
			return BeginResult{}, midFlightError(key)
		}
		return BeginResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record")
	}

	switch existing.Status {
	case enums.IdempotencyStatusCompleted:
		if existing.RequestHash != requestHash {
			return BeginResult{}, pkgerrors.New(pkgerrors.CodeConflict, "idempotency key reused with a different payload").
				WithDetails(map[string]any{"key": key})
		}
		return BeginResult{CachedResponse: existing.CachedResponse}, nil

	case enums.IdempotencyStatusFailed:
		taken, err := l.repo.TakeOver(ctx, key, requestHash)
		if err != nil {
			return BeginResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reclaim idempotency key")
		}
		if !taken {
			return BeginResult{}, midFlightError(key)
		}
		return BeginResult{Fresh: true}, nil

	default:
		return BeginResult{}, midFlightError(key)
	}
}

// Complete marks the record COMPLETED with the response to replay.
func (l *ledger) Complete(ctx context.Context, key string, response []byte, linkedWishlistID uuid.UUID) error {
	if err := l.repo.MarkCompleted(ctx, key, response, linkedWishlistID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete idempotency record")
	}
	return nil
}

// Fail releases the key for a retry after the guarded operation failed.
func (l *ledger) Fail(ctx context.Context, key string) error {
	if err := l.repo.MarkFailed(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail idempotency record")
	}
	return nil
}

func midFlightError(key string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "another request with this idempotency key is in flight").
		WithDetails(map[string]any{"key": key})
}
