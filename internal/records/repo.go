package records

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a confirmed record does not exist.
var ErrNotFound = errors.New("record not found")

// Repo persists confirmed records.
type Repo interface {
	Create(ctx context.Context, record ConfirmedRecord) error
	Get(ctx context.Context, id string) (ConfirmedRecord, error)
	ListByUser(ctx context.Context, usuarioID string, limit int) ([]ConfirmedRecord, error)
}
