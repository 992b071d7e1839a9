package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput marks confirmation requests rejected before persistence.
var ErrInvalidInput = errors.New("invalid input")

var allowedKinds = map[string]struct{}{
	"cheque":    {},
	"documento": {},
}

// Service contains business logic for confirmed-record submissions.
type Service struct {
	Repo Repo
}

// Confirm validates and persists a user-confirmed record.
func (s *Service) Confirm(ctx context.Context, tipoDocumento string, datos map[string]any, usuarioID string) (ConfirmedRecord, error) {
	kind := strings.ToLower(strings.TrimSpace(tipoDocumento))
	if _, ok := allowedKinds[kind]; !ok {
		return ConfirmedRecord{}, errors.Join(ErrInvalidInput, errors.New("unknown tipo_documento"))
	}
	if len(datos) == 0 {
		return ConfirmedRecord{}, errors.Join(ErrInvalidInput, errors.New("datos is required"))
	}

	record := ConfirmedRecord{
		ID:            uuid.NewString(),
		TipoDocumento: kind,
		Datos:         datos,
		UsuarioID:     strings.TrimSpace(usuarioID),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, record); err != nil {
		return ConfirmedRecord{}, err
	}
	return record, nil
}
