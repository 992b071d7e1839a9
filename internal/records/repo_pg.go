package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a confirmed record.
func (r *PGRepo) Create(ctx context.Context, record ConfirmedRecord) error {
	const query = `
INSERT INTO confirmed_records (
    id,
    tipo_documento,
    datos,
    usuario_id,
    created_at
) VALUES ($1, $2, $3, $4, $5)`

	datos, err := json.Marshal(record.Datos)
	if err != nil {
		return err
	}

	var usuarioID sql.NullString
	if record.UsuarioID != "" {
		usuarioID = sql.NullString{String: record.UsuarioID, Valid: true}
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		record.ID,
		record.TipoDocumento,
		datos,
		usuarioID,
		createdAt,
	)
	return err
}

// Get fetches one confirmed record by id.
func (r *PGRepo) Get(ctx context.Context, id string) (ConfirmedRecord, error) {
	const query = `
SELECT id, tipo_documento, datos, usuario_id, created_at
FROM confirmed_records
WHERE id = $1`

	row := r.DB.QueryRowContext(ctx, query, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ConfirmedRecord{}, ErrNotFound
	}
	return record, err
}

// ListByUser returns the latest confirmed records for a user.
func (r *PGRepo) ListByUser(ctx context.Context, usuarioID string, limit int) ([]ConfirmedRecord, error) {
	const query = `
SELECT id, tipo_documento, datos, usuario_id, created_at
FROM confirmed_records
WHERE usuario_id = $1
ORDER BY created_at DESC
LIMIT $2`

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx, query, usuarioID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConfirmedRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ConfirmedRecord, error) {
	var (
		record    ConfirmedRecord
		datos     []byte
		usuarioID sql.NullString
	)
	if err := row.Scan(&record.ID, &record.TipoDocumento, &datos, &usuarioID, &record.CreatedAt); err != nil {
		return ConfirmedRecord{}, err
	}
	if len(datos) > 0 {
		if err := json.Unmarshal(datos, &record.Datos); err != nil {
			return ConfirmedRecord{}, err
		}
	}
	record.UsuarioID = usuarioID.String
	return record, nil
}
