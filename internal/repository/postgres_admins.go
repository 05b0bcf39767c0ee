package repository

import (
	"context"
	"database/sql"

	"satgas-data/internal/domain"
)

// PostgresAdminsRepository AdminsRepository over the admins table.
type PostgresAdminsRepository struct {
	db *sql.DB
}

func NewPostgresAdminsRepository(db *sql.DB) *PostgresAdminsRepository {
	return &PostgresAdminsRepository{db: db}
}

var _ AdminsRepository = (*PostgresAdminsRepository)(nil)

func (r *PostgresAdminsRepository) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone_num, active, meta FROM admins WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.PhoneNum, &a.Active, &a.Meta)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
