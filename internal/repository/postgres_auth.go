package repository

import (
	"context"
	"database/sql"
	"fmt"

	"satgas-data/internal/domain"
)

// PostgresAuthRepository AuthRepository over the passhash and access_tokens tables.
type PostgresAuthRepository struct {
	db *sql.DB
}

func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{db: db}
}

var _ AuthRepository = (*PostgresAuthRepository)(nil)

func (r *PostgresAuthRepository) GetPasshash(ctx context.Context, kind domain.AccountKind, id int64) (string, error) {
	var query string
	switch kind {
	case domain.AccountKindUser:
		query = `SELECT passhash FROM user_passhash WHERE user_id = $1 AND deprecated = FALSE`
	case domain.AccountKindAdmin:
		query = `SELECT passhash FROM admin_passhash WHERE admin_id = $1 AND deprecated = FALSE`
	default:
		return "", fmt.Errorf("unknown account kind %q", kind)
	}

	var hash string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&hash); err != nil {
		return "", err
	}
	return hash, nil
}

func (r *PostgresAuthRepository) GetAccountByToken(ctx context.Context, token string) (domain.AccountKind, int64, error) {
	var kind string
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT account_kind, account_id FROM access_tokens
		 WHERE token = $1 AND expiration > NOW()`,
		token,
	).Scan(&kind, &id)
	if err != nil {
		return "", 0, err
	}
	return domain.AccountKind(kind), id, nil
}

func (r *PostgresAuthRepository) ClearAccessTokenByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE account_kind = $1 AND account_id = $2`,
		string(domain.AccountKindUser), userID,
	)
	return err
}
