package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"satgas-data/internal/domain"
	"satgas-data/internal/meta"
	"satgas-data/internal/search"
)

const userColumns = `
			u.id,
			u.full_name,
			u.email,
			u.phone_num,
			u.active,
			u.latitude,
			u.longitude,
			u.meta,
			u.register_time`

// PasswordCost bcrypt cost used by SetPassword.
const PasswordCost = 12

// PostgresUsersRepository UsersRepository over the users table.
// meta is a TEXT[] column; tag scoping uses the array operators @> and &&.
type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.PhoneNum,
		&u.Active,
		&u.Latitude,
		&u.Longitude,
		&u.Meta,
		&u.RegisterTime,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUsersRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresUsersRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresUsersRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *PostgresUsersRepository) GetUsers(ctx context.Context, offset, limit int64) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.id ASC LIMIT $1 OFFSET $2`
	return r.queryUsers(ctx, query, limit, offset)
}

func keywordClause(argIdx int) string {
	return fmt.Sprintf(`(u.full_name ILIKE $%d ESCAPE '\' OR COALESCE(u.email,'') ILIKE $%d ESCAPE '\' OR u.phone_num ILIKE $%d ESCAPE '\')`,
		argIdx, argIdx, argIdx)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches keyword literally anywhere; % and _ typed by the user are
// not wildcards.
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

func (r *PostgresUsersRepository) Search(ctx context.Context, keyword string, offset, limit int64) ([]*domain.User, int64, error) {
	where := keywordClause(1)
	pattern := containsPattern(keyword)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u WHERE `+where, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + where + ` ORDER BY u.id ASC LIMIT $2 OFFSET $3`
	users, err := r.queryUsers(ctx, query, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// metaWhere builds the WHERE clause of a planned search. The village filter matches
// the village=<name> tag case-insensitively: registration stores the village as typed
// while the planner title-cases it.
func metaWhere(req search.SearchRequest) ([]string, []any) {
	where := []string{}
	args := []any{}
	argIdx := 1

	required := meta.Strings(req.Required)
	if len(required) > 0 {
		where = append(where, fmt.Sprintf("u.meta @> $%d", argIdx))
		args = append(args, pq.StringArray(required))
		argIdx++
	}
	if len(req.Excluded) > 0 {
		where = append(where, fmt.Sprintf("NOT (u.meta && $%d)", argIdx))
		args = append(args, pq.StringArray(meta.Strings(req.Excluded)))
		argIdx++
	}
	if req.VillageName != nil {
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(u.meta) AS m WHERE lower(m) = lower($%d))", argIdx))
		args = append(args, meta.Attribute(meta.AttrVillage, *req.VillageName).String())
		argIdx++
	}
	if q := strings.TrimSpace(req.Query); q != "" {
		where = append(where, keywordClause(argIdx))
		args = append(args, containsPattern(q))
	}
	if len(where) == 0 {
		where = append(where, "TRUE")
	}
	return where, args
}

func (r *PostgresUsersRepository) SearchWithMeta(ctx context.Context, req search.SearchRequest) (*SearchResult, error) {
	where, args := metaWhere(req)
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users u WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, err
	}

	n := len(args)
	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + cond +
		fmt.Sprintf(" ORDER BY u.id ASC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, req.Limit, req.Offset)

	users, err := r.queryUsers(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Count: total, Entries: users}, nil
}

func (r *PostgresUsersRepository) CountWithMeta(ctx context.Context, required []meta.Tag) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(u.id) FROM users u WHERE u.meta @> $1`,
		pq.StringArray(meta.Strings(required)),
	).Scan(&n)
	return n, err
}

func (r *PostgresUsersRepository) UpdateUserInfo(ctx context.Context, id int64, info UserInfoUpdate) error {
	var email sql.NullString
	if info.Email != nil {
		email = sql.NullString{String: *info.Email, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET full_name = $1, email = $2, phone_num = $3, latitude = $4, longitude = $5, meta = $6
		 WHERE id = $7`,
		info.FullName, email, info.PhoneNum, info.Latitude, info.Longitude,
		pq.StringArray(info.Meta.Encode()), id,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PostgresUsersRepository) UpdateMeta(ctx context.Context, id int64, tags meta.TagSet) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET meta = $1 WHERE id = $2`, pq.StringArray(tags.Encode()), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// rewriteMeta reads meta under a row lock, applies fn and writes the whole list back.
// active is kept in sync with the :deleted: and :blocked: markers.
func (r *PostgresUsersRepository) rewriteMeta(ctx context.Context, id int64, fn func(meta.TagSet) meta.TagSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var stored pq.StringArray
	if err := tx.QueryRowContext(ctx, `SELECT meta FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&stored); err != nil {
		return err
	}

	next := fn(meta.Decode(stored))
	active := !meta.HasMarker(next, meta.MarkerDeleted) && !meta.HasMarker(next, meta.MarkerBlocked)
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET meta = $1, active = $2 WHERE id = $3`,
		pq.StringArray(next.Encode()), active, id,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkDeleted soft-deletes: adds :deleted: and deactivates the account.
func (r *PostgresUsersRepository) MarkDeleted(ctx context.Context, id int64) error {
	return r.rewriteMeta(ctx, id, func(ts meta.TagSet) meta.TagSet {
		return meta.WithMarker(ts, meta.MarkerDeleted)
	})
}

// MarkBlocked adds or removes :blocked:.
func (r *PostgresUsersRepository) MarkBlocked(ctx context.Context, id int64, blocked bool) error {
	return r.rewriteMeta(ctx, id, func(ts meta.TagSet) meta.TagSet {
		if blocked {
			return meta.WithMarker(ts, meta.MarkerBlocked)
		}
		return meta.WithoutMarker(ts, meta.MarkerBlocked)
	})
}

func (r *PostgresUsersRepository) SetPassword(ctx context.Context, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO user_passhash (user_id, passhash, deprecated)
		 VALUES ($1, $2, FALSE)
		 ON CONFLICT (user_id)
		 DO UPDATE SET passhash = EXCLUDED.passhash, deprecated = FALSE`,
		id, string(hash),
	)
	return err
}

func (r *PostgresUsersRepository) SetSetting(ctx context.Context, userID int64, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, s_key, s_value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, s_key)
		 DO UPDATE SET s_value = EXCLUDED.s_value`,
		userID, key, value,
	)
	return err
}

func (r *PostgresUsersRepository) GetSettings(ctx context.Context, userID int64) ([]domain.UserSetting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, s_key, s_value FROM user_settings WHERE user_id = $1 ORDER BY s_key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := []domain.UserSetting{}
	for rows.Next() {
		var s domain.UserSetting
		if err := rows.Scan(&s.UserID, &s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *PostgresUsersRepository) CreateUserConnect(ctx context.Context, c *domain.UserConnect) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO user_connect (user_id, device_id, provider_name, app_id, loc_name, loc_name_full)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (device_id, provider_name, app_id)
		 DO UPDATE SET user_id = EXCLUDED.user_id, loc_name = EXCLUDED.loc_name, loc_name_full = EXCLUDED.loc_name_full
		 RETURNING id, created_at`,
		c.UserID, c.DeviceID, c.ProviderName, c.AppID, c.LocName, c.LocNameFull,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *PostgresUsersRepository) RemoveUserConnect(ctx context.Context, deviceID, providerName, appID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_connect WHERE device_id = $1 AND provider_name = $2 AND app_id = $3`,
		deviceID, providerName, appID,
	)
	return err
}

func (r *PostgresUsersRepository) UpdateUserLocation(ctx context.Context, userID int64, deviceID, locName, locNameFull string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_connect SET loc_name = $1, loc_name_full = $2
		 WHERE user_id = $3 AND device_id = $4`,
		locName, locNameFull, userID, deviceID,
	)
	return err
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
