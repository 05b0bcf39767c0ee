package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satgas-data/internal/domain"
	"satgas-data/internal/meta"
	"satgas-data/internal/search"
)

var userCols = []string{
	"id", "full_name", "email", "phone_num", "active", "latitude", "longitude", "meta", "register_time",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresUsersRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresUsersRepository(db)
}

func TestGetByID_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	registered := time.Date(2020, 4, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(userCols).
		AddRow(int64(5), "Budi", nil, "0812", true, -7.5, 110.8, "{:satgas:,city_id=7}", registered)

	mock.ExpectQuery(`SELECT`).WithArgs(int64(5)).WillReturnRows(rows)

	u, err := repo.GetByID(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)
	assert.Equal(t, "Budi", u.FullName)
	assert.False(t, u.Email.Valid)
	assert.Equal(t, pq.StringArray{":satgas:", "city_id=7"}, u.Meta)
	assert.Equal(t, registered, u.RegisterTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByID(context.Background(), 9)

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithMeta_FullScope(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	village := "Sukamaju"
	req := search.SearchRequest{
		Query:       "Budi",
		VillageName: &village,
		Required:    []meta.Tag{meta.Marker("satgas"), meta.Attribute("city_id", "7")},
		Excluded:    []meta.Tag{meta.Marker("deleted")},
		Offset:      20,
		Limit:       10,
	}
	required := pq.StringArray{":satgas:", "city_id=7"}
	excluded := pq.StringArray{":deleted:"}

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM users u WHERE u.meta @> $1 AND NOT (u.meta && $2) AND ` +
			`EXISTS (SELECT 1 FROM unnest(u.meta) AS m WHERE lower(m) = lower($3)) AND (u.full_name ILIKE $4 ESCAPE '\'`)).
		WithArgs(required, excluded, "village=Sukamaju", "%Budi%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(21)))

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY u.id ASC LIMIT $5 OFFSET $6`)).
		WithArgs(required, excluded, "village=Sukamaju", "%Budi%", int64(10), int64(20)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(30), "Budi Santoso", "budi@example.com", "0812", true, 0.0, 0.0,
				"{:satgas:,city_id=7,village=sukamaju}", time.Now()))

	res, err := repo.SearchWithMeta(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, int64(21), res.Count)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Budi Santoso", res.Entries[0].FullName)
	assert.Equal(t, "budi@example.com", res.Entries[0].Email.String)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithMeta_Unfiltered(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users u WHERE TRUE`)).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE TRUE ORDER BY u.id ASC LIMIT $1 OFFSET $2`)).
		WithArgs(int64(50), int64(0)).
		WillReturnRows(sqlmock.NewRows(userCols))

	res, err := repo.SearchWithMeta(context.Background(), search.SearchRequest{Limit: 50})

	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Count)
	assert.Empty(t, res.Entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_Keyword(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users u WHERE (u.full_name ILIKE $1`)).
		WithArgs("%ani%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $2 OFFSET $3`)).
		WithArgs("%ani%", int64(10), int64(0)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(2), "Ani", nil, "0813", true, 0.0, 0.0, "{}", time.Now()))

	users, total, err := repo.Search(context.Background(), "ani", 0, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].Meta)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_KeywordWildcardsAreLiteral(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`ILIKE $1 ESCAPE '\'`)).
		WithArgs(`%50\%\_off\\x%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $2 OFFSET $3`)).
		WithArgs(`%50\%\_off\\x%`, int64(10), int64(0)).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, total, err := repo.Search(context.Background(), `50%_off\x`, 0, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithMeta_VillageOnly(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	village := "Sukamaju"
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM users u WHERE EXISTS (SELECT 1 FROM unnest(u.meta) AS m WHERE lower(m) = lower($1))`)).
		WithArgs("village=Sukamaju").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $2 OFFSET $3`)).
		WithArgs("village=Sukamaju", int64(10), int64(0)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(31), "Siti", nil, "0814", true, 0.0, 0.0, "{:satgas:,village=sukamaju}", time.Now()))

	res, err := repo.SearchWithMeta(context.Background(), search.SearchRequest{VillageName: &village, Limit: 10})

	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(31), res.Entries[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountWithMeta(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(u.id) FROM users u WHERE u.meta @> $1`)).
		WithArgs(pq.StringArray{":satgas:", "village_id=42"}).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))

	n, err := repo.CountWithMeta(context.Background(),
		[]meta.Tag{meta.Marker("satgas"), meta.Attribute("village_id", "42")})

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkDeleted_RewritesWholeMeta(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT meta FROM users WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"meta"}).AddRow("{:satgas:,city_id=7}"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET meta = $1, active = $2 WHERE id = $3`)).
		WithArgs(pq.StringArray{":satgas:", "city_id=7", ":deleted:"}, false, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.MarkDeleted(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkBlocked_Unblock(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT meta FROM users`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"meta"}).AddRow("{:blocked:,:satgas:}"))
	mock.ExpectExec(`UPDATE users SET meta`).
		WithArgs(pq.StringArray{":satgas:"}, true, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.MarkBlocked(context.Background(), 5, false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkBlocked_MissingUserRollsBack(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT meta FROM users`).WithArgs(int64(5)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.MarkBlocked(context.Background(), 5, true)

	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMeta_NoRow(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET meta = $1 WHERE id = $2`)).
		WithArgs(pq.StringArray{"access.data"}, int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMeta(context.Background(), 8, meta.Of(meta.Access("data")))

	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserInfo(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	email := "ani@example.com"
	mock.ExpectExec(`UPDATE users`).
		WithArgs("Ani", sql.NullString{String: email, Valid: true}, "0813", 1.5, 2.5,
			pq.StringArray{":satgas:", "village_id=1"}, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateUserInfo(context.Background(), 3, UserInfoUpdate{
		FullName:  "Ani",
		Email:     &email,
		PhoneNum:  "0813",
		Latitude:  1.5,
		Longitude: 2.5,
		Meta:      meta.Of(meta.Marker("satgas"), meta.Attribute("village_id", "1")),
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPassword_Hashes(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO user_passhash`).
		WithArgs(int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetPassword(context.Background(), 3, "rahasia123"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSettings(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT user_id, s_key, s_value FROM user_settings`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "s_key", "s_value"}).
			AddRow(int64(3), "lang", "id").
			AddRow(int64(3), "notif", "on"))

	settings, err := repo.GetSettings(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, []domain.UserSetting{
		{UserID: 3, Key: "lang", Value: "id"},
		{UserID: 3, Key: "notif", Value: "on"},
	}, settings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserConnect(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery(`INSERT INTO user_connect`).
		WithArgs(int64(3), "dev-1", "fcm", "app", "Solo", "Solo, Jawa Tengah").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(77), created))

	c := &domain.UserConnect{UserID: 3, DeviceID: "dev-1", ProviderName: "fcm", AppID: "app",
		LocName: "Solo", LocNameFull: "Solo, Jawa Tengah"}
	require.NoError(t, repo.CreateUserConnect(context.Background(), c))

	assert.Equal(t, int64(77), c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
