package repository

import (
	"context"
	"database/sql"
	"errors"

	"satgas-data/internal/domain"
)

// PostgresCitiesRepository CitiesRepository over the cities table.
type PostgresCitiesRepository struct {
	db *sql.DB
}

func NewPostgresCitiesRepository(db *sql.DB) *PostgresCitiesRepository {
	return &PostgresCitiesRepository{db: db}
}

var _ CitiesRepository = (*PostgresCitiesRepository)(nil)

func (r *PostgresCitiesRepository) GetByAreaCode(ctx context.Context, areaCode string) (*domain.City, error) {
	var c domain.City
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, province, area_code FROM cities WHERE area_code = $1 LIMIT 1`, areaCode,
	).Scan(&c.ID, &c.Name, &c.Province, &c.AreaCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// PostgresVillagesRepository VillagesRepository over villages joined with districts.
type PostgresVillagesRepository struct {
	db *sql.DB
}

func NewPostgresVillagesRepository(db *sql.DB) *PostgresVillagesRepository {
	return &PostgresVillagesRepository{db: db}
}

var _ VillagesRepository = (*PostgresVillagesRepository)(nil)

// GetByName matches case-insensitively within the province and city.
func (r *PostgresVillagesRepository) GetByName(ctx context.Context, province, city, name string) (*domain.Village, error) {
	var v domain.Village
	err := r.db.QueryRowContext(ctx,
		`SELECT v.id, v.name, v.district_id, d.name, v.city, v.province
		 FROM villages v
		 JOIN districts d ON d.id = v.district_id
		 WHERE v.province ILIKE $1 AND v.city ILIKE $2 AND v.name ILIKE $3
		 LIMIT 1`,
		province, city, name,
	).Scan(&v.ID, &v.Name, &v.DistrictID, &v.DistrictName, &v.City, &v.Province)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
