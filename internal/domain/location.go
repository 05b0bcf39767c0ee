package domain

// City kabupaten/kota record (cities table).
type City struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Province string `db:"province"`
	AreaCode string `db:"area_code"`
}

// Village desa/kelurahan record joined with its district (villages + districts).
type Village struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	DistrictID   int64  `db:"district_id"`
	DistrictName string `db:"district_name"`
	City         string `db:"city"`
	Province     string `db:"province"`
}

// LocationInfo reverse geocoding result for a coordinate.
type LocationInfo struct {
	CountryCode string  `json:"country_code"`
	Province    string  `json:"province"`
	City        *string `json:"city,omitempty"`
	District    *string `json:"district,omitempty"`
	Subdistrict *string `json:"subdistrict,omitempty"`
	Label       string  `json:"label"`
}
