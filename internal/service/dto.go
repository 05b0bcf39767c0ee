package service

import (
	"time"

	"satgas-data/internal/access"
	"satgas-data/internal/domain"
	"satgas-data/internal/meta"
)

// UserDTO user as returned by the API.
type UserDTO struct {
	ID           int64    `json:"id"`
	FullName     string   `json:"full_name"`
	Email        string   `json:"email,omitempty"`
	PhoneNum     string   `json:"phone_num"`
	Active       bool     `json:"active"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Meta         []string `json:"meta"`
	RegisterTime string   `json:"register_time"` // RFC3339
}

// SatgasDTO satgas profile decoded from the account meta.
type SatgasDTO struct {
	ID           int64    `json:"id"`
	FullName     string   `json:"full_name"`
	Email        string   `json:"email,omitempty"`
	PhoneNum     string   `json:"phone_num"`
	Active       bool     `json:"active"`
	Blocked      bool     `json:"blocked"`
	IsMedic      bool     `json:"is_medic"`
	Village      string   `json:"village"`
	VillageID    int64    `json:"village_id"`
	District     string   `json:"district"`
	DistrictID   int64    `json:"district_id"`
	CityName     string   `json:"city_name"`
	CityID       int64    `json:"city_id"`
	Province     string   `json:"province"`
	AreaCode     string   `json:"area_code"`
	Address      string   `json:"address"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Accesses     []string `json:"accesses"`
	RegisterTime string   `json:"register_time"`
}

// EntriesResult one page of a listing.
type EntriesResult[T any] struct {
	Count   int64 `json:"count"`
	Entries []T   `json:"entries"`
}

func toUserDTO(u *domain.User) *UserDTO {
	dto := &UserDTO{
		ID:           u.ID,
		FullName:     u.FullName,
		PhoneNum:     u.PhoneNum,
		Active:       u.Active,
		Latitude:     u.Latitude,
		Longitude:    u.Longitude,
		Meta:         []string(u.Meta),
		RegisterTime: u.RegisterTime.Format(time.RFC3339),
	}
	if u.Email.Valid {
		dto.Email = u.Email.String
	}
	if dto.Meta == nil {
		dto.Meta = []string{}
	}
	return dto
}

// toUserDTOFor hides meta from everyone but the super admin.
func toUserDTOFor(admin access.Account, u *domain.User) *UserDTO {
	dto := toUserDTO(u)
	if !admin.IsSuperAdmin() {
		dto.Meta = []string{}
	}
	return dto
}

func toSatgasDTO(u *domain.User) *SatgasDTO {
	acc := access.FromUser(u)
	dto := &SatgasDTO{
		ID:           u.ID,
		FullName:     u.FullName,
		PhoneNum:     u.PhoneNum,
		Active:       u.Active,
		Blocked:      acc.IsBlocked(),
		IsMedic:      acc.IsMedic(),
		Village:      acc.Attr(meta.AttrVillage),
		District:     acc.Attr(meta.AttrDistrict),
		CityName:     acc.Attr(meta.AttrCityName),
		Province:     acc.Attr(meta.AttrProvinceName),
		AreaCode:     acc.Attr(meta.AttrAreaCode),
		Address:      acc.Attr(meta.AttrAddress),
		Latitude:     u.Latitude,
		Longitude:    u.Longitude,
		Accesses:     meta.AccessGrants(acc.Meta),
		RegisterTime: u.RegisterTime.Format(time.RFC3339),
	}
	if u.Email.Valid {
		dto.Email = u.Email.String
	}
	dto.VillageID, _ = acc.VillageID()
	dto.DistrictID, _ = acc.DistrictID()
	dto.CityID, _ = acc.CityID()
	if dto.Accesses == nil {
		dto.Accesses = []string{}
	}
	return dto
}
