package repository

import (
	"context"

	"satgas-data/internal/domain"
	"satgas-data/internal/meta"
	"satgas-data/internal/search"
)

// UsersRepository user account storage (UserDao).
type UsersRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
	GetUsers(ctx context.Context, offset, limit int64) ([]*domain.User, error)

	// Search keyword match on name, email and phone.
	Search(ctx context.Context, keyword string, offset, limit int64) ([]*domain.User, int64, error)
	// SearchWithMeta executes a planned search: keyword, village and tag scoping.
	SearchWithMeta(ctx context.Context, req search.SearchRequest) (*SearchResult, error)
	// CountWithMeta counts users whose meta holds every required tag.
	CountWithMeta(ctx context.Context, required []meta.Tag) (int64, error)

	// UpdateUserInfo overwrites profile fields and the whole meta list.
	UpdateUserInfo(ctx context.Context, id int64, info UserInfoUpdate) error
	// UpdateMeta overwrites the whole meta list.
	UpdateMeta(ctx context.Context, id int64, tags meta.TagSet) error
	MarkDeleted(ctx context.Context, id int64) error
	MarkBlocked(ctx context.Context, id int64, blocked bool) error
	SetPassword(ctx context.Context, id int64, password string) error

	SetSetting(ctx context.Context, userID int64, key, value string) error
	GetSettings(ctx context.Context, userID int64) ([]domain.UserSetting, error)

	CreateUserConnect(ctx context.Context, c *domain.UserConnect) error
	RemoveUserConnect(ctx context.Context, deviceID, providerName, appID string) error
	UpdateUserLocation(ctx context.Context, userID int64, deviceID, locName, locNameFull string) error
}

// AdminsRepository admin account storage.
type AdminsRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Admin, error)
}

// CitiesRepository city lookup (CityDao).
type CitiesRepository interface {
	// GetByAreaCode returns nil, nil when no city has the code.
	GetByAreaCode(ctx context.Context, areaCode string) (*domain.City, error)
}

// VillagesRepository village lookup (VillageDao).
type VillagesRepository interface {
	GetByName(ctx context.Context, province, city, name string) (*domain.Village, error)
}

// AuthRepository password hashes and access tokens (AuthDao).
type AuthRepository interface {
	GetPasshash(ctx context.Context, kind domain.AccountKind, id int64) (string, error)
	// GetAccountByToken resolves a non-expired access token.
	GetAccountByToken(ctx context.Context, token string) (domain.AccountKind, int64, error)
	ClearAccessTokenByUserID(ctx context.Context, userID int64) error
}

// UserInfoUpdate profile fields written by /me/update.
type UserInfoUpdate struct {
	FullName  string
	Email     *string
	PhoneNum  string
	Latitude  float64
	Longitude float64
	Meta      meta.TagSet
}

// SearchResult one page of users plus the total match count.
type SearchResult struct {
	Count   int64
	Entries []*domain.User
}
