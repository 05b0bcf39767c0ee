package domain

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// User account record (users table).
// Meta is the ordered tag list described in internal/meta; it is read and written
// as a whole, never patched per tag.
type User struct {
	ID           int64          `db:"id"`
	FullName     string         `db:"full_name"`
	Email        sql.NullString `db:"email"`
	PhoneNum     string         `db:"phone_num"`
	Active       bool           `db:"active"`
	Latitude     float64        `db:"latitude"`
	Longitude    float64        `db:"longitude"`
	Meta         pq.StringArray `db:"meta"`
	RegisterTime time.Time      `db:"register_time"`
}

// Admin account record (admins table). Admin meta carries city scope and access grants.
type Admin struct {
	ID       int64          `db:"id"`
	Name     string         `db:"name"`
	Email    string         `db:"email"`
	PhoneNum string         `db:"phone_num"`
	Active   bool           `db:"active"`
	Meta     pq.StringArray `db:"meta"`
}

// UserSetting key/value preference (user_settings table).
type UserSetting struct {
	UserID int64  `db:"user_id" json:"-"`
	Key    string `db:"s_key" json:"key"`
	Value  string `db:"s_value" json:"value"`
}

// UserConnect push notification registration (user_connect table).
type UserConnect struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	DeviceID     string    `db:"device_id"`
	ProviderName string    `db:"provider_name"`
	AppID        string    `db:"app_id"`
	LocName      string    `db:"loc_name"`
	LocNameFull  string    `db:"loc_name_full"`
	CreatedAt    time.Time `db:"created_at"`
}
