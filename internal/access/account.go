// Package access answers role and capability questions about an account from its
// meta tags. Callers pass the account explicitly; nothing here reads request state.
package access

import (
	"satgas-data/internal/domain"
	"satgas-data/internal/meta"
)

// Capability names checked by the API.
const (
	CapSatgas      = "satgas"
	CapData        = "data"
	CapDataPerson  = "data_person"
	CapVillageData = "village_data"
)

// Account id and decoded meta of a user or admin.
type Account struct {
	ID   int64
	Meta meta.TagSet
}

// FromUser decodes a user record.
func FromUser(u *domain.User) Account {
	return Account{ID: u.ID, Meta: meta.Decode(u.Meta)}
}

// FromAdmin decodes an admin record.
func FromAdmin(a *domain.Admin) Account {
	return Account{ID: a.ID, Meta: meta.Decode(a.Meta)}
}

func (a Account) IsSuperAdmin() bool { return a.ID == domain.SuperAdminID }

func (a Account) IsSatgas() bool  { return meta.HasMarker(a.Meta, meta.MarkerSatgas) }
func (a Account) IsMedic() bool   { return meta.HasMarker(a.Meta, meta.MarkerMedic) }
func (a Account) IsDeleted() bool { return meta.HasMarker(a.Meta, meta.MarkerDeleted) }
func (a Account) IsBlocked() bool { return meta.HasMarker(a.Meta, meta.MarkerBlocked) }

// HasAccess reports whether the account holds capability; always true for the super
// admin.
func (a Account) HasAccess(capability string) bool {
	return meta.HasAccess(a.Meta, a.ID, capability)
}

// CityID city_id attribute, if present and numeric.
func (a Account) CityID() (int64, bool) {
	return meta.GetIntAttribute(a.Meta, meta.AttrCityID)
}

// DistrictID district_id attribute, if present and numeric.
func (a Account) DistrictID() (int64, bool) {
	return meta.GetIntAttribute(a.Meta, meta.AttrDistrictID)
}

// VillageID village_id attribute, if present and numeric.
func (a Account) VillageID() (int64, bool) {
	return meta.GetIntAttribute(a.Meta, meta.AttrVillageID)
}

// Attr any attribute value; empty when absent.
func (a Account) Attr(key string) string {
	v, _ := meta.GetAttribute(a.Meta, key)
	return v
}

// CanManageSatgas decides whether admin may delete, block or unblock target.
// The super admin may manage anyone. Other admins only manage satgas accounts of
// their own city; two accounts both lacking a city compare equal.
func CanManageSatgas(admin, target Account) bool {
	if admin.IsSuperAdmin() {
		return true
	}
	if !target.IsSatgas() {
		return false
	}
	adminCity, adminOK := admin.CityID()
	targetCity, targetOK := target.CityID()
	return adminOK == targetOK && adminCity == targetCity
}
