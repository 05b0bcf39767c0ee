package access

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"satgas-data/internal/domain"
	"satgas-data/internal/meta"
)

func account(id int64, tags ...string) Account {
	return Account{ID: id, Meta: meta.Decode(tags)}
}

func TestAccount_Predicates(t *testing.T) {
	a := account(10, ":satgas:", ":medic:", "city_id=7", "district_id=70", "village_id=700", "access.data")

	assert.True(t, a.IsSatgas())
	assert.True(t, a.IsMedic())
	assert.False(t, a.IsDeleted())
	assert.False(t, a.IsBlocked())
	assert.False(t, a.IsSuperAdmin())
	assert.True(t, a.HasAccess(CapData))
	assert.False(t, a.HasAccess(CapSatgas))

	city, ok := a.CityID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), city)
	district, ok := a.DistrictID()
	assert.True(t, ok)
	assert.Equal(t, int64(70), district)
	village, ok := a.VillageID()
	assert.True(t, ok)
	assert.Equal(t, int64(700), village)
}

func TestAccount_EmptyMeta(t *testing.T) {
	a := account(10)

	assert.False(t, a.IsSatgas())
	assert.False(t, a.IsMedic())
	assert.False(t, a.HasAccess(CapSatgas))
	_, ok := a.CityID()
	assert.False(t, ok)
	_, ok = a.DistrictID()
	assert.False(t, ok)
	assert.Equal(t, "", a.Attr(meta.AttrVillage))
}

func TestAccount_DeletedBlocked(t *testing.T) {
	a := account(10, ":deleted:", ":blocked:")
	assert.True(t, a.IsDeleted())
	assert.True(t, a.IsBlocked())
}

func TestAccount_SuperAdminHasEveryAccess(t *testing.T) {
	a := account(1)
	assert.True(t, a.IsSuperAdmin())
	assert.True(t, a.HasAccess(CapSatgas))
	assert.True(t, a.HasAccess("never-granted"))
}

func TestFromUserAndAdmin(t *testing.T) {
	u := FromUser(&domain.User{ID: 4, Meta: pq.StringArray{":satgas:"}})
	assert.True(t, u.IsSatgas())
	assert.Equal(t, int64(4), u.ID)

	ad := FromAdmin(&domain.Admin{ID: 2, Meta: pq.StringArray{"city_id=3"}})
	city, _ := ad.CityID()
	assert.Equal(t, int64(3), city)
}

func TestCanManageSatgas(t *testing.T) {
	super := account(1)
	cityAdmin := account(2, "city_id=7", "access.satgas")
	noCityAdmin := account(3)

	satgas7 := account(10, ":satgas:", "city_id=7")
	satgas8 := account(11, ":satgas:", "city_id=8")
	plain7 := account(12, "city_id=7")
	satgasNoCity := account(13, ":satgas:")

	assert.True(t, CanManageSatgas(super, plain7))
	assert.True(t, CanManageSatgas(super, satgas8))
	assert.True(t, CanManageSatgas(cityAdmin, satgas7))
	assert.False(t, CanManageSatgas(cityAdmin, satgas8))
	assert.False(t, CanManageSatgas(cityAdmin, plain7))
	assert.False(t, CanManageSatgas(cityAdmin, satgasNoCity))
	assert.True(t, CanManageSatgas(noCityAdmin, satgasNoCity))
	assert.False(t, CanManageSatgas(noCityAdmin, satgas7))
}
