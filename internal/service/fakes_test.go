package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"satgas-data/internal/domain"
	"satgas-data/internal/events"
	"satgas-data/internal/meta"
	"satgas-data/internal/repository"
	"satgas-data/internal/search"
)

type fakeUsers struct {
	users      map[int64]*domain.User
	passwords  map[int64]string
	settings   map[int64][]domain.UserSetting
	connects   []*domain.UserConnect
	satgasSeen int64 // CountWithMeta result
	lastCount  []meta.Tag
	lastSearch *search.SearchRequest
	lastInfo   *repository.UserInfoUpdate
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{
		users:     map[int64]*domain.User{},
		passwords: map[int64]string{},
		settings:  map[int64][]domain.UserSetting{},
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

var _ repository.UsersRepository = (*fakeUsers)(nil)

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) { return int64(len(f.users)), nil }

func (f *fakeUsers) sorted() []*domain.User {
	out := []*domain.User{}
	for id := int64(0); id < 1000; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (f *fakeUsers) GetUsers(_ context.Context, offset, limit int64) ([]*domain.User, error) {
	all := f.sorted()
	if offset >= int64(len(all)) {
		return []*domain.User{}, nil
	}
	end := offset + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[offset:end], nil
}

func (f *fakeUsers) Search(_ context.Context, keyword string, _, _ int64) ([]*domain.User, int64, error) {
	out := []*domain.User{}
	for _, u := range f.sorted() {
		if strings.Contains(strings.ToLower(u.FullName), strings.ToLower(keyword)) {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeUsers) SearchWithMeta(_ context.Context, req search.SearchRequest) (*repository.SearchResult, error) {
	f.lastSearch = &req
	out := []*domain.User{}
	for _, u := range f.sorted() {
		ts := meta.Decode(u.Meta)
		if !meta.ContainsAll(ts, req.Required) || !meta.ContainsNone(ts, req.Excluded) {
			continue
		}
		if req.VillageName != nil {
			v, ok := meta.GetAttribute(ts, meta.AttrVillage)
			if !ok || !strings.EqualFold(v, *req.VillageName) {
				continue
			}
		}
		out = append(out, u)
	}
	return &repository.SearchResult{Count: int64(len(out)), Entries: out}, nil
}

func (f *fakeUsers) CountWithMeta(_ context.Context, required []meta.Tag) (int64, error) {
	f.lastCount = required
	return f.satgasSeen, nil
}

func (f *fakeUsers) UpdateUserInfo(_ context.Context, id int64, info repository.UserInfoUpdate) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	f.lastInfo = &info
	u.FullName = info.FullName
	u.PhoneNum = info.PhoneNum
	u.Meta = info.Meta.Encode()
	return nil
}

func (f *fakeUsers) UpdateMeta(_ context.Context, id int64, tags meta.TagSet) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Meta = tags.Encode()
	return nil
}

func (f *fakeUsers) MarkDeleted(_ context.Context, id int64) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Meta = meta.WithMarker(meta.Decode(u.Meta), meta.MarkerDeleted).Encode()
	u.Active = false
	return nil
}

func (f *fakeUsers) MarkBlocked(_ context.Context, id int64, blocked bool) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	ts := meta.Decode(u.Meta)
	if blocked {
		ts = meta.WithMarker(ts, meta.MarkerBlocked)
	} else {
		ts = meta.WithoutMarker(ts, meta.MarkerBlocked)
	}
	u.Meta = ts.Encode()
	u.Active = !blocked
	return nil
}

func (f *fakeUsers) SetPassword(_ context.Context, id int64, password string) error {
	f.passwords[id] = password
	return nil
}

func (f *fakeUsers) SetSetting(_ context.Context, userID int64, key, value string) error {
	f.settings[userID] = append(f.settings[userID], domain.UserSetting{UserID: userID, Key: key, Value: value})
	return nil
}

func (f *fakeUsers) GetSettings(_ context.Context, userID int64) ([]domain.UserSetting, error) {
	return f.settings[userID], nil
}

func (f *fakeUsers) CreateUserConnect(_ context.Context, c *domain.UserConnect) error {
	c.ID = int64(len(f.connects) + 1)
	f.connects = append(f.connects, c)
	return nil
}

func (f *fakeUsers) RemoveUserConnect(_ context.Context, deviceID, providerName, appID string) error {
	kept := f.connects[:0]
	for _, c := range f.connects {
		if c.DeviceID == deviceID && c.ProviderName == providerName && c.AppID == appID {
			continue
		}
		kept = append(kept, c)
	}
	f.connects = kept
	return nil
}

func (f *fakeUsers) UpdateUserLocation(_ context.Context, userID int64, deviceID, locName, locNameFull string) error {
	for _, c := range f.connects {
		if c.UserID == userID && c.DeviceID == deviceID {
			c.LocName = locName
			c.LocNameFull = locNameFull
		}
	}
	return nil
}

type fakeCities map[string]*domain.City

func (f fakeCities) GetByAreaCode(_ context.Context, code string) (*domain.City, error) {
	return f[code], nil
}

type fakeVillages map[string]*domain.Village

// GetByName matches case-insensitively like the ILIKE lookup in Postgres.
func (f fakeVillages) GetByName(_ context.Context, _, _, name string) (*domain.Village, error) {
	for k, v := range f {
		if strings.EqualFold(k, name) {
			return v, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeAuth struct {
	hashes  map[int64]string
	cleared []int64
}

func newFakeAuth(t interface{ Fatal(...any) }, id int64, password string) *fakeAuth {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeAuth{hashes: map[int64]string{id: string(h)}}
}

func (f *fakeAuth) GetPasshash(_ context.Context, _ domain.AccountKind, id int64) (string, error) {
	h, ok := f.hashes[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return h, nil
}

func (f *fakeAuth) GetAccountByToken(context.Context, string) (domain.AccountKind, int64, error) {
	return "", 0, sql.ErrNoRows
}

func (f *fakeAuth) ClearAccessTokenByUserID(_ context.Context, id int64) error {
	f.cleared = append(f.cleared, id)
	return nil
}

type fakeLocator struct {
	info *domain.LocationInfo
	err  error
}

func (f fakeLocator) Reverse(context.Context, float64, float64) (*domain.LocationInfo, error) {
	return f.info, f.err
}

var errGeocoder = errors.New("geocoder down")

// mockLocator records the coordinates it was asked to resolve.
type mockLocator struct {
	mock.Mock
}

func (m *mockLocator) Reverse(ctx context.Context, lat, lon float64) (*domain.LocationInfo, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LocationInfo), args.Error(1)
}

type recordingPublisher struct {
	events []events.AccountEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.AccountEvent) error {
	p.events = append(p.events, ev)
	return nil
}
