package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"satgas-data/internal/access"
	"satgas-data/internal/domain"
	"satgas-data/internal/events"
	"satgas-data/internal/geolocator"
	"satgas-data/internal/meta"
	"satgas-data/internal/repository"
	"satgas-data/internal/search"
)

// MaxSatgasPerVillage more registrations in one village are refused.
const MaxSatgasPerVillage = 2

const minPasswordLen = 6

// UserService account operations behind /user/v1. Every method takes the caller
// explicitly; the HTTP layer resolves it from the access token.
type UserService interface {
	// current user
	MeInfo(ctx context.Context, caller access.Account) (*UserDTO, error)
	UpdateMe(ctx context.Context, caller access.Account, req UpdateMeRequest) error
	UpdatePassword(ctx context.Context, caller access.Account, req UpdatePasswordRequest) error
	ConnectCreate(ctx context.Context, caller access.Account, req ConnectRequest) error
	ConnectRemove(ctx context.Context, req ConnectRequest) error
	UpdateLocation(ctx context.Context, caller access.Account, req UpdateLocationRequest) error
	UpdateSetting(ctx context.Context, caller access.Account, key, value string) error
	GetSettings(ctx context.Context, caller access.Account) ([]domain.UserSetting, error)

	// admin
	UserDetail(ctx context.Context, admin access.Account, id int64) (*UserDTO, error)
	UserInfo(ctx context.Context, id int64) (*UserDTO, error)
	SatgasDetail(ctx context.Context, admin access.Account, id int64) (*SatgasDTO, error)
	UpdateAccesses(ctx context.Context, admin access.Account, id int64, accesses []string) error
	DeleteSatgas(ctx context.Context, admin access.Account, id int64) error
	BlockSatgas(ctx context.Context, admin access.Account, id int64) error
	UnblockSatgas(ctx context.Context, admin access.Account, id int64) error
	ListUsers(ctx context.Context, admin access.Account, offset, limit int64) (*EntriesResult[*UserDTO], error)
	SearchUsers(ctx context.Context, admin access.Account, query *string, offset, limit int64) (*EntriesResult[*UserDTO], error)
	SearchSatgas(ctx context.Context, admin access.Account, query string, offset, limit int64) (*EntriesResult[*SatgasDTO], error)
	UserCount(ctx context.Context) (int64, error)
}

// UpdateMeRequest body of /me/update.
type UpdateMeRequest struct {
	FullName  string  `json:"full_name"`
	Email     *string `json:"email"`
	PhoneNum  string  `json:"phone_num"`
	Village   string  `json:"village"`
	LocPath   *string `json:"loc_path"` // replaces village eventually; not used yet
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AreaCode  string  `json:"area_code"`
	IsMedic   bool    `json:"is_medic"`
}

func (r UpdateMeRequest) validate() error {
	checks := []struct {
		field    string
		val      string
		min, max int
	}{
		{"full_name", r.FullName, 2, 64},
		{"phone_num", r.PhoneNum, 2, 15},
		{"village", r.Village, 2, 100},
		{"area_code", r.AreaCode, 2, 30},
	}
	if r.Email != nil {
		checks = append(checks, struct {
			field    string
			val      string
			min, max int
		}{"email", *r.Email, 2, 50})
	}
	for _, c := range checks {
		if n := len([]rune(c.val)); n < c.min || n > c.max {
			return paramError(fmt.Sprintf("%s harus %d-%d karakter", c.field, c.min, c.max))
		}
	}
	return nil
}

type UpdatePasswordRequest struct {
	OldPassword      string `json:"old_password"`
	NewPassword      string `json:"new_password"`
	VerifNewPassword string `json:"verif_new_password"`
}

// ConnectRequest push notification device registration.
type ConnectRequest struct {
	DeviceID     string `json:"device_id"`
	ProviderName string `json:"provider_name"`
	AppID        string `json:"app_id"`
	LocName      string `json:"loc_name"`
	LocNameFull  string `json:"loc_name_full"`
}

func (r ConnectRequest) validate() error {
	if r.DeviceID == "" || r.ProviderName == "" || r.AppID == "" {
		return paramError("device_id, provider_name dan app_id wajib diisi")
	}
	return nil
}

type UpdateLocationRequest struct {
	DeviceID    string `json:"device_id"`
	LocName     string `json:"loc_name"`
	LocNameFull string `json:"loc_name_full"`
}

type userService struct {
	users     repository.UsersRepository
	cities    repository.CitiesRepository
	villages  repository.VillagesRepository
	auth      repository.AuthRepository
	locator   geolocator.Locator
	publisher events.Publisher
	logger    *zap.Logger
}

func NewUserService(
	users repository.UsersRepository,
	cities repository.CitiesRepository,
	villages repository.VillagesRepository,
	auth repository.AuthRepository,
	locator geolocator.Locator,
	publisher events.Publisher,
	logger *zap.Logger,
) UserService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &userService{
		users:     users,
		cities:    cities,
		villages:  villages,
		auth:      auth,
		locator:   locator,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *userService) getUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return u, nil
}

// publish failures never fail the request; the change is already committed.
func (s *userService) publish(ctx context.Context, ev events.AccountEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish account event",
			zap.String("kind", string(ev.Kind)),
			zap.Int64("user_id", ev.UserID),
			zap.Error(err),
		)
	}
}

func (s *userService) MeInfo(ctx context.Context, caller access.Account) (*UserDTO, error) {
	u, err := s.getUser(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if access.FromUser(u).IsDeleted() {
		return nil, ErrUnauthorized
	}
	return toUserDTO(u), nil
}

func (s *userService) UpdateMe(ctx context.Context, caller access.Account, req UpdateMeRequest) error {
	if err := req.validate(); err != nil {
		return err
	}

	city, err := s.cities.GetByAreaCode(ctx, req.AreaCode)
	if err != nil {
		return fmt.Errorf("failed to get city: %w", err)
	}
	if city == nil {
		return paramError("Kode area tidak benar, mohon periksa kembali.")
	}

	var loc *domain.LocationInfo
	if s.locator != nil {
		loc, err = s.locator.Reverse(ctx, req.Latitude, req.Longitude)
		if err != nil {
			s.logger.Error("Cannot get geo locator",
				zap.Float64("latitude", req.Latitude),
				zap.Float64("longitude", req.Longitude),
				zap.Error(err),
			)
		}
	}

	village, err := s.villages.GetByName(ctx, city.Province, city.Name, req.Village)
	if err != nil {
		return paramError(fmt.Sprintf("Tidak dapat menemukan data untuk desa %s", req.Village))
	}

	villageScope := []meta.Tag{
		meta.Marker(meta.MarkerSatgas),
		meta.Attribute(meta.AttrVillageID, strconv.FormatInt(village.ID, 10)),
	}
	n, err := s.users.CountWithMeta(ctx, villageScope)
	if err != nil {
		return fmt.Errorf("failed to count village satgas: %w", err)
	}
	if n >= MaxSatgasPerVillage {
		return badRequest("Maksimal 2 satgas per desa")
	}

	err = s.users.UpdateUserInfo(ctx, caller.ID, repository.UserInfoUpdate{
		FullName:  req.FullName,
		Email:     req.Email,
		PhoneNum:  req.PhoneNum,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Meta:      buildSatgasMeta(city, village, req.Village, req.IsMedic, loc),
	})
	if err != nil {
		return notFoundIfNoRows(err)
	}

	s.publish(ctx, events.AccountEvent{Kind: events.KindProfileUpdated, UserID: caller.ID, ActorID: caller.ID})
	return nil
}

// buildSatgasMeta registration meta written by /me/update. It replaces whatever the
// account carried before, including access grants.
func buildSatgasMeta(city *domain.City, village *domain.Village, villageName string, medic bool, loc *domain.LocationInfo) meta.TagSet {
	ts := meta.Of(
		meta.Marker(meta.MarkerSatgas),
		meta.Attribute(meta.AttrVillage, villageName),
		meta.Attribute(meta.AttrVillageID, strconv.FormatInt(village.ID, 10)),
		meta.Attribute(meta.AttrDistrictID, strconv.FormatInt(village.DistrictID, 10)),
		meta.Attribute(meta.AttrDistrict, village.DistrictName),
		meta.Attribute(meta.AttrAreaCode, city.AreaCode),
		meta.Attribute(meta.AttrCityName, city.Name),
		meta.Attribute(meta.AttrCityID, strconv.FormatInt(city.ID, 10)),
		meta.Attribute(meta.AttrProvinceName, city.Province),
		meta.Attribute(meta.AttrAddressByAreaCode, city.Province+"/"+city.Name),
		meta.Access(access.CapData),
		meta.Access(access.CapDataPerson),
	)
	if medic {
		ts = append(ts, meta.Marker(meta.MarkerMedic), meta.Access(access.CapVillageData))
	}
	if loc != nil {
		ts = append(ts, meta.Attribute(meta.AttrAddress, fmt.Sprintf("%s/%s/%s/%s/%s/%s",
			loc.CountryCode,
			loc.Province,
			orUnknown(loc.City),
			orUnknown(loc.District),
			orUnknown(loc.Subdistrict),
			loc.Label,
		)))
	}
	return ts
}

func orUnknown(s *string) string {
	if s == nil {
		return "?"
	}
	return *s
}

func (s *userService) UpdatePassword(ctx context.Context, caller access.Account, req UpdatePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLen {
		return paramError("New password too short, please use min 6 characters long")
	}
	if req.NewPassword != req.VerifNewPassword {
		return paramError("Password verification didn't match")
	}

	hash, err := s.auth.GetPasshash(ctx, domain.AccountKindUser, caller.ID)
	if err != nil {
		return notFoundIfNoRows(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.OldPassword)) != nil {
		s.logger.Warn("User tried to update password using wrong password", zap.Int64("user_id", caller.ID))
		return ErrUnauthorized
	}

	if err := s.users.SetPassword(ctx, caller.ID, req.NewPassword); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	return nil
}

func (s *userService) ConnectCreate(ctx context.Context, caller access.Account, req ConnectRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	return s.users.CreateUserConnect(ctx, &domain.UserConnect{
		UserID:       caller.ID,
		DeviceID:     req.DeviceID,
		ProviderName: req.ProviderName,
		AppID:        req.AppID,
		LocName:      req.LocName,
		LocNameFull:  req.LocNameFull,
	})
}

func (s *userService) ConnectRemove(ctx context.Context, req ConnectRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	return s.users.RemoveUserConnect(ctx, req.DeviceID, req.ProviderName, req.AppID)
}

func (s *userService) UpdateLocation(ctx context.Context, caller access.Account, req UpdateLocationRequest) error {
	if req.DeviceID == "" {
		return paramError("device_id wajib diisi")
	}
	return s.users.UpdateUserLocation(ctx, caller.ID, req.DeviceID, req.LocName, req.LocNameFull)
}

func (s *userService) UpdateSetting(ctx context.Context, caller access.Account, key, value string) error {
	if key == "" {
		return paramError("key wajib diisi")
	}
	return s.users.SetSetting(ctx, caller.ID, key, value)
}

func (s *userService) GetSettings(ctx context.Context, caller access.Account) ([]domain.UserSetting, error) {
	return s.users.GetSettings(ctx, caller.ID)
}

func (s *userService) UserDetail(ctx context.Context, admin access.Account, id int64) (*UserDTO, error) {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserDTOFor(admin, u), nil
}

func (s *userService) UserInfo(ctx context.Context, id int64) (*UserDTO, error) {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserDTO(u), nil
}

func (s *userService) SatgasDetail(ctx context.Context, admin access.Account, id int64) (*SatgasDTO, error) {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSatgasDTO(u), nil
}

func (s *userService) UpdateAccesses(ctx context.Context, admin access.Account, id int64, accesses []string) error {
	if !admin.IsSuperAdmin() {
		return ErrUnauthorized
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	next := meta.ReplaceAccessGrants(meta.Decode(u.Meta), accesses)
	if err := s.users.UpdateMeta(ctx, id, next); err != nil {
		return notFoundIfNoRows(err)
	}

	s.logger.Info("Access grants updated",
		zap.Int64("user_id", id),
		zap.Strings("accesses", accesses),
	)
	s.publish(ctx, events.AccountEvent{Kind: events.KindAccessesUpdated, UserID: id, ActorID: admin.ID, Accesses: accesses})
	return nil
}

// manageable loads the target and checks the admin may delete/block it.
func (s *userService) manageable(ctx context.Context, admin access.Account, id int64) (*domain.User, error) {
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageSatgas(admin, access.FromUser(u)) {
		return nil, ErrUnauthorized
	}
	return u, nil
}

func (s *userService) DeleteSatgas(ctx context.Context, admin access.Account, id int64) error {
	u, err := s.manageable(ctx, admin, id)
	if err != nil {
		return err
	}
	if err := s.users.MarkDeleted(ctx, u.ID); err != nil {
		return notFoundIfNoRows(err)
	}
	if err := s.auth.ClearAccessTokenByUserID(ctx, u.ID); err != nil {
		return fmt.Errorf("failed to clear access tokens: %w", err)
	}

	s.logger.Info("Satgas deleted", zap.Int64("user_id", u.ID), zap.Int64("admin_id", admin.ID))
	s.publish(ctx, events.AccountEvent{Kind: events.KindDeleted, UserID: u.ID, ActorID: admin.ID})
	return nil
}

func (s *userService) BlockSatgas(ctx context.Context, admin access.Account, id int64) error {
	return s.setBlocked(ctx, admin, id, true)
}

func (s *userService) UnblockSatgas(ctx context.Context, admin access.Account, id int64) error {
	return s.setBlocked(ctx, admin, id, false)
}

func (s *userService) setBlocked(ctx context.Context, admin access.Account, id int64, blocked bool) error {
	u, err := s.manageable(ctx, admin, id)
	if err != nil {
		return err
	}
	if err := s.users.MarkBlocked(ctx, u.ID, blocked); err != nil {
		return notFoundIfNoRows(err)
	}

	kind := events.KindUnblocked
	if blocked {
		kind = events.KindBlocked
	}
	s.logger.Info("Satgas block state changed",
		zap.Int64("user_id", u.ID),
		zap.Int64("admin_id", admin.ID),
		zap.Bool("blocked", blocked),
	)
	s.publish(ctx, events.AccountEvent{Kind: kind, UserID: u.ID, ActorID: admin.ID})
	return nil
}

func (s *userService) ListUsers(ctx context.Context, admin access.Account, offset, limit int64) (*EntriesResult[*UserDTO], error) {
	users, err := s.users.GetUsers(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	return userEntries(admin, users, count), nil
}

// SearchUsers keyword search; a nil query lists everyone.
func (s *userService) SearchUsers(ctx context.Context, admin access.Account, query *string, offset, limit int64) (*EntriesResult[*UserDTO], error) {
	if query == nil {
		return s.ListUsers(ctx, admin, offset, limit)
	}
	users, count, err := s.users.Search(ctx, *query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return userEntries(admin, users, count), nil
}

func userEntries(admin access.Account, users []*domain.User, count int64) *EntriesResult[*UserDTO] {
	out := &EntriesResult[*UserDTO]{Count: count, Entries: make([]*UserDTO, 0, len(users))}
	for _, u := range users {
		out.Entries = append(out.Entries, toUserDTOFor(admin, u))
	}
	return out
}

// SearchSatgas satgas accounts visible to admin: own city only unless super admin,
// soft-deleted accounts hidden.
func (s *userService) SearchSatgas(ctx context.Context, admin access.Account, query string, offset, limit int64) (*EntriesResult[*SatgasDTO], error) {
	if !admin.HasAccess(access.CapSatgas) {
		return nil, ErrUnauthorized
	}

	req := search.Plan(search.PlanParams{
		RawQuery: query,
		Required: search.SatgasScope(admin.ID, admin.Meta),
		Excluded: search.NotDeleted(),
		Offset:   offset,
		Limit:    limit,
	})
	res, err := s.users.SearchWithMeta(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search satgas: %w", err)
	}

	out := &EntriesResult[*SatgasDTO]{Count: res.Count, Entries: make([]*SatgasDTO, 0, len(res.Entries))}
	for _, u := range res.Entries {
		out.Entries = append(out.Entries, toSatgasDTO(u))
	}
	return out, nil
}

func (s *userService) UserCount(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}
