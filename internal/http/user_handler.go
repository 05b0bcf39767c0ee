package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"satgas-data/internal/access"
	"satgas-data/internal/domain"
	"satgas-data/internal/export"
	"satgas-data/internal/service"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	exportLimit  = 5000
)

// UserHandler /user/v1 endpoints.
type UserHandler struct {
	userService service.UserService
	auth        *Authenticator
	logger      *zap.Logger
}

func NewUserHandler(userService service.UserService, auth *Authenticator, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, auth: auth, logger: logger}
}

type idBody struct {
	ID int64 `json:"id"`
}

type updateAccessesBody struct {
	ID       int64    `json:"id"`
	Accesses []string `json:"accesses"`
}

type settingBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// caller resolves the token and checks the account kind. On false the response has
// been written.
func (h *UserHandler) caller(w http.ResponseWriter, r *http.Request, want domain.AccountKind) (access.Account, bool) {
	kind, acc, err := h.auth.Resolve(r.Context(), r)
	if err == nil && kind != want {
		err = service.ErrUnauthorized
	}
	if err != nil {
		h.fail(w, "authenticate", err)
		return access.Account{}, false
	}
	return acc, true
}

func (h *UserHandler) fail(w http.ResponseWriter, op string, err error) {
	var pe *service.ParamError
	var br *service.BadRequestError
	switch {
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, FailCode(ResultParamError, pe.Msg))
	case errors.As(err, &br):
		writeJSON(w, http.StatusBadRequest, FailCode(ResultBadRequest, br.Msg))
	case errors.Is(err, service.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, FailCode(ResultUnauthorized, "Unauthorized"))
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, FailCode(ResultNotFound, "Not found"))
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal server error"))
	}
}

func (h *UserHandler) readBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := readBodyJSON(r, maxBodyBytes, out); err != nil {
		writeJSON(w, http.StatusBadRequest, FailCode(ResultParamError, "invalid request body"))
		return false
	}
	return true
}

// ============================================
// current account
// ============================================

func (h *UserHandler) MeInfo(w http.ResponseWriter, r *http.Request) {
	me, ok := h.caller(w, r, domain.AccountKindUser)
	if !ok {
		return
	}
	dto, err := h.userService.MeInfo(r.Context(), me)
	if err != nil {
		h.fail(w, "MeInfo", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dto))
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	me, ok := h.caller(w, r, domain.AccountKindUser)
	if !ok {
		return
	}
	var req service.UpdateMeRequest
	if !h.readBody(w, r, &req) {
		return
	}
	if err := h.userService.UpdateMe(r.Context(), me, req); err != nil {
		h.fail(w, "UpdateMe", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	me, ok := h.caller(w, r, domain.AccountKindUser)
	if !ok {
		return
	}
	var req service.UpdatePasswordRequest
	if !h.readBody(w, r, &req) {
		return
	}
	if err := h.userService.UpdatePassword(r.Context(), me, req); err != nil {
		h.fail(w, "UpdatePassword", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *UserHandler) ConnectCreate(w http.ResponseWriter, r *http.Request) {
	me, ok := h.caller(w, r, domain.AccountKindUser)
	if !ok {
		return
	}
	var req service.ConnectRequest
	if !h.readBody(w, r, &req) {
		return
	}
	if err := h.userService.ConnectCreate(r.Context(), me, req); err != nil {
		h.fail(w, "ConnectCreate", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// ConnectRemove needs no token: the app unregisters after logout.
func (h *UserHandler) ConnectRemove(w http.ResponseWriter, r *http.Request) {
	var req service.ConnectRequest
	if !h.readBody(w, r, &req) {
		return
	}
	if err := h.userService.ConnectRemove(r.Context(), req); err != nil {
		h.fail(w, "ConnectRemove", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *UserHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	me, ok := h.caller(w, r, domain.AccountKindUser)
	if !ok {
		return
	}
	var req service.UpdateLocationRequest
	if !h.readBody(w, r, &req) {
		return
	}
	if err := h.userService.UpdateLocation(r.Context(), me, req); err != nil {
		h.fail(w, "UpdateLocation", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *UserHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	me, ok := h.caller(w, r, domain.AccountKindUser)
	if !ok {
		return
	}
	var body settingBody
	if !h.readBody(w, r, &body) {
		return
	}
	if err := h.userService.UpdateSetting(r.Context(), me, body.Key, body.Value); err != nil {
		h.fail(w, "UpdateSetting", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	me, ok := h.caller(w, r, domain.AccountKindUser)
	if !ok {
		return
	}
	settings, err := h.userService.GetSettings(r.Context(), me)
	if err != nil {
		h.fail(w, "GetSettings", err)
		return
	}
	if settings == nil {
		settings = []domain.UserSetting{}
	}
	writeJSON(w, http.StatusOK, Ok(settings))
}

// ============================================
// admin
// ============================================

func (h *UserHandler) UserDetail(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.caller(w, r, domain.AccountKindAdmin)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	dto, err := h.userService.UserDetail(r.Context(), admin, id)
	if err != nil {
		h.fail(w, "UserDetail", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dto))
}

func (h *UserHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r, domain.AccountKindAdmin); !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	dto, err := h.userService.UserInfo(r.Context(), id)
	if err != nil {
		h.fail(w, "UserInfo", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dto))
}

func (h *UserHandler) SatgasDetail(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.caller(w, r, domain.AccountKindAdmin)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	dto, err := h.userService.SatgasDetail(r.Context(), admin, id)
	if err != nil {
		h.fail(w, "SatgasDetail", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dto))
}

func (h *UserHandler) UpdateAccesses(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.caller(w, r, domain.AccountKindAdmin)
	if !ok {
		return
	}
	var body updateAccessesBody
	if !h.readBody(w, r, &body) {
		return
	}
	if err := h.userService.UpdateAccesses(r.Context(), admin, body.ID, body.Accesses); err != nil {
		h.fail(w, "UpdateAccesses", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *UserHandler) DeleteSatgas(w http.ResponseWriter, r *http.Request) {
	h.manageSatgas(w, r, "DeleteSatgas", h.userService.DeleteSatgas)
}

func (h *UserHandler) BlockSatgas(w http.ResponseWriter, r *http.Request) {
	h.manageSatgas(w, r, "BlockSatgas", h.userService.BlockSatgas)
}

func (h *UserHandler) UnblockSatgas(w http.ResponseWriter, r *http.Request) {
	h.manageSatgas(w, r, "UnblockSatgas", h.userService.UnblockSatgas)
}

func (h *UserHandler) manageSatgas(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, admin access.Account, id int64) error) {
	admin, ok := h.caller(w, r, domain.AccountKindAdmin)
	if !ok {
		return
	}
	var body idBody
	if !h.readBody(w, r, &body) {
		return
	}
	if body.ID <= 0 {
		writeJSON(w, http.StatusBadRequest, FailCode(ResultParamError, "id is required"))
		return
	}
	if err := fn(r.Context(), admin, body.ID); err != nil {
		h.fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.caller(w, r, domain.AccountKindAdmin)
	if !ok {
		return
	}
	offset, limit := page(r, maxLimit)
	res, err := h.userService.ListUsers(r.Context(), admin, offset, limit)
	if err != nil {
		h.fail(w, "ListUsers", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// SearchUsers without a query parameter lists all users.
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.caller(w, r, domain.AccountKindAdmin)
	if !ok {
		return
	}
	var query *string
	if r.URL.Query().Has("query") {
		q := r.URL.Query().Get("query")
		query = &q
	}
	offset, limit := page(r, maxLimit)
	res, err := h.userService.SearchUsers(r.Context(), admin, query, offset, limit)
	if err != nil {
		h.fail(w, "SearchUsers", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *UserHandler) SearchSatgas(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.caller(w, r, domain.AccountKindAdmin)
	if !ok {
		return
	}
	offset, limit := page(r, maxLimit)
	res, err := h.userService.SearchSatgas(r.Context(), admin, r.URL.Query().Get("query"), offset, limit)
	if err != nil {
		h.fail(w, "SearchSatgas", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// ExportSatgas same search as SearchSatgas, as an xlsx attachment.
func (h *UserHandler) ExportSatgas(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.caller(w, r, domain.AccountKindAdmin)
	if !ok {
		return
	}
	offset, limit := page(r, exportLimit)
	if !r.URL.Query().Has("limit") {
		limit = exportLimit
	}
	res, err := h.userService.SearchSatgas(r.Context(), admin, r.URL.Query().Get("query"), offset, limit)
	if err != nil {
		h.fail(w, "ExportSatgas", err)
		return
	}

	data, err := export.GenerateSatgasExport(res.Entries)
	if err != nil {
		h.fail(w, "ExportSatgas", err)
		return
	}

	filename := "satgas_" + time.Now().Format("20060102_150405") + ".xlsx"
	if err := writeAttachment(w, xlsxContentType, filename, data); err != nil {
		h.logger.Warn("Failed to write export", zap.String("filename", filename), zap.Error(err))
	}
}

func (h *UserHandler) UserCount(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r, domain.AccountKindAdmin); !ok {
		return
	}
	n, err := h.userService.UserCount(r.Context())
	if err != nil {
		h.fail(w, "UserCount", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(n))
}
