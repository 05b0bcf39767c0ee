package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"satgas-data/internal/metrics"
)

const RequestIDHeader = "X-Request-Id"

// Router stdlib http.ServeMux plus request id, access log and metrics.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
	r.mux.Handle("GET /metrics", metrics.Handler())
	return r
}

// Handle pattern uses ServeMux syntax, "METHOD /path".
func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.Handle(pattern, metrics.Middleware(h))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	reqID := req.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, reqID)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.mux.ServeHTTP(rec, req)

	r.logger.Info("HTTP request",
		zap.String("request_id", reqID),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)),
	)
}

// RegisterUserRoutes mounts /user/v1.
func (r *Router) RegisterUserRoutes(h *UserHandler) {
	// current account
	r.Handle("GET /user/v1/me/info", h.MeInfo)
	r.Handle("POST /user/v1/me/update", h.UpdateMe)
	r.Handle("POST /user/v1/update_password", h.UpdatePassword)
	r.Handle("POST /user/v1/me/connect/create", h.ConnectCreate)
	r.Handle("POST /user/v1/me/connect/remove", h.ConnectRemove)
	r.Handle("POST /user/v1/me/update_loc", h.UpdateLocation)
	r.Handle("POST /user/v1/update_setting", h.UpdateSetting)
	r.Handle("GET /user/v1/settings", h.GetSettings)

	// admin
	r.Handle("GET /user/v1/detail", h.UserDetail)
	r.Handle("GET /user/v1/user/info", h.UserInfo)
	r.Handle("GET /user/v1/satgas/detail", h.SatgasDetail)
	r.Handle("POST /user/v1/update_accesses", h.UpdateAccesses)
	r.Handle("POST /user/v1/satgas/delete", h.DeleteSatgas)
	r.Handle("POST /user/v1/satgas/block", h.BlockSatgas)
	r.Handle("POST /user/v1/satgas/unblock", h.UnblockSatgas)
	r.Handle("GET /user/v1/users", h.ListUsers)
	r.Handle("GET /user/v1/search", h.SearchUsers)
	r.Handle("GET /user/v1/satgas/search", h.SearchSatgas)
	r.Handle("GET /user/v1/satgas/export", h.ExportSatgas)
	r.Handle("GET /user/v1/user/count", h.UserCount)
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}
