package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xtrntr/p2pdesk/internal/auth"
	"github.com/xtrntr/p2pdesk/internal/backoffice"
	"github.com/xtrntr/p2pdesk/internal/catalog"
	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/fee"
	"github.com/xtrntr/p2pdesk/internal/logging"
	"github.com/xtrntr/p2pdesk/internal/orders"
)

type ctxKey int

const userIDKey ctxKey = iota

// errBadRequest marks malformed input rejected before reaching a service.
var errBadRequest = errors.New("bad request")

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Auth       *auth.AuthService
	Catalog    *catalog.Service
	Orders     *orders.Service
	Fees       *fee.Store
	Backoffice *backoffice.Service
	Hub        *events.Hub

	// StaticDir holds the admin pages.
	StaticDir      string
	AllowedOrigins []string
	SecureCookies  bool

	log zerolog.Logger
}

// NewHandler creates a new handler
func NewHandler(h Handler, log zerolog.Logger) *Handler {
	h.log = logging.WithComponent(log, "api")
	return &h
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps a service error onto a status and an error body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if kind := orders.KindOf(err); kind != "" {
		var ve *orders.ValidationError
		errors.As(err, &ve)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "kind": string(kind)})
		return
	}

	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidAd),
		errors.Is(err, fee.ErrInvalidConfig),
		errors.Is(err, backoffice.ErrInvalidAction),
		errors.Is(err, backoffice.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, orders.ErrNotParticipant),
		errors.Is(err, orders.ErrWrongParty),
		errors.Is(err, catalog.ErrNotOwner),
		errors.Is(err, backoffice.ErrNotMerchant),
		errors.Is(err, backoffice.ErrKYCRequired):
		return http.StatusForbidden
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrAdNotFound),
		errors.Is(err, catalog.ErrTraderNotFound),
		errors.Is(err, backoffice.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, catalog.ErrTraderExists),
		errors.Is(err, backoffice.ErrAlreadyReviewed),
		errors.Is(err, backoffice.ErrKYCInProgress),
		errors.Is(err, backoffice.ErrAlreadyApplied):
		return http.StatusConflict
	case errors.Is(err, auth.ErrAdminNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

// userID returns the trader id set by JWTAuthMiddleware
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Register handles trader registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Country  string `json:"country"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	trader, err := h.Auth.Register(r.Context(), req.Username, req.Password, req.Country)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       trader.ID,
		"username": trader.DisplayName,
	})
}

// Login handles trader login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func bearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(token, "Bearer "); ok {
		return after
	}
	return token
}

// JWTAuthMiddleware verifies trader tokens
func (h *Handler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		id, err := h.Auth.GetUserFromToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Healthz reports liveness
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
