package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xtrntr/p2pdesk/internal/backoffice"
	"github.com/xtrntr/p2pdesk/internal/models"
	"github.com/xtrntr/p2pdesk/internal/orders"
)

const (
	sessionCookie = "admin_session"
	adminLogin    = "/admin/login"
	adminHome     = "/admin"
	dateLayout    = "2006-01-02"
)

func (h *Handler) setSession(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) hasSession(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return false
	}
	return h.Auth.VerifyAdminSession(c.Value) == nil
}

// AdminLogin exchanges admin credentials for a session cookie
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, err := h.Auth.AdminLogin(req.Email, req.Password)
	if err != nil {
		h.log.Warn().Err(err).Str("email", req.Email).Msg("admin login rejected")
		h.fail(w, r, err)
		return
	}

	h.setSession(w, token, int(h.Auth.SessionTTL()/time.Second))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AdminLogout clears the session cookie
func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.setSession(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AdminAuthMiddleware rejects admin API calls without a live session
func (h *Handler) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.hasSession(r) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminPageGuard redirects page requests between the login page and the
// admin pages depending on the session.
func (h *Handler) AdminPageGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed := h.hasSession(r)
		if r.URL.Path == adminLogin {
			if authed {
				http.Redirect(w, r, adminHome, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		if !authed {
			http.Redirect(w, r, adminLogin, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminPage serves /admin/<name> from <name>.html in the static directory.
func (h *Handler) AdminPage(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + chi.URLParam(r, "*"))
	if name == "/" {
		name = "/index"
	}
	if path.Ext(name) == "" {
		name += ".html"
	}
	http.ServeFile(w, r, filepath.Join(h.StaticDir, filepath.FromSlash(name)))
}

// Dashboard returns back-office summary statistics
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Backoffice.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListKYC lists KYC requests, optionally by ?status=
func (h *Handler) ListKYC(w http.ResponseWriter, r *http.Request) {
	list, err := h.Backoffice.ListKYC(r.Context(), models.KYCStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type actionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// ReviewKYC approves or rejects a KYC request
func (h *Handler) ReviewKYC(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	kyc, err := h.Backoffice.ReviewKYC(r.Context(), chi.URLParam(r, "id"), req.Action, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kyc)
}

// ListUsers lists wallet users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.Backoffice.ListUsers(r.Context(), backoffice.UserQuery{
		Search: q.Get("search"),
		Status: models.AccountStatus(q.Get("status")),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UserAction suspends, activates or deletes a user
func (h *Handler) UserAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.Backoffice.UserAction(r.Context(), chi.URLParam(r, "id"), req.Action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: dates must be YYYY-MM-DD", errBadRequest)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// ListTransactions lists ledger entries
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("date_from"), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := parseDate(q.Get("date_to"), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	txns, err := h.Backoffice.ListTransactions(r.Context(), backoffice.TransactionQuery{
		Type:     q.Get("type"),
		Currency: q.Get("currency"),
		From:     from,
		To:       to,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

// ListDisputes lists dispute cases
func (h *Handler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	disputes, err := h.Backoffice.ListDisputes(r.Context(), backoffice.DisputeQuery{
		Search:   q.Get("search"),
		Status:   models.DisputeStatus(q.Get("status")),
		Priority: q.Get("priority"),
		Category: q.Get("category"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, disputes)
}

// ListMerchants lists merchant accounts
func (h *Handler) ListMerchants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	merchants, err := h.Backoffice.ListMerchants(r.Context(), backoffice.MerchantQuery{
		Search:  q.Get("search"),
		Status:  models.MerchantStatus(q.Get("status")),
		Tier:    q.Get("tier"),
		Country: q.Get("country"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, merchants)
}

// MerchantAction verifies, suspends or flags a merchant for review
func (h *Handler) MerchantAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m, err := h.Backoffice.MerchantAction(r.Context(), chi.URLParam(r, "id"), req.Action, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListP2POrders lists every P2P order with per-status totals
func (h *Handler) ListP2POrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.List(r.Context(), orders.Filter{Status: models.OrderStatus(r.URL.Query().Get("status"))})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	counts, err := h.Orders.CountByStatus(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list, "counts": counts})
}

// GetFeeSettings returns the fee configuration
func (h *Handler) GetFeeSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Fees.Get())
}

// UpdateFeeSettings replaces the fee configuration
func (h *Handler) UpdateFeeSettings(w http.ResponseWriter, r *http.Request) {
	var cfg models.FeeConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.setFees(cfg); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Fees.Get())
}

func (h *Handler) setFees(cfg models.FeeConfig) error {
	if err := h.Fees.Set(cfg); err != nil {
		return err
	}
	h.log.Info().
		Bool("enabled", cfg.Enabled).
		Str("percentage", cfg.Percentage.String()).
		Msg("fee settings updated")
	return nil
}

type settingsView struct {
	Announcements []models.Announcement `json:"announcements"`
	Fees          models.FeeConfig      `json:"fees"`
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	st, err := h.Backoffice.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsView{Announcements: st.Announcements, Fees: h.Fees.Get()})
}

// GetSettings returns announcements and fee settings together
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.settings(w, r)
}

// UpdateSettings saves one settings section. The body is
// {"type": "announcements"|"fees", "data": ...}.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := decode(r, &req); err != nil || len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var err error
	switch req.Type {
	case "announcements":
		var list []models.Announcement
		if err := json.Unmarshal(req.Data, &list); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid announcements")
			return
		}
		_, err = h.Backoffice.ReplaceAnnouncements(r.Context(), list)
	case "fees":
		var cfg models.FeeConfig
		if err := json.Unmarshal(req.Data, &cfg); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid fee settings")
			return
		}
		err = h.setFees(cfg)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown settings type %q", req.Type))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.settings(w, r)
}

// CreateAnnouncement adds a platform announcement
func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in backoffice.AnnouncementInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	a, err := h.Backoffice.CreateAnnouncement(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// UpdateAnnouncement edits a platform announcement
func (h *Handler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in backoffice.AnnouncementInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	a, err := h.Backoffice.UpdateAnnouncement(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAnnouncement removes a platform announcement
func (h *Handler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if err := h.Backoffice.DeleteAnnouncement(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Announcement deleted"})
}
