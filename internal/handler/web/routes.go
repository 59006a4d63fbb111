// Package web provides the HTTP handlers for the portal's pages.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/gaminghub/portal/internal/middleware"
	"github.com/gaminghub/portal/internal/models"
	flowerrors "github.com/gaminghub/portal/internal/pkg/errors"
	"github.com/gaminghub/portal/internal/service"
	"github.com/gaminghub/portal/templates/pages"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "gaminghub_session"

// Session value keys.
const (
	sessionKeyUserID     = "user_id"
	sessionKeyUserEmail  = "user_email"
	sessionKeyIsAdmin    = "is_admin"
	sessionKeyLoginEvent = "login_event_id"
	sessionKeySessionID  = "session_id"
)

const timeFormat = "02 Jan 2006 15:04:05"

// WebHandler handles HTTP requests for the portal.
type WebHandler struct {
	authService  service.AuthService
	sessionStore sessions.Store
	logger       *slog.Logger
	site         pages.Site
}

// NewWebHandler creates a new WebHandler instance.
func NewWebHandler(
	authService service.AuthService,
	sessionStore sessions.Store,
	logger *slog.Logger,
	site pages.Site,
) *WebHandler {
	return &WebHandler{
		authService:  authService,
		sessionStore: sessionStore,
		logger:       logger,
		site:         site,
	}
}

// Routes returns the chi router with all web routes configured.
func (h *WebHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Static files
	fileServer := http.FileServer(http.Dir("static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Public routes (no session required)
	r.Group(func(r chi.Router) {
		r.Get("/login", h.LoginPage)
		r.Post("/send-otp", h.SendCode)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/admin-login", h.AdminLogin)
		r.Get("/health", h.Health)
	})

	// Every other GET requires a session user
	r.Group(func(r chi.Router) {
		r.Use(h.RequireUser)

		r.Get("/", h.Home)
		r.Get("/admin-login", h.AdminLoginPage)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/dashboard", h.Dashboard)
		})
	})

	// The gate also covers GETs to unknown paths. The login entry points
	// stay exempt here as well.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path != "/login" && r.URL.Path != "/send-otp" {
			session, _ := h.sessionStore.Get(r, SessionCookieName)
			if userID, _ := session.Values[sessionKeyUserID].(string); userID == "" {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
		}
		http.NotFound(w, r)
	})

	return r
}

// ============================================
// Middleware
// ============================================

// RequireUser is the access gate: a GET without a session user is sent to
// the login page. POST routes are registered outside this group and are
// not gated, matching the portal's observed behavior.
func (h *WebHandler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := h.sessionStore.Get(r, SessionCookieName)
		userID, _ := session.Values[sessionKeyUserID].(string)
		if userID == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates the dashboard behind the session admin flag.
func (h *WebHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := h.sessionStore.Get(r, SessionCookieName)
		if isAdmin, _ := session.Values[sessionKeyIsAdmin].(bool); !isAdmin {
			http.Redirect(w, r, "/admin-login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ============================================
// Page Handlers
// ============================================

// Home renders the home page, greeting the session user.
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionStore.Get(r, SessionCookieName)
	email, _ := session.Values[sessionKeyUserEmail].(string)

	templ.Handler(pages.HomePage(h.site, email)).ServeHTTP(w, r)
}

// LoginPage renders the login form; an authenticated user is sent home.
func (h *WebHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionStore.Get(r, SessionCookieName)
	if userID, _ := session.Values[sessionKeyUserID].(string); userID != "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	errorMsg := r.URL.Query().Get("error")
	templ.Handler(pages.LoginPage(h.site, errorMsg)).ServeHTTP(w, r)
}

// SendCode handles the OTP request form submission.
func (h *WebHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderFlowError(w, flowerrors.ErrEmailRequired)
		return
	}

	email := r.FormValue("email")
	if email == "" {
		h.renderFlowError(w, flowerrors.ErrEmailRequired)
		return
	}

	if err := h.authService.IssueCode(r.Context(), email); err != nil {
		// The user is redirected back to the login entry point regardless
		// of the outcome.
		h.logger.Error("failed to issue code",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
	} else {
		middleware.IncrementCodesIssued()
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// Login handles the OTP verification form submission.
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderFlowError(w, flowerrors.ErrEmailAndCodeRequired)
		return
	}

	email := r.FormValue("email")
	code := r.FormValue("otp")
	if email == "" || code == "" {
		h.renderFlowError(w, flowerrors.ErrEmailAndCodeRequired)
		return
	}

	user, event, err := h.authService.VerifyCode(r.Context(), email, code)
	if err != nil {
		if !flowerrors.IsFlowError(err) {
			h.logger.Error("login failed",
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
		}
		flowErr := flowerrors.AsFlowError(err)
		middleware.IncrementLoginFailures(flowErr.Code)
		h.renderFlowError(w, flowErr)
		return
	}

	h.openSession(w, r, user, event)
	middleware.IncrementLogins()

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout closes the session's login event and destroys the session.
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionStore.Get(r, SessionCookieName)

	// Best-effort: a failure here must not keep the user logged in.
	if eventID, _ := session.Values[sessionKeyLoginEvent].(string); eventID != "" {
		if err := h.authService.CloseLoginEvent(r.Context(), eventID); err != nil {
			h.logger.Error("failed to close login event",
				slog.String("event_id", eventID),
				slog.String("error", err.Error()),
			)
		}
	}

	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to clear session", slog.String("error", err.Error()))
	}
	middleware.IncrementLogouts()

	http.Redirect(w, r, "/", http.StatusFound)
}

// AdminLoginPage renders the admin password form. The access gate has
// already ensured a logged-in user.
func (h *WebHandler) AdminLoginPage(w http.ResponseWriter, r *http.Request) {
	templ.Handler(pages.AdminLoginPage(h.site, "")).ServeHTTP(w, r)
}

// AdminLogin verifies the submitted admin password.
func (h *WebHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		templ.Handler(pages.AdminLoginPage(h.site, "Password is required")).ServeHTTP(w, r)
		return
	}

	password := r.FormValue("password")
	if password == "" {
		templ.Handler(pages.AdminLoginPage(h.site, "Password is required")).ServeHTTP(w, r)
		return
	}

	if !h.authService.VerifyAdminPassword(password) {
		templ.Handler(pages.AdminLoginPage(h.site, "Incorrect password")).ServeHTTP(w, r)
		return
	}

	session, _ := h.sessionStore.Get(r, SessionCookieName)
	session.Values[sessionKeyIsAdmin] = true
	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Dashboard renders the full login history, newest first.
func (h *WebHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	events, err := h.authService.ListLoginEvents(r.Context())
	if err != nil {
		h.logger.Error("failed to load login history", slog.String("error", err.Error()))
		h.renderFlowError(w, flowerrors.ErrDashboard)
		return
	}

	rows := make([]pages.LoginRow, 0, len(events))
	for _, event := range events {
		row := pages.LoginRow{
			Email:   event.Email,
			LoginAt: event.LoginAt.Format(timeFormat),
		}
		if event.LogoutAt != nil {
			row.LogoutAt = event.LogoutAt.Format(timeFormat)
		}
		rows = append(rows, row)
	}

	templ.Handler(pages.DashboardPage(h.site, rows)).ServeHTTP(w, r)
}

// Health returns a simple health check response.
func (h *WebHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// ============================================
// Helper Methods
// ============================================

func (h *WebHandler) openSession(w http.ResponseWriter, r *http.Request, user *models.User, event *models.LoginEvent) {
	session, _ := h.sessionStore.Get(r, SessionCookieName)
	session.Values[sessionKeyUserID] = user.ID.Hex()
	session.Values[sessionKeyUserEmail] = user.Email
	session.Values[sessionKeyLoginEvent] = event.ID
	session.Values[sessionKeySessionID] = uuid.NewString()
	session.Options.MaxAge = int((24 * time.Hour).Seconds())
	session.Options.HttpOnly = true
	session.Options.Secure = r.TLS != nil
	session.Options.SameSite = http.SameSiteLaxMode
	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", slog.String("error", err.Error()))
	}
}

func (h *WebHandler) renderFlowError(w http.ResponseWriter, flowErr *flowerrors.FlowError) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(flowErr.StatusCode)
	w.Write([]byte(flowErr.Message))
}
