package handler

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/arcade/internal/api/apierr"
	"github.com/mcoot/arcade/internal/dependencies/random"
	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/services/login"
	"github.com/mcoot/arcade/internal/web/middleware"
	"github.com/mcoot/arcade/internal/web/session"
)

// GamePath is where the blackjack session protocol is served
const GamePath = "/game/blackjack/ws"

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// Credentials issues, resolves and revokes session credentials
type Credentials interface {
	RegisterUser(ctx context.Context, user *model.User) (bool, error)
	Issue(ctx context.Context, playerID model.PlayerID) (string, error)
	Revoke(ctx context.Context, token string) (model.PlayerID, error)
}

// Auditor records player actions
type Auditor interface {
	Record(playerID model.PlayerID, action string, payload map[string]any)
}

// stateCookie is carried in a short-lived cookie across the provider round trip
type stateCookie struct {
	State    string `json:"state"`
	Verifier string `json:"verifier"`
}

// AuthHandler runs the identity provider login flow
type AuthHandler struct {
	credentials  Credentials
	provider     login.Provider
	auditor      Auditor
	random       random.Random
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. A nil provider disables login.
func NewAuthHandler(
	credentials Credentials,
	provider login.Provider,
	auditor Auditor,
	random random.Random,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		credentials:  credentials,
		provider:     provider,
		auditor:      auditor,
		random:       random,
		cookieSecure: cookieSecure,
		logger:       logger.With(slog.String("component", "login")),
	}
}

// Login redirects to the provider's consent page, or home if already logged in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if h.provider == nil {
		apierr.WriteError(w, apierr.NewLoginDisabledError())
		return
	}

	challenge, err := login.NewChallenge(h.random)
	if err != nil {
		h.logger.Error("failed to generate login challenge", slog.String("error", err.Error()))
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}

	h.setStateCookie(w, stateCookie{State: challenge.State, Verifier: challenge.CodeVerifier})
	http.Redirect(w, r, h.provider.AuthCodeURL(challenge.State, challenge.CodeChallenge), http.StatusFound)
}

// Callback completes the login: it verifies state, exchanges the code,
// registers the user if new and issues a fresh credential
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		apierr.WriteError(w, apierr.NewLoginDisabledError())
		return
	}

	sc, ok := h.readStateCookie(r)
	h.clearStateCookie(w)
	if !ok {
		h.fail(w, r, "missing_state", apierr.NewInvalidRequestError("missing or invalid login state"))
		return
	}
	if subtle.ConstantTimeCompare([]byte(sc.State), []byte(r.URL.Query().Get("state"))) != 1 {
		h.fail(w, r, "state_mismatch", apierr.NewUnauthorizedErrorWithMessage("invalid login state"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.fail(w, r, "no_code_in_url", apierr.NewInvalidRequestError("authorization code missing"))
		return
	}

	claims, err := h.provider.Exchange(r.Context(), code, sc.Verifier)
	if err != nil {
		h.logger.Warn("code exchange failed",
			slog.String("provider", h.provider.Name()),
			slog.String("error", err.Error()),
		)
		h.fail(w, r, "exchange_failed", apierr.NewUnauthorizedErrorWithMessage("authentication failed"))
		return
	}
	if claims.Sub == "" {
		h.fail(w, r, "no_sub", apierr.NewUnauthorizedErrorWithMessage("authentication failed"))
		return
	}

	user := &model.User{ID: model.PlayerID(claims.Sub), Email: strings.ToLower(claims.Email)}
	created, err := h.credentials.RegisterUser(r.Context(), user)
	if err != nil {
		h.logger.Error("failed to register user", slog.String("error", err.Error()))
		apierr.WriteError(w, err)
		return
	}
	if created {
		h.auditor.Record(user.ID, model.AuditActionAutoRegister, map[string]any{"email": user.Email})
	}

	token, err := h.credentials.Issue(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to issue credential",
			slog.String("player_id", string(user.ID)),
			slog.String("error", err.Error()),
		)
		apierr.WriteError(w, err)
		return
	}

	session.SetCookie(w, token, h.cookieSecure)
	h.auditor.Record(user.ID, model.AuditActionLoginSuccess, map[string]any{
		"email": user.Email,
		"ip":    clientIP(r),
	})
	h.logger.Info("player logged in", slog.String("player_id", string(user.ID)))
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout revokes the credential and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := session.Token(r); token != "" {
		playerID, err := h.credentials.Revoke(r.Context(), token)
		if err != nil {
			h.logger.Warn("failed to revoke credential", slog.String("error", err.Error()))
		}
		if playerID != "" {
			h.auditor.Record(playerID, model.AuditActionLogout, map[string]any{"ip": clientIP(r)})
		}
	}

	session.ClearCookie(w, h.cookieSecure)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, reason string, err error) {
	h.auditor.Record("", model.AuditActionAuthFailed, map[string]any{
		"reason": reason,
		"ip":     clientIP(r),
	})
	apierr.WriteError(w, err)
}

func (h *AuthHandler) setStateCookie(w http.ResponseWriter, sc stateCookie) {
	raw, _ := json.Marshal(sc)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) readStateCookie(r *http.Request) (stateCookie, bool) {
	var sc stateCookie
	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return sc, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return sc, false
	}
	if err := json.Unmarshal(raw, &sc); err != nil || sc.State == "" || sc.Verifier == "" {
		return sc, false
	}
	return sc, true
}

// clientIP prefers the proxy-supplied address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
