package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/steeven-js/madinia-cyber/internal/domain"
	"github.com/steeven-js/madinia-cyber/internal/service/auth"
	"github.com/steeven-js/madinia-cyber/pkg/crypto"
)

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, req, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	operator, tokens, err := r.auth.Signup(req.Context(), payload.Email, payload.Name, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrSignupDisabled):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, crypto.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			r.logger.Error("operator signup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "signup failed")
		}
		return
	}
	r.setSession(w, tokens)
	writeJSON(w, http.StatusCreated, sessionPayload(operator, tokens))
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, req, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	operator, tokens, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		r.logger.Error("operator login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	r.setSession(w, tokens)
	writeJSON(w, http.StatusOK, sessionPayload(operator, tokens))
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(w, req, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	operator, tokens, err := r.auth.Refresh(req.Context(), payload.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrInvalidRefresh):
			writeError(w, http.StatusUnauthorized, auth.ErrInvalidRefresh.Error())
		default:
			r.logger.Error("operator refresh failed", "error", err)
			writeError(w, http.StatusInternalServerError, "refresh failed")
		}
		return
	}
	r.setSession(w, tokens)
	writeJSON(w, http.StatusOK, sessionPayload(operator, tokens))
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     r.settings.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.settings.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// setSession stores the access token in the session cookie for browser use.
func (r *Router) setSession(w http.ResponseWriter, tokens auth.TokenPair) {
	ttl := tokens.ExpiresIn
	if r.settings.SessionTTL > 0 {
		ttl = r.settings.SessionTTL
	}
	http.SetCookie(w, &http.Cookie{
		Name:     r.settings.SessionCookieName,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.settings.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionPayload(operator *domain.Operator, tokens auth.TokenPair) map[string]any {
	return map[string]any{
		"operator": map[string]any{
			"id":    operator.ID,
			"email": operator.Email,
			"name":  operator.Name,
		},
		"tokens": tokens,
	}
}
