package httpx

import (
	"errors"
	"mime"
	"net/http"

	"github.com/steeven-js/madinia-cyber/internal/service/identity"
)

func (r *Router) handleFirebaseTest(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, r.identity.TestConnection(req.Context()))
}

func (r *Router) handleFirebaseUsers(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	users, err := r.identity.ListUsers(req.Context())
	if err != nil {
		writeFailure(w, http.StatusOK, "Failed to retrieve users", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Users retrieved successfully",
		"users":      users,
		"totalUsers": len(users),
	})
}

func (r *Router) handleSetUserRole(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		UID  string `json:"uid"`
		Role string `json:"role"`
	}
	if isForm(req) {
		if err := req.ParseForm(); err != nil {
			writeFailure(w, http.StatusBadRequest, "Invalid role assignment", "invalid form body")
			return
		}
		payload.UID = req.PostForm.Get("uid")
		payload.Role = req.PostForm.Get("role")
	} else if err := decodeJSON(w, req, &payload); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid role assignment", "invalid JSON body")
		return
	}

	result, err := r.identity.SetUserRole(req.Context(), payload.UID, payload.Role)
	writeJSON(w, roleStatus(err), result)
}

func roleStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, identity.ErrMissingUID), errors.Is(err, identity.ErrInvalidRole):
		return http.StatusUnprocessableEntity
	case errors.Is(err, identity.ErrProviderTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func isForm(req *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded"
}
