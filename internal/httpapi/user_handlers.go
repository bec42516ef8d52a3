package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"emhana.org/internal/audit"
	"emhana.org/internal/auth"
)

type userStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	default:
		methodNotAllowed(w, http.MethodGet)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if path == "" {
		respondError(w, http.StatusNotFound, "resource not found")
		return
	}

	if path == "me" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		a.getMe(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/status"); ok {
		id = strings.TrimSuffix(id, "/")
		if id == "" || strings.Contains(id, "/") {
			respondError(w, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPatch)
			return
		}
		a.setUserStatus(w, r, id)
		return
	}

	respondError(w, http.StatusNotFound, "resource not found")
}

func (a *API) getMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	respond(w, http.StatusOK, "User retrieved successfully", user)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	if err := a.requireAdmin(r); err != nil {
		respondError(w, http.StatusForbidden, "admin role required")
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := queryInt(r, "page_size", 10)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, total, err := a.auth.List(r.Context(), page, pageSize)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if total == 0 {
		respondError(w, http.StatusNotFound, "No users found")
		return
	}

	respond(w, http.StatusOK, "Users retrieved", map[string]any{
		"page":       page,
		"pageSize":   pageSize,
		"totalPages": (total + pageSize - 1) / pageSize,
		"totalCount": total,
		"items":      users,
	})
}

func (a *API) setUserStatus(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.requireAdmin(r); err != nil {
		respondError(w, http.StatusForbidden, "admin role required")
		return
	}

	var req userStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsActive == nil {
		respondError(w, http.StatusBadRequest, []string{"isActive must be a boolean"})
		return
	}

	user, err := a.auth.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "user.status.changed", map[string]any{
		"target_user_id": user.ID,
		"is_active":      user.IsActive,
	})

	respond(w, http.StatusOK, "User updated successfully", user)
}

var errAdminRequired = errors.New("admin role required")

func (a *API) requireAdmin(r *http.Request) error {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.Role != auth.RoleAdmin {
		return errAdminRequired
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return val, nil
}
