package handlers

import (
	"net/http"

	"github.com/diewo77/go-assets/httpx"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/services"
	"github.com/diewo77/go-assets/internal/store"
)

// UserHandler manages accounts. Role assignment replaces per-user profile
// editing: a user's role selects its permission profile.
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userPatch struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
}

func (p userPatch) update() store.UserUpdate {
	u := store.UserUpdate{
		Username: p.Username,
		Password: p.Password,
		Email:    p.Email,
		FullName: p.FullName,
	}
	if p.Role != nil {
		role := models.Role(*p.Role)
		u.Role = &role
	}
	return u
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	users, err := h.users.All(r.Context(), u)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": users, "total": len(users)})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var in services.NewUser
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, err)
		return
	}
	id, err := h.users.Add(r.Context(), u, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *UserHandler) View(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	target, err := h.users.Get(r.Context(), u, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, target)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var p userPatch
	if err := httpx.Decode(r, &p); err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.users.Update(r.Context(), u, id, p.update()); err != nil {
		httpx.Error(w, err)
		return
	}
	target, err := h.users.Get(r.Context(), u, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, target)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.users.Delete(r.Context(), u, id); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req passwordRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), u, id, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
