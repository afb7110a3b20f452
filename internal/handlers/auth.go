package handlers

import (
	"net/http"

	"github.com/diewo77/go-assets/auth"
	"github.com/diewo77/go-assets/httpx"
	"github.com/diewo77/go-assets/internal/services"
)

type AuthHandler struct {
	users    *services.UserService
	sessions *auth.Sessions
}

func NewAuthHandler(users *services.UserService, sessions *auth.Sessions) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the credentials and starts a session. The token is both set
// as a cookie and returned for Bearer use.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	user, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	token, err := h.sessions.CreateSession(w, user.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}
