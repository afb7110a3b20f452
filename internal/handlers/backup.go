package handlers

import (
	"net/http"

	"github.com/diewo77/go-assets/httpx"
	"github.com/diewo77/go-assets/internal/services"
)

type BackupHandler struct {
	backups *services.BackupService
	users   ActorLoader
}

func NewBackupHandler(backups *services.BackupService, users ActorLoader) *BackupHandler {
	return &BackupHandler{backups: backups, users: users}
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	list, err := h.backups.List(r.Context(), u)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": list, "total": len(list)})
}

func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	b, err := h.backups.Create(r.Context(), u)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
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
	if err := h.backups.Restore(r.Context(), u, id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"restored": id})
}
