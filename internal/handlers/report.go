package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/diewo77/go-assets/httpx"
	"github.com/diewo77/go-assets/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
	users   ActorLoader
}

func NewReportHandler(reports *services.ReportService, users ActorLoader) *ReportHandler {
	return &ReportHandler{reports: reports, users: users}
}

// Generate builds the report named by {kind} over the assets matching the
// query string. With ?format=csv the table is returned as CSV instead of
// JSON.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	kind := r.PathValue("kind")
	res, err := h.reports.Generate(r.Context(), u, kind, queryFilters(r, "format"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if r.URL.Query().Get("format") != "csv" {
		httpx.JSON(w, http.StatusOK, res)
		return
	}
	name := fmt.Sprintf("%s_report_%s.csv", kind, time.Now().Format("20060102_150405"))
	if res.Path != "" {
		name = filepath.Base(res.Path)
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_ = res.Table.WriteCSV(w)
}
