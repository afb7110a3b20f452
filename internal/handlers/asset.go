package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-assets/httpx"
	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/services"
	"github.com/diewo77/go-assets/internal/store"
	"github.com/diewo77/go-assets/validation"
	"gorm.io/datatypes"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUpload       = 10 << 20
)

type AssetHandler struct {
	assets *services.AssetService
	users  ActorLoader
}

func NewAssetHandler(assets *services.AssetService, users ActorLoader) *AssetHandler {
	return &AssetHandler{assets: assets, users: users}
}

// assetInput is the JSON body of create and update requests. Absent fields
// are left unchanged on update; dates are YYYY-MM-DD.
type assetInput struct {
	SerialNumber   *string  `json:"serial_number"`
	Company        *string  `json:"company"`
	Location       *string  `json:"location"`
	Category       *string  `json:"category"`
	Status         *string  `json:"status"`
	Username       *string  `json:"username"`
	Designation    *string  `json:"designation"`
	Department     *string  `json:"department"`
	Model          *string  `json:"model"`
	Description    *string  `json:"description"`
	IssueDate      *string  `json:"issue_date"`
	ComputerID     *string  `json:"computer_id"`
	WorkingStatus  *string  `json:"working_status"`
	Condition      *string  `json:"condition"`
	Audit          *string  `json:"audit"`
	EmployeeID     *string  `json:"employee_id"`
	PurchaseDate   *string  `json:"purchase_date"`
	RackTrayNumber *string  `json:"rack_tray_number"`
	ServiceCenter  *string  `json:"service_center"`
	LPONumber      *string  `json:"lpo_number"`
	InvoiceNumber  *string  `json:"invoice_number"`
	Supplier       *string  `json:"supplier"`
	EstimatedCost  *float64 `json:"estimated_cost"`
	Remarks        *string  `json:"remarks"`
}

// parseDate parses an optional YYYY-MM-DD value. Absent and empty both
// yield nil; see blank for telling them apart.
func parseDate(field string, s *string, v validation.Violations) *datatypes.Date {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		v[field] = "invalid_date"
		return nil
	}
	return models.NewDate(t)
}

// blank reports whether s was supplied as an empty string.
func blank(s *string) bool { return s != nil && *s == "" }

// update converts the request into a partial update. An empty string clears
// a date; an omitted one leaves it unchanged.
func (in assetInput) update() (store.AssetUpdate, error) {
	v := validation.Violations{}
	u := store.AssetUpdate{
		SerialNumber:   in.SerialNumber,
		Company:        in.Company,
		Location:       in.Location,
		Category:       in.Category,
		Status:         in.Status,
		Username:       in.Username,
		Designation:    in.Designation,
		Department:     in.Department,
		Model:          in.Model,
		Description:    in.Description,
		IssueDate:      parseDate("issue_date", in.IssueDate, v),
		ComputerID:     in.ComputerID,
		WorkingStatus:  in.WorkingStatus,
		Condition:      in.Condition,
		Audit:          in.Audit,
		EmployeeID:     in.EmployeeID,
		PurchaseDate:   parseDate("purchase_date", in.PurchaseDate, v),
		RackTrayNumber: in.RackTrayNumber,
		ServiceCenter:  in.ServiceCenter,
		LPONumber:      in.LPONumber,
		InvoiceNumber:  in.InvoiceNumber,
		Supplier:       in.Supplier,
		EstimatedCost:  in.EstimatedCost,
		Remarks:        in.Remarks,

		ClearIssueDate:    blank(in.IssueDate),
		ClearPurchaseDate: blank(in.PurchaseDate),
	}
	return u, v.Err()
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (in assetInput) asset() (*models.Asset, error) {
	u, err := in.update()
	if err != nil {
		return nil, err
	}
	return &models.Asset{
		SerialNumber:   str(u.SerialNumber),
		Company:        str(u.Company),
		Location:       str(u.Location),
		Category:       str(u.Category),
		Status:         str(u.Status),
		Username:       str(u.Username),
		Designation:    str(u.Designation),
		Department:     str(u.Department),
		Model:          str(u.Model),
		Description:    str(u.Description),
		IssueDate:      u.IssueDate,
		ComputerID:     str(u.ComputerID),
		WorkingStatus:  str(u.WorkingStatus),
		Condition:      str(u.Condition),
		Audit:          str(u.Audit),
		EmployeeID:     str(u.EmployeeID),
		PurchaseDate:   u.PurchaseDate,
		RackTrayNumber: str(u.RackTrayNumber),
		ServiceCenter:  str(u.ServiceCenter),
		LPONumber:      str(u.LPONumber),
		InvoiceNumber:  str(u.InvoiceNumber),
		Supplier:       str(u.Supplier),
		EstimatedCost:  u.EstimatedCost,
		Remarks:        str(u.Remarks),
	}, nil
}

// List searches assets by the query string, e.g. ?category=Laptop&status=Stock.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	assets, err := h.assets.Search(r.Context(), u, queryFilters(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": assets, "total": len(assets)})
}

func (h *AssetHandler) Active(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	assets, err := h.assets.Active(r.Context(), u)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": assets, "total": len(assets)})
}

func (h *AssetHandler) Stock(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	assets, err := h.assets.Stock(r.Context(), u)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": assets, "total": len(assets)})
}

func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var in assetInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, err)
		return
	}
	a, err := in.asset()
	if err != nil {
		httpx.Error(w, err)
		return
	}
	id, err := h.assets.Add(r.Context(), u, a)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *AssetHandler) View(w http.ResponseWriter, r *http.Request) {
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
	a, err := h.assets.Get(r.Context(), u, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *AssetHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var in assetInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, err)
		return
	}
	upd, err := in.update()
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.assets.Update(r.Context(), u, id, upd); err != nil {
		httpx.Error(w, err)
		return
	}
	a, err := h.assets.Get(r.Context(), u, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.assets.Delete(r.Context(), u, id); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activateRequest struct {
	Username    string `json:"username"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	EmployeeID  string `json:"employee_id"`
	IssueDate   string `json:"issue_date"`
}

// Activate issues a stocked asset to an employee.
func (h *AssetHandler) Activate(w http.ResponseWriter, r *http.Request) {
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
	var req activateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	v := validation.Violations{}
	to := services.Assignment{
		Username:    req.Username,
		Department:  req.Department,
		Designation: req.Designation,
		EmployeeID:  req.EmployeeID,
		IssueDate:   parseDate("issue_date", &req.IssueDate, v),
	}
	if err := v.Err(); err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.assets.MoveToActive(r.Context(), u, id, to); err != nil {
		httpx.Error(w, err)
		return
	}
	h.respondAsset(w, r, u, id)
}

type stockRequest struct {
	Reason string `json:"reason"`
}

// ReturnToStock takes an issued asset back. The body is optional.
func (h *AssetHandler) ReturnToStock(w http.ResponseWriter, r *http.Request) {
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
	var req stockRequest
	if r.ContentLength != 0 {
		if err := httpx.Decode(r, &req); err != nil {
			httpx.Error(w, err)
			return
		}
	}
	if err := h.assets.MoveToStock(r.Context(), u, id, req.Reason); err != nil {
		httpx.Error(w, err)
		return
	}
	h.respondAsset(w, r, u, id)
}

func (h *AssetHandler) respondAsset(w http.ResponseWriter, r *http.Request, u *models.User, id uint) {
	a, err := h.assets.Get(r.Context(), u, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *AssetHandler) History(w http.ResponseWriter, r *http.Request) {
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
	entries, err := h.assets.History(r.Context(), u, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": entries})
}

// Export downloads the assets matching the query string as a workbook.
func (h *AssetHandler) Export(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.assets.ExportAssets(r.Context(), u, &buf, queryFilters(r)); err != nil {
		httpx.Error(w, err)
		return
	}
	name := fmt.Sprintf("asset_export_%s.xlsx", time.Now().Format("20060102_150405"))
	writeAttachment(w, name, buf.Bytes())
}

func (h *AssetHandler) Template(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.assets.ImportTemplate(r.Context(), u, &buf); err != nil {
		httpx.Error(w, err)
		return
	}
	writeAttachment(w, "asset_import_template.xlsx", buf.Bytes())
}

// Import reads a workbook from the multipart field "file" or, for any
// other content type, from the raw body.
func (h *AssetHandler) Import(w http.ResponseWriter, r *http.Request) {
	u, err := actor(r, h.users)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.Error(w, fmt.Errorf("%w: missing file field", apperr.ErrValidation))
			return
		}
		defer file.Close()
		src = file
	}
	res, err := h.assets.ImportAssets(r.Context(), u, src)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func writeAttachment(w http.ResponseWriter, name string, body []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
