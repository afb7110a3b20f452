package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/go-assets/auth"
	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/validation"
)

type stubUsers map[uint]*models.User

func (s stubUsers) Current(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperr.ErrNotFound
}

func TestPathID(t *testing.T) {
	for raw, ok := range map[string]bool{"7": true, "0": false, "-1": false, "x": false} {
		req := httptest.NewRequest(http.MethodGet, "/assets/"+raw, nil)
		req.SetPathValue("id", raw)
		id, err := pathID(req)
		if ok && (err != nil || id != 7) {
			t.Fatalf("%q: got %d, %v", raw, id, err)
		}
		if !ok && !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("%q: expected validation error got %v", raw, err)
		}
	}
}

func TestQueryFiltersSkipsReserved(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reports/asset_list?format=csv&category=Laptop&status=", nil)
	f := queryFilters(req, "format")
	if len(f) != 2 || f["category"] != "Laptop" {
		t.Fatalf("unexpected filters %v", f)
	}
	if _, ok := f["format"]; ok {
		t.Fatalf("reserved key kept: %v", f)
	}
}

func TestActor(t *testing.T) {
	users := stubUsers{1: {ID: 1, Username: "admin"}}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if _, err := actor(req, users); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("anonymous: expected invalid credentials got %v", err)
	}

	req = req.WithContext(auth.WithUserID(req.Context(), 2))
	if _, err := actor(req, users); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("deleted user: expected invalid credentials got %v", err)
	}

	req = req.WithContext(auth.WithUserID(req.Context(), 1))
	u, err := actor(req, users)
	if err != nil || u.Username != "admin" {
		t.Fatalf("got %v, %v", u, err)
	}
}

func TestAssetInputDates(t *testing.T) {
	bad, good := "2024/01/01", "2024-01-31"
	in := assetInput{PurchaseDate: &bad, IssueDate: &good}
	_, err := in.update()
	fields := validation.FieldsOf(err)
	if fields["purchase_date"] != "invalid_date" {
		t.Fatalf("expected invalid purchase_date, got %v", err)
	}
	if _, ok := fields["issue_date"]; ok {
		t.Fatalf("issue_date should parse: %v", fields)
	}

	serial, category := "SN-1", "Laptop"
	in = assetInput{SerialNumber: &serial, Category: &category, IssueDate: &good}
	a, err := in.asset()
	if err != nil {
		t.Fatalf("asset: %v", err)
	}
	if a.SerialNumber != "SN-1" || a.IssueDate == nil || a.Company != "" {
		t.Fatalf("unexpected asset %+v", a)
	}
}

func TestAssetInputClearsDates(t *testing.T) {
	empty := ""
	u, err := assetInput{IssueDate: &empty}.update()
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !u.ClearIssueDate || u.IssueDate != nil {
		t.Fatalf("empty issue_date should clear it: %+v", u)
	}
	if u.ClearPurchaseDate {
		t.Fatal("omitted purchase_date must stay unchanged")
	}
}
