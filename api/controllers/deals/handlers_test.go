package deals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vendorpool-backend/api/middleware"
	internaldeals "github.com/angelmondragon/vendorpool-backend/internal/deals"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/pagination"
)

type stubService struct {
	create func(internaldeals.Actor, internaldeals.CreateDealInput) (*internaldeals.DealDTO, error)
	update func(internaldeals.Actor, uuid.UUID, internaldeals.UpdateDealInput) (*internaldeals.DealDTO, error)
	get    func(internaldeals.Actor, uuid.UUID) (*internaldeals.DealDTO, error)
	list   func(internaldeals.Actor, internaldeals.ListParams) (pagination.Page[internaldeals.DealDTO], error)
	delete func(internaldeals.Actor, uuid.UUID) error
}

func (s *stubService) Create(_ context.Context, a internaldeals.Actor, in internaldeals.CreateDealInput) (*internaldeals.DealDTO, error) {
	return s.create(a, in)
}

func (s *stubService) Update(_ context.Context, a internaldeals.Actor, id uuid.UUID, in internaldeals.UpdateDealInput) (*internaldeals.DealDTO, error) {
	return s.update(a, id, in)
}

func (s *stubService) Get(_ context.Context, a internaldeals.Actor, id uuid.UUID) (*internaldeals.DealDTO, error) {
	return s.get(a, id)
}

func (s *stubService) List(_ context.Context, a internaldeals.Actor, p internaldeals.ListParams) (pagination.Page[internaldeals.DealDTO], error) {
	return s.list(a, p)
}

func (s *stubService) Delete(_ context.Context, a internaldeals.Actor, id uuid.UUID) error {
	return s.delete(a, id)
}

func (s *stubService) ExpireOverdue(context.Context, time.Time) (int, error) {
	panic("not used by controllers")
}

func withCaller(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, map[string]any) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code, body.Error.Details
}

func TestListParsesFilters(t *testing.T) {
	userID := uuid.New()
	var got internaldeals.ListParams
	svc := &stubService{list: func(a internaldeals.Actor, p internaldeals.ListParams) (pagination.Page[internaldeals.DealDTO], error) {
		require.Equal(t, userID, a.UserID)
		require.Equal(t, enums.UserRoleSeller, a.Role)
		got = p
		return pagination.Page[internaldeals.DealDTO]{Items: []internaldeals.DealDTO{{Title: "Switch OLED"}}}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/deals?status=expired&includeExpired=true&limit=10&cursor=abc", nil)
	rec := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(rec, withCaller(req, userID, enums.UserRoleSeller))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Status)
	require.Equal(t, enums.DealStatusExpired, *got.Status)
	require.True(t, got.IncludeExpired)
	require.Equal(t, 10, got.Limit)
	require.Equal(t, "abc", got.Cursor)
	require.Contains(t, rec.Body.String(), "Switch OLED")
}

func TestListRejectsBadQuery(t *testing.T) {
	svc := &stubService{}
	for _, query := range []string{"?status=LIVE", "?limit=500", "?includeExpired=maybe"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/deals"+query, nil)
		rec := httptest.NewRecorder()
		List(svc, nil).ServeHTTP(rec, withCaller(req, uuid.New(), enums.UserRoleSeller))
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestListRequiresCaller(t *testing.T) {
	rec := httptest.NewRecorder()
	List(&stubService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetMapsNotFound(t *testing.T) {
	svc := &stubService{get: func(internaldeals.Actor, uuid.UUID) (*internaldeals.DealDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/deals/x", nil)
	req = withParam(withCaller(req, uuid.New(), enums.UserRoleSeller), "dealId", uuid.NewString())
	rec := httptest.NewRecorder()
	Get(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	code, _ := decodeError(t, rec)
	require.Equal(t, string(pkgerrors.CodeNotFound), code)
}

func TestGetRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/deals/x", nil)
	req = withParam(withCaller(req, uuid.New(), enums.UserRoleSeller), "dealId", "not-a-uuid")
	rec := httptest.NewRecorder()
	Get(&stubService{}, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminCreate(t *testing.T) {
	adminID := uuid.New()
	var got internaldeals.CreateDealInput
	svc := &stubService{create: func(a internaldeals.Actor, in internaldeals.CreateDealInput) (*internaldeals.DealDTO, error) {
		require.Equal(t, enums.UserRoleAdmin, a.Role)
		got = in
		return &internaldeals.DealDTO{Title: in.Title, Status: in.Status}, nil
	}}

	body := `{"title":"  iPad Air 11 ","retailPrice":"599.00","payout":560,"limitPerVendor":5,"status":"active"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/deals", strings.NewReader(body))
	rec := httptest.NewRecorder()
	AdminCreate(svc, nil).ServeHTTP(rec, withCaller(req, adminID, enums.UserRoleAdmin))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "iPad Air 11", got.Title)
	require.True(t, decimal.RequireFromString("599").Equal(got.RetailPrice))
	require.True(t, decimal.NewFromInt(560).Equal(got.Payout))
	require.Equal(t, 5, *got.LimitPerVendor)
	require.Equal(t, enums.DealStatusActive, got.Status)
}

func TestAdminCreateValidation(t *testing.T) {
	cases := map[string]string{
		"missing title":  `{"retailPrice":"1","payout":"1"}`,
		"unknown field":  `{"title":"x","retailPrice":"1","payout":"1","bogus":true}`,
		"bad status":     `{"title":"x","retailPrice":"1","payout":"1","status":"LIVE"}`,
		"negative limit": `{"title":"x","retailPrice":"1","payout":"1","limitPerVendor":-1}`,
	}
	for name, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/deals", strings.NewReader(body))
		rec := httptest.NewRecorder()
		AdminCreate(&stubService{}, nil).ServeHTTP(rec, withCaller(req, uuid.New(), enums.UserRoleAdmin))
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestAdminUpdateDistinguishesNullFromAbsent(t *testing.T) {
	dealID := uuid.New()
	var got internaldeals.UpdateDealInput
	svc := &stubService{update: func(_ internaldeals.Actor, id uuid.UUID, in internaldeals.UpdateDealInput) (*internaldeals.DealDTO, error) {
		require.Equal(t, dealID, id)
		got = in
		return &internaldeals.DealDTO{ID: id}, nil
	}}

	body := `{"limitPerVendor":null,"freeLabelMin":3,"status":"PAUSED"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/deals/x", strings.NewReader(body))
	req = withParam(withCaller(req, uuid.New(), enums.UserRoleAdmin), "dealId", dealID.String())
	rec := httptest.NewRecorder()
	AdminUpdate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, got.LimitPerVendor.Valid)
	require.Nil(t, got.LimitPerVendor.Value)
	require.Equal(t, 3, *got.FreeLabelMin.Value)
	require.False(t, got.Description.Valid)
	require.Equal(t, enums.DealStatusPaused, *got.Status)
}

func TestAdminDeleteSurfacesConflict(t *testing.T) {
	svc := &stubService{delete: func(internaldeals.Actor, uuid.UUID) error {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "deal has commitments").
			WithDetails(map[string]any{"blockingCommitments": 2})
	}}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/deals/x", nil)
	req = withParam(withCaller(req, uuid.New(), enums.UserRoleAdmin), "dealId", uuid.NewString())
	rec := httptest.NewRecorder()
	AdminDelete(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	code, details := decodeError(t, rec)
	require.Equal(t, string(pkgerrors.CodeStateConflict), code)
	require.EqualValues(t, 2, details["blockingCommitments"])
}

func TestAdminDeleteNoContent(t *testing.T) {
	svc := &stubService{delete: func(internaldeals.Actor, uuid.UUID) error { return nil }}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/deals/x", nil)
	req = withParam(withCaller(req, uuid.New(), enums.UserRoleAdmin), "dealId", uuid.NewString())
	rec := httptest.NewRecorder()
	AdminDelete(svc, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
