package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/vendorpool-backend/api/middleware"
	"github.com/angelmondragon/vendorpool-backend/internal/commitments"
	"github.com/angelmondragon/vendorpool-backend/internal/deals"
	"github.com/angelmondragon/vendorpool-backend/internal/warehouses"
	pkgAuth "github.com/angelmondragon/vendorpool-backend/pkg/auth"
	"github.com/angelmondragon/vendorpool-backend/pkg/config"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/pagination"
	"github.com/angelmondragon/vendorpool-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubRoles map[uuid.UUID]enums.UserRole

func (s stubRoles) RoleFor(_ context.Context, userID uuid.UUID) (enums.UserRole, error) {
	role, ok := s[userID]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return role, nil
}

type stubDealService struct {
	deals.Service
}

func (stubDealService) List(context.Context, deals.Actor, deals.ListParams) (pagination.Page[deals.DealDTO], error) {
	return pagination.Page[deals.DealDTO]{}, nil
}

func (stubDealService) Create(_ context.Context, _ deals.Actor, in deals.CreateDealInput) (*deals.DealDTO, error) {
	return &deals.DealDTO{Title: in.Title}, nil
}

type stubCommitmentService struct {
	commitments.Service
}

func (stubCommitmentService) List(context.Context, commitments.Actor, commitments.ListParams) (pagination.Page[commitments.CommitmentDTO], error) {
	return pagination.Page[commitments.CommitmentDTO]{}, nil
}

func (stubCommitmentService) MarkInvoicePaid(_ context.Context, _ commitments.Actor, id uuid.UUID, _ commitments.MarkPaidInput) (*commitments.InvoiceDTO, error) {
	return &commitments.InvoiceDTO{ID: id, Status: enums.InvoiceStatusPaid}, nil
}

func (stubCommitmentService) Get(_ context.Context, _ commitments.Actor, id uuid.UUID) (*commitments.CommitmentDTO, error) {
	return &commitments.CommitmentDTO{ID: id}, nil
}

func (stubCommitmentService) Cancel(_ context.Context, _ commitments.Actor, id uuid.UUID) (*commitments.CommitmentDTO, error) {
	return &commitments.CommitmentDTO{ID: id, Status: enums.CommitmentStatusCancelled}, nil
}

func (stubCommitmentService) ReviewLabel(_ context.Context, _ commitments.Actor, id uuid.UUID, _ commitments.ReviewLabelInput) (*commitments.CommitmentDTO, error) {
	return &commitments.CommitmentDTO{ID: id}, nil
}

type stubWarehouseService struct{}

func (stubWarehouseService) List(context.Context) ([]warehouses.WarehouseDTO, error) {
	return []warehouses.WarehouseDTO{{Code: "NJ1"}}, nil
}

func (stubWarehouseService) ResolveForDelivery(context.Context, string, enums.DeliveryMethod) (*models.Warehouse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "not used")
}

type routerFixture struct {
	router http.Handler
	cfg    *config.Config
	roles  stubRoles
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:   "secret",
			Issuer:   "issuer",
			Audience: "authenticated",
		},
		RateLimit: config.RateLimitConfig{Window: time.Minute, CommitmentsPerIP: 100, CommitmentsPerUser: 100},
	}
}

func newFixture() *routerFixture {
	cfg := testConfig()
	roles := stubRoles{}
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	router := NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		roles,
		stubDealService{},
		stubCommitmentService{},
		stubWarehouseService{},
	)
	return &routerFixture{router: router, cfg: cfg, roles: roles}
}

func (f *routerFixture) token(t *testing.T, role enums.UserRole) string {
	t.Helper()
	userID := uuid.New()
	f.roles[userID] = role
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), time.Hour, userID, "caller@example.com")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (f *routerFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutesArePublic(t *testing.T) {
	f := newFixture()
	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		if resp := f.do(http.MethodGet, path, "", ""); resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	f := newFixture()
	if resp := f.do(http.MethodGet, "/api/v1/deals", "", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAPIRejectsUnprovisionedProfile(t *testing.T) {
	f := newFixture()
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), time.Hour, uuid.New(), "ghost@example.com")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if resp := f.do(http.MethodGet, "/api/v1/deals", "", token); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown profile got %d", resp.Code)
	}
}

func TestVendorRoutesSucceedWithJWT(t *testing.T) {
	f := newFixture()
	token := f.token(t, enums.UserRoleSeller)
	for _, path := range []string{"/api/v1/ping", "/api/v1/deals", "/api/v1/commitments", "/api/v1/warehouses"} {
		if resp := f.do(http.MethodGet, path, "", token); resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestStaffRoutesRejectSellers(t *testing.T) {
	f := newFixture()
	seller := f.token(t, enums.UserRoleSeller)
	worker := f.token(t, enums.UserRoleWorker)

	if resp := f.do(http.MethodGet, "/api/v1/admin/commitments", "", seller); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller got %d", resp.Code)
	}
	if resp := f.do(http.MethodGet, "/api/v1/admin/commitments", "", worker); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for worker got %d", resp.Code)
	}
}

func TestAdminOnlyRoutesRejectWorkers(t *testing.T) {
	f := newFixture()
	worker := f.token(t, enums.UserRoleWorker)
	admin := f.token(t, enums.UserRoleAdmin)
	dealBody := `{"title":"Switch OLED","retailPrice":"349.99","payout":"330"}`
	invoicePath := "/api/v1/admin/invoices/" + uuid.NewString() + "/paid"

	if resp := f.do(http.MethodPost, "/api/v1/admin/deals", dealBody, worker); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for worker deal create got %d", resp.Code)
	}
	if resp := f.do(http.MethodPatch, invoicePath, `{"checkNumber":"1"}`, worker); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for worker invoice payment got %d", resp.Code)
	}

	if resp := f.do(http.MethodPost, "/api/v1/admin/deals", dealBody, admin); resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin deal create got %d", resp.Code)
	}
	if resp := f.do(http.MethodPatch, invoicePath, `{"checkNumber":"1"}`, admin); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin invoice payment got %d", resp.Code)
	}
}

func TestPublicPing(t *testing.T) {
	f := newFixture()
	if resp := f.do(http.MethodGet, "/api/public/ping", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestLabelReviewLivesUnderCommitment(t *testing.T) {
	f := newFixture()
	worker := f.token(t, enums.UserRoleWorker)
	seller := f.token(t, enums.UserRoleSeller)
	id := uuid.NewString()
	body := `{"status":"APPROVED","labelUrl":"https://labels.example.com/1.pdf"}`

	if resp := f.do(http.MethodPatch, "/api/v1/admin/commitments/"+id+"/label-request", body, worker); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for worker label review got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := f.do(http.MethodPatch, "/api/v1/admin/commitments/"+id+"/label-request", body, seller); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller label review got %d", resp.Code)
	}
	if resp := f.do(http.MethodPatch, "/api/v1/admin/label-requests/"+id, body, worker); resp.Code != http.StatusNotFound {
		t.Fatalf("expected old label path to be gone, got %d", resp.Code)
	}
}

func TestCommitmentWriteLimitSkipsReads(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	limited := 0
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUserID(req.Context(), uuid.NewString())
			ctx = middleware.WithRole(ctx, enums.UserRoleSeller)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/commitments", func(r chi.Router) {
		mountVendorCommitments(r, stubCommitmentService{}, logg, deny)
	})

	id := uuid.NewString()
	for _, path := range []string{"/commitments", "/commitments/" + id} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for GET %s got %d", path, resp.Code)
		}
	}
	if limited != 0 {
		t.Fatalf("reads must not hit the limiter, got %d", limited)
	}

	writes := []struct{ method, path string }{
		{http.MethodPost, "/commitments"},
		{http.MethodPost, "/commitments/" + id + "/cancel"},
		{http.MethodPatch, "/commitments/" + id + "/quantity"},
	}
	for _, w := range writes {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(w.method, w.path, strings.NewReader(`{}`)))
		if resp.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 for %s %s got %d", w.method, w.path, resp.Code)
		}
	}
	if limited != len(writes) {
		t.Fatalf("expected %d limited writes, got %d", len(writes), limited)
	}
}
