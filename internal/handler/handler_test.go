package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sitebooks/internal/apperror"
	"sitebooks/internal/middleware"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"
	"sitebooks/internal/service"
	"sitebooks/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noteRequest struct {
	Name string `json:"name"`
}

type noteResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// fakeNotes records the last filter and answers from a map.
type fakeNotes struct {
	items      map[string]noteResponse
	lastFilter repository.Filter
	deleted    []string
}

func (f *fakeNotes) List(_ context.Context, filter repository.Filter) ([]noteResponse, int64, error) {
	f.lastFilter = filter
	out := make([]noteResponse, 0, len(f.items))
	for _, n := range f.items {
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotes) Get(_ context.Context, id string) (noteResponse, error) {
	n, ok := f.items[id]
	if !ok {
		return noteResponse{}, apperror.NotFound("note", id)
	}
	return n, nil
}

func (f *fakeNotes) Create(_ context.Context, req noteRequest) (noteResponse, error) {
	if req.Name == "" {
		return noteResponse{}, apperror.Validation("name is required")
	}
	n := noteResponse{ID: uuid.NewString(), Name: req.Name}
	f.items[n.ID] = n
	return n, nil
}

func (f *fakeNotes) Update(ctx context.Context, id string, req noteRequest) (noteResponse, error) {
	n, err := f.Get(ctx, id)
	if err != nil {
		return n, err
	}
	n.Name = req.Name
	f.items[id] = n
	return n, nil
}

func (f *fakeNotes) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return apperror.NotFound("note", id)
	}
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return nil
}

var testTokens = service.NewTokenManager("handler-test", time.Minute, time.Hour)

// newTestRouter mounts the protected /api group the way the server does.
func newTestRouter(register func(api *gin.RouterGroup)) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.Use(middleware.ErrorHandler(logger, false))
	api := r.Group("/api", middleware.NewAuth(testTokens, false).RequireAuth())
	register(api)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body, role string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, _, err := testTokens.Issue(&model.User{Base: model.Base{ID: uuid.New()}, Username: "tester", Role: role})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func notesRouter(svc *fakeNotes) *gin.Engine {
	return newTestRouter(func(api *gin.RouterGroup) {
		resource[noteRequest, noteRequest, noteResponse]{svc: svc}.register(api.Group("/notes"))
	})
}

func TestResourceList(t *testing.T) {
	svc := &fakeNotes{items: map[string]noteResponse{"1": {ID: "1", Name: "cement"}}}
	r := notesRouter(svc)
	jobID := uuid.New()

	w := do(t, r, http.MethodGet, "/api/notes?job_id="+jobID.String()+"&from=2024-01-01&to=2024-03-31&search=cem&page=2&limit=5", "", model.RoleStaff)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.NotNil(t, body.Meta)
	assert.Equal(t, int64(1), body.Meta.Total)
	assert.Equal(t, 2, body.Meta.Page)

	f := svc.lastFilter
	require.NotNil(t, f.JobID)
	assert.Equal(t, jobID, *f.JobID)
	assert.Nil(t, f.ClientID)
	assert.Equal(t, "cem", f.Search)
	assert.Equal(t, "2024-03-31", f.To.Format("2006-01-02"))
	assert.Equal(t, 5, f.Limit)

	w = do(t, r, http.MethodGet, "/api/notes?limit=all", "", model.RoleStaff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, svc.lastFilter.Limit, "limit=all lists every row")
}

func TestResourceListRejectsBadFilters(t *testing.T) {
	r := notesRouter(&fakeNotes{items: map[string]noteResponse{}})

	for _, query := range []string{"job_id=abc", "from=01/02/2024", "from=2024-03-01&to=2024-02-01"} {
		t.Run(query, func(t *testing.T) {
			w := do(t, r, http.MethodGet, "/api/notes?"+query, "", model.RoleStaff)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, apperror.CodeValidation, decodeBody(t, w).Code)
		})
	}
}

func TestResourceWrites(t *testing.T) {
	svc := &fakeNotes{items: map[string]noteResponse{}}
	r := notesRouter(svc)

	w := do(t, r, http.MethodPost, "/api/notes", `{"name":"sand"}`, model.RoleStaff)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data noteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "sand", created.Data.Name)

	w = do(t, r, http.MethodPost, "/api/notes", `{"name":`, model.RoleStaff)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/notes", `{"name":""}`, model.RoleStaff)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/notes/"+created.Data.ID, `{"name":"river sand"}`, model.RoleStaff)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "river sand", svc.items[created.Data.ID].Name)

	w = do(t, r, http.MethodGet, "/api/notes/missing", "", model.RoleStaff)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResourceDeleteNeedsManager(t *testing.T) {
	svc := &fakeNotes{items: map[string]noteResponse{"1": {ID: "1"}, "2": {ID: "2"}}}
	r := notesRouter(svc)

	w := do(t, r, http.MethodDelete, "/api/notes/1", "", model.RoleStaff)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.deleted)

	w = do(t, r, http.MethodDelete, "/api/notes/1", "", model.RoleManager)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, r, http.MethodDelete, "/api/notes/2", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type fakeStatus struct {
	groupBy string
}

func (f *fakeStatus) ClientStatus(_ context.Context, groupBy string, _ repository.Filter) (service.StatusReport, error) {
	f.groupBy = groupBy
	if groupBy == "contractor" {
		return service.StatusReport{}, apperror.Validation("group_by must be one of bill, job")
	}
	return service.StatusReport{
		Kind:    "client",
		GroupBy: service.GroupByJob,
		Rows: []service.StatusRow{
			{JobNo: "J-1", ClientName: "Acme", BillCount: 2, PaymentCount: 1, BillTotal: "1680.00", AmountPaid: "1060.00", BalanceDue: "620.00"},
		},
		Totals: service.StatusTotals{BillTotal: "1680.00", AmountPaid: "1060.00", BalanceDue: "620.00"},
	}, nil
}

func (f *fakeStatus) ContractorStatus(ctx context.Context, groupBy string, filter repository.Filter) (service.StatusReport, error) {
	return f.ClientStatus(ctx, groupBy, filter)
}

func TestClientStatus(t *testing.T) {
	svc := &fakeStatus{}
	r := newTestRouter(NewStatusHandler(svc).RegisterRoutes)

	w := do(t, r, http.MethodGet, "/api/client-payment-status?group_by=job", "", model.RoleStaff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "job", svc.groupBy)

	var body struct {
		Data service.StatusReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "620.00", body.Data.Totals.BalanceDue)

	w = do(t, r, http.MethodGet, "/api/client-payment-status?group_by=contractor", "", model.RoleStaff)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportStatus(t *testing.T) {
	r := newTestRouter(NewStatusHandler(&fakeStatus{}).RegisterRoutes)

	w := do(t, r, http.MethodGet, "/api/client-payment-status/export?group_by=job&format=csv", "", model.RoleStaff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "client-payment-status-")

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(w.Body.String(), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	last := records[len(records)-1]
	assert.Equal(t, "620.00", last[len(last)-1])

	w = do(t, r, http.MethodGet, "/api/contractor-payment-status/export?format=pdf", "", model.RoleStaff)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
