package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestPublishCountsChanges(t *testing.T) {
	m := New()
	m.Publish(model.Change{Entity: model.EntityClientBill, Action: model.ActionCreate, ID: uuid.New()})
	m.Publish(model.Change{Entity: model.EntityClientBill, Action: model.ActionCreate, ID: uuid.New()})
	m.Publish(model.Change{Entity: model.EntitySiteExpense, Action: model.ActionDelete, ID: uuid.New()})

	body := scrape(t, m)
	assert.Contains(t, body, `sitebooks_ledger_changes_total{action="CREATE",entity="client_bill"} 2`)
	assert.Contains(t, body, `sitebooks_ledger_changes_total{action="DELETE",entity="site_expense"} 1`)
}

func TestHandlerExposesHTTPMetrics(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodGet, "/api/jobs", http.StatusOK, 20*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `sitebooks_http_requests_total{method="GET",path="/api/jobs",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
