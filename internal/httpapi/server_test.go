package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/goliatone/go-admingrid/internal/httpapi"
	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
	"github.com/goliatone/go-admingrid/pkg/request"
	"github.com/goliatone/go-admingrid/pkg/testsupport"
	"github.com/goliatone/go-admingrid/pkg/widget"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func patients(t *testing.T) *widget.Widget {
	t.Helper()
	b := widget.New("patients", testsupport.PatientSource(), widget.WithDefaults(request.Defaults{
		Limit:      10,
		OrderField: "name",
		Now:        testsupport.Clock(),
	}))
	require.NoError(t, b.Field("name").Sortable().Done())
	require.NoError(t, b.Field("status").Done())
	b.Filter(query.Filter{Name: "status", Field: "status"})
	b.DefaultActions("/patients/{{ id }}")
	w, err := b.Build()
	require.NoError(t, err)
	return w
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	srv, err := httpapi.New([]*widget.Widget{patients(t)}, httpapi.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestServeGet(t *testing.T) {
	h := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/widgets/patients?patients_filter=status:archived", nil)
	rec, body := do(t, h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	rows, ok := body["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alan Turing", rows[0].(map[string]any)["name"])
	assert.NotEmpty(t, rec.Header().Get(httpapi.RequestIDHeader))
}

func TestServePostRunsBulkAction(t *testing.T) {
	h := newHandler(t)
	form := url.Values{
		"patients_bulk": {"delete"},
		"patients_ids":  {"1", "2"},
	}
	rec, body := do(t, h, postForm("/widgets/patients", form))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcome, ok := body["outcome"].(map[string]any)
	require.True(t, ok, "missing outcome: %v", body)
	assert.Equal(t, "delete", outcome["action"])
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 3, pagination["total"])
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestServeErrors(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"unknown widget", httptest.NewRequest(http.MethodGet, "/widgets/nope", nil), http.StatusNotFound, "UNKNOWN_WIDGET"},
		{"unknown action", postForm("/widgets/patients", url.Values{
			"patients_action": {"launch"},
			"patients_ids":    {"1"},
		}), http.StatusBadRequest, "UNKNOWN_ACTION"},
	}
	for _, tt := range tests {
		rec, body := do(t, h, tt.req)
		assert.Equal(t, tt.status, rec.Code, tt.name)
		assert.Equal(t, tt.code, body["code"], tt.name)
		assert.Equal(t, rec.Header().Get(httpapi.RequestIDHeader), body["requestId"], tt.name)
	}
}

func TestServeGetRefusesActions(t *testing.T) {
	h := newHandler(t)

	for _, target := range []string{
		"/widgets/patients?patients_bulk=delete&patients_ids=1,2",
		"/widgets/patients?patients_action=edit&patients_ids=1",
	} {
		rec, body := do(t, h, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, target)
		assert.Equal(t, "ACTION_REQUIRES_POST", body["code"], target)
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"), target)
	}

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/widgets/patients", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 5, pagination["total"], "no record may be deleted by a GET")
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newHandler(t)
	const id = "7b1f4a2e-9f61-4c0a-a3a4-7f0c8c2f5e11"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(httpapi.RequestIDHeader, id)
	rec, body := do(t, h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, id, rec.Header().Get(httpapi.RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(httpapi.RequestIDHeader, "not-a-uuid")
	rec, _ = do(t, h, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(httpapi.RequestIDHeader))
}

func TestListWidgets(t *testing.T) {
	h := newHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []httpapi.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "patients", list[0].ID)
	assert.Equal(t, widget.KindTable, list[0].Kind)
	keys := make([]string, len(list[0].Fields))
	for i, f := range list[0].Fields {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"name", "status"}, keys)
	assert.Equal(t, model.FieldTypeText, list[0].Fields[0].Type)
}

func TestDuplicateWidgets(t *testing.T) {
	w := patients(t)
	_, err := httpapi.New([]*widget.Widget{w, w})
	require.Error(t, err)
}
