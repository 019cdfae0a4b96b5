package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lexcodex/nlcommand/command"
	"github.com/lexcodex/nlcommand/framework"
	"github.com/lexcodex/nlcommand/persistence"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func staticInvoker(reply string, err error) command.Invoker {
	return command.InvokerFunc(func(ctx context.Context, systemPrompt, userText string) (string, error) {
		return reply, err
	})
}

type envelope struct {
	RequestID string          `json:"request_id"`
	Domain    string          `json:"domain"`
	Command   json.RawMessage `json:"command"`
	Error     *APIError       `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp envelope
	if strings.HasPrefix(path, "/api/commands/") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func TestInterpretEndpoint(t *testing.T) {
	api := &APIServer{Invoker: staticInvoker(`{"action":"change","target":"sq1,sq2","property":"fontSize","value":"14"}`, nil)}
	body, _ := json.Marshal(InterpretRequest{Input: "size 14 for sq1 and sq2", Context: command.DomainContext{"elements": []string{"sq1", "sq2"}}})

	rec, resp := do(t, api.Handler(), http.MethodPost, "/api/commands/diagram", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "diagram", resp.Domain)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `{"action":"change","target":["sq1","sq2"],"property":"fontSize","value":14}`, string(resp.Command))
}

func TestInterpretEndpointErrors(t *testing.T) {
	cases := []struct {
		name    string
		invoker command.Invoker
		path    string
		body    string
		status  int
		kind    string
		raw     string
	}{
		{"unknown domain", staticInvoker("", nil), "/api/commands/slides", `{"input":"x"}`, http.StatusNotFound, KindUnknownDomain, ""},
		{"bad body", staticInvoker("", nil), "/api/commands/table", `{"input":`, http.StatusBadRequest, KindBadRequest, ""},
		{"empty input", staticInvoker("", nil), "/api/commands/table", `{"input":"  "}`, http.StatusBadRequest, KindBadRequest, ""},
		{"decode", staticInvoker("I cannot help", nil), "/api/commands/table", `{"input":"x"}`, http.StatusBadGateway, "decode_error", "I cannot help"},
		{"invalid action", staticInvoker(`{"action":"explode"}`, nil), "/api/commands/chart", `{"input":"x"}`, http.StatusUnprocessableEntity, "invalid_action", ""},
		{"missing field", staticInvoker(`{"action":"query"}`, nil), "/api/commands/database", `{"input":"x"}`, http.StatusUnprocessableEntity, "missing_field", ""},
		{"model down", staticInvoker("", assert.AnError), "/api/commands/diagram", `{"input":"x"}`, http.StatusBadGateway, "model_error", ""},
		{"model timeout", staticInvoker("", context.DeadlineExceeded), "/api/commands/diagram", `{"input":"x"}`, http.StatusGatewayTimeout, KindTimeout, ""},
		{"no model", nil, "/api/commands/diagram", `{"input":"x"}`, http.StatusServiceUnavailable, KindUnavailable, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &APIServer{Invoker: tc.invoker}
			rec, resp := do(t, api.Handler(), http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.kind, resp.Error.Kind)
			assert.Equal(t, tc.raw, resp.Error.Raw)
			assert.Nil(t, resp.Command)
		})
	}
}

func TestInterpretHonorsRequestTimeout(t *testing.T) {
	api := &APIServer{
		RequestTimeout: 20 * time.Millisecond,
		Invoker: command.InvokerFunc(func(ctx context.Context, _, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}),
	}
	rec, resp := do(t, api.Handler(), http.MethodPost, "/api/commands/table", `{"input":"slow"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, KindTimeout, resp.Error.Kind)
}

func TestCheckEndpoint(t *testing.T) {
	api := &APIServer{}
	h := api.Handler()

	rec, resp := do(t, h, http.MethodPost, "/api/commands/database/check", `{"action":"query","sql":"SELECT * FROM t"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"action":"query","sql":"SELECT * FROM t LIMIT 100"}`, string(resp.Command))

	rec, resp = do(t, h, http.MethodPost, "/api/commands/table/check", "not json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "decode_error", resp.Error.Kind)
	assert.Equal(t, "not json", resp.Error.Raw)

	rec, resp = do(t, h, http.MethodPost, "/api/commands/diagram/check", `{"action":"change","target":"a","property":"width","value":"big"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_numeric_value", resp.Error.Kind)
}

func TestDomainEndpoints(t *testing.T) {
	h := (&APIServer{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/domains", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []DomainInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 4)
	assert.Equal(t, "chart", all[0].Domain)

	req = httptest.NewRequest(http.MethodGet, "/api/domains/TABLE", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var table DomainInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Equal(t, []string{"fontSize"}, table.NumericProperties)
	assert.Equal(t, "number", table.Fields["operand"])
	require.Len(t, table.Actions, 12)
	assert.Equal(t, ActionInfo{Name: "select", Required: []string{"target"}, Examples: []string{`{"action":"select","target":"col-1"}`}}, table.Actions[1])

	req = httptest.NewRequest(http.MethodGet, "/api/domains/slides", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	store, err := persistence.NewSQLiteHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	api := &APIServer{
		Invoker:   staticInvoker(`{"action":"reset"}`, nil),
		Telemetry: persistence.NewHistorySink(store, nil),
		History:   store,
	}
	h := api.Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/commands/chart", bytes.NewBufferString(`{"input":"clear it"}`))
	req.Header.Set(RequestIDHeader, "client-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/history?domain=chart&limit=5", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []persistence.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "client-id", entries[0].RequestID)
	assert.Equal(t, "reset", entries[0].Action)

	req = httptest.NewRequest(http.MethodGet, "/api/history?limit=zero", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	(&APIServer{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeContextShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	api := &APIServer{ShutdownTimeout: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.ServeContext(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	http.DefaultClient.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

var _ framework.Telemetry = (*persistence.HistorySink)(nil)
