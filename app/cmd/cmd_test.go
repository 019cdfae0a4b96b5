package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/nlcommand/persistence"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// fakeOllama answers /api/chat with the queued replies in order.
func fakeOllama(t *testing.T, replies ...string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assert.Equal(t, "json", body["format"])
		mu.Lock()
		reply := replies[0]
		if len(replies) > 1 {
			replies = replies[1:]
		}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message":     map[string]string{"role": "assistant", "content": reply},
			"done":        true,
			"done_reason": "stop",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T, endpoint string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "nlcommand.yaml")
	content := fmt.Sprintf(`model:
  provider: ollama
  endpoint: %s
logging:
  level: error
history:
  enabled: true
  path: %s
`, endpoint, filepath.ToSlash(filepath.Join(dir, "history.db")))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheckCommand(t *testing.T) {
	cfg := writeTestConfig(t, "http://127.0.0.1:1")

	out, err := runCLI(t, `{"action":"query","sql":"SELECT * FROM orders;"}`, "--config", cfg, "check", "database")
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"query","sql":"SELECT * FROM orders LIMIT 100"}`, strings.TrimSpace(out))

	file := filepath.Join(t.TempDir(), "cmd.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"action":"change","target":"a,b","property":"width","value":"300"}`), 0o644))
	out, err = runCLI(t, "", "--config", cfg, "check", "diagram", file)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"change","target":["a","b"],"property":"width","value":300}`, strings.TrimSpace(out))

	_, err = runCLI(t, `{"action":"explode"}`, "--config", cfg, "check", "chart")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid_action: "), err.Error())

	_, err = runCLI(t, "{}", "--config", cfg, "check", "slides")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown domain")
}

func TestDomainsCommand(t *testing.T) {
	cfg := writeTestConfig(t, "http://127.0.0.1:1")

	out, err := runCLI(t, "", "--config", cfg, "domains")
	require.NoError(t, err)
	for _, name := range []string{"chart", "database", "diagram", "table"} {
		assert.Contains(t, out, name+" · ")
	}

	out, err = runCLI(t, "", "--config", cfg, "domains", "table")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "table", info["domain"])

	ctxFile := filepath.Join(t.TempDir(), "ctx.yaml")
	require.NoError(t, os.WriteFile(ctxFile, []byte("elements: [sq1, sq2]\n"), 0o644))
	out, err = runCLI(t, "", "--config", cfg, "domains", "diagram", "--prompt", "--context", ctxFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Respond with a single JSON object")
	assert.Contains(t, out, `"sq1"`)
}

func TestInterpretRecordsHistory(t *testing.T) {
	srv := fakeOllama(t,
		`{"action":"change","target":"sq1,sq2","property":"fontSize","value":"14"}`,
		"Sorry, I can't do that.",
	)
	cfg := writeTestConfig(t, srv.URL)

	out, err := runCLI(t, "", "--config", cfg, "interpret", "diagram", "make", "sq1", "and", "sq2", "size", "14")
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"change","target":["sq1","sq2"],"property":"fontSize","value":14}`, strings.TrimSpace(out))

	_, err = runCLI(t, "", "--config", cfg, "interpret", "diagram", "do", "something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode_error")
	assert.Contains(t, err.Error(), "raw output: Sorry, I can't do that.")

	out, err = runCLI(t, "", "--config", cfg, "history", "--json", "--domain", "diagram")
	require.NoError(t, err)
	var entries []persistence.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "decode_error", entries[0].ErrorKind)
	assert.Equal(t, "change", entries[1].Action)
	assert.Equal(t, "make sq1 and sq2 size 14", entries[1].Input)

	out, err = runCLI(t, "", "--config", cfg, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "DOMAIN")
	assert.Contains(t, out, "decode_error")
}
