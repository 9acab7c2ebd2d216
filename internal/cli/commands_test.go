package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/tickerview/internal/models"
)

const successBody = `{
	"summary_text": "Revenue grew 12%",
	"key_metrics": {"price": 2450.5, "change": "+1.2%", "pe_ratio": 24.1, "rsi": 75, "volume": "1.2M"},
	"performance_data": [{"stock": "RELIANCE.NS", "price": 2450.5, "change": "+1.2%", "color": "green"}],
	"redirect_links": [{"name": "NSE", "url": "https://www.nseindia.com"}],
	"news": "Q2 beats estimates • New refinery online"
}`

func newWebhook(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, webhookURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TICKERVIEW_WEBHOOK_URL", webhookURL)
	return executeWithConfig(t, filepath.Join(t.TempDir(), "config.json"), args...)
}

func executeWithConfig(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TICKERVIEW_LOG_LEVEL", "error")

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeText(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, successBody)

	out, err := execute(t, hook.URL, "analyze", "reliance.ns")
	require.NoError(t, err)
	assert.Contains(t, out, "RELIANCE.NS")
	assert.Contains(t, out, "₹2450.50")
	assert.Contains(t, out, "Overbought")
	assert.Contains(t, out, "New refinery online")
}

func TestAnalyzeHTMLToFile(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, successBody)
	path := filepath.Join(t.TempDir(), "report.html")

	_, err := execute(t, hook.URL, "analyze", "reliance.ns", "--format", "html", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, `id="ticker-display"`)
	assert.Contains(t, html, "pct-positive")
	assert.Contains(t, html, "https://www.nseindia.com")
}

func TestAnalyzeMarkdown(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, successBody)

	out, err := execute(t, hook.URL, "analyze", "reliance.ns", "--format", "md")
	require.NoError(t, err)
	assert.Contains(t, out, "[NSE](https://www.nseindia.com)")
	assert.Contains(t, out, "Revenue grew 12%")
	assert.NotContains(t, out, ".spinner")
}

func TestAnalyzeFailureExitsNonZero(t *testing.T) {
	hook := newWebhook(t, http.StatusBadGateway, `bad gateway`)

	out, err := execute(t, hook.URL, "analyze", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Status: 502")
	assert.Contains(t, out, "Analysis failed")
}

func TestAnalyzeWorkflowError(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{"error": "ticker not found", "raw_output": "trace"}`)

	out, err := execute(t, hook.URL, "analyze", "zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticker not found")
	assert.Contains(t, out, "Workflow Error")
}

func TestAnalyzeRejectsBlankTicker(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, successBody)

	_, err := execute(t, hook.URL, "analyze", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please enter a stock ticker.")
}

func TestAnalyzeUnknownFormat(t *testing.T) {
	_, err := execute(t, "http://127.0.0.1:1/hook", "analyze", "abc", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestConfigShow(t *testing.T) {
	out, err := execute(t, "http://example.com/webhook/x", "config", "show")
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "http://example.com/webhook/x", cfg["webhook_url"])
}

func TestConfigSetWebhookPersists(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")

	_, err := executeWithConfig(t, cfgPath, "config", "set-webhook", " https://n8n.example.com/webhook/stock ")
	require.NoError(t, err)

	out, err := executeWithConfig(t, cfgPath, "config", "show")
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "https://n8n.example.com/webhook/stock", cfg["webhook_url"])

	_, err = executeWithConfig(t, cfgPath, "config", "set-webhook", "not a url")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "http://example.com/webhook/x", "version")
	require.NoError(t, err)
	assert.Equal(t, "tickerview dev\n", out)
}

func TestValidateTicker(t *testing.T) {
	for _, ticker := range []string{" reliance.ns ", "tata motors", "ÄBC", "BRK-B", strings.Repeat("X", 26)} {
		assert.NoError(t, validateTicker(ticker), ticker)
	}
	assert.ErrorIs(t, validateTicker("  "), models.ErrEmptyTicker)
	assert.ErrorIs(t, validateTicker(""), models.ErrEmptyTicker)
	assert.Error(t, validateTicker(42))
}
