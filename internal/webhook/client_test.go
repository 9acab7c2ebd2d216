package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/tickerview/internal/models"
)

func TestAnalyzeSendsTickerAsJSON(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var payload map[string]any
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, map[string]any{"ticker": "INFY"}, payload)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary_text":"ok","redirect_links":[{"name":"a","url":"b"}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Analyze(context.Background(), models.AnalysisRequest{Ticker: "INFY"})
	require.NoError(t, err)
	require.NotNil(t, resp.Success)
	assert.Equal(t, "ok", resp.Success.SummaryText)
	assert.Len(t, resp.Success.RedirectLinks, 1)
	assert.EqualValues(t, 1, calls.Load())
}

func TestAnalyzeWorkflowErrorIsNotAGoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"LLM output invalid","raw_output":"{oops"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Analyze(context.Background(), models.AnalysisRequest{Ticker: "X"})
	require.NoError(t, err)
	require.True(t, resp.IsError())
	assert.Equal(t, "LLM output invalid", resp.Error.Error)
}

func TestAnalyzeNon2xxIsTransportErrorWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Analyze(context.Background(), models.AnalysisRequest{Ticker: "X"})
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusBadGateway, terr.StatusCode)
	assert.Contains(t, err.Error(), "502")
	assert.EqualValues(t, 1, calls.Load())
}

func TestAnalyzeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Analyze(context.Background(), models.AnalysisRequest{Ticker: "X"})
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Zero(t, terr.StatusCode)
	require.Error(t, terr.Err)
	assert.Equal(t, terr.Err.Error(), err.Error())
}

func TestAnalyzeMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Analyze(context.Background(), models.AnalysisRequest{Ticker: "X"})
	var merr *models.MalformedResponseError
	require.True(t, errors.As(err, &merr))
	assert.Contains(t, merr.Body, "gateway")
}

func TestSetEndpoint(t *testing.T) {
	hit := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit <- r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("http://127.0.0.1:1/unused")
	c.SetEndpoint(srv.URL + "/webhook/new")
	assert.Equal(t, srv.URL+"/webhook/new", c.Endpoint())

	_, err := c.Analyze(context.Background(), models.AnalysisRequest{Ticker: "X"})
	require.NoError(t, err)
	assert.Equal(t, "/webhook/new", <-hit)
}
