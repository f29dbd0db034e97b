package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
)

func completionLine(t *testing.T, buf *bytes.Buffer) string {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, "request.complete") {
			return line
		}
	}
	t.Fatalf("no completion entry in %s", buf.String())
	return ""
}

func TestLoggingRecordsExplicitStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/commitments", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	line := completionLine(t, buf)
	require.Contains(t, line, `"status":201`)
	require.Contains(t, line, `"path":"/api/v1/commitments"`)
}

func TestLoggingDefaultsToOKOnBodyWrite(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, "ok", rec.Body.String())
	require.Contains(t, completionLine(t, buf), `"status":200`)
}

func TestLoggingWithoutLogger(t *testing.T) {
	handler := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/x", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
