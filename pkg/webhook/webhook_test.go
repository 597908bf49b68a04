package webhook

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	server := NewServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestVoiceWebhook(t *testing.T) {
	server := NewServer()

	t.Run("with call context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/voice?context=confirm+the+appointment", nil)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))

		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "<Say>")
		assert.Contains(t, string(body), "confirm the appointment")
	})

	t.Run("without call context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/voice", nil)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<Say>")
	})
}
