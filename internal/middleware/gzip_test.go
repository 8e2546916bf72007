package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boardJSON = `{"columns":[{"status":"New Request","orders":[{"serviceId":"SRV-2024-001","progress":5}]}]}`

func gzipped(t *testing.T, s string) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return &buf
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()

	var r io.Reader = res.Body
	if res.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(res.Body)
		require.NoError(t, err)
		defer gr.Close()
		r = gr
	}
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(body)
}

func boardHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(boardJSON))
}

// actionHandler отвечает заметкой из тела запроса действия над заказом.
func actionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes    string `json:"notes"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"notes": req.Notes, "quantity": req.Quantity})
}

func TestGzipMiddlewareResponses(t *testing.T) {
	tests := []struct {
		name           string
		acceptEncoding string
		handler        http.HandlerFunc
		wantStatus     int
		wantEncoding   string
		wantBody       string
	}{
		{
			name:           "board compressed for gzip client",
			acceptEncoding: "gzip, deflate",
			handler:        boardHandler,
			wantStatus:     http.StatusOK,
			wantEncoding:   "gzip",
			wantBody:       boardJSON,
		},
		{
			name:       "board plain without accept-encoding",
			handler:    boardHandler,
			wantStatus: http.StatusOK,
			wantBody:   boardJSON,
		},
		{
			name:           "logout no content",
			acceptEncoding: "gzip",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:           "handler writes nothing",
			acceptEncoding: "gzip",
			handler:        func(http.ResponseWriter, *http.Request) {},
			wantStatus:     http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()

			GzipMiddleware(tt.handler).ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.wantStatus, res.StatusCode)
			assert.Equal(t, tt.wantEncoding, res.Header.Get("Content-Encoding"))
			if tt.wantEncoding == "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
				return
			}
			assert.Equal(t, "Accept-Encoding", res.Header.Get("Vary"))
			assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, readBody(t, res))
		})
	}
}

func TestGzipMiddlewareCompressedActionBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/orders/SRV-2024-001/actions/add-log",
		gzipped(t, `{"notes":"Replaced nozzle seal","quantity":2}`))
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	GzipMiddleware(http.HandlerFunc(actionHandler)).ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
	assert.JSONEq(t, `{"notes":"Replaced nozzle seal","quantity":2}`, readBody(t, res))
}

func TestGzipMiddlewareRejectsInvalidBody(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"customerName":"PT. Baru"}`))
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()

	GzipMiddleware(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid gzip body")
	assert.False(t, called)
}
