// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/popstar/server/httperr"
)

const payload = `{"games":[{"gid":1,"name":"classic"},{"gid":2,"name":"mini"}]}`

func jsonHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, payload)
}

func serve(h http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNegotiate(t *testing.T) {
	cases := []struct {
		accept string
		want   string
	}{
		{"", ""},
		{"gzip", "gzip"},
		{"gzip, deflate, br", "gzip"},
		{"gzip, zstd", "zstd"},
		{"ZSTD", "zstd"},
		{"zstd;q=0, gzip;q=0.5", "gzip"},
		{"*", "zstd"},
		{"*, zstd;q=0", "gzip"},
		{"gzip;q=0", ""},
		{"br, identity", ""},
	}
	for _, tc := range cases {
		c := negotiate(tc.accept)
		if tc.want == "" {
			assert.Nil(t, c, "accept=%q", tc.accept)
			continue
		}
		require.NotNil(t, c, "accept=%q", tc.accept)
		assert.Equal(t, tc.want, c.name, "accept=%q", tc.accept)
	}
}

func TestCompressionGzip(t *testing.T) {
	h := Compression()(http.HandlerFunc(jsonHandler))
	for i := 0; i < 3; i++ { // 重複使用 pool 內的 writer
		rec := serve(h, http.MethodGet, "/v1/games", map[string]string{"Accept-Encoding": "gzip"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		zr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		raw, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.JSONEq(t, payload, string(raw))
	}
}

func TestCompressionZstd(t *testing.T) {
	h := Compression()(http.HandlerFunc(jsonHandler))
	rec := serve(h, http.MethodGet, "/v1/games", map[string]string{"Accept-Encoding": "gzip, zstd"})
	require.Equal(t, "zstd", rec.Header().Get("Content-Encoding"))

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	raw, err := dec.DecodeAll(rec.Body.Bytes(), nil)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(raw))
}

func TestCompressionPassThrough(t *testing.T) {
	h := Compression(SkipSuffix("/ws"))(http.HandlerFunc(jsonHandler))

	rec := serve(h, http.MethodGet, "/v1/games", nil)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, payload, rec.Body.String())

	rec = serve(h, http.MethodGet, "/v1/sessions/abc/ws", map[string]string{"Accept-Encoding": "gzip"})
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, payload, rec.Body.String())

	rec = serve(h, http.MethodGet, "/v1/other", map[string]string{
		"Accept-Encoding": "gzip",
		"Connection":      "Upgrade",
		"Upgrade":         "websocket",
	})
	assert.Empty(t, rec.Header().Get("Content-Encoding"))

	rec = serve(h, http.MethodHead, "/v1/games", map[string]string{"Accept-Encoding": "gzip"})
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestCompressionNoContent(t *testing.T) {
	h := Compression()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := serve(h, http.MethodDelete, "/v1/sessions/abc", map[string]string{"Accept-Encoding": "gzip"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Zero(t, rec.Body.Len(), "no gzip footer on 204")
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ReqID(r.Context())
	}))

	rec := serve(h, http.MethodGet, "/", nil)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	rec = serve(h, http.MethodGet, "/", map[string]string{HeaderRequestID: "client-7"})
	assert.Equal(t, "client-7", seen)
	assert.Equal(t, "client-7", rec.Header().Get(HeaderRequestID))

	for _, bad := range []string{"has space", strings.Repeat("x", maxReqIDLen+1), "tab\tid"} {
		rec = serve(h, http.MethodGet, "/", map[string]string{HeaderRequestID: bad})
		assert.NotEqual(t, bad, seen)
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	}
}

func TestReqIDLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := ReqIDLogger(slog.New(slog.NewJSONHandler(buf, nil)))
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.InfoContext(r.Context(), "session created")
		log.Info("no ctx")
	}))
	serve(h, http.MethodPost, "/v1/sessions", map[string]string{HeaderRequestID: "req-1"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	first := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "req-1", first["req_id"])
	second := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.NotContains(t, second, "req_id")
}

func TestRecover(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(slog.NewJSONHandler(buf, nil))
	h := RequestID(Recover(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("board exploded")
	})))

	rec := serve(h, http.MethodPost, "/v1/sessions/abc/confirm", map[string]string{HeaderRequestID: "req-9"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := httperr.Body{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal", body.Code)
	assert.Contains(t, body.Error, "req-9")

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http.panic", entry["msg"])
	assert.Equal(t, "req-9", entry["req_id"])
	assert.Equal(t, "board exploded", entry["panic"])
	assert.Equal(t, "/v1/sessions/abc/confirm", entry["path"])
}

func TestRecoverRethrowsAbort(t *testing.T) {
	h := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(h, http.MethodGet, "/", nil)
	})
}

func TestAccessLogRecordsPanicStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(slog.NewJSONHandler(buf, nil))
	h := RequestID(AccessLog(log)(Compression()(Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))))
	rec := serve(h, http.MethodGet, "/v1/games", map[string]string{"Accept-Encoding": "gzip", HeaderRequestID: "req-3"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http.access", entry["msg"])
	assert.Equal(t, float64(http.StatusInternalServerError), entry["status"])
	assert.Equal(t, "req-3", entry["req_id"])
}
