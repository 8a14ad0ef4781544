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
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressConfig 壓縮等級；於第一次建立 encoder 時讀取。
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
}

// encoder 是 gzip.Writer 與 zstd.Encoder 的共同行為
type encoder interface {
	io.WriteCloser
	Flush() error
	Reset(w io.Writer)
}

type codec struct {
	name string
	pool sync.Pool
}

func (c *codec) get(w io.Writer) encoder {
	enc := c.pool.Get().(encoder)
	enc.Reset(w)
	return enc
}

// put 收尾：disabled 時 footer 寫到 io.Discard，不污染 204/304。
func (c *codec) put(enc encoder, disabled bool) {
	if disabled {
		enc.Reset(io.Discard)
	}
	_ = enc.Close()
	c.pool.Put(enc)
}

// codecs 依偏好排序：zstd 優先
var codecs = []*codec{
	{name: "zstd", pool: sync.Pool{New: func() any {
		zw, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(DefaultCompressConfig.ZstdLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}}},
	{name: "gzip", pool: sync.Pool{New: func() any {
		gw, err := gzip.NewWriterLevel(nil, DefaultCompressConfig.GzipLevel)
		if err != nil {
			panic(err)
		}
		return gw
	}}},
}

// negotiate 依 Accept-Encoding 選擇 codec；q=0 視為拒絕，"*" 接受任何一種。
func negotiate(accept string) *codec {
	if accept == "" {
		return nil
	}
	ok := map[string]bool{}
	for _, part := range strings.Split(accept, ",") {
		name, params, _ := strings.Cut(part, ";")
		name = strings.ToLower(strings.TrimSpace(name))
		ok[name] = !zeroQ(params)
	}
	for _, c := range codecs {
		if v, seen := ok[c.name]; seen {
			if v {
				return c
			}
			continue
		}
		if ok["*"] {
			return c
		}
	}
	return nil
}

func zeroQ(params string) bool {
	for _, p := range strings.Split(params, ";") {
		k, v, found := strings.Cut(strings.TrimSpace(p), "=")
		if !found || !strings.EqualFold(k, "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil && q == 0
	}
	return false
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") ||
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

// 204 No Content, 304 Not Modified, 1xx
func isNoBodyStatus(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

// SkipSuffix 路徑以任一 suffix 結尾就不壓縮（例如 "/ws"）
func SkipSuffix(suffixes ...string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(r.URL.Path, s) {
				return true
			}
		}
		return false
	}
}

type compressResponseWriter struct {
	http.ResponseWriter
	enc      encoder
	disabled bool // 204/304/1xx 取消壓縮
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	h := cw.Header()
	h.Del("Content-Length")
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", http.DetectContentType(b))
	}
	return cw.enc.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	h := cw.Header()
	h.Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		h.Del("Content-Encoding")
		h.Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		_ = cw.enc.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

// Compression 依 Accept-Encoding 以 zstd 或 gzip 壓縮回應。
//
// HEAD、websocket 升級、已帶 Content-Encoding 的回應，以及 skip 命中的請求都直接放行。
func Compression(skip ...func(*http.Request) bool) func(http.Handler) http.Handler {
	skipped := func(r *http.Request) bool {
		for _, fn := range skip {
			if fn(r) {
				return true
			}
		}
		return false
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || isWebSocketUpgrade(r) || skipped(r) ||
				w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Accept-Encoding")
			c := negotiate(r.Header.Get("Accept-Encoding"))
			if c == nil {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Encoding", c.name)
			cw := &compressResponseWriter{ResponseWriter: w, enc: c.get(w)}
			defer func() { c.put(cw.enc, cw.disabled) }()
			next.ServeHTTP(cw, r)
		})
	}
}
