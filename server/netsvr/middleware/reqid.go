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
	"context"
	"log/slog"
	"net/http"

	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/zintix-labs/popstar/server/logger"
)

// HeaderRequestID 請求與回應共用的 request id header
const HeaderRequestID = "X-Request-Id"

const maxReqIDLen = 64

// RequestID 為每個請求配一個 id，放進 ctx 並寫回 X-Request-Id。
//
//   - client 帶來的 X-Request-Id 合法時沿用，方便前端把一局的操作串起來。
//   - 過長或含非可見字元時丟棄，改由 chi 產生（host/prefix-000001）。
func RequestID(next http.Handler) http.Handler {
	tagged := chimid.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderRequestID, ReqID(r.Context()))
		next.ServeHTTP(w, r)
	}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(HeaderRequestID); id != "" && !validReqID(id) {
			r = r.Clone(r.Context())
			r.Header.Del(HeaderRequestID)
		}
		tagged.ServeHTTP(w, r)
	})
}

func validReqID(id string) bool {
	if len(id) > maxReqIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

// ReqID 取出 ctx 內的 request id，沒有時回傳空字串
func ReqID(ctx context.Context) string {
	return chimid.GetReqID(ctx)
}

// ReqIDAttrs 供 logger.ContextHandler 使用：ctx 帶有 request id 時補上 req_id 欄位。
func ReqIDAttrs(ctx context.Context) []slog.Attr {
	if id := ReqID(ctx); id != "" {
		return []slog.Attr{slog.String("req_id", id)}
	}
	return nil
}

// ReqIDLogger 讓下游（例如 SessionRuntime）以 *Context 寫的 log 自動帶 req_id。
func ReqIDLogger(log *slog.Logger) *slog.Logger {
	return logger.WithContextAttrs(log, ReqIDAttrs)
}
