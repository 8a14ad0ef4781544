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
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/server/httperr"
)

var ErrPanic = errs.NewCode(errs.Fatal, "internal", "internal server error")

// Recover 攔截 handler 的 panic：記一筆 http.panic（含 req_id 與 stack），回 500 JSON。
//
//   - http.ErrAbortHandler 是 net/http 約定的中斷訊號，照原樣往上拋。
//   - websocket 連線已被 hijack，無法再寫 HTTP 回應，只記 log。
//
// 需註冊在 RequestID / AccessLog 之後，access log 才會看到 500。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				id := ReqID(r.Context())
				log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("req_id", id),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				if isWebSocketUpgrade(r) {
					return
				}
				httperr.Errs(w, ErrPanic.With(id))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
