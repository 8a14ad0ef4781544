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

package logger

import (
	"context"
	"log/slog"
)

// ContextAttrs 從 ctx 取出要附加到每筆 log 的欄位（例如 req_id）。
type ContextAttrs func(ctx context.Context) []slog.Attr

// ContextHandler 在交給 next 之前，把 ctx 帶的欄位補進 Record。
// 只有用 *Context 系列（InfoContext / LogAttrs ...）寫的 log 才拿得到 ctx。
type ContextHandler struct {
	next slog.Handler
	from ContextAttrs
}

func NewContextHandler(next slog.Handler, from ContextAttrs) *ContextHandler {
	return &ContextHandler{next: next, from: from}
}

// WithContextAttrs 包一層 ContextHandler；log 為 nil 時回傳丟棄用 logger。
func WithContextAttrs(log *slog.Logger, from ContextAttrs) *slog.Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	if from == nil {
		return log
	}
	return slog.New(NewContextHandler(log.Handler(), from))
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if attrs := h.from(ctx); len(attrs) > 0 {
			r = r.Clone()
			r.AddAttrs(attrs...)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs), from: h.from}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name), from: h.from}
}
