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

package popstar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/popstar/dto"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/spec"
)

const (
	DefaultMaxSessions = 10000
	DefaultIdleTTL     = 30 * time.Minute
)

var (
	ErrSessionNotFound = errs.NewCode(errs.Warn, "not_found", "session not found")
	ErrRuntimeFull     = errs.NewCode(errs.Warn, "runtime_full", "too many active sessions")
	ErrRuntimeClosed   = errs.NewCode(errs.Fatal, "runtime_closed", "session runtime closed")
)

// SessionRuntime 管理對外服務中所有進行中的 Session。
//
//   - 每局以 uuid 為 key，彼此擁有獨立的 Board，可任意併發。
//   - 同一局的操作由 Session 自己的鎖串行化。
//   - Exec 內發生 panic 或 Fatal 錯誤時，該局狀態視為不可信：直接移除並回報錯誤，不影響其他局。
//   - 閒置超過 idleTTL 的局由 Sweep / Run 回收。
type SessionRuntime struct {
	lab *Lab
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*slot

	maxSessions int
	idleTTL     time.Duration

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	created atomic.Int64
	evicted atomic.Int64
	dropped atomic.Int64 // 因 panic / fatal 被移除
	panics  atomic.Int64
	fatals  atomic.Int64
}

type slot struct {
	s        *Session
	gid      spec.GID
	lastUsed atomic.Int64 // unix nano
}

func (sl *slot) touch(now time.Time) {
	sl.lastUsed.Store(now.UnixNano())
}

func newSessionRuntime(lab *Lab, log *slog.Logger, maxSessions int, idleTTL time.Duration) *SessionRuntime {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	rt := &SessionRuntime{
		lab:         lab,
		log:         log,
		sessions:    make(map[string]*slot, 64),
		maxSessions: maxSessions,
		idleTTL:     idleTTL,
		done:        make(chan struct{}),
	}
	rt.reason.Store("")
	return rt
}

func (rt *SessionRuntime) Lab() *Lab {
	return rt.lab
}

func (rt *SessionRuntime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "session request canceled/timeout")
	case <-rt.done:
		rt.closed.Store(true)
		return ErrRuntimeClosed.With(rt.ClosedReason())
	default:
		return nil
	}
}

// Create 依請求開新局並回傳 id 與快照。
// 容量已滿時先回收閒置局，仍滿則回傳 ErrRuntimeFull。
func (rt *SessionRuntime) Create(ctx context.Context, req *dto.CreateSessionRequest) (string, dto.SessionView, error) {
	if err := rt.check(ctx); err != nil {
		return "", dto.SessionView{}, err
	}
	gid, err := rt.lab.ResolveGID(req.GID, req.Game)
	if err != nil {
		return "", dto.SessionView{}, err
	}

	var s *Session
	switch {
	case req.Layout != "":
		s, err = rt.lab.NewSessionByCode(gid, req.Layout)
	case req.Seed != nil:
		s, err = rt.lab.NewSessionWithSeed(gid, *req.Seed)
	default:
		s, err = rt.lab.NewSession(gid)
	}
	if err != nil {
		return "", dto.SessionView{}, err
	}

	now := time.Now()
	if rt.Len() >= rt.maxSessions {
		rt.Sweep(now)
	}

	id := uuid.NewString()
	sl := &slot{s: s, gid: gid}
	sl.touch(now)

	rt.mu.Lock()
	if len(rt.sessions) >= rt.maxSessions {
		rt.mu.Unlock()
		return "", dto.SessionView{}, ErrRuntimeFull.Withf("max=%d", rt.maxSessions)
	}
	rt.sessions[id] = sl
	rt.mu.Unlock()

	rt.created.Add(1)
	rt.log.InfoContext(ctx, "session created", "sid", id, "gid", gid, "seed", s.Seed())
	return id, s.View(id), nil
}

func (rt *SessionRuntime) lookup(id string) (*slot, error) {
	rt.mu.RLock()
	sl, ok := rt.sessions[id]
	rt.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound.With(id)
	}
	return sl, nil
}

// Get 取得進行中的 Session
func (rt *SessionRuntime) Get(id string) (*Session, error) {
	sl, err := rt.lookup(id)
	if err != nil {
		return nil, err
	}
	return sl.s, nil
}

// View 取得快照
func (rt *SessionRuntime) View(ctx context.Context, id string) (dto.SessionView, error) {
	var v dto.SessionView
	err := rt.Exec(ctx, id, func(s *Session) error {
		v = s.View(id)
		return nil
	})
	return v, err
}

// isFatalErr 判斷本次錯誤是否代表「局面狀態不可信」。
// 一般的 request/validation 錯誤（Warn）不會移除該局。
func isFatalErr(err error) bool {
	if e, ok := errs.AsErr(err); ok {
		return e.ErrLv == errs.Fatal
	}
	return false
}

// Exec 在指定局上執行 fn，並更新最後使用時間。
func (rt *SessionRuntime) Exec(ctx context.Context, id string, fn func(s *Session) error) (err error) {
	if err := rt.check(ctx); err != nil {
		return err
	}
	sl, err := rt.lookup(id)
	if err != nil {
		return err
	}
	sl.touch(time.Now())

	defer func() {
		if r := recover(); r != nil {
			rt.panics.Add(1)
			err = errs.NewFatal(fmt.Sprintf("session %s panic : %v", id, r))
			rt.log.ErrorContext(ctx, "session panic recovered", "sid", id, "gid", sl.gid, "panic", fmt.Sprint(r))
			rt.drop(ctx, id, "panic")
			return
		}
		if isFatalErr(err) {
			rt.fatals.Add(1)
			rt.log.ErrorContext(ctx, "session fatal error", "sid", id, "gid", sl.gid, "err", err)
			rt.drop(ctx, id, "fatal")
		}
	}()
	return fn(sl.s)
}

func (rt *SessionRuntime) drop(ctx context.Context, id string, why string) {
	rt.mu.Lock()
	_, ok := rt.sessions[id]
	delete(rt.sessions, id)
	rt.mu.Unlock()
	if ok {
		rt.dropped.Add(1)
		rt.log.WarnContext(ctx, "session dropped", "sid", id, "reason", why)
	}
}

// Delete 結束並移除一局
func (rt *SessionRuntime) Delete(id string) error {
	rt.mu.Lock()
	_, ok := rt.sessions[id]
	delete(rt.sessions, id)
	rt.mu.Unlock()
	if !ok {
		return ErrSessionNotFound.With(id)
	}
	rt.log.Info("session deleted", "sid", id)
	return nil
}

// Sweep 回收閒置超過 idleTTL 的局，回傳回收數量。
func (rt *SessionRuntime) Sweep(now time.Time) int {
	limit := now.Add(-rt.idleTTL).UnixNano()
	rt.mu.Lock()
	n := 0
	for id, sl := range rt.sessions {
		if sl.lastUsed.Load() <= limit {
			delete(rt.sessions, id)
			n++
		}
	}
	rt.mu.Unlock()
	if n > 0 {
		rt.evicted.Add(int64(n))
		rt.log.Info("idle sessions evicted", "count", n, "ttl", rt.idleTTL.String())
	}
	return n
}

// Run 定期回收閒置局，直到 ctx 結束或 runtime 關閉。
func (rt *SessionRuntime) Run(ctx context.Context) {
	tick := time.NewTicker(max(rt.idleTTL/2, time.Second))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.done:
			return
		case now := <-tick.C:
			rt.Sweep(now)
		}
	}
}

// Len 進行中的局數
func (rt *SessionRuntime) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.sessions)
}

// IDs 進行中的局 id（已排序）
func (rt *SessionRuntime) IDs() []string {
	rt.mu.RLock()
	out := make([]string, 0, len(rt.sessions))
	for id := range rt.sessions {
		out = append(out, id)
	}
	rt.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *SessionRuntime) Close() {
	rt.closeWithReason("closed")
}

func (rt *SessionRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		rt.mu.Lock()
		n := len(rt.sessions)
		rt.sessions = make(map[string]*slot)
		rt.mu.Unlock()
		rt.log.Info("session runtime closed", "reason", reason, "sessions", n)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *SessionRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *SessionRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RuntimeMetrics 拉取式（pull）觀測快照，不綁任何 metrics SDK，由上層決定如何輸出。
type RuntimeMetrics struct {
	Sessions    int    `json:"sessions"`
	MaxSessions int    `json:"max_sessions"`
	IdleTTL     string `json:"idle_ttl"`
	Created     int64  `json:"created"`
	Evicted     int64  `json:"evicted"`
	Dropped     int64  `json:"dropped"`
	Panics      int64  `json:"panics"`
	Fatals      int64  `json:"fatals"`
	Closed      bool   `json:"closed"`
	CloseReason string `json:"close_reason"`
}

func (rt *SessionRuntime) Metrics() RuntimeMetrics {
	return RuntimeMetrics{
		Sessions:    rt.Len(),
		MaxSessions: rt.maxSessions,
		IdleTTL:     rt.idleTTL.String(),
		Created:     rt.created.Load(),
		Evicted:     rt.evicted.Load(),
		Dropped:     rt.dropped.Load(),
		Panics:      rt.panics.Load(),
		Fatals:      rt.fatals.Load(),
		Closed:      rt.Closed(),
		CloseReason: rt.ClosedReason(),
	}
}
