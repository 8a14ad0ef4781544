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

package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/popstar"
	"github.com/zintix-labs/popstar/dto"
	"github.com/zintix-labs/popstar/server/httperr"
	"github.com/zintix-labs/popstar/server/netsvr"
)

const reqTimeout = 5 * time.Second

// ============================================================
// ** SessionHandler **
// ============================================================

type SessionHandler struct {
	rt  *popstar.SessionRuntime
	log *slog.Logger
}

func NewSessionHandler(rt *popstar.SessionRuntime, log *slog.Logger) *SessionHandler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &SessionHandler{rt: rt, log: log}
}

// 內部結構 不影響外部 也不被外部使用
type stepResponse struct {
	Step dto.StepDTO     `json:"step"`
	View dto.SessionView `json:"view"`
}

type selectResponse struct {
	Selection *dto.SelectionDTO `json:"selection"`
	View      dto.SessionView   `json:"view"`
}

type hintResponse struct {
	Found bool              `json:"found"`
	Hint  *dto.SelectionDTO `json:"hint,omitempty"`
}

type cancelResponse struct {
	Canceled bool            `json:"canceled"`
	View     dto.SessionView `json:"view"`
}

func (sh *SessionHandler) fail(w http.ResponseWriter, msg string, err error) {
	httperr.Log(sh.log, msg, err)
	httperr.Errs(w, err)
}

// exec 以請求 ctx + timeout 在指定局上執行 fn，錯誤直接寫回
func (sh *SessionHandler) exec(w http.ResponseWriter, r *http.Request, fn func(id string, s *popstar.Session) (any, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout)
	defer cancel()
	id := netsvr.Param(r, "id")
	var out any
	err := sh.rt.Exec(ctx, id, func(s *popstar.Session) error {
		v, err := fn(id, s)
		out = v
		return err
	})
	if err != nil {
		sh.fail(w, "session request failed", err)
		return
	}
	httperr.JSON(w, http.StatusOK, out)
}

// Create 開新局：POST JSON {gid, game, seed, layout}，GET 讀 query。
func (sh *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeCreateSessionRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout)
	defer cancel()
	_, view, err := sh.rt.Create(ctx, req)
	if err != nil {
		sh.fail(w, "create session failed", err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+view.ID)
	httperr.JSON(w, http.StatusCreated, view)
}

func (sh *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sh.exec(w, r, func(id string, s *popstar.Session) (any, error) {
		return s.View(id), nil
	})
}

func (sh *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := sh.rt.Delete(netsvr.Param(r, "id")); err != nil {
		httperr.Errs(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Select GET 讀 query (row/col)，POST 讀 JSON body
func (sh *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	c, err := dto.DecodeCoordRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sh.exec(w, r, func(id string, s *popstar.Session) (any, error) {
		g, err := s.SelectSeed(c)
		if err != nil {
			return nil, err
		}
		return selectResponse{
			Selection: dto.NewSelectionDTO(g, s.Points(g), s.Setting().KindNames()),
			View:      s.View(id),
		}, nil
	})
}

func (sh *SessionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	sh.exec(w, r, func(id string, s *popstar.Session) (any, error) {
		st, err := s.ConfirmElimination()
		if err != nil {
			return nil, err
		}
		return stepResponse{Step: dto.NewStepDTO(st, s.Setting().KindNames()), View: s.View(id)}, nil
	})
}

func (sh *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sh.exec(w, r, func(id string, s *popstar.Session) (any, error) {
		ok := s.CancelSelection()
		return cancelResponse{Canceled: ok, View: s.View(id)}, nil
	})
}

func (sh *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	sh.exec(w, r, func(id string, s *popstar.Session) (any, error) {
		if err := s.Restart(); err != nil {
			return nil, err
		}
		return s.View(id), nil
	})
}

// Hint 最大的可消除群組，沒有時 found=false
func (sh *SessionHandler) Hint(w http.ResponseWriter, r *http.Request) {
	sh.exec(w, r, func(id string, s *popstar.Session) (any, error) {
		g, ok := s.Hint()
		if !ok {
			return hintResponse{}, nil
		}
		return hintResponse{Found: true, Hint: dto.NewSelectionDTO(g, s.Points(g), s.Setting().KindNames())}, nil
	})
}
