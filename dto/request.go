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

package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zintix-labs/popstar/spec"
)

const maxBody = 1 << 20

// CreateSessionRequest 開新局。Seed 缺省時由伺服器產生；Layout 為分享碼，提供時直接使用該盤面。
type CreateSessionRequest struct {
	GID    spec.GID `json:"gid"`
	Game   string   `json:"game,omitempty"`
	Seed   *int64   `json:"seed,omitempty"`
	Layout string   `json:"layout,omitempty"`
}

// CoordRequest 選取座標；row/col 皆必填。
type CoordRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

func (c CoordRequest) Coord() (board.Coord, error) {
	if c.Row == nil || c.Col == nil {
		return board.Coord{}, errs.NewWarn("row and col are required")
	}
	return board.Coord{Row: *c.Row, Col: *c.Col}, nil
}

// SimRequest 以指定策略模擬多局。
type SimRequest struct {
	GID     spec.GID `json:"gid"`
	Game    string   `json:"game,omitempty"`
	Policy  string   `json:"policy"`
	Games   int      `json:"games"`
	Workers int      `json:"workers"`
	Seed    *int64   `json:"seed,omitempty"`
}

// WSCommand websocket 上的指令：select / confirm / cancel / restart / view。
type WSCommand struct {
	Op  string `json:"op"`
	Row int    `json:"row,omitempty"`
	Col int    `json:"col,omitempty"`
}

// WSReply websocket 回應；OK=false 時 Error 帶錯誤訊息。
type WSReply struct {
	Op        string        `json:"op"`
	OK        bool          `json:"ok"`
	Error     string        `json:"error,omitempty"`
	Code      string        `json:"code,omitempty"`
	Selection *SelectionDTO `json:"selection,omitempty"`
	Step      *StepDTO      `json:"step,omitempty"`
	View      *SessionView  `json:"view,omitempty"`
}

// decodeJSON 限制 body 大小並拒絕未知欄位；空 body 視為零值。
func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return errs.NewWarn(fmt.Sprintf("invalid json: %v", err))
	}
	return nil
}

func queryInt(q url.Values, key string) (*int, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, errs.NewWarn(fmt.Sprintf("invalid %s: %v", key, err))
	}
	return &v, nil
}

func queryInt64(q url.Values, key string) (*int64, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errs.NewWarn(fmt.Sprintf("invalid %s: %v", key, err))
	}
	return &v, nil
}

func queryGID(q url.Values) (spec.GID, error) {
	s := strings.TrimSpace(q.Get("gid"))
	if s == "" {
		return 0, nil
	}
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, errs.NewWarn(fmt.Sprintf("invalid gid: %v", err))
	}
	return spec.GID(u), nil
}

func checkRequest(r *http.Request) error {
	if r == nil {
		return errs.NewWarn("nil request")
	}
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		return errs.NewWarn("method not allowed")
	}
	return nil
}

// DecodeCoordRequest GET 讀 query (row/col)，POST 讀 JSON body。
func DecodeCoordRequest(r *http.Request) (board.Coord, error) {
	if err := checkRequest(r); err != nil {
		return board.Coord{}, err
	}
	req := CoordRequest{}
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		var err error
		if req.Row, err = queryInt(q, "row"); err != nil {
			return board.Coord{}, err
		}
		if req.Col, err = queryInt(q, "col"); err != nil {
			return board.Coord{}, err
		}
	} else if err := decodeJSON(r, &req); err != nil {
		return board.Coord{}, err
	}
	return req.Coord()
}

// DecodeCreateSessionRequest GET 讀 query (gid/game/seed/layout)，POST 讀 JSON body。
func DecodeCreateSessionRequest(r *http.Request) (*CreateSessionRequest, error) {
	if err := checkRequest(r); err != nil {
		return nil, err
	}
	req := new(CreateSessionRequest)
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		var err error
		if req.GID, err = queryGID(q); err != nil {
			return nil, err
		}
		if req.Seed, err = queryInt64(q, "seed"); err != nil {
			return nil, err
		}
		req.Game = q.Get("game")
		req.Layout = q.Get("layout")
		return req, nil
	}
	if err := decodeJSON(r, req); err != nil {
		return nil, err
	}
	return req, nil
}

// DecodeSimRequest GET 讀 query (gid/game/policy/games/workers/seed)，POST 讀 JSON body。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if err := checkRequest(r); err != nil {
		return nil, err
	}
	req := new(SimRequest)
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		var err error
		if req.GID, err = queryGID(q); err != nil {
			return nil, err
		}
		if req.Seed, err = queryInt64(q, "seed"); err != nil {
			return nil, err
		}
		games, err := queryInt(q, "games")
		if err != nil {
			return nil, err
		}
		workers, err := queryInt(q, "workers")
		if err != nil {
			return nil, err
		}
		if games != nil {
			req.Games = *games
		}
		if workers != nil {
			req.Workers = *workers
		}
		req.Game = q.Get("game")
		req.Policy = q.Get("policy")
		return req, nil
	}
	if err := decodeJSON(r, req); err != nil {
		return nil, err
	}
	return req, nil
}
