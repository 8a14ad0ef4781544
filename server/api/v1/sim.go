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
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/zintix-labs/popstar"
	"github.com/zintix-labs/popstar/dto"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/core"
	"github.com/zintix-labs/popstar/server/httperr"
	"github.com/zintix-labs/popstar/stats"
)

type SimHandler struct {
	lab      *popstar.Lab
	maxGames int
}

func NewSimHandler(lab *popstar.Lab, maxGames int) *SimHandler {
	return &SimHandler{lab: lab, maxGames: max(1, maxGames)}
}

// 內部結構 不影響外部 也不被外部使用
type simResponse struct {
	Stats    *stats.Report `json:"stats"`
	Seed     int64         `json:"seed"`
	Workers  int           `json:"workers"`
	UsedTime int64         `json:"used_ms"`
}

func (sh *SimHandler) check(policy string, games, workers int) (int, error) {
	if policy == "" {
		return 0, errs.NewWarn("policy is required")
	}
	if games < 1 || games > sh.maxGames {
		return 0, errs.Warnf("games must be between 1 and %d", sh.maxGames)
	}
	if workers < 0 {
		return 0, errs.NewWarn("workers must be non-negative integer")
	}
	// 0 代表單線；上限為 CPU 數
	return min(max(1, workers), runtime.NumCPU()), nil
}

func seedOr(seed *int64) (int64, error) {
	if seed != nil {
		return *seed, nil
	}
	return core.NewSeed()
}

// Sim GET 讀 query (gid/game/policy/games/workers/seed)，POST 讀 JSON body
func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	// 業務檢驗
	gid, err := sh.lab.ResolveGID(req.GID, req.Game)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	workers, err := sh.check(req.Policy, req.Games, req.Workers)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	seed, err := seedOr(req.Seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "seed generate failed"))
		return
	}
	sim, err := sh.lab.NewSimulatorWithSeed(gid, seed)
	if err != nil {
		// 這裡的錯誤是來自 lab 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, "build simulator err"))
		return
	}
	st, used, err := sim.SimMPContext(r.Context(), req.Policy, req.Games, workers, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	st.Done()
	httperr.JSON(w, http.StatusOK, simResponse{Stats: st, Seed: seed, Workers: workers, UsedTime: used.Milliseconds()})
}

// SimByCfg 以外部設定檔（例如調整過的權重）模擬，設定的 gid/name 必須對應已註冊遊戲。
func (sh *SimHandler) SimByCfg(w http.ResponseWriter, r *http.Request) {
	type SimRequestByJson struct {
		Policy      string          `json:"policy"`
		Games       int             `json:"games"`
		Workers     int             `json:"workers"`
		GameSetting json.RawMessage `json:"cfg"`
		Seed        *int64          `json:"seed,omitempty"`
	}
	req := new(SimRequestByJson)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httperr.Errs(w, errs.NewWarn("invalid json: "+err.Error()))
		return
	}
	workers, err := sh.check(req.Policy, req.Games, req.Workers)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	seed, err := seedOr(req.Seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "seed generate failed"))
		return
	}
	sim, err := sh.lab.NewSimulatorByJSON(req.GameSetting, seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	st, used, err := sim.SimMPContext(r.Context(), req.Policy, req.Games, workers, false)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	st.Done()
	httperr.JSON(w, http.StatusOK, simResponse{Stats: st, Seed: seed, Workers: workers, UsedTime: used.Milliseconds()})
}
