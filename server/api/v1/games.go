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
	"net/http"

	"github.com/zintix-labs/popstar"
	"github.com/zintix-labs/popstar/catalog"
	"github.com/zintix-labs/popstar/server/httperr"
)

type GameHandler struct {
	lab *popstar.Lab
}

func NewGameHandler(lab *popstar.Lab) *GameHandler {
	return &GameHandler{lab: lab}
}

// Games 列出已註冊的遊戲與可用的模擬策略
func (gh *GameHandler) Games(w http.ResponseWriter, r *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type GamesResponse struct {
		Games    []catalog.Summary `json:"games"`
		Policies []string          `json:"policies"`
	}
	sum, err := gh.lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, GamesResponse{Games: sum, Policies: gh.lab.PolicyNames()})
}
