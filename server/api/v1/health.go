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
	"github.com/zintix-labs/popstar/server/httperr"
)

type HealthHandler struct {
	rt *popstar.SessionRuntime
}

func NewHealthHandler(rt *popstar.SessionRuntime) *HealthHandler {
	return &HealthHandler{rt: rt}
}

// Healthz runtime 關閉後回 503，內容附上 runtime 觀測快照
func (hh *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	type HealthResponse struct {
		Status  string                 `json:"status"`
		Runtime popstar.RuntimeMetrics `json:"runtime"`
	}
	m := hh.rt.Metrics()
	if m.Closed {
		httperr.JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "closed", Runtime: m})
		return
	}
	httperr.JSON(w, http.StatusOK, HealthResponse{Status: "ok", Runtime: m})
}
