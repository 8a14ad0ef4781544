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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/popstar"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/server/logger"
)

// SvrCfg 伺服器組裝所需的全部依賴
type SvrCfg struct {
	Log         *slog.Logger
	Addr        string        // 監聽位址，空字串使用 netsvr.DefaultAddr
	MaxSessions int           // 同時進行中的局數上限，<= 0 使用 popstar.DefaultMaxSessions
	IdleTTL     time.Duration // 閒置多久回收，<= 0 使用 popstar.DefaultIdleTTL
	SimMaxGames int           // /v1/sim 單次請求的局數上限
	Lab         *popstar.Lab
}

const (
	DefaultSimMaxGames = 100000
	maxSimGamesLimit   = 1000000
)

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}

	// 1 <= SimMaxGames <= 1,000,000
	// for 資源管理
	if sc.SimMaxGames <= 0 {
		sc.SimMaxGames = DefaultSimMaxGames
	}
	sc.SimMaxGames = min(maxSimGamesLimit, sc.SimMaxGames)
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	return nil
}
