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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/popstar"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/server/api"
	"github.com/zintix-labs/popstar/server/app"
	"github.com/zintix-labs/popstar/server/netsvr"
	"github.com/zintix-labs/popstar/server/netsvr/middleware"
	"github.com/zintix-labs/popstar/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrConfig（包含必要依賴，例如 logger）。
//  2. 建立 HTTP server（netsvr）。
//  3. 建立 SessionRuntime，註冊路由與 middleware（api.RegisterRoutes）。
//  4. 啟動 app.Run() 並回傳停止原因；停止時關閉 SessionRuntime。
//
// 注意：
//   - Run 不綁定任何「檔案路徑」或「環境變數」策略；所有依賴都應透過 SvrConfig 明確注入。
//   - 若你要自訂 server 的組裝/路由/生命週期，建議以 popstar.Lab 為核心自行組裝。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	svr := netsvr.NewChiServer(sCfg.Addr)
	runWith(sCfg, svr, "listening on http://localhost"+svr.Address())
}

// RunWithSvr 與 Run() 相同，差別在於允許呼叫端注入自訂的 NetSvr
// （例如自訂的 listener、TLS、timeout 或把路由掛到既有服務中）。
//
//   - svr 參數必須非 nil，且若是 ChiAdapter 會要求 Ready() 為 true（避免注入不完整的 server）。
//   - 這一層依然只負責「註冊 routes + 啟動 app.Run()」，不接管你整個系統的組裝方式。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	} else {
		if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
			sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
			return
		}
	}
	runWith(sCfg, svr, "listening")
}

func runWith(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, banner string) {
	// runtime 的 log 經由請求 ctx 帶上 req_id
	rt, err := sCfg.Lab.BuildRuntime(middleware.ReqIDLogger(sCfg.Log), sCfg.MaxSessions, sCfg.IdleTTL)
	if err != nil {
		sCfg.Log.Error("build session runtime failed", slog.Any("err", err))
		return
	}

	// 註冊 Api
	api.RegisterRoutes(svr, sCfg, rt)

	// 運行：server 先停，runtime 後關
	app := app.NewWith(sCfg.Log, runtimeComponent(rt), svr)
	sCfg.Log.Info("[popstar] " + banner)
	if err := app.Run(); err != nil {
		sCfg.Log.Error("app stopped:", slog.Any("err", err))
	}
}

// runtimeComponent 閒置回收 worker；Shutdown 時關閉 runtime 並清空所有局。
func runtimeComponent(rt *popstar.SessionRuntime) app.Component {
	return app.Funcs{
		RunFn: func() error {
			rt.Run(context.Background())
			return nil
		},
		ShutdownFn: func(ctx context.Context) error {
			rt.Close()
			return nil
		},
	}
}
