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

package api

import (
	"log/slog"

	"github.com/zintix-labs/popstar"
	v1 "github.com/zintix-labs/popstar/server/api/v1"
	"github.com/zintix-labs/popstar/server/netsvr"
	"github.com/zintix-labs/popstar/server/netsvr/middleware"
	"github.com/zintix-labs/popstar/server/svrcfg"
)

const wsSuffix = "/ws"

// RegisterRoutes 註冊
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *popstar.SessionRuntime) {
	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	registerHealth(svr, rt)           // 2. 健康檢查
	registerV1API(svr, sCfg, rt)      // 3. 註冊 v1 api
}

// 註冊 middleware
//
// Recover 放在 Compression 內層：panic 回應一樣走壓縮，access log 記到 500。
// websocket 路徑不經過壓縮。
func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Compression(middleware.SkipSuffix(wsSuffix)))
	svr.Use(middleware.Recover(log))
}

func registerHealth(svr netsvr.NetRouter, rt *popstar.SessionRuntime) {
	svr.Get("/healthz", v1.NewHealthHandler(rt).Healthz)
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *popstar.SessionRuntime) {
	g := v1.NewGameHandler(sCfg.Lab)
	s := v1.NewSessionHandler(rt, sCfg.Log)
	sim := v1.NewSimHandler(sCfg.Lab, sCfg.SimMaxGames)
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/games", g.Games)

		vOne.Get("/sim", sim.Sim)
		vOne.Post("/sim", sim.Sim)
		vOne.Post("/simbycfg", sim.SimByCfg)

		vOne.Group("/sessions", func(ss netsvr.NetRouter) {
			ss.Post("/", s.Create)
			ss.Group("/{id}", func(one netsvr.NetRouter) {
				one.Get("/", s.Get)
				one.Delete("/", s.Delete)
				one.Get("/select", s.Select)
				one.Post("/select", s.Select)
				one.Post("/confirm", s.Confirm)
				one.Post("/cancel", s.Cancel)
				one.Post("/restart", s.Restart)
				one.Get("/hint", s.Hint)
				one.Get(wsSuffix, s.WS)
			})
		})
	})
}
