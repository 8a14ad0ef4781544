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

package netsvr

import (
	"net/http"

	"github.com/zintix-labs/popstar/server/app"
)

// NetSvr 是對外 HTTP 服務：路由 + 生命週期。
//
// 由 server.Run 組裝並交給 app.App 管理啟停；handler 與子路由只拿得到 NetRouter。
// 換框架時實作此介面即可，handler 一律是標準 net/http。
type NetSvr interface {
	NetRouter
	app.Component

	// Handler 已註冊路由的 http.Handler，測試可直接掛到 httptest.Server
	Handler() http.Handler
	// Address 監聽位址，例如 ":5808"
	Address() string
}

// NetRouter 只有路由行為，沒有 Run/Shutdown。
//
// 路徑參數以 {name} 表示（例如 /sessions/{id}），handler 以 Param 取出。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)

	// Group 以 path 為前綴建立子路由；子路由註冊的 middleware 只作用在該前綴下。
	Group(path string, fn func(NetRouter))
}
