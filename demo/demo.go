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

// Package demo 內建三款示範盤面（classic / mini / tower），供 cmd 與測試直接組裝。
package demo

import (
	"github.com/zintix-labs/popstar"
	"github.com/zintix-labs/popstar/catalog"
	"github.com/zintix-labs/popstar/demo/demo_configs"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/core"
	"github.com/zintix-labs/popstar/server/logger"
	"github.com/zintix-labs/popstar/server/svrcfg"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := NewLab()
	if err != nil {
		return nil, errs.Wrap(err, "new lab failed")
	}
	scfg := &svrcfg.SvrCfg{
		Log: logger.NewDefaultAsyncLogger(logger.ModeDev),
		Lab: lab,
	}
	return scfg, nil
}

func NewLab() (*popstar.Lab, error) {
	return popstar.NewAuto(
		core.Default(),
		popstar.Configs(demo_configs.FS),
		nil,
	)
}
