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

// Package popstar 提供 PopStar 消除引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把下列三個地基組裝在一起，並提供建立 Session / Simulator / SessionRuntime 的入口：
//  1. Catalog：遊戲目錄，定義有哪些遊戲、各自對應的設定檔名稱（ConfigName）。
//  2. policy.Registry：模擬器使用的出手策略。
//  3. PRNGFactory：亂數核心工廠，同一個 seed 產生同一盤。
//
// Lab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//
// 典型使用情境：
//   - 後端服務（HTTP）：BuildRuntime 取得 SessionRuntime，依 id 操作各局。
//   - 模擬器（sim）：NewSimulator 以策略大量自動對局並輸出統計。
package popstar

import (
	"io/fs"
	"log/slog"
	"time"

	"github.com/zintix-labs/popstar/catalog"
	"github.com/zintix-labs/popstar/corefmt"
	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/board"
	"github.com/zintix-labs/popstar/sdk/core"
	"github.com/zintix-labs/popstar/sdk/policy"
	"github.com/zintix-labs/popstar/spec"
)

var ErrNotFrozen = errs.NewFatal("catalog is not frozen yet")

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把 configs 直接編進 binary，也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Policies 把一或多個策略註冊表打包成 New() 需要的參數。
// 內建策略（random / greedy / smallest）一律包含，不需要另外傳入。
func Policies(regs ...*policy.Registry) []*policy.Registry {
	return regs
}

// Lab 是「組裝器」與「運行入口」。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段：建立 catalog、合併策略、檢查重複與缺漏。
//   - 執行階段：Freeze 之後依遊戲 ID 產生 Session / Simulator。
//
//	lab, _ := popstar.NewAuto(core.Default(), popstar.Configs(cfgFS), nil)
//	s, _ := lab.NewSession(1)
//	g, _ := s.SelectSeed(board.Coord{Row: 0, Col: 0})
//	if g.Eliminable() {
//		step, _ := s.ConfirmElimination()
//		_ = step.Events
//	}
type Lab struct {
	cat *catalog.Catalog
	pol *policy.Registry
	cf  core.PRNGFactory
}

// New 建立一個 Lab instance（組裝階段）。
//
//   - cf 不能為 nil：沒有 RNG 工廠就無法重現盤面。
//   - cfgs 至少一個。
//   - policies 可為空，內建策略一律可用；名稱重複直接視為錯誤。
func New(cf core.PRNGFactory, cfgs []fs.FS, policies []*policy.Registry) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	regs := append([]*policy.Registry{policy.Builtin()}, policies...)
	pol, err := policy.Merge(regs...)
	if err != nil {
		return nil, err
	}
	return &Lab{cat: cata, pol: pol, cf: cf}, nil
}

// NewAuto 註冊所有設定檔並 Freeze，直接進入執行階段。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS, policies []*policy.Registry) (*Lab, error) {
	lab, err := New(cf, cfgs, policies)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (p *Lab) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔來源，以設定檔內宣告的 GameID/GameName 一次性註冊。
//
//  1. Fail-fast：任一檔案讀取/解析失敗立刻回傳 error。
//  2. 原子性：全部通過才寫入 catalog，不會出現註冊一半的狀態。
//  3. 依檔名排序處理，行為可重現。
func (p *Lab) RegisterAll() error {
	entries, err := p.cat.Scan()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	return p.cat.Register(entries...)
}

func (p *Lab) Freeze() {
	p.cat.Freeze()
}

func (p *Lab) EntryByID(id spec.GID) (catalog.Entry, bool) {
	return p.cat.GetByID(id)
}

func (p *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return p.cat.GetByName(name)
}

func (p *Lab) IDs() []spec.GID {
	return p.cat.IDs()
}

func (p *Lab) All() []catalog.Entry {
	return p.cat.All()
}

// PolicyNames 可用的策略名稱（已排序）
func (p *Lab) PolicyNames() []string {
	return p.pol.Names()
}

func (p *Lab) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, ErrNotFrozen
	}
	return p.cat.Summaries(), nil
}

// Setting 取得已註冊遊戲的設定（共用只讀）
func (p *Lab) Setting(id spec.GID) (*spec.GameSetting, error) {
	if !p.cat.IsFrozen() {
		return nil, ErrNotFrozen
	}
	return p.cat.GameSettingByID(id)
}

// ResolveGID 以 id 或名稱找遊戲；id 非 0 時優先。
func (p *Lab) ResolveGID(id spec.GID, name string) (spec.GID, error) {
	if id != 0 || name == "" {
		if _, ok := p.cat.GetByID(id); !ok {
			return 0, catalog.ErrNotFound.Withf("gid=%d", id)
		}
		return id, nil
	}
	e, ok := p.cat.GetByName(name)
	if !ok {
		return 0, catalog.ErrNotFound.Withf("name=%q", name)
	}
	return e.GID, nil
}

// NewSession 以 crypto seed 開新局，避免對外服務的盤面可被預測。
func (p *Lab) NewSession(id spec.GID) (*Session, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, err
	}
	return p.NewSessionWithSeed(id, seed)
}

// NewSessionWithSeed 由呼叫端指定 seed；同一份設定 + 同一個 seed 產生同一盤。
func (p *Lab) NewSessionWithSeed(id spec.GID, seed int64) (*Session, error) {
	gs, err := p.Setting(id)
	if err != nil {
		return nil, err
	}
	return newSessionWithSeed(gs, p.cf, seed)
}

// NewSessionWithLayout 以外部提供、完整填滿的 N×N 盤面開局（種類編號 1..len(kinds)）。
func (p *Lab) NewSessionWithLayout(id spec.GID, kinds [][]board.Kind) (*Session, error) {
	gs, err := p.Setting(id)
	if err != nil {
		return nil, err
	}
	seed, err := core.NewSeed()
	if err != nil {
		return nil, err
	}
	return newSessionWithLayout(gs, p.cf, seed, kinds)
}

// NewSessionByCode 以分享碼開局（見 corefmt.EncodeLayout）
func (p *Lab) NewSessionByCode(id spec.GID, code string) (*Session, error) {
	kinds, err := corefmt.DecodeLayout(code)
	if err != nil {
		return nil, err
	}
	return p.NewSessionWithLayout(id, kinds)
}

func (p *Lab) NewSimulator(id spec.GID) (*Simulator, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, err
	}
	return p.NewSimulatorWithSeed(id, seed)
}

func (p *Lab) NewSimulatorWithSeed(id spec.GID, seed int64) (*Simulator, error) {
	gs, err := p.Setting(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(gs, p.pol, p.cf, seed)
}

// NewSimulatorByJSON 以外部設定檔模擬（例如調整權重），設定的 gid/name 必須對應已註冊遊戲。
func (p *Lab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, ErrNotFrozen
	}
	cfg, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.pol, p.cf, seed)
}

func (p *Lab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, ErrNotFrozen
	}
	cfg, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.pol, p.cf, seed)
}

func (p *Lab) validCfg(cfg *spec.GameSetting) error {
	ent, ok := p.cat.GetByID(cfg.GameID)
	if !ok {
		return errs.NewWarn("gid not exist")
	}
	ent2, ok := p.cat.GetByName(cfg.GameName)
	if !ok {
		return errs.NewWarn("game name not exist")
	}
	if ent.GID != ent2.GID {
		return errs.NewWarn("game id is not matched game name")
	}
	return nil
}

// BuildRuntime 進入執行階段，建立對外服務用的 SessionRuntime。
//   - maxSessions <= 0 時使用 DefaultMaxSessions
//   - idleTTL <= 0 時使用 DefaultIdleTTL
func (p *Lab) BuildRuntime(log *slog.Logger, maxSessions int, idleTTL time.Duration) (*SessionRuntime, error) {
	p.Freeze()
	if len(p.cat.IDs()) == 0 {
		return nil, errs.NewFatal("no games registered")
	}
	return newSessionRuntime(p, log, maxSessions, idleTTL), nil
}
