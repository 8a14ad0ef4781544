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

// Package catalog 遊戲設定目錄：一組 fs.FS 來源 + GID/名稱索引。
//
// 設定檔來源必須是扁平目錄 (無子目錄)，檔名在所有來源中唯一。
// 註冊時即解析設定檔並快取，Freeze 之後目錄只讀，可被多個 goroutine 共用。
package catalog

import (
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/spec"
)

var (
	ErrDupID    = errs.NewCode(errs.Fatal, "dup_game_id", "duplicate game id")
	ErrDupName  = errs.NewCode(errs.Fatal, "dup_game_name", "duplicate game name")
	ErrNotFound = errs.NewCode(errs.Warn, "not_found", "game not found in catalog")
	ErrFrozen   = errs.NewCode(errs.Warn, "catalog_frozen", "can not register when catalog already frozen")
)

type Entry struct {
	GID        spec.GID
	Name       string
	ConfigName string
}

// Summary 對外列舉用的遊戲摘要。
type Summary struct {
	GID       spec.GID     `json:"gid"`
	Name      string       `json:"name"`
	Size      int          `json:"size"`
	Kinds     []string     `json:"kinds"`
	Gravity   spec.Gravity `json:"gravity"`
	ScoreCoef int          `json:"score_coef"`
}

type Catalog struct {
	byID     map[spec.GID]Entry
	byName   map[string]Entry
	settings map[spec.GID]*spec.GameSetting
	ids      []spec.GID
	config   *multiFS
	frozen   bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	mfs, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:     map[spec.GID]Entry{},
		byName:   map[string]Entry{},
		settings: map[spec.GID]*spec.GameSetting{},
		ids:      make([]spec.GID, 0, 16),
		config:   mfs,
	}, nil
}

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register 批次註冊；任一筆不合法則整批不寫入。
func (c *Catalog) Register(ents ...Entry) error {
	if c.frozen {
		return ErrFrozen
	}
	seenID := map[spec.GID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	parsed := make([]*spec.GameSetting, len(ents))
	for i := range ents {
		e := &ents[i]
		e.Name = normName(e.Name)
		if e.Name == "" {
			return errs.NewFatal("game name required")
		}
		if err := validFileName(e.ConfigName); err != nil {
			return err
		}
		if _, ok := c.byID[e.GID]; ok {
			return ErrDupID.Withf("gid=%d", e.GID)
		}
		if _, ok := seenID[e.GID]; ok {
			return ErrDupID.Withf("gid=%d", e.GID)
		}
		if _, ok := c.byName[e.Name]; ok {
			return ErrDupName.With(e.Name)
		}
		if _, ok := seenName[e.Name]; ok {
			return ErrDupName.With(e.Name)
		}
		if _, ok := seenCfg[e.ConfigName]; ok || c.hasConfig(e.ConfigName) {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", e.ConfigName))
		}
		gs, err := c.config.parse(e.ConfigName)
		if err != nil {
			return err
		}
		if gs.GameID != e.GID || normName(gs.GameName) != e.Name {
			return errs.NewFatal(fmt.Sprintf("config %s declares gid=%d name=%q, entry says gid=%d name=%q",
				e.ConfigName, gs.GameID, gs.GameName, e.GID, e.Name))
		}
		parsed[i] = gs
		seenID[e.GID] = struct{}{}
		seenName[e.Name] = struct{}{}
		seenCfg[e.ConfigName] = struct{}{}
	}
	for i, e := range ents {
		c.byID[e.GID] = e
		c.byName[e.Name] = e
		c.settings[e.GID] = parsed[i]
		c.ids = append(c.ids, e.GID)
	}
	slices.Sort(c.ids)
	return nil
}

func (c *Catalog) hasConfig(name string) bool {
	for _, e := range c.byID {
		if e.ConfigName == name {
			return true
		}
	}
	return false
}

// Scan 掃描所有來源，回傳每個設定檔宣告的 Entry (依檔名排序)，不做註冊。
func (c *Catalog) Scan() ([]Entry, error) {
	names := c.config.names()
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		gs, err := c.config.parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{GID: gs.GameID, Name: gs.GameName, ConfigName: name})
	}
	return out, nil
}

func (c *Catalog) GetByID(id spec.GID) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	e, ok := c.byName[normName(name)]
	return e, ok
}

func (c *Catalog) IDs() []spec.GID {
	return slices.Clone(c.ids)
}

func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

// GameSettingByID 回傳快取的設定。設定為共用只讀物件，呼叫端不可修改。
func (c *Catalog) GameSettingByID(id spec.GID) (*spec.GameSetting, error) {
	gs, ok := c.settings[id]
	if !ok {
		return nil, ErrNotFound.Withf("gid=%d", id)
	}
	return gs, nil
}

func (c *Catalog) GameSettingByName(name string) (*spec.GameSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, ErrNotFound.Withf("name=%q", name)
	}
	return c.GameSettingByID(e.GID)
}

// Summaries 依 GID 排序的摘要列表。
func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.ids))
	for _, id := range c.ids {
		gs := c.settings[id]
		out = append(out, Summary{
			GID:       id,
			Name:      gs.GameName,
			Size:      gs.Size,
			Kinds:     gs.KindNames(),
			Gravity:   gs.Gravity,
			ScoreCoef: gs.ScoreCoef,
		})
	}
	return out
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename)", file))
	}
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	if !spec.IsConfigFile(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	return nil
}

// multiFS 把多個扁平 fs.FS 合併成以檔名索引的單一視圖。
type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	m := &multiFS{src: src, index: make(map[string]int, 32)}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
		err := fs.WalkDir(s, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if strings.HasPrefix(path, ".") || !spec.IsConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) names() []string {
	out := make([]string, 0, len(m.index))
	for name := range m.index {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (m *multiFS) parse(name string) (*spec.GameSetting, error) {
	i, ok := m.index[name]
	if !ok {
		return nil, errs.NewFatal(fmt.Sprintf("config file not found: %s", name))
	}
	raw, err := fs.ReadFile(m.src[i], name)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	gs, err := spec.GetGameSettingByName(name, raw)
	if err != nil {
		return nil, errs.Wrap(err, "parse gamesetting failed: "+name)
	}
	return gs, nil
}
