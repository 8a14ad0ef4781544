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

package spec

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/sampler"
)

// GID 遊戲設定編號，在同一個 Catalog 內唯一。
type GID uint

// Gravity 方塊掉落方向設定值。
type Gravity string

const (
	GravityLow  Gravity = "low"  // 往 row 0
	GravityHigh Gravity = "high" // 往 row N-1
)

const (
	MaxBoardSize     = 32
	MaxKinds         = 16
	DefaultScoreCoef = 5
	DefaultMaxRegen  = 100
)

// KindSetting 一種方塊的名稱與生成權重。
type KindSetting struct {
	Name   string `yaml:"name"   json:"name"`
	Weight int    `yaml:"weight" json:"weight"`
}

// GameSetting 建立一局遊戲所需的所有設定。
type GameSetting struct {
	GameName  string         `yaml:"game_name"  json:"game_name"`
	GameID    GID            `yaml:"game_id"    json:"game_id"`
	Size      int            `yaml:"size"       json:"size"`
	Kinds     []KindSetting  `yaml:"kinds"      json:"kinds"`
	Gravity   Gravity        `yaml:"gravity"    json:"gravity"`
	ScoreCoef int            `yaml:"score_coef" json:"score_coef"`
	MaxRegen  int            `yaml:"max_regen"  json:"max_regen"`
	Fixed     map[string]any `yaml:"fixed"      json:"fixed"`

	// KindLUT 第 i 格對應 Kind(i+1)
	KindLUT sampler.LUT `yaml:"-" json:"-"`
}

// init 補預設值、建查表並檢查。
func (gs *GameSetting) init() error {
	gs.GameName = strings.TrimSpace(gs.GameName)
	if gs.Gravity == "" {
		gs.Gravity = GravityLow
	}
	gs.Gravity = Gravity(strings.ToLower(string(gs.Gravity)))
	if gs.ScoreCoef == 0 {
		gs.ScoreCoef = DefaultScoreCoef
	}
	if gs.MaxRegen == 0 {
		gs.MaxRegen = DefaultMaxRegen
	}
	if err := gs.valid(); err != nil {
		return err
	}
	weights := make([]int, len(gs.Kinds))
	for i, k := range gs.Kinds {
		weights[i] = k.Weight
	}
	lut, err := sampler.BuildLUT(weights)
	if err != nil {
		return errs.Wrap(err, fmt.Sprintf("game_name: %s err:invalid kind weights", gs.GameName))
	}
	gs.KindLUT = lut
	return nil
}

// valid 執行最基本的設定檔檢查。
func (gs *GameSetting) valid() error {
	if gs.GameName == "" {
		return errs.NewFatal("game_name required")
	}
	if gs.Size < 1 || gs.Size > MaxBoardSize {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:size must be in [1,%d], got %d", gs.GameName, MaxBoardSize, gs.Size))
	}
	if len(gs.Kinds) == 0 || len(gs.Kinds) > MaxKinds {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:kinds count must be in [1,%d]", gs.GameName, MaxKinds))
	}
	seen := map[string]struct{}{}
	for _, k := range gs.Kinds {
		name := strings.ToLower(strings.TrimSpace(k.Name))
		if name == "" {
			return errs.NewFatal(fmt.Sprintf("game_name: %s err:empty kind name", gs.GameName))
		}
		if _, ok := seen[name]; ok {
			return errs.NewFatal(fmt.Sprintf("game_name: %s err:duplicate kind %q", gs.GameName, k.Name))
		}
		seen[name] = struct{}{}
	}
	switch gs.Gravity {
	case GravityLow, GravityHigh:
	default:
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:unknown gravity %q", gs.GameName, gs.Gravity))
	}
	if gs.ScoreCoef < 0 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:negative score_coef", gs.GameName))
	}
	if gs.MaxRegen < 0 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err:negative max_regen", gs.GameName))
	}
	return nil
}

// KindNames 依 Kind 編號 (1..n) 排列的名稱。
func (gs *GameSetting) KindNames() []string {
	out := make([]string, len(gs.Kinds))
	for i, k := range gs.Kinds {
		out[i] = k.Name
	}
	return out
}

// Score 消除 n 顆方塊的得分：coef * n^2
func (gs *GameSetting) Score(n int) int {
	return gs.ScoreCoef * n * n
}
