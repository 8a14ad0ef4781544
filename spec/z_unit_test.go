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
	"testing"
)

const classicYAML = `
game_name: classic
game_id: 1
size: 9
kinds:
  - {name: red, weight: 1}
  - {name: blue, weight: 1}
  - {name: green, weight: 1}
fixed:
  bonus_base: 2000
`

func TestGetGameSettingByYAML(t *testing.T) {
	gs, err := GetGameSettingByYAML([]byte(classicYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if gs.Gravity != GravityLow || gs.ScoreCoef != DefaultScoreCoef || gs.MaxRegen != DefaultMaxRegen {
		t.Fatalf("defaults not applied: %+v", gs)
	}
	if len(gs.KindLUT) != 3 {
		t.Fatalf("unexpected kind lut %v", gs.KindLUT)
	}
	if gs.Score(4) != 80 {
		t.Fatalf("score(4)=%d", gs.Score(4))
	}
	names := gs.KindNames()
	if len(names) != 3 || names[1] != "blue" {
		t.Fatalf("unexpected kind names %v", names)
	}
}

func TestGetGameSettingByJSON(t *testing.T) {
	raw := `{"game_name":"mini","game_id":2,"size":4,"gravity":"HIGH","score_coef":3,
	"kinds":[{"name":"a","weight":2},{"name":"b","weight":1}]}`
	gs, err := GetGameSettingByJSON([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if gs.Gravity != GravityHigh || gs.ScoreCoef != 3 {
		t.Fatalf("unexpected setting %+v", gs)
	}
}

func TestGameSettingRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": `{"game_name":"x","game_id":1,"size":3,"kinds":[{"name":"a","weight":1}],"bet":1}`,
		"zero size":     `{"game_name":"x","game_id":1,"size":0,"kinds":[{"name":"a","weight":1}]}`,
		"no kinds":      `{"game_name":"x","game_id":1,"size":3,"kinds":[]}`,
		"dup kind":      `{"game_name":"x","game_id":1,"size":3,"kinds":[{"name":"a","weight":1},{"name":"A","weight":1}]}`,
		"zero weights":  `{"game_name":"x","game_id":1,"size":3,"kinds":[{"name":"a","weight":0}]}`,
		"bad gravity":   `{"game_name":"x","game_id":1,"size":3,"gravity":"left","kinds":[{"name":"a","weight":1}]}`,
		"no name":       `{"game_id":1,"size":3,"kinds":[{"name":"a","weight":1}]}`,
	}
	for name, raw := range cases {
		if _, err := GetGameSettingByJSON([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestGetGameSettingByName(t *testing.T) {
	if _, err := GetGameSettingByName("classic.yml", []byte(classicYAML)); err != nil {
		t.Fatalf("yml: %v", err)
	}
	if _, err := GetGameSettingByName("classic.toml", []byte(classicYAML)); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if !IsConfigFile("A.JSON") || IsConfigFile("readme.md") {
		t.Fatalf("IsConfigFile mismatch")
	}
}

type bonusFixed struct {
	BonusBase int `yaml:"bonus_base"`
	BonusStep int `yaml:"bonus_step"`
}

func TestDecodeFixed(t *testing.T) {
	gs, err := GetGameSettingByYAML([]byte(classicYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := bonusFixed{}
	if err := DecodeFixed(gs, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.BonusBase != 2000 {
		t.Fatalf("unexpected fixed %+v", out)
	}

	gs.Fixed = nil
	keep := bonusFixed{BonusStep: 20}
	if err := DecodeFixed(gs, &keep); err != nil || keep.BonusStep != 20 {
		t.Fatalf("empty fixed must leave out untouched: %+v err=%v", keep, err)
	}

	gs.Fixed = map[string]any{"typo": 1}
	if err := DecodeFixed(gs, &out); err == nil {
		t.Fatalf("expected strict decode error")
	}
}
