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
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/popstar/errs"
	"gopkg.in/yaml.v3"
)

// GetGameSettingByYAML 讀取 YAML 設定 (未知欄位視為錯誤)，初始化並檢查後回傳。
func GetGameSettingByYAML(data []byte) (*GameSetting, error) {
	gs := &GameSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(gs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := gs.init(); err != nil {
		return nil, errs.Wrap(err, "game setting initialized err")
	}
	return gs, nil
}

// GetGameSettingByJSON 讀取 JSON 設定 (未知欄位視為錯誤)，初始化並檢查後回傳。
func GetGameSettingByJSON(data []byte) (*GameSetting, error) {
	gs := &GameSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(gs); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := gs.init(); err != nil {
		return nil, errs.Wrap(err, "game setting initialized err")
	}
	return gs, nil
}

// IsConfigFile 副檔名是否為支援的設定格式。
func IsConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// GetGameSettingByName 依檔名副檔名選擇解析器。
func GetGameSettingByName(name string, data []byte) (*GameSetting, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return GetGameSettingByYAML(data)
	case ".json":
		return GetGameSettingByJSON(data)
	}
	return nil, errs.NewFatal("unsupported config format: " + name)
}
