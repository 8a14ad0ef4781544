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

// Package policy 模擬器使用的選擇策略。
//
// 每局模擬會在當下所有可消除群組中，由 Policy 決定要消哪一組。
// Policy 以 Builder 建立，每個模擬 worker 各持有一份，不需要併發安全。
package policy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zintix-labs/popstar/errs"
	"github.com/zintix-labs/popstar/sdk/chunk"
	"github.com/zintix-labs/popstar/sdk/core"
)

var ErrUnknownPolicy = errs.NewCode(errs.Warn, "unknown_policy", "policy is not registered")

// Policy 從非空的可消除群組列表中挑一組。
type Policy interface {
	Choose(groups []chunk.Group, c *core.Core) chunk.Group
}

// Builder 建立一個新的 Policy 實例。
type Builder func() Policy

// Func 讓一般函式滿足 Policy。
type Func func(groups []chunk.Group, c *core.Core) chunk.Group

func (f Func) Choose(groups []chunk.Group, c *core.Core) chunk.Group { return f(groups, c) }

type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder, 8)}
}

func normKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Registry) Register(name string, b Builder) error {
	key := normKey(name)
	if key == "" || b == nil {
		return errs.NewFatal("policy name and builder required")
	}
	if _, ok := r.builders[key]; ok {
		return errs.NewFatal(fmt.Sprintf("duplicate policy %q", key))
	}
	r.builders[key] = b
	return nil
}

func (r *Registry) Build(name string) (Policy, error) {
	b, ok := r.builders[normKey(name)]
	if !ok {
		return nil, ErrUnknownPolicy.With(name)
	}
	return b(), nil
}

func (r *Registry) IsExist(name string) bool {
	_, ok := r.builders[normKey(name)]
	return ok
}

// Names 已註冊的策略名稱 (排序)。
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.builders))
	for k := range r.builders {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Merge 合併多個 registry；名稱重複一律視為錯誤。
func Merge(regs ...*Registry) (*Registry, error) {
	out := NewRegistry()
	origin := make(map[string]int, 8)
	for i, r := range regs {
		if r == nil {
			continue
		}
		for k, b := range r.builders {
			if prev, ok := origin[k]; ok {
				return nil, errs.NewFatal(fmt.Sprintf("duplicate policy %s (registry #%d and #%d)", k, prev, i))
			}
			out.builders[k] = b
			origin[k] = i
		}
	}
	return out, nil
}
