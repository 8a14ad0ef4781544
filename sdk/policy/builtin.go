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

package policy

import (
	"github.com/zintix-labs/popstar/sdk/chunk"
	"github.com/zintix-labs/popstar/sdk/core"
)

const (
	Random   = "random"
	Greedy   = "greedy"
	Smallest = "smallest"
)

// Builtin 內建策略：random / greedy (最大群組) / smallest (最小群組)。
func Builtin() *Registry {
	r := NewRegistry()
	_ = r.Register(Random, func() Policy { return Func(pickRandom) })
	_ = r.Register(Greedy, func() Policy { return Func(pickLargest) })
	_ = r.Register(Smallest, func() Policy { return Func(pickSmallest) })
	return r
}

func pickRandom(groups []chunk.Group, c *core.Core) chunk.Group {
	return groups[c.IntN(len(groups))]
}

// 同分取第一個，結果對相同盤面是決定性的
func pickLargest(groups []chunk.Group, _ *core.Core) chunk.Group {
	best := groups[0]
	for _, g := range groups[1:] {
		if g.Size() > best.Size() {
			best = g
		}
	}
	return best
}

func pickSmallest(groups []chunk.Group, _ *core.Core) chunk.Group {
	best := groups[0]
	for _, g := range groups[1:] {
		if g.Size() < best.Size() {
			best = g
		}
	}
	return best
}
