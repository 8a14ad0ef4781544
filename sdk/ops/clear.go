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

package ops

import "github.com/zintix-labs/popstar/sdk/board"

// Clear 消除指定座標上的方塊。
// 先檢查全部座標，任一越界則整批不動。
func Clear(b *board.Board, coords []board.Coord) error {
	for _, c := range coords {
		if !b.InBounds(c) {
			return board.ErrOutOfBounds.Withf("coord=%v size=%d", c, b.Size())
		}
	}
	for _, c := range coords {
		if err := b.Remove(c); err != nil {
			return err
		}
	}
	return nil
}
