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

// Package perf 以 runtime/pprof 包住一段執行，輸出 cpu / heap / allocs profile。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/popstar/errs"
)

// DefaultDir pprof 檔案預設寫入路徑
const DefaultDir = "build/profiling"

type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	default:
		return ModeNone, errs.Warnf("unknown pprof mode %q (cpu|heap|allocs)", s)
	}
}

// Run 依 mode 決定以哪種 profiling 執行 exe；dir 為空時使用 DefaultDir。
//
//	go run ./cmd/run -p cpu
//	go tool pprof build/profiling/cpu.pprof
func Run(exe func(), mode Mode, dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case ModeNone:
		exe()
		return nil
	case ModeCPU:
		return CPU(exe, dir)
	case ModeHeap:
		return Heap(exe, dir)
	case ModeAllocs:
		return Allocs(exe, dir)
	default:
		return errs.Warnf("unknown pprof mode %q", string(mode))
	}
}

func create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create profiling dir")
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, errs.Wrap(err, "create "+name)
	}
	return f, nil
}

// CPU 對 exe 做 CPU profiling，也可以拿來做 pgo 的 blueprint。
func CPU(exe func(), dir string) error {
	f, err := create(dir, "cpu.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()

	exe()
	return nil
}

// Heap 會在 exe() 執行完後，寫出一次 Heap Snapshot（in-use memory）。
// 寫出前呼叫一次 runtime.GC()，以獲得較準確的 Live Objects 視圖。
func Heap(exe func(), dir string) error {
	exe()

	f, err := create(dir, "heap.pprof")
	if err != nil {
		return err
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return errs.Wrap(err, "write heap profile")
	}
	return nil
}

// Allocs 會在 exe() 後寫出「累積配置」(allocs) Profile，
// 搭配 -alloc_space / -alloc_objects 查看整體分配熱點。
func Allocs(exe func(), dir string) error {
	exe()

	f, err := create(dir, "allocs.pprof")
	if err != nil {
		return err
	}
	defer f.Close()

	if prof := pprof.Lookup("allocs"); prof != nil {
		if err := prof.WriteTo(f, 0); err != nil {
			return errs.Wrap(err, "write allocs profile")
		}
	}
	return nil
}
