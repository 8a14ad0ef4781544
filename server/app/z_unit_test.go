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

package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
)

type blocker struct {
	name  string
	stop  chan struct{}
	once  sync.Once
	order *[]string
	mu    *sync.Mutex
}

func newBlocker(name string, order *[]string, mu *sync.Mutex) *blocker {
	return &blocker{name: name, stop: make(chan struct{}), order: order, mu: mu}
}

func (b *blocker) Run() error {
	<-b.stop
	return nil
}

func (b *blocker) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	*b.order = append(*b.order, b.name)
	b.mu.Unlock()
	b.once.Do(func() { close(b.stop) })
	return nil
}

func TestRunUntilSignalShutsDownInReverse(t *testing.T) {
	var (
		order []string
		mu    sync.Mutex
	)
	a := NewWith(nil, newBlocker("runtime", &order, &mu), newBlocker("http", &order, &mu))
	stop := make(chan os.Signal, 1)
	stop <- syscall.SIGTERM
	if err := a.RunUntil(stop); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "http" || order[1] != "runtime" {
		t.Fatalf("shutdown order = %v", order)
	}
}

func TestRunUntilComponentError(t *testing.T) {
	boom := errors.New("listen failed")
	closed := false
	a := New(nil)
	a.Register(Funcs{
		RunFn:      func() error { return boom },
		ShutdownFn: func(context.Context) error { closed = true; return nil },
	})
	err := a.RunUntil(make(chan os.Signal))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if !closed {
		t.Fatalf("shutdown not called")
	}
}
