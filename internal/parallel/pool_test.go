package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	if want := runtime.GOMAXPROCS(0); pool.Workers() != want {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), want)
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)

	if got := counter.Load(); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestWorkerPool_ExecuteAllAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("Pool should not be running after Close")
	}

	var counter atomic.Int64
	pool.ExecuteAll([]func(){
		func() { counter.Add(1) },
		func() { counter.Add(1) },
	})
	if got := counter.Load(); got != 2 {
		t.Errorf("closed pool ran %d items inline, want 2", got)
	}
}

func TestBands(t *testing.T) {
	tests := []struct {
		name   string
		height int
		n      int
		want   []Band
	}{
		{"even", 8, 4, []Band{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"uneven", 10, 3, []Band{{0, 3}, {3, 6}, {6, 10}}},
		{"more bands than rows", 2, 5, []Band{{0, 1}, {1, 2}}},
		{"zero bands", 5, 0, []Band{{0, 5}}},
		{"empty", 0, 4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bands(tt.height, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("Bands(%d, %d) = %v, want %v", tt.height, tt.n, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("band %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
