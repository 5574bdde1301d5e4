package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yleoer/sheetmusic/pkg/database"
	"github.com/yleoer/sheetmusic/pkg/processor"
)

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

type countingSink struct {
	mu      sync.Mutex
	total   int
	done    []string
	started bool
	ended   bool
}

func (s *countingSink) Start(total int) { s.total = total; s.started = true }
func (s *countingSink) Done(res processor.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, res.Unit)
}
func (s *countingSink) Finish() { s.ended = true }

func okUnit(name string, running, peak *int32) Unit {
	return Unit{
		Name: name,
		Run: func() processor.Result {
			if running != nil {
				n := atomic.AddInt32(running, 1)
				for {
					p := atomic.LoadInt32(peak)
					if n <= p || atomic.CompareAndSwapInt32(peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(running, -1)
			}
			return processor.Result{Unit: name, Status: processor.StatusOK}
		},
	}
}

func TestWorkers(t *testing.T) {
	e := NewExecutor(5, 4, discard())
	tests := []struct{ n, want int }{{0, 1}, {4, 1}, {5, 4}, {9, 4}}
	for _, tt := range tests {
		if got := e.Workers(tt.n); got != tt.want {
			t.Errorf("Workers(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
	e.MaxWorkers = 8
	if got := e.Workers(6); got != 6 {
		t.Errorf("Workers(6) with 8 max = %d", got)
	}
}

func TestRunSequentialBelowThreshold(t *testing.T) {
	var running, peak int32
	units := make([]Unit, 4)
	for i := range units {
		units[i] = okUnit(fmt.Sprintf("u%d", i), &running, &peak)
	}
	sink := &countingSink{}
	e := NewExecutor(5, 4, discard())
	e.Sink = sink
	s := e.Run(context.Background(), units)
	if s.OK != 4 || len(s.Results) != 4 {
		t.Fatalf("summary = %+v", s)
	}
	if peak != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak)
	}
	for i, name := range sink.done {
		if name != fmt.Sprintf("u%d", i) {
			t.Errorf("sequential completion order = %v", sink.done)
			break
		}
	}
	if !sink.started || !sink.ended || sink.total != 4 {
		t.Errorf("sink = %+v", sink)
	}
}

func TestRunParallelKeepsResultOrder(t *testing.T) {
	var running, peak int32
	units := make([]Unit, 12)
	for i := range units {
		units[i] = okUnit(fmt.Sprintf("u%d", i), &running, &peak)
	}
	sink := &countingSink{}
	e := NewExecutor(5, 4, discard())
	e.Sink = sink
	s := e.Run(context.Background(), units)
	if s.OK != 12 {
		t.Fatalf("summary = %s", s)
	}
	for i, res := range s.Results {
		if res.Unit != fmt.Sprintf("u%d", i) {
			t.Errorf("result %d = %s", i, res.Unit)
		}
	}
	if peak > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", peak)
	}
	if len(sink.done) != 12 {
		t.Errorf("sink saw %d results", len(sink.done))
	}
}

func TestRunRecoversPanicsAndCounts(t *testing.T) {
	units := []Unit{
		okUnit("a", nil, nil),
		{Name: "b", Run: func() processor.Result { panic("boom") }},
		{Name: "c", Run: func() processor.Result { return processor.Failed("c", "", errors.New("disk full")) }},
		{Name: "d", Run: func() processor.Result {
			return processor.Result{Unit: "d", Status: processor.StatusDegraded, Reason: "recolor failed"}
		}},
	}
	s := NewExecutor(5, 4, discard()).Run(context.Background(), units)
	if s.OK != 1 || s.Failed != 2 || s.Degraded != 1 || s.Skipped != 0 {
		t.Errorf("summary = %s", s)
	}
	if s.Results[1].Unit != "b" || s.Results[1].Status != processor.StatusFailed {
		t.Errorf("panic result = %+v", s.Results[1])
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	units := []Unit{{Name: "x", Run: func() processor.Result { ran = true; return processor.Result{} }}}
	s := NewExecutor(5, 4, discard()).Run(ctx, units)
	if ran || s.Skipped != 1 || s.Results[0].Reason != "canceled" {
		t.Errorf("ran=%v summary=%s", ran, s)
	}
}

type memStore struct {
	mu      sync.Mutex
	records map[string]database.OutputRecord
}

func newMemStore() *memStore { return &memStore{records: map[string]database.OutputRecord{}} }

func (m *memStore) IsOutputCurrent(output, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[output]
	return ok && r.Fingerprint == fingerprint && r.Status == "ok", nil
}

func (m *memStore) RecordOutput(output, fingerprint, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[output] = database.OutputRecord{Output: output, Fingerprint: fingerprint, Status: status}
	return nil
}

func (m *memStore) RecentOutputs(int) ([]database.OutputRecord, error) { return nil, nil }
func (m *memStore) Close() error { return nil }

func TestRunSkipsUnchangedOutputs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a.jpg")
	var runs int
	unit := Unit{Name: "a", Output: out, Fingerprint: "fp", Run: func() processor.Result {
		runs++
		if err := os.WriteFile(out, []byte("x"), 0644); err != nil {
			return processor.Failed("a", out, err)
		}
		return processor.Result{Unit: "a", Output: out, Status: processor.StatusOK}
	}}
	e := NewExecutor(5, 4, discard())
	e.Ledger = newMemStore()

	e.Run(context.Background(), []Unit{unit})
	s := e.Run(context.Background(), []Unit{unit})
	if runs != 1 || s.Skipped != 1 {
		t.Errorf("runs=%d summary=%s", runs, s)
	}

	// 输出文件被删除后需要重新生成
	os.Remove(out)
	e.Run(context.Background(), []Unit{unit})
	if runs != 2 {
		t.Errorf("runs after delete = %d", runs)
	}

	unit.Fingerprint = "fp2"
	e.Run(context.Background(), []Unit{unit})
	if runs != 3 {
		t.Errorf("runs after fingerprint change = %d", runs)
	}
}
