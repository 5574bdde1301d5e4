package progress

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/yleoer/sheetmusic/pkg/processor"
)

func TestLogSinkConcurrentDone(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(log.New(&buf, "", 0))
	sink.Start(50)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Done(processor.Result{Unit: "song", Status: processor.StatusOK})
		}()
	}
	wg.Wait()
	sink.Finish()

	if got := sink.Completed(); got != 50 {
		t.Errorf("completed = %d, want 50", got)
	}
	if !strings.Contains(buf.String(), "[50/50]") {
		t.Errorf("log does not mention final count:\n%s", buf.String())
	}
}

func TestBarSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewBarSink(&buf)
	sink.Start(3)
	for i := 0; i < 3; i++ {
		sink.Done(processor.Result{})
	}
	sink.Finish()
	if sink.bar.Current() != 3 {
		t.Errorf("bar current = %d", sink.bar.Current())
	}
}
