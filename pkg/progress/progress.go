package progress

import (
	"io"
	"log"
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"

	"github.com/yleoer/sheetmusic/pkg/processor"
)

const barTemplate = `  {{ bar . " " "▸" "▹" " " " "}} {{counters .}} {{percent .}} {{etime .}}`

// BarSink 在终端显示进度条
type BarSink struct {
	out io.Writer
	bar *pb.ProgressBar
}

// NewBarSink 创建一个写入 out 的进度条
func NewBarSink(out io.Writer) *BarSink {
	return &BarSink{out: out}
}

func (s *BarSink) Start(total int) {
	s.bar = pb.New(total).
		SetTemplateString(barTemplate).
		SetWriter(s.out).
		Start()
}

// Done 可在多个协程中并发调用
func (s *BarSink) Done(processor.Result) {
	s.bar.Increment()
}

func (s *BarSink) Finish() {
	if s.bar != nil {
		s.bar.Finish()
	}
}

// LogSink 不适合显示进度条时（例如输出不是终端），按完成顺序逐行记录进度
type LogSink struct {
	logger *log.Logger
	total  int
	done   atomic.Int64
}

// NewLogSink 创建一个新的 LogSink 实例
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Start(total int) {
	s.total = total
	s.done.Store(0)
}

func (s *LogSink) Done(res processor.Result) {
	n := s.done.Add(1)
	s.logger.Printf("  -> [%d/%d] %s: %s", n, s.total, res.Unit, res.Status)
}

func (s *LogSink) Finish() {}

// Completed 已完成的单元数
func (s *LogSink) Completed() int {
	return int(s.done.Load())
}
