package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/yleoer/sheetmusic/pkg/database"
	"github.com/yleoer/sheetmusic/pkg/processor"
)

// Unit 一个独立的处理单元。单元之间不共享可变状态。
type Unit struct {
	Name        string                  // 日志中显示的名称
	Output      string                  // 输出文件路径
	Fingerprint string                  // 输入与参数摘要，为空时不查询记录
	Run         func() processor.Result // 执行处理
}

// ProgressSink 接收处理进度。Done 按完成顺序调用，可能来自不同的工作协程。
type ProgressSink interface {
	Start(total int)
	Done(res processor.Result)
	Finish()
}

type nopSink struct{}

func (nopSink) Start(int) {}
func (nopSink) Done(processor.Result) {}
func (nopSink) Finish() {}

// Summary 一次批处理的汇总
type Summary struct {
	Results  []processor.Result // 与输入单元顺序一致
	OK       int
	Skipped  int
	Failed   int
	Degraded int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d ok, %d degraded, %d skipped, %d failed", s.OK, s.Degraded, s.Skipped, s.Failed)
}

func (s *Summary) add(res processor.Result) {
	switch res.Status {
	case processor.StatusOK:
		s.OK++
	case processor.StatusSkipped:
		s.Skipped++
	case processor.StatusFailed:
		s.Failed++
	case processor.StatusDegraded:
		s.Degraded++
	}
}

// Executor 顺序或并行执行处理单元。单元数达到 Threshold 时启用工作池，
// 池大小为 min(MaxWorkers, 单元数)。
type Executor struct {
	Threshold  int
	MaxWorkers int
	Logger     *log.Logger
	Sink       ProgressSink
	Ledger     database.OutputStore // 为 nil 时不跳过也不记录
}

// NewExecutor 创建一个新的 Executor 实例
func NewExecutor(threshold, maxWorkers int, logger *log.Logger) *Executor {
	return &Executor{Threshold: threshold, MaxWorkers: maxWorkers, Logger: logger}
}

// Workers 处理 n 个单元时使用的并行数，1 表示顺序执行
func (e *Executor) Workers(n int) int {
	if n < max(e.Threshold, 1) || e.MaxWorkers <= 1 {
		return 1
	}
	return min(e.MaxWorkers, n)
}

// Run 执行所有单元并汇总结果。ctx 只在单元开始前检查，
// 已开始的单元会运行到结束；未开始的单元记为跳过。
func (e *Executor) Run(ctx context.Context, units []Unit) Summary {
	sink := e.Sink
	if sink == nil {
		sink = nopSink{}
	}
	results := make([]processor.Result, len(units))
	sink.Start(len(units))

	workers := e.Workers(len(units))
	if workers == 1 {
		for i, u := range units {
			results[i] = e.runUnit(ctx, u)
			sink.Done(results[i])
		}
	} else {
		e.Logger.Printf("Parallel mode enabled with %d workers.", workers)
		jobs := make(chan int, len(units))
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					// 每个协程只写自己领取的下标
					results[i] = e.runUnit(ctx, units[i])
					sink.Done(results[i])
				}
			}()
		}
		for i := range units {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}
	sink.Finish()

	summary := Summary{Results: results}
	for _, res := range results {
		summary.add(res)
	}
	return summary
}

// runUnit 执行单个单元。panic 被恢复为失败结果。
func (e *Executor) runUnit(ctx context.Context, u Unit) (res processor.Result) {
	if err := ctx.Err(); err != nil {
		return processor.Skipped(u.Name, u.Output, "canceled")
	}
	if e.upToDate(u) {
		return processor.Skipped(u.Name, u.Output, "unchanged")
	}
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Printf("  -> ERROR: %s panicked: %v", u.Name, r)
			res = processor.Failed(u.Name, u.Output, fmt.Errorf("panic: %v", r))
		}
		e.record(u, res)
	}()
	return u.Run()
}

// upToDate 输出文件存在且记录中的指纹一致时无需重新处理
func (e *Executor) upToDate(u Unit) bool {
	if e.Ledger == nil || u.Fingerprint == "" {
		return false
	}
	if _, err := os.Stat(u.Output); err != nil {
		return false
	}
	ok, err := e.Ledger.IsOutputCurrent(u.Output, u.Fingerprint)
	if err != nil {
		e.Logger.Printf("  -> WARN: could not check ledger for %s: %v", u.Name, err)
		return false
	}
	return ok
}

func (e *Executor) record(u Unit, res processor.Result) {
	if e.Ledger == nil || u.Fingerprint == "" || res.Status == processor.StatusSkipped {
		return
	}
	if err := e.Ledger.RecordOutput(u.Output, u.Fingerprint, res.Status.String()); err != nil {
		e.Logger.Printf("  -> WARN: could not record %s: %v", u.Name, err)
	}
}
