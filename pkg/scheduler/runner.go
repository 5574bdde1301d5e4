package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/yleoer/sheetmusic/pkg/config"
	"github.com/yleoer/sheetmusic/pkg/database"
	"github.com/yleoer/sheetmusic/pkg/processor"
	"github.com/yleoer/sheetmusic/pkg/recolor"
	"github.com/yleoer/sheetmusic/pkg/scanner"
	"github.com/yleoer/sheetmusic/pkg/util"
)

// ErrInvalidInputDir 输入目录不存在或不是目录，整个批处理在开始前中止
var ErrInvalidInputDir = errors.New("invalid input directory")

// BatchRunner 负责列出图片、构建处理单元并调度执行
type BatchRunner struct {
	cfg         *config.Config
	songScanner *scanner.SongScanner
	processor   *processor.ImageProcessor
	executor    *Executor
	logger      *log.Logger

	runMutex sync.Mutex // 同一时间只运行一个批处理

	pendingMutex sync.Mutex // 保护 pending 和 draining
	pending      *time.Timer
	ctx          context.Context
	inflight     sync.WaitGroup // 已安排或正在执行的延迟批处理
	draining     bool           // 为 true 时 TriggerRun 不再安排新的批处理
}

// NewBatchRunner 创建一个新的 BatchRunner 实例。dbStore 为 nil 时不跳过未变化的输出。
func NewBatchRunner(
	cfg *config.Config,
	dbStore database.OutputStore,
	songScanner *scanner.SongScanner,
	imageProcessor *processor.ImageProcessor,
	sink ProgressSink,
	logger *log.Logger,
) *BatchRunner {
	executor := NewExecutor(cfg.ParallelThreshold, cfg.MaxWorkers, logger)
	executor.Sink = sink
	if cfg.SkipUnchanged && dbStore != nil {
		executor.Ledger = dbStore
	}
	return &BatchRunner{
		cfg:         cfg,
		songScanner: songScanner,
		processor:   imageProcessor,
		executor:    executor,
		logger:      logger,
		ctx:         context.Background(),
	}
}

// RunOnce 对输入目录执行一次完整的批处理
func (br *BatchRunner) RunOnce(ctx context.Context) (Summary, error) {
	br.runMutex.Lock()
	defer br.runMutex.Unlock()

	if !util.IsDirectory(br.cfg.InputDir) {
		return Summary{}, fmt.Errorf("%w: %s", ErrInvalidInputDir, br.cfg.InputDir)
	}
	if err := os.MkdirAll(br.cfg.OutputDir, 0755); err != nil {
		return Summary{}, fmt.Errorf("failed to create output directory %s: %w", br.cfg.OutputDir, err)
	}
	paths, err := scanner.ListImages(br.cfg.InputDir)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrInvalidInputDir, err)
	}

	br.logHeader()
	units := br.buildUnits(paths)
	if len(units) == 0 {
		if br.cfg.Mode.Grouped() {
			br.logger.Println("No songs found. Check that file names follow the 第N首 歌名页码 convention.")
		} else {
			br.logger.Printf("No images found in %s.", br.cfg.InputDir)
		}
		return Summary{}, nil
	}

	start := time.Now()
	summary := br.executor.Run(ctx, units)
	for _, res := range summary.Results {
		br.logResult(res)
	}
	br.logger.Printf("Batch finished in %v: %s.", time.Since(start).Round(time.Millisecond), summary)
	return summary, nil
}

// logHeader 输出本次批处理使用的模式与压缩设置
func (br *BatchRunner) logHeader() {
	br.logger.Printf("Processing %s -> %s", br.cfg.InputDir, br.cfg.OutputDir)
	br.logger.Printf("Mode: %s, algorithm: %s, text colour: %s", br.cfg.Mode.Describe(), describeAlgorithm(br.cfg.Algorithm), br.cfg.Target)
	br.logger.Printf("Compression: %s", br.cfg.Compression)
	br.logger.Println(strings.Repeat("=", 50))
}

func describeAlgorithm(alg recolor.Algorithm) string {
	switch alg {
	case recolor.AlgorithmAuto:
		return "auto (quality for images with transparency, fast otherwise)"
	case recolor.AlgorithmQuality:
		return "quality"
	}
	return "fast"
}

func (br *BatchRunner) logResult(res processor.Result) {
	switch res.Status {
	case processor.StatusOK:
		if res.Reason != "" {
			br.logger.Printf("  -> Saved %s (%s)", filepath.Base(res.Output), res.Reason)
		} else {
			br.logger.Printf("  -> Saved %s", filepath.Base(res.Output))
		}
	case processor.StatusDegraded:
		br.logger.Printf("  -> WARN: Saved original image for %s: %s", res.Unit, res.Reason)
	case processor.StatusSkipped:
		br.logger.Printf("  -> Skipped %s: %s", res.Unit, res.Reason)
	case processor.StatusFailed:
		br.logger.Printf("  -> ERROR: %s: %s", res.Unit, res.Reason)
	}
}

// buildUnits 按处理模式构建处理单元：仅变色模式每个文件一个单元，其余模式每首歌一个单元
func (br *BatchRunner) buildUnits(paths []string) []Unit {
	mode := br.cfg.Mode
	if !mode.Grouped() {
		units := make([]Unit, 0, len(paths))
		for _, path := range paths {
			path := path
			units = append(units, Unit{
				Name:        filepath.Base(path),
				Output:      br.processor.FileOutputPath(path),
				Fingerprint: br.fingerprint([]string{path}),
				Run:         func() processor.Result { return br.processor.RecolorFile(path) },
			})
		}
		return units
	}

	groups, unparsed := br.songScanner.GroupSongs(paths)
	if len(unparsed) > 0 {
		br.logger.Printf("WARN: %d file(s) do not match any naming pattern and were ignored.", len(unparsed))
	}
	units := make([]Unit, 0, len(groups))
	for _, g := range groups {
		g := g
		units = append(units, Unit{
			Name:        fmt.Sprintf("第%s首 %s", g.SongID, g.SongName),
			Output:      br.processor.GroupOutputPath(g, mode),
			Fingerprint: br.fingerprint(g.Paths()),
			Run:         func() processor.Result { return br.processor.ProcessGroup(g, mode) },
		})
	}
	return units
}

// fingerprint 由处理参数以及每个源文件的路径、大小和修改时间计算摘要
func (br *BatchRunner) fingerprint(paths []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%v\n", br.cfg.Mode, br.cfg.Algorithm, br.cfg.Target.Hex(), br.cfg.Compression)
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			// 读不到的文件总是重新处理
			return ""
		}
		fmt.Fprintf(h, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil))
}
