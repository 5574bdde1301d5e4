package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/yleoer/sheetmusic/pkg/config"
	"github.com/yleoer/sheetmusic/pkg/converter"
	"github.com/yleoer/sheetmusic/pkg/database"
	"github.com/yleoer/sheetmusic/pkg/processor"
	"github.com/yleoer/sheetmusic/pkg/progress"
	"github.com/yleoer/sheetmusic/pkg/raster"
	"github.com/yleoer/sheetmusic/pkg/recolor"
	"github.com/yleoer/sheetmusic/pkg/scanner"
	"github.com/yleoer/sheetmusic/pkg/scheduler"
)

const usage = `usage:
  sheetmusic run [input] [output]     process the input directory once
  sheetmusic watch [input] [output]   process, then re-run whenever images change
  sheetmusic inspect <image>...       show how each image would be classified
  sheetmusic history [n]              list the n most recent outputs (default 20)`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	// 1. 初始化日志器
	logger := log.New(os.Stdout, "[SheetMusic] ", log.LstdFlags|log.Lshortfile)

	switch cmd {
	case "inspect":
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		inspect(args)
		return
	case "run", "watch", "history":
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// 2. 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.Fatalf("Failed to open log file %s: %v", cfg.LogFile, err)
		}
		defer f.Close()
		logger.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	// 3. 数据库存储
	dbStore, err := database.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	if cmd == "history" {
		if err := history(dbStore, args); err != nil {
			logger.Printf("ERROR: %v", err)
			dbStore.Close()
			os.Exit(1)
		}
		return
	}

	// 命令行参数覆盖输入输出目录
	if len(args) > 0 {
		cfg.InputDir = args[0]
	}
	if len(args) > 1 {
		cfg.OutputDir = args[1]
	}

	// 4. 初始化所有依赖服务
	// 4.1 繁简体转换器，只在需要归一化歌名时加载词典
	var textConverter converter.TextConverter = converter.Identity{}
	if cfg.NormalizeNames {
		textConverter, err = converter.NewOpenCCConverter(logger)
		if err != nil {
			logger.Fatalf("Failed to initialize OpenCC converter: %v", err)
		}
	}
	// 4.2 歌曲扫描器
	songScanner := scanner.NewSongScanner(textConverter, logger)
	// 4.3 变色引擎与图片处理器
	engine := recolor.NewEngine(cfg.Algorithm, cfg.Target, logger)
	imageProcessor := processor.NewImageProcessor(engine, cfg.Compression, cfg.OutputDir, logger)
	// 4.4 进度显示
	var sink scheduler.ProgressSink = progress.NewLogSink(logger)
	if cfg.ProgressBar && isatty.IsTerminal(os.Stdout.Fd()) {
		sink = progress.NewBarSink(os.Stdout)
	}

	// 5. 初始化批处理调度器
	runner := scheduler.NewBatchRunner(cfg, dbStore, songScanner, imageProcessor, sink, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == "watch" {
		logger.Println("Starting watch mode. Press Ctrl+C to exit.")
		err = runner.Watch(ctx)
	} else {
		_, err = runner.RunOnce(ctx)
	}
	if err != nil {
		logger.Printf("ERROR: %v", err)
		if errors.Is(err, scheduler.ErrInvalidInputDir) {
			logger.Println("Please provide a valid input directory.")
		}
		stop()
		dbStore.Close()
		os.Exit(1)
	}
}

// inspect 打印每张图片的背景判断和算法选择，不写任何文件
func inspect(paths []string) {
	for _, path := range paths {
		r, err := raster.Load(path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			continue
		}
		rep := recolor.Inspect(r.Image, 3)
		fmt.Printf("%s (%s, %dx%d)\n", path, r.Format, rep.Width, rep.Height)
		fmt.Printf("  alpha channel:     %t\n", rep.HasAlpha)
		fmt.Printf("  edge luminance:    %.1f (%s background)\n", rep.EdgeLuminance, rep.EdgeBackground)
		fmt.Printf("  center background: %s\n", rep.CenterBackground)
		fmt.Printf("  auto algorithm:    %s\n", rep.Suggested)
		for _, c := range rep.Dominant {
			fmt.Printf("  dominant colour:   %s (%.0f%%)\n", c.Hex, c.Weight*100)
		}
	}
}

// history 列出最近的输出记录
func history(store database.OutputStore, args []string) error {
	n := 20
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		n = v
	}
	records, err := store.RecentOutputs(n)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No outputs recorded yet.")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-8s  %s\n", r.ProcessedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.Output)
	}
	return nil
}
