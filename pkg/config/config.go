package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yleoer/sheetmusic/pkg/processor"
	"github.com/yleoer/sheetmusic/pkg/recolor"
)

type Config struct {
	InputDir          string                      `json:"input_dir"`          // 源图片目录
	OutputDir         string                      `json:"output_dir"`         // 输出目录
	DataDir           string                      `json:"data_dir"`           // SQLite数据库文件存放目录
	DBFileName        string                      `json:"db_file_name"`       // SQLite数据库文件名
	DBPath            string                      `json:"-"`                  // 完整的数据库文件路径
	Mode              processor.ProcessMode       `json:"process_mode"`       // 处理模式
	Algorithm         recolor.Algorithm           `json:"algorithm"`          // 变色算法
	Target            recolor.ColorTarget         `json:"text_color"`         // 文字目标颜色
	Compression       processor.CompressionPolicy `json:"compression"`        // 输出压缩策略
	ParallelThreshold int                         `json:"parallel_threshold"` // 达到该数量才启用并行
	MaxWorkers        int                         `json:"max_workers"`        // 最大并行数
	NormalizeNames    bool                        `json:"normalize_names"`    // 分组时把繁体歌名转为简体
	SkipUnchanged     bool                        `json:"skip_unchanged"`     // 跳过输入和参数都未变化的输出
	WatchDebounce     time.Duration               `json:"watch_debounce"`     // 文件变化后延迟多久开始处理
	WatchQuiet        time.Duration               `json:"watch_quiet"`        // 文件在多长时间内没有变化才算稳定
	WatchMaxWait      time.Duration               `json:"watch_max_wait"`     // 最长等待文件稳定的时间
	LogFile           string                      `json:"log_file"`           // 额外写入的日志文件
	ProgressBar       bool                        `json:"progress_bar"`       // 是否显示终端进度条
}

const (
	inputDir  = "./input"
	outputDir = "./output"
	dataDir   = "./data"

	dbFileName = "sheetmusic.db"
	textColor  = "#DAA520"

	parallelThreshold = 5
	maxWorkers        = 4

	watchDebounce = 3 * time.Second
	watchQuiet    = 5 * time.Second
	watchMaxWait  = 10 * time.Minute
)

// LoadConfig 从环境变量或默认值加载配置
func LoadConfig() (*Config, error) {
	// 尝试加载 .env 文件
	_ = godotenv.Load()

	cfg := &Config{
		InputDir:          os.Getenv("INPUT_DIR"),
		OutputDir:         os.Getenv("OUTPUT_DIR"),
		DataDir:           os.Getenv("DATA_DIR"),
		DBFileName:        os.Getenv("DB_FILE_NAME"),
		ParallelThreshold: parseIntOrDefault(os.Getenv("PARALLEL_THRESHOLD"), parallelThreshold),
		MaxWorkers:        parseIntOrDefault(os.Getenv("MAX_WORKERS"), maxWorkers),
		NormalizeNames:    parseBoolOrDefault(os.Getenv("NORMALIZE_NAMES"), false),
		SkipUnchanged:     parseBoolOrDefault(os.Getenv("SKIP_UNCHANGED"), true),
		WatchDebounce:     parseDurationOrDefault(os.Getenv("WATCH_DEBOUNCE"), watchDebounce),
		WatchQuiet:        parseDurationOrDefault(os.Getenv("WATCH_QUIET"), watchQuiet),
		WatchMaxWait:      parseDurationOrDefault(os.Getenv("WATCH_MAX_WAIT"), watchMaxWait),
		LogFile:           os.Getenv("LOG_FILE"),
		ProgressBar:       parseBoolOrDefault(os.Getenv("PROGRESS_BAR"), true),
		Compression: processor.CompressionPolicy{
			Enabled: parseBoolOrDefault(os.Getenv("ENABLE_COMPRESSION"), true),
			Quality: processor.ClampQuality(parseIntOrDefault(os.Getenv("COMPRESSION_QUALITY"), processor.DefaultQuality)),
		},
	}

	var err error
	if cfg.Mode, err = processor.ParseProcessMode(valueOrDefault(os.Getenv("PROCESS_MODE"), string(processor.ModeInvertOnly))); err != nil {
		return nil, fmt.Errorf("invalid PROCESS_MODE: %w", err)
	}
	if cfg.Algorithm, err = recolor.ParseAlgorithm(valueOrDefault(os.Getenv("ALGORITHM"), string(recolor.AlgorithmAuto))); err != nil {
		return nil, fmt.Errorf("invalid ALGORITHM: %w", err)
	}
	if cfg.Target, err = recolor.ParseColorTarget(valueOrDefault(os.Getenv("TEXT_COLOR"), textColor)); err != nil {
		return nil, fmt.Errorf("invalid TEXT_COLOR: %w", err)
	}
	cfg.Target.R = parseChannelOrDefault(os.Getenv("TEXT_R"), cfg.Target.R)
	cfg.Target.G = parseChannelOrDefault(os.Getenv("TEXT_G"), cfg.Target.G)
	cfg.Target.B = parseChannelOrDefault(os.Getenv("TEXT_B"), cfg.Target.B)

	// 设置默认值
	if cfg.InputDir == "" {
		cfg.InputDir = inputDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = outputDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cfg.DBFileName == "" {
		cfg.DBFileName = dbFileName
	}
	if cfg.ParallelThreshold < 1 {
		cfg.ParallelThreshold = parallelThreshold
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = maxWorkers
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, cfg.DBFileName)
	// 输入目录必须由用户提供，这里只创建数据库目录；输出目录在每次批处理开始时创建
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", cfg.DataDir, err)
	}
	log.Printf("Configuration loaded: InputDir=%s, OutputDir=%s, Mode=%s, Algorithm=%s, Color=%s, DBPath=%s",
		cfg.InputDir, cfg.OutputDir, cfg.Mode, cfg.Algorithm, cfg.Target.Hex(), cfg.DBPath)
	return cfg, nil
}

func valueOrDefault(s, defaultValue string) string {
	if strings.TrimSpace(s) == "" {
		return defaultValue
	}
	return s
}

func parseDurationOrDefault(s string, defaultValue time.Duration) time.Duration {
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Warning: Could not parse duration '%s', using default '%v'. Error: %v", s, defaultValue, err)
		return defaultValue
	}
	return d
}

func parseIntOrDefault(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Warning: Could not parse integer '%s', using default '%d'. Error: %v", s, defaultValue, err)
		return defaultValue
	}
	return n
}

func parseBoolOrDefault(s string, defaultValue bool) bool {
	if s == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Warning: Could not parse boolean '%s', using default '%t'. Error: %v", s, defaultValue, err)
		return defaultValue
	}
	return b
}

// parseChannelOrDefault 解析单个颜色通道，超出 0–255 的值被截断
func parseChannelOrDefault(s string, defaultValue uint8) uint8 {
	if s == "" {
		return defaultValue
	}
	n := parseIntOrDefault(s, int(defaultValue))
	return uint8(min(max(n, 0), 255))
}
