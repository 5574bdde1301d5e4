package config

import (
	"os"
	"testing"
	"time"

	"github.com/yleoer/sheetmusic/pkg/processor"
	"github.com/yleoer/sheetmusic/pkg/recolor"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"INPUT_DIR", "OUTPUT_DIR", "DATA_DIR", "PROCESS_MODE", "ALGORITHM", "TEXT_COLOR",
		"TEXT_R", "TEXT_G", "TEXT_B", "ENABLE_COMPRESSION", "COMPRESSION_QUALITY", "SKIP_UNCHANGED"} {
		t.Setenv(k, "")
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != processor.ModeInvertOnly || cfg.Algorithm != recolor.AlgorithmAuto {
		t.Errorf("mode=%s algorithm=%s", cfg.Mode, cfg.Algorithm)
	}
	if cfg.Target != recolor.DefaultTarget {
		t.Errorf("target = %v", cfg.Target)
	}
	if cfg.Compression != processor.DefaultCompression {
		t.Errorf("compression = %+v", cfg.Compression)
	}
	if !cfg.SkipUnchanged || cfg.ParallelThreshold != 5 || cfg.MaxWorkers != 4 {
		t.Errorf("skip=%v threshold=%d workers=%d", cfg.SkipUnchanged, cfg.ParallelThreshold, cfg.MaxWorkers)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PROCESS_MODE", "invert_concat")
	t.Setenv("ALGORITHM", "quality")
	t.Setenv("TEXT_COLOR", "ffffff")
	t.Setenv("TEXT_B", "300")
	t.Setenv("COMPRESSION_QUALITY", "50")
	t.Setenv("ENABLE_COMPRESSION", "false")
	t.Setenv("WATCH_QUIET", "2s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != processor.ModeInvertConcat || cfg.Algorithm != recolor.AlgorithmQuality {
		t.Errorf("mode=%s algorithm=%s", cfg.Mode, cfg.Algorithm)
	}
	if cfg.Target != (recolor.ColorTarget{R: 255, G: 255, B: 255}) {
		t.Errorf("target = %v", cfg.Target)
	}
	if cfg.Compression.Quality != 70 || cfg.Compression.Enabled {
		t.Errorf("compression = %+v", cfg.Compression)
	}
	if cfg.WatchQuiet != 2*time.Second {
		t.Errorf("watch quiet = %v", cfg.WatchQuiet)
	}
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PROCESS_MODE", "sideways")
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestParseHelpers(t *testing.T) {
	if got := parseDurationOrDefault("bogus", time.Second); got != time.Second {
		t.Errorf("duration = %v", got)
	}
	if got := parseIntOrDefault(" 7 ", 1); got != 7 {
		t.Errorf("int = %d", got)
	}
	if got := parseBoolOrDefault("maybe", true); !got {
		t.Error("bool fallback")
	}
	if got := parseChannelOrDefault("-4", 9); got != 0 {
		t.Errorf("channel = %d", got)
	}
}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
