package processor

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/yleoer/sheetmusic/pkg/raster"
)

// 压缩质量范围及默认值
const (
	MinQuality      = 70
	MaxQuality      = 95
	DefaultQuality  = 82
	uncompressedQty = 95
)

// CompressionPolicy 输出 JPEG 的压缩策略
type CompressionPolicy struct {
	Enabled bool
	Quality int
}

// DefaultCompression 默认开启压缩，质量 82
var DefaultCompression = CompressionPolicy{Enabled: true, Quality: DefaultQuality}

// ClampQuality 将质量限制在 70–95 之间
func ClampQuality(q int) int {
	return min(max(q, MinQuality), MaxQuality)
}

// EffectiveQuality 实际写入时使用的质量：开启压缩时为配置值，关闭时固定 95
func (p CompressionPolicy) EffectiveQuality() int {
	if !p.Enabled {
		return uncompressedQty
	}
	return ClampQuality(p.Quality)
}

func (p CompressionPolicy) String() string {
	if p.Enabled {
		return fmt.Sprintf("enabled (quality=%d)", p.EffectiveQuality())
	}
	return fmt.Sprintf("disabled (quality=%d, no optimization)", uncompressedQty)
}

// Encode 丢弃透明通道后以 JPEG 写入 w
func Encode(w io.Writer, img image.Image, policy CompressionPolicy) error {
	if img == nil || img.Bounds().Empty() {
		return raster.ErrEmptyImage
	}
	return imaging.Encode(w, raster.DropAlpha(img), imaging.JPEG, imaging.JPEGQuality(policy.EffectiveQuality()))
}

// Save 将图像编码写入 path。先写入同目录下的临时文件再重命名，
// 中途失败不会留下半截的输出文件。
func Save(path string, img image.Image, policy CompressionPolicy) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheetmusic-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if err := Encode(tmp, img, policy); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
