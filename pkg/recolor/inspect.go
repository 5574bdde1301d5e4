package recolor

import (
	"image"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/yleoer/sheetmusic/pkg/raster"
)

// DominantColor 图片中的主要颜色及其占比
type DominantColor struct {
	Hex    string
	Weight float64
}

// Report 单张图片的诊断信息，用于在批量处理前确认算法会如何判断这张图
type Report struct {
	Width, Height    int
	HasAlpha         bool
	EdgeLuminance    float64
	EdgeBackground   Background // Quality 使用
	CenterBackground Background // Fast 使用
	Suggested        Algorithm  // Auto 模式会选择的算法
	Dominant         []DominantColor
}

// Inspect 生成诊断报告，dominant 为需要列出的主要颜色数量
func Inspect(img image.Image, dominant int) Report {
	b := img.Bounds()
	r := Report{
		Width:            b.Dx(),
		Height:           b.Dy(),
		HasAlpha:         raster.HasAlpha(img),
		EdgeBackground:   ClassifyBackground(img),
		CenterBackground: CenterBackground(img),
		Suggested:        Select(AlgorithmAuto, img),
	}
	r.EdgeLuminance, _ = EdgeLuminance(img)
	if dominant > 0 && !b.Empty() {
		for _, c := range dominantcolor.FindWeight(img, dominant) {
			col, _ := colorful.MakeColor(c.RGBA)
			r.Dominant = append(r.Dominant, DominantColor{
				Hex:    strings.ToUpper(col.Clamped().Hex()),
				Weight: c.Weight,
			})
		}
	}
	return r
}
