package recolor

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/yleoer/sheetmusic/pkg/raster"
)

// Background 背景明暗分类
type Background int

const (
	Light Background = iota
	Dark
)

func (b Background) String() string {
	if b == Dark {
		return "dark"
	}
	return "light"
}

// darkLuminance 平均亮度低于该值视为深色背景
const darkLuminance = 80

// luminance ITU-R BT.601 亮度
func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// edgeBand 边缘采样带宽：短边的 1/10，至少 5 像素
func edgeBand(w, h int) int {
	return max(min(h, w)/10, 5)
}

// ClassifyBackground 采样图片上下左右四条边缘带，按平均亮度判断背景深浅。
// 任何失败（空图像等）都按浅色背景处理。
func ClassifyBackground(img image.Image) (bg Background) {
	defer func() {
		if recover() != nil {
			bg = Light
		}
	}()
	avg, ok := EdgeLuminance(img)
	if ok && avg < darkLuminance {
		return Dark
	}
	return Light
}

// EdgeLuminance 返回四条边缘带的平均亮度。透明通道被忽略，只看存储的颜色。
// 角落像素同时属于横向和纵向的带，会被计入两次。
func EdgeLuminance(img image.Image) (float64, bool) {
	src := raster.ToNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, false
	}
	e := edgeBand(w, h)
	rowsTop, colsLeft := min(e, h), min(e, w)
	rowsBottom, colsRight := max(h-e, 0), max(w-e, 0)

	// 每条带只保留均值和像素数，再按像素数加权求总体均值
	var means, weights []float64
	addRect := func(x0, y0, x1, y1 int) {
		if x1 <= x0 || y1 <= y0 {
			return
		}
		var sum float64
		for y := y0; y < y1; y++ {
			off := y * src.Stride
			for x := x0; x < x1; x++ {
				i := off + x*4
				sum += luminance(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			}
		}
		n := float64((x1 - x0) * (y1 - y0))
		means = append(means, sum/n)
		weights = append(weights, n)
	}
	addRect(0, 0, w, rowsTop)
	addRect(0, rowsBottom, w, h)
	addRect(0, 0, colsLeft, h)
	addRect(colsRight, 0, w, h)
	return stat.Mean(means, weights), true
}
