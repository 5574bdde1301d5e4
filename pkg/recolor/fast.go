package recolor

import (
	"image"

	"github.com/yleoer/sheetmusic/pkg/raster"
)

// 文字判定阈值：深色背景取亮于 darkTextThreshold 的像素，浅色背景取暗于 lightTextThreshold 的像素
const (
	darkTextThreshold  = 100
	lightTextThreshold = 150
)

// Fast 整数快速算法。输入先转为 RGB（丢弃透明通道），
// 亮度用 (77R + 150G + 29B) >> 8 近似，背景只采样中心区域。
// 文字像素填充目标颜色，其余像素为不透明黑色。
func Fast(img image.Image, target ColorTarget) (*image.RGBA, error) {
	if img.Bounds().Empty() {
		return nil, raster.ErrEmptyImage
	}
	src := raster.DropAlpha(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	lum := fastLuminance(src)

	dark := centerBackground(lum, w, h) == Dark
	out := image.NewRGBA(src.Rect)
	for i, l := range lum {
		o := i * 4
		isText := l < lightTextThreshold
		if dark {
			isText = l > darkTextThreshold
		}
		if isText {
			out.Pix[o], out.Pix[o+1], out.Pix[o+2] = target.R, target.G, target.B
		}
		out.Pix[o+3] = 0xff
	}
	return out, nil
}

// CenterBackground 快速算法使用的背景判断：只看图片中心区域
func CenterBackground(img image.Image) Background {
	if img.Bounds().Empty() {
		return Light
	}
	src := raster.DropAlpha(img)
	return centerBackground(fastLuminance(src), src.Rect.Dx(), src.Rect.Dy())
}

// fastLuminance 逐像素整数亮度，按行优先存放。src 的 Stride 必须为 4*宽度。
func fastLuminance(src *image.RGBA) []uint16 {
	n := len(src.Pix) / 4
	lum := make([]uint16, n)
	for i := 0; i < n; i++ {
		o := i * 4
		r, g, b := uint32(src.Pix[o]), uint32(src.Pix[o+1]), uint32(src.Pix[o+2])
		lum[i] = uint16((77*r + 150*g + 29*b) >> 8)
	}
	return lum
}

// centerBackground 取以中心为原点、半边长为短边 1/10 的方块求平均亮度。
// 图片太小导致方块为空时按浅色背景处理。
func centerBackground(lum []uint16, w, h int) Background {
	cy, cx := h/2, w/2
	s := min(h, w) / 10
	if s == 0 {
		return Light
	}
	var sum, count int
	for y := cy - s; y < cy+s; y++ {
		row := y * w
		for x := cx - s; x < cx+s; x++ {
			sum += int(lum[row+x])
			count++
		}
	}
	if float64(sum)/float64(count) < darkLuminance {
		return Dark
	}
	return Light
}
