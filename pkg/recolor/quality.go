package recolor

import (
	"image"

	"github.com/yleoer/sheetmusic/pkg/raster"
)

// Quality 浮点高质量算法，保留透明通道。
// 背景由 ClassifyBackground 对四条边缘采样得出；亮度使用 BT.601 浮点权重。
// 文字像素改为目标颜色，其余像素改为黑色，两者都沿用源像素的 alpha，
// 因此源图完全透明的像素在结果中仍然完全透明。
func Quality(img image.Image, target ColorTarget) (*image.NRGBA, error) {
	if img.Bounds().Empty() {
		return nil, raster.ErrEmptyImage
	}
	bg := ClassifyBackground(img)
	src := raster.ToNRGBA(img)
	out := image.NewNRGBA(src.Rect)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		off := y * src.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			l := luminance(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			var isText bool
			if bg == Dark {
				isText = l > darkTextThreshold
			} else {
				isText = l < lightTextThreshold
			}
			if isText {
				out.Pix[i], out.Pix[i+1], out.Pix[i+2] = target.R, target.G, target.B
			}
			out.Pix[i+3] = src.Pix[i+3]
		}
	}
	return out, nil
}
