package raster

import (
	"image"
	"image/color"
	"image/draw"
)

// Layout 计算竖向拼接的画布尺寸和每张图的左上角位置：
// 宽度取最大宽度，高度为高度之和，每张图水平居中（整数除法向零取整）。
func Layout(sizes []image.Point) (canvas image.Point, offsets []image.Point) {
	for _, s := range sizes {
		canvas.X = max(canvas.X, s.X)
		canvas.Y += s.Y
	}
	offsets = make([]image.Point, len(sizes))
	y := 0
	for i, s := range sizes {
		offsets[i] = image.Pt((canvas.X-s.X)/2, y)
		y += s.Y
	}
	return canvas, offsets
}

// ConcatVertical 把图片自上而下拼接到一张白色背景的画布上。
// 输出始终不透明，源图的透明通道被丢弃。
func ConcatVertical(imgs []image.Image) (*image.RGBA, error) {
	if len(imgs) == 0 {
		return nil, ErrNoValidImages
	}
	sizes := make([]image.Point, len(imgs))
	for i, img := range imgs {
		sizes[i] = img.Bounds().Size()
	}
	size, offsets := Layout(sizes)
	if size.X == 0 || size.Y == 0 {
		return nil, ErrEmptyImage
	}

	canvas := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for i, img := range imgs {
		src := DropAlpha(img)
		dst := image.Rectangle{Min: offsets[i], Max: offsets[i].Add(sizes[i])}
		draw.Draw(canvas, dst, src, src.Bounds().Min, draw.Src)
	}
	return canvas, nil
}
