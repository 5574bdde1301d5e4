// Package raster 负责图片解码、像素格式归一化和竖向拼接。
// 所有变换都返回新的图像，从不修改传入的图像。
package raster

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

var (
	// ErrNoValidImages 拼接时没有任何一张图片解码成功
	ErrNoValidImages = errors.New("no valid images to concatenate")
	// ErrEmptyImage 图像宽或高为 0
	ErrEmptyImage = errors.New("image has zero width or height")
)

// Raster 一张已解码的源图片
type Raster struct {
	Path   string
	Format string // 解码器名称：png / jpeg / gif / bmp
	Image  image.Image
}

// HasAlpha 源图片是否带透明通道
func (r *Raster) HasAlpha() bool {
	return HasAlpha(r.Image)
}

// Load 打开并解码一张图片。GIF 只取第一帧。
func Load(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	br := bufio.NewReader(f)
	header, _ := br.Peek(pngHeaderLen)
	img, format, err := image.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyImage)
	}
	if format == "png" && pngWithoutAlphaChannel(header) {
		switch img.(type) {
		case *image.NRGBA, *image.NRGBA64:
			img = ColorKeyed{img}
		}
	}
	return &Raster{Path: path, Format: format, Image: img}, nil
}

// ColorKeyed 带 tRNS 色键的灰度或真彩色 PNG。文件本身没有 alpha 通道，
// 解码器仍会把色键像素展开为透明；自动选择算法时按无透明通道处理。
type ColorKeyed struct {
	image.Image
}

// pngHeaderLen 签名 8 字节 + IHDR 长度和类型 8 字节 + 宽高 8 字节 + 位深 1 字节 + 颜色类型 1 字节
const pngHeaderLen = 26

// pngWithoutAlphaChannel IHDR 的颜色类型为 0（灰度）或 2（真彩色）
func pngWithoutAlphaChannel(header []byte) bool {
	if len(header) < pngHeaderLen || string(header[12:16]) != "IHDR" {
		return false
	}
	colorType := header[25]
	return colorType == 0 || colorType == 2
}

// LoadFailure 一张无法解码的图片及原因
type LoadFailure struct {
	Path string
	Err  error
}

// LoadAll 按顺序解码所有图片。失败的图片记录在 failures 中，不中断其余图片。
func LoadAll(paths []string) (loaded []*Raster, failures []LoadFailure) {
	for _, path := range paths {
		r, err := Load(path)
		if err != nil {
			failures = append(failures, LoadFailure{Path: path, Err: err})
			continue
		}
		loaded = append(loaded, r)
	}
	return loaded, failures
}

// Images 取出 Raster 中的图像
func Images(rasters []*Raster) []image.Image {
	imgs := make([]image.Image, len(rasters))
	for i, r := range rasters {
		imgs[i] = r.Image
	}
	return imgs
}

// HasAlpha 判断图像是否携带透明通道。
//
// PNG 解码器对无 alpha 的真彩色图返回 *image.RGBA，对带 alpha 的返回 *image.NRGBA，
// 所以 NRGBA 类型本身即表示“文件带透明通道”；调色板图只有存在非不透明条目时才算。
// 只靠 tRNS 色键透明的灰度和真彩色 PNG 由 Load 包装为 ColorKeyed，不算带透明通道。
func HasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case ColorKeyed:
		return false
	case *image.NRGBA, *image.NRGBA64, *image.Alpha, *image.Alpha16:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	case *image.RGBA:
		return !m.Opaque()
	case *image.RGBA64:
		return !m.Opaque()
	default:
		return false
	}
}

// ToNRGBA 返回图像的 8 位非预乘 RGBA 副本，坐标原点为 (0,0)
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// DropAlpha 去掉透明通道：保留每个像素存储的颜色值，alpha 一律置为 255。
// 透明像素不与任何背景混合。
func DropAlpha(img image.Image) *image.RGBA {
	src := ToNRGBA(img)
	out := &image.RGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(out.Pix, src.Pix)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
