package recolor

import (
	"errors"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/yleoer/sheetmusic/pkg/raster"
)

// Algorithm 变色算法选择
type Algorithm string

const (
	AlgorithmAuto    Algorithm = "auto"    // 带透明通道用 Quality，否则用 Fast
	AlgorithmFast    Algorithm = "fast"    // 整数快速算法
	AlgorithmQuality Algorithm = "quality" // 浮点高质量算法
)

// ErrUnsupportedImage 无法处理的图像（例如 nil）
var ErrUnsupportedImage = errors.New("unsupported image")

// ParseAlgorithm 解析算法名称，不区分大小写
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case AlgorithmAuto, AlgorithmFast, AlgorithmQuality:
		return a, nil
	}
	return "", fmt.Errorf("unknown algorithm %q (want auto, fast or quality)", s)
}

// Select 决定实际使用的算法。Auto 按源图是否带透明通道选择。
func Select(alg Algorithm, img image.Image) Algorithm {
	if alg != AlgorithmAuto {
		return alg
	}
	if raster.HasAlpha(img) {
		return AlgorithmQuality
	}
	return AlgorithmFast
}

// Func 一种变色算法
type Func func(img image.Image, target ColorTarget) (image.Image, error)

func fastFunc(img image.Image, target ColorTarget) (image.Image, error) {
	out, err := Fast(img, target)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func qualityFunc(img image.Image, target ColorTarget) (image.Image, error) {
	out, err := Quality(img, target)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Engine 按配置选择算法并执行变色
type Engine struct {
	algorithm Algorithm
	target    ColorTarget
	logger    *log.Logger
	fast      Func
	quality   Func
}

// NewEngine 创建一个新的 Engine 实例
func NewEngine(alg Algorithm, target ColorTarget, logger *log.Logger) *Engine {
	return &Engine{
		algorithm: alg,
		target:    target,
		logger:    logger,
		fast:      fastFunc,
		quality:   qualityFunc,
	}
}

// Algorithm 配置的算法模式
func (e *Engine) Algorithm() Algorithm { return e.algorithm }

// Target 目标颜色
func (e *Engine) Target() ColorTarget { return e.target }

// Apply 对图像变色。算法内部的任何错误或 panic 都不会向外传播：
// 此时返回原图、实际选择的算法以及描述失败原因的 error，由调用方记为软失败。
func (e *Engine) Apply(img image.Image) (out image.Image, used Algorithm, err error) {
	if img == nil {
		return nil, "", ErrUnsupportedImage
	}
	used = Select(e.algorithm, img)
	fn := e.fast
	if used == AlgorithmQuality {
		fn = e.quality
	}
	defer func() {
		if r := recover(); r != nil {
			out = img
			err = fmt.Errorf("%s recolor panicked: %v", used, r)
			e.logger.Printf("ERROR: %v", err)
		}
	}()
	res, err := fn(img, e.target)
	if err != nil {
		e.logger.Printf("ERROR: %s recolor failed, keeping original image: %v", used, err)
		return img, used, fmt.Errorf("%s recolor failed: %w", used, err)
	}
	return res, used, nil
}
