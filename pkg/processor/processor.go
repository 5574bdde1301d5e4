package processor

import (
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"

	"github.com/yleoer/sheetmusic/pkg/naming"
	"github.com/yleoer/sheetmusic/pkg/raster"
	"github.com/yleoer/sheetmusic/pkg/recolor"
	"github.com/yleoer/sheetmusic/pkg/scanner"
)

// ImageProcessor 执行单个处理单元：读取、拼接、变色、编码写出
type ImageProcessor struct {
	engine    *recolor.Engine
	policy    CompressionPolicy
	outputDir string
	logger    *log.Logger

	// RetainImages 为 true 时在 Result 中保留最终图像
	RetainImages bool
}

// NewImageProcessor 创建一个新的 ImageProcessor 实例
func NewImageProcessor(engine *recolor.Engine, policy CompressionPolicy, outputDir string, logger *log.Logger) *ImageProcessor {
	return &ImageProcessor{
		engine:    engine,
		policy:    policy,
		outputDir: outputDir,
		logger:    logger,
	}
}

// FileOutputPath 仅变色模式下的输出路径：沿用原文件名
func (p *ImageProcessor) FileOutputPath(path string) string {
	return filepath.Join(p.outputDir, filepath.Base(path))
}

// GroupOutputPath 分组模式下的输出路径
func (p *ImageProcessor) GroupOutputPath(g scanner.SongGroup, mode ProcessMode) string {
	return filepath.Join(p.outputDir, naming.GroupOutputName(g.SongID, g.SongName, mode.Suffix(len(g.Pages))))
}

// RecolorFile 对单个文件变色并以原文件名写出。
// 输出内容总是 JPEG，即使原文件扩展名是 .png。
func (p *ImageProcessor) RecolorFile(path string) Result {
	unit := filepath.Base(path)
	output := p.FileOutputPath(path)
	src, err := raster.Load(path)
	if err != nil {
		p.logger.Printf("  -> ERROR: %v", err)
		return Failed(unit, output, err)
	}
	img, used, rerr := p.engine.Apply(src.Image)
	return p.finish(unit, output, img, used, rerr)
}

// ProcessGroup 处理一首歌：单页且非仅拼接模式时直接使用该页，否则按页码竖向拼接；
// 需要变色时再交给变色引擎。无法解码的页面被丢弃并记录在 Reason 中。
func (p *ImageProcessor) ProcessGroup(g scanner.SongGroup, mode ProcessMode) Result {
	unit := fmt.Sprintf("第%s首 %s", g.SongID, g.SongName)
	output := p.GroupOutputPath(g, mode)

	var (
		img     image.Image
		dropped []raster.LoadFailure
	)
	if g.Single() && !mode.ForceConcat() {
		src, err := raster.Load(g.Pages[0].Path)
		if err != nil {
			p.logger.Printf("  -> ERROR: %s: %v", unit, err)
			return Failed(unit, output, err)
		}
		img = src.Image
	} else {
		loaded, failures := raster.LoadAll(g.Paths())
		for _, f := range failures {
			p.logger.Printf("  -> WARN: %s: dropping page %s: %v", unit, filepath.Base(f.Path), f.Err)
		}
		dropped = failures
		canvas, err := raster.ConcatVertical(raster.Images(loaded))
		if err != nil {
			p.logger.Printf("  -> ERROR: %s: %v", unit, err)
			return Failed(unit, output, err)
		}
		img = canvas
	}

	var (
		used recolor.Algorithm
		rerr error
	)
	if mode.Inverts() {
		img, used, rerr = p.engine.Apply(img)
	}
	res := p.finish(unit, output, img, used, rerr)
	if len(dropped) > 0 && res.Status == StatusOK {
		res.Reason = fmt.Sprintf("%d page(s) could not be decoded", len(dropped))
	}
	return res
}

// finish 写出图像并生成结果。变色失败时 img 为原图，结果标记为降级。
func (p *ImageProcessor) finish(unit, output string, img image.Image, used recolor.Algorithm, recolorErr error) Result {
	if img == nil {
		err := recolorErr
		if err == nil {
			err = errors.New("no image produced")
		}
		return Failed(unit, output, err)
	}
	if err := Save(output, img, p.policy); err != nil {
		p.logger.Printf("  -> ERROR: %v", err)
		return Failed(unit, output, err)
	}
	res := Result{Unit: unit, Output: output, Status: StatusOK, Algorithm: used}
	if recolorErr != nil {
		res.Status = StatusDegraded
		res.Reason = recolorErr.Error()
	}
	if p.RetainImages {
		res.Image = img
	}
	return res
}
