package processor

import (
	"image"

	"github.com/yleoer/sheetmusic/pkg/recolor"
)

// Status 单个处理单元的结果
type Status int

const (
	StatusOK       Status = iota
	StatusSkipped         // 未处理（例如输出已是最新，或批处理被取消）
	StatusFailed          // 处理失败，没有写出文件
	StatusDegraded        // 变色失败，已写出原图
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	case StatusDegraded:
		return "degraded"
	}
	return "unknown"
}

// Result 处理单元的输出。失败以值的形式返回，不会中断批处理。
type Result struct {
	Unit      string            // 单元名称：文件名或 "第N首 歌名"
	Output    string            // 输出文件路径
	Status    Status            // 结果状态
	Reason    string            // 跳过、失败或降级的原因
	Algorithm recolor.Algorithm // 实际使用的变色算法，未变色时为空
	Image     image.Image       // 最终图像，仅在 RetainImages 时保留
}

// Failed 构造失败结果
func Failed(unit, output string, err error) Result {
	return Result{Unit: unit, Output: output, Status: StatusFailed, Reason: err.Error()}
}

// Skipped 构造跳过结果
func Skipped(unit, output, reason string) Result {
	return Result{Unit: unit, Output: output, Status: StatusSkipped, Reason: reason}
}
