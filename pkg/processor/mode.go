package processor

import (
	"fmt"
	"strings"

	"github.com/yleoer/sheetmusic/pkg/naming"
)

// ProcessMode 批处理模式
type ProcessMode string

const (
	ModeInvertOnly   ProcessMode = "invert_only"   // 逐个文件变色，保留原文件名
	ModeConcat       ProcessMode = "concat"        // 按歌曲分组拼接，不变色
	ModeInvertConcat ProcessMode = "invert_concat" // 按歌曲分组拼接后变色
)

// ParseProcessMode 解析模式名称，不区分大小写
func ParseProcessMode(s string) (ProcessMode, error) {
	switch m := ProcessMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeInvertOnly, ModeConcat, ModeInvertConcat:
		return m, nil
	}
	return "", fmt.Errorf("unknown process mode %q (want invert_only, concat or invert_concat)", s)
}

// Grouped 是否按歌曲分组处理
func (m ProcessMode) Grouped() bool {
	return m != ModeInvertOnly
}

// Inverts 是否需要变色
func (m ProcessMode) Inverts() bool {
	return m != ModeConcat
}

// ForceConcat 单页歌曲是否也走拼接流程
func (m ProcessMode) ForceConcat() bool {
	return m == ModeConcat
}

// Suffix 分组输出文件名后缀。单页歌曲除仅拼接模式外直接透传，不带后缀。
func (m ProcessMode) Suffix(pages int) naming.Suffix {
	switch {
	case m == ModeConcat:
		return naming.SuffixConcat
	case pages <= 1:
		return naming.SuffixNone
	case m == ModeInvertConcat:
		return naming.SuffixInvertConcat
	}
	return naming.SuffixNone
}

// Describe 日志中使用的模式说明
func (m ProcessMode) Describe() string {
	switch m {
	case ModeInvertOnly:
		return "recolor only"
	case ModeConcat:
		return "concatenate only"
	case ModeInvertConcat:
		return "concatenate + recolor"
	}
	return string(m)
}
