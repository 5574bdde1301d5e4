package naming

import (
	"fmt"

	"github.com/yleoer/sheetmusic/pkg/util"
)

// Suffix 拼接输出文件名的后缀
type Suffix string

const (
	SuffixNone         Suffix = ""
	SuffixConcat       Suffix = "_拼接"
	SuffixInvertConcat Suffix = "_反色拼接"
)

// OutputExt 分组输出统一使用 JPEG
const OutputExt = ".jpg"

// GroupOutputName 生成分组输出文件名：第{编号}首_{歌名}{后缀}.jpg
func GroupOutputName(songID, songName string, suffix Suffix) string {
	return fmt.Sprintf("第%s首_%s%s%s", songID, util.SanitizeFileName(songName), suffix, OutputExt)
}
