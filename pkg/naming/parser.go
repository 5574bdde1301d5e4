package naming

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/yleoer/sheetmusic/pkg/util"
)

// ParsedName 文件名解析结果
type ParsedName struct {
	SongID   string // 歌曲编号，保留前导零，例如 "001"
	SongName string
	Page     int
}

// Rule 一条文件名匹配规则。三个捕获组依次为：编号、歌名、页码。
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Rules 按顺序尝试，第一条匹配的规则生效，规则之间不组合。
var Rules = []Rule{
	// 第1首 歌名1
	{Name: "numbered-song", Pattern: regexp.MustCompile(`^第(\d+)首\s+(.+?)(\d+)$`)},
	// 001.圣哉三一歌1
	{Name: "dotted-index", Pattern: regexp.MustCompile(`^(\d+)\.(.+?)(\d+)$`)},
	// 第0707愿将我的心给你1
	{Name: "bare-index", Pattern: regexp.MustCompile(`^第(\d+)([^0-9].+?)(\d+)$`)},
}

// ParseFile 从文件路径中解析歌曲信息，先去掉目录和扩展名，GBK 编码的文件名会先转为 UTF-8。
func ParseFile(path string) (ParsedName, bool) {
	return ParseName(util.DecodeName(util.Stem(path)))
}

// ParseName 解析不含扩展名的文件名。无法匹配时返回 false，调用方不应视为错误。
//
// 匹配前先用 width.Fold 把全角数字、全角空格折叠为半角，
// 使“第１首　歌名２”也能匹配；编号和歌名仍取自原始文本，输出文件名保留全角编号。
func ParseName(stem string) (ParsedName, bool) {
	folded := width.Fold.String(stem)
	for _, rule := range Rules {
		idx := rule.Pattern.FindStringSubmatchIndex(folded)
		if idx == nil {
			continue
		}
		page, err := strconv.Atoi(folded[idx[6]:idx[7]])
		if err != nil {
			continue
		}
		return ParsedName{
			SongID:   originalSpan(stem, folded, idx[2], idx[3]),
			SongName: strings.TrimSpace(originalSpan(stem, folded, idx[4], idx[5])),
			Page:     page,
		}, true
	}
	return ParsedName{}, false
}

// originalSpan 把折叠后字符串中的字节区间映射回原始字符串的同一段字符。
// width.Fold 逐字符映射，字符数不变；若不一致则退回折叠后的文本。
func originalSpan(orig, folded string, start, end int) string {
	if utf8.RuneCountInString(orig) != utf8.RuneCountInString(folded) {
		return folded[start:end]
	}
	runeStart := utf8.RuneCountInString(folded[:start])
	runeLen := utf8.RuneCountInString(folded[start:end])
	runes := []rune(orig)
	return string(runes[runeStart : runeStart+runeLen])
}
