package scanner

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/yleoer/sheetmusic/pkg/converter"
	"github.com/yleoer/sheetmusic/pkg/naming"
	"github.com/yleoer/sheetmusic/pkg/util"
)

// Page 一首歌中的一页
type Page struct {
	Number int
	Path   string
}

// SongGroup 同一编号、同一歌名的所有页面，按页码升序排列
type SongGroup struct {
	SongID   string
	SongName string
	Pages    []Page
}

// Key 分组键
func (g SongGroup) Key() string {
	return g.SongID + "_" + g.SongName
}

// Single 是否只有一页
func (g SongGroup) Single() bool {
	return len(g.Pages) == 1
}

// Paths 按页码顺序返回页面路径
func (g SongGroup) Paths() []string {
	paths := make([]string, len(g.Pages))
	for i, p := range g.Pages {
		paths[i] = p.Path
	}
	return paths
}

// SongScanner 负责列出图片并按歌曲分组
type SongScanner struct {
	converter converter.TextConverter
	logger    *log.Logger
}

// NewSongScanner 创建一个新的 SongScanner 实例。tc 为 nil 时歌名不做归一化。
func NewSongScanner(tc converter.TextConverter, logger *log.Logger) *SongScanner {
	if tc == nil {
		tc = converter.Identity{}
	}
	return &SongScanner{converter: tc, logger: logger}
}

// ListImages 列出目录下（不递归）所有可处理的图片，按文件名排序保证处理顺序稳定
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if util.IsImageFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// GroupSongs 按 (编号, 歌名) 分组。无法解析的文件名返回在 unparsed 中，不算错误。
// 分组按首次出现的顺序返回；组内按页码稳定排序，页码相同的保留输入顺序。
func (s *SongScanner) GroupSongs(paths []string) (groups []SongGroup, unparsed []string) {
	index := make(map[string]int)
	for _, path := range paths {
		parsed, ok := naming.ParseFile(path)
		if !ok {
			s.logger.Printf("  -> Skipping unparsable file name: %s", filepath.Base(path))
			unparsed = append(unparsed, path)
			continue
		}
		name := s.converter.TradToSim(parsed.SongName)
		key := parsed.SongID + "_" + name
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SongGroup{SongID: parsed.SongID, SongName: name})
		}
		groups[i].Pages = append(groups[i].Pages, Page{Number: parsed.Page, Path: path})
	}
	for i := range groups {
		pages := groups[i].Pages
		sort.SliceStable(pages, func(a, b int) bool {
			return pages[a].Number < pages[b].Number
		})
	}
	return groups, unparsed
}
