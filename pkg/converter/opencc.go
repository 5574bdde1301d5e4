package converter

import (
	"fmt"
	"log"
	"sync"

	"github.com/liuzl/gocc"
)

// openCCConverter 基于 gocc 词典的繁转简实现
type openCCConverter struct {
	cc     *gocc.OpenCC
	logger *log.Logger
}

// NewOpenCCConverter 加载 t2s 词典，用于把歌名归一化后再分组，
// 这样“聖哉三一歌”和“圣哉三一歌”会归为同一首歌。
// 同一批文件中歌名大量重复，返回的转换器会缓存结果。
func NewOpenCCConverter(logger *log.Logger) (TextConverter, error) {
	cc, err := gocc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("failed to load t2s dictionary: %w", err)
	}
	logger.Println("Song name normalization (t2s) enabled.")
	return Cached(&openCCConverter{cc: cc, logger: logger}), nil
}

func (c *openCCConverter) TradToSim(text string) string {
	out, err := c.cc.Convert(text)
	if err != nil {
		c.logger.Printf("WARN: could not normalize song name %q, keeping it as is: %v", text, err)
		return text
	}
	return out
}

type cachedConverter struct {
	next  TextConverter
	mu    sync.Mutex
	cache map[string]string
}

// Cached 为 next 加上结果缓存，可在多个协程中使用
func Cached(next TextConverter) TextConverter {
	return &cachedConverter{next: next, cache: make(map[string]string)}
}

func (c *cachedConverter) TradToSim(text string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if out, ok := c.cache[text]; ok {
		return out
	}
	out := c.next.TradToSim(text)
	c.cache[text] = out
	return out
}
