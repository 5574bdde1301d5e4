package converter

// TextConverter 定义文本转换器接口
type TextConverter interface {
	TradToSim(text string) string // 将繁体中文转换为简体
}

// Identity 原样返回文本，不启用繁简归一化时使用
type Identity struct{}

// TradToSim 返回原文
func (Identity) TradToSim(text string) string { return text }
