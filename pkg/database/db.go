package database

import "time"

// OutputRecord 一条输出记录
type OutputRecord struct {
	Output      string    // 输出文件路径
	Fingerprint string    // 生成该输出时的输入与参数摘要
	Status      string    // 处理结果
	ProcessedAt time.Time // 处理时间
}

// OutputStore 定义输出文件处理记录的存储接口
type OutputStore interface {
	IsOutputCurrent(output, fingerprint string) (bool, error) // 检查输出是否由相同的输入和参数成功生成
	RecordOutput(output, fingerprint, status string) error    // 记录或更新一次输出
	RecentOutputs(limit int) ([]OutputRecord, error)          // 按时间倒序返回最近的记录
	Close() error                                             // 关闭数据库连接
}
