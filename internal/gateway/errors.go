package gateway

import (
	"errors"

	"qmt-gateway/internal/session"
)

var (
	// ErrNotConnected 表示会话不存在，调用方重新连接即可恢复。
	ErrNotConnected = session.ErrNotConnected
	// ErrInvalidInstrument 表示标的代码未通过校验。
	ErrInvalidInstrument = errors.New("invalid instrument code")
	// ErrOrderNotFound 表示真实交易模式下撤单目标不存在。
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderFailed 表示柜台提交/撤销失败，包装串里保留原始原因。
	ErrOrderFailed = errors.New("order failed")
	// ErrComputeFailure 表示合成数据路径出现意外内部错误。
	ErrComputeFailure = errors.New("compute failure")
)
