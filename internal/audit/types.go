package audit

import "time"

// EventType 标识审计事件类别。
type EventType string

const (
	EventConnect    EventType = "connect"
	EventDisconnect EventType = "disconnect"
	EventOrder      EventType = "order"
	EventCancel     EventType = "cancel"
	EventFallback   EventType = "fallback"
	EventError      EventType = "error"
)

// Event 为单条审计记录。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ConnectPayload 记录账户连接与断开。
type ConnectPayload struct {
	AccountID string `json:"account_id"`
	SessionID string `json:"session_id"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
}

// OrderPayload 记录委托提交。
type OrderPayload struct {
	SessionID string  `json:"session_id"`
	OrderID   string  `json:"order_id"`
	StockCode string  `json:"stock_code"`
	Side      string  `json:"side"`
	Volume    int64   `json:"volume"`
	Price     float64 `json:"price"`
	Simulated bool    `json:"simulated"`
}

// CancelPayload 记录撤单。
type CancelPayload struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
	Success   bool   `json:"success"`
	Simulated bool   `json:"simulated"`
}

// FallbackPayload 记录真实数据查询降级。
type FallbackPayload struct {
	SessionID string `json:"session_id"`
	Operation string `json:"operation"`
	Reason    string `json:"reason"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
