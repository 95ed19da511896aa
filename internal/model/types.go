package model

import "time"

// OrderSide 表示委托方向。
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType 表示委托价格类型。
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// OrderStatus 表示委托生命周期状态。
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "PENDING"
	OrderStatusSubmitted     OrderStatus = "SUBMITTED"
	OrderStatusPartialFilled OrderStatus = "PARTIAL_FILLED"
	OrderStatusFilled        OrderStatus = "FILLED"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
	OrderStatusRejected      OrderStatus = "REJECTED"
)

// IsTerminal 判断状态是否为终态。
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// AccountType 表示账户类别。
type AccountType string

const (
	AccountTypeSecurity AccountType = "SECURITY"
	AccountTypeCredit   AccountType = "CREDIT"
	AccountTypeFuture   AccountType = "FUTURE"
)

// AccountInfo 为连接时捕获的账户快照。
type AccountInfo struct {
	AccountID        string      `json:"account_id"`
	AccountType      AccountType `json:"account_type"`
	AccountName      string      `json:"account_name"`
	Status           string      `json:"status"`
	Balance          float64     `json:"balance"`
	AvailableBalance float64     `json:"available_balance"`
	FrozenBalance    float64     `json:"frozen_balance"`
	MarketValue      float64     `json:"market_value"`
	TotalAsset       float64     `json:"total_asset"`
}

// PositionInfo 为单只标的的持仓信息，随查询生成，不做持久化。
type PositionInfo struct {
	StockCode       string  `json:"stock_code"`
	StockName       string  `json:"stock_name"`
	Volume          int64   `json:"volume"`
	AvailableVolume int64   `json:"available_volume"`
	FrozenVolume    int64   `json:"frozen_volume"`
	CostPrice       float64 `json:"cost_price"`
	MarketPrice     float64 `json:"market_price"`
	MarketValue     float64 `json:"market_value"`
	ProfitLoss      float64 `json:"profit_loss"`
	ProfitLossRatio float64 `json:"profit_loss_ratio"`
}

// OrderRequest 为客户端下单请求。
type OrderRequest struct {
	StockCode string    `json:"stock_code"`
	Side      OrderSide `json:"side"`
	OrderType OrderType `json:"order_type"`
	Volume    int64     `json:"volume"`
	Price     float64   `json:"price"`
}

// CancelOrderRequest 为撤单请求。
type CancelOrderRequest struct {
	OrderID string `json:"order_id"`
}

// OrderResponse 为委托回报。AveragePrice 在没有成交时保持为空，而非 0。
type OrderResponse struct {
	OrderID       string      `json:"order_id"`
	StockCode     string      `json:"stock_code"`
	Side          OrderSide   `json:"side"`
	OrderType     OrderType   `json:"order_type"`
	Volume        int64       `json:"volume"`
	Price         float64     `json:"price"`
	Status        OrderStatus `json:"status"`
	SubmittedTime time.Time   `json:"submitted_time"`
	FilledVolume  int64       `json:"filled_volume"`
	AveragePrice  *float64    `json:"average_price,omitempty"`
}

// TradeInfo 为成交记录。
type TradeInfo struct {
	TradeID    string    `json:"trade_id"`
	OrderID    string    `json:"order_id"`
	StockCode  string    `json:"stock_code"`
	Side       OrderSide `json:"side"`
	Volume     int64     `json:"volume"`
	Price      float64   `json:"price"`
	Amount     float64   `json:"amount"`
	TradeTime  time.Time `json:"trade_time"`
	Commission float64   `json:"commission"`
}

// AssetInfo 为账户资产快照。
type AssetInfo struct {
	TotalAsset      float64 `json:"total_asset"`
	MarketValue     float64 `json:"market_value"`
	Cash            float64 `json:"cash"`
	FrozenCash      float64 `json:"frozen_cash"`
	AvailableCash   float64 `json:"available_cash"`
	ProfitLoss      float64 `json:"profit_loss"`
	ProfitLossRatio float64 `json:"profit_loss_ratio"`
}

// RiskInfo 为风险指标快照。当前实现为固定占位数据，
// 未来接入真实风险计算时替换实现而不改变契约。
type RiskInfo struct {
	PositionRatio float64 `json:"position_ratio"`
	CashRatio     float64 `json:"cash_ratio"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	Var95         float64 `json:"var_95"`
	Var99         float64 `json:"var_99"`
}

// StrategyInfo 为策略快照。当前实现为固定占位数据。
type StrategyInfo struct {
	StrategyName   string                 `json:"strategy_name"`
	StrategyType   string                 `json:"strategy_type"`
	Status         string                 `json:"status"`
	CreatedTime    time.Time              `json:"created_time"`
	LastUpdateTime time.Time              `json:"last_update_time"`
	Parameters     map[string]interface{} `json:"parameters"`
}

// ConnectRequest 为连接账户请求。
type ConnectRequest struct {
	AccountID string `json:"account_id"`
	Password  string `json:"password"`
	ClientID  int    `json:"client_id"`
}

// ConnectResponse 为连接账户的结构化结果，连接失败属于常规结果而非异常。
type ConnectResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	SessionID   string       `json:"session_id,omitempty"`
	AccountInfo *AccountInfo `json:"account_info,omitempty"`
}

// AccountSnapshot 聚合一次账户全量查询的结果。
type AccountSnapshot struct {
	Asset       AssetInfo       `json:"asset"`
	Positions   []PositionInfo  `json:"positions"`
	Orders      []OrderResponse `json:"orders"`
	Trades      []TradeInfo     `json:"trades"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}
