package broker

// QMT 柜台侧的常量。SDK 版本间常量可能漂移，转换层对卖出方向
// 另外保留了一个兜底数值集合。
const (
	// StockBuy 为买入方向代码。
	StockBuy = 23
	// StockSell 为卖出方向代码。
	StockSell = 24
	// LatestPrice 为市价（最新价）委托的价格类型代码。
	LatestPrice = 5
	// FixPrice 为限价委托的价格类型代码。
	FixPrice = 11
)

// 柜台委托状态代码，全集为 48..57。
const (
	OrderUnreported     = 48
	OrderWaitReporting  = 49
	OrderReported       = 50
	OrderReportedCancel = 51
	OrderPartsuccCancel = 52
	OrderPartCancel     = 53
	OrderCanceled       = 54
	OrderPartSucc       = 55
	OrderSucceeded      = 56
	OrderJunk           = 57
)

// Position 为柜台持仓记录。指针字段在柜台侧可能缺失，
// 默认值由转换层补齐。
type Position struct {
	StockCode      string   `json:"stock_code"`
	InstrumentName *string  `json:"instrument_name,omitempty"`
	Volume         int64    `json:"volume"`
	CanUseVolume   int64    `json:"can_use_volume"`
	FrozenVolume   int64    `json:"frozen_volume"`
	AvgPrice       float64  `json:"avg_price"`
	LastPrice      *float64 `json:"last_price,omitempty"`
	MarketValue    float64  `json:"market_value"`
	FloatProfit    *float64 `json:"float_profit,omitempty"`
	ProfitRate     *float64 `json:"profit_rate,omitempty"`
}

// Order 为柜台委托记录。OrderTime 为秒级时间戳，0 表示缺失。
type Order struct {
	OrderID      string  `json:"order_id"`
	StockCode    string  `json:"stock_code"`
	OrderType    int     `json:"order_type"`
	PriceType    int     `json:"price_type"`
	OrderStatus  int     `json:"order_status"`
	OrderTime    int64   `json:"order_time"`
	OrderVolume  int64   `json:"order_volume"`
	Price        float64 `json:"price"`
	TradedVolume int64   `json:"traded_volume"`
	TradedPrice  float64 `json:"traded_price"`
}

// Trade 为柜台成交记录。TradedTime 为秒级时间戳，0 表示缺失。
type Trade struct {
	TradedID     string   `json:"traded_id"`
	OrderID      string   `json:"order_id"`
	StockCode    string   `json:"stock_code"`
	OrderType    int      `json:"order_type"`
	TradedVolume int64    `json:"traded_volume"`
	TradedPrice  float64  `json:"traded_price"`
	TradedAmount float64  `json:"traded_amount"`
	TradedTime   int64    `json:"traded_time"`
	Commission   *float64 `json:"commission,omitempty"`
}

// Asset 为柜台资金记录。
type Asset struct {
	TotalAsset  float64 `json:"total_asset"`
	MarketValue float64 `json:"market_value"`
	Cash        float64 `json:"cash"`
	FrozenCash  float64 `json:"frozen_cash"`
}

// SubmitRequest 为提交到柜台的委托参数。
type SubmitRequest struct {
	AccountID string  `json:"account_id"`
	StockCode string  `json:"stock_code"`
	Side      string  `json:"side"`
	Volume    int64   `json:"volume"`
	Price     float64 `json:"price"`
	OrderType string  `json:"order_type"`
}
