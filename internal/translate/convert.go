// Package translate 把柜台侧记录转换为网关的规范结构。
// 所有函数都是纯函数：字段缺失补默认值，时间戳异常回退当前时间，
// 转换本身从不报错。
package translate

import (
	"time"

	"qmt-gateway/internal/broker"
	"qmt-gateway/internal/model"
)

// statusTable 为柜台委托状态代码到规范状态的固定映射，
// 未收录的代码一律按 PENDING 处理。
var statusTable = map[int]model.OrderStatus{
	broker.OrderUnreported:     model.OrderStatusPending,
	broker.OrderWaitReporting:  model.OrderStatusPending,
	broker.OrderReported:       model.OrderStatusSubmitted,
	broker.OrderReportedCancel: model.OrderStatusSubmitted,
	broker.OrderPartsuccCancel: model.OrderStatusPartialFilled,
	broker.OrderPartCancel:     model.OrderStatusCancelled,
	broker.OrderCanceled:       model.OrderStatusCancelled,
	broker.OrderPartSucc:       model.OrderStatusPartialFilled,
	broker.OrderSucceeded:      model.OrderStatusFilled,
	broker.OrderJunk:           model.OrderStatusRejected,
}

// fallbackSellCodes 为卖出方向的兜底数值集合，
// 防御 SDK 版本间常量不可解析的情况。
var fallbackSellCodes = map[int]struct{}{
	24: {},
	25: {},
}

// Position 转换柜台持仓记录。
func Position(p broker.Position) model.PositionInfo {
	return model.PositionInfo{
		StockCode:       p.StockCode,
		StockName:       derefString(p.InstrumentName),
		Volume:          p.Volume,
		AvailableVolume: p.CanUseVolume,
		FrozenVolume:    p.FrozenVolume,
		CostPrice:       p.AvgPrice,
		MarketPrice:     derefFloat(p.LastPrice),
		MarketValue:     p.MarketValue,
		ProfitLoss:      derefFloat(p.FloatProfit),
		ProfitLossRatio: derefFloat(p.ProfitRate),
	}
}

// Order 转换柜台委托记录。
func Order(o broker.Order) model.OrderResponse {
	resp := model.OrderResponse{
		OrderID:       o.OrderID,
		StockCode:     o.StockCode,
		Side:          sideFromTypeCode(o.OrderType),
		OrderType:     orderTypeFromPriceCode(o.PriceType),
		Volume:        o.OrderVolume,
		Price:         o.Price,
		Status:        StatusFromCode(o.OrderStatus),
		SubmittedTime: timeFromEpoch(o.OrderTime),
		FilledVolume:  o.TradedVolume,
	}

	// 无成交时均价保持为空，区别于成交均价恰好为 0 的情况。
	if o.TradedPrice > 0 {
		avg := o.TradedPrice
		resp.AveragePrice = &avg
	}

	return resp
}

// Trade 转换柜台成交记录。
func Trade(t broker.Trade) model.TradeInfo {
	return model.TradeInfo{
		TradeID:    t.TradedID,
		OrderID:    t.OrderID,
		StockCode:  t.StockCode,
		Side:       sideFromTypeCode(t.OrderType),
		Volume:     t.TradedVolume,
		Price:      t.TradedPrice,
		Amount:     t.TradedAmount,
		TradeTime:  timeFromEpoch(t.TradedTime),
		Commission: derefFloat(t.Commission),
	}
}

// Asset 转换柜台资金记录。柜台不提供盈亏字段，保持为 0。
func Asset(a broker.Asset) model.AssetInfo {
	return model.AssetInfo{
		TotalAsset:      a.TotalAsset,
		MarketValue:     a.MarketValue,
		Cash:            a.Cash,
		FrozenCash:      a.FrozenCash,
		AvailableCash:   a.Cash,
		ProfitLoss:      0,
		ProfitLossRatio: 0,
	}
}

// StatusFromCode 按固定映射表解析委托状态代码。
func StatusFromCode(code int) model.OrderStatus {
	if status, ok := statusTable[code]; ok {
		return status
	}
	return model.OrderStatusPending
}

func sideFromTypeCode(code int) model.OrderSide {
	if code == broker.StockSell {
		return model.OrderSideSell
	}
	if _, ok := fallbackSellCodes[code]; ok {
		return model.OrderSideSell
	}
	return model.OrderSideBuy
}

func orderTypeFromPriceCode(code int) model.OrderType {
	if code == broker.LatestPrice {
		return model.OrderTypeMarket
	}
	return model.OrderTypeLimit
}

// timeFromEpoch 把秒级时间戳转为本地时间，缺失或非法时回退当前时间。
func timeFromEpoch(sec int64) time.Time {
	if sec <= 0 {
		return time.Now()
	}
	return time.Unix(sec, 0)
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
