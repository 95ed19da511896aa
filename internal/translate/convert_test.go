package translate

import (
	"testing"
	"time"

	"qmt-gateway/internal/broker"
	"qmt-gateway/internal/model"
)

func TestStatusFromCode(t *testing.T) {
	cases := []struct {
		code int
		want model.OrderStatus
	}{
		{48, model.OrderStatusPending},
		{49, model.OrderStatusPending},
		{50, model.OrderStatusSubmitted},
		{51, model.OrderStatusSubmitted},
		{52, model.OrderStatusPartialFilled},
		{53, model.OrderStatusCancelled},
		{54, model.OrderStatusCancelled},
		{55, model.OrderStatusPartialFilled},
		{56, model.OrderStatusFilled},
		{57, model.OrderStatusRejected},
		{0, model.OrderStatusPending},
		{100, model.OrderStatusPending},
	}

	for _, tc := range cases {
		if got := StatusFromCode(tc.code); got != tc.want {
			t.Errorf("StatusFromCode(%d) = %s, want %s", tc.code, got, tc.want)
		}
	}
}

func TestOrderSideAndTypeMapping(t *testing.T) {
	base := broker.Order{
		OrderID:     "1234",
		StockCode:   "600000.SH",
		OrderVolume: 100,
		Price:       10.5,
		OrderStatus: broker.OrderReported,
	}

	buy := base
	buy.OrderType = broker.StockBuy
	if got := Order(buy); got.Side != model.OrderSideBuy {
		t.Errorf("买入代码映射错误: %s", got.Side)
	}

	sell := base
	sell.OrderType = broker.StockSell
	if got := Order(sell); got.Side != model.OrderSideSell {
		t.Errorf("卖出常量映射错误: %s", got.Side)
	}

	fallbackSell := base
	fallbackSell.OrderType = 25
	if got := Order(fallbackSell); got.Side != model.OrderSideSell {
		t.Errorf("兜底卖出代码 25 映射错误: %s", got.Side)
	}

	unknown := base
	unknown.OrderType = 99
	if got := Order(unknown); got.Side != model.OrderSideBuy {
		t.Errorf("未知方向代码应默认买入: %s", got.Side)
	}

	market := base
	market.PriceType = broker.LatestPrice
	if got := Order(market); got.OrderType != model.OrderTypeMarket {
		t.Errorf("市价代码映射错误: %s", got.OrderType)
	}

	limit := base
	limit.PriceType = broker.FixPrice
	if got := Order(limit); got.OrderType != model.OrderTypeLimit {
		t.Errorf("限价代码映射错误: %s", got.OrderType)
	}
}

func TestOrderAveragePriceAbsentWhenNoFill(t *testing.T) {
	o := broker.Order{
		OrderID:     "1",
		OrderStatus: broker.OrderReported,
		TradedPrice: 0,
	}
	if got := Order(o); got.AveragePrice != nil {
		t.Errorf("无成交时均价应为空, got %v", *got.AveragePrice)
	}

	o.TradedPrice = 10.2
	got := Order(o)
	if got.AveragePrice == nil || *got.AveragePrice != 10.2 {
		t.Errorf("有成交时均价应为 10.2, got %v", got.AveragePrice)
	}
}

func TestOrderTimestampNormalization(t *testing.T) {
	epoch := time.Date(2024, 6, 3, 9, 31, 0, 0, time.Local).Unix()

	o := broker.Order{OrderID: "1", OrderTime: epoch}
	if got := Order(o); !got.SubmittedTime.Equal(time.Unix(epoch, 0)) {
		t.Errorf("时间戳转换错误: %v", got.SubmittedTime)
	}

	before := time.Now()
	o.OrderTime = 0
	got := Order(o)
	if got.SubmittedTime.Before(before) {
		t.Errorf("缺失时间戳应回退当前时间: %v", got.SubmittedTime)
	}
}

func TestPositionDefaults(t *testing.T) {
	p := broker.Position{
		StockCode:    "000001.SZ",
		Volume:       10000,
		CanUseVolume: 9000,
		FrozenVolume: 1000,
		AvgPrice:     12.5,
		MarketValue:  132000,
	}

	got := Position(p)
	if got.StockName != "" {
		t.Errorf("缺失名称应为空串, got %q", got.StockName)
	}
	if got.MarketPrice != 0 || got.ProfitLoss != 0 || got.ProfitLossRatio != 0 {
		t.Errorf("缺失行情字段应为 0: %+v", got)
	}
	if got.AvailableVolume != 9000 || got.FrozenVolume != 1000 {
		t.Errorf("数量字段转换错误: %+v", got)
	}

	name := "平安银行"
	last := 13.2
	p.InstrumentName = &name
	p.LastPrice = &last
	got = Position(p)
	if got.StockName != name || got.MarketPrice != last {
		t.Errorf("可选字段应透传: %+v", got)
	}
}

func TestTradeDefaults(t *testing.T) {
	tr := broker.Trade{
		TradedID:     "t1",
		OrderID:      "o1",
		StockCode:    "600000.SH",
		OrderType:    broker.StockBuy,
		TradedVolume: 1000,
		TradedPrice:  13.2,
		TradedAmount: 13200,
	}

	got := Trade(tr)
	if got.Commission != 0 {
		t.Errorf("缺失佣金应为 0, got %v", got.Commission)
	}
	if got.Side != model.OrderSideBuy {
		t.Errorf("方向转换错误: %s", got.Side)
	}

	fee := 13.2
	tr.Commission = &fee
	if got := Trade(tr); got.Commission != fee {
		t.Errorf("佣金应透传, got %v", got.Commission)
	}
}

func TestAssetAvailableCashMirrorsCash(t *testing.T) {
	a := broker.Asset{TotalAsset: 1800000, MarketValue: 800000, Cash: 950000, FrozenCash: 50000}
	got := Asset(a)
	if got.AvailableCash != a.Cash {
		t.Errorf("可用资金应等于现金, got %v", got.AvailableCash)
	}
	if got.ProfitLoss != 0 || got.ProfitLossRatio != 0 {
		t.Errorf("柜台资金记录不含盈亏, 应为 0: %+v", got)
	}
}
