package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"qmt-gateway/internal/config"
)

// ccxtClient 把 ccxt 交易所通道适配成柜台记录格式，
// 供海外/加密部署复用同一套网关语义。该通道下
// instrument code 即为 ccxt 交易对符号。
type ccxtClient struct {
	exchange *ccxt.Binance
	market   string
	logger   *zap.Logger

	marketsMu     sync.Mutex
	marketsLoaded bool
}

func newCCXTClient(cfg config.ExchangeConfig, logger *zap.Logger) (*ccxtClient, error) {
	if !strings.EqualFold(cfg.Name, "binance") {
		return nil, fmt.Errorf("暂不支持的交易所 %q", cfg.Name)
	}

	userConfig := map[string]interface{}{
		"enableRateLimit": true,
	}
	if cfg.APIKey != "" {
		userConfig["apiKey"] = cfg.APIKey
	}
	if cfg.APISecret != "" {
		userConfig["secret"] = cfg.APISecret
	}
	if cfg.APIPass != "" {
		userConfig["password"] = cfg.APIPass
	}

	ex := ccxt.NewBinance(userConfig)
	if cfg.UseSandbox {
		ex.SetSandboxMode(true)
	}

	return &ccxtClient{
		exchange: ex,
		market:   cfg.Market,
		logger:   logger,
	}, nil
}

func (c *ccxtClient) Connect(ctx context.Context) error {
	return c.ensureMarketsLoaded(ctx)
}

func (c *ccxtClient) ensureMarketsLoaded(_ context.Context) error {
	if c.marketsLoaded {
		return nil
	}

	c.marketsMu.Lock()
	defer c.marketsMu.Unlock()

	if c.marketsLoaded {
		return nil
	}

	if _, err := c.exchange.LoadMarkets(); err != nil {
		return fmt.Errorf("%w: 加载市场元数据失败: %v", errTransient, err)
	}

	c.marketsLoaded = true
	c.logger.Info("已完成市场元数据加载", zap.String("market", c.market))
	return nil
}

func (c *ccxtClient) QueryPositions(ctx context.Context, _ string) ([]Position, error) {
	if err := c.ensureMarketsLoaded(ctx); err != nil {
		return nil, err
	}

	raw, err := c.exchange.FetchPositions()
	if err != nil {
		return nil, classifyCCXT(err)
	}

	positions := make([]Position, 0, len(raw))
	for _, p := range raw {
		size := derefFloat(p.Contracts)
		if size == 0 {
			continue
		}

		volume := int64(size)
		mark := derefFloat(p.MarkPrice)
		unrealized := derefFloat(p.UnrealizedPnl)
		ratio := derefFloat(p.Percentage) / 100

		positions = append(positions, Position{
			StockCode:      derefString(p.Symbol),
			InstrumentName: p.Symbol,
			Volume:         volume,
			CanUseVolume:   volume,
			FrozenVolume:   0,
			AvgPrice:       derefFloat(p.EntryPrice),
			LastPrice:      &mark,
			MarketValue:    derefFloat(p.Notional),
			FloatProfit:    &unrealized,
			ProfitRate:     &ratio,
		})
	}

	return positions, nil
}

func (c *ccxtClient) QueryOrders(ctx context.Context, _ string, includeCancelled bool) ([]Order, error) {
	if err := c.ensureMarketsLoaded(ctx); err != nil {
		return nil, err
	}

	var (
		raw []ccxt.Order
		err error
	)
	if includeCancelled {
		raw, err = c.exchange.FetchOrders(ccxt.WithFetchOrdersSymbol(c.market))
	} else {
		raw, err = c.exchange.FetchOpenOrders(ccxt.WithFetchOpenOrdersSymbol(c.market))
	}
	if err != nil {
		return nil, classifyCCXT(err)
	}

	orders := make([]Order, 0, len(raw))
	for _, o := range raw {
		orders = append(orders, Order{
			OrderID:      derefString(o.Id),
			StockCode:    derefString(o.Symbol),
			OrderType:    sideCode(derefString(o.Side)),
			PriceType:    priceTypeCode(derefString(o.Type)),
			OrderStatus:  statusCode(derefString(o.Status), derefFloat(o.Filled)),
			OrderTime:    epochSeconds(o.Timestamp),
			OrderVolume:  int64(derefFloat(o.Amount)),
			Price:        derefFloat(o.Price),
			TradedVolume: int64(derefFloat(o.Filled)),
			TradedPrice:  derefFloat(o.Average),
		})
	}

	return orders, nil
}

func (c *ccxtClient) QueryTrades(ctx context.Context, _ string) ([]Trade, error) {
	if err := c.ensureMarketsLoaded(ctx); err != nil {
		return nil, err
	}

	raw, err := c.exchange.FetchMyTrades(ccxt.WithFetchMyTradesSymbol(c.market))
	if err != nil {
		return nil, classifyCCXT(err)
	}

	trades := make([]Trade, 0, len(raw))
	for _, t := range raw {
		commission := derefFloat(t.Fee.Cost)

		trades = append(trades, Trade{
			TradedID:     derefString(t.Id),
			OrderID:      derefString(t.Order),
			StockCode:    derefString(t.Symbol),
			OrderType:    sideCode(derefString(t.Side)),
			TradedVolume: int64(derefFloat(t.Amount)),
			TradedPrice:  derefFloat(t.Price),
			TradedAmount: derefFloat(t.Cost),
			TradedTime:   epochSeconds(t.Timestamp),
			Commission:   &commission,
		})
	}

	return trades, nil
}

func (c *ccxtClient) QueryAsset(ctx context.Context, _ string) (*Asset, error) {
	if err := c.ensureMarketsLoaded(ctx); err != nil {
		return nil, err
	}

	balances, err := c.exchange.FetchBalance()
	if err != nil {
		return nil, classifyCCXT(err)
	}

	asset := &Asset{}
	for _, code := range []string{"USDT", "USDC", "USD"} {
		if balances.Total != nil {
			if total, ok := balances.Total[code]; ok && total != nil && asset.TotalAsset == 0 {
				asset.TotalAsset = *total
			}
		}
		if balances.Free != nil {
			if free, ok := balances.Free[code]; ok && free != nil && asset.Cash == 0 {
				asset.Cash = *free
			}
		}
		if balances.Used != nil {
			if used, ok := balances.Used[code]; ok && used != nil && asset.FrozenCash == 0 {
				asset.FrozenCash = *used
			}
		}
	}
	if asset.TotalAsset > asset.Cash+asset.FrozenCash {
		asset.MarketValue = asset.TotalAsset - asset.Cash - asset.FrozenCash
	}

	return asset, nil
}

func (c *ccxtClient) SubmitOrder(ctx context.Context, req SubmitRequest) (string, error) {
	if err := c.ensureMarketsLoaded(ctx); err != nil {
		return "", err
	}

	side := strings.ToLower(req.Side)
	amount := float64(req.Volume)

	var (
		order ccxt.Order
		err   error
	)
	if strings.EqualFold(req.OrderType, "MARKET") {
		order, err = c.exchange.CreateMarketOrder(req.StockCode, side, amount)
	} else {
		order, err = c.exchange.CreateLimitOrder(req.StockCode, side, amount, req.Price)
	}
	if err != nil {
		return "", classifyCCXT(err)
	}

	orderID := derefString(order.Id)
	if orderID == "" {
		return "", fmt.Errorf("交易所未返回委托编号")
	}
	return orderID, nil
}

func (c *ccxtClient) CancelOrder(ctx context.Context, _ string, orderID string) (bool, error) {
	if err := c.ensureMarketsLoaded(ctx); err != nil {
		return false, err
	}

	if _, err := c.exchange.CancelOrder(orderID, ccxt.WithCancelOrderSymbol(c.market)); err != nil {
		return false, classifyCCXT(err)
	}
	return true, nil
}

// classifyCCXT 把可重试的 ccxt 错误标记为瞬时故障。
func classifyCCXT(err error) error {
	if err == nil {
		return nil
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		switch ccxtErr.Type {
		case ccxt.NetworkErrorErrType,
			ccxt.RequestTimeoutErrType,
			ccxt.ExchangeNotAvailableErrType,
			ccxt.RateLimitExceededErrType,
			ccxt.DDoSProtectionErrType,
			ccxt.BadResponseErrType,
			ccxt.NullResponseErrType:
			return fmt.Errorf("%w: %v", errTransient, err)
		}
	}
	return err
}

// statusCode 把 ccxt 统一状态折算进柜台状态代码空间。
func statusCode(status string, filled float64) int {
	switch strings.ToLower(status) {
	case "open":
		if filled > 0 {
			return OrderPartSucc
		}
		return OrderReported
	case "closed":
		return OrderSucceeded
	case "canceled", "cancelled", "expired":
		return OrderCanceled
	case "rejected":
		return OrderJunk
	default:
		return OrderUnreported
	}
}

func sideCode(side string) int {
	if strings.EqualFold(side, "sell") {
		return StockSell
	}
	return StockBuy
}

func priceTypeCode(orderType string) int {
	if strings.EqualFold(orderType, "market") {
		return LatestPrice
	}
	return FixPrice
}

func epochSeconds(ms *int64) int64 {
	if ms == nil || *ms <= 0 {
		return 0
	}
	return *ms / 1000
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
