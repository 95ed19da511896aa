package gateway

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"qmt-gateway/internal/broker"
	"qmt-gateway/internal/config"
	"qmt-gateway/internal/model"
	"qmt-gateway/internal/policy"
)

var instrumentPattern = regexp.MustCompile(`^\d{6}\.(SH|SZ|BJ)$`)

func newTestService(mode config.Mode, allow bool, client broker.Client) *Service {
	p := policy.New(config.BrokerConfig{Mode: mode, AllowRealTrading: allow})
	return NewService(p, client, func(code string) bool {
		return instrumentPattern.MatchString(code)
	}, nil, nil)
}

func connect(t *testing.T, svc *Service, accountID string) string {
	t.Helper()
	resp := svc.ConnectAccount(context.Background(), model.ConnectRequest{AccountID: accountID})
	if !resp.Success {
		t.Fatalf("连接账户失败: %s", resp.Message)
	}
	if resp.SessionID == "" || resp.AccountInfo == nil {
		t.Fatalf("连接响应缺少会话或账户快照: %+v", resp)
	}
	return resp.SessionID
}

func buyRequest() model.OrderRequest {
	return model.OrderRequest{
		StockCode: "600000.SH",
		Side:      model.OrderSideBuy,
		OrderType: model.OrderTypeLimit,
		Volume:    100,
		Price:     10.0,
	}
}

func TestSubmitOrderMockModeNeverTouchesClient(t *testing.T) {
	client := &mockBrokerClient{}
	svc := newTestService(config.ModeMock, false, client)
	sess := connect(t, svc, "U1")

	first, err := svc.SubmitOrder(context.Background(), sess, buyRequest())
	if err != nil {
		t.Fatalf("SubmitOrder 失败: %v", err)
	}
	if first.OrderID != "mock_order_1000" {
		t.Errorf("首个模拟编号 = %s, want mock_order_1000", first.OrderID)
	}
	if first.Status != model.OrderStatusSubmitted {
		t.Errorf("模拟委托状态 = %s, want SUBMITTED", first.Status)
	}

	second, err := svc.SubmitOrder(context.Background(), sess, buyRequest())
	if err != nil {
		t.Fatalf("SubmitOrder 失败: %v", err)
	}
	if second.OrderID != "mock_order_1001" {
		t.Errorf("第二个模拟编号 = %s, want mock_order_1001", second.OrderID)
	}

	if len(client.calls) != 0 {
		t.Errorf("模拟模式不得触达外部通道: %v", client.calls)
	}
}

func TestSubmitOrderProdWithoutFlagFollowsMockPath(t *testing.T) {
	// 关键安全属性：连接真实数据不等于放行真实资金。
	client := &mockBrokerClient{}
	svc := newTestService(config.ModeProd, false, client)
	sess := connect(t, svc, "U1")

	resp, err := svc.SubmitOrder(context.Background(), sess, buyRequest())
	if err != nil {
		t.Fatalf("SubmitOrder 失败: %v", err)
	}
	if resp.OrderID != "mock_order_1000" {
		t.Errorf("prod 未开闸应走模拟路径, got %s", resp.OrderID)
	}
	for _, call := range client.calls {
		if call == "SubmitOrder" {
			t.Fatal("prod 未开闸不得提交真实委托")
		}
	}
}

func TestSubmitOrderInvalidInstrument(t *testing.T) {
	svc := newTestService(config.ModeMock, false, nil)
	sess := connect(t, svc, "U1")

	req := buyRequest()
	req.StockCode = "BADCODE"
	if _, err := svc.SubmitOrder(context.Background(), sess, req); !errors.Is(err, ErrInvalidInstrument) {
		t.Fatalf("非法标的应返回 ErrInvalidInstrument, got %v", err)
	}
}

func TestSubmitOrderRealTrading(t *testing.T) {
	client := &mockBrokerClient{submitID: "20240603001"}
	svc := newTestService(config.ModeProd, true, client)
	sess := connect(t, svc, "U1")

	resp, err := svc.SubmitOrder(context.Background(), sess, buyRequest())
	if err != nil {
		t.Fatalf("SubmitOrder 失败: %v", err)
	}
	if resp.OrderID != "20240603001" {
		t.Errorf("应采用柜台编号, got %s", resp.OrderID)
	}
	if resp.Status != model.OrderStatusSubmitted {
		t.Errorf("状态 = %s, want SUBMITTED", resp.Status)
	}
	if got, ok := svc.orders.Get("20240603001"); !ok || got.Status != model.OrderStatusSubmitted {
		t.Errorf("柜台确认后应落入委托簿: %+v, %v", got, ok)
	}
}

func TestSubmitOrderRealTradingFailureNotRecorded(t *testing.T) {
	client := &mockBrokerClient{submitErr: errors.New("柜台拒单")}
	svc := newTestService(config.ModeProd, true, client)
	sess := connect(t, svc, "U1")

	_, err := svc.SubmitOrder(context.Background(), sess, buyRequest())
	if !errors.Is(err, ErrOrderFailed) {
		t.Fatalf("柜台失败应包装为 ErrOrderFailed, got %v", err)
	}
	if orders := svc.orders.List(); len(orders) != 0 {
		t.Errorf("失败的委托不得落账: %+v", orders)
	}
}

func TestSubmitOrderRealTradingClientAbsent(t *testing.T) {
	svc := newTestService(config.ModeProd, true, nil)
	sess := connect(t, svc, "U1")

	if _, err := svc.SubmitOrder(context.Background(), sess, buyRequest()); !errors.Is(err, ErrOrderFailed) {
		t.Fatalf("通道缺席下的真实写入应返回 ErrOrderFailed, got %v", err)
	}
}

func TestCancelOrderMockModeAlwaysSucceeds(t *testing.T) {
	client := &mockBrokerClient{}
	svc := newTestService(config.ModeMock, false, client)
	sess := connect(t, svc, "U1")

	// 从未见过的委托编号同样放行
	ok, err := svc.CancelOrder(context.Background(), sess, model.CancelOrderRequest{OrderID: "never_seen"})
	if err != nil || !ok {
		t.Fatalf("模拟模式撤单应无条件成功: ok=%v err=%v", ok, err)
	}
	if len(client.calls) != 0 {
		t.Errorf("模拟模式撤单不得触达外部通道: %v", client.calls)
	}
}

func TestSubmitThenCancelRoundTrip(t *testing.T) {
	svc := newTestService(config.ModeMock, false, nil)
	sess := connect(t, svc, "U1")

	resp, err := svc.SubmitOrder(context.Background(), sess, buyRequest())
	if err != nil {
		t.Fatalf("SubmitOrder 失败: %v", err)
	}

	orders, err := svc.GetOrders(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetOrders 失败: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderID != resp.OrderID || orders[0].Status != model.OrderStatusSubmitted {
		t.Fatalf("提交后委托簿内容错误: %+v", orders)
	}

	if ok, err := svc.CancelOrder(context.Background(), sess, model.CancelOrderRequest{OrderID: resp.OrderID}); err != nil || !ok {
		t.Fatalf("撤单失败: ok=%v err=%v", ok, err)
	}

	orders, err = svc.GetOrders(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetOrders 失败: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != model.OrderStatusCancelled {
		t.Fatalf("撤单后状态应为 CANCELLED: %+v", orders)
	}
}

func TestCancelOrderRealTrading(t *testing.T) {
	client := &mockBrokerClient{submitID: "20240603001", cancelOK: true}
	svc := newTestService(config.ModeProd, true, client)
	sess := connect(t, svc, "U1")

	if _, err := svc.CancelOrder(context.Background(), sess, model.CancelOrderRequest{OrderID: "missing"}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("真实模式撤销未知委托应返回 ErrOrderNotFound, got %v", err)
	}

	resp, err := svc.SubmitOrder(context.Background(), sess, buyRequest())
	if err != nil {
		t.Fatalf("SubmitOrder 失败: %v", err)
	}

	ok, err := svc.CancelOrder(context.Background(), sess, model.CancelOrderRequest{OrderID: resp.OrderID})
	if err != nil || !ok {
		t.Fatalf("真实撤单失败: ok=%v err=%v", ok, err)
	}
	if got, _ := svc.orders.Get(resp.OrderID); got.Status != model.OrderStatusCancelled {
		t.Errorf("撤单成功后委托簿状态 = %s", got.Status)
	}

	client.cancelErr = errors.New("柜台超时")
	svc.orders.Put(model.OrderResponse{OrderID: "o2", Status: model.OrderStatusSubmitted})
	if _, err := svc.CancelOrder(context.Background(), sess, model.CancelOrderRequest{OrderID: "o2"}); !errors.Is(err, ErrOrderFailed) {
		t.Fatalf("柜台撤单异常应包装为 ErrOrderFailed, got %v", err)
	}
}

func TestQueriesRequireSession(t *testing.T) {
	client := &mockBrokerClient{}
	svc := newTestService(config.ModeDev, false, client)

	ctx := context.Background()
	if _, err := svc.GetPositions(ctx, "missing"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetPositions 未连会话应失败, got %v", err)
	}
	if _, err := svc.GetOrders(ctx, "missing"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetOrders 未连会话应失败, got %v", err)
	}
	if _, err := svc.GetTrades(ctx, "missing"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetTrades 未连会话应失败, got %v", err)
	}
	if _, err := svc.GetAssetInfo(ctx, "missing"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetAssetInfo 未连会话应失败, got %v", err)
	}
	if _, err := svc.GetRiskInfo("missing"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetRiskInfo 未连会话应失败, got %v", err)
	}
	if _, err := svc.GetStrategies("missing"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetStrategies 未连会话应失败, got %v", err)
	}
	if _, err := svc.GetAccountSnapshot(ctx, "missing"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetAccountSnapshot 未连会话应失败, got %v", err)
	}

	if len(client.calls) != 0 {
		t.Errorf("未连会话不得触达外部通道: %v", client.calls)
	}
}

func TestReadsDegradeOnClientFailure(t *testing.T) {
	failure := errors.New("通道故障")
	client := &mockBrokerClient{
		positionsErr: failure,
		ordersErr:    failure,
		tradesErr:    failure,
		assetErr:     failure,
	}
	svc := newTestService(config.ModeDev, false, client)
	sess := connect(t, svc, "U1")
	ctx := context.Background()

	positions, err := svc.GetPositions(ctx, sess)
	if err != nil {
		t.Fatalf("读路径不得因通道失败而报错: %v", err)
	}
	if len(positions) != 2 || positions[0].StockCode != "000001.SZ" {
		t.Errorf("持仓降级应返回样例数据: %+v", positions)
	}

	trades, err := svc.GetTrades(ctx, sess)
	if err != nil || len(trades) != 1 || trades[0].TradeID != "trade_001" {
		t.Errorf("成交降级应返回样例数据: %+v err=%v", trades, err)
	}

	asset, err := svc.GetAssetInfo(ctx, sess)
	if err != nil || asset.TotalAsset != 1800000.0 {
		t.Errorf("资产降级应返回样例数据: %+v err=%v", asset, err)
	}

	// 委托降级退回委托簿（本地事实），而非样例数据
	if _, err := svc.SubmitOrder(ctx, sess, buyRequest()); err != nil {
		t.Fatalf("SubmitOrder 失败: %v", err)
	}
	orders, err := svc.GetOrders(ctx, sess)
	if err != nil || len(orders) != 1 || orders[0].OrderID != "mock_order_1000" {
		t.Errorf("委托降级应返回委托簿内容: %+v err=%v", orders, err)
	}
}

func TestReadsUseRealDataWhenAvailable(t *testing.T) {
	name := "浦发银行"
	client := &mockBrokerClient{
		positions: []broker.Position{{
			StockCode:      "600000.SH",
			InstrumentName: &name,
			Volume:         200,
			CanUseVolume:   200,
			AvgPrice:       7.8,
			MarketValue:    1560,
		}},
		orders: []broker.Order{{
			OrderID:     "8001",
			StockCode:   "600000.SH",
			OrderType:   broker.StockSell,
			PriceType:   broker.FixPrice,
			OrderStatus: broker.OrderSucceeded,
			OrderVolume: 100,
			Price:       7.9,
		}},
	}
	svc := newTestService(config.ModeDev, false, client)
	sess := connect(t, svc, "U1")
	ctx := context.Background()

	positions, err := svc.GetPositions(ctx, sess)
	if err != nil || len(positions) != 1 {
		t.Fatalf("应返回真实持仓: %+v err=%v", positions, err)
	}
	if positions[0].StockName != name {
		t.Errorf("持仓转换错误: %+v", positions[0])
	}

	orders, err := svc.GetOrders(ctx, sess)
	if err != nil || len(orders) != 1 {
		t.Fatalf("应返回真实委托: %+v err=%v", orders, err)
	}
	if orders[0].Side != model.OrderSideSell || orders[0].Status != model.OrderStatusFilled {
		t.Errorf("委托转换错误: %+v", orders[0])
	}
}

func TestMockModeNeverQueriesClient(t *testing.T) {
	client := &mockBrokerClient{}
	svc := newTestService(config.ModeMock, false, client)
	sess := connect(t, svc, "U1")
	ctx := context.Background()

	if _, err := svc.GetPositions(ctx, sess); err != nil {
		t.Fatalf("GetPositions 失败: %v", err)
	}
	if _, err := svc.GetAssetInfo(ctx, sess); err != nil {
		t.Fatalf("GetAssetInfo 失败: %v", err)
	}
	if len(client.calls) != 0 {
		t.Errorf("mock 模式不得触达外部通道: %v", client.calls)
	}
}

func TestPlaceholderRiskAndStrategies(t *testing.T) {
	svc := newTestService(config.ModeMock, false, nil)
	sess := connect(t, svc, "U1")

	risk, err := svc.GetRiskInfo(sess)
	if err != nil {
		t.Fatalf("GetRiskInfo 失败: %v", err)
	}
	if risk.PositionRatio != 0.44 || risk.CashRatio != 0.56 {
		t.Errorf("风险占位数据不符: %+v", risk)
	}

	strategies, err := svc.GetStrategies(sess)
	if err != nil {
		t.Fatalf("GetStrategies 失败: %v", err)
	}
	if len(strategies) != 2 || strategies[0].StrategyName != "MA策略" {
		t.Errorf("策略占位数据不符: %+v", strategies)
	}
}

func TestGetAccountSnapshotAggregates(t *testing.T) {
	svc := newTestService(config.ModeMock, false, nil)
	sess := connect(t, svc, "U1")

	if _, err := svc.SubmitOrder(context.Background(), sess, buyRequest()); err != nil {
		t.Fatalf("SubmitOrder 失败: %v", err)
	}

	snapshot, err := svc.GetAccountSnapshot(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetAccountSnapshot 失败: %v", err)
	}
	if len(snapshot.Positions) != 2 || len(snapshot.Trades) != 1 || len(snapshot.Orders) != 1 {
		t.Errorf("快照聚合内容错误: %+v", snapshot)
	}
	if snapshot.Asset.TotalAsset == 0 || snapshot.RetrievedAt.IsZero() {
		t.Errorf("快照缺少资产或时间戳: %+v", snapshot)
	}
}

func TestDisconnectAccount(t *testing.T) {
	svc := newTestService(config.ModeMock, false, nil)
	sess := connect(t, svc, "U1")

	if !svc.DisconnectAccount(context.Background(), sess) {
		t.Fatal("断开已存在会话应返回 true")
	}
	if svc.DisconnectAccount(context.Background(), sess) {
		t.Fatal("重复断开应返回 false")
	}
	if svc.IsConnected(sess) {
		t.Fatal("断开后 IsConnected 应为 false")
	}
	if _, err := svc.GetAccountInfo(sess); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("断开后查询账户应失败, got %v", err)
	}
}

func TestConnectAccountRejectsEmptyAccountID(t *testing.T) {
	svc := newTestService(config.ModeMock, false, nil)
	resp := svc.ConnectAccount(context.Background(), model.ConnectRequest{})
	if resp.Success {
		t.Fatal("空账户号连接应报告失败")
	}
	if resp.SessionID != "" {
		t.Fatalf("失败的连接不应产生会话: %+v", resp)
	}
}

// mockBrokerClient 为测试用的执行通道替身。
type mockBrokerClient struct {
	calls []string

	positions    []broker.Position
	positionsErr error
	orders       []broker.Order
	ordersErr    error
	trades       []broker.Trade
	tradesErr    error
	asset        *broker.Asset
	assetErr     error
	submitID     string
	submitErr    error
	cancelOK     bool
	cancelErr    error
}

func (m *mockBrokerClient) Connect(ctx context.Context) error {
	m.calls = append(m.calls, "Connect")
	return nil
}

func (m *mockBrokerClient) QueryPositions(ctx context.Context, accountID string) ([]broker.Position, error) {
	m.calls = append(m.calls, "QueryPositions")
	return m.positions, m.positionsErr
}

func (m *mockBrokerClient) QueryOrders(ctx context.Context, accountID string, includeCancelled bool) ([]broker.Order, error) {
	m.calls = append(m.calls, "QueryOrders")
	return m.orders, m.ordersErr
}

func (m *mockBrokerClient) QueryTrades(ctx context.Context, accountID string) ([]broker.Trade, error) {
	m.calls = append(m.calls, "QueryTrades")
	return m.trades, m.tradesErr
}

func (m *mockBrokerClient) QueryAsset(ctx context.Context, accountID string) (*broker.Asset, error) {
	m.calls = append(m.calls, "QueryAsset")
	return m.asset, m.assetErr
}

func (m *mockBrokerClient) SubmitOrder(ctx context.Context, req broker.SubmitRequest) (string, error) {
	m.calls = append(m.calls, "SubmitOrder")
	return m.submitID, m.submitErr
}

func (m *mockBrokerClient) CancelOrder(ctx context.Context, accountID, orderID string) (bool, error) {
	m.calls = append(m.calls, "CancelOrder")
	return m.cancelOK, m.cancelErr
}
