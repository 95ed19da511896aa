// Package gateway 把模式判定、会话存储、委托簿、记录转换与
// 外部执行通道编排成对客户端的交易网关。
//
// 读路径在真实数据失败时一律静默降级（订单退回委托簿，
// 持仓/成交/资产退回样例数据），只有会话前置条件能让读失败；
// 写路径只有在模式判定放行真实交易时才会触达外部通道。
package gateway

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"qmt-gateway/internal/audit"
	"qmt-gateway/internal/broker"
	"qmt-gateway/internal/model"
	"qmt-gateway/internal/orderbook"
	"qmt-gateway/internal/policy"
	"qmt-gateway/internal/session"
	"qmt-gateway/internal/translate"
)

// InstrumentValidator 校验标的代码合法性，由装配层注入。
type InstrumentValidator func(code string) bool

// Service 为交易网关编排器。
type Service struct {
	policy   *policy.Policy
	client   broker.Client // nil 表示执行通道不可用
	validate InstrumentValidator
	sessions *session.Store
	orders   *orderbook.Book
	audit    *audit.Service // 可为 nil
	logger   *zap.Logger
}

// NewService 创建网关服务。client 为 nil 时所有真实路径视为关闭。
func NewService(p *policy.Policy, client broker.Client, validate InstrumentValidator, auditSvc *audit.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = func(string) bool { return false }
	}
	return &Service{
		policy:   p,
		client:   client,
		validate: validate,
		sessions: session.NewStore(),
		orders:   orderbook.NewBook(),
		audit:    auditSvc,
		logger:   logger,
	}
}

// Warmup 预热执行通道，失败不致命，仅记录日志。
func (s *Service) Warmup(ctx context.Context) {
	if s.client == nil {
		return
	}
	if err := s.client.Connect(ctx); err != nil {
		s.logger.Warn("执行通道预热失败", zap.Error(err))
		return
	}
	s.logger.Info("执行通道已初始化")
}

// ConnectAccount 连接交易账户。失败属于常规结果，
// 通过结构化响应报告而非错误返回。
func (s *Service) ConnectAccount(ctx context.Context, req model.ConnectRequest) model.ConnectResponse {
	if req.AccountID == "" {
		resp := model.ConnectResponse{Success: false, Message: "账户连接失败: account_id 不能为空"}
		s.auditConnect(ctx, req.AccountID, "", resp)
		return resp
	}

	// 凭据校验在真实交易放行时由柜台完成；此处合成账户快照。
	info := mockAccountInfo(req.AccountID)
	sess := s.sessions.Connect(info)

	s.logger.Info("账户连接成功",
		zap.String("account_id", req.AccountID),
		zap.String("session_id", sess.ID),
	)

	resp := model.ConnectResponse{
		Success:     true,
		Message:     "账户连接成功",
		SessionID:   sess.ID,
		AccountInfo: &info,
	}
	s.auditConnect(ctx, req.AccountID, sess.ID, resp)
	return resp
}

// DisconnectAccount 断开会话，会话不存在时返回 false。
func (s *Service) DisconnectAccount(ctx context.Context, sessionID string) bool {
	ok := s.sessions.Disconnect(sessionID)
	if s.audit != nil {
		s.audit.RecordDisconnect(ctx, audit.ConnectPayload{SessionID: sessionID, Success: ok})
	}
	return ok
}

// GetAccountInfo 返回连接时捕获的账户快照。
func (s *Service) GetAccountInfo(sessionID string) (model.AccountInfo, error) {
	return s.sessions.Get(sessionID)
}

// IsConnected 检查会话是否存在。
func (s *Service) IsConnected(sessionID string) bool {
	return s.sessions.IsConnected(sessionID)
}

// GetPositions 获取持仓。真实数据关闭或失败时返回样例持仓。
func (s *Service) GetPositions(ctx context.Context, sessionID string) ([]model.PositionInfo, error) {
	account, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if s.realDataReady() {
		raw, qerr := s.client.QueryPositions(ctx, account.AccountID)
		if qerr == nil {
			s.logger.Info("获取真实持仓数据成功", zap.Int("count", len(raw)))
			positions := make([]model.PositionInfo, 0, len(raw))
			for _, p := range raw {
				positions = append(positions, translate.Position(p))
			}
			return positions, nil
		}
		s.degrade(ctx, sessionID, "get_positions", qerr)
	}

	return mockPositions(), nil
}

// GetOrders 获取委托列表。真实数据关闭或失败时退回委托簿内容。
func (s *Service) GetOrders(ctx context.Context, sessionID string) ([]model.OrderResponse, error) {
	account, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if s.realDataReady() {
		raw, qerr := s.client.QueryOrders(ctx, account.AccountID, false)
		switch {
		case qerr != nil:
			s.degrade(ctx, sessionID, "get_orders", qerr)
		case raw == nil:
			s.logger.Info("查询委托返回空，回退到内存委托")
		default:
			s.logger.Info("获取真实委托数据成功", zap.Int("count", len(raw)))
			orders := make([]model.OrderResponse, 0, len(raw))
			for _, o := range raw {
				orders = append(orders, translate.Order(o))
			}
			return orders, nil
		}
	}

	return s.orders.List(), nil
}

// GetTrades 获取成交记录。真实数据关闭或失败时返回样例成交。
func (s *Service) GetTrades(ctx context.Context, sessionID string) ([]model.TradeInfo, error) {
	account, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if s.realDataReady() {
		raw, qerr := s.client.QueryTrades(ctx, account.AccountID)
		if qerr == nil {
			s.logger.Info("获取真实成交数据成功", zap.Int("count", len(raw)))
			trades := make([]model.TradeInfo, 0, len(raw))
			for _, t := range raw {
				trades = append(trades, translate.Trade(t))
			}
			return trades, nil
		}
		s.degrade(ctx, sessionID, "get_trades", qerr)
	}

	return mockTrades(), nil
}

// GetAssetInfo 获取资产信息。真实数据关闭或失败时返回样例资产。
func (s *Service) GetAssetInfo(ctx context.Context, sessionID string) (model.AssetInfo, error) {
	account, err := s.sessions.Get(sessionID)
	if err != nil {
		return model.AssetInfo{}, err
	}

	if s.realDataReady() {
		raw, qerr := s.client.QueryAsset(ctx, account.AccountID)
		switch {
		case qerr != nil:
			s.degrade(ctx, sessionID, "get_asset_info", qerr)
		case raw == nil:
			s.logger.Info("查询资产返回空")
		default:
			s.logger.Info("获取真实资产数据成功")
			return translate.Asset(*raw), nil
		}
	}

	return mockAsset(), nil
}

// GetRiskInfo 返回风险指标。当前为固定占位数据。
func (s *Service) GetRiskInfo(sessionID string) (model.RiskInfo, error) {
	if !s.sessions.IsConnected(sessionID) {
		return model.RiskInfo{}, ErrNotConnected
	}
	return placeholderRisk(), nil
}

// GetStrategies 返回策略列表。当前为固定占位数据。
func (s *Service) GetStrategies(sessionID string) ([]model.StrategyInfo, error) {
	if !s.sessions.IsConnected(sessionID) {
		return nil, ErrNotConnected
	}
	return placeholderStrategies(), nil
}

// SubmitOrder 提交委托。真实交易未放行时生成模拟委托，
// 绝不触达外部通道；放行时委托先经柜台确认再落入委托簿。
func (s *Service) SubmitOrder(ctx context.Context, sessionID string, req model.OrderRequest) (model.OrderResponse, error) {
	account, err := s.sessions.Get(sessionID)
	if err != nil {
		return model.OrderResponse{}, err
	}

	if !s.validate(req.StockCode) {
		return model.OrderResponse{}, fmt.Errorf("%w: %s", ErrInvalidInstrument, req.StockCode)
	}

	if !s.policy.PermitsRealTrading() {
		s.logger.Warn("当前模式不允许真实交易，返回模拟委托",
			zap.String("mode", string(s.policy.Mode())),
			zap.String("stock_code", req.StockCode),
		)
		resp := s.mockOrderResponse(req)
		s.auditOrder(ctx, sessionID, resp, true)
		return resp, nil
	}

	if s.client == nil {
		return model.OrderResponse{}, fmt.Errorf("%w: %v", ErrOrderFailed, broker.ErrUnavailable)
	}

	s.logger.Info("真实交易模式：提交委托",
		zap.String("stock_code", req.StockCode),
		zap.String("side", string(req.Side)),
		zap.Int64("volume", req.Volume),
	)

	// 外部调用不持有任何共享状态锁；柜台确认前不落账。
	orderID, err := s.client.SubmitOrder(ctx, broker.SubmitRequest{
		AccountID: account.AccountID,
		StockCode: req.StockCode,
		Side:      string(req.Side),
		Volume:    req.Volume,
		Price:     req.Price,
		OrderType: string(req.OrderType),
	})
	if err != nil {
		return model.OrderResponse{}, fmt.Errorf("%w: %v", ErrOrderFailed, err)
	}

	resp := model.OrderResponse{
		OrderID:       orderID,
		StockCode:     req.StockCode,
		Side:          req.Side,
		OrderType:     req.OrderType,
		Volume:        req.Volume,
		Price:         req.Price,
		Status:        model.OrderStatusSubmitted,
		SubmittedTime: time.Now(),
	}
	s.orders.Put(resp)
	s.auditOrder(ctx, sessionID, resp, false)

	return resp, nil
}

// CancelOrder 撤销委托。真实交易未放行时无条件放行撤单请求，
// 避免模拟环境下的交互流程被未知委托卡死。
func (s *Service) CancelOrder(ctx context.Context, sessionID string, req model.CancelOrderRequest) (bool, error) {
	account, err := s.sessions.Get(sessionID)
	if err != nil {
		return false, err
	}

	if !s.policy.PermitsRealTrading() {
		s.logger.Warn("当前模式不允许真实交易，撤单请求已拦截，直接返回成功",
			zap.String("mode", string(s.policy.Mode())),
			zap.String("order_id", req.OrderID),
		)
		s.orders.MarkCancelled(req.OrderID)
		s.auditCancel(ctx, sessionID, req.OrderID, true, true)
		return true, nil
	}

	if _, ok := s.orders.Get(req.OrderID); !ok {
		return false, fmt.Errorf("%w: %s", ErrOrderNotFound, req.OrderID)
	}

	if s.client == nil {
		return false, fmt.Errorf("%w: %v", ErrOrderFailed, broker.ErrUnavailable)
	}

	s.logger.Info("真实交易模式：撤销委托", zap.String("order_id", req.OrderID))

	success, err := s.client.CancelOrder(ctx, account.AccountID, req.OrderID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOrderFailed, err)
	}
	if success {
		s.orders.MarkCancelled(req.OrderID)
	}
	s.auditCancel(ctx, sessionID, req.OrderID, success, false)

	return success, nil
}

// realDataReady 判定本次调用是否尝试真实数据查询，
// 模式判定每次重新求值，通道缺席时恒为 false。
func (s *Service) realDataReady() bool {
	return s.policy.PermitsRealData() && s.client != nil
}

func (s *Service) mockOrderResponse(req model.OrderRequest) model.OrderResponse {
	resp := model.OrderResponse{
		OrderID:       s.orders.NextMockID(),
		StockCode:     req.StockCode,
		Side:          req.Side,
		OrderType:     req.OrderType,
		Volume:        req.Volume,
		Price:         req.Price,
		Status:        model.OrderStatusSubmitted,
		SubmittedTime: time.Now(),
	}
	s.orders.Put(resp)
	return resp
}

func (s *Service) degrade(ctx context.Context, sessionID, operation string, err error) {
	s.logger.Warn("获取真实数据失败，降级为本地数据",
		zap.String("operation", operation),
		zap.Error(err),
	)
	if s.audit != nil {
		s.audit.RecordFallback(ctx, audit.FallbackPayload{
			SessionID: sessionID,
			Operation: operation,
			Reason:    err.Error(),
		})
	}
}

func (s *Service) auditConnect(ctx context.Context, accountID, sessionID string, resp model.ConnectResponse) {
	if s.audit == nil {
		return
	}
	s.audit.RecordConnect(ctx, audit.ConnectPayload{
		AccountID: accountID,
		SessionID: sessionID,
		Success:   resp.Success,
		Message:   resp.Message,
	})
}

func (s *Service) auditOrder(ctx context.Context, sessionID string, resp model.OrderResponse, simulated bool) {
	if s.audit == nil {
		return
	}
	s.audit.RecordOrder(ctx, audit.OrderPayload{
		SessionID: sessionID,
		OrderID:   resp.OrderID,
		StockCode: resp.StockCode,
		Side:      string(resp.Side),
		Volume:    resp.Volume,
		Price:     resp.Price,
		Simulated: simulated,
	})
}

func (s *Service) auditCancel(ctx context.Context, sessionID, orderID string, success, simulated bool) {
	if s.audit == nil {
		return
	}
	s.audit.RecordCancel(ctx, audit.CancelPayload{
		SessionID: sessionID,
		OrderID:   orderID,
		Success:   success,
		Simulated: simulated,
	})
}
