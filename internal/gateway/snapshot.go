package gateway

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"qmt-gateway/internal/model"
)

// GetAccountSnapshot 并发聚合资产、持仓、委托与成交。
// 各子查询自带降级语义，这里只可能因会话缺失或上下文取消而失败。
func (s *Service) GetAccountSnapshot(ctx context.Context, sessionID string) (model.AccountSnapshot, error) {
	if !s.sessions.IsConnected(sessionID) {
		return model.AccountSnapshot{}, ErrNotConnected
	}

	var snapshot model.AccountSnapshot

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		asset, err := s.GetAssetInfo(groupCtx, sessionID)
		if err != nil {
			return err
		}
		snapshot.Asset = asset
		return nil
	})

	group.Go(func() error {
		positions, err := s.GetPositions(groupCtx, sessionID)
		if err != nil {
			return err
		}
		snapshot.Positions = positions
		return nil
	})

	group.Go(func() error {
		orders, err := s.GetOrders(groupCtx, sessionID)
		if err != nil {
			return err
		}
		snapshot.Orders = orders
		return nil
	})

	group.Go(func() error {
		trades, err := s.GetTrades(groupCtx, sessionID)
		if err != nil {
			return err
		}
		snapshot.Trades = trades
		return nil
	})

	if err := group.Wait(); err != nil {
		return model.AccountSnapshot{}, err
	}

	snapshot.RetrievedAt = time.Now().UTC()
	return snapshot, nil
}
