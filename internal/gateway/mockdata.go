package gateway

import (
	"fmt"
	"time"

	"qmt-gateway/internal/model"
)

// 本文件集中了所有模拟/占位数据。持仓、成交、资产样例用于
// 真实数据关闭或降级时兜底；风险与策略则是契约性的占位实现，
// 未来由真实系统替换，网关接口保持不变。

func mockAccountInfo(accountID string) model.AccountInfo {
	return model.AccountInfo{
		AccountID:        accountID,
		AccountType:      model.AccountTypeSecurity,
		AccountName:      fmt.Sprintf("账户%s", accountID),
		Status:           "CONNECTED",
		Balance:          1000000.0,
		AvailableBalance: 950000.0,
		FrozenBalance:    50000.0,
		MarketValue:      800000.0,
		TotalAsset:       1800000.0,
	}
}

func mockPositions() []model.PositionInfo {
	return []model.PositionInfo{
		{
			StockCode:       "000001.SZ",
			StockName:       "平安银行",
			Volume:          10000,
			AvailableVolume: 10000,
			FrozenVolume:    0,
			CostPrice:       12.50,
			MarketPrice:     13.20,
			MarketValue:     132000.0,
			ProfitLoss:      7000.0,
			ProfitLossRatio: 0.056,
		},
		{
			StockCode:       "000002.SZ",
			StockName:       "万科A",
			Volume:          5000,
			AvailableVolume: 5000,
			FrozenVolume:    0,
			CostPrice:       18.80,
			MarketPrice:     19.50,
			MarketValue:     97500.0,
			ProfitLoss:      3500.0,
			ProfitLossRatio: 0.037,
		},
	}
}

func mockTrades() []model.TradeInfo {
	return []model.TradeInfo{
		{
			TradeID:    "trade_001",
			OrderID:    "order_1001",
			StockCode:  "000001.SZ",
			Side:       model.OrderSideBuy,
			Volume:     1000,
			Price:      13.20,
			Amount:     13200.0,
			TradeTime:  time.Now(),
			Commission: 13.20,
		},
	}
}

func mockAsset() model.AssetInfo {
	return model.AssetInfo{
		TotalAsset:      1800000.0,
		MarketValue:     800000.0,
		Cash:            950000.0,
		FrozenCash:      50000.0,
		AvailableCash:   900000.0,
		ProfitLoss:      50000.0,
		ProfitLossRatio: 0.028,
	}
}

func placeholderRisk() model.RiskInfo {
	return model.RiskInfo{
		PositionRatio: 0.44,
		CashRatio:     0.56,
		MaxDrawdown:   0.05,
		Var95:         0.02,
		Var99:         0.03,
	}
}

func placeholderStrategies() []model.StrategyInfo {
	now := time.Now()
	return []model.StrategyInfo{
		{
			StrategyName:   "MA策略",
			StrategyType:   "TREND_FOLLOWING",
			Status:         "RUNNING",
			CreatedTime:    now,
			LastUpdateTime: now,
			Parameters:     map[string]interface{}{"period": 20, "threshold": 0.02},
		},
		{
			StrategyName:   "均值回归策略",
			StrategyType:   "MEAN_REVERSION",
			Status:         "STOPPED",
			CreatedTime:    now,
			LastUpdateTime: now,
			Parameters:     map[string]interface{}{"lookback": 10, "entry_threshold": 0.05},
		},
	}
}
