// Package policy 是所有真实资金操作的唯一闸口。
// 判定必须在每次调用时重新求值，不允许缓存结果。
package policy

import "qmt-gateway/internal/config"

// Policy 根据运行模式判定真实交易与真实数据是否放行。
type Policy struct {
	cfg config.BrokerConfig
}

// New 创建模式判定器。
func New(cfg config.BrokerConfig) *Policy {
	return &Policy{cfg: cfg}
}

// PermitsRealTrading 仅在 prod 模式且显式开启 allow_real_trading 时放行真实交易。
func (p *Policy) PermitsRealTrading() bool {
	return p.cfg.Mode == config.ModeProd && p.cfg.AllowRealTrading
}

// PermitsRealData 在 dev 与 prod 模式下尝试获取真实数据。
func (p *Policy) PermitsRealData() bool {
	return p.cfg.Mode == config.ModeDev || p.cfg.Mode == config.ModeProd
}

// Mode 返回当前运行模式，用于日志输出。
func (p *Policy) Mode() config.Mode {
	return p.cfg.Mode
}
