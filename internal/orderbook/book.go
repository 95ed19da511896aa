// Package orderbook 维护进程内的委托状态，
// 在柜台不可用或查询降级时作为订单数据的本地事实来源。
package orderbook

import (
	"fmt"
	"sync"

	"qmt-gateway/internal/model"
)

// 模拟委托编号从 1000 起步，固定前缀保证不会与柜台编号冲突。
const (
	mockIDSeed   = 1000
	mockIDFormat = "mock_order_%d"
)

// Book 为委托状态的唯一持有者，所有状态变更都经由其方法完成。
type Book struct {
	mu      sync.Mutex
	orders  map[string]model.OrderResponse
	seq     []string
	counter int64
}

// NewBook 创建委托簿。
func NewBook() *Book {
	return &Book{
		orders:  make(map[string]model.OrderResponse),
		counter: mockIDSeed,
	}
}

// NextMockID 分配下一个模拟委托编号，进程生命周期内严格递增。
func (b *Book) NextMockID() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := fmt.Sprintf(mockIDFormat, b.counter)
	b.counter++
	return id
}

// Put 写入或覆盖委托记录。
func (b *Book) Put(order model.OrderResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.orders[order.OrderID]; !ok {
		b.seq = append(b.seq, order.OrderID)
	}
	b.orders[order.OrderID] = order
}

// Get 返回委托记录副本。
func (b *Book) Get(orderID string) (model.OrderResponse, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	return order, ok
}

// List 按写入顺序返回全部委托记录。
func (b *Book) List() []model.OrderResponse {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.OrderResponse, 0, len(b.seq))
	for _, id := range b.seq {
		out = append(out, b.orders[id])
	}
	return out
}

// MarkCancelled 把委托置为已撤销，编号不存在时为空操作。
func (b *Book) MarkCancelled(orderID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return
	}
	order.Status = model.OrderStatusCancelled
	b.orders[orderID] = order
}
