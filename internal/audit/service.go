// Package audit 把网关的关键动作落入 SQLite 审计账。
// 审计记录的是事件而非状态，会话与委托状态仍只存活于进程内。
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"qmt-gateway/internal/store"
)

// Service 负责持久化审计事件。
type Service struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewService 初始化审计服务，创建所需表结构。
func NewService(store *store.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("audit: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		db:     store.DB(),
		logger: logger,
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS audit_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(event_type);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("audit: 初始化表失败: %w", err)
	}
	return nil
}

// Record 写入单个事件。
func (s *Service) Record(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("audit: 序列化事件失败: %w", err)
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_events (event_type, payload, created_at) VALUES (?, ?, ?)`,
		string(event.Type), string(payload), event.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("audit: 写入事件失败: %w", err)
	}

	return nil
}

// RecordConnect 记录账户连接结果。
func (s *Service) RecordConnect(ctx context.Context, payload ConnectPayload) {
	s.record(ctx, EventConnect, payload)
}

// RecordDisconnect 记录账户断开。
func (s *Service) RecordDisconnect(ctx context.Context, payload ConnectPayload) {
	s.record(ctx, EventDisconnect, payload)
}

// RecordOrder 记录委托提交。
func (s *Service) RecordOrder(ctx context.Context, payload OrderPayload) {
	s.record(ctx, EventOrder, payload)
}

// RecordCancel 记录撤单。
func (s *Service) RecordCancel(ctx context.Context, payload CancelPayload) {
	s.record(ctx, EventCancel, payload)
}

// RecordFallback 记录真实数据查询降级。
func (s *Service) RecordFallback(ctx context.Context, payload FallbackPayload) {
	s.record(ctx, EventFallback, payload)
}

// RecordError 记录异常。
func (s *Service) RecordError(ctx context.Context, msg string, err error, ctxMap map[string]interface{}) {
	s.record(ctx, EventError, ErrorPayload{
		Message: msg,
		Error:   err.Error(),
		Context: ctxMap,
	})
}

func (s *Service) record(ctx context.Context, typ EventType, payload interface{}) {
	if err := s.Record(ctx, Event{
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("记录审计事件失败", zap.String("type", string(typ)), zap.Error(err))
	}
}

// ListEvents 按类型检索最近事件。
func (s *Service) ListEvents(ctx context.Context, eventType EventType, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT event_type, payload, created_at FROM audit_events`
	args := make([]interface{}, 0, 2)
	if eventType != "" {
		query += ` WHERE event_type = ?`
		args = append(args, string(eventType))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: 查询事件失败: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			typ     string
			payload string
			created string
		)
		if scanErr := rows.Scan(&typ, &payload, &created); scanErr != nil {
			return nil, fmt.Errorf("audit: 解析事件失败: %w", scanErr)
		}

		ts, parseErr := time.Parse(time.RFC3339, created)
		if parseErr != nil {
			ts = time.Now().UTC()
		}

		events = append(events, Event{
			Type:      EventType(typ),
			Timestamp: ts,
			Payload:   json.RawMessage(payload),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: 读取事件失败: %w", err)
	}

	return events, nil
}
