package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// bridgeClient 通过 HTTP JSON 访问 QMT 终端侧车进程。
// 侧车持有 miniQMT 会话，网关只与其交换柜台记录。
type bridgeClient struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
}

func newBridgeClient(endpoint string, logger *zap.Logger) (*bridgeClient, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("解析桥接地址失败: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("桥接地址 %q 必须为 http/https", endpoint)
	}

	return &bridgeClient{
		baseURL: strings.TrimRight(endpoint, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}, nil
}

func (b *bridgeClient) Connect(ctx context.Context) error {
	return b.do(ctx, http.MethodPost, "/api/connect", nil, nil)
}

func (b *bridgeClient) QueryPositions(ctx context.Context, accountID string) ([]Position, error) {
	var out []Position
	path := "/api/positions?account_id=" + url.QueryEscape(accountID)
	if err := b.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *bridgeClient) QueryOrders(ctx context.Context, accountID string, includeCancelled bool) ([]Order, error) {
	var out []Order
	path := fmt.Sprintf("/api/orders?account_id=%s&include_cancelled=%t",
		url.QueryEscape(accountID), includeCancelled)
	if err := b.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *bridgeClient) QueryTrades(ctx context.Context, accountID string) ([]Trade, error) {
	var out []Trade
	path := "/api/trades?account_id=" + url.QueryEscape(accountID)
	if err := b.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *bridgeClient) QueryAsset(ctx context.Context, accountID string) (*Asset, error) {
	var out Asset
	path := "/api/asset?account_id=" + url.QueryEscape(accountID)
	if err := b.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *bridgeClient) SubmitOrder(ctx context.Context, req SubmitRequest) (string, error) {
	var out struct {
		OrderID string `json:"order_id"`
	}
	if err := b.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return "", err
	}
	if out.OrderID == "" {
		return "", fmt.Errorf("柜台未返回委托编号")
	}
	return out.OrderID, nil
}

func (b *bridgeClient) CancelOrder(ctx context.Context, accountID, orderID string) (bool, error) {
	payload := map[string]string{
		"account_id": accountID,
		"order_id":   orderID,
	}
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := b.do(ctx, http.MethodPost, "/api/orders/cancel", payload, &out); err != nil {
		return false, err
	}
	if !out.Success && out.Message != "" {
		return false, fmt.Errorf("柜台撤单被拒绝: %s", out.Message)
	}
	return out.Success, nil
}

func (b *bridgeClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("序列化桥接请求失败: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("构造桥接请求失败: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: 桥接返回 %s", errTransient, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("桥接返回 %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析桥接响应失败: %w", err)
	}
	return nil
}
