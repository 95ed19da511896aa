package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"qmt-gateway/internal/audit"
	"qmt-gateway/internal/config"
	"qmt-gateway/internal/gateway"
	"qmt-gateway/internal/model"
)

// submitOrderRequest 在委托参数之外携带会话标识。
type submitOrderRequest struct {
	SessionID string `json:"session_id"`
	model.OrderRequest
}

type cancelOrderRequest struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
}

type statusResponse struct {
	SessionID string `json:"session_id"`
	Connected bool   `json:"connected"`
}

type cancelResponse struct {
	Success bool `json:"success"`
}

func startAPIServer(ctx context.Context, svc *gateway.Service, auditSvc *audit.Service, cfg config.ServerConfig, logger *zap.Logger) error {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/account/connect", func(w http.ResponseWriter, r *http.Request) {
		var req model.ConnectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		// 连接失败是常规结果，统一走 200 + 结构化响应
		writeJSON(w, svc.ConnectAccount(r.Context(), req), logger)
	})

	mux.HandleFunc("POST /api/v1/account/disconnect", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		success := svc.DisconnectAccount(r.Context(), sessionID)
		writeJSON(w, map[string]bool{"success": success}, logger)
	})

	mux.HandleFunc("GET /api/v1/account/status", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		writeJSON(w, statusResponse{SessionID: sessionID, Connected: svc.IsConnected(sessionID)}, logger)
	})

	mux.HandleFunc("GET /api/v1/account/info", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		info, err := svc.GetAccountInfo(sessionID)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, info, logger)
	})

	mux.HandleFunc("GET /api/v1/account/positions", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		positions, err := svc.GetPositions(r.Context(), sessionID)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, positions, logger)
	})

	mux.HandleFunc("GET /api/v1/account/orders", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		orders, err := svc.GetOrders(r.Context(), sessionID)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, orders, logger)
	})

	mux.HandleFunc("GET /api/v1/account/trades", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		trades, err := svc.GetTrades(r.Context(), sessionID)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, trades, logger)
	})

	mux.HandleFunc("GET /api/v1/account/asset", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		asset, err := svc.GetAssetInfo(r.Context(), sessionID)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, asset, logger)
	})

	mux.HandleFunc("GET /api/v1/account/risk", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		risk, err := svc.GetRiskInfo(sessionID)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, risk, logger)
	})

	mux.HandleFunc("GET /api/v1/account/strategies", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		strategies, err := svc.GetStrategies(sessionID)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, strategies, logger)
	})

	mux.HandleFunc("GET /api/v1/account/snapshot", func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}
		snapshot, err := svc.GetAccountSnapshot(r.Context(), sessionID)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, snapshot, logger)
	})

	mux.HandleFunc("POST /api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		var req submitOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		resp, err := svc.SubmitOrder(r.Context(), req.SessionID, req.OrderRequest)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, resp, logger)
	})

	mux.HandleFunc("POST /api/v1/orders/cancel", func(w http.ResponseWriter, r *http.Request) {
		var req cancelOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		success, err := svc.CancelOrder(r.Context(), req.SessionID, model.CancelOrderRequest{OrderID: req.OrderID})
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, cancelResponse{Success: success}, logger)
	})

	mux.HandleFunc("GET /api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := 200
		if qs := q.Get("limit"); qs != "" {
			if v, err := strconv.Atoi(qs); err == nil && v > 0 {
				if v > 1000 {
					v = 1000
				}
				limit = v
			}
		}

		eventType := audit.EventType("")
		if typ := strings.TrimSpace(q.Get("type")); typ != "" {
			eventType = audit.EventType(strings.ToLower(typ))
		}

		events, err := auditSvc.ListEvents(r.Context(), eventType, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, events, logger)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("关闭网关接口失败", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("网关接口异常", zap.Error(err))
		}
	}()

	logger.Info("网关接口已启动", zap.String("addr", addr))
	return nil
}

func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return "", false
	}
	return sessionID, true
}

func writeJSON(w http.ResponseWriter, payload interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("写入响应失败", zap.Error(err))
	}
}

// writeError 把网关的类型化错误映射到 HTTP 状态码。
func writeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gateway.ErrNotConnected):
		status = http.StatusUnauthorized
	case errors.Is(err, gateway.ErrInvalidInstrument):
		status = http.StatusBadRequest
	case errors.Is(err, gateway.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, gateway.ErrOrderFailed):
		status = http.StatusBadGateway
	case errors.Is(err, gateway.ErrComputeFailure):
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		logger.Error("网关处理请求失败", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		logger.Warn("写入错误响应失败", zap.Error(encErr))
	}
}
