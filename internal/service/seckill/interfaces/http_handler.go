// internal/service/seckill/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"goodskill/internal/pkg/logger"
	"goodskill/internal/service/seckill/application"
)

const serviceName = "seckill-service"

// SeckillHandler 封装了秒杀服务的 HTTP 处理器。
// 这层只是单薄的请求翻译胶水，核心语义全部在策略里。
type SeckillHandler struct {
	service *application.SeckillApplicationService
}

func NewSeckillHandler(service *application.SeckillApplicationService) *SeckillHandler {
	return &SeckillHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *SeckillHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/seckill/execute", h.executeHandler)
	mux.HandleFunc("/seckill/prepare", h.prepareHandler)
}

func (h *SeckillHandler) executeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.SeckillExecute")
	defer span.End()

	var req application.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActivityID <= 0 || req.UserPhone == "" {
		http.Error(w, "activityId and userPhone are required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int64("seckill.activity.id", req.ActivityID))

	resp, err := h.service.Execute(ctx, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *SeckillHandler) prepareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	var req application.PrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActivityID <= 0 {
		http.Error(w, "activityId is required", http.StatusBadRequest)
		return
	}

	if err := h.service.PrepareActivity(ctx, &req); err != nil {
		logger.Ctx(ctx).Error().Err(err).Int64("activity_id", req.ActivityID).Msg("Failed to prepare activity")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "published"})
}
