package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"OilPulse/internal/domain/models"
	"OilPulse/pkg/logger"
)

// ReloadHandler reloads the artifacts whenever a notice arrives on the reload topic.
// It satisfies kafka.MessageHandler.
type ReloadHandler struct {
	topic string
	uc    *DashboardUseCase
	l     *logger.Logger
}

func NewReloadHandler(topic string, uc *DashboardUseCase, l *logger.Logger) *ReloadHandler {
	return &ReloadHandler{topic: topic, uc: uc, l: l.With(logger.String("component", "reload_handler"))}
}

func (h *ReloadHandler) Topic() string { return h.topic }

// Handle triggers a reload. A payload that is not a ReloadRequest is logged and still
// treated as a trigger. A failed reload is returned so the consumer retries it.
func (h *ReloadHandler) Handle(ctx context.Context, data []byte) error {
	var req models.ReloadRequest
	if body := strings.TrimSpace(string(data)); body != "" {
		if err := json.Unmarshal(data, &req); err != nil {
			h.l.Warn("Unreadable reload notice", logger.Error(err))
		}
	}

	notice, err := h.uc.Reload(ctx)
	if err != nil {
		return err
	}
	h.l.Info("Reloaded from notice",
		logger.String("reason", req.Reason),
		logger.String("requested_by", req.RequestedBy),
		logger.Uint64("generation", notice.Generation),
	)
	return nil
}
