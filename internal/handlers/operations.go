package handlers

import (
	"log"

	"paydesk/internal/services/reconciliation"
	"paydesk/internal/services/scheduler"
	"paydesk/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// OperationsHandler exposes the periodic entry points for external
// triggering (cron, k8s CronJob, manual operator runs).
type OperationsHandler struct {
	scheduler  scheduler.Service
	reconciler reconciliation.Service
}

func NewOperationsHandler(sched scheduler.Service, recon reconciliation.Service) *OperationsHandler {
	return &OperationsHandler{scheduler: sched, reconciler: recon}
}

func (h *OperationsHandler) RunRetries(c *fiber.Ctx) error {
	summary, err := h.scheduler.ProcessRetries(c.Context())
	if err != nil {
		log.Printf("retry run error: %v", err)
		return response.ServerError(c, "Failed to run retries")
	}
	return response.Success(c, "retry run complete", summary)
}

func (h *OperationsHandler) RunReconciliation(c *fiber.Ctx) error {
	summary, err := h.reconciler.ReconcileAllPending(c.Context())
	if err != nil {
		log.Printf("reconciliation run error: %v", err)
		return response.ServerError(c, "Failed to run reconciliation")
	}
	return response.Success(c, "reconciliation run complete", summary)
}
