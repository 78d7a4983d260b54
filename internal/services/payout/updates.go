package payout

import (
	"time"

	"paydesk/internal/models"
	"paydesk/internal/processor"
)

// TransitionUpdates builds the field updates that accompany a transition
// driven by processor data. Webhook processing and reconciliation share it
// so settlement references and timestamps land identically on both paths.
func TransitionUpdates(entity *processor.PayoutEntity, to string, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{}

	if entity != nil {
		if entity.ID != "" {
			updates["external_payout_id"] = entity.ID
		}
		if entity.UTR != "" {
			updates["utr"] = entity.UTR
		}
		if entity.Fees > 0 {
			updates["fees"] = entity.Fees
		}
		if entity.Tax > 0 {
			updates["tax"] = entity.Tax
		}
		if entity.FailureReason != "" {
			updates["failure_description"] = entity.FailureReason
		}
	}

	switch to {
	case models.StateCompleted:
		updates["completed_at"] = &now
		updates["next_retry_at"] = nil
	case models.StateRefundCompleted:
		// completed_at was stamped when the payout first settled; the
		// refund completion instant lives in the transition history.
		updates["next_retry_at"] = nil
	case models.StateFailed:
		updates["failed_at"] = &now
		updates["next_retry_at"] = nil
		updates["failure_reason"] = models.FailureReasonRejected
	case models.StateReversed:
		updates["failure_reason"] = models.FailureReasonBankReversal
		updates["next_retry_at"] = nil
	case models.StateCancelled:
		updates["next_retry_at"] = nil
	}

	return updates
}
