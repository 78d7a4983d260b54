package handlers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"paydesk/internal/models"
	"paydesk/internal/repositories"
	"paydesk/internal/services/payout"
	"paydesk/internal/utils/pagination"
	"paydesk/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type PayoutHandler struct {
	service payout.Service
}

func NewPayoutHandler(service payout.Service) *PayoutHandler {
	return &PayoutHandler{service: service}
}

// Initiate submits a payout. A transient submission failure still answers
// 200 with success=false and the transaction ID so the caller can poll.
func (h *PayoutHandler) Initiate(c *fiber.Ctx) error {
	var req payout.InitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	claims := c.Locals("claims").(*models.UserClaims)

	result, err := h.service.Initiate(c.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrInvalidAmount),
			errors.Is(err, payout.ErrInvalidMode),
			errors.Is(err, payout.ErrInvalidType),
			errors.Is(err, payout.ErrInvalidPurpose):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, payout.ErrFundAccountNotFound):
			return response.BadRequest(c, err.Error())
		default:
			log.Printf("payout initiate error: %v", err)
			return response.ServerError(c, "Failed to initiate payout")
		}
	}

	return response.Success(c, "payout initiated", result)
}

func (h *PayoutHandler) Get(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	tx, err := h.service.Get(c.Context(), claims.UserID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrTransactionNotFound):
			return response.NotFound(c, "transaction not found")
		case errors.Is(err, payout.ErrNotOwned):
			return response.Error(c, fiber.StatusForbidden, "transaction does not belong to caller")
		default:
			log.Printf("payout get error: %v", err)
			return response.ServerError(c, "Failed to get transaction")
		}
	}

	return response.Success(c, "transaction", tx)
}

func (h *PayoutHandler) List(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)
	p := pagination.ParseFromRequest(c)

	filter := repositories.TransactionFilter{
		UserID:   claims.UserID,
		State:    c.Query("state"),
		Type:     c.Query("type"),
		Mode:     c.Query("mode"),
		Limit:    p.Limit,
		Offset:   p.Offset,
		SortBy:   c.Query("sort_by", "created_at"),
		SortDesc: c.Query("sort_dir", "desc") == "desc",
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = t
		}
	}
	if v := c.Query("min_amount"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinAmount = n
		}
	}
	if v := c.Query("max_amount"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxAmount = n
		}
	}

	txs, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		log.Printf("payout list error: %v", err)
		return response.ServerError(c, "Failed to list transactions")
	}

	p.Total = total
	return c.JSON(pagination.Response(p, txs))
}

func (h *PayoutHandler) Cancel(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	tx, err := h.service.Cancel(c.Context(), claims.UserID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, payout.ErrTransactionNotFound):
			return response.NotFound(c, "transaction not found")
		case errors.Is(err, payout.ErrNotOwned):
			return response.Error(c, fiber.StatusForbidden, "transaction does not belong to caller")
		case errors.Is(err, payout.ErrNotCancellable):
			return response.BadRequest(c, err.Error())
		default:
			log.Printf("payout cancel error: %v", err)
			return response.ServerError(c, "Failed to cancel payout")
		}
	}

	return response.Success(c, "payout cancelled", tx)
}

func (h *PayoutHandler) Stats(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	userID := claims.UserID
	if claims.Role == "admin" && c.Query("all") == "true" {
		userID = 0
	}

	buckets, err := h.service.Stats(c.Context(), userID)
	if err != nil {
		log.Printf("payout stats error: %v", err)
		return response.ServerError(c, "Failed to compute statistics")
	}

	return response.Success(c, "payout statistics", buckets)
}
