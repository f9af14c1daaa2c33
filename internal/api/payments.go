package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymdesk/internal/apperr"
	"gymdesk/internal/payment"
)

func (h *handler) listPayments(c *gin.Context) {
	list, err := h.Payments.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) amendPayment(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	var req struct {
		Amount     amount `json:"amount"`
		Date       string `json:"date"`
		MemberName string `json:"memberName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid payment: %v", err))
		return
	}
	if !req.Amount.set {
		respondError(c, apperr.Validation("amount is required"))
		return
	}
	date, err := payment.ParseDate(req.Date, h.opts.Location)
	if err != nil {
		respondError(c, err)
		return
	}
	a := payment.Amendment{Amount: req.Amount.value, Date: date, MemberName: req.MemberName}
	if err := h.Payments.Amend(c.Request.Context(), id, a); err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, "Record Updated")
}

func (h *handler) deletePayment(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	if err := h.Payments.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, "Record Deleted")
}

func (h *handler) paymentSummary(c *gin.Context) {
	sum, err := h.Payments.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
