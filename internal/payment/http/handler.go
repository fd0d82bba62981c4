package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/tour-booking-backend/internal/auth"
	"github.com/nekogravitycat/tour-booking-backend/internal/payment"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/tour-booking-backend/internal/pkg/response"
)

type Handler struct {
	service     payment.Service
	frontendURL string
}

func NewHandler(service payment.Service, frontendURL string) *Handler {
	return &Handler{service: service, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (h *Handler) Init(c *gin.Context) {
	var body InitPaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	res, err := h.service.Init(c.Request.Context(), body.BookingID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Payment initiated successfully", InitPaymentResponse{
		RedirectURL:   res.RedirectURL,
		TransactionID: res.TransactionID,
	})
}

func (h *Handler) Status(c *gin.Context) {
	var query StatusRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, payment.ErrTransactionIDRequired)
		return
	}

	p, err := h.service.CheckStatus(c.Request.Context(), query.TransactionID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Payment status retrieved", NewStatusResponse(p))
}

// Success handles the browser returning from the gateway. It always ends in
// a redirect to the frontend; the outcome decides which page.
func (h *Handler) Success(c *gin.Context) {
	txID := transactionID(c)
	_, err := h.service.HandleCallback(c.Request.Context(), payment.CallbackInput{
		TransactionID: txID,
		Amount:        param(c, "amount"),
		Status:        callbackStatus(c),
		ValidationID:  param(c, "val_id"),
	})
	if err != nil {
		logger.FromContext(c.Request.Context()).
			WithError(err).
			WithField("transaction_id", txID).
			Warn("payment callback rejected")
		h.redirect(c, "fail", txID)
		return
	}
	h.redirect(c, "success", txID)
}

func (h *Handler) Fail(c *gin.Context) {
	h.abandon(c, "fail")
}

func (h *Handler) Cancel(c *gin.Context) {
	h.abandon(c, "cancel")
}

func (h *Handler) abandon(c *gin.Context, page string) {
	txID := transactionID(c)
	if err := h.service.HandleFail(c.Request.Context(), txID); err != nil {
		logger.FromContext(c.Request.Context()).
			WithError(err).
			WithField("transaction_id", txID).
			Error("failed to record abandoned payment")
	}
	h.redirect(c, page, txID)
}

func (h *Handler) redirect(c *gin.Context, page, txID string) {
	target := h.frontendURL + "/payment/" + page + "?transactionId=" + url.QueryEscape(txID)
	c.Redirect(http.StatusFound, target)
}

// param reads a callback field from the posted form first, then the query.
func param(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}

func transactionID(c *gin.Context) string {
	if v := param(c, "tran_id"); v != "" {
		return v
	}
	return param(c, "transactionId")
}

// callbackStatus prefers the marker we appended to the callback URL over
// the status the gateway posts.
func callbackStatus(c *gin.Context) string {
	if v := c.Query("status"); v != "" {
		return v
	}
	return c.PostForm("status")
}
