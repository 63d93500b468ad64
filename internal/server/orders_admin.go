package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
)

const (
	defaultUnpaidLimit = 50
	maxUnpaidLimit     = 500
)

type orderView struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Total       string    `json:"total"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

func newOrderView(o orderdomain.Order) orderView {
	return orderView{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		TenantID:    o.TenantID,
		Kind:        string(o.Kind),
		Status:      string(o.Status),
		Total:       o.Total.StringFixed(2),
		Currency:    o.Currency,
		CreatedAt:   o.CreatedAt,
	}
}

// ListUnpaidOrders lists orders left pending without a payment.
func (s *Server) ListUnpaidOrders(c *gin.Context) {
	limit := defaultUnpaidLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = min(parsed, maxUnpaidLimit)
	}

	orders, err := s.checkoutSvc.ListUnpaid(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderView(o))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) CancelOrder(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order, err := s.checkoutSvc.CancelOrder(c.Request.Context(), tenant, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newOrderView(*order)})
}
