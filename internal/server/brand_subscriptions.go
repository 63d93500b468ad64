package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	subscriptiondomain "github.com/smallbiznis/carecheckout/internal/subscription/domain"
)

type createIntentBody struct {
	PlanType string `json:"plan_type"`
}

type activateScheduleBody struct {
	SubscriptionID  uuid.UUID `json:"subscription_id"`
	PaymentMethodID string    `json:"payment_method_id"`
}

type subscriptionView struct {
	ID                      uuid.UUID  `json:"id"`
	PlanType                string     `json:"plan_type"`
	Status                  string     `json:"status"`
	ProcessorSubscriptionID *string    `json:"processor_subscription_id,omitempty"`
	CurrentPeriodStart      *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd        *time.Time `json:"current_period_end,omitempty"`
	CancelledAt             *time.Time `json:"cancelled_at,omitempty"`
}

func newSubscriptionView(sub *subscriptiondomain.Subscription) subscriptionView {
	return subscriptionView{
		ID:                      sub.ID,
		PlanType:                sub.PlanType,
		Status:                  string(sub.Status),
		ProcessorSubscriptionID: sub.ProcessorSubscriptionID,
		CurrentPeriodStart:      sub.CurrentPeriodStart,
		CurrentPeriodEnd:        sub.CurrentPeriodEnd,
		CancelledAt:             sub.CancelledAt,
	}
}

func (s *Server) CreateBrandPaymentIntent(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	user, err := requireUser(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var body createIntentBody
	if err := bindJSON(c, &body); err != nil {
		AbortWithError(c, err)
		return
	}

	res, err := s.subscriptionSvc.CreatePaymentIntent(c.Request.Context(), subscriptiondomain.CreateIntentRequest{
		TenantID: tenant,
		UserID:   user,
		PlanType: strings.TrimSpace(body.PlanType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"subscription_id": res.Subscription.ID,
		"mode":            res.Mode,
		"intent_id":       res.IntentID,
		"client_secret":   res.ClientSecret,
		"amount":          res.Amount.StringFixed(2),
		"currency":        res.Currency,
	}})
}

func (s *Server) ActivateBrandSchedule(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if _, err := requireUser(c); err != nil {
		AbortWithError(c, err)
		return
	}

	var body activateScheduleBody
	if err := bindJSON(c, &body); err != nil {
		AbortWithError(c, err)
		return
	}

	sub, err := s.subscriptionSvc.ActivateSchedule(c.Request.Context(), subscriptiondomain.ActivateRequest{
		TenantID:        tenant,
		SubscriptionID:  body.SubscriptionID,
		PaymentMethodID: strings.TrimSpace(body.PaymentMethodID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newSubscriptionView(sub)})
}

func (s *Server) CancelBrandSubscription(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if _, err := requireUser(c); err != nil {
		AbortWithError(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sub, err := s.subscriptionSvc.Cancel(c.Request.Context(), tenant, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newSubscriptionView(sub)})
}

func (s *Server) GetBrandSubscription(c *gin.Context) {
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

	sub, err := s.subscriptionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if sub.TenantID != tenant {
		AbortWithError(c, subscriptiondomain.ErrSubscriptionNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newSubscriptionView(sub)})
}
