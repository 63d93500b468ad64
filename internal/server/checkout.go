package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	checkoutdomain "github.com/smallbiznis/carecheckout/internal/checkout/domain"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
)

type checkoutBody struct {
	ProductID            *uuid.UUID                  `json:"product_id"`
	ProgramID            *uuid.UUID                  `json:"program_id"`
	TreatmentID          *uuid.UUID                  `json:"treatment_id"`
	Quantity             int                         `json:"quantity"`
	UserDetails          *orderdomain.PatientDetails `json:"user_details"`
	ShippingInfo         *orderdomain.ShippingInfo   `json:"shipping_info"`
	QuestionnaireAnswers json.RawMessage             `json:"questionnaire_answers"`
	AffiliateSlug        string                      `json:"affiliate_slug"`
	UseOnBehalfOf        bool                        `json:"use_on_behalf_of"`
	IdempotencyKey       string                      `json:"idempotency_key"`
}

type splitView struct {
	PlatformFeePercent      string `json:"platform_fee_percent"`
	PlatformFeeAmount       string `json:"platform_fee_amount"`
	NonMedicalProfitShare   string `json:"non_medical_profit_share"`
	DoctorAmount            string `json:"doctor_amount"`
	PharmacyWholesaleAmount string `json:"pharmacy_wholesale_amount"`
	BrandAmount             string `json:"brand_amount"`
}

type checkoutResponse struct {
	ClientSecret   string     `json:"client_secret,omitempty"`
	OrderID        uuid.UUID  `json:"order_id"`
	OrderNumber    string     `json:"order_number"`
	PaymentID      *uuid.UUID `json:"payment_id,omitempty"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	Total          string     `json:"total"`
	VisitType      *string    `json:"visit_type"`
	VisitFee       string     `json:"visit_fee"`
	Split          splitView  `json:"split"`
}

// HandleCheckout serves the product, program and treatment checkout routes.
func (s *Server) HandleCheckout(kind orderdomain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := tenantID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		user, err := userID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		var body checkoutBody
		if err := bindJSON(c, &body); err != nil {
			AbortWithError(c, err)
			return
		}

		idempotencyKey := strings.TrimSpace(body.IdempotencyKey)
		if idempotencyKey == "" {
			idempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		}

		res, err := s.checkoutSvc.Checkout(c.Request.Context(), orderdomain.CheckoutRequest{
			Kind:                 kind,
			TenantID:             tenant,
			ProductID:            body.ProductID,
			ProgramID:            body.ProgramID,
			TreatmentID:          body.TreatmentID,
			Quantity:             body.Quantity,
			UserID:               user,
			UserDetails:          body.UserDetails,
			Shipping:             body.ShippingInfo,
			QuestionnaireAnswers: body.QuestionnaireAnswers,
			AffiliateSlug:        strings.TrimSpace(body.AffiliateSlug),
			Host:                 c.Request.Host,
			UseOnBehalfOf:        body.UseOnBehalfOf,
			IdempotencyKey:       idempotencyKey,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set("order_number", res.OrderNumber)
		status := http.StatusCreated
		if res.Reused {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{"data": newCheckoutResponse(res)})
	}
}

func newCheckoutResponse(res *checkoutdomain.Result) checkoutResponse {
	out := checkoutResponse{
		ClientSecret:   res.ClientSecret,
		OrderID:        res.OrderID,
		OrderNumber:    res.OrderNumber,
		PaymentID:      res.PaymentID,
		SubscriptionID: res.SubscriptionID,
		Total:          res.Total.StringFixed(2),
		VisitFee:       res.VisitFee.StringFixed(2),
		Split:          newSplitView(res.Split),
	}
	if res.VisitType != nil {
		vt := string(*res.VisitType)
		out.VisitType = &vt
	}
	return out
}

func newSplitView(split feedomain.Split) splitView {
	return splitView{
		PlatformFeePercent:      split.PlatformFeePercent.StringFixed(2),
		PlatformFeeAmount:       split.PlatformFeeAmount.StringFixed(2),
		NonMedicalProfitShare:   split.NonMedicalProfitShare.StringFixed(2),
		DoctorAmount:            split.DoctorAmount.StringFixed(2),
		PharmacyWholesaleAmount: split.PharmacyWholesaleAmount.StringFixed(2),
		BrandAmount:             split.BrandAmount.StringFixed(2),
	}
}
