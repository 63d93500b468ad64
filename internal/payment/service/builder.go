package service

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carecheckout/internal/config"
	"github.com/smallbiznis/carecheckout/internal/payment/domain"
)

// maxStatementSuffix is the longest suffix card networks print.
const maxStatementSuffix = 22

// Merchant records which party the processor treats as the seller.
type Merchant struct {
	TenantIsMOR bool
	// Downgraded is set when the caller asked for the tenant to be merchant of
	// record but the tenant has no connected account.
	Downgraded      bool
	StatementSource string
}

func (m Merchant) Label() string {
	if m.TenantIsMOR {
		return "tenant"
	}
	return "platform"
}

type BuildInput struct {
	domain.AuthorizeInput
	Platform       config.PlatformConfig
	CustomerID     string
	IdempotencyKey string
}

// BuildAuthorizationRequest maps an assembled order and its split onto the
// processor request. It performs no I/O.
func BuildAuthorizationRequest(in BuildInput) (domain.AuthorizationRequest, Merchant, error) {
	order := in.Order
	if order == nil || in.Tenant == nil {
		return domain.AuthorizationRequest{}, Merchant{}, domain.ErrInvalidAmount
	}
	amount := MinorUnits(order.Total)
	if amount <= 0 {
		return domain.AuthorizationRequest{}, Merchant{}, domain.ErrInvalidAmount
	}

	currency := strings.ToLower(strings.TrimSpace(order.Currency))
	if currency == "" {
		currency = strings.ToLower(in.Platform.Currency)
	}

	req := domain.AuthorizationRequest{
		Amount:        amount,
		Currency:      currency,
		CaptureMethod: domain.CaptureManual,
		AutomaticPaymentMethods: domain.AutomaticPaymentMethods{
			Enabled:        true,
			AllowRedirects: domain.AllowRedirectsNever,
		},
		SetupFutureUsage: domain.FutureUsageOffSession,
		CustomerID:       in.CustomerID,
		Description:      "Order " + order.OrderNumber,
		IdempotencyKey:   in.IdempotencyKey,
	}

	connected := in.Tenant.HasConnectedAccount()
	if connected && in.Split.BrandAmount.IsPositive() {
		req.Transfer = &domain.TransferInstruction{
			Destination: *in.Tenant.ConnectedAccountID,
			Amount:      MinorUnits(in.Split.BrandAmount),
		}
	}

	merchant := Merchant{StatementSource: in.Platform.StatementSource()}
	switch {
	case in.UseOnBehalfOf && connected:
		merchant.TenantIsMOR = true
		merchant.StatementSource = in.Tenant.StatementName()
		req.OnBehalfOf = *in.Tenant.ConnectedAccountID
	case in.UseOnBehalfOf:
		merchant.Downgraded = true
	}
	req.StatementSuffix = StatementSuffix(merchant.StatementSource)

	req.Metadata = authorizationMetadata(in, merchant)
	return req, merchant, nil
}

// StatementSuffix renders name as upper-case words safe for a card
// statement.
func StatementSuffix(name string) string {
	s := strings.ToUpper(strings.ReplaceAll(slug.Make(name), "-", " "))
	if len(s) > maxStatementSuffix {
		s = strings.TrimSpace(s[:maxStatementSuffix])
	}
	return s
}

// MinorUnits converts a two-decimal amount to cents.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func authorizationMetadata(in BuildInput, merchant Merchant) map[string]string {
	order := in.Order
	md := in.Split.Metadata()
	md["order_id"] = order.ID.String()
	md["order_number"] = order.OrderNumber
	md["tenant_id"] = order.TenantID.String()
	md["user_id"] = order.UserID.String()
	md["kind"] = string(order.Kind)
	md["visit_fee"] = order.VisitFeeAmount.StringFixed(2)
	if order.VisitType != nil {
		md["visit_type"] = *order.VisitType
	}
	md["merchant_of_record"] = merchant.Label()
	return md
}
