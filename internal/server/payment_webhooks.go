package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
)

type webhookAck struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// HandlePaymentWebhook passes the raw delivery to the webhook service; the
// signature is computed over the exact bytes so the body is never re-encoded.
// Non-2xx answers make the processor redeliver.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	provider := strings.ToLower(strings.TrimSpace(c.Param("provider")))
	err = s.webhookSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	switch {
	case errors.Is(err, paymentdomain.ErrEventAlreadyProcessed):
		c.JSON(http.StatusOK, webhookAck{Received: true, Duplicate: true})
	case err != nil:
		AbortWithError(c, err)
	default:
		c.JSON(http.StatusOK, webhookAck{Received: true})
	}
}
