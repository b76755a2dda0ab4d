package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobiakoko/afromerica-voting-api/api/models"
	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/payment"
	"github.com/tobiakoko/afromerica-voting-api/storage"
	"github.com/tobiakoko/afromerica-voting-api/voting"
)

type PaymentsController struct {
	ledger      *voting.Ledger
	provider    *payment.Client
	webhooks    storage.WebhookEventStorage
	secretKey   string
	callbackURL string
}

func NewPaymentsController(ledger *voting.Ledger, provider *payment.Client, webhooks storage.WebhookEventStorage, secretKey, callbackURL string) *PaymentsController {
	return &PaymentsController{
		ledger:      ledger,
		provider:    provider,
		webhooks:    webhooks,
		secretKey:   secretKey,
		callbackURL: callbackURL,
	}
}

func (c *PaymentsController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/payments")

	group.POST("/initialize", c.initialize)
	group.POST("/webhook", c.webhook)
	group.GET("/callback", c.callback)
}

// initialize godoc
// @Summary Initialize a vote purchase
// @Description Creates a pending ledger entry from the selected packages and starts a provider charge
// @Tags payments
// @Accept json
// @Produce json
// @Param request body models.InitializePaymentRequest true "Purchase selection with validation token"
// @Success 200 {object} models.InitializePaymentResponse
// @Failure 400 {object} models.ErrorResponse "Invalid selection"
// @Failure 401 {object} models.ErrorResponse "Missing or expired validation token"
// @Failure 409 {object} models.ErrorResponse "Voting window closed"
// @Failure 502 {object} models.ErrorResponse "Provider unavailable"
// @Router /api/payments/initialize [post]
func (c *PaymentsController) initialize(g *gin.Context) {
	var req models.InitializePaymentRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	lines := make([]voting.PurchaseLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, voting.PurchaseLine{
			ArtistID:  line.ArtistID,
			PackageID: line.PackageID,
			Quantity:  line.Quantity,
		})
	}

	purchase, err := c.ledger.CreatePurchase(g.Request.Context(), voting.CreatePurchaseRequest{
		Contact: req.Contact,
		Method:  storage.ValidationMethod(req.Method),
		Token:   req.Token,
		Lines:   lines,
	})
	if err != nil {
		c.writeCreateError(g, err)
		return
	}

	email := req.Email
	if email == "" && purchase.Method == string(storage.MethodEmail) {
		email = purchase.Contact
	}
	init, err := c.provider.Initialize(g.Request.Context(), payment.InitializeRequest{
		Email:       email,
		Amount:      purchase.TotalPrice,
		Currency:    purchase.Currency,
		Reference:   purchase.Reference,
		CallbackURL: c.callbackURL,
		Metadata:    map[string]string{"purchaseId": purchase.ID.String()},
	})
	if err != nil {
		logging.Log.Errorf("PAYMENT: initialize failed for purchase %s: %v", purchase.ID, err)
		if err := c.ledger.Fail(g.Request.Context(), purchase.ID, "provider initialization failed"); err != nil {
			logging.Log.Errorf("PAYMENT: could not fail purchase %s: %v", purchase.ID, err)
		}
		g.JSON(http.StatusBadGateway, &models.ErrorResponse{Error: "payment provider unavailable, try again"})
		return
	}

	g.JSON(http.StatusOK, &models.InitializePaymentResponse{
		PurchaseID:       purchase.ID.String(),
		Reference:        purchase.Reference,
		AuthorizationURL: init.AuthorizationURL,
		TotalVotes:       purchase.TotalVotes,
		TotalPrice:       purchase.TotalPrice,
		Currency:         purchase.Currency,
	})
}

// webhook godoc
// @Summary Payment provider webhook
// @Description Signature-checked completion/failure signals; duplicate deliveries are absorbed as no-ops
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse "Bad signature"
// @Router /api/payments/webhook [post]
func (c *PaymentsController) webhook(g *gin.Context) {
	body, err := g.GetRawData()
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "unreadable body"})
		return
	}

	signature := g.GetHeader(payment.SignatureHeader)
	if !payment.ValidSignature(c.secretKey, body, signature) {
		logging.Log.Warnf("PAYMENT: webhook with bad signature from %s", g.ClientIP())
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "invalid signature"})
		return
	}

	event, err := payment.ParseWebhook(body)
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "unparseable event"})
		return
	}

	// The provider sends no event id; event type + reference identifies a
	// delivery for dedup purposes.
	record := &storage.WebhookEvent{
		Provider:        "paystack",
		ProviderEventID: event.Event + ":" + event.Data.Reference,
		EventType:       event.Event,
	}
	if err := c.webhooks.Record(g.Request.Context(), record); err != nil {
		if errors.Is(err, storage.ErrDuplicateEvent) {
			g.JSON(http.StatusOK, &models.MessageResponse{Message: "already processed"})
			return
		}
		logging.Log.Errorf("PAYMENT: failed to record webhook event: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record event"})
		return
	}

	switch event.Event {
	case "charge.success":
		if !c.handleSuccess(g, event) {
			c.releaseEvent(g, record)
			return
		}
	case "charge.failed":
		err := c.ledger.FailByReference(g.Request.Context(), event.Data.Reference, "charge failed")
		if err != nil && !errors.Is(err, storage.ErrPurchaseNotFound) && !errors.Is(err, storage.ErrTerminalStatus) {
			logging.Log.Errorf("PAYMENT: failed to mark purchase failed for %s: %v", event.Data.Reference, err)
			c.releaseEvent(g, record)
			g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "temporary failure, retry"})
			return
		}
		g.JSON(http.StatusOK, &models.MessageResponse{Message: "recorded"})
	default:
		g.JSON(http.StatusOK, &models.MessageResponse{Message: "ignored"})
	}

	if err := c.webhooks.MarkProcessed(g.Request.Context(), record.ID); err != nil {
		logging.Log.Warnf("PAYMENT: failed to mark webhook processed: %v", err)
	}
}

// handleSuccess reports whether the delivery is settled. Data-integrity
// problems (amount mismatch, unknown or failed purchase) are settled: they
// are operator concerns, and a non-2xx would only trigger a provider retry
// storm with the same payload. A transient storage failure is not settled:
// the caller must release the dedup record and answer 5xx so the provider
// retry can apply the votes, which completion handles idempotently.
func (c *PaymentsController) handleSuccess(g *gin.Context, event *payment.WebhookEvent) bool {
	result, err := c.ledger.CompleteByReference(g.Request.Context(), event.Data.Reference, event.Data.Amount)
	switch {
	case err == nil:
	case errors.Is(err, voting.ErrAmountMismatch),
		errors.Is(err, storage.ErrPurchaseNotFound),
		errors.Is(err, storage.ErrTerminalStatus):
		logging.Log.Errorf("PAYMENT: completion rejected for reference %s: %v", event.Data.Reference, err)
		g.JSON(http.StatusOK, &models.MessageResponse{Message: "recorded with errors"})
		return true
	default:
		logging.Log.Errorf("PAYMENT: completion failed for reference %s: %v", event.Data.Reference, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "temporary failure, retry"})
		return false
	}
	if !result.Applied {
		g.JSON(http.StatusOK, &models.MessageResponse{Message: "already processed"})
		return true
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "votes applied"})
	return true
}

func (c *PaymentsController) releaseEvent(g *gin.Context, record *storage.WebhookEvent) {
	if err := c.webhooks.Delete(g.Request.Context(), record.ID); err != nil {
		logging.Log.Errorf("PAYMENT: failed to release webhook event %d for retry: %v", record.ID, err)
	}
}

// callback godoc
// @Summary Payment redirect callback
// @Description Verifies the reference against the provider and applies the outcome
// @Tags payments
// @Produce json
// @Param reference query string true "Provider reference"
// @Success 200 {object} models.PurchaseResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/payments/callback [get]
func (c *PaymentsController) callback(g *gin.Context) {
	reference := g.Query("reference")
	if reference == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "reference is required"})
		return
	}

	verified, err := c.provider.Verify(g.Request.Context(), reference)
	if err != nil {
		logging.Log.Errorf("PAYMENT: verify failed for reference %s: %v", reference, err)
		g.JSON(http.StatusBadGateway, &models.ErrorResponse{Error: "could not verify payment"})
		return
	}

	switch verified.Status {
	case payment.StatusSuccess:
		result, err := c.ledger.CompleteByReference(g.Request.Context(), reference, verified.Amount)
		if err != nil {
			c.writeCompleteError(g, reference, err)
			return
		}
		g.JSON(http.StatusOK, models.TransformPurchaseFromStorage(result.Purchase))
	case payment.StatusFailed:
		if err := c.ledger.FailByReference(g.Request.Context(), reference, "charge failed"); err != nil && !errors.Is(err, storage.ErrPurchaseNotFound) {
			logging.Log.Errorf("PAYMENT: failed to mark purchase failed for %s: %v", reference, err)
		}
		g.JSON(http.StatusOK, &models.MessageResponse{Message: "payment failed"})
	default:
		g.JSON(http.StatusOK, &models.MessageResponse{Message: "payment still pending"})
	}
}

func (c *PaymentsController) writeCreateError(g *gin.Context, err error) {
	switch {
	case errors.Is(err, voting.ErrInvalidIdentifier),
		errors.Is(err, voting.ErrEmptyPurchase),
		errors.Is(err, storage.ErrPackageNotFound),
		errors.Is(err, storage.ErrArtistNotFound),
		errors.Is(err, voting.ErrPackageInactive),
		errors.Is(err, voting.ErrArtistUnavailable):
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, voting.ErrInvalidToken), errors.Is(err, voting.ErrTokenExpired):
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "verify your contact before purchasing"})
	case errors.Is(err, voting.ErrVotingClosed):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: err.Error()})
	default:
		logging.Log.Errorf("PAYMENT: create purchase failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not create purchase"})
	}
}

func (c *PaymentsController) writeCompleteError(g *gin.Context, reference string, err error) {
	switch {
	case errors.Is(err, storage.ErrPurchaseNotFound):
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "unknown reference"})
	case errors.Is(err, voting.ErrAmountMismatch):
		logging.Log.Errorf("PAYMENT: amount mismatch on reference %s", reference)
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "payment amount mismatch, contact support"})
	default:
		logging.Log.Errorf("PAYMENT: completion failed for reference %s: %v", reference, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not complete purchase"})
	}
}
