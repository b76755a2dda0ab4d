package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobiakoko/afromerica-voting-api/api/models"
	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/storage"
	"github.com/tobiakoko/afromerica-voting-api/voting"
)

type OTPController struct {
	validator *voting.Validator
}

func NewOTPController(validator *voting.Validator) *OTPController {
	return &OTPController{validator: validator}
}

func (c *OTPController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/otp")

	group.POST("/send", c.send)
	group.POST("/verify", c.verify)
	group.POST("/resend", c.resend)
}

// send godoc
// @Summary Send a one-time verification code
// @Description Dispatches a short-lived numeric code to the given email or phone number
// @Tags otp
// @Accept json
// @Produce json
// @Param request body models.SendOTPRequest true "Send OTP request"
// @Success 200 {object} models.SendOTPResponse
// @Failure 400 {object} models.ErrorResponse "Invalid identifier"
// @Failure 429 {object} models.ErrorResponse "Resend cooldown active"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/otp/send [post]
func (c *OTPController) send(g *gin.Context) {
	var req models.SendOTPRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	err := c.validator.Send(g.Request.Context(), req.Identifier, storage.ValidationMethod(req.Method))
	if err != nil {
		c.writeSendError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.SendOTPResponse{Success: true, Message: "verification code sent"})
}

// verify godoc
// @Summary Verify a one-time code
// @Description Checks the submitted code; on success returns a short-lived validation token for the payment step
// @Tags otp
// @Accept json
// @Produce json
// @Param request body models.VerifyOTPRequest true "Verify OTP request"
// @Success 200 {object} models.VerifyOTPResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.VerifyOTPResponse "Wrong code, attempts remaining"
// @Failure 410 {object} models.ErrorResponse "Code expired or attempts exhausted"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/otp/verify [post]
func (c *OTPController) verify(g *gin.Context) {
	var req models.VerifyOTPRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	token, attemptsLeft, err := c.validator.Verify(g.Request.Context(), req.Identifier, req.Code, storage.ValidationMethod(req.Method))
	if err != nil {
		switch {
		case errors.Is(err, voting.ErrInvalidIdentifier):
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: err.Error()})
		case errors.Is(err, voting.ErrCodeMismatch):
			g.JSON(http.StatusUnauthorized, &models.VerifyOTPResponse{
				Success:      false,
				Message:      err.Error(),
				AttemptsLeft: &attemptsLeft,
			})
		case errors.Is(err, voting.ErrAttemptsExhausted), errors.Is(err, voting.ErrCodeExpired):
			g.JSON(http.StatusGone, &models.ErrorResponse{Error: err.Error()})
		default:
			logging.Log.Errorf("OTP: verify failed: %v", err)
			g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "verification failed"})
		}
		return
	}

	g.JSON(http.StatusOK, &models.VerifyOTPResponse{Success: true, Token: token})
}

// resend godoc
// @Summary Resend a verification code
// @Description Issues a fresh code with a reset attempt counter, rate-limited per identifier
// @Tags otp
// @Accept json
// @Produce json
// @Param request body models.SendOTPRequest true "Resend OTP request"
// @Success 200 {object} models.SendOTPResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse "Resend cooldown active"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/otp/resend [post]
func (c *OTPController) resend(g *gin.Context) {
	var req models.SendOTPRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	err := c.validator.Resend(g.Request.Context(), req.Identifier, storage.ValidationMethod(req.Method))
	if err != nil {
		c.writeSendError(g, err)
		return
	}

	g.JSON(http.StatusOK, &models.SendOTPResponse{Success: true, Message: "verification code sent"})
}

func (c *OTPController) writeSendError(g *gin.Context, err error) {
	switch {
	case errors.Is(err, voting.ErrInvalidIdentifier):
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, voting.ErrResendCooldown):
		g.JSON(http.StatusTooManyRequests, &models.ErrorResponse{Error: err.Error()})
	default:
		// Internals are not leaked; the log line is the operator's signal.
		logging.Log.Errorf("OTP: send failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not send verification code"})
	}
}
