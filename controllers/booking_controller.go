package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"agency-backend/models"
	"agency-backend/services"
	"agency-backend/utils"
)

const (
	maxBodyBytes       = 1 << 20
	unknownClient      = "unknown"
	tooManyRequestsMsg = "Too many requests. Please try again later."
)

type BookingController struct {
	BookingSvc *services.BookingService
	Validator  *services.BookingValidator
	Limiter    services.RateLimiter
	Metrics    *services.Metrics

	log zerolog.Logger
}

func NewBookingController(
	svc *services.BookingService,
	validator *services.BookingValidator,
	limiter services.RateLimiter,
	metrics *services.Metrics,
	log zerolog.Logger,
) *BookingController {
	return &BookingController{
		BookingSvc: svc,
		Validator:  validator,
		Limiter:    limiter,
		Metrics:    metrics,
		log:        log.With().Str("component", "bookings-api").Logger(),
	}
}

// ClientAddress picks the rate limit key: the first X-Forwarded-For hop,
// then X-Real-IP, then "unknown". Clients without either header share one
// bucket.
func ClientAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return unknownClient
}

// CreateBooking (POST /api/bookings)
func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	addr := ClientAddress(c.Request)
	if !ctrl.Limiter.Allow(addr) {
		ctrl.Metrics.ObserveSubmission(services.OutcomeRateLimited)
		utils.JSONError(c, http.StatusTooManyRequests, tooManyRequestsMsg)
		return
	}

	validated, ok := ctrl.validate(c, true)
	if !ok {
		return
	}

	booking, err := ctrl.BookingSvc.Submit(c.Request.Context(), validated)
	if err != nil {
		ctrl.fail(c, err, "create booking", true)
		return
	}

	ctrl.Metrics.ObserveSubmission(services.OutcomeCreated)
	utils.JSONSuccess(c, http.StatusCreated, gin.H{"reference": booking.Reference})
}

// ValidateBooking (POST /api/bookings/validate) runs the submission schema
// without storing anything.
func (ctrl *BookingController) ValidateBooking(c *gin.Context) {
	if _, ok := ctrl.validate(c, false); !ok {
		return
	}
	utils.JSONSuccess(c, http.StatusOK, nil)
}

// GetBookingOptions (GET /api/bookings/options) lists the choices and
// length limits the form must respect.
func (ctrl *BookingController) GetBookingOptions(c *gin.Context) {
	serviceOpts := make([]gin.H, 0, len(models.ServiceOptions))
	for _, s := range models.ServiceOptions {
		serviceOpts = append(serviceOpts, gin.H{"value": s, "label": models.ServiceLabel(s)})
	}

	c.JSON(http.StatusOK, gin.H{
		"types":        []models.BookingType{models.BookingTypeConsultation, models.BookingTypeProject},
		"timeSlots":    models.TimeSlots,
		"services":     serviceOpts,
		"budgetRanges": models.BudgetRanges,
		"timelines":    models.TimelineOptions,
		"sources":      models.SourceOptions,
		"countryCodes": models.CountryCodes,
		"limits": gin.H{
			"fullName":                gin.H{"min": models.FullNameMin, "max": models.FullNameMax},
			"email":                   gin.H{"max": models.EmailMax},
			"phone":                   gin.H{"min": models.PhoneMin, "max": models.PhoneMax},
			"consultationDescription": gin.H{"max": models.ConsultationDescriptionMax},
			"projectDescription":      gin.H{"min": models.ProjectDescriptionMin, "max": models.ProjectDescriptionMax},
		},
	})
}

// validate reads and checks the body, writing the error response itself
// when the submission cannot proceed. Outcomes are counted only for real
// submissions.
func (ctrl *BookingController) validate(c *gin.Context, submission bool) (*services.ValidatedBooking, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		ctrl.fail(c, err, "read body", submission)
		return nil, false
	}

	validated, err := ctrl.Validator.Validate(body)
	if err != nil {
		var verrs *services.ValidationErrors
		if errors.As(err, &verrs) {
			if submission {
				ctrl.Metrics.ObserveSubmission(services.OutcomeInvalid)
			}
			utils.JSONErrors(c, http.StatusBadRequest, verrs)
			return nil, false
		}
		ctrl.fail(c, err, "parse body", submission)
		return nil, false
	}
	return validated, true
}

func (ctrl *BookingController) fail(c *gin.Context, err error, stage string, submission bool) {
	if submission {
		ctrl.Metrics.ObserveSubmission(services.OutcomeFailed)
	}
	ctrl.log.Error().Err(err).Str("stage", stage).Str("request_id", c.GetString("requestId")).
		Msg("booking request failed")
	utils.JSONError(c, http.StatusInternalServerError, utils.GenericErrorMessage)
}
