package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/throwclay/throwclay/internal/auth/domain"
	"github.com/throwclay/throwclay/internal/authorization"
	classdomain "github.com/throwclay/throwclay/internal/class/domain"
	invitedomain "github.com/throwclay/throwclay/internal/invite/domain"
	kilndomain "github.com/throwclay/throwclay/internal/kiln/domain"
	messagingdomain "github.com/throwclay/throwclay/internal/messaging/domain"
	reviewdomain "github.com/throwclay/throwclay/internal/review/domain"
	studiodomain "github.com/throwclay/throwclay/internal/studio/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, classdomain.ErrRosterNotAvailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationSentinels = []error{
	ErrInvalidRequest,
	studiodomain.ErrInvalidName,
	studiodomain.ErrInvalidUser,
	studiodomain.ErrInvalidStudio,
	studiodomain.ErrInvalidLocation,
	studiodomain.ErrInvalidRole,
	studiodomain.ErrLastOwner,
	studiodomain.ErrMemberLimit,
	studiodomain.ErrLocationLimit,
	invitedomain.ErrInvalidInvite,
	invitedomain.ErrInvalidEmail,
	invitedomain.ErrInvalidRole,
	invitedomain.ErrInvalidUser,
	invitedomain.ErrInvalidLocation,
	invitedomain.ErrInviteNotPending,
	invitedomain.ErrInviteExpired,
	invitedomain.ErrInviteLimit,
	invitedomain.ErrMemberLimit,
	invitedomain.ErrApplicationNotPending,
	invitedomain.ErrInvalidStudio,
	classdomain.ErrInvalidStudio,
	classdomain.ErrInvalidClass,
	classdomain.ErrInvalidTitle,
	classdomain.ErrInvalidStatus,
	classdomain.ErrInvalidSkillLevel,
	classdomain.ErrInvalidUser,
	classdomain.ErrInvalidImage,
	classdomain.ErrInvalidTier,
	classdomain.ErrClassLimit,
	classdomain.ErrImageLimit,
	classdomain.ErrTierLimit,
	classdomain.ErrClassNotPublished,
	kilndomain.ErrInvalidStudio,
	kilndomain.ErrInvalidKiln,
	kilndomain.ErrInvalidName,
	kilndomain.ErrInvalidKilnType,
	kilndomain.ErrInvalidKilnStatus,
	kilndomain.ErrInvalidFiring,
	kilndomain.ErrInvalidFiringType,
	kilndomain.ErrInvalidTimeRange,
	kilndomain.ErrKilnNotOperational,
	kilndomain.ErrInvalidTransition,
	reviewdomain.ErrInvalidStudio,
	reviewdomain.ErrInvalidClass,
	reviewdomain.ErrInvalidReview,
	reviewdomain.ErrInvalidRating,
	messagingdomain.ErrInvalidStudio,
	messagingdomain.ErrInvalidConversation,
	messagingdomain.ErrInvalidKind,
	messagingdomain.ErrInvalidParticipants,
	messagingdomain.ErrInvalidMessage,
	messagingdomain.ErrEmptyMessage,
	messagingdomain.ErrMessageDeleted,
}

func isValidationError(err error) bool {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, invitedomain.ErrEmailMismatch),
		errors.Is(err, reviewdomain.ErrNotMember),
		errors.Is(err, reviewdomain.ErrNotAuthor),
		errors.Is(err, messagingdomain.ErrNotParticipant),
		errors.Is(err, messagingdomain.ErrNotSender):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, studiodomain.ErrSlugTaken),
		errors.Is(err, studiodomain.ErrAlreadyMember),
		errors.Is(err, invitedomain.ErrAlreadyMember),
		errors.Is(err, invitedomain.ErrPendingInviteExists),
		errors.Is(err, invitedomain.ErrPendingApplicationExists),
		errors.Is(err, classdomain.ErrAlreadyOnWaitlist),
		errors.Is(err, reviewdomain.ErrAlreadyReviewed),
		errors.Is(err, kilndomain.ErrFiringOverlap):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, studiodomain.ErrStudioNotFound),
		errors.Is(err, studiodomain.ErrLocationNotFound),
		errors.Is(err, studiodomain.ErrMemberNotFound),
		errors.Is(err, invitedomain.ErrInviteNotFound),
		errors.Is(err, invitedomain.ErrApplicationNotFound),
		errors.Is(err, classdomain.ErrClassNotFound),
		errors.Is(err, classdomain.ErrImageNotFound),
		errors.Is(err, classdomain.ErrTierNotFound),
		errors.Is(err, classdomain.ErrWaitlistNotFound),
		errors.Is(err, kilndomain.ErrKilnNotFound),
		errors.Is(err, kilndomain.ErrFiringNotFound),
		errors.Is(err, reviewdomain.ErrReviewNotFound),
		errors.Is(err, messagingdomain.ErrConversationNotFound),
		errors.Is(err, messagingdomain.ErrMessageNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
