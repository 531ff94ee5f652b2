package graph

import (
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

// Codes reported in extensions.code.
const (
	CodeBadUserInput      = "BAD_USER_INPUT"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicateUsername = "DUPLICATE_USERNAME"
	CodeAlreadyFollowing  = "ALREADY_FOLLOWING"
	CodeInvalidOperation  = "INVALID_OPERATION"
	CodeInternal          = "INTERNAL_SERVER_ERROR"
)

// Error is what resolvers hand to graphql-go. Its Extensions end up in the
// response next to the message.
type Error struct {
	Code    string
	Message string
	Fields  []apperr.FieldError
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	return ext
}

var codes = map[apperr.Kind]string{
	apperr.InvalidInput:           CodeBadUserInput,
	apperr.Unauthorized:           CodeUnauthenticated,
	apperr.Forbidden:              CodeForbidden,
	apperr.NotFound:               CodeNotFound,
	apperr.NotFoundOrUnauthorized: CodeNotFound,
	apperr.DuplicateUsername:      CodeDuplicateUsername,
	apperr.AlreadyFollowing:       CodeAlreadyFollowing,
	apperr.InvalidOperation:       CodeInvalidOperation,
}

// fail converts a service error into an API error. Store and internal
// failures are logged with their cause and reported without detail.
func (r *Resolver) fail(op string, err error) error {
	kind := apperr.KindOf(err)
	code, ok := codes[kind]
	if !ok {
		r.logger.Error("request failed",
			zap.String("operation", op),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return &Error{Code: CodeInternal, Message: "internal server error"}
	}
	r.logger.Debug("request rejected", zap.String("operation", op), zap.String("code", code), zap.Error(err))
	return &Error{Code: code, Message: apperr.MessageOf(err), Fields: apperr.FieldsOf(err)}
}

func unauthenticated() error {
	return apperr.New(apperr.Unauthorized, "authentication required")
}

func forbidden(message string) error {
	return apperr.New(apperr.Forbidden, message)
}
