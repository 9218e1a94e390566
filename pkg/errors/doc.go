// Package errors provides structured error handling with error codes for eligibility-idm.
//
// Services return *Error values carrying an ErrorCode. Handlers never pick
// status codes themselves; they call RenderError, which maps the code to an
// HTTP status and writes a JSON body.
//
// # Basic Usage
//
//	import "github.com/tendant/eligibility-idm/pkg/errors"
//
//	err := errors.NotFound("user", userID.String())
//	err := errors.Conflict("email already registered")
//	err := errors.InvalidInput("limit", "must be positive")
//	err := errors.InternalWrap(dbErr, "failed to insert user")
//
// # Error Codes
//
//   - ErrCodeInvalidInput, ErrCodeValidationFailed (400)
//   - ErrCodeUnauthorized (401)
//   - ErrCodeForbidden (403)
//   - ErrCodeNotFound (404)
//   - ErrCodeConflict (409)
//   - ErrCodeTooManyRequests (429)
//   - ErrCodeInternal (500)
//
// # Error Inspection
//
//	if errors.IsCode(err, errors.ErrCodeConflict) {
//		// duplicate email, token collision
//	}
//
//	code := errors.GetCode(err) // ErrCodeInternal for unstructured errors
//
// # Rendering
//
// Internal errors are rendered as "internal server error"; the wrapped cause is
// only written to the log.
//
//	if err != nil {
//		errors.RenderError(w, r, err)
//		return
//	}
package errors
