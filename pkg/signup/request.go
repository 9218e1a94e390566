package signup

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/tendant/eligibility-idm/pkg/login"
	"github.com/tendant/eligibility-idm/pkg/role"
)

// RegisterUserRequest is what an administrator submits to register a user.
type RegisterUserRequest struct {
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Roles    []role.Role `json:"roles"`
}

func (req RegisterUserRequest) Validate() error {
	stored := make([]interface{}, 0, len(role.Stored))
	for _, r := range role.Stored {
		stored = append(stored, r)
	}

	return validation.ValidateStruct(&req,
		validation.Field(&req.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Roles, validation.Required, validation.Each(validation.Required, validation.In(stored...))),
	)
}

func (req RegisterUserRequest) normalized() RegisterUserRequest {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = login.NormalizeEmail(req.Email)
	req.Roles = role.Dedupe(req.Roles)
	return req
}

// ValidationDetails turns an ozzo validation error into per-field messages.
func ValidationDetails(err error) map[string]interface{} {
	details := map[string]interface{}{}
	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			details[field] = fieldErr.Error()
		}
		return details
	}
	details["request"] = err.Error()
	return details
}
