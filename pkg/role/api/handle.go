package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/tendant/eligibility-idm/pkg/client"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	rolepkg "github.com/tendant/eligibility-idm/pkg/role"
)

type Handle struct {
	roleService *rolepkg.RoleService
}

func NewHandle(roleService *rolepkg.RoleService) *Handle {
	return &Handle{
		roleService: roleService,
	}
}

// Routes mounts the role endpoints. They expect client.AuthUserMiddleware
// upstream.
func (h *Handle) Routes(r chi.Router) {
	r.Get("/roles", h.Get)
	r.Post("/roles/assign", h.Assign)
	r.Post("/roles/remove", h.Remove)
}

type RoleItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type RoleChangeRequest struct {
	UserID string       `json:"user_id"`
	Role   rolepkg.Role `json:"role"`
}

func (req RoleChangeRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.UserID, validation.Required, is.UUID),
		validation.Field(&req.Role, validation.Required),
	)
}

type RoleChangeResponse struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Get handles retrieving the list of roles
func (h *Handle) Get(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleService.FindRoles(r.Context())
	if err != nil {
		pkgerrors.RenderError(w, r, err)
		return
	}

	items := make([]RoleItem, 0, len(roles))
	for _, role := range roles {
		items = append(items, RoleItem{ID: int(role.ID), Name: role.Name})
	}
	render.JSON(w, r, items)
}

func (h *Handle) Assign(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.roleService.AssignRole, "Role assigned")
}

func (h *Handle) Remove(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.roleService.RemoveRole, "Role removed")
}

type changeFunc func(ctx context.Context, caller client.Caller, userID uuid.UUID, role rolepkg.Role) error

func (h *Handle) change(w http.ResponseWriter, r *http.Request, apply changeFunc, message string) {
	caller, ok := client.GetCaller(r.Context())
	if !ok {
		pkgerrors.RenderError(w, r, pkgerrors.Unauthorized("authentication required"))
		return
	}

	var req RoleChangeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		pkgerrors.RenderError(w, r, pkgerrors.InvalidInput("request body", err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		pkgerrors.RenderError(w, r, pkgerrors.ValidationFailed(validationDetails(err)))
		return
	}

	userID := uuid.MustParse(req.UserID)
	if err := apply(r.Context(), caller, userID, req.Role); err != nil {
		pkgerrors.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, RoleChangeResponse{
		UserID:  userID.String(),
		Role:    req.Role.String(),
		Message: message,
	})
}

func validationDetails(err error) map[string]interface{} {
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
