package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/iam"
	"github.com/tendant/eligibility-idm/pkg/role"
)

type Handle struct {
	iamService *iam.IamService
}

func NewHandle(iamService *iam.IamService) Handle {
	return Handle{
		iamService: iamService,
	}
}

// Routes mounts the user query endpoints. Any authenticated caller may use
// them.
func (h Handle) Routes(r chi.Router) {
	r.Get("/users/get", h.List)
	r.Get("/users/get/", h.List)
	r.Get("/users/{user_id}", h.Get)
}

// UserItem is the public view of a user. The password hash is never part of
// it.
type UserItem struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	RoleNames  []string  `json:"roles"`
	Registered bool      `json:"registered"`
}

type ListUsersResponse struct {
	Items  []UserItem `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// List users
// (GET /users/get/?filter_for_users=ALL&limit=10&offset=0)
func (h Handle) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := role.All
	if v := query.Get("filter_for_users"); v != "" {
		parsed, err := role.ParseRole(v)
		if err != nil {
			pkgerrors.RenderError(w, r, pkgerrors.InvalidInput("filter_for_users", err.Error()))
			return
		}
		filter = parsed
	}

	limit, err := intParam(query.Get("limit"), iam.DefaultPageLimit)
	if err != nil {
		pkgerrors.RenderError(w, r, pkgerrors.InvalidInput("limit", "must be an integer"))
		return
	}
	offset, err := intParam(query.Get("offset"), 0)
	if err != nil {
		pkgerrors.RenderError(w, r, pkgerrors.InvalidInput("offset", "must be an integer"))
		return
	}

	page, err := h.iamService.ListUsers(r.Context(), filter, limit, offset)
	if err != nil {
		pkgerrors.RenderError(w, r, err)
		return
	}

	resp := ListUsersResponse{
		Items:  make([]UserItem, 0, len(page.Items)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, user := range page.Items {
		resp.Items = append(resp.Items, ToUserItem(user))
	}
	render.JSON(w, r, resp)
}

// Get a user by id
// (GET /users/{user_id})
func (h Handle) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		pkgerrors.RenderError(w, r, pkgerrors.InvalidInput("user_id", "must be a UUID"))
		return
	}

	user, err := h.iamService.GetUserByID(r.Context(), id)
	if err != nil {
		pkgerrors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, ToUserItem(user))
}

// ToUserItem maps a user and its loaded roles to the public view.
func ToUserItem(user *iam.User) UserItem {
	var item UserItem
	copier.Copy(&item, user)
	item.Registered = user.Registered()

	item.RoleNames = make([]string, 0, len(user.Roles))
	for _, r := range user.RoleIDs() {
		item.RoleNames = append(item.RoleNames, r.String())
	}
	return item
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
