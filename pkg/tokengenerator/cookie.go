package tokengenerator

import (
	"net/http"
	"time"
)

// CookieSetter writes the access token to the cookie read by the
// authentication middleware.
type CookieSetter struct {
	Name   string
	Path   string
	Secure bool
}

func NewCookieSetter(name string, secure bool) *CookieSetter {
	return &CookieSetter{
		Name:   name,
		Path:   "/",
		Secure: secure,
	}
}

func (c *CookieSetter) SetCookie(w http.ResponseWriter, value string, expire time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Path:     c.Path,
		Value:    value,
		Expires:  expire,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *CookieSetter) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Path:     c.Path,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
	})
}
