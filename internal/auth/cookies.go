package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	AccessCookieName  = "authority_access_token"
	RefreshCookieName = "authority_refresh_token"
	CitizenCookieName = "citizen_session"
)

// CookieWriter sets and clears credential cookies.
type CookieWriter struct {
	Secure bool
}

// SetAuthority stores the access and refresh tokens as HttpOnly cookies.
func (w CookieWriter) SetAuthority(c *fiber.Ctx, pair TokenPair) {
	w.set(c, AccessCookieName, pair.Access)
	w.set(c, RefreshCookieName, pair.Refresh)
}

// SetAccess replaces only the access cookie.
func (w CookieWriter) SetAccess(c *fiber.Ctx, token IssuedToken) {
	w.set(c, AccessCookieName, token)
}

// ClearAuthority removes both authority cookies.
func (w CookieWriter) ClearAuthority(c *fiber.Ctx) {
	w.expire(c, AccessCookieName)
	w.expire(c, RefreshCookieName)
}

// SetCitizen stores the citizen session cookie.
func (w CookieWriter) SetCitizen(c *fiber.Ctx, token IssuedToken) {
	w.set(c, CitizenCookieName, token)
}

// ClearCitizen removes the citizen session cookie.
func (w CookieWriter) ClearCitizen(c *fiber.Ctx) {
	w.expire(c, CitizenCookieName)
}

func (w CookieWriter) set(c *fiber.Ctx, name string, token IssuedToken) {
	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  token.ExpiresAt,
		HTTPOnly: true,
		Secure:   w.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// AuthorityAccessToken returns the access token from the cookie, falling back
// to an Authorization bearer header.
func AuthorityAccessToken(c *fiber.Ctx) string {
	if token := c.Cookies(AccessCookieName); token != "" {
		return token
	}
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// expire overwrites name on the same path the credential was set on.
func (w CookieWriter) expire(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   w.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
