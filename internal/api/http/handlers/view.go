package handlers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const flashCookieName = "flash"

// View is the JSON document every page handler renders.
type View struct {
	View     string   `json:"view"`
	Messages []string `json:"messages"`
	Data     any      `json:"data"`
}

// Render writes a view, prefixing any pending flash messages.
func Render(c *fiber.Ctx, status int, name string, messages []string, data any) error {
	all := append(ConsumeFlash(c), messages...)
	if all == nil {
		all = []string{}
	}
	return c.Status(status).JSON(View{View: name, Messages: all, Data: data})
}

// SetFlash stores messages for the next rendered view.
func SetFlash(c *fiber.Ctx, messages ...string) {
	if len(messages) == 0 {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(strings.Join(messages, "\n")),
		Path:     "/",
		MaxAge:   60,
		Expires:  time.Now().Add(time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ConsumeFlash returns and clears pending flash messages.
func ConsumeFlash(c *fiber.Ctx) []string {
	raw := c.Cookies(flashCookieName)
	if raw == "" {
		return nil
	}
	c.Cookie(&fiber.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1, Expires: time.Unix(0, 0), HTTPOnly: true})
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	return strings.Split(decoded, "\n")
}

// RedirectWithMessage sets a flash message and redirects with 302.
func RedirectWithMessage(c *fiber.Ctx, location string, messages ...string) error {
	SetFlash(c, messages...)
	return c.Redirect(location, fiber.StatusFound)
}
