package middleware

import "github.com/gofiber/fiber/v2"

// NoStore marks every response as uncacheable so a regenerated map is picked
// up on reload. It is applied after the handler ran, so static file
// responses carry it too.
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		return err
	}
}
