package middleware

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postpilot/configs"
)

// CronAuth requires "Authorization: Bearer <CRON_SECRET>" in production when
// a secret is set. Other environments are left open for local testing.
func CronAuth(cfg config.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current := cfg()
		if !current.IsProduction() || current.CronSecret == "" {
			return c.Next()
		}

		expected := "Bearer " + current.CronSecret
		if subtle.ConstantTimeCompare([]byte(c.Get(fiber.HeaderAuthorization)), []byte(expected)) != 1 {
			slog.Info("Cron: Unauthorized request rejected", "ip", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		return c.Next()
	}
}
