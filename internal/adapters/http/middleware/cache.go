package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// MasterDataCache returns cache middleware for slow-changing master
// data such as categories (1 hour cache)
func MasterDataCache() fiber.Handler {
	return PublicCacheHeaders(time.Hour)
}

// PublicCacheHeaders sets public cache headers on successful GETs
func PublicCacheHeaders(maxAge time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() == "GET" && c.Response().StatusCode() == 200 {
			c.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(maxAge.Seconds())))
		}

		return err
	}
}

// NoCacheHeaders sets no-cache headers
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Set("Pragma", "no-cache")
		c.Set("Expires", "0")
		return c.Next()
	}
}
