package middleware

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/iancoleman/strcase"
)

// Camelizer rewrites the top-level keys of a JSON object body from
// snake_case to lowerCamelCase. A key already in camel case wins over its
// snake_case twin. Bodies that are not JSON objects pass through untouched.
func Camelizer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		contentType := string(c.Request().Header.ContentType())
		if len(body) == 0 || !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Next()
		}

		var payload map[string]json.RawMessage
		if err := json.Unmarshal(body, &payload); err != nil {
			// The handler reports malformed bodies.
			return c.Next()
		}

		camelized := make(map[string]json.RawMessage, len(payload))
		for key, value := range payload {
			camel := strcase.ToLowerCamel(key)
			if camel != key {
				if _, exists := payload[camel]; exists {
					continue
				}
			}
			camelized[camel] = value
		}

		rewritten, err := json.Marshal(camelized)
		if err != nil {
			return c.Next()
		}
		c.Request().SetBody(rewritten)
		return c.Next()
	}
}
