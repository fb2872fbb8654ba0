package api

import "github.com/gofiber/fiber/v2"

// userIDHeader carries the authenticated user identifier. Authentication
// itself happens upstream; this service only consumes the result.
const userIDHeader = "X-User-ID"

const userIDLocal = "userID"

// requireUser rejects requests that arrive without an authenticated user
// identifier and stashes the identifier for handlers.
func (s *Server) requireUser(c *fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error: userIDHeader + " header is required",
		})
	}

	c.Locals(userIDLocal, userID)
	return c.Next()
}

func requestUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(userIDLocal).(string)
	return userID
}
