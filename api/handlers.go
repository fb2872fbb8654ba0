package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
	"github.com/scrollpedia/scrollfeed/pkg/store"
)

// ErrorResponse is the envelope for transport-level failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the envelope for domain-level outcomes. Status is one
// of "ok", "created", "not_found", "profile_required", "invalid_argument",
// "already_exists", "embedding_unavailable" or "error".
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ProfileData is the profile payload returned to the client. The raw
// embedding is never exposed.
type ProfileData struct {
	UserID string   `json:"user_id"`
	Tags   []string `json:"tags"`
}

// CreateProfileRequest is the onboarding request body.
type CreateProfileRequest struct {
	Tags []string `json:"tags"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleGetProfile returns the caller's stored profile tags.
func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	userID := requestUserID(c)

	p, err := s.profiles.Get(c.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(StatusResponse{
				Status:  "not_found",
				Message: "no profile exists for this user",
			})
		}

		s.logger.Error("fetching profile failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(StatusResponse{
			Status:  "error",
			Message: "failed to fetch profile",
		})
	}

	return c.JSON(StatusResponse{
		Status: "ok",
		Data:   ProfileData{UserID: p.UserID, Tags: p.Tags},
	})
}

// handleCreateProfile runs onboarding: validates the selected tags, embeds
// them and stores the one profile this user will ever have.
func (s *Server) handleCreateProfile(c *fiber.Ctx) error {
	userID := requestUserID(c)

	var req CreateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(StatusResponse{
			Status:  "invalid_argument",
			Message: "request body must be JSON with a tags array",
		})
	}

	p, err := s.profiles.Create(c.Context(), userID, req.Tags)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrInvalidArgument):
			return c.Status(fiber.StatusBadRequest).JSON(StatusResponse{
				Status:  "invalid_argument",
				Message: err.Error(),
			})
		case errors.Is(err, feed.ErrProfileAlreadyExists):
			return c.Status(fiber.StatusConflict).JSON(StatusResponse{
				Status:  "already_exists",
				Message: "a profile already exists for this user",
			})
		case errors.Is(err, feed.ErrEmbeddingUnavailable):
			s.logger.Warn("embedding unavailable during onboarding",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(StatusResponse{
				Status:  "embedding_unavailable",
				Message: "embedding provider is unavailable, retry later",
			})
		default:
			s.logger.Error("creating profile failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(StatusResponse{
				Status:  "error",
				Message: "failed to create profile",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(StatusResponse{
		Status: "created",
		Data:   ProfileData{UserID: p.UserID, Tags: p.Tags},
	})
}
