package router

import (
	"context"
	"errors"
	"time"

	"event_messaging_service/internal/messaging/app"
	"event_messaging_service/internal/messaging/domain"
	"event_messaging_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts the REST surface and the websocket endpoint.
func RegisterRoutes(r *fiber.App, service *app.MessagingService, wsHandler *app.MessagingWebsocketHandler) {
	r.Use(middlewares.JWTMiddleware())

	events := r.Group("/events/:eventID")
	events.Get("/thread", getGroupThread(service))
	events.Get("/vendors/:counterpart/thread", getVendorThread(service))
	events.Post("/messages", sendMessage(service))
	events.Post("/vendors/:counterpart/messages", sendVendorMessage(service))
	events.Get("/vendors/:counterpart/messages", getVendorMessages(service))
	events.Get("/messages", getMessages(service))
	events.Post("/read", markRead(service))
	events.Get("/participants", listParticipants(service))
	events.Post("/archive", archiveThread(service))

	r.Get("/notifications", listNotifications(service))
	r.Get("/notifications/unread_count", unreadCount(service))
	r.Post("/notifications/read", markNotificationsRead(service))

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleConnection(context.Background(), c)
	}))
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func getGroupThread(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		thread, err := service.GetGroupThread(c.Context(), userID(c), c.Params("eventID"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(thread)
	}
}

func getVendorThread(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		thread, err := service.GetVendorThread(c.Context(), userID(c), c.Params("eventID"), c.Params("counterpart"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(thread)
	}
}

func sendMessage(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req sendMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		msg, err := service.SendMessage(c.Context(), userID(c), c.Params("eventID"), req.Content, senderType(c))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	}
}

func sendVendorMessage(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req sendMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		msg, err := service.SendVendorMessage(c.Context(), userID(c), c.Params("eventID"), c.Params("counterpart"), req.Content, senderType(c))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	}
}

func getMessages(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := domain.PageOptions{Limit: c.QueryInt("limit")}
		if cursor := c.Query("before"); cursor != "" {
			before, err := time.Parse(time.RFC3339, cursor)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid before cursor"})
			}
			opts.Before = &before
		}

		page, err := service.GetMessages(c.Context(), userID(c), c.Params("eventID"), opts)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"messages": page})
	}
}

func getVendorMessages(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := domain.PageOptions{Limit: c.QueryInt("limit")}
		if cursor := c.Query("before"); cursor != "" {
			before, err := time.Parse(time.RFC3339, cursor)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid before cursor"})
			}
			opts.Before = &before
		}

		page, err := service.GetVendorMessages(c.Context(), userID(c), c.Params("eventID"), c.Params("counterpart"), opts)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"messages": page})
	}
}

func markRead(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := service.MarkThreadRead(c.Context(), userID(c), c.Params("eventID")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

func listParticipants(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		participants, err := service.ListParticipants(c.Context(), userID(c), c.Params("eventID"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"participants": participants})
	}
}

func archiveThread(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := service.ArchiveGroupThread(c.Context(), userID(c), c.Params("eventID")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

func listNotifications(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		notifications, total, err := service.ListNotifications(c.Context(), userID(c), c.QueryInt("page", 1), c.QueryInt("limit", 20))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"notifications": notifications, "total": total})
	}
}

func unreadCount(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := service.UnreadNotificationCount(c.Context(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"unread_count": count})
	}
}

func markNotificationsRead(service *app.MessagingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := service.MarkNotificationsRead(c.Context(), userID(c)); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(middlewares.TokenUserID).(string)
	return id
}

func senderType(c *fiber.Ctx) domain.SenderType {
	if role, _ := c.Locals(middlewares.TokenRole).(string); role == "vendor" {
		return domain.SenderTypeVendor
	}
	return domain.SenderTypeUser
}

func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		status = fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrAccessDenied):
		status = fiber.StatusForbidden
	case errors.Is(err, domain.ErrEmptyMessage):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrThreadNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrRealtimeDisabled):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
