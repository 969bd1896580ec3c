package utils

import "github.com/gofiber/fiber/v2"

// The API speaks the original client's shapes: bare entities on reads,
// `{"message": ...}` on mutations and on every failure.

func Message(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}

func JSON(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}
