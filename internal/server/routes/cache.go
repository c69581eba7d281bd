package routes

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/q2316367743/ai-tools/internal/cache"
	"github.com/q2316367743/ai-tools/internal/rewrite"
)

// PassSwitch 报告引用类别是否启用，*rewrite.Manager 满足该接口。
type PassSwitch interface {
	Enabled(key string) bool
}

// RegisterCacheRoutes 暴露 /-/cache 与 /-/passes 诊断及维护接口。
func RegisterCacheRoutes(app *fiber.App, root string, passes PassSwitch, logger *logrus.Logger) {
	if app == nil || strings.TrimSpace(root) == "" {
		return
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	app.Get("/-/cache", func(c fiber.Ctx) error {
		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		stats, err := cache.Inspect(ctx, root)
		if err != nil {
			logger.WithFields(logrus.Fields{"action": "cache_inspect", "root": root}).
				WithError(err).Error("cache_inspect_failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_inspect_failed"})
		}
		if stats.Hosts == nil {
			stats.Hosts = []cache.HostStats{}
		}
		return c.JSON(stats)
	})

	app.Delete("/-/cache", func(c fiber.Ctx) error {
		if err := cache.Clear(root); err != nil {
			logger.WithFields(logrus.Fields{"action": "cache_clear", "root": root}).
				WithError(err).Error("cache_clear_failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_clear_failed"})
		}
		logger.WithFields(logrus.Fields{"action": "cache_clear", "root": root}).Info("cache_cleared")
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Delete("/-/cache/:host", func(c fiber.Ctx) error {
		host := strings.TrimSpace(c.Params("host"))
		if host == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "host_required"})
		}
		if err := cache.ClearHost(root, host); err != nil {
			if errors.Is(err, cache.ErrInvalidURL) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_host"})
			}
			logger.WithFields(logrus.Fields{"action": "cache_clear", "root": root, "host": host}).
				WithError(err).Error("cache_clear_failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_clear_failed"})
		}
		logger.WithFields(logrus.Fields{"action": "cache_clear", "root": root, "host": host}).Info("cache_cleared")
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/-/passes", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"passes": encodePasses(rewrite.List(), passes)})
	})
}

type passPayload struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Selector    string `json:"selector"`
	Attr        string `json:"attr"`
	Optional    bool   `json:"optional"`
	Enabled     bool   `json:"enabled"`
}

func encodePasses(classes []rewrite.ReferenceClass, passes PassSwitch) []passPayload {
	result := make([]passPayload, 0, len(classes))
	for _, class := range classes {
		result = append(result, passPayload{
			Key:         class.Key,
			Description: class.Description,
			Selector:    class.Selector,
			Attr:        class.Attr,
			Optional:    class.Optional,
			Enabled:     passes != nil && passes.Enabled(class.Key),
		})
	}
	return result
}
