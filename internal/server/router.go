package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/q2316367743/ai-tools/internal/rewrite"
	"github.com/q2316367743/ai-tools/internal/sandbox"
)

// DocumentHandler 是服务调用的改写组件，测试中可注入假实现。
type DocumentHandler interface {
	HandleWithReport(ctx context.Context, html string) (string, rewrite.Report, error)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	Handler    DocumentHandler
	CacheRoot  string
	ListenPort int
}

const (
	contextKeyRequestID = "_aitools_request_id"

	headerFailures  = "X-AI-Tools-Failures"
	headerRewritten = "X-AI-Tools-Rewritten"
	htmlContentType = "text/html; charset=utf-8"
)

// NewApp builds the preview service: request ids, document rewrite endpoints and the
// read-only view of the cache root.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("document handler is required")
	}
	if strings.TrimSpace(opts.CacheRoot) == "" {
		return nil, errors.New("cache root is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		BodyLimit:     32 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	app.Post("/-/handle", func(c fiber.Ctx) error {
		out, ok, err := runHandler(c, opts)
		if !ok {
			return err
		}
		c.Set(fiber.HeaderContentType, htmlContentType)
		return c.SendString(out)
	})

	app.Post("/-/preview", func(c fiber.Ctx) error {
		out, ok, err := runHandler(c, opts)
		if !ok {
			return err
		}
		page, err := sandbox.Wrap(out, sandbox.Options{Title: c.Query("title")})
		if err != nil {
			return renderError(c, fiber.StatusInternalServerError, "preview_failed")
		}
		c.Set(fiber.HeaderContentType, htmlContentType)
		return c.SendString(page)
	})

	// 宿主在 /-/preview 返回前展示的加载页。
	app.Get("/-/placeholder", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, htmlContentType)
		return c.SendString(sandbox.Placeholder(c.Query("text")))
	})

	files := newCacheFileServer(opts.CacheRoot, opts.Logger)
	app.Get("/*", files.serve)

	return app, nil
}

// runHandler 执行改写；ok 为 false 时响应已写出，返回值 err 直接交给 Fiber。
func runHandler(c fiber.Ctx, opts AppOptions) (string, bool, error) {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", false, renderError(c, fiber.StatusBadRequest, "empty_document")
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out, report, err := opts.Handler.HandleWithReport(ctx, string(body))
	if err != nil {
		fields := logrus.Fields{
			"action":     "handle",
			"request_id": RequestID(c),
		}
		if errors.Is(err, rewrite.ErrParse) {
			opts.Logger.WithFields(fields).WithError(err).Warn("document_rejected")
			return "", false, renderError(c, fiber.StatusUnprocessableEntity, "parse_failed")
		}
		opts.Logger.WithFields(fields).WithError(err).Error("handle_failed")
		return "", false, renderError(c, fiber.StatusInternalServerError, "handle_failed")
	}

	c.Set(headerFailures, strconv.Itoa(report.Failures()))
	c.Set(headerRewritten, strconv.Itoa(report.Rewritten()))
	return out, true, nil
}

// requestIDMiddleware 为每个请求生成 ID 并写入响应头。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

func renderError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": code,
	})
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(p string) bool {
	return strings.HasPrefix(p, "/-/")
}

// cacheFileServer 把缓存根目录按其自身的绝对路径暴露出来，改写后的引用因此可以直接解析。
type cacheFileServer struct {
	root    string
	urlRoot string
	logger  *logrus.Logger
}

func newCacheFileServer(root string, logger *logrus.Logger) *cacheFileServer {
	urlRoot := path.Clean("/" + strings.TrimPrefix(filepath.ToSlash(root), "/"))
	return &cacheFileServer{root: filepath.Clean(root), urlRoot: urlRoot, logger: logger}
}

func (s *cacheFileServer) serve(c fiber.Ctx) error {
	reqPath := string(c.Request().URI().Path())
	if isDiagnosticsPath(reqPath) || !strings.HasPrefix(reqPath, s.urlRoot+"/") {
		return c.Next()
	}

	rel := path.Clean("/" + strings.TrimPrefix(reqPath, s.urlRoot))
	full := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return renderError(c, fiber.StatusForbidden, "path_outside_cache")
	}

	file, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return renderError(c, fiber.StatusNotFound, "cache_entry_not_found")
		}
		return renderError(c, fiber.StatusInternalServerError, "cache_read_failed")
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		return renderError(c, fiber.StatusNotFound, "cache_entry_not_found")
	}

	if contentType := mime.TypeByExtension(filepath.Ext(full)); contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	}
	c.Response().Header.SetContentLength(int(info.Size()))
	c.Status(fiber.StatusOK)

	if _, err := io.Copy(c.Response().BodyWriter(), file); err != nil {
		s.logger.WithFields(logrus.Fields{
			"action":     "serve_cache",
			"path":       full,
			"request_id": RequestID(c),
		}).WithError(err).Warn("cache_read_failed")
		return err
	}
	return nil
}
