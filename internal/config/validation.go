package config

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "无法识别的日志级别: "+g.LogLevel)
	}
	if g.LogMaxSize < 0 {
		return newFieldError("Global.LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxBackups", "不能为负数")
	}
	if err := validateAppID(g.AppID); err != nil {
		return err
	}
	if strings.TrimSpace(g.CacheRoot) == "" {
		return newFieldError("Global.CacheRoot", "不能为空")
	}

	f := c.Fetch
	if f.MaxConcurrentDownloads <= 0 {
		return newFieldError("Fetch.MaxConcurrentDownloads", "必须大于 0")
	}
	if f.MaxRetries < 0 {
		return newFieldError("Fetch.MaxRetries", "不能为负数")
	}
	if f.InitialBackoff.DurationValue() <= 0 {
		return newFieldError("Fetch.InitialBackoff", "必须大于 0")
	}
	if f.DownloadTimeout.DurationValue() <= 0 {
		return newFieldError("Fetch.DownloadTimeout", "必须大于 0")
	}

	return nil
}

// validateAppID 确保 AppID 只作为单层目录名使用。
func validateAppID(appID string) error {
	trimmed := strings.TrimSpace(appID)
	if trimmed == "" {
		return newFieldError("Global.AppID", "不能为空")
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return newFieldError("Global.AppID", "不允许包含路径分隔符")
	}
	return nil
}
