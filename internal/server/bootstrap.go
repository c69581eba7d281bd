package server

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/q2316367743/ai-tools/internal/cache"
	"github.com/q2316367743/ai-tools/internal/config"
	"github.com/q2316367743/ai-tools/internal/rewrite"
)

// NewManager 按配置组装 宿主文件系统 → Downloader → rewrite.Manager。
func NewManager(cfg *config.Config, logger *logrus.Logger) (*rewrite.Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	downloader, err := cache.NewDownloader(
		NewCacheFilesystem(cfg, logger),
		cfg.Global.CacheRoot,
		cache.WithTimeout(cfg.Fetch.DownloadTimeout.DurationValue()),
		cache.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("build downloader: %w", err)
	}

	return rewrite.NewManager(downloader, rewrite.Options{
		CacheImages: cfg.Fetch.CacheImages,
		Concurrency: cfg.Fetch.MaxConcurrentDownloads,
		Logger:      logger,
	})
}
