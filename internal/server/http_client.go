package server

import (
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/q2316367743/ai-tools/internal/cache"
	"github.com/q2316367743/ai-tools/internal/config"
	"github.com/q2316367743/ai-tools/internal/logging"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   16,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

const (
	defaultInitialBackoff = 500 * time.Millisecond
	maxBackoffFactor      = 8
)

// NewDownloadClient 返回带重试的 http.Client，用于所有远程资源下载。
// 单次下载的超时由 Downloader 通过 context 控制，这里不设置 Client.Timeout。
func NewDownloadClient(cfg *config.Config, logger *logrus.Logger) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Transport: defaultTransport.Clone()}
	retryClient.Logger = retryLogger{entry: logging.Component(logger, "http_client")}
	// 重试耗尽后把最后一次响应交还调用方，非 2xx 是否落盘由 RejectHTTPErrors 决定。
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	backoff := defaultInitialBackoff
	if cfg != nil {
		retryClient.RetryMax = cfg.Fetch.MaxRetries
		if cfg.Fetch.InitialBackoff.DurationValue() > 0 {
			backoff = cfg.Fetch.InitialBackoff.DurationValue()
		}
	}
	retryClient.RetryWaitMin = backoff
	retryClient.RetryWaitMax = backoff * maxBackoffFactor

	return retryClient.StandardClient()
}

// NewCacheFilesystem 组合下载客户端与宿主文件系统。
func NewCacheFilesystem(cfg *config.Config, logger *logrus.Logger) cache.Filesystem {
	opts := cache.HostOptions{}
	if cfg != nil {
		opts.UserAgent = cfg.Fetch.UserAgent
		opts.RejectHTTPErrors = cfg.Fetch.RejectHTTPErrors
	}
	return cache.NewHostFS(NewDownloadClient(cfg, logger), opts)
}

// retryLogger 把 retryablehttp 的 LeveledLogger 接到 logrus。
type retryLogger struct {
	entry *logrus.Entry
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Error(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l retryLogger) with(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}
