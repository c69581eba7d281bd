package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/q2316367743/ai-tools/internal/logging"
)

// Downloader 保证同一缓存键只下载一次：文件存在即直接复用，不产生网络请求。
type Downloader struct {
	fs      Filesystem
	root    string
	timeout time.Duration
	log     *logrus.Entry

	group singleflight.Group
}

// DownloaderOption 调整 Downloader 的可选行为。
type DownloaderOption func(*Downloader)

// WithTimeout 为每次下载设置超时，避免单个资源拖住整次 Handle。
func WithTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) {
		d.timeout = timeout
	}
}

// WithLogger 注入结构化日志。
func WithLogger(logger *logrus.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.log = logging.Component(logger, "downloader")
	}
}

// NewDownloader 以 root 为缓存根目录构建下载器，root 在进程生命周期内不应变化。
func NewDownloader(fsys Filesystem, root string, opts ...DownloaderOption) (*Downloader, error) {
	if fsys == nil {
		return nil, errors.New("filesystem capability required")
	}
	if root == "" {
		return nil, errors.New("cache root required")
	}
	d := &Downloader{
		fs:   fsys,
		root: root,
		log:  logging.Component(nil, "downloader"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Root 返回缓存根目录。
func (d *Downloader) Root() string {
	return d.root
}

// LocalPath 通过宿主的路径拼接计算 url 对应的缓存文件路径。
func (d *Downloader) LocalPath(rawURL string) (string, error) {
	_, local, err := locate(d.fs.Join, rawURL, d.root)
	return local, err
}

// EnsureCached 确保 url 已落盘并返回本地路径。解析失败返回 ErrInvalidURL，
// 网络或写盘失败返回 ErrDownloadFailed。
func (d *Downloader) EnsureCached(ctx context.Context, rawURL string) (string, error) {
	loc, local, err := locate(d.fs.Join, rawURL, d.root)
	if err != nil {
		return "", err
	}

	// 同一进程内对同一缓存键的并发请求合并为一次下载。共享下载不随首个调用方取消，
	// 只受 DownloadTimeout 约束；每个调用方按自己的 ctx 决定是否提前返回。
	shared := context.WithoutCancel(ctx)
	ch := d.group.DoChan(loc.Key(), func() (interface{}, error) {
		return nil, d.ensure(shared, rawURL, loc.Key(), local)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return local, nil
	case <-ctx.Done():
		return "", &DownloadError{URL: rawURL, Err: ctx.Err()}
	}
}

func (d *Downloader) ensure(ctx context.Context, rawURL, key, local string) error {
	if err := d.fs.Mkdir(d.fs.Dir(local), true); err != nil {
		return &DownloadError{URL: rawURL, Err: err}
	}

	if d.fs.Exists(local) {
		d.log.WithFields(logging.DownloadFields(key, rawURL, local, true)).
			WithField("action", "ensure_cached").
			Debug("cache_hit")
		return nil
	}

	dlCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	started := time.Now()
	if err := d.fs.DownloadURL(dlCtx, rawURL, local); err != nil {
		return &DownloadError{URL: rawURL, Err: err}
	}

	d.log.WithFields(logging.DownloadFields(key, rawURL, local, false)).
		WithFields(logrus.Fields{
			"action":     "ensure_cached",
			"elapsed_ms": time.Since(started).Milliseconds(),
		}).
		Info("download_complete")
	return nil
}
