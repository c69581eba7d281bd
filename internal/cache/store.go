package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Filesystem 是宿主进程提供的文件系统能力，核心逻辑只通过它接触磁盘与网络。
type Filesystem interface {
	// Mkdir 创建目录；目录已存在时为 no-op。
	Mkdir(path string, recursive bool) error

	// Exists 同步判断文件是否存在，目录不算缓存条目。
	Exists(path string) bool

	// DownloadURL 按 URL 协议发起 GET，把完整响应体写入 path（创建或覆盖）。
	DownloadURL(ctx context.Context, url, path string) error

	Join(elem ...string) string
	Dir(path string) string
}

// HTTPDoer 抽象出 *http.Client，测试中可注入假传输层。
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Locator 唯一定位一个缓存条目（主机名 + 清洗后的 URL 路径）。
type Locator struct {
	Host string
	Path string
}

// Key 返回 host::path 形式的键，Downloader 以它合并并发下载并写入日志。
func (l Locator) Key() string {
	return l.Host + "::" + l.Path
}

// ErrInvalidURL 表示引用无法解析为带主机名的绝对 URL。
var ErrInvalidURL = errors.New("invalid resource url")

// ErrDownloadFailed 表示网络或写盘失败，调用方应保留原始远程地址。
var ErrDownloadFailed = errors.New("download failed")

// URLError 记录无法解析的原始地址。
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("invalid resource url %q: %v", e.URL, e.Err)
}

func (e *URLError) Unwrap() error { return e.Err }

func (e *URLError) Is(target error) bool { return target == ErrInvalidURL }

// DownloadError 记录下载失败的地址与底层原因。
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s failed: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

func (e *DownloadError) Is(target error) bool { return target == ErrDownloadFailed }
