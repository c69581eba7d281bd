package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// HostOptions 控制宿主文件系统的下载行为。
type HostOptions struct {
	UserAgent string
	// RejectHTTPErrors 为 false 时非 2xx 响应体同样原样落盘。
	RejectHTTPErrors bool
}

// NewHostFS 返回基于 os 与共享 HTTP 客户端的 Filesystem 实现。
func NewHostFS(client HTTPDoer, opts HostOptions) Filesystem {
	if client == nil {
		client = http.DefaultClient
	}
	return &hostFS{
		client: client,
		opts:   opts,
		locks:  make(map[string]*entryLock),
	}
}

// hostFS 通过 entryLock 避免同一路径并发写入，正文先写临时文件再 rename。
type hostFS struct {
	client HTTPDoer
	opts   HostOptions

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *hostFS) Mkdir(path string, recursive bool) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil
	}
	var err error
	if recursive {
		err = os.MkdirAll(path, 0o755)
	} else {
		err = os.Mkdir(path, 0o755)
	}
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

func (s *hostFS) Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func (s *hostFS) Join(elem ...string) string { return filepath.Join(elem...) }

func (s *hostFS) Dir(path string) string { return filepath.Dir(path) }

func (s *hostFS) DownloadURL(ctx context.Context, rawURL, dst string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	unlock := s.lockEntry(dst)
	defer unlock()

	if err := s.Mkdir(filepath.Dir(dst), true); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if s.opts.UserAgent != "" {
		req.Header.Set("User-Agent", s.opts.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if s.opts.RejectHTTPErrors && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return writeAtomically(ctx, dst, resp.Body)
}

// writeAtomically 把 body 写入同目录临时文件，完整写完后 rename 到最终路径。
func writeAtomically(ctx context.Context, dst string, body io.Reader) error {
	tempFile, err := os.CreateTemp(filepath.Dir(dst), tempPattern)
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = copyWithContext(ctx, tempFile, body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, dst); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

// tempPattern 以 "." 开头，统计与清理时据此跳过未完成的写入。
const tempPattern = ".cache-*"

func (s *hostFS) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
