package rewrite

import (
	"context"
	"errors"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/q2316367743/ai-tools/internal/cache"
)

const testRoot = "/cache"

// memFS 是内存中的 cache.Filesystem，记录每次下载请求。
type memFS struct {
	mu        sync.Mutex
	dirs      map[string]bool
	files     map[string][]byte
	downloads []string
	failing   map[string]error
}

var _ cache.Filesystem = (*memFS)(nil)

func newMemFS() *memFS {
	return &memFS{
		dirs:    map[string]bool{testRoot: true},
		files:   map[string][]byte{},
		failing: map[string]error{},
	}
}

func (m *memFS) failOn(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[url] = errors.New("connection refused")
}

func (m *memFS) Mkdir(p string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := p; dir != "/" && dir != "."; dir = path.Dir(dir) {
		m.dirs[dir] = true
	}
	return nil
}

func (m *memFS) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[p]
	return ok
}

func (m *memFS) DownloadURL(_ context.Context, url, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads = append(m.downloads, url)
	if err, ok := m.failing[url]; ok {
		return err
	}
	m.files[p] = []byte("body of " + url)
	return nil
}

func (m *memFS) Join(elem ...string) string { return path.Join(elem...) }

func (m *memFS) Dir(p string) string { return path.Dir(p) }

func (m *memFS) downloadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.downloads)
}

func (m *memFS) downloaded(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range m.downloads {
		if u == url {
			count++
		}
	}
	return count
}

func newTestManager(t *testing.T, fsys *memFS, opts Options) *Manager {
	t.Helper()
	downloader, err := cache.NewDownloader(fsys, testRoot)
	require.NoError(t, err)
	manager, err := NewManager(downloader, opts)
	require.NoError(t, err)
	return manager
}
