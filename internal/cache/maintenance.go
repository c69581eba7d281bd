package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// HostStats 汇总单个主机目录下的条目数量与体积。
type HostStats struct {
	Host    string `json:"host"`
	Entries int    `json:"entries"`
	Bytes   int64  `json:"bytes"`
}

// Stats 描述整个缓存根目录的占用情况。
type Stats struct {
	Root    string      `json:"root"`
	Entries int         `json:"entries"`
	Bytes   int64       `json:"bytes"`
	Hosts   []HostStats `json:"hosts"`
}

// Inspect 遍历 root 统计缓存条目，未完成的临时文件不计入。root 不存在时返回空统计。
func Inspect(ctx context.Context, root string) (Stats, error) {
	stats := Stats{Root: root}
	perHost := map[string]*HostStats{}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || isTempName(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
		if len(parts) < 2 {
			// 根目录下的散落文件不属于任何主机。
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		host := perHost[parts[0]]
		if host == nil {
			host = &HostStats{Host: parts[0]}
			perHost[parts[0]] = host
		}
		host.Entries++
		host.Bytes += info.Size()
		stats.Entries++
		stats.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	stats.Hosts = make([]HostStats, 0, len(perHost))
	for _, host := range perHost {
		stats.Hosts = append(stats.Hosts, *host)
	}
	sort.Slice(stats.Hosts, func(i, j int) bool {
		return stats.Hosts[i].Host < stats.Hosts[j].Host
	})
	return stats, nil
}

// Clear 删除 root 下的所有主机目录，root 本身保留。
func Clear(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// ClearHost 删除单个主机目录。host 会先经过 Sanitize，保证不会越出 root。
func ClearHost(root, host string) error {
	safe := Sanitize(strings.ToLower(strings.TrimSpace(host)))
	if safe == "" || safe == "." || safe == ".." || strings.Contains(safe, "/") {
		return &URLError{URL: host, Err: errors.New("invalid host")}
	}
	if err := os.RemoveAll(filepath.Join(root, safe)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func isTempName(name string) bool {
	return strings.HasPrefix(name, ".cache-")
}
