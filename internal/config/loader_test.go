package config

import (
	"testing"
	"time"
)

func TestLoadFailsWithMissingFile(t *testing.T) {
	if _, err := Load(testConfigPath(t, "does-not-exist.toml")); err == nil {
		t.Fatalf("显式指定的配置文件不存在时应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
LogLevel = "info"
CacheRoot = "./data"
DownloadTimeout = "boom"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadAcceptsSecondsAsDuration(t *testing.T) {
	cfg := `
CacheRoot = "./data"
DownloadTimeout = 45
InitialBackoff = "2s"
CacheImages = true
`
	path := writeTempConfig(t, cfg)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if loaded.Fetch.DownloadTimeout.DurationValue() != 45*time.Second {
		t.Fatalf("纯数字应按秒解析，得到 %s", loaded.Fetch.DownloadTimeout.DurationValue())
	}
	if loaded.Fetch.InitialBackoff.DurationValue() != 2*time.Second {
		t.Fatalf("InitialBackoff 解析错误: %s", loaded.Fetch.InitialBackoff.DurationValue())
	}
	if !loaded.Fetch.CacheImages {
		t.Fatalf("CacheImages 应被打开")
	}
}
