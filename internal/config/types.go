package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultAppID 是桌面宿主分配给插件的应用目录名，缓存根目录默认位于 <appData>/<AppID>/cache。
const DefaultAppID = "xyz.esion.ai-tool"

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述进程级运行参数，缓存根目录在进程生命周期内固定不变。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
	AppID         string `mapstructure:"AppID"`
	CacheRoot     string `mapstructure:"CacheRoot"`
}

// FetchConfig 控制远程资源的下载行为。
type FetchConfig struct {
	// CacheImages 打开 img[src] 的缓存；默认关闭，远程图片直接在线加载。
	CacheImages            bool     `mapstructure:"CacheImages"`
	MaxConcurrentDownloads int      `mapstructure:"MaxConcurrentDownloads"`
	MaxRetries             int      `mapstructure:"MaxRetries"`
	InitialBackoff         Duration `mapstructure:"InitialBackoff"`
	DownloadTimeout        Duration `mapstructure:"DownloadTimeout"`
	UserAgent              string   `mapstructure:"UserAgent"`
	// RejectHTTPErrors 为 true 时非 2xx 响应视为下载失败；默认沿用原样落盘的行为。
	RejectHTTPErrors bool `mapstructure:"RejectHTTPErrors"`
}

// Config 是 TOML 文件映射的整体结构，所有键都位于顶层。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Fetch  FetchConfig  `mapstructure:",squash"`
}

// DefaultCacheRoot 返回 <UserConfigDir>/<appID>/cache；无法定位用户目录时退回当前目录。
func DefaultCacheRoot(appID string) string {
	if strings.TrimSpace(appID) == "" {
		appID = DefaultAppID
	}
	base, err := userConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	return filepath.Join(base, appID, "cache")
}

// userConfigDir 对应桌面宿主的 appData 目录，测试中可替换。
var userConfigDir = os.UserConfigDir
