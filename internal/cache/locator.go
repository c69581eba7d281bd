package cache

import (
	"errors"
	"net"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/idna"
)

// rootEntryName 是 URL 路径为空或 "/" 时使用的文件名，避免与主机目录本身重名。
const rootEntryName = "root"

// hostProfile 按浏览器的 UTS #46 非过渡规则把主机名转换为 punycode，允许下划线等非 STD3 字符。
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// ParseLocator 解析远程地址并返回缓存键。查询串、片段、协议与端口都不参与计算，
// 因此 a.js?v=1 与 a.js?v=2 会落到同一个条目。路径使用百分号编码形式，
// 主机名使用 punycode，与浏览器 URL 的 pathname/hostname 一致。
func ParseLocator(rawURL string) (Locator, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Locator{}, &URLError{URL: rawURL, Err: err}
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return Locator{}, &URLError{URL: rawURL, Err: errors.New("absolute url with host required")}
	}

	asciiHost, err := toASCIIHost(u.Hostname())
	if err != nil {
		return Locator{}, &URLError{URL: rawURL, Err: err}
	}
	host := Sanitize(asciiHost)
	if host == "." || host == ".." {
		return Locator{}, &URLError{URL: rawURL, Err: errors.New("invalid host")}
	}

	pathname := u.EscapedPath()
	if !strings.HasPrefix(pathname, "/") {
		pathname = "/" + pathname
	}
	// url.Parse 不会折叠 ".."，先按绝对路径清理，使其无法越过主机目录。
	pathname = path.Clean(pathname)
	safe := Sanitize(pathname)
	if safe == "/" {
		safe = "/" + rootEntryName
	}

	return Locator{Host: host, Path: safe}, nil
}

func toASCIIHost(host string) (string, error) {
	if net.ParseIP(host) != nil {
		return strings.ToLower(host), nil
	}
	ascii, err := hostProfile.ToASCII(host)
	if err != nil {
		return "", err
	}
	return strings.ToLower(ascii), nil
}

// LocalPath 计算 url 在 root 下的确定性缓存路径，不产生任何副作用。
func LocalPath(rawURL, root string) (string, error) {
	_, local, err := locate(filepath.Join, rawURL, root)
	return local, err
}

// locate 同时返回缓存键与本地路径，join 由宿主文件系统提供。
func locate(join func(elem ...string) string, rawURL, root string) (Locator, string, error) {
	loc, err := ParseLocator(rawURL)
	if err != nil {
		return Locator{}, "", err
	}

	hostDir := join(root, loc.Host)
	local := join(hostDir, filepath.FromSlash(strings.TrimPrefix(loc.Path, "/")))
	if !strings.HasPrefix(local, hostDir+string(filepath.Separator)) && !strings.HasPrefix(local, hostDir+"/") {
		return Locator{}, "", &URLError{URL: rawURL, Err: errors.New("path escapes cache root")}
	}
	return loc, local, nil
}
