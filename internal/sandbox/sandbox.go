// Package sandbox builds the host page that embeds a rewritten tool document in an isolated
// iframe, plus the placeholder page shown while remote resources are being cached.
// Tests here use testify assertions, like the rewrite package; the infrastructure
// packages (cache, config, logging, server) keep plain testing with t.Fatalf.
package sandbox

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultPermissions 是预览 iframe 的 sandbox 令牌，刻意不包含任何 top-navigation 权限。
var DefaultPermissions = []string{"allow-scripts", "allow-same-origin", "allow-forms"}

// DefaultPlaceholder 是缓存进行中显示的文字。
const DefaultPlaceholder = "正在缓存远程资源"

// ErrForbiddenPermission 表示调用方请求了允许跳出预览面的 sandbox 令牌。
var ErrForbiddenPermission = errors.New("forbidden sandbox permission")

const baseStyle = "html,body{margin:0;padding:0;height:100%;overflow:hidden}" +
	"iframe{border:0;width:100%;height:100%;display:block}"

const placeholderStyle = "html,body{margin:0;height:100%}" +
	"body{display:flex;align-items:center;justify-content:center;" +
	"font-family:system-ui,sans-serif;color:#666}"

// Options 控制外层页面。
type Options struct {
	Title string
	// Permissions 为空时使用 DefaultPermissions。
	Permissions []string
}

// Wrap 把改写后的文档放入 srcdoc，返回完整的宿主页面。
func Wrap(doc string, opts Options) (string, error) {
	perms := opts.Permissions
	if len(perms) == 0 {
		perms = DefaultPermissions
	}
	for _, perm := range perms {
		token := strings.ToLower(strings.TrimSpace(perm))
		if strings.HasPrefix(token, "allow-top-navigation") || token == "allow-popups-to-escape-sandbox" {
			return "", fmt.Errorf("%w: %s", ErrForbiddenPermission, perm)
		}
	}

	frame := element(atom.Iframe,
		html.Attribute{Key: "sandbox", Val: strings.Join(perms, " ")},
		html.Attribute{Key: "srcdoc", Val: doc},
	)
	return render(opts.Title, baseStyle, frame)
}

// Placeholder 渲染加载中页面；text 为空时使用 DefaultPlaceholder。
func Placeholder(text string) string {
	if strings.TrimSpace(text) == "" {
		text = DefaultPlaceholder
	}
	p := element(atom.P)
	p.AppendChild(&html.Node{Type: html.TextNode, Data: text})

	out, err := render(text, placeholderStyle, p)
	if err != nil {
		// 只在写入内存缓冲失败时出现。
		return ""
	}
	return out
}

func render(title, style string, content *html.Node) (string, error) {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, html.Attribute{Key: "lang", Val: "zh-CN"})
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	if title != "" {
		t := element(atom.Title)
		t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
		head.AppendChild(t)
	}
	s := element(atom.Style)
	s.AppendChild(&html.Node{Type: html.TextNode, Data: style})
	head.AppendChild(s)

	body := element(atom.Body)
	body.AppendChild(content)
	root.AppendChild(head)
	root.AppendChild(body)
	doc.AppendChild(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}
