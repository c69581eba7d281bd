package rewrite

import (
	"context"
	"regexp"

	"golang.org/x/sync/errgroup"

	"github.com/q2316367743/ai-tools/internal/logging"
)

var remoteURLPattern = regexp.MustCompile(`^https?://`)

// IsRemoteURL 判断属性值是否为 http(s) 绝对地址；相对路径、data: 等一律视为本地引用。
func IsRemoteURL(value string) bool {
	return remoteURLPattern.MatchString(value)
}

// Failure 记录一次未能改写的引用，原始远程地址保留在文档中。
type Failure struct {
	Class string `json:"class"`
	URL   string `json:"url"`
	Err   error  `json:"-"`
}

// PassResult 汇总一遍扫描的结果。
type PassResult struct {
	Class     string    `json:"class"`
	Matched   int       `json:"matched"`
	Skipped   int       `json:"skipped"`
	Rewritten int       `json:"rewritten"`
	Failures  []Failure `json:"failures,omitempty"`
}

type reference struct {
	elem  Element
	url   string
	local string
	err   error
}

// runPass 先收集全部远程引用，再并发下载，最后按文档顺序回写属性，保证输出确定。
func (m *Manager) runPass(ctx context.Context, doc *Document, class ReferenceClass) PassResult {
	result := PassResult{Class: class.Key}

	elems := doc.QueryAll(class.Selector)
	result.Matched = len(elems)

	refs := make([]reference, 0, len(elems))
	for _, elem := range elems {
		value, ok := elem.Attr(class.Attr)
		if !ok || !IsRemoteURL(value) {
			result.Skipped++
			continue
		}
		refs = append(refs, reference{elem: elem, url: value})
	}

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i := range refs {
		ref := &refs[i]
		g.Go(func() error {
			ref.local, ref.err = m.cacher.EnsureCached(ctx, ref.url)
			return nil
		})
	}
	_ = g.Wait()

	for _, ref := range refs {
		if ref.err != nil {
			result.Failures = append(result.Failures, Failure{Class: class.Key, URL: ref.url, Err: ref.err})
			m.log.WithFields(logging.ReferenceFields(class.Key, class.Attr, ref.url)).
				WithError(ref.err).
				Warn("reference_kept_remote")
			continue
		}
		ref.elem.SetAttr(class.Attr, ref.local)
		result.Rewritten++
	}
	return result
}
