package rewrite

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/q2316367743/ai-tools/internal/logging"
)

// Cacher 把远程地址物化到本地并返回本地路径，cache.Downloader 是默认实现。
type Cacher interface {
	EnsureCached(ctx context.Context, rawURL string) (string, error)
}

// Options 控制 Manager 的行为。
type Options struct {
	// CacheImages 打开可选的图片遍。
	CacheImages bool
	// Concurrency 是单遍内的最大并发下载数，<=0 时按 1 处理（严格按文档顺序）。
	Concurrency int
	Logger      *logrus.Logger
}

// Manager 是离线改写的入口：解析、逐遍改写、序列化。
type Manager struct {
	cacher      Cacher
	classes     []ReferenceClass
	concurrency int
	log         *logrus.Entry
}

// Report 汇总一次 Handle 中所有遍的结果。
type Report struct {
	Passes []PassResult `json:"passes"`
}

// Rewritten 返回成功改写的引用总数。
func (r Report) Rewritten() int {
	total := 0
	for _, pass := range r.Passes {
		total += pass.Rewritten
	}
	return total
}

// Failures 返回保留远程地址的引用总数。
func (r Report) Failures() int {
	total := 0
	for _, pass := range r.Passes {
		total += len(pass.Failures)
	}
	return total
}

// NewManager 构建改写器；启用的引用类别在构造时确定。
func NewManager(cacher Cacher, opts Options) (*Manager, error) {
	if cacher == nil {
		return nil, errors.New("cacher is required")
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var classes []ReferenceClass
	for _, class := range List() {
		if class.Optional && !(class.Key == ClassImage && opts.CacheImages) {
			continue
		}
		classes = append(classes, class)
	}

	return &Manager{
		cacher:      cacher,
		classes:     classes,
		concurrency: concurrency,
		log:         logging.Component(opts.Logger, "rewrite"),
	}, nil
}

// Classes 返回按执行顺序排列的已启用引用类别。
func (m *Manager) Classes() []ReferenceClass {
	return append([]ReferenceClass(nil), m.classes...)
}

// Enabled 报告指定引用类别是否参与改写。
func (m *Manager) Enabled(key string) bool {
	normalized := normalizeKey(key)
	for _, class := range m.classes {
		if class.Key == normalized {
			return true
		}
	}
	return false
}

// Handle 返回改写后的完整 HTML。只有输入无法解析时才返回 ErrParse。
func (m *Manager) Handle(ctx context.Context, html string) (string, error) {
	out, _, err := m.HandleWithReport(ctx, html)
	return out, err
}

// HandleWithReport 与 Handle 相同，额外返回每一遍的统计。
func (m *Manager) HandleWithReport(ctx context.Context, html string) (string, Report, error) {
	started := time.Now()

	doc, err := ParseDocument(html)
	if err != nil {
		return "", Report{}, err
	}

	// 各遍严格串行：样式表全部处理完再处理脚本。
	report := Report{Passes: make([]PassResult, 0, len(m.classes))}
	for _, class := range m.classes {
		report.Passes = append(report.Passes, m.runPass(ctx, doc, class))
	}

	out, err := doc.Serialize()
	if err != nil {
		return "", report, &ParseError{Err: err}
	}

	m.log.WithFields(logrus.Fields{
		"action":     "handle",
		"rewritten":  report.Rewritten(),
		"failures":   report.Failures(),
		"elapsed_ms": time.Since(started).Milliseconds(),
	}).Info("handle_complete")

	return out, report, nil
}
