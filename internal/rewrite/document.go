package rewrite

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document 是对 HTML 文档的最小抽象：查询、读写属性、完整序列化。
type Document struct {
	doc *goquery.Document
}

// Element 是文档中的单个元素。
type Element struct {
	sel *goquery.Selection
}

// ParseDocument 解析 HTML 字符串；HTML 解析本身很宽松，失败通常只来自读取错误。
func ParseDocument(src string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return &Document{doc: doc}, nil
}

// QueryAll 按文档顺序返回匹配 selector 的元素快照，后续修改不影响已返回的列表。
func (d *Document) QueryAll(selector string) []Element {
	matched := d.doc.Find(selector)
	elems := make([]Element, 0, matched.Length())
	matched.Each(func(_ int, sel *goquery.Selection) {
		elems = append(elems, Element{sel: sel})
	})
	return elems
}

// Serialize 输出包含 doctype/html/head/body 的完整文档。
func (d *Document) Serialize() (string, error) {
	return d.doc.Html()
}

func (e Element) Tag() string {
	return goquery.NodeName(e.sel)
}

func (e Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e Element) SetAttr(name, value string) {
	e.sel.SetAttr(name, value)
}
