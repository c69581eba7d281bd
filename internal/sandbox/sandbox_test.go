package sandbox

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestWrapEmbedsDocumentInSrcdoc(t *testing.T) {
	inner := `<!DOCTYPE html><html><head><link rel="stylesheet" href="/cache/cdn.example.com/a.css"></head>` +
		`<body><p class="x">"quoted" & <b>bold</b></p></body></html>`

	page, err := Wrap(inner, Options{Title: "翻译助手"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))

	doc := parse(t, page)
	frame := doc.Find("iframe")
	require.Equal(t, 1, frame.Length())

	srcdoc, ok := frame.Attr("srcdoc")
	require.True(t, ok)
	assert.Equal(t, inner, srcdoc)

	sandbox, _ := frame.Attr("sandbox")
	assert.Equal(t, "allow-scripts allow-same-origin allow-forms", sandbox)
	assert.Equal(t, "翻译助手", doc.Find("title").Text())
}

func TestWrapRejectsTopNavigation(t *testing.T) {
	_, err := Wrap("<p>x</p>", Options{Permissions: []string{"allow-scripts", "allow-top-navigation"}})
	assert.ErrorIs(t, err, ErrForbiddenPermission)

	_, err = Wrap("<p>x</p>", Options{Permissions: []string{"Allow-Top-Navigation-By-User-Activation"}})
	assert.ErrorIs(t, err, ErrForbiddenPermission)

	page, err := Wrap("<p>x</p>", Options{Permissions: []string{"allow-scripts"}})
	require.NoError(t, err)
	sandbox, _ := parse(t, page).Find("iframe").Attr("sandbox")
	assert.Equal(t, "allow-scripts", sandbox)
}

func TestPlaceholder(t *testing.T) {
	doc := parse(t, Placeholder(""))
	assert.Equal(t, DefaultPlaceholder, doc.Find("body p").Text())

	doc = parse(t, Placeholder("<loading>"))
	assert.Equal(t, "<loading>", doc.Find("body p").Text())
	assert.Equal(t, 0, doc.Find("loading").Length())
}
