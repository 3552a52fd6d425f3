package conv

import (
	"io"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock | parser.MathJax
	htmlFlags  = html.CommonFlags | html.HrefTargetBlank
	tgPolicy   = bluemonday.NewPolicy()
)

func init() {
	// Allowed tags https://core.telegram.org/bots/api#html-style
	tgPolicy.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "code", "pre", "blockquote")
	tgPolicy.AllowAttrs("href").OnElements("a")
	tgPolicy.AllowAttrs("class").OnElements("code")
}

// MarkdownToTelegramHTML renders a tutor reply into the HTML subset Telegram
// accepts. Telegram cannot typeset LaTeX, so formulas are kept verbatim in
// code spans where they at least stay readable.
func MarkdownToTelegramHTML(md []byte) string {
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags:          htmlFlags,
		RenderNodeHook: renderMath,
	})
	unsafeHTML := markdown.Render(p.Parse(md), renderer)

	return string(tgPolicy.SanitizeBytes(unsafeHTML))
}

func renderMath(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	switch n := node.(type) {
	case *ast.Math:
		_, _ = io.WriteString(w, "<code>")
		html.EscapeHTML(w, n.Literal)
		_, _ = io.WriteString(w, "</code>")
		return ast.GoToNext, true
	case *ast.MathBlock:
		if entering {
			_, _ = io.WriteString(w, "<pre><code>")
			html.EscapeHTML(w, n.Literal)
		} else {
			_, _ = io.WriteString(w, "</code></pre>\n")
		}
		return ast.GoToNext, true
	}
	return ast.GoToNext, false
}
