package render

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/devjibs/cvagent/internal/types"
)

//go:embed templates/*.html
var templateFiles embed.FS

// TemplateData is the data passed to the document template.
type TemplateData struct {
	Title    string
	Kind     types.DocumentKind
	Sections []template.HTML
}

// HTML renders a draft document body into a styled HTML page. The draft body
// is markdown-flavored plain text: headings, bullets, and blank-line
// separated paragraphs.
func HTML(draft *types.DraftDocument, title string) (string, error) {
	if draft == nil {
		return "", &RenderError{Message: "draft document is nil"}
	}
	if !draft.Kind.Valid() {
		return "", &RenderError{Message: fmt.Sprintf("unknown document kind %q", draft.Kind)}
	}

	tmpl, err := template.ParseFS(templateFiles, "templates/document.html")
	if err != nil {
		return "", &TemplateError{Message: "failed to parse document template", Cause: err}
	}

	data := &TemplateData{
		Title:    title,
		Kind:     draft.Kind,
		Sections: bodyToHTML(draft.Body),
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", &TemplateError{Message: "failed to execute document template", Cause: err}
	}
	return out.String(), nil
}

// bodyToHTML converts markdown-flavored draft text to HTML blocks. Text is
// escaped before any tags are added.
func bodyToHTML(body string) []template.HTML {
	var blocks []template.HTML
	var paragraph []string
	var bullets []string

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		text := template.HTMLEscapeString(strings.Join(paragraph, " "))
		blocks = append(blocks, template.HTML("<p>"+text+"</p>"))
		paragraph = nil
	}
	flushBullets := func() {
		if len(bullets) == 0 {
			return
		}
		var b strings.Builder
		b.WriteString("<ul>")
		for _, item := range bullets {
			b.WriteString("<li>" + template.HTMLEscapeString(item) + "</li>")
		}
		b.WriteString("</ul>")
		blocks = append(blocks, template.HTML(b.String()))
		bullets = nil
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flushParagraph()
			flushBullets()
		case strings.HasPrefix(trimmed, "## "):
			flushParagraph()
			flushBullets()
			text := template.HTMLEscapeString(strings.TrimPrefix(trimmed, "## "))
			blocks = append(blocks, template.HTML("<h2>"+text+"</h2>"))
		case strings.HasPrefix(trimmed, "# "):
			flushParagraph()
			flushBullets()
			text := template.HTMLEscapeString(strings.TrimPrefix(trimmed, "# "))
			blocks = append(blocks, template.HTML("<h1>"+text+"</h1>"))
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushParagraph()
			bullets = append(bullets, trimmed[2:])
		default:
			flushBullets()
			paragraph = append(paragraph, trimmed)
		}
	}
	flushParagraph()
	flushBullets()

	return blocks
}
