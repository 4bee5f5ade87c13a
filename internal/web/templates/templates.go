// Package templates renders the HTML pages of the import server as templ
// components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/textimport/internal/core"
)

const styles = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;margin:1rem 0}td,th{border:1px solid #d1d5db;padding:.25rem .5rem;text-align:left}
th{background:#f3f4f6}.blank td{color:#9ca3af;font-style:italic}.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;margin:1rem 0}
.summary span{margin-right:1.5rem}label{display:block;margin:.5rem 0}`

func esc(s string) string { return templ.EscapeString(s) }

// Page wraps body in the shared HTML document.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><style>%s</style></head><body>`,
			esc(title), styles); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// ImportForm renders the upload form posting to the preview page.
func ImportForm(layouts []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Text import</h1><form method="post" action="/preview" enctype="multipart/form-data">`)
		b.WriteString(`<label>Layout <select name="layout"><option value="">(none, raw columns)</option>`)
		for _, name := range layouts {
			fmt.Fprintf(&b, `<option value="%s">%s</option>`, esc(name), esc(name))
		}
		b.WriteString(`</select></label>`)
		b.WriteString(`<label>Delimiter <input name="delimiter" size="6" placeholder=","></label>`)
		b.WriteString(`<label><input type="checkbox" name="has_header" value="true"> First line is a header</label>`)
		b.WriteString(`<label>Blank rows <select name="blank_rows"><option value="">(default)</option>`)
		for _, p := range []core.BlankRowPolicy{
			core.BlankRowAllow, core.BlankRowDrop, core.BlankRowDropLeading, core.BlankRowDropTrailing,
			core.BlankRowDropLeadingAndTrailing, core.BlankRowStopImporting, core.BlankRowError,
		} {
			fmt.Fprintf(&b, `<option value="%s">%s</option>`, p, p)
		}
		b.WriteString(`</select></label>`)
		b.WriteString(`<label>Encoding <input name="encoding" size="12" placeholder="utf-8"></label>`)
		b.WriteString(`<label>File <input type="file" name="file" required></label>`)
		b.WriteString(`<button type="submit">Preview</button></form>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Preview renders a preview of an import.
func Preview(layoutName string, p *core.PreviewResponse) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		title := "Preview"
		if layoutName != "" {
			title += ": " + layoutName
		}
		fmt.Fprintf(&b, `<h1>%s</h1>`, esc(title))
		fmt.Fprintf(&b, `<p class="summary"><span>Rows: %d</span><span>Blank: %d</span><span>Skipped: %d</span><span>Errors: %d</span><span>%d ms</span></p>`,
			p.Summary.TotalRows, p.Summary.BlankRows, p.Summary.SkippedRows, p.Summary.ErrorCells, p.ProcessingTimeMs)

		b.WriteString(`<table><thead><tr><th>Line</th>`)
		for _, c := range p.Columns {
			fmt.Fprintf(&b, `<th>%s</th>`, esc(c))
		}
		b.WriteString(`</tr></thead><tbody>`)
		for _, row := range p.Rows {
			if row.Blank {
				fmt.Fprintf(&b, `<tr class="blank"><td>%d</td><td colspan="%d">blank</td></tr>`, row.LineNumber, max(len(p.Columns), 1))
				continue
			}
			fmt.Fprintf(&b, `<tr><td>%d</td>`, row.LineNumber)
			for _, v := range row.Values {
				fmt.Fprintf(&b, `<td>%s</td>`, esc(v))
			}
			b.WriteString(`</tr>`)
		}
		b.WriteString(`</tbody></table>`)

		if len(p.Errors) > 0 {
			b.WriteString(`<h2>Conversion errors</h2><table><thead><tr><th>Line</th><th>Column</th><th>Value</th><th>Problem</th></tr></thead><tbody>`)
			for _, e := range p.Errors {
				fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					e.LineNumber, esc(e.ColumnName), esc(e.Raw), esc(e.Message))
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`<p><a href="/">Import another file</a></p>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlert renders a user-facing error box.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert" role="alert"><strong>%s</strong><p>%s</p><small>Code: %s</small></div>`,
			esc(message), esc(action), esc(code))
		return err
	})
}
