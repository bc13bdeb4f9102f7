// Package renderer turns reports and transaction histories into markdown, and
// markdown into HTML.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	papertrade "github.com/etnz/papertrade"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"unitPrice": unitPrice,
}

// RenderReport renders a valuation report to a markdown string.
func RenderReport(r *papertrade.ValueReport) string {
	partials := map[string]string{
		"report_title":   "report_title.md",
		"report_summary": "report_summary.md",
		"report_assets":  "report_assets.md",
	}
	return renderTemplate("report", "report.md", partials, r)
}

// RenderTransactions renders a transaction history to a markdown string.
func RenderTransactions(txs []papertrade.Transaction) string {
	return renderTemplate("transactions", "transactions.md", nil, txs)
}

// Transaction renders a transaction to a one line sentence.
func Transaction(tx papertrade.Transaction) string {
	switch tx.What() {
	case papertrade.CmdBuy:
		return fmt.Sprintf("Bought %s %s at %s for %s", tx.Quantity, tx.Symbol, unitPrice(tx.Price), tx.Amount())
	case papertrade.CmdSell:
		return fmt.Sprintf("Sold %s %s at %s for %s", tx.Quantity.Abs(), tx.Symbol, unitPrice(tx.Price), tx.Amount())
	default:
		return string(tx.What())
	}
}

// ToHTML converts markdown, tables included, to an HTML fragment.
func ToHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("cannot convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

// unitPrice formats a unit price. Prices below one keep all their digits,
// since many crypto assets trade for fractions of a cent.
func unitPrice(m papertrade.Money) string {
	if m.Decimal().Abs().LessThan(papertrade.M(1).Decimal()) && !m.IsZero() {
		return "$" + m.Decimal().String()
	}
	return m.String()
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
