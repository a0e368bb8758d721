// Package report renders classification results for the terminal.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/example/jainscan/internal/classify"
)

// NoResults is printed when the service returned nothing to show.
const NoResults = "No analysis results returned."

//go:embed templates/*.txt
var templatesFS embed.FS

var resultTemplate = template.Must(template.ParseFS(templatesFS, "templates/result.txt"))

// Text writes a human readable report of res.
func Text(w io.Writer, res *classify.Result) error {
	if res.Empty() {
		_, err := fmt.Fprintln(w, NoResults)
		return err
	}
	var buf bytes.Buffer
	if err := resultTemplate.Execute(&buf, res); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := io.WriteString(w, strings.TrimLeft(buf.String(), "\n"))
	return err
}

// JSON writes res as indented JSON.
func JSON(w io.Writer, res *classify.Result) error {
	if res == nil {
		res = &classify.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// Headline summarises res in one line, for notifications and the clipboard.
func Headline(res *classify.Result) string {
	if res.Empty() {
		return NoResults
	}
	switch {
	case len(res.NonJain) > 0:
		return "Not Jain: " + names(res.NonJain)
	case len(res.Uncertain) > 0:
		return "Uncertain: " + names(res.Uncertain)
	case len(res.Jain) > 0:
		return fmt.Sprintf("Jain friendly (%d ingredients)", len(res.Jain))
	default:
		return res.Note()
	}
}

func names(items []classify.Ingredient) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return strings.Join(out, ", ")
}
