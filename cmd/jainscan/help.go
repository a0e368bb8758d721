package main

import (
	"embed"
	"flag"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var helpFS embed.FS

// helpTemplates holds one template per command, named after the command's
// last program word, with root.txt for the bare program.
var helpTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"flags": flagList,
}).ParseFS(helpFS, "templates/*.txt"))

type flagInfo struct {
	Name     string
	DefValue string
	Usage    string
}

func flagList(fs *flag.FlagSet) []flagInfo {
	var result []flagInfo
	if fs == nil {
		return result
	}
	fs.VisitAll(func(f *flag.Flag) {
		result = append(result, flagInfo{f.Name, f.DefValue, f.Usage})
	})
	return result
}

// HelpData is what a help template renders.
type HelpData interface {
	Program() string
	FlagSet() *flag.FlagSet
}

func helpTemplateName(h HelpData) string {
	words := strings.Fields(h.Program())
	if len(words) < 2 {
		return "root.txt"
	}
	return words[len(words)-1] + ".txt"
}

// UsageError carries the help of the command that was misused. Its message
// is the rendered help.
type UsageError struct {
	of HelpData
}

func (e *UsageError) Error() string {
	var sb strings.Builder
	if err := helpTemplates.ExecuteTemplate(&sb, helpTemplateName(e.of), e.of); err != nil {
		return fmt.Sprintf("render help for %s: %v", e.of.Program(), err)
	}
	return sb.String()
}

// usageFunc returns a flag.FlagSet Usage function that prints the command's
// help.
func usageFunc(h HelpData) func() {
	return func() {
		out := flag.CommandLine.Output()
		if fs := h.FlagSet(); fs != nil {
			out = fs.Output()
		}
		fmt.Fprintln(out, (&UsageError{of: h}).Error())
	}
}
