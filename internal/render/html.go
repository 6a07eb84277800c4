// Package render builds the webview bootstrap document.
//
// Render is a pure function of its inputs: asset locations, a base href for
// resolving relative links inside document content, and a user-supplied
// custom style block. The custom CSS is inserted verbatim; any sanitization
// policy belongs to the caller.
package render

import (
	"fmt"
	"html/template"
	"strings"
)

// Page describes one bootstrap document.
type Page struct {
	Title     string
	Styles    []string // stylesheet URLs, injected in order
	Scripts   []string // script URLs, injected in order
	BaseHref  string   // base for relative asset links in document content
	CustomCSS string   // user style block, inserted verbatim
	WSPath    string   // websocket endpoint the shell connects back to
	DarkBody  bool     // paint the page background with the host dark theme
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
{{- if .BaseHref}}
<base href="{{.BaseHref}}">
{{- end}}
<title>{{.Title}}</title>
{{- range .Styles}}
<link rel="stylesheet" href="{{.}}">
{{- end}}
{{- if .DarkBody}}
<style>body { background-color: #1e1e1e; color: #d4d4d4; }</style>
{{- end}}
{{- if .CustomCSS}}
<style id="custom-style">{{.CustomCSS}}</style>
{{- end}}
</head>
<body data-ws="{{.WSPath}}">
<div id="vditor"></div>
{{- range .Scripts}}
<script src="{{.}}"></script>
{{- end}}
</body>
</html>
`))

// Render produces the bootstrap markup for a page.
func Render(p Page) (string, error) {
	data := struct {
		Title     string
		Styles    []template.URL
		Scripts   []template.URL
		BaseHref  template.URL
		CustomCSS template.CSS
		WSPath    string
		DarkBody  bool
	}{
		Title:     p.Title,
		BaseHref:  template.URL(p.BaseHref),
		CustomCSS: template.CSS(p.CustomCSS),
		WSPath:    p.WSPath,
		DarkBody:  p.DarkBody,
	}
	for _, s := range p.Styles {
		data.Styles = append(data.Styles, template.URL(s))
	}
	for _, s := range p.Scripts {
		data.Scripts = append(data.Scripts, template.URL(s))
	}

	var out strings.Builder
	if err := pageTemplate.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render bootstrap page: %w", err)
	}
	return out.String(), nil
}
