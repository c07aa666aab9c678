// generate_index renders README.md into the index.html of a release directory
// and replaces its Installation section with links to the archives found there.
package main

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// archivePattern matches goreleaser archives such as smartsearch_1.2.0_Linux_x86_64.tar.gz.
var archivePattern = regexp.MustCompile(`^smartsearch_(.+)_(Darwin|Linux|Windows)_(arm64|x86_64)\.(?:tar\.gz|zip)$`)

var platformNames = map[string]string{
	"Darwin":  "macOS",
	"Linux":   "Linux",
	"Windows": "Windows",
}

type download struct {
	Platform string
	Archive  string
}

var page = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>smartsearch</title>
  <style>
    body { font-family: system-ui, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; line-height: 1.6; }
    pre { background: #f5f5f5; padding: 12px; overflow-x: auto; }
    table { border-collapse: collapse; }
    td, th { border: 1px solid #ddd; padding: 4px 10px; }
  </style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

var downloadsTable = template.Must(template.New("downloads").Parse(`<h2 id="downloads">Downloads{{if .Version}} ({{.Version}}){{end}}</h2>
<table>
{{- range .Downloads}}
  <tr><td>{{.Platform}}</td><td><a href="{{.Archive}}">{{.Archive}}</a></td></tr>
{{- end}}
</table>
`))

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dist-dir>\n", os.Args[0])
		os.Exit(1)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(distDir string) error {
	readme, err := os.ReadFile("README.md")
	if err != nil {
		return err
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	body := string(markdown.Render(p.Parse(readme), renderer))

	version, downloads, err := scanDist(distDir)
	if err != nil {
		return err
	}
	var table bytes.Buffer
	if err := downloadsTable.Execute(&table, struct {
		Version   string
		Downloads []download
	}{version, downloads}); err != nil {
		return err
	}
	body = replaceSection(body, "installation", table.String())

	f, err := os.Create(filepath.Join(distDir, "index.html"))
	if err != nil {
		return err
	}
	defer f.Close()
	//nolint:gosec // body is rendered from the repository README
	if err := page.Execute(f, struct{ Body template.HTML }{template.HTML(body)}); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Generated %s\n", f.Name())
	return nil
}

func scanDist(distDir string) (string, []download, error) {
	entries, err := os.ReadDir(distDir)
	if err != nil {
		return "", nil, err
	}
	version := ""
	var downloads []download
	for _, e := range entries {
		m := archivePattern.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		version = m[1]
		downloads = append(downloads, download{
			Platform: platformNames[m[2]] + " (" + m[3] + ")",
			Archive:  e.Name(),
		})
	}
	sort.Slice(downloads, func(i, j int) bool { return downloads[i].Platform < downloads[j].Platform })
	return version, downloads, nil
}

// replaceSection swaps the HTML between the <h2> with the given id and the
// next <h2> for replacement. The body is returned unchanged when the heading
// is missing.
func replaceSection(body, id, replacement string) string {
	start := strings.Index(body, `<h2 id="`+id+`">`)
	if start < 0 {
		return body
	}
	end := strings.Index(body[start+1:], "<h2")
	if end < 0 {
		return body[:start] + replacement
	}
	return body[:start] + replacement + body[start+1+end:]
}
