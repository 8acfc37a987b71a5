// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbstat

import (
	"html/template"
	"io"
)

var htmlTemplate = template.Must(template.New("").Parse(`
{{- range . -}}
<table class='sbstat'>
<caption>{{.Title}}</caption>
<tbody>
<tr><th>metric \ threads{{range .Threads}}<th>{{.}}{{end}}
{{range $row := .Rows -}}
<tr><td>{{.Label}}{{range .Cells}}<td>{{$row.Format .}}{{end}}
{{end -}}
</tbody>
</table>
{{end -}}
`))

// FormatHTML writes an HTML formatting of tables to w.
func FormatHTML(w io.Writer, tables []*Table) error {
	return htmlTemplate.Execute(w, tables)
}

// HTMLHeader and HTMLFooter wrap the output of FormatHTML into a
// standalone page.
var HTMLHeader = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>sysbench fileio results</title>
<style>
.sbstat { border-collapse: collapse; margin-bottom: 1em; }
.sbstat caption { text-align: left; font-weight: bold; }
.sbstat th:nth-child(1) { text-align: left; }
.sbstat td:nth-child(1n+2) { text-align: right; padding: 0em 1em; }
.sbstat tr:first-child th { border-top: 1px solid #666; border-bottom: 1px solid #ccc; }
</style>
</head>
<body>
`

var HTMLFooter = `</body>
</html>
`
