package export

import (
	"html/template"
	"io"
	"strings"
	"time"

	"internscan-engine/internal/domain"
)

// Page is the static viewer: every column, a substring search box and a
// per-column sort toggle. It needs no server.
type Page struct {
	Title     string
	Generated time.Time
	RunID     string
	Columns   []string
	Positions []domain.Position
}

type pageCell struct {
	Text string
	Link string
}

type pageData struct {
	Title     string
	Generated string
	RunID     string
	Count     int
	Columns   []string
	Rows      [][]pageCell
}

func (p Page) Render(w io.Writer) error {
	cols := p.Columns
	if cols == nil {
		cols = Columns(p.Positions)
	}
	d := pageData{
		Title:     p.Title,
		Generated: p.Generated.Format("2006-01-02 15:04 MST"),
		RunID:     p.RunID,
		Count:     len(p.Positions),
		Columns:   cols,
	}
	if d.Title == "" {
		d.Title = "Internships"
	}
	for _, pos := range p.Positions {
		row := make([]pageCell, len(cols))
		for i, c := range cols {
			v := pos.Field(c)
			row[i].Text = v
			if c == domain.FieldApplication && (strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://")) {
				row[i].Link = v
			}
		}
		d.Rows = append(d.Rows, row)
	}
	return pageTmpl.Execute(w, d)
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 1.5rem; }
#search { width: 100%; max-width: 32rem; padding: .4rem; margin-bottom: 1rem; }
table { border-collapse: collapse; width: 100%; font-size: .9rem; }
th, td { border: 1px solid #ddd; padding: .35rem .5rem; text-align: left; vertical-align: top; }
th { background: #f4f4f4; cursor: pointer; user-select: none; position: sticky; top: 0; }
th.asc::after { content: " \25B2"; }
th.desc::after { content: " \25BC"; }
tr:nth-child(even) td { background: #fafafa; }
.meta { color: #666; font-size: .85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">{{.Count}} positions &middot; generated {{.Generated}}{{if .RunID}} &middot; run {{.RunID}}{{end}}</p>
<input id="search" type="search" placeholder="Filter rows..." autocomplete="off">
<table id="positions">
<thead><tr>{{range $i, $c := .Columns}}<th data-col="{{$i}}">{{$c}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{if .Link}}<a href="{{.Link}}" target="_blank" rel="noopener">Apply</a>{{else}}{{.Text}}{{end}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
<script>
(function () {
  var table = document.getElementById("positions");
  var body = table.tBodies[0];
  var search = document.getElementById("search");

  search.addEventListener("input", function () {
    var q = search.value.toLowerCase();
    Array.prototype.forEach.call(body.rows, function (tr) {
      tr.style.display = tr.textContent.toLowerCase().indexOf(q) === -1 ? "none" : "";
    });
  });

  var dir = {};
  Array.prototype.forEach.call(table.tHead.rows[0].cells, function (th) {
    th.addEventListener("click", function () {
      var col = Number(th.dataset.col);
      var asc = dir[col] !== "asc";
      dir = {};
      dir[col] = asc ? "asc" : "desc";
      Array.prototype.forEach.call(table.tHead.rows[0].cells, function (h) {
        h.classList.remove("asc", "desc");
      });
      th.classList.add(dir[col]);

      var rows = Array.prototype.slice.call(body.rows).map(function (tr, i) {
        return { tr: tr, i: i, key: tr.cells[col].textContent.toLowerCase() };
      });
      rows.sort(function (a, b) {
        if (a.key === b.key) return a.i - b.i;
        var c = a.key < b.key ? -1 : 1;
        return asc ? c : -c;
      });
      rows.forEach(function (r) { body.appendChild(r.tr); });
    });
  });
})();
</script>
</body>
</html>
`))
