package trace

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderHTML writes the events of a run as a standalone HTML page
func (t *Tracker) RenderHTML(w io.Writer, run string) error {
	return RenderHTML(w, run, t.Events(run))
}

// RenderHTML writes events as a standalone HTML page with one table row per
// event, indented by depth.
func RenderHTML(w io.Writer, run string, events []Event) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	title := element(atom.Title)
	title.AppendChild(text("Resolution trace " + run))
	head.AppendChild(title)
	root.AppendChild(head)

	body := element(atom.Body)
	h1 := element(atom.H1)
	h1.AppendChild(text(fmt.Sprintf("Resolution trace %s (%d events)", run, len(events))))
	body.AppendChild(h1)

	table := element(atom.Table)
	header := element(atom.Tr)
	for _, col := range []string{"#", "depth", "kind", "detail"} {
		th := element(atom.Th)
		th.AppendChild(text(col))
		header.AppendChild(th)
	}
	table.AppendChild(header)

	for _, e := range events {
		tr := element(atom.Tr, html.Attribute{Key: "class", Val: string(e.Kind)})
		tr.AppendChild(cell(strconv.Itoa(e.Seq + 1)))
		tr.AppendChild(cell(strconv.Itoa(e.Depth)))
		tr.AppendChild(cell(string(e.Kind)))
		detail := cell(e.Detail)
		detail.Attr = append(detail.Attr, html.Attribute{
			Key: "style",
			Val: fmt.Sprintf("padding-left: %dem", e.Depth),
		})
		tr.AppendChild(detail)
		table.AppendChild(tr)
	}
	body.AppendChild(table)
	root.AppendChild(body)

	return html.Render(w, doc)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func cell(s string) *html.Node {
	td := element(atom.Td)
	td.AppendChild(text(s))
	return td
}
