package mumlife

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/CrestNiraj12/mumlife/domain"
)

var (
	spaceRe     = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
	messageRe   = regexp.MustCompile(`(?:^|/)message/(\d+)/`)
)

var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// itemPolicy strips scripts and event handlers from stored item markup.
// Data attributes survive so ids can be read again later.
var itemPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataAttributes()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("rel").OnElements("a")
	return p
}()

// splitItems cuts a rendered HTML fragment into one item per top-level
// element. Loose text between elements becomes its own item.
func splitItems(fragment string) ([]domain.Item, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext)
	if err != nil {
		return nil, err
	}
	items := make([]domain.Item, 0, len(nodes))
	for _, n := range nodes {
		switch n.Type {
		case html.ElementNode:
		case html.TextNode:
			if strings.TrimSpace(n.Data) == "" {
				continue
			}
		default:
			continue
		}
		var buf bytes.Buffer
		if err := html.Render(&buf, n); err != nil {
			return nil, err
		}
		it := domain.Item{HTML: itemPolicy.Sanitize(buf.String()), Text: nodeText(n)}
		annotate(&it, n)
		items = append(items, it)
	}
	return items, nil
}

// itemFromHTML keeps a fragment whole as a single item.
func itemFromHTML(fragment string) (domain.Item, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext)
	if err != nil {
		return domain.Item{}, err
	}
	var b strings.Builder
	it := domain.Item{HTML: itemPolicy.Sanitize(fragment)}
	for _, n := range nodes {
		writeText(&b, n)
		annotate(&it, n)
	}
	it.Text = tidy(b.String())
	return it, nil
}

// annotate fills the item ids from the first matching attributes under n.
// Ids already set are kept.
func annotate(it *domain.Item, n *html.Node) {
	if n.Type == html.ElementNode {
		if it.ThreadID == nil {
			if id, ok := intAttr(n, "data-mid"); ok {
				it.ThreadID = &id
			} else if n.DataAtom == atom.A {
				if m := messageRe.FindStringSubmatch(attr(n, "href")); m != nil {
					if id, err := strconv.Atoi(m[1]); err == nil {
						it.ThreadID = &id
					}
				}
			}
		}
		if it.MemberID == nil {
			if id, ok := intAttr(n, "data-recipient"); ok {
				it.MemberID = &id
			}
		}
		if it.Friend == nil && n.DataAtom == atom.A && hasClass(n, "addtofriend") {
			it.Friend = parseFriendLink(n)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		annotate(it, c)
	}
}

// parseFriendLink reads href="#from,to" and rel="confirm|block".
func parseFriendLink(n *html.Node) *domain.FriendLink {
	ids := strings.Split(strings.TrimPrefix(attr(n, "href"), "#"), ",")
	if len(ids) != 2 {
		return nil
	}
	from, err1 := strconv.Atoi(strings.TrimSpace(ids[0]))
	to, err2 := strconv.Atoi(strings.TrimSpace(ids[1]))
	if err1 != nil || err2 != nil {
		return nil
	}
	return &domain.FriendLink{From: from, To: to, Action: domain.ParseFriendAction(attr(n, "rel"))}
}

func intAttr(n *html.Node, key string) (int, bool) {
	v := strings.TrimSpace(attr(n, key))
	if v == "" {
		return 0, false
	}
	id, err := strconv.Atoi(v)
	return id, err == nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Text renders an HTML fragment as plain terminal text.
func Text(fragment string) string {
	it, err := itemFromHTML(fragment)
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return it.Text
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	writeText(&b, n)
	return tidy(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head:
			return
		case atom.Br:
			b.WriteString("\n")
			return
		case atom.Img:
			if alt := attr(n, "alt"); alt != "" {
				b.WriteString("[" + alt + "]")
			}
			return
		case atom.Input, atom.Textarea, atom.Select, atom.Button:
			return
		}
	}
	block := isBlock(n)
	if block {
		b.WriteString("\n")
	}
	if n.DataAtom == atom.Li {
		b.WriteString("• ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteString("\n")
	}
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.H1, atom.H2, atom.H3,
		atom.H4, atom.H5, atom.H6, atom.Tr, atom.Table, atom.Section, atom.Article,
		atom.Header, atom.Footer, atom.Blockquote, atom.Dl, atom.Dt, atom.Dd:
		return true
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// tidy collapses runs of spaces, trims every line and squeezes blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(l, " "))
	}
	out := strings.Join(lines, "\n")
	out = blankLineRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
