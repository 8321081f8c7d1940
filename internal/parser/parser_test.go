package parser

import (
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestForFile(t *testing.T) {
	cases := map[string]bool{
		"a.txt":      true,
		"b.MD":       true,
		"c.markdown": true,
		"d.csv":      true,
		"e.htm":      true,
		"f.pdf":      true,
		"g.docx":     true,
		"h.xlsx":     false,
		"noext":      false,
	}
	for name, ok := range cases {
		_, err := ForFile(name, Options{})
		if ok && err != nil {
			t.Errorf("ForFile(%q): unexpected error %v", name, err)
		}
		if !ok && err == nil {
			t.Errorf("ForFile(%q): expected error", name)
		}
		if IsSupportedExtension(name) != ok {
			t.Errorf("IsSupportedExtension(%q) = %v", name, !ok)
		}
	}
}

func TestForFile_PDFFallback(t *testing.T) {
	p, err := ForFile("scan.pdf", Options{PDFFallback: true})
	if err != nil {
		t.Fatal(err)
	}
	pdf, ok := p.(*PDFParser)
	if !ok {
		t.Fatalf("expected *PDFParser, got %T", p)
	}
	if !pdf.FallbackPdftotext {
		t.Error("expected pdftotext fallback to be enabled")
	}
}

func TestCSVParser_TextColumn(t *testing.T) {
	input := "id,Text,source\n1,Ann met Bob.,web\n2,,web\n3,\"Kyiv, Ukraine\",news\n"
	tree, err := (&CSVParser{}).Parse(strings.NewReader(input), "rows.csv")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Title != "rows" {
		t.Errorf("expected title %q, got %q", "rows", tree.Title)
	}
	want := []string{"Ann met Bob.", "Kyiv, Ukraine"}
	if len(tree.Children) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(tree.Children))
	}
	for i, w := range want {
		if tree.Children[i].Text != w {
			t.Errorf("child[%d]: expected %q, got %q", i, w, tree.Children[i].Text)
		}
		if tree.Children[i].Title != "" {
			t.Errorf("child[%d]: expected no title, got %q", i, tree.Children[i].Title)
		}
	}
}

func TestCSVParser_JoinsCellsWithoutTextColumn(t *testing.T) {
	input := "a,b\nNew,York\nshort\n"
	tree, err := (&CSVParser{}).Parse(strings.NewReader(input), "pairs.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != "New York" {
		t.Errorf("expected %q, got %q", "New York", tree.Children[0].Text)
	}
	if tree.Children[1].Text != "short" {
		t.Errorf("expected %q, got %q", "short", tree.Children[1].Text)
	}
}

func TestHTMLParser_SkipsChrome(t *testing.T) {
	input := `<html><head><title>News</title><style>p{}</style></head><body>
<nav><p>Home</p></nav>
<h1>Kyiv</h1>
<p>Ann met <b>Bob</b>.</p>
<script>var x = 1;</script>
<footer><p>Contact</p></footer>
</body></html>`
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Title != "News" {
		t.Errorf("expected title %q, got %q", "News", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(tree.Children))
	}
	h := tree.Children[0]
	if h.Title != "Kyiv" || h.Text != "Ann met Bob." {
		t.Errorf("unexpected node %q / %q", h.Title, h.Text)
	}
}

func TestHTMLParser_LeadTextAndWhitespace(t *testing.T) {
	input := `<body><p>Intro   line
	wrapped<br>here.</p><aside><p>ad</p></aside><h2>Part</h2><dl><dt>Term</dt><dd>Meaning.</dd></dl></body>`
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "dir/plain.htm")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Title != "plain" {
		t.Errorf("expected title %q, got %q", "plain", tree.Title)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}
	if got := tree.Children[0].Text; got != "Intro line wrapped here." {
		t.Errorf("lead text = %q", got)
	}
	part := tree.Children[1]
	if part.Title != "Part" || part.Text != "Term\n\nMeaning." {
		t.Errorf("unexpected section %q / %q", part.Title, part.Text)
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	cases := map[string]int{
		"Heading1":  1,
		"heading 2": 2,
		"Heading9":  9,
		"Title":     1,
		"Normal":    0,
		"Heading":   0,
		"Heading10": 0,
	}
	for style, want := range cases {
		para := &docx.Paragraph{Properties: &docx.ParagraphProperties{Style: &docx.Style{Val: style}}}
		if got := docxHeadingLevel(para); got != want {
			t.Errorf("%q: got %d, want %d", style, got, want)
		}
	}
	if got := docxHeadingLevel(&docx.Paragraph{}); got != 0 {
		t.Errorf("no properties: got %d", got)
	}
}

func TestPageParagraphs(t *testing.T) {
	page := "  The inter-\nnational   office\nopened.\n\n\nSecond para-\ngraph here.\n"
	got := pageParagraphs(page)
	want := []string{"The international office\nopened.", "Second paragraph here."}
	if len(got) != len(want) {
		t.Fatalf("got %d paragraphs %q, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paragraph %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if got := pageParagraphs("well-\nknown 3-\n4"); got[0] != "wellknown 3-\n4" {
		t.Errorf("digit hyphen: got %q", got[0])
	}
}
