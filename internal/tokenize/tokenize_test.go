package tokenize

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/dragonfly/internal/doctree"
)

func TestWords_DetachesPunctuation(t *testing.T) {
	tests := []struct {
		in   string
		want Sentence
	}{
		{"Hello, world!", Sentence{"Hello", ",", "world", "!"}},
		{`"Quoted" (text).`, Sentence{`"`, "Quoted", `"`, "(", "text", ")", "."}},
		{"U.S. e-mail", Sentence{"U.S", ".", "e-mail"}},
		{"«Київ»", Sentence{"«", "Київ", "»"}},
		{"...", Sentence{".", ".", "."}},
		{"   ", nil},
	}
	for _, tt := range tests {
		got := Words(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Words(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestText_SplitsSentencesAndParagraphs(t *testing.T) {
	text := "Paris is big. Is it? Yes!\n\nNew paragraph \"quoted.\" End"
	got := Text(text)
	want := []Sentence{
		{"Paris", "is", "big", "."},
		{"Is", "it", "?"},
		{"Yes", "!"},
		{"New", "paragraph", `"`, "quoted", ".", `"`},
		{"End"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Text() = %q\nwant %q", got, want)
	}
}

func TestTree_WalksHeadingsInOrder(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Doc",
		Children: []*doctree.DocNode{
			{
				Title: "Intro",
				Text:  "First line.",
				Children: []*doctree.DocNode{
					{Title: "Details", Text: "Second line."},
				},
			},
		},
	}
	got := Tree(tree)
	want := []Sentence{{"Intro"}, {"First", "line", "."}, {"Details"}, {"Second", "line", "."}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tree() = %q, want %q", got, want)
	}
}

func TestWriteTSV(t *testing.T) {
	var b strings.Builder
	n, err := WriteTSV(&b, []Sentence{{"a", "b\tc"}, {"d"}})
	if err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	if n != 3 {
		t.Errorf("wrote %d tokens, want 3", n)
	}
	if b.String() != "TOKEN\na\nbc\n\nd\n\n" {
		t.Errorf("unexpected output %q", b.String())
	}
}
