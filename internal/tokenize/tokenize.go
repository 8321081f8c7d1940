package tokenize

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/dragonfly/internal/doctree"
)

// Sentence is a list of tokens.
type Sentence []string

// Tree walks a parsed document and splits every heading and text block
// into tokenized sentences, in document order.
func Tree(tree *doctree.DocTree) []Sentence {
	var out []Sentence
	tree.Walk(func(node *doctree.DocNode) {
		if t := strings.TrimSpace(node.Title); t != "" {
			if toks := Words(t); len(toks) > 0 {
				out = append(out, toks)
			}
		}
		if node.Text != "" {
			out = append(out, Text(node.Text)...)
		}
	})
	return out
}

// Text splits free text into paragraphs, then sentences, then tokens.
func Text(text string) []Sentence {
	var out []Sentence
	for _, para := range splitByParagraphs(text) {
		for _, sent := range splitSentences(para) {
			if toks := Words(sent); len(toks) > 0 {
				out = append(out, toks)
			}
		}
	}
	return out
}

// splitByParagraphs splits on blank lines.
func splitByParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences ends a sentence at '.', '!' or '?' (plus any closing
// quotes or brackets) followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		current.WriteRune(r)
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		for i < len(text) {
			next, n := utf8.DecodeRuneInString(text[i:])
			if !strings.ContainsRune(`"')]»”’`, next) {
				break
			}
			current.WriteRune(next)
			i += n
		}
		if i < len(text) {
			next, _ := utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(next) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Words splits a sentence on whitespace and detaches leading and trailing
// punctuation into tokens of their own.
func Words(sentence string) Sentence {
	var out Sentence
	for _, field := range strings.Fields(sentence) {
		out = append(out, splitPunct(field)...)
	}
	return out
}

func splitPunct(field string) []string {
	var lead, trail []string
	for field != "" {
		r, n := utf8.DecodeRuneInString(field)
		if !unicode.IsPunct(r) {
			break
		}
		lead = append(lead, field[:n])
		field = field[n:]
	}
	for field != "" {
		r, n := utf8.DecodeLastRuneInString(field)
		if !unicode.IsPunct(r) {
			break
		}
		trail = append([]string{field[len(field)-n:]}, trail...)
		field = field[:len(field)-n]
	}
	out := lead
	if field != "" {
		out = append(out, field)
	}
	return append(out, trail...)
}

// WriteTSV writes sentences as a one-column document: a TOKEN header, one
// token per line and a blank line after each sentence.
func WriteTSV(w io.Writer, sentences []Sentence) (int, error) {
	bw := bufio.NewWriter(w)
	bw.WriteString("TOKEN\n")
	n := 0
	for _, s := range sentences {
		for _, tok := range s {
			// Tabs and newlines cannot appear in a token cell.
			tok = strings.Map(func(r rune) rune {
				if r == '\t' || r == '\n' || r == '\r' {
					return -1
				}
				return r
			}, tok)
			if tok == "" {
				continue
			}
			bw.WriteString(tok)
			bw.WriteByte('\n')
			n++
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("write tokens: %w", err)
	}
	return n, nil
}
