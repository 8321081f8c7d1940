package data

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgallion1/dragonfly/internal/grid"
)

// AnnotationExt is appended to a document's file name to name its
// annotation file.
const AnnotationExt = ".anno"

// SavePayload is the body of a save request.
type SavePayload struct {
	Filename string       `json:"filename"`
	Tokens   []grid.Entry `json:"tokens"`
}

// AnnotationPath returns the annotation file for a document in dir, or ""
// when none exists.
func AnnotationPath(dir, filename string) string {
	path := filepath.Join(dir, filepath.Base(filename)+AnnotationExt)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path
	}
	return ""
}

// LoadAnnotations attaches the annotation file for doc from dir, if there
// is one. It reports whether annotations were attached.
func LoadAnnotations(doc *Document, dir string) (bool, error) {
	if dir == "" {
		return false, nil
	}
	path := AnnotationPath(dir, doc.Filename)
	if path == "" {
		return false, nil
	}
	anno, err := ReadDocument(path)
	if err != nil {
		return false, err
	}
	if err := doc.AttachAnnotations(anno); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return true, nil
}

// WriteAnnotations writes one "token<TAB>tag" line per entry into
// dir/<filename>.anno, with an empty line for each separator. It returns
// the path written.
func WriteAnnotations(dir string, p SavePayload) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(p.Filename)+AnnotationExt)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	for _, e := range p.Tokens {
		if e.IsSeparator() {
			w.WriteString("\n")
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", e.Token, e.Tag)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write annotations: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write annotations: %w", err)
	}
	return path, nil
}

//go:embed save_payload.schema.json
var savePayloadSchema []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		const url = "save_payload.schema.json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, bytes.NewReader(savePayloadSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = c.Compile(url)
	})
	return schema, schemaErr
}

// ValidatePayload checks a raw save request against the payload schema and
// decodes it.
func ValidatePayload(raw []byte) (SavePayload, error) {
	s, err := compiledSchema()
	if err != nil {
		return SavePayload{}, err
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return SavePayload{}, fmt.Errorf("decode payload: %w", err)
	}
	if err := s.Validate(instance); err != nil {
		return SavePayload{}, fmt.Errorf("invalid payload: %w", err)
	}

	var p SavePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return SavePayload{}, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}

// LoadAdjudications attaches the document's annotation file from each
// annotator directory, named after the directory. Directories without a
// file are skipped; a file that does not match the document is reported
// and the others are still attached.
func LoadAdjudications(doc *Document, dirs []string) error {
	var errs []error
	for _, dir := range dirs {
		path := AnnotationPath(dir, doc.Filename)
		if path == "" {
			continue
		}
		anno, err := ReadDocument(path)
		if err == nil {
			err = doc.AttachAdjudication(filepath.Base(filepath.Clean(dir)), anno)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// TranslationExt names the English translation kept beside a document.
const TranslationExt = ".eng"

// LoadTranslation reads dir/<filename>.eng, one line per sentence. It
// returns nil when there is no translation.
func LoadTranslation(dir, filename string) ([]string, error) {
	path := filepath.Join(dir, filepath.Base(filename)+TranslationExt)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
