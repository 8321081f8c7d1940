package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/dragonfly/internal/parser"
	"github.com/dgallion1/dragonfly/internal/tokenize"
)

// Worker converts uploaded documents into token files.
type Worker struct {
	dataDir    string
	ext        string
	opts       parser.Options
	onImported func(path string)
	log        *slog.Logger
}

func NewWorker(dataDir, ext string, opts parser.Options, onImported func(path string), log *slog.Logger) *Worker {
	return &Worker{
		dataDir:    dataDir,
		ext:        ext,
		opts:       opts,
		onImported: onImported,
		log:        log,
	}
}

// Process runs the full import for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "file", job.Filename)
	defer job.releaseData()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.opts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Tokenize
	job.SetStatus(StatusTokenizing, "tokenizing")
	var sentences []tokenize.Sentence
	if !tree.Empty() {
		sentences = tokenize.Tree(tree)
	}
	if len(sentences) == 0 {
		log.Warn("no sentences produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "tokenizing")
		return
	}

	var buf bytes.Buffer
	n, err := tokenize.WriteTSV(&buf, sentences)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "tokenizing")
		return
	}
	job.SetCounts(len(sentences), n)
	job.ContentHash = ContentHashHex(buf.Bytes())
	log.Info("tokenized document", "sentences", len(sentences), "tokens", n)

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "tokenizing")
		return
	}

	// Phase 2.5: Dedup check
	target, dup, err := w.targetPath(job.Filename, job.ContentHash)
	if err != nil {
		log.Error("dedup check failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "dedup")
		return
	}
	job.SetOutput(target)
	if dup {
		log.Info("duplicate document, skipping", "existing", target)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 3: Write
	job.SetStatus(StatusWriting, "writing")
	if err := writeAtomic(target, buf.Bytes()); err != nil {
		log.Error("write failed", "error", err)
		job.AddError(fmt.Sprintf("write: %s", err))
		job.SetStatus(StatusFailed, "writing")
		return
	}

	if w.onImported != nil {
		w.onImported(target)
	}
	log.Info("import complete", "output", target)
	job.SetStatus(StatusCompleted, "done")
}

// targetPath picks the output file for an upload. A file with the same name
// and content is reported as a duplicate; a different file under the same
// name gets a hash suffix.
func (w *Worker) targetPath(filename, hash string) (string, bool, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	candidates := []string{
		filepath.Join(w.dataDir, stem+w.ext),
		filepath.Join(w.dataDir, stem+"-"+hash[:8]+w.ext),
	}
	for _, path := range candidates {
		existing, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		if err != nil {
			return "", false, err
		}
		if ContentHashHex(existing) == hash {
			return path, true, nil
		}
	}
	return "", false, fmt.Errorf("%s: name taken by different content", filename)
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".import-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
