package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/dragonfly/internal/config"
	"github.com/dgallion1/dragonfly/internal/curate"
	"github.com/dgallion1/dragonfly/internal/parser"
	"github.com/dgallion1/dragonfly/internal/stats"
	"github.com/dgallion1/dragonfly/internal/store"
	"github.com/dgallion1/dragonfly/internal/tokenize"
)

var opts struct {
	DBPath string
	JSON   bool
	Dict   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dragonfly-cli",
		Short:        "Offline tools for dragonfly annotation data",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.DBPath, "db", "",
		"path of the translation database (default: <metadata dir>/"+store.DBFile+")")

	statsCmd := &cobra.Command{
		Use:   "stats <dir>",
		Short: "summarise the annotation files in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.OutOrStdout(), args[0])
		},
	}
	statsCmd.Flags().BoolVar(&opts.JSON, "json", false, "print the summary as JSON")

	translations := &cobra.Command{
		Use:   "translations",
		Short: "export or import a translation dictionary as TSV",
	}
	translations.AddCommand(
		&cobra.Command{
			Use:   "export <lang> <file>",
			Short: "write the dictionary of a language to a TSV file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runExport(cmd.OutOrStdout(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "import <lang> <file>",
			Short: "merge a TSV file into the dictionary of a language",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runImport(cmd.OutOrStdout(), args[0], args[1])
			},
		},
	)

	tokenizeCmd := &cobra.Command{
		Use:   "tokenize <file> <out.tsv>",
		Short: "convert a document into a one-token-per-line file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenize(cmd.OutOrStdout(), args[0], args[1])
		},
	}

	correctCmd := &cobra.Command{
		Use:   "correct <input> <transform> <output dir>",
		Short: "retype or remove entities listed in a transform file",
		Long: `Correct annotation files using a two column transform file. The first
column is a phrase, matched against whole entities ignoring case; the second
is the new type, or O (DEL, DELETE, RM and REMOVE also work) to remove it:

New York	GPE
Pastafarian	O`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrect(cmd.OutOrStdout(), args[0], args[1], args[2])
		},
	}

	correctCmd.Flags().BoolVar(&opts.JSON, "json", false, "print the report as JSON")

	missingCmd := &cobra.Command{
		Use:   "missing <lang> <input>",
		Short: "list dictionary phrases left untagged in annotation files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMissing(cmd.OutOrStdout(), args[0], args[1])
		},
	}
	missingCmd.Flags().StringVar(&opts.Dict, "dict", "", "TSV dictionary to use instead of the translation database")

	root.AddCommand(statsCmd, translations, tokenizeCmd, correctCmd, missingCmd)
	return root
}

func openStore() (*store.Store, error) {
	path := opts.DBPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(cfg.MetadataPath(), store.DBFile)
	}
	slog.Debug("opening store", "path", path)
	return store.Open(path)
}

func runStats(out io.Writer, dir string) error {
	st, err := stats.CollectDir(dir)
	if err != nil {
		return err
	}
	sum := st.Summary()
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	fmt.Fprintf(out, "files:            %d\n", sum.NumFiles)
	fmt.Fprintf(out, "tokens:           %d\n", sum.NumTokens)
	fmt.Fprintf(out, "tagged tokens:    %d (%.2f%%)\n", sum.NumTaggedTokens, sum.PercentageTagged)
	fmt.Fprintf(out, "entities:         %d\n", sum.NumEntities)
	fmt.Fprintf(out, "unique entities:  %d\n", sum.NumUniqueEntities)
	for _, name := range st.TypeNames() {
		ts := st.Types[name]
		fmt.Fprintf(out, "  %-8s %d entities, %d unique\n", name, ts.NumEntities, len(ts.Entities))
	}
	return nil
}

func runExport(out io.Writer, lang, file string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	n, err := st.ExportTSV(lang, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d %s translations to %s\n", n, lang, file)
	return nil
}

func runImport(out io.Writer, lang, file string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	added, skipped, err := st.ImportTSV(lang, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d %s translations (%d malformed lines skipped)\n", added, lang, skipped)
	return nil
}

func runTokenize(out io.Writer, in, dst string) error {
	p, err := parser.ForFile(in, parser.Options{PDFFallback: true})
	if err != nil {
		return err
	}
	src, err := os.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()

	tree, err := p.Parse(src, filepath.Base(in))
	if err != nil {
		return err
	}
	sentences := tokenize.Tree(tree)
	if len(sentences) == 0 {
		return fmt.Errorf("%s: no extractable content", in)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := tokenize.WriteTSV(f, sentences)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d sentences, %d tokens to %s\n", len(sentences), n, dst)
	return nil
}

func runCorrect(out io.Writer, input, transformFile, outDir string) error {
	f, err := os.Open(transformFile)
	if err != nil {
		return err
	}
	tr, problems, err := curate.ReadTransforms(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", transformFile, err)
	}
	for _, p := range problems {
		slog.Warn("skipped transform", "file", transformFile, "error", p)
	}

	rep, err := tr.CorrectFiles(input, outDir)
	if err != nil {
		return err
	}
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	fmt.Fprintf(out, "%d files processed\n", rep.Files)
	fmt.Fprintf(out, "%d changes\n", rep.Changes)
	for _, t := range rep.Applied {
		fmt.Fprintf(out, "%s: %d\n", t.Phrase, t.Applied)
	}
	return nil
}

func runMissing(out io.Writer, lang, input string) error {
	var phrases []string
	if opts.Dict != "" {
		f, err := os.Open(opts.Dict)
		if err != nil {
			return err
		}
		phrases, err = curate.ReadPhrases(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", opts.Dict, err)
		}
	} else {
		st, err := openStore()
		if err != nil {
			return err
		}
		dict, err := st.Translations(lang)
		st.Close()
		if err != nil {
			return err
		}
		for source := range dict {
			phrases = append(phrases, source)
		}
	}
	if len(phrases) == 0 {
		return fmt.Errorf("no %s dictionary entries", lang)
	}

	rep, err := curate.NewPhraseTree(phrases).MissingFiles(input)
	if err != nil {
		return err
	}
	for _, file := range rep.Files {
		fmt.Fprintf(out, "%s\t\t%s\n", file, strings.Join(rep.Phrases[file], ", "))
	}
	return nil
}
