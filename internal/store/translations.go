package store

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Translation is one dictionary entry. Type is an entity type and may be
// empty.
type Translation struct {
	Source      string `json:"source"`
	Translation string `json:"translation"`
	Type        string `json:"type"`
}

// Dictionary maps a lower-cased source phrase to [translation, type].
type Dictionary map[string][2]string

func normLang(lang string) string {
	return strings.ToLower(lang)
}

// AddTranslation inserts or replaces an entry. The source is lower-cased
// and the type upper-cased.
func (s *Store) AddTranslation(lang string, t Translation) error {
	if t.Source == "" {
		return fmt.Errorf("add translation: empty source")
	}
	_, err := s.db.Exec(`
		INSERT INTO translations (lang, source, translation, type, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(lang, source) DO UPDATE SET
			translation = excluded.translation,
			type = excluded.type,
			updated_at = excluded.updated_at`,
		normLang(lang), strings.ToLower(t.Source), t.Translation, strings.ToUpper(t.Type), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("add translation: %w", err)
	}
	return nil
}

// DeleteTranslation removes an entry. It reports whether one existed.
func (s *Store) DeleteTranslation(lang, source string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM translations WHERE lang = ? AND source = ?`,
		normLang(lang), strings.ToLower(source))
	if err != nil {
		return false, fmt.Errorf("delete translation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete translation: %w", err)
	}
	return n > 0, nil
}

// Translations returns the dictionary for a language.
func (s *Store) Translations(lang string) (Dictionary, error) {
	rows, err := s.db.Query(`SELECT source, translation, type FROM translations WHERE lang = ?`, normLang(lang))
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	dict := make(Dictionary)
	for rows.Next() {
		var t Translation
		if err := rows.Scan(&t.Source, &t.Translation, &t.Type); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		dict[t.Source] = [2]string{t.Translation, t.Type}
	}
	return dict, rows.Err()
}

// SearchTranslations returns entries whose source or translation contains
// term, ignoring case.
func (s *Store) SearchTranslations(lang, term string, limit int) ([]Translation, error) {
	if limit <= 0 {
		limit = 50
	}
	like := "%" + escapeLike(strings.ToLower(term)) + "%"
	rows, err := s.db.Query(`
		SELECT source, translation, type FROM translations
		WHERE lang = ? AND (source LIKE ? ESCAPE '\' OR lower(translation) LIKE ? ESCAPE '\')
		ORDER BY source
		LIMIT ?`,
		normLang(lang), like, like, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search translations: %w", err)
	}
	defer rows.Close()

	var out []Translation
	for rows.Next() {
		var t Translation
		if err := rows.Scan(&t.Source, &t.Translation, &t.Type); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ExportTSV writes "source<TAB>translation<TAB>type" lines sorted by
// source and returns the number written.
func (s *Store) ExportTSV(lang string, w io.Writer) (int, error) {
	dict, err := s.Translations(lang)
	if err != nil {
		return 0, err
	}
	sources := make([]string, 0, len(dict))
	for src := range dict {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	bw := bufio.NewWriter(w)
	for _, src := range sources {
		e := dict[src]
		fmt.Fprintf(bw, "%s\t%s\t%s\n", src, e[0], e[1])
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("export translations: %w", err)
	}
	return len(sources), nil
}

// ImportTSV adds the rows of a three-column TSV. Rows without exactly
// three columns are skipped and existing entries are never overwritten.
// It returns the number of entries added and skipped.
func (s *Store) ImportTSV(lang string, r io.Reader) (added, skipped int, err error) {
	entries := make(map[string][2]string)
	var order []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			skipped++
			continue
		}
		if _, ok := entries[fields[0]]; !ok {
			order = append(order, fields[0])
			entries[fields[0]] = [2]string{fields[1], fields[2]}
		}
	}
	if err := sc.Err(); err != nil {
		return 0, skipped, fmt.Errorf("read translations: %w", err)
	}

	dict := make(Dictionary, len(order))
	for _, src := range order {
		dict[src] = entries[src]
	}
	added, err = s.ImportDictionary(lang, dict)
	return added, skipped, err
}

// ImportDictionary adds every entry not already present and returns the
// number added.
func (s *Store) ImportDictionary(lang string, dict Dictionary) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO translations (lang, source, translation, type, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(lang, source) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	added := 0
	for src, e := range dict {
		res, err := stmt.Exec(normLang(lang), src, e[0], e[1], now)
		if err != nil {
			return 0, fmt.Errorf("import %q: %w", src, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return added, nil
}

// CountTranslations returns the dictionary size for a language.
func (s *Store) CountTranslations(lang string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM translations WHERE lang = ?`, normLang(lang)).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return n, nil
}
