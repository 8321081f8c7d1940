package store

import (
	"fmt"
	"time"
)

// ToggleMarker marks a sentence of a document, or unmarks it if already
// marked. It reports whether the sentence is marked afterwards.
func (s *Store) ToggleMarker(doc string, sentence int) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM markers WHERE doc = ? AND sentence = ?`, doc, sentence)
	if err != nil {
		return false, fmt.Errorf("toggle marker: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("toggle marker: %w", err)
	}
	if removed == 0 {
		if _, err := tx.Exec(`INSERT INTO markers (doc, sentence, created_at) VALUES (?, ?, ?)`,
			doc, sentence, time.Now().UnixNano()); err != nil {
			return false, fmt.Errorf("toggle marker: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit marker: %w", err)
	}
	return removed == 0, nil
}

// Markers returns the marked sentence ids of a document in the order they
// were marked.
func (s *Store) Markers(doc string) ([]int, error) {
	rows, err := s.db.Query(`SELECT sentence FROM markers WHERE doc = ? ORDER BY created_at, sentence`, doc)
	if err != nil {
		return nil, fmt.Errorf("query markers: %w", err)
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan marker: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
