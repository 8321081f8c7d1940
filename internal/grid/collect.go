package grid

// Entry is one line of a saved annotation file. A zero Entry is a
// sentence separator.
type Entry struct {
	Token string `json:"token,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// IsSeparator reports whether the entry marks a row boundary.
func (e Entry) IsSeparator() bool {
	return e.Token == "" && e.Tag == ""
}

// Collect flattens the grid into token/tag entries in row order with a blank
// separator after each row. The separator after the final row is only
// emitted when trailingSeparator is set.
func (g *Grid) Collect(trailingSeparator bool) []Entry {
	var entries []Entry
	for i, row := range g.rows {
		for _, t := range row {
			tag := t.Tag
			if tag == "" {
				tag = Outside
			}
			entries = append(entries, Entry{Token: t.Text, Tag: tag})
		}
		if i < len(g.rows)-1 || trailingSeparator {
			entries = append(entries, Entry{})
		}
	}
	return entries
}
