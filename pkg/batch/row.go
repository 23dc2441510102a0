package batch

import (
	"maps"
	"slices"
	"strings"
)

// Row is one record of an uploaded batch. A nil Narrative means the source
// had no narrative column or an empty cell.
type Row struct {
	Index     int               `json:"index"`
	Fields    map[string]string `json:"fields,omitempty"`
	Narrative *string           `json:"narrative,omitempty"`
}

// narrative columns in lookup order
var narrativeColumns = []string{"relato", "descripcion", "detalle", "observaciones"}

// NarrativeOf returns the first present narrative column, matched without
// regard to case or surrounding whitespace. When several keys spell the same
// column, the lowercase one wins, then the first in sorted order.
func NarrativeOf(fields map[string]string) *string {
	if len(fields) == 0 {
		return nil
	}
	keys := slices.Sorted(maps.Keys(fields))
	for _, col := range narrativeColumns {
		match := ""
		for _, k := range keys {
			name := strings.TrimSpace(k)
			if name == col {
				match = k
				break
			}
			if match == "" && strings.EqualFold(name, col) {
				match = k
			}
		}
		if match != "" {
			v := fields[match]
			return &v
		}
	}
	return nil
}

// NewRows indexes records from 1 and resolves their narratives.
func NewRows(records []map[string]string) []Row {
	rows := make([]Row, len(records))
	for i, fields := range records {
		rows[i] = Row{
			Index:     i + 1,
			Fields:    fields,
			Narrative: NarrativeOf(fields),
		}
	}
	return rows
}

// Text is the narrative to classify; absent narratives are empty.
func (r Row) Text() string {
	if r.Narrative == nil {
		return ""
	}
	return *r.Narrative
}
