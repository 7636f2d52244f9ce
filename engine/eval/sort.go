package eval

import (
	"sort"

	"github.com/omniql-engine/omnifilter/engine/models"
)

// SortRecords orders records in place by the directives, first directive
// most significant. A nil sort leaves the input order.
func SortRecords(records []map[string]any, s *models.Sort) {
	if s.Len() == 0 {
		return
	}
	getters := make([]Getter, len(records))
	for i, r := range records {
		getters[i] = MapGetter(r)
	}
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(i, j int) bool {
		gi, gj := getters[idx[i]], getters[idx[j]]
		for _, d := range s.Directives {
			a, _ := gi(d.Field)
			b, _ := gj(d.Field)
			if !d.Ascending() {
				a, b = b, a
			}
			if Less(a, b) {
				return true
			}
			if Less(b, a) {
				return false
			}
		}
		return false
	})

	sorted := make([]map[string]any, len(records))
	for i, k := range idx {
		sorted[i] = records[k]
	}
	copy(records, sorted)
}

// Paginate returns the page of records, or all of them when unpaged.
func Paginate(records []map[string]any, page *models.Page) []map[string]any {
	if !page.Paged() {
		return records
	}
	offset := page.Offset()
	if offset >= len(records) {
		return []map[string]any{}
	}
	end := offset + page.Limit()
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end]
}
