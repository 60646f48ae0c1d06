package editor

import "sort"

// AddOrUpdateEdit appends an edit to the log, compacting as it goes:
// comments accumulate in arrival order, while any other type supersedes an
// earlier edit of the same type on the same section. Replaying the result
// in order therefore reaches the final state with the fewest operations
// while keeping the full comment history.
func AddOrUpdateEdit(edits []Edit, newEdit Edit) []Edit {
	if newEdit.Type == EditComment {
		return append(edits, newEdit)
	}
	out := make([]Edit, 0, len(edits)+1)
	for _, e := range edits {
		if e.Type == newEdit.Type && e.SectionID == newEdit.SectionID {
			continue
		}
		out = append(out, e)
	}
	return append(out, newEdit)
}

// SectionSummary rolls up the pending edits touching one section.
type SectionSummary struct {
	SectionID string
	Title     string
	Counts    map[EditType]int
	Total     int
}

// Summarize groups an edit log per target section, most-edited first.
func Summarize(edits []Edit) []SectionSummary {
	byID := make(map[string]*SectionSummary)
	var order []string
	for _, e := range edits {
		s, ok := byID[e.SectionID]
		if !ok {
			s = &SectionSummary{
				SectionID: e.SectionID,
				Title:     e.Title,
				Counts:    make(map[EditType]int),
			}
			byID[e.SectionID] = s
			order = append(order, e.SectionID)
		}
		s.Counts[e.Type]++
		s.Total++
	}

	out := make([]SectionSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].SectionID < out[j].SectionID
		}
		return out[i].Total > out[j].Total
	})
	return out
}
