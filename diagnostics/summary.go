package diagnostics

import "sort"

// Summary aggregates a diagnostics log into the quality signal for the
// upstream generator.
type Summary struct {
	Total int `json:"total"`
	// Labels is the number of distinct records with at least one entry.
	Labels         int            `json:"labels"`
	DroppedRecords int            `json:"dropped_records"`
	ByReason       map[string]int `json:"by_reason"`
	ByPath         map[string]int `json:"by_path"`
}

// PathCount is one row of Summary.TopPaths.
type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// Summarize counts entries per reason and per field path.
func Summarize(entries []Entry) Summary {
	s := Summary{
		Total:    len(entries),
		ByReason: make(map[string]int),
		ByPath:   make(map[string]int),
	}
	labels := make(map[string]struct{})
	for _, e := range entries {
		labels[e.Label] = struct{}{}
		s.ByReason[e.Reason]++
		if e.IsRecordFailure() {
			s.DroppedRecords++
			continue
		}
		s.ByPath[e.Path]++
	}
	s.Labels = len(labels)
	return s
}

// TopPaths returns the n most repaired paths, most frequent first, ties by
// path. n <= 0 returns all of them.
func (s Summary) TopPaths(n int) []PathCount {
	out := make([]PathCount, 0, len(s.ByPath))
	for p, c := range s.ByPath {
		out = append(out, PathCount{Path: p, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Path < out[j].Path
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
