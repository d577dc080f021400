// Package rangeset implements algebra over half-open integer intervals:
// union, intersection, coverage testing, and missing-range computation. All
// operations are linear in the length of their inputs.
package rangeset

import (
	"fmt"
	"sort"
)

// Range is a half-open interval [Start, End) of non-negative offsets. Empty
// ranges (Start == End) are disallowed on the public API below; construct
// them only as internal intermediates.
type Range struct {
	Start, End int64
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Len returns the number of offsets covered by r.
func (r Range) Len() int64 { return r.End - r.Start }

// Overlaps reports whether a and b share at least one offset.
func Overlaps(a, b Range) bool {
	return a.Start < b.End && b.Start < a.End
}

// Normalize sorts ranges by start and merges any that touch or overlap,
// returning the canonical disjoint form.
func Normalize(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make([]Range, 0, len(sorted))
	cur := sorted[0]
	for _, r := range sorted[1:] {
		if r.Start <= cur.End {
			if r.End > cur.End {
				cur.End = r.End
			}
			continue
		}
		out = append(out, cur)
		cur = r
	}
	return append(out, cur)
}

// IsCovered reports whether query is entirely contained within the union of
// ranges. ranges need not be pre-normalized.
func IsCovered(query Range, ranges []Range) bool {
	return len(Missing(query, ranges)) == 0
}

// Missing returns the portions of query not covered by ranges, in
// left-to-right order. ranges are first clipped to query's bound so that
// out-of-bounds entries do not corrupt the complement.
func Missing(query Range, ranges []Range) []Range {
	if query.Len() <= 0 {
		return nil
	}
	clipped := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		start, end := max(r.Start, query.Start), min(r.End, query.End)
		if start < end {
			clipped = append(clipped, Range{start, end})
		}
	}
	normalized := Normalize(clipped)

	var missing []Range
	cursor := query.Start
	for _, r := range normalized {
		if r.Start > cursor {
			missing = append(missing, Range{cursor, r.Start})
		}
		cursor = max(cursor, r.End)
	}
	if cursor < query.End {
		missing = append(missing, Range{cursor, query.End})
	}
	return missing
}

// Intersect returns the intersection of two range sets, as a normalized
// range list.
func Intersect(a, b []Range) []Range {
	an, bn := Normalize(a), Normalize(b)
	var out []Range
	i, j := 0, 0
	for i < len(an) && j < len(bn) {
		start, end := max(an[i].Start, bn[j].Start), min(an[i].End, bn[j].End)
		if start < end {
			out = append(out, Range{start, end})
		}
		if an[i].End < bn[j].End {
			i++
		} else {
			j++
		}
	}
	return out
}

// Union returns the union of two range sets, normalized.
func Union(a, b []Range) []Range {
	return Normalize(append(append([]Range{}, a...), b...))
}
