package rangeset_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/streamcap/rangeset"
)

func TestIsCovered(t *testing.T) {
	cases := []struct {
		assertion string
		query     rangeset.Range
		ranges    []rangeset.Range
		covered   bool
	}{
		{
			"fully covered by one range",
			rangeset.Range{Start: 10, End: 20},
			[]rangeset.Range{{Start: 0, End: 100}},
			true,
		},
		{
			"covered by adjacent ranges",
			rangeset.Range{Start: 10, End: 20},
			[]rangeset.Range{{Start: 0, End: 15}, {Start: 15, End: 30}},
			true,
		},
		{
			"gap in the middle",
			rangeset.Range{Start: 10, End: 20},
			[]rangeset.Range{{Start: 0, End: 15}, {Start: 16, End: 30}},
			false,
		},
		{
			"no ranges at all",
			rangeset.Range{Start: 10, End: 20},
			nil,
			false,
		},
		{
			"out of bound ranges don't corrupt coverage",
			rangeset.Range{Start: 10, End: 20},
			[]rangeset.Range{{Start: -100, End: 0}, {Start: 10, End: 20}, {Start: 50, End: 100}},
			true,
		},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			require.Equal(t, c.covered, rangeset.IsCovered(c.query, c.ranges))
		})
	}
}

func TestMissing(t *testing.T) {
	cases := []struct {
		assertion string
		query     rangeset.Range
		ranges    []rangeset.Range
		missing   []rangeset.Range
	}{
		{
			"nothing downloaded",
			rangeset.Range{Start: 0, End: 100},
			nil,
			[]rangeset.Range{{Start: 0, End: 100}},
		},
		{
			"fully downloaded",
			rangeset.Range{Start: 0, End: 100},
			[]rangeset.Range{{Start: 0, End: 100}},
			nil,
		},
		{
			"gap in the middle",
			rangeset.Range{Start: 0, End: 100},
			[]rangeset.Range{{Start: 0, End: 40}, {Start: 60, End: 100}},
			[]rangeset.Range{{Start: 40, End: 60}},
		},
		{
			"clips out-of-bound ranges before computing complement",
			rangeset.Range{Start: 10, End: 20},
			[]rangeset.Range{{Start: -1000, End: 15}},
			[]rangeset.Range{{Start: 15, End: 20}},
		},
		{
			"empty query returns nothing",
			rangeset.Range{Start: 5, End: 5},
			nil,
			nil,
		},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			require.Equal(t, c.missing, rangeset.Missing(c.query, c.ranges))
		})
	}
}

func TestIntersect(t *testing.T) {
	a := []rangeset.Range{{Start: 0, End: 10}, {Start: 20, End: 30}}
	b := []rangeset.Range{{Start: 5, End: 25}}
	require.Equal(t, []rangeset.Range{{Start: 5, End: 10}, {Start: 20, End: 25}}, rangeset.Intersect(a, b))
}

func TestOverlaps(t *testing.T) {
	require.True(t, rangeset.Overlaps(rangeset.Range{Start: 0, End: 10}, rangeset.Range{Start: 5, End: 15}))
	require.False(t, rangeset.Overlaps(rangeset.Range{Start: 0, End: 10}, rangeset.Range{Start: 10, End: 20}))
}

// TestMissingIntersectRoundTrip checks the round-trip property from spec section 8:
// missing(r, ranges) union intersect(ranges, [r]) == [r] (disjoint union).
func TestMissingIntersectRoundTrip(t *testing.T) {
	query := rangeset.Range{Start: 0, End: 100}
	ranges := []rangeset.Range{{Start: 10, End: 30}, {Start: 70, End: 90}}

	missing := rangeset.Missing(query, ranges)
	present := rangeset.Intersect(ranges, []rangeset.Range{query})

	combined := rangeset.Union(missing, present)
	require.Equal(t, []rangeset.Range{query}, combined)
}

func TestNormalizeMergesTouchingRanges(t *testing.T) {
	in := []rangeset.Range{{Start: 0, End: 10}, {Start: 10, End: 20}, {Start: 30, End: 40}}
	require.Equal(t, []rangeset.Range{{Start: 0, End: 20}, {Start: 30, End: 40}}, rangeset.Normalize(in))
}
