// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"sort"

	"golang.org/x/text/cases"

	"github.com/pdiddy/tablemerge/pkg/types"
)

// unionSchema returns every column of every table exactly once, ordered
// by the options' policy.
func unionSchema(tables []*types.SourceTable, opts Options) []string {
	var union []string
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.Schema {
			if !seen[c] {
				seen[c] = true
				union = append(union, c)
			}
		}
	}

	switch opts.policy() {
	case types.OrderAlphabetical:
		fold := cases.Fold()
		keys := make(map[string]string, len(union))
		for _, c := range union {
			keys[c] = fold.String(c)
		}
		sort.SliceStable(union, func(i, j int) bool {
			ki, kj := keys[union[i]], keys[union[j]]
			if ki != kj {
				return ki < kj
			}
			return union[i] < union[j]
		})

	case types.OrderExplicit:
		ordered := make([]string, 0, len(union)+len(opts.Columns))
		listed := make(map[string]bool, len(opts.Columns))
		for _, c := range opts.Columns {
			listed[c] = true
			ordered = append(ordered, c)
		}
		for _, c := range union {
			if !listed[c] {
				ordered = append(ordered, c)
			}
		}
		union = ordered
	}

	return union
}

// explicitOnly returns explicitly listed columns that no table declares.
func explicitOnly(tables []*types.SourceTable, opts Options) []string {
	if opts.policy() != types.OrderExplicit {
		return nil
	}
	var out []string
	for _, c := range opts.Columns {
		found := false
		for _, t := range tables {
			if t.Has(c) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, c)
		}
	}
	return out
}

// caseVariants groups columns equal under Unicode case folding. Groups and
// their members follow schema order.
func caseVariants(schema []string) [][]string {
	fold := cases.Fold()
	groups := make(map[string][]string)
	var order []string
	for _, c := range schema {
		k := fold.String(c)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	var out [][]string
	for _, k := range order {
		if len(groups[k]) > 1 {
			out = append(out, groups[k])
		}
	}
	return out
}
