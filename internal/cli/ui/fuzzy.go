package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the default maximum edit distance of a suggestion
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions is the default maximum number of suggestions
	DefaultMaxSuggestions = 3
)

// FuzzyMatchOptions configures fuzzy matching
type FuzzyMatchOptions struct {
	MaxDistance    int
	MaxSuggestions int
	CaseSensitive  bool
}

// FindSimilar returns the candidates within MaxDistance edits of target, closest first.
// Type names are compared without their package qualifier and pointer star, so "Ordr"
// suggests "*shop.Order".
func FindSimilar(target string, candidates []string, opts *FuzzyMatchOptions) []string {
	o := FuzzyMatchOptions{MaxDistance: DefaultMaxDistance, MaxSuggestions: DefaultMaxSuggestions}
	if opts != nil {
		o = *opts
		if o.MaxDistance == 0 {
			o.MaxDistance = DefaultMaxDistance
		}
		if o.MaxSuggestions == 0 {
			o.MaxSuggestions = DefaultMaxSuggestions
		}
	}

	type match struct {
		value    string
		distance int
	}
	var matches []match
	normalize := func(s string) string {
		if !o.CaseSensitive {
			s = strings.ToLower(s)
		}
		return s
	}

	t := normalize(target)
	for _, c := range candidates {
		d := LevenshteinDistance(t, normalize(c))
		if short := shortName(c); short != c {
			if sd := LevenshteinDistance(normalize(shortName(target)), normalize(short)); sd < d {
				d = sd
			}
		}
		if d <= o.MaxDistance {
			matches = append(matches, match{value: c, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].distance < matches[j].distance })

	result := make([]string, 0, o.MaxSuggestions)
	for i := 0; i < len(matches) && i < o.MaxSuggestions; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// shortName strips a pointer star and package qualifier from a Go type name
func shortName(name string) string {
	name = strings.TrimLeft(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// LevenshteinDistance returns the number of single-byte insertions, deletions or
// substitutions turning s1 into s2
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(s2)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
