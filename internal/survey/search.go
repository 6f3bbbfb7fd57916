package survey

import (
	"sort"
	"strings"

	"surveystat/domain/core"
	"surveystat/domain/survey"
)

// KeywordGroups are the built-in keyword sets used to locate indicators of
// interest by English name.
var KeywordGroups = map[string][]string{
	"technology":  {"website", "email", "internet", "computer", "technology", "digital", "online", "software", "broadband", "ICT"},
	"innovation":  {"innovation", "new product", "new service", "R&D", "research", "development", "patent", "license", "upgrade", "improve"},
	"performance": {"sales", "productivity", "growth", "export", "revenue", "profit", "performance", "output", "capacity"},
	"firm":        {"size", "age", "small", "medium", "large", "employees", "sector", "industry", "ownership", "location", "establishment"},
}

// GroupNames lists the keyword groups alphabetically.
func GroupNames() []string {
	names := make([]string, 0, len(KeywordGroups))
	for name := range KeywordGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExpandKeywords replaces group names with their keywords; other terms pass through.
func ExpandKeywords(terms []string) []string {
	var out []string
	for _, term := range terms {
		if group, ok := KeywordGroups[strings.ToLower(strings.TrimSpace(term))]; ok {
			out = append(out, group...)
			continue
		}
		if t := strings.TrimSpace(term); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SearchHit is one indicator whose English name matched.
type SearchHit struct {
	Descriptor survey.Descriptor
	Keywords   []string // matching keywords, in query order
}

// SearchResult holds deduplicated hits and per-keyword match counts.
type SearchResult struct {
	Hits   []SearchHit
	Counts map[string]int
}

// Search matches keywords case-insensitively against English names. Each
// indicator appears once, in catalog order.
func Search(catalog *survey.Catalog, keywords []string) SearchResult {
	result := SearchResult{Counts: make(map[string]int, len(keywords))}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
		result.Counts[kw] = 0
	}

	byCode := make(map[core.IndicatorCode]int)
	for _, code := range catalog.Codes() {
		d, _ := catalog.Lookup(code)
		name := strings.ToLower(d.EnglishName)
		if name == "" {
			continue
		}
		for i, kw := range lowered {
			if kw == "" || !strings.Contains(name, kw) {
				continue
			}
			result.Counts[keywords[i]]++
			idx, ok := byCode[code]
			if !ok {
				idx = len(result.Hits)
				byCode[code] = idx
				result.Hits = append(result.Hits, SearchHit{Descriptor: d})
			}
			result.Hits[idx].Keywords = append(result.Hits[idx].Keywords, keywords[i])
		}
	}
	return result
}
