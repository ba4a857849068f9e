package google

import (
	"strings"

	"buckets/internal/core"
)

// parseMembers converts a values matrix (as returned by the Sheets
// API) into roster entries. The first row is treated as a header when
// its first cell reads "id"; rows without an ID are skipped.
func parseMembers(values [][]interface{}) []core.Member {
	var members []core.Member
	for i, row := range values {
		cells := toStrings(row)
		id := strings.TrimSpace(safeGet(cells, 0))
		if id == "" {
			continue
		}
		if i == 0 && strings.EqualFold(id, "id") {
			continue
		}
		members = append(members, core.Member{
			ID:     id,
			Name:   strings.TrimSpace(safeGet(cells, 1)),
			Color:  strings.TrimSpace(safeGet(cells, 2)),
			Avatar: strings.TrimSpace(safeGet(cells, 3)),
		})
	}
	return members
}

// parseTags flattens the first column into a deduplicated tag list,
// skipping a "tag" header and blank cells. Case differences collapse
// onto the first spelling seen.
func parseTags(values [][]interface{}) []string {
	var tags []string
	seen := make(map[string]bool)
	for i, row := range values {
		cells := toStrings(row)
		tag := strings.TrimSpace(safeGet(cells, 0))
		if tag == "" {
			continue
		}
		if i == 0 && strings.EqualFold(tag, "tag") {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return tags
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if s, ok := v.(string); ok {
			out[i] = s
		}
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
