package types

// HierarchyMember is one node of a model's dimension tree. Operator is the
// rollup sign ("+" or "-") applied when the member aggregates into its
// parent.
type HierarchyMember struct {
	Dimension string `json:"dimension"`
	Name      string `json:"name"`
	Alias     string `json:"alias"`
	Parent    string `json:"parent"`
	Operator  string `json:"operator"`
}

// Dimensions returns the distinct dimension names in members, in first-seen
// order.
func Dimensions(members []HierarchyMember) []string {
	seen := make(map[string]bool, len(members))

	var names []string

	for _, m := range members {
		if !seen[m.Dimension] {
			seen[m.Dimension] = true
			names = append(names, m.Dimension)
		}
	}

	return names
}
