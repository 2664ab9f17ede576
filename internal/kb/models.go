package kb

// Expert is a researcher node. HIndex is nil when the graph has no
// h-index for the expert, and NameZh is empty when no Chinese name is
// recorded.
type Expert struct {
	Name     string `json:"name"`
	NameZh   string `json:"name_zh,omitempty"`
	HIndex   *int64 `json:"h_index,omitempty"`
	Position string `json:"position,omitempty"`
}

// DisplayName prefers the Chinese name when present.
func (e Expert) DisplayName() string {
	if e.NameZh != "" {
		return e.NameZh
	}
	return e.Name
}

// ExpertProfile is an expert together with their research interests,
// used for interest listings and h-index lookups where name matching
// may hit several experts.
type ExpertProfile struct {
	Name      string   `json:"name"`
	NameZh    string   `json:"name_zh,omitempty"`
	Position  string   `json:"position,omitempty"`
	HIndex    *int64   `json:"h_index,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// Author identifies a publication author by both names.
type Author struct {
	Name   string `json:"name"`
	NameZh string `json:"name_zh,omitempty"`
}

// Publication is a paper. Year is 0 when the graph records none.
type Publication struct {
	Title   string   `json:"title"`
	Year    int64    `json:"year,omitempty"`
	Authors []Author `json:"authors,omitempty"`
}

// PublicationFields is a paper with the research fields its authors
// are interested in.
type PublicationFields struct {
	Title   string   `json:"title"`
	Year    int64    `json:"year,omitempty"`
	Fields  []string `json:"fields"`
	Authors []Author `json:"authors,omitempty"`
}

// Collaboration is the set of co-authored papers between two experts.
type Collaboration struct {
	Expert1 string   `json:"expert1"`
	Expert2 string   `json:"expert2"`
	Titles  []string `json:"titles"`
}

// NetworkNode is a vertex in a rendered graph.
type NetworkNode struct {
	Name string `json:"name"`
}

// NetworkLink is an edge in a rendered graph. Weight is 0 for
// unweighted networks.
type NetworkLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int64  `json:"weight,omitempty"`
}

// Network is a node-link structure suitable for visualization.
type Network struct {
	Nodes []NetworkNode `json:"nodes"`
	Links []NetworkLink `json:"links"`
}

// FieldCount is the number of experts interested in a field.
type FieldCount struct {
	Field string `json:"field"`
	Count int64  `json:"count"`
}

// YearCount is the number of publications in a year.
type YearCount struct {
	Year  int64 `json:"year"`
	Count int64 `json:"count"`
}

// ExpertWork pairs an expert with one of their paper titles.
type ExpertWork struct {
	Expert string `json:"expert"`
	Title  string `json:"title"`
}
