// Package qa is the dialogue engine: it matches questions against an
// ordered rule table, dispatches to intent handlers backed by the
// knowledge store, and threads per-session dialog context through
// follow-up questions.
package qa

// Intent identifies what a fresh question is asking for.
type Intent string

const (
	IntentExpertByInterest        Intent = "expert_by_interest"
	IntentExpertInterests         Intent = "expert_interests"
	IntentExpertHIndex            Intent = "expert_h_index"
	IntentExpertPublications      Intent = "expert_publications"
	IntentPublicationAuthors      Intent = "publication_authors"
	IntentFieldPublications       Intent = "field_publications"
	IntentCooperation             Intent = "cooperation"
	IntentTopExpertsInField       Intent = "top_experts_in_field"
	IntentRecentFieldPublications Intent = "recent_field_publications"
	IntentPublicationYear         Intent = "publication_year"
	IntentPublicationField        Intent = "publication_field"
)

// FollowUpKind identifies what a follow-up question refers back to.
type FollowUpKind string

const (
	FollowUpExperts  FollowUpKind = "experts_follow_up" // "他们之间有合作吗"
	FollowUpExpert   FollowUpKind = "expert_follow_up"  // "他的论文有哪些"
	FollowUpField    FollowUpKind = "field_follow_up"   // "这个领域的专家呢"
	FollowUpMoreInfo FollowUpKind = "more_info"         // "还有吗"
)

// ExtractionKind tags what a rule pulled out of the question.
type ExtractionKind int

const (
	ExtractNone   ExtractionKind = iota // nothing usable, try the next rule
	ExtractSingle                       // one entity (an expert, field, or title)
	ExtractPair                         // two entities (cooperation queries)
)

// Extraction is the entity material a rule extracted from a question.
type Extraction struct {
	Kind  ExtractionKind
	Value string
	Pair  [2]string
}

// Entities returns the extraction as the entity list recorded into
// dialog context.
func (e Extraction) Entities() []string {
	switch e.Kind {
	case ExtractSingle:
		return []string{e.Value}
	case ExtractPair:
		return []string{e.Pair[0], e.Pair[1]}
	}
	return nil
}

// Topic returns the dialog topic the extraction establishes. Pair
// extractions establish none.
func (e Extraction) Topic() string {
	if e.Kind == ExtractSingle {
		return e.Value
	}
	return ""
}

func single(value string) Extraction {
	return Extraction{Kind: ExtractSingle, Value: value}
}

func pair(a, b string) Extraction {
	return Extraction{Kind: ExtractPair, Pair: [2]string{a, b}}
}
