package qa

import (
	"regexp"
	"strings"
)

// Rule matches one fresh-question shape. Patterns are anchored at the
// start of the question, mirroring prefix matching. Extract returns
// ExtractNone to let the dispatcher try the next rule.
type Rule struct {
	Pattern *regexp.Regexp
	Intent  Intent
	Extract func(m []string) Extraction
}

// FollowUpRule matches one follow-up shape; the referent (an expert or
// topic) comes from dialog context, so extraction happens in the
// dispatcher.
type FollowUpRule struct {
	Pattern *regexp.Regexp
	Kind    FollowUpKind
}

// compoundPattern is "研究<field>的<expert>的<sub-question>", checked
// before everything else because the generic rules below would otherwise
// swallow the "X的Y" shape.
var compoundPattern = regexp.MustCompile(`^研究(.*?)的(.*?)(的)(.*)`)

// freshRules is the ordered fresh-question rule table. Order is load
// bearing: earlier rules win, and several patterns overlap.
var freshRules = []Rule{
	{
		Pattern: regexp.MustCompile(`^谁研究(了)?([^领域？]+?)(领域)?[?？]?$`),
		Intent:  IntentExpertByInterest,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[2])) },
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)的(研究)?领域(是什么|有哪些)?`),
		Intent:  IntentExpertInterests,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)的h指数是多少`),
		Intent:  IntentExpertHIndex,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)发表了(什么|哪些)论文`),
		Intent:  IntentExpertPublications,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)这篇论文的作者是谁`),
		Intent:  IntentPublicationAuthors,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)(领域|方向)(的)?(关)?(论文|文章)(有哪些|是什么)?[?？]?$`),
		Intent:  IntentFieldPublications,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)和(.*?)有(什么)?合作(关系)?吗?`),
		Intent:  IntentCooperation,
		Extract: func(m []string) Extraction {
			return pair(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
		},
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)(领域|方向|研究).*?(最强|排名|指数|专家|学|研究员).*?`),
		Intent:  IntentTopExpertsInField,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)(领域|方向)?(最近|近期|最新)的?(研究)?论文`),
		Intent:  IntentRecentFieldPublications,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
	{
		// Looser variant with 的 between field and recency marker
		Pattern: regexp.MustCompile(`^(.*?)(领域|方向)?的?(最近|近期|最新)(研究)?论文`),
		Intent:  IntentRecentFieldPublications,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)(这篇)?论文(发表)?在哪(一)?年`),
		Intent:  IntentPublicationYear,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
	{
		Pattern: regexp.MustCompile(`^(.*?)(这篇)?论文属于(什么|哪个|哪些)领域`),
		Intent:  IntentPublicationField,
		Extract: func(m []string) Extraction { return single(strings.TrimSpace(m[1])) },
	},
}

// followUpRules is the ordered follow-up rule table, consulted only
// while dialog context is valid.
var followUpRules = []FollowUpRule{
	{
		Pattern: regexp.MustCompile(`^(他们)(之间)?(的|还有|是|有)?(.*?)(吗)?[?？]?$`),
		Kind:    FollowUpExperts,
	},
	{
		Pattern: regexp.MustCompile(`^(他|她|这个专家)(的|还有|是|有)?([^？?]*)(吗)?[?？]?$`),
		Kind:    FollowUpExpert,
	},
	{
		Pattern: regexp.MustCompile(`^(这个领域|该领域|这一领域)(的|还有|是|有)?(.*?)(有哪些|是什么)?(吗)?[?？]?$`),
		Kind:    FollowUpField,
	},
	{
		Pattern: regexp.MustCompile(`^(还有吗|更多|继续|其他的)`),
		Kind:    FollowUpMoreInfo,
	},
}

// questionTypeCores are the core words a follow-up question type is
// reduced to, checked in order.
var questionTypeCores = []string{"论文", "专家", "合作"}

// extractQuestionType reduces follow-up text like "论文有哪些" to its
// core word.
func extractQuestionType(text string) string {
	text = strings.ReplaceAll(text, "有哪些", "")
	text = strings.ReplaceAll(text, "是什么", "")
	text = strings.TrimSpace(text)
	for _, core := range questionTypeCores {
		if strings.Contains(text, core) {
			return core
		}
	}
	return text
}
