package qa

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/yumeleng/scholar-qa-go/internal/dialog"
	"github.com/yumeleng/scholar-qa-go/internal/field"
	"github.com/yumeleng/scholar-qa-go/internal/kb"
	"github.com/yumeleng/scholar-qa-go/internal/logger"
)

// fakeStore serves canned knowledge graph data keyed the same way the
// real gateway queries it.
type fakeStore struct {
	experts        map[string][]kb.Expert // exact interest name match
	fuzzyExperts   map[string][]kb.Expert // substring interest match
	interests      map[string][]kb.ExpertProfile
	hIndexes       map[string][]kb.ExpertProfile
	hIndexesField  map[string][]kb.ExpertProfile // "name|field"
	pubs           map[string][]string
	authors        map[string][]string
	coop           map[string][]kb.Publication // "name1|name2"
	pairwise       []kb.Collaboration
	fieldPubs      map[string][]kb.Publication
	fieldPubsFuzzy map[string][]kb.Publication
	titlePubs      map[string][]kb.Publication
	pubFields      map[string][]kb.PublicationFields
	interestNames  []string
	moreInfo       map[string][]kb.ExpertWork
	err            error
	panicOn        string // interest name that triggers a handler panic
}

func (f *fakeStore) ExpertsByInterest(_ context.Context, field string) ([]kb.Expert, error) {
	if f.panicOn != "" && field == f.panicOn {
		panic("store exploded")
	}
	return f.experts[strings.ToLower(field)], f.err
}

func (f *fakeStore) ExpertsByInterestFuzzy(_ context.Context, field string) ([]kb.Expert, error) {
	return f.fuzzyExperts[strings.ToLower(field)], f.err
}

func (f *fakeStore) ExpertInterests(_ context.Context, name string) ([]kb.ExpertProfile, error) {
	return f.interests[name], f.err
}

func (f *fakeStore) ExpertHIndexes(_ context.Context, name string) ([]kb.ExpertProfile, error) {
	return f.hIndexes[name], f.err
}

func (f *fakeStore) ExpertHIndexesInField(_ context.Context, name, field string) ([]kb.ExpertProfile, error) {
	return f.hIndexesField[name+"|"+field], f.err
}

func (f *fakeStore) ExpertPublications(_ context.Context, name string) ([]string, error) {
	return f.pubs[name], f.err
}

func (f *fakeStore) PublicationAuthors(_ context.Context, title string) ([]string, error) {
	return f.authors[title], f.err
}

func (f *fakeStore) Cooperation(_ context.Context, name1, name2 string) ([]kb.Publication, error) {
	return f.coop[name1+"|"+name2], f.err
}

func (f *fakeStore) PairwiseCollaborations(_ context.Context, _ []string) ([]kb.Collaboration, error) {
	return f.pairwise, f.err
}

func (f *fakeStore) FieldPublications(_ context.Context, field string, fuzzy bool, _ int) ([]kb.Publication, error) {
	if fuzzy {
		return f.fieldPubsFuzzy[strings.ToLower(field)], f.err
	}
	return f.fieldPubs[strings.ToLower(field)], f.err
}

func (f *fakeStore) RecentFieldPublications(ctx context.Context, field string, fuzzy bool, limit int) ([]kb.Publication, error) {
	return f.FieldPublications(ctx, field, fuzzy, limit)
}

func (f *fakeStore) PublicationsByTitle(_ context.Context, title string) ([]kb.Publication, error) {
	return f.titlePubs[title], f.err
}

func (f *fakeStore) PublicationFields(_ context.Context, title string) ([]kb.PublicationFields, error) {
	return f.pubFields[title], f.err
}

func (f *fakeStore) AllInterestNames(_ context.Context) ([]string, error) {
	return f.interestNames, f.err
}

func (f *fakeStore) MoreInformation(_ context.Context, topic string, _ int) ([]kb.ExpertWork, error) {
	return f.moreInfo[topic], f.err
}

func intPtr(n int64) *int64 { return &n }

func newTestEngine(t *testing.T, store Store) *Engine {
	t.Helper()
	norm := field.NewNormalizer()
	suggest, err := field.NewSuggester(norm, 5)
	if err != nil {
		t.Fatalf("failed to build suggester: %v", err)
	}
	log := logger.NewWithWriter("error", io.Discard)
	return NewEngine(store, norm, suggest, log, nil, Limits{
		FieldPubsLimit:  10,
		RecentPubsLimit: 5,
		MoreInfoLimit:   5,
	})
}

func newDialogContext() *dialog.Context {
	return dialog.NewContext(5 * time.Minute)
}

func TestAnswerExpertByInterest(t *testing.T) {
	// Scenario: Chinese alias resolves to the canonical field and the
	// listed experts become the follow-up referents.
	store := &fakeStore{
		experts: map[string][]kb.Expert{
			"natural language generation": {
				{Name: "Ehud Reiter", HIndex: intPtr(40), Position: "Professor"},
			},
		},
	}
	e := newTestEngine(t, store)
	dctx := newDialogContext()

	answer := e.Answer(context.Background(), dctx, "谁研究了自然语言生成领域？")

	if !strings.Contains(answer, "Ehud Reiter") {
		t.Errorf("answer missing expert name: %q", answer)
	}
	if !strings.Contains(answer, "自然语言生成 (Natural Language Generation)") {
		t.Errorf("answer missing dual field display: %q", answer)
	}
	if got := dctx.LastEntities(); len(got) != 1 || got[0] != "Ehud Reiter" {
		t.Errorf("LastEntities = %v, want [Ehud Reiter]", got)
	}
	if got := dctx.LastTopic(); got != "自然语言生成" {
		t.Errorf("LastTopic = %q, want 自然语言生成", got)
	}
	if !dctx.Valid() {
		t.Error("context invalid right after an answered turn")
	}
}

func TestAnswerExpertFollowUp(t *testing.T) {
	// Scenario: "他" resolves to the previously listed expert.
	store := &fakeStore{
		experts: map[string][]kb.Expert{
			"natural language generation": {
				{Name: "Ehud Reiter", HIndex: intPtr(40)},
			},
		},
		hIndexes: map[string][]kb.ExpertProfile{
			"Ehud Reiter": {
				{Name: "Ehud Reiter", HIndex: intPtr(40)},
			},
		},
	}
	e := newTestEngine(t, store)
	dctx := newDialogContext()

	e.Answer(context.Background(), dctx, "谁研究了自然语言生成领域？")
	answer := e.Answer(context.Background(), dctx, "他的h指数是多少")

	if !strings.Contains(answer, "Ehud Reiter") || !strings.Contains(answer, "40") {
		t.Errorf("follow-up answer = %q, want Ehud Reiter's h-index", answer)
	}
}

func TestAnswerCooperationNoJointPapers(t *testing.T) {
	// Scenario: no collaboration is an explicit negative answer.
	e := newTestEngine(t, &fakeStore{})
	dctx := newDialogContext()

	answer := e.Answer(context.Background(), dctx, "Ehud Reiter和Robert Dale有合作吗")

	want := "未发现Ehud Reiter和Robert Dale有直接的合作论文"
	if answer != want {
		t.Errorf("answer = %q, want %q", answer, want)
	}
}

func TestAnswerExpiredContextSkipsFollowUps(t *testing.T) {
	// Scenario: with the TTL lapsed, "还有吗" matches nothing.
	store := &fakeStore{
		moreInfo: map[string][]kb.ExpertWork{
			"机器学习": {{Expert: "张三", Title: "Some Paper"}},
		},
	}
	e := newTestEngine(t, store)
	dctx := dialog.NewContext(time.Nanosecond)
	dctx.Update("q", "a", []string{"张三"}, "机器学习")
	time.Sleep(time.Millisecond)

	answer := e.Answer(context.Background(), dctx, "还有吗")

	if answer != answerNotUnderstood {
		t.Errorf("answer = %q, want not-understood", answer)
	}
	if got := dctx.LastTopic(); got != "机器学习" {
		t.Errorf("context mutated on not-understood turn: LastTopic = %q", got)
	}
}

func TestAnswerMoreInfoFollowUp(t *testing.T) {
	store := &fakeStore{
		moreInfo: map[string][]kb.ExpertWork{
			"机器学习": {{Expert: "张三", Title: "Learning to Learn"}},
		},
	}
	e := newTestEngine(t, store)
	dctx := newDialogContext()
	dctx.Update("q", "a", []string{"张三"}, "机器学习")

	answer := e.Answer(context.Background(), dctx, "还有吗")

	if !strings.Contains(answer, "这里是一些相关的额外信息") {
		t.Errorf("answer = %q, want more-info listing", answer)
	}
	if !strings.Contains(answer, "张三 发表的论文: Learning to Learn") {
		t.Errorf("answer = %q, missing work entry", answer)
	}
}

func TestAnswerFuzzyFallback(t *testing.T) {
	// Exact match empty, substring match populated: substring wins over
	// a not-found answer.
	store := &fakeStore{
		fuzzyExperts: map[string][]kb.Expert{
			"natural language": {
				{Name: "Ehud Reiter", HIndex: intPtr(40)},
			},
		},
	}
	e := newTestEngine(t, store)

	answer := e.Answer(context.Background(), newDialogContext(), "谁研究自然语言")

	if !strings.Contains(answer, "Ehud Reiter") {
		t.Errorf("answer = %q, want fuzzy-matched expert", answer)
	}
}

func TestAnswerSimilarFieldSuggestions(t *testing.T) {
	store := &fakeStore{
		interestNames: []string{"Natural Language Processing", "Natural Language Generation", "Robotics"},
	}
	e := newTestEngine(t, store)

	answer := e.Answer(context.Background(), newDialogContext(), "谁研究NLP")

	if !strings.Contains(answer, "您是不是想找这些领域?") {
		t.Errorf("answer = %q, want similar-field suggestion", answer)
	}
	if !strings.Contains(answer, "Natural Language Processing") {
		t.Errorf("answer = %q, missing suggested field", answer)
	}
	if strings.Contains(answer, "Robotics") {
		t.Errorf("answer = %q, contains unrelated field", answer)
	}
}

func TestAnswerDisambiguation(t *testing.T) {
	store := &fakeStore{
		interests: map[string][]kb.ExpertProfile{
			"张三": {
				{Name: "张三", Position: "教授", Interests: []string{"Machine Learning"}},
				{Name: "张三丰", Position: "副教授", Interests: []string{"Computer Vision"}},
			},
		},
	}
	e := newTestEngine(t, store)
	dctx := newDialogContext()

	answer := e.Answer(context.Background(), dctx, "张三的研究领域是什么")

	if !strings.Contains(answer, "找到多位名为 张三 的专家") {
		t.Errorf("answer = %q, want disambiguation header", answer)
	}
	if !strings.Contains(answer, "1. 张三") || !strings.Contains(answer, "2. 张三丰") {
		t.Errorf("answer = %q, want every candidate listed", answer)
	}
	if !strings.Contains(answer, "请提供更多信息以确定具体是哪位专家") {
		t.Errorf("answer = %q, want clarification request", answer)
	}
}

func TestAnswerCompoundQuestion(t *testing.T) {
	store := &fakeStore{
		hIndexesField: map[string][]kb.ExpertProfile{
			"张三|Machine Learning": {
				{Name: "张三", HIndex: intPtr(25), Interests: []string{"Machine Learning"}},
			},
		},
	}
	e := newTestEngine(t, store)

	answer := e.Answer(context.Background(), newDialogContext(), "研究机器学习的张三的h指数是多少")

	if !strings.Contains(answer, "25") {
		t.Errorf("answer = %q, want field-scoped h-index", answer)
	}
	if !strings.Contains(answer, "Machine Learning") {
		t.Errorf("answer = %q, want the matched interest shown", answer)
	}
}

func TestAnswerCompoundFallsBackToPlainName(t *testing.T) {
	// Field filter excludes everything; the handler retries by name.
	store := &fakeStore{
		hIndexes: map[string][]kb.ExpertProfile{
			"张三": {{Name: "张三", HIndex: intPtr(25)}},
		},
	}
	e := newTestEngine(t, store)

	answer := e.Answer(context.Background(), newDialogContext(), "研究量子计算的张三的h指数是多少")

	if !strings.Contains(answer, "25") {
		t.Errorf("answer = %q, want plain-name h-index", answer)
	}
}

func TestAnswerPairwiseCollaborationFollowUp(t *testing.T) {
	store := &fakeStore{
		experts: map[string][]kb.Expert{
			"machine learning": {
				{Name: "张三", HIndex: intPtr(20)},
				{Name: "李四", HIndex: intPtr(18)},
			},
		},
		pairwise: []kb.Collaboration{
			{Expert1: "张三", Expert2: "李四", Titles: []string{"P1", "P2", "P3", "P4", "P5"}},
		},
	}
	e := newTestEngine(t, store)
	dctx := newDialogContext()

	e.Answer(context.Background(), dctx, "谁研究机器学习")
	answer := e.Answer(context.Background(), dctx, "他们之间有合作吗")

	if !strings.Contains(answer, "张三 和 李四 有 5 篇合作论文") {
		t.Errorf("answer = %q, want pairwise collaboration count", answer)
	}
	if !strings.Contains(answer, "... 等5篇论文") {
		t.Errorf("answer = %q, want overflow marker", answer)
	}
	if strings.Contains(answer, "P4") {
		t.Errorf("answer = %q, lists more than %d titles", answer, collabTitlesShown)
	}
}

func TestAnswerFieldFollowUp(t *testing.T) {
	store := &fakeStore{
		experts: map[string][]kb.Expert{
			"machine learning": {{Name: "张三", HIndex: intPtr(20)}},
		},
		fieldPubs: map[string][]kb.Publication{
			"machine learning": {{Title: "Deep Nets", Year: 2023}},
		},
	}
	e := newTestEngine(t, store)
	dctx := newDialogContext()

	e.Answer(context.Background(), dctx, "谁研究机器学习")
	answer := e.Answer(context.Background(), dctx, "这个领域的论文有哪些")

	if !strings.Contains(answer, "Deep Nets") {
		t.Errorf("answer = %q, want field publications", answer)
	}
}

func TestAnswerIdempotentWithinTTL(t *testing.T) {
	store := &fakeStore{
		experts: map[string][]kb.Expert{
			"machine learning": {{Name: "张三", HIndex: intPtr(20)}},
		},
	}
	e := newTestEngine(t, store)
	dctx := newDialogContext()

	first := e.Answer(context.Background(), dctx, "谁研究机器学习")
	second := e.Answer(context.Background(), dctx, "谁研究机器学习")

	if first != second {
		t.Errorf("repeated question changed answer:\n%q\n%q", first, second)
	}
}

func TestAnswerNotUnderstood(t *testing.T) {
	e := newTestEngine(t, &fakeStore{})
	dctx := newDialogContext()

	answer := e.Answer(context.Background(), dctx, "今天天气怎么样啊啊")

	if answer != answerNotUnderstood {
		t.Errorf("answer = %q, want not-understood", answer)
	}
	if dctx.Valid() {
		t.Error("context advanced on a not-understood turn")
	}
}

func TestAnswerHandlerPanicBecomesApology(t *testing.T) {
	e := newTestEngine(t, &fakeStore{panicOn: "量子计算"})
	dctx := newDialogContext()

	answer := e.Answer(context.Background(), dctx, "谁研究量子计算")

	if !strings.HasPrefix(answer, answerErrorPrefix) {
		t.Errorf("answer = %q, want error apology", answer)
	}
	if dctx.Valid() {
		t.Error("context advanced on a failed turn")
	}
}

func TestAnswerPublicationYear(t *testing.T) {
	store := &fakeStore{
		titlePubs: map[string][]kb.Publication{
			"BERT": {
				{Title: "BERT: Pre-training of Deep Bidirectional Transformers", Year: 2019,
					Authors: []kb.Author{{Name: "Jacob Devlin"}}},
			},
		},
	}
	e := newTestEngine(t, store)

	answer := e.Answer(context.Background(), newDialogContext(), "BERT这篇论文发表在哪一年")

	if !strings.Contains(answer, "发表于 2019年") {
		t.Errorf("answer = %q, want publication year", answer)
	}
	if !strings.Contains(answer, "作者: Jacob Devlin") {
		t.Errorf("answer = %q, want author line", answer)
	}
}

func TestAnswerRecentFieldPublications(t *testing.T) {
	store := &fakeStore{
		fieldPubs: map[string][]kb.Publication{
			"deep learning": {
				{Title: "Paper A", Year: 2024, Authors: []kb.Author{{Name: "Zhang San", NameZh: "张三"}}},
				{Title: "Paper B", Year: 2023},
			},
		},
	}
	e := newTestEngine(t, store)

	answer := e.Answer(context.Background(), newDialogContext(), "深度学习领域最近的研究论文")

	if !strings.Contains(answer, "最近(2024年)的研究论文") {
		t.Errorf("answer = %q, want latest-year header", answer)
	}
	if !strings.Contains(answer, "张三 (Zhang San)") {
		t.Errorf("answer = %q, want dual author display for alias query", answer)
	}
}
