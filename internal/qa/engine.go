package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yumeleng/scholar-qa-go/internal/dialog"
	"github.com/yumeleng/scholar-qa-go/internal/field"
	"github.com/yumeleng/scholar-qa-go/internal/logger"
	"github.com/yumeleng/scholar-qa-go/internal/metrics"
	"github.com/yumeleng/scholar-qa-go/internal/sentry"
	"github.com/yumeleng/scholar-qa-go/internal/stringutil"
)

const (
	answerNotUnderstood      = "抱歉，我还不能理解这个问题"
	answerFollowUpNotGrasped = "抱歉，我不理解您的追问"
	answerErrorPrefix        = "抱歉，处理您的问题时出现错误: "
)

// Limits bounds list-shaped answers.
type Limits struct {
	FieldPubsLimit  int // papers per field listing
	RecentPubsLimit int // papers per recent-papers listing
	MoreInfoLimit   int // entries per "还有吗" answer
}

// Engine resolves questions to answers. Engines are safe for concurrent
// use; per-session state lives in the dialog context passed to Answer.
type Engine struct {
	store   Store
	norm    *field.Normalizer
	suggest *field.Suggester
	log     *logger.Logger
	metrics *metrics.Metrics
	limits  Limits
}

// NewEngine builds a dialogue engine over a knowledge store.
func NewEngine(store Store, norm *field.Normalizer, suggest *field.Suggester, log *logger.Logger, m *metrics.Metrics, limits Limits) *Engine {
	return &Engine{
		store:   store,
		norm:    norm,
		suggest: suggest,
		log:     log.WithModule("qa"),
		metrics: m,
		limits:  limits,
	}
}

// Answer resolves one question against the knowledge store and the
// session's dialog context. It always returns a user-facing string:
// handler errors and panics become an apology with the error message,
// and the dialog context is left untouched on failure.
func (e *Engine) Answer(ctx context.Context, dctx *dialog.Context, question string) (answer string) {
	question = stringutil.NormalizeWidth(question)
	start := time.Now()
	intent := "unknown"
	status := "ok"

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("handler panic: %v", r)
			e.log.WithError(err).WithField("question", question).Errorf("question handler panicked")
			sentry.CaptureError(ctx, err)
			status = "panic"
			answer = answerErrorPrefix + fmt.Sprint(r)
		}
		e.metrics.RecordQuestion(intent, status, time.Since(start).Seconds())
	}()

	// Compound "研究X的Y的..." questions first; the generic rules would
	// split them at the wrong 的 otherwise.
	if m := compoundPattern.FindStringSubmatch(question); m != nil {
		fieldName, expert, sub := m[1], m[2], m[4]
		qualified := fmt.Sprintf("研究%s的%s", fieldName, expert)
		switch {
		case strings.Contains(sub, "h指数"):
			intent = string(IntentExpertHIndex)
			return e.dispatch(ctx, intent, &status, func() (string, error) {
				return e.handleExpertHIndex(ctx, qualified)
			})
		case strings.Contains(sub, "研究领域"):
			intent = string(IntentExpertInterests)
			return e.dispatch(ctx, intent, &status, func() (string, error) {
				return e.handleExpertInterests(ctx, qualified)
			})
		case strings.Contains(sub, "论文"):
			intent = string(IntentExpertPublications)
			return e.dispatch(ctx, intent, &status, func() (string, error) {
				return e.handleExpertPublications(ctx, qualified)
			})
		}
	}

	if dctx.Valid() {
		for _, rule := range followUpRules {
			m := rule.Pattern.FindStringSubmatch(question)
			if m == nil {
				continue
			}
			intent = string(rule.Kind)
			return e.dispatch(ctx, intent, &status, func() (string, error) {
				return e.handleFollowUp(ctx, dctx, rule.Kind, m)
			})
		}
	}

	for _, rule := range freshRules {
		m := rule.Pattern.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		extracted := rule.Extract(m)
		if extracted.Kind == ExtractSingle && extracted.Value == "" {
			continue
		}
		intent = string(rule.Intent)
		answer, ctxManaged, err := e.handleIntent(ctx, dctx, rule.Intent, extracted)
		if err != nil {
			status = "error"
			e.log.WithError(err).WithField("intent", intent).Errorf("question handler failed")
			sentry.CaptureError(ctx, err)
			return answerErrorPrefix + err.Error()
		}
		// Handlers that establish entity lists (expert search) record
		// them into context themselves; don't overwrite with the raw
		// extraction.
		if !ctxManaged {
			dctx.Update(question, answer, extracted.Entities(), extracted.Topic())
		}
		return answer
	}

	status = "not_understood"
	return answerNotUnderstood
}

// dispatch runs a handler, converting its error into the apology string
// and recording status.
func (e *Engine) dispatch(ctx context.Context, intent string, status *string, fn func() (string, error)) string {
	answer, err := fn()
	if err != nil {
		*status = "error"
		e.log.WithError(err).WithField("intent", intent).Errorf("question handler failed")
		sentry.CaptureError(ctx, err)
		return answerErrorPrefix + err.Error()
	}
	return answer
}

// handleIntent routes a fresh question to its handler. ctxManaged is
// true when the handler recorded its own entities into dialog context
// (expert search remembers the listed experts, not the query string).
func (e *Engine) handleIntent(ctx context.Context, dctx *dialog.Context, intent Intent, extracted Extraction) (answer string, ctxManaged bool, err error) {
	switch intent {
	case IntentExpertByInterest:
		return e.handleExpertByInterest(ctx, dctx, extracted.Value)
	case IntentExpertInterests:
		answer, err = e.handleExpertInterests(ctx, extracted.Value)
	case IntentExpertHIndex:
		answer, err = e.handleExpertHIndex(ctx, extracted.Value)
	case IntentExpertPublications:
		answer, err = e.handleExpertPublications(ctx, extracted.Value)
	case IntentPublicationAuthors:
		answer, err = e.handlePublicationAuthors(ctx, extracted.Value)
	case IntentFieldPublications:
		answer, err = e.handleFieldPublications(ctx, extracted.Value)
	case IntentCooperation:
		answer, err = e.handleCooperation(ctx, extracted.Pair[0], extracted.Pair[1])
	case IntentTopExpertsInField:
		return e.handleTopExpertsInField(ctx, dctx, extracted.Value)
	case IntentRecentFieldPublications:
		answer, err = e.handleRecentFieldPublications(ctx, extracted.Value)
	case IntentPublicationYear:
		answer, err = e.handlePublicationYear(ctx, extracted.Value)
	case IntentPublicationField:
		answer, err = e.handlePublicationField(ctx, extracted.Value)
	default:
		answer = answerNotUnderstood
	}
	return answer, false, err
}
