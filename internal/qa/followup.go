package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/yumeleng/scholar-qa-go/internal/dialog"
)

// collabTitlesShown caps the titles listed per collaborating pair.
const collabTitlesShown = 3

// handleFollowUp resolves a follow-up question against dialog context.
// m is the submatch of the follow-up rule's pattern.
func (e *Engine) handleFollowUp(ctx context.Context, dctx *dialog.Context, kind FollowUpKind, m []string) (string, error) {
	outcome := "answered"
	defer func() { e.metrics.RecordFollowUp(outcome) }()

	switch kind {
	case FollowUpExperts:
		questionType := strings.TrimSpace(m[4])
		entities := dctx.LastEntities()
		if strings.Contains(questionType, "合作") && len(entities) >= 2 {
			return e.answerPairwiseCollaborations(ctx, entities)
		}
		outcome = "not_grasped"
		return "抱歉，我不太理解您想了解这些专家的什么信息", nil

	case FollowUpExpert:
		expertName := dctx.LastEntity()
		if expertName == "" {
			outcome = "no_referent"
			return "抱歉，我不确定您指的是哪位专家", nil
		}
		questionType := strings.TrimSpace(m[3])
		switch {
		case strings.Contains(questionType, "领域"):
			return e.handleExpertInterests(ctx, expertName)
		case strings.Contains(questionType, "论文"):
			return e.handleExpertPublications(ctx, expertName)
		case strings.Contains(questionType, "h指数"):
			return e.handleExpertHIndex(ctx, expertName)
		}

	case FollowUpField:
		fieldName := dctx.LastTopic()
		if fieldName == "" {
			outcome = "no_referent"
			return "抱歉，我不确定您指的是哪个领域", nil
		}
		questionType := extractQuestionType(m[3])
		switch {
		case strings.Contains(questionType, "专家"):
			answer, _, err := e.handleExpertByInterest(ctx, dctx, fieldName)
			return answer, err
		case strings.Contains(questionType, "论文"):
			return e.handleFieldPublications(ctx, fieldName)
		}

	case FollowUpMoreInfo:
		if topic := dctx.LastTopic(); topic != "" {
			return e.answerMoreInformation(ctx, topic)
		}
	}

	outcome = "not_grasped"
	return answerFollowUpNotGrasped, nil
}

// answerPairwiseCollaborations reports co-authored papers between every
// pair of the remembered experts.
func (e *Engine) answerPairwiseCollaborations(ctx context.Context, experts []string) (string, error) {
	collabs, err := e.store.PairwiseCollaborations(ctx, experts)
	if err != nil {
		return "", err
	}

	var sections []string
	for _, collab := range collabs {
		if len(collab.Titles) == 0 {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s 和 %s 有 %d 篇合作论文：\n", collab.Expert1, collab.Expert2, len(collab.Titles))
		for i, title := range collab.Titles {
			if i == collabTitlesShown {
				break
			}
			fmt.Fprintf(&b, "- %s\n", title)
		}
		section := strings.TrimRight(b.String(), "\n")
		if len(collab.Titles) > collabTitlesShown {
			section += fmt.Sprintf("\n... 等%d篇论文", len(collab.Titles))
		}
		sections = append(sections, section)
	}

	if len(sections) == 0 {
		return "这些专家之间未找到直接的合作论文", nil
	}
	return strings.Join(sections, "\n\n"), nil
}

// answerMoreInformation surfaces a few extra expert/paper pairs on the
// current topic.
func (e *Engine) answerMoreInformation(ctx context.Context, topic string) (string, error) {
	works, err := e.store.MoreInformation(ctx, topic, e.limits.MoreInfoLimit)
	if err != nil {
		return "", err
	}
	if len(works) == 0 {
		return fmt.Sprintf("抱歉，没有找到更多关于%s的信息", topic), nil
	}

	var b strings.Builder
	b.WriteString("这里是一些相关的额外信息:\n")
	for _, work := range works {
		fmt.Fprintf(&b, "- %s 发表的论文: %s\n", work.Expert, work.Title)
	}
	return b.String(), nil
}
