package qa

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yumeleng/scholar-qa-go/internal/dialog"
	"github.com/yumeleng/scholar-qa-go/internal/kb"
	"github.com/yumeleng/scholar-qa-go/internal/sliceutil"
)

// qualifiedNamePattern splits "研究<field>的<name>" inputs that reach
// the h-index handler through the compound question path.
var qualifiedNamePattern = regexp.MustCompile(`^研究(.*?)的(.*)`)

// handleExpertByInterest lists experts in a field. On success it records
// the listed experts into dialog context itself, so "他们" follow-ups
// refer to the experts rather than the field; updated reports whether
// that happened.
func (e *Engine) handleExpertByInterest(ctx context.Context, dctx *dialog.Context, interest string) (answer string, updated bool, err error) {
	fieldEn := e.norm.Normalize(interest)

	experts, err := e.store.ExpertsByInterest(ctx, fieldEn)
	if err != nil {
		return "", false, err
	}
	if len(experts) == 0 {
		experts, err = e.store.ExpertsByInterestFuzzy(ctx, fieldEn)
		if err != nil {
			return "", false, err
		}
	}
	if len(experts) == 0 {
		names, err := e.store.AllInterestNames(ctx)
		if err != nil {
			return "", false, err
		}
		if similar := e.suggest.Similar(fieldEn, names); len(similar) > 0 {
			return "抱歉,没有找到完全匹配的专家。您是不是想找这些领域?\n" + strings.Join(similar, ", "), false, nil
		}
		return fmt.Sprintf("抱歉,没有找到研究%s的专家", interest), false, nil
	}

	isChineseQuery := e.norm.IsAlias(interest)
	fieldDisplay := fieldEn
	if isChineseQuery {
		fieldDisplay = fmt.Sprintf("%s (%s)", interest, fieldEn)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "研究%s的主要专家有:\n", fieldDisplay)

	deduped := sliceutil.Deduplicate(experts, kb.Expert.DisplayName)
	entities := make([]string, 0, len(deduped))
	for _, expert := range deduped {
		name := expert.DisplayName()
		entities = append(entities, name)

		nameDisplay := name
		if isChineseQuery && expert.Name != "" && expert.NameZh != "" {
			nameDisplay = fmt.Sprintf("%s (%s)", name, expert.Name)
		}
		position := ""
		if expert.Position != "" {
			position = fmt.Sprintf("(%s)", expert.Position)
		}
		fmt.Fprintf(&b, "- %s %s h指数: %s\n", nameDisplay, position, formatHIndex(expert.HIndex))
	}

	answer = b.String()
	dctx.Update(fmt.Sprintf("查询%s领域专家", interest), answer, entities, interest)
	return answer, true, nil
}

func (e *Engine) handleExpertInterests(ctx context.Context, expertName string) (string, error) {
	profiles, err := e.store.ExpertInterests(ctx, expertName)
	if err != nil {
		return "", err
	}
	if len(profiles) == 0 {
		return fmt.Sprintf("抱歉，未找到专家 %s 的研究领域信息", expertName), nil
	}

	if len(profiles) > 1 {
		var b strings.Builder
		fmt.Fprintf(&b, "找到多位名为 %s 的专家：\n\n", expertName)
		for idx, profile := range profiles {
			position := ""
			if profile.Position != "" {
				position = fmt.Sprintf("，职位：%s", profile.Position)
			}
			interests := "，暂无研究领域信息"
			if len(profile.Interests) > 0 {
				interests = fmt.Sprintf("，研究领域：%s", strings.Join(capped(profile.Interests, 3), ", "))
			}
			fmt.Fprintf(&b, "%d. %s%s%s\n", idx+1, profile.Name, position, interests)
		}
		b.WriteString("\n请提供更多信息以确定具体是哪位专家。")
		return b.String(), nil
	}

	profile := profiles[0]
	if len(profile.Interests) == 0 {
		return fmt.Sprintf("抱歉，暂无 %s 的研究领域信息", profile.Name), nil
	}
	position := ""
	if profile.Position != "" {
		position = fmt.Sprintf("（%s）", profile.Position)
	}
	return fmt.Sprintf("%s%s 的研究领域包括：\n- %s", profile.Name, position, strings.Join(profile.Interests, "\n- ")), nil
}

func (e *Engine) handleExpertHIndex(ctx context.Context, expertName string) (string, error) {
	var (
		profiles    []kb.ExpertProfile
		err         error
		fieldScoped bool
	)
	if m := qualifiedNamePattern.FindStringSubmatch(expertName); m != nil {
		fieldScoped = true
		fieldEn := e.norm.Normalize(m[1])
		name := m[2]
		profiles, err = e.store.ExpertHIndexesInField(ctx, name, fieldEn)
		if err != nil {
			return "", err
		}
		if len(profiles) == 0 {
			// Field filter excluded everything; retry by name alone
			return e.handleExpertHIndex(ctx, name)
		}
	} else {
		profiles, err = e.store.ExpertHIndexes(ctx, expertName)
		if err != nil {
			return "", err
		}
		if len(profiles) == 0 {
			return fmt.Sprintf("抱歉，未找到专家 %s 的信息", expertName), nil
		}
	}

	if len(profiles) > 1 {
		var b strings.Builder
		b.WriteString("找到多位相关专家：\n\n")
		for idx, profile := range profiles {
			position := ""
			if profile.Position != "" {
				position = fmt.Sprintf("，职位：%s", profile.Position)
			}
			interests := ""
			if len(profile.Interests) > 0 {
				shown := profile.Interests
				if !fieldScoped {
					shown = capped(shown, 3)
				}
				interests = fmt.Sprintf("，研究领域：%s", strings.Join(shown, ", "))
			}
			hIndex := ""
			if profile.HIndex != nil {
				hIndex = fmt.Sprintf("，h指数：%d", *profile.HIndex)
			}
			fmt.Fprintf(&b, "%d. %s%s%s%s\n", idx+1, profile.Name, position, interests, hIndex)
		}
		return b.String(), nil
	}

	profile := profiles[0]
	if profile.HIndex == nil {
		return fmt.Sprintf("抱歉，暂无 %s 的h指数信息", profile.Name), nil
	}
	position := ""
	if profile.Position != "" {
		position = fmt.Sprintf("（%s）", profile.Position)
	}
	interest := ""
	if fieldScoped && len(profile.Interests) > 0 {
		interest = fmt.Sprintf("，研究领域：%s", profile.Interests[0])
	}
	return fmt.Sprintf("%s%s%s 的h指数为: %d", profile.Name, position, interest, *profile.HIndex), nil
}

func (e *Engine) handleExpertPublications(ctx context.Context, expertName string) (string, error) {
	titles, err := e.store.ExpertPublications(ctx, expertName)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return fmt.Sprintf("抱歉,没有找到%s发表的论文", expertName), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s发表的论文包括:\n", expertName)
	for _, title := range titles {
		fmt.Fprintf(&b, "- %s\n", title)
	}
	return b.String(), nil
}

func (e *Engine) handlePublicationAuthors(ctx context.Context, title string) (string, error) {
	authors, err := e.store.PublicationAuthors(ctx, title)
	if err != nil {
		return "", err
	}
	if len(authors) == 0 {
		return fmt.Sprintf("抱歉,没有找到论文《%s》的作者信息", title), nil
	}
	return fmt.Sprintf("论文《%s》的作者是: %s", title, strings.Join(authors, ", ")), nil
}

func (e *Engine) handleCooperation(ctx context.Context, expert1, expert2 string) (string, error) {
	pubs, err := e.store.Cooperation(ctx, expert1, expert2)
	if err != nil {
		return fmt.Sprintf("抱歉,查询合作关系时出现错误: %v", err), nil
	}
	if len(pubs) == 0 {
		return fmt.Sprintf("未发现%s和%s有直接的合作论文", expert1, expert2), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s和%s合作发表的论文:\n", expert1, expert2)
	for _, pub := range pubs {
		year := ""
		if pub.Year != 0 {
			year = fmt.Sprintf("(%d)", pub.Year)
		}
		fmt.Fprintf(&b, "- %s %s\n", pub.Title, year)
	}
	return b.String(), nil
}

func (e *Engine) handleTopExpertsInField(ctx context.Context, dctx *dialog.Context, fieldName string) (string, bool, error) {
	// Same listing as expert-by-interest, queried by the canonical name
	return e.handleExpertByInterest(ctx, dctx, e.norm.Normalize(fieldName))
}

func (e *Engine) handleFieldPublications(ctx context.Context, fieldName string) (string, error) {
	fieldEn := e.norm.Normalize(fieldName)

	pubs, err := e.store.FieldPublications(ctx, fieldEn, false, e.limits.FieldPubsLimit)
	if err != nil {
		return "", err
	}
	if len(pubs) == 0 {
		pubs, err = e.store.FieldPublications(ctx, fieldEn, true, e.limits.FieldPubsLimit)
		if err != nil {
			return "", err
		}
	}
	if len(pubs) == 0 {
		return fmt.Sprintf("抱歉，没有找到%s领域的相关论文", fieldName), nil
	}

	isChineseQuery := e.norm.IsAlias(fieldName)
	fieldDisplay := fieldEn
	if isChineseQuery {
		fieldDisplay = fmt.Sprintf("%s (%s)", fieldName, fieldEn)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s领域的相关论文包括:\n", fieldDisplay)
	writePublicationList(&b, pubs, isChineseQuery)
	return b.String(), nil
}

func (e *Engine) handleRecentFieldPublications(ctx context.Context, fieldName string) (string, error) {
	fieldEn := e.norm.Normalize(fieldName)

	pubs, err := e.store.RecentFieldPublications(ctx, fieldEn, false, e.limits.RecentPubsLimit)
	if err != nil {
		return "", err
	}
	if len(pubs) == 0 {
		pubs, err = e.store.RecentFieldPublications(ctx, fieldEn, true, e.limits.RecentPubsLimit)
		if err != nil {
			return "", err
		}
	}
	if len(pubs) == 0 {
		return fmt.Sprintf("抱歉，没有找到%s领域的相关论文", fieldName), nil
	}

	isChineseQuery := e.norm.IsAlias(fieldName)
	fieldDisplay := fieldEn
	if isChineseQuery {
		fieldDisplay = fmt.Sprintf("%s (%s)", fieldName, fieldEn)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s领域最近(%d年)的研究论文包括:\n", fieldDisplay, pubs[0].Year)
	writePublicationList(&b, pubs, isChineseQuery)
	return b.String(), nil
}

func (e *Engine) handlePublicationYear(ctx context.Context, title string) (string, error) {
	pubs, err := e.store.PublicationsByTitle(ctx, title)
	if err != nil {
		return "", err
	}
	if len(pubs) == 0 {
		return fmt.Sprintf("抱歉，没有找到标题包含 '%s' 的论文", title), nil
	}

	var b strings.Builder
	seen := make(map[string]struct{})
	for _, pub := range pubs {
		if _, ok := seen[pub.Title]; ok {
			continue
		}
		seen[pub.Title] = struct{}{}

		year := "未知"
		if pub.Year != 0 {
			year = fmt.Sprintf("%d", pub.Year)
		}
		fmt.Fprintf(&b, "论文 '%s' 发表于 %s年\n", pub.Title, year)
		if authors := authorDisplays(pub.Authors, true); len(authors) > 0 {
			fmt.Fprintf(&b, "作者: %s\n", strings.Join(authors, ", "))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func (e *Engine) handlePublicationField(ctx context.Context, title string) (string, error) {
	pubs, err := e.store.PublicationFields(ctx, title)
	if err != nil {
		return "", err
	}
	if len(pubs) == 0 {
		return fmt.Sprintf("抱歉，没有找到标题包含 '%s' 的论文", title), nil
	}

	var b strings.Builder
	seen := make(map[string]struct{})
	for _, pub := range pubs {
		if _, ok := seen[pub.Title]; ok {
			continue
		}
		seen[pub.Title] = struct{}{}

		fieldsDisplay := "未知"
		if len(pub.Fields) > 0 {
			fieldsDisplay = strings.Join(pub.Fields, ", ")
		}
		year := ""
		if pub.Year != 0 {
			year = fmt.Sprintf(" (%d年)", pub.Year)
		}
		authors := ""
		if displays := authorDisplays(pub.Authors, true); len(displays) > 0 {
			authors = fmt.Sprintf("\n作者: %s", strings.Join(displays, ", "))
		}
		fmt.Fprintf(&b, "论文 '%s'%s 的研究领域包括:\n- %s%s\n", pub.Title, year, fieldsDisplay, authors)
	}
	return strings.TrimSpace(b.String()), nil
}

// writePublicationList renders "- title (year) - 作者: ..." rows,
// skipping repeated titles.
func writePublicationList(b *strings.Builder, pubs []kb.Publication, dualNames bool) {
	seen := make(map[string]struct{})
	for _, pub := range pubs {
		if _, ok := seen[pub.Title]; ok {
			continue
		}
		seen[pub.Title] = struct{}{}

		year := ""
		if pub.Year != 0 {
			year = fmt.Sprintf("(%d)", pub.Year)
		}
		authors := ""
		if displays := authorDisplays(pub.Authors, dualNames); len(displays) > 0 {
			authors = fmt.Sprintf(" - 作者: %s", strings.Join(displays, ", "))
		}
		fmt.Fprintf(b, "- %s %s%s\n", pub.Title, year, authors)
	}
}

// authorDisplays renders author names, pairing Chinese and English
// forms when dual display is on and both are known.
func authorDisplays(authors []kb.Author, dual bool) []string {
	displays := make([]string, 0, len(authors))
	for _, author := range authors {
		switch {
		case dual && author.Name != "" && author.NameZh != "":
			displays = append(displays, fmt.Sprintf("%s (%s)", author.NameZh, author.Name))
		case author.NameZh != "":
			displays = append(displays, author.NameZh)
		default:
			displays = append(displays, author.Name)
		}
	}
	return displays
}

func formatHIndex(h *int64) string {
	if h == nil {
		return "未知"
	}
	return fmt.Sprintf("%d", *h)
}

// capped returns at most n leading items.
func capped(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
