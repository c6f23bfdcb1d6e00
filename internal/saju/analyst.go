package saju

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LuckyMan0277/saju-app/internal/inference"
)

// Analyst produces one narrative per topic section from an already
// computed set of pillars. Each call is independent: a failure in one
// section never affects another section's result.
type Analyst struct {
	client inference.Client
	now    func() time.Time
}

// NewAnalyst creates an Analyst backed by the given gateway.
func NewAnalyst(client inference.Client) *Analyst {
	return &Analyst{client: client, now: time.Now}
}

// Analyze requests the narrative for exactly one section. The returned
// text is opaque markdown-formatted prose; only non-emptiness is
// enforced here.
func (a *Analyst) Analyze(ctx context.Context, pillars FourPillars, section SectionKey, name string, gender Gender) (string, error) {
	if !section.Valid() {
		return "", fmt.Errorf("unknown section %q", section)
	}

	text, err := a.client.Generate(ctx, a.buildSectionPrompt(pillars, section, name, gender))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", &inference.Error{Op: "analyze", Err: errors.New("empty narrative")}
	}
	return text, nil
}

// buildSectionPrompt scopes the request to a single topic, embeds the
// pillar codes and states whether the hour pillar is known. Minimum
// length and markdown emphasis are part of the presentation contract
// with the renderer.
func (a *Analyst) buildSectionPrompt(pillars FourPillars, section SectionKey, name string, gender Gender) string {
	var sajuInfo string
	if pillars.Hour != nil {
		sajuInfo = fmt.Sprintf("이 사람의 사주팔자는 %s년 %s월 %s일 %s시 입니다.",
			pillars.Year, pillars.Month, pillars.Day, *pillars.Hour)
	} else {
		sajuInfo = fmt.Sprintf("이 사람의 사주는 %s년 %s월 %s일 입니다. (태어난 시간 정보 없음)",
			pillars.Year, pillars.Month, pillars.Day)
	}

	return fmt.Sprintf(`사용자의 이름은 %s, 성별은 %s입니다.
%s

당신은 한국에서 가장 저명한 명리학자입니다. 위 사주 정보를 바탕으로 전문적인 사주 명리학자의 관점에서 다음 요청사항에 대해서만, 다른 내용은 절대 포함하지 말고 상세하고 명리학을 모르는 사람이 봐도 이해할 수 있게끔 친절하게 설명해주세요.

- **오직 이 주제에 대해서만 설명하세요**: %s

**분량은 최소 5문장 이상으로, 매우 상세하고 풍부하게 설명해야 합니다.**
결과는 마크다운 형식을 사용해서 핵심적인 부분은 굵게 표시해주세요.
이모지를 적절히 사용하여 내용을 더 친근하게 만들어주세요.`,
		name, gender.Label(), sajuInfo, a.sectionTopic(section))
}

// sectionTopic returns the fixed topic fragment for the section. The
// future section is time-sensitive: it is anchored to the calendar
// year of the request.
func (a *Analyst) sectionTopic(section SectionKey) string {
	switch section {
	case SectionBasic:
		return "**기본 성향**: 이 사주를 가진 사람의 타고난 기질, 성격, 장점과 단점을 심도 있게 분석해주세요."
	case SectionWealth:
		return "**재물운**: 이 사주에 나타난 평생의 재물운 흐름과 돈을 벌기 위한 구체적인 조언을 해주세요."
	case SectionHealth:
		return "**건강운**: 이 사주를 통해 알 수 있는 주의해야 할 건강 문제와 건강을 유지하기 위한 실용적인 팁을 알려주세요."
	case SectionFuture:
		return fmt.Sprintf("**%d년 운세**: 이 사주를 가진 사람의 올해 전반적인 운세와 조심해야 할 점, 그리고 기회를 잡기 위한 조언을 이야기해주세요.", a.now().Year())
	}
	return ""
}
