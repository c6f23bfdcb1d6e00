package saju

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LuckyMan0277/saju-app/internal/inference"
)

// PillarParseError reports that the stage-1 response could not be
// parsed into a complete four-pillar structure. It is fatal to the
// request: a corrupted pillar value would corrupt every section built
// on it, so this stage never retries.
type PillarParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *PillarParseError) Error() string {
	return "AI로부터 사주팔자를 계산하는 데 실패했습니다."
}

func (e *PillarParseError) Unwrap() error { return e.Err }

// Normalizer converts a birth profile into the four stem-branch
// pillars via a single structured-output model call.
type Normalizer struct {
	client inference.Client
}

// NewNormalizer creates a Normalizer backed by the given gateway.
func NewNormalizer(client inference.Client) *Normalizer {
	return &Normalizer{client: client}
}

// Normalize computes the four pillars for the profile. Failures are
// either *inference.Error (gateway) or *PillarParseError (shape).
func (n *Normalizer) Normalize(ctx context.Context, profile BirthProfile) (FourPillars, error) {
	text, err := n.client.Generate(ctx, buildPillarPrompt(profile))
	if err != nil {
		return FourPillars{}, err
	}
	return parsePillars(text)
}

// buildPillarPrompt encodes the calendar system, leap-month flag, full
// date and hour-or-unknown, plus the fixed computation rules. The
// output contract is JSON only, four string fields, nullable hour.
func buildPillarPrompt(profile BirthProfile) string {
	leapMonthText := ""
	if profile.Calendar == CalendarLunar && profile.LeapMonth {
		leapMonthText = " (윤달)"
	}
	hourText := "모름"
	if profile.Hour != nil {
		hourText = fmt.Sprintf("%d시", *profile.Hour)
	}

	return fmt.Sprintf(`너는 이제부터 사주 명리학의 만세력 계산기야. 내가 주는 생년월일시를 정확한 사주팔자로 변환하여 **오직 JSON 형식으로만 응답해야 해. 다른 설명이나 추가적인 텍스트는 절대 포함하지 마.**

**계산 규칙:**
1. 한 해의 시작은 양력 1월 1일이 아닌 **입춘(立春)** 절입 시각이야.
2. 한 달의 시작은 매월 1일이 아닌, **각 월의 절기(예: 경칩, 청명 등)**가 시작되는 시각이야.
3. 시간(시주) 계산은 태어난 날의 일간(日干)을 기준으로 정확하게 계산해야 해.

**입력 정보:**
- 기준: %s
- 생년월일: %d년 %d월 %d일%s
- 태어난 시간: %s

**출력 형식 (JSON):**
- 예시: { "year": "甲子", "month": "丙寅", "day": "丁卯", "hour": "戊辰" }
- 태어난 시간을 모를 경우, hour 필드는 null로 설정해줘.`,
		profile.Calendar.Label(), profile.Year, profile.Month, profile.Day, leapMonthText, hourText)
}

// parsePillars validates the strict four-field shape. Markdown fences
// the model may wrap around the payload are stripped first; beyond
// that, only an exact structural match is accepted.
func parsePillars(text string) (FourPillars, error) {
	cleaned := stripFences(text)

	var pillars FourPillars
	if err := json.Unmarshal([]byte(cleaned), &pillars); err != nil {
		// Models occasionally wrap the object in prose despite the
		// JSON-only instruction. Extract the first object literal
		// before giving up.
		block := extractObject(cleaned)
		if block == "" {
			return FourPillars{}, &PillarParseError{Reason: "not a JSON object", Raw: text, Err: err}
		}
		if err := json.Unmarshal([]byte(block), &pillars); err != nil {
			return FourPillars{}, &PillarParseError{Reason: "invalid JSON", Raw: text, Err: err}
		}
	}

	if !pillars.Complete() {
		return FourPillars{}, &PillarParseError{Reason: "missing pillar field", Raw: text}
	}
	if pillars.Hour != nil && *pillars.Hour == "" {
		return FourPillars{}, &PillarParseError{Reason: "empty hour pillar", Raw: text}
	}
	return pillars, nil
}

// stripFences removes ```json / ``` markers and surrounding space.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractObject returns the first balanced {...} block in s, or "".
func extractObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
