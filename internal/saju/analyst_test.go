package saju

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuckyMan0277/saju-app/internal/inference"
)

func testPillars() FourPillars {
	return FourPillars{Year: "庚午", Month: "辛巳", Day: "丙申", Hour: strPtr("戊子")}
}

func TestAnalyze_PromptScopedToOneSection(t *testing.T) {
	stub := &stubClient{responses: []string{"**결과** 내용"}}
	analyst := NewAnalyst(stub)

	got, err := analyst.Analyze(context.Background(), testPillars(), SectionWealth, "Kim", GenderMale)
	require.NoError(t, err)
	assert.Equal(t, "**결과** 내용", got)

	require.Len(t, stub.prompts, 1)
	prompt := stub.prompts[0]
	assert.Contains(t, prompt, "재물운")
	assert.NotContains(t, prompt, "건강운")
	assert.NotContains(t, prompt, "기본 성향")
	// Pillar codes and identity are embedded verbatim.
	assert.Contains(t, prompt, "庚午년 辛巳월 丙申일 戊子시")
	assert.Contains(t, prompt, "Kim")
	assert.Contains(t, prompt, "남성")
	// Presentation contract with the renderer.
	assert.Contains(t, prompt, "최소 5문장")
	assert.Contains(t, prompt, "마크다운")
}

func TestAnalyze_UnknownHourStatedExplicitly(t *testing.T) {
	stub := &stubClient{responses: []string{"내용"}}
	pillars := testPillars()
	pillars.Hour = nil

	_, err := NewAnalyst(stub).Analyze(context.Background(), pillars, SectionBasic, "Lee", GenderFemale)
	require.NoError(t, err)
	assert.Contains(t, stub.prompts[0], "태어난 시간 정보 없음")
	assert.Contains(t, stub.prompts[0], "여성")
}

func TestAnalyze_FutureAnchoredToRequestYear(t *testing.T) {
	stub := &stubClient{responses: []string{"내용"}}
	analyst := NewAnalyst(stub)
	analyst.now = func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }

	_, err := analyst.Analyze(context.Background(), testPillars(), SectionFuture, "Kim", GenderMale)
	require.NoError(t, err)
	assert.Contains(t, stub.prompts[0], "**2026년 운세**")
}

func TestAnalyze_Failures(t *testing.T) {
	t.Run("unknown section rejected before any call", func(t *testing.T) {
		stub := &stubClient{responses: []string{"내용"}}
		_, err := NewAnalyst(stub).Analyze(context.Background(), testPillars(), SectionKey("career"), "Kim", GenderMale)
		require.Error(t, err)
		assert.Empty(t, stub.prompts)
	})

	t.Run("empty narrative is an inference error", func(t *testing.T) {
		stub := &stubClient{responses: []string{""}}
		_, err := NewAnalyst(stub).Analyze(context.Background(), testPillars(), SectionBasic, "Kim", GenderMale)
		var infErr *inference.Error
		require.ErrorAs(t, err, &infErr)
	})
}

func TestSectionKey(t *testing.T) {
	assert.Equal(t, []SectionKey{SectionBasic, SectionWealth, SectionHealth, SectionFuture}, Sections())
	assert.True(t, SectionWealth.Valid())
	assert.False(t, SectionKey("love").Valid())
	assert.Equal(t, "기본 성향", SectionBasic.Title())
	assert.Equal(t, "올해의 운세", SectionFuture.Title())
}
