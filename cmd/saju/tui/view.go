// View rendering for the saju session.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LuckyMan0277/saju-app/internal/saju"
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("🔮 AI 사주팔자 분석 🔮"))
	sb.WriteString("\n")
	sb.WriteString(m.renderForm())
	sb.WriteString("\n")

	if m.sessionFailed {
		sb.WriteString(m.styles.Error.Render("분석에 실패했습니다: " + m.failMessage))
		sb.WriteString("\n")
		sb.WriteString(m.styles.Hint.Render("정보를 확인한 뒤 다시 제출해주세요."))
		sb.WriteString("\n")
	} else if m.submitting {
		sb.WriteString(fmt.Sprintf("%s 분석 중...\n", m.spinner.View()))
	} else if m.submitted {
		sb.WriteString(m.renderResults())
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderHelp())
	return sb.String()
}

func (m Model) renderForm() string {
	cursor := func(row int) string {
		if m.area == focusForm && m.focusRow == row {
			return m.styles.FocusCursor.Render("> ")
		}
		return "  "
	}
	choice := func(selected bool, label string) string {
		if selected {
			return m.styles.FocusCursor.Render("(●) " + label)
		}
		return m.styles.Hint.Render("(○) " + label)
	}

	var sb strings.Builder
	sb.WriteString(cursor(rowName) + m.styles.Label.Render("👤 이름  ") + m.inputs[inputName].View() + "\n")
	sb.WriteString(cursor(rowGender) + m.styles.Label.Render("🚻 성별  ") +
		choice(m.genderIdx == 0, "남자") + "  " + choice(m.genderIdx == 1, "여자") + "\n")

	calendarLine := cursor(rowCalendar) + m.styles.Label.Render("📅 구분  ") +
		choice(m.calendarIdx == 0, "양력") + "  " + choice(m.calendarIdx == 1, "음력")
	if m.calendarIdx == 1 {
		mark := "☐"
		if m.leapMonth {
			mark = "☑"
		}
		calendarLine += "  " + m.styles.Hint.Render(mark+" 윤달 (space)")
	}
	sb.WriteString(calendarLine + "\n")

	sb.WriteString(cursor(rowYear) + m.styles.Label.Render("生 년    ") + m.inputs[inputYear].View() + "\n")
	sb.WriteString(cursor(rowMonth) + m.styles.Label.Render("月 월    ") + m.inputs[inputMonth].View() + "\n")
	sb.WriteString(cursor(rowDay) + m.styles.Label.Render("日 일    ") + m.inputs[inputDay].View() + "\n")
	sb.WriteString(cursor(rowHour) + m.styles.Label.Render("⏰ 시간  ") + m.inputs[inputHour].View() + "\n")

	submit := m.styles.SubmitOff
	if m.formValid() && !m.submitting {
		submit = m.styles.SubmitOn
	}
	sb.WriteString(cursor(rowSubmit) + submit.Render("📿 사주 분석하기 📿") + "\n")
	return sb.String()
}

func (m Model) renderResults() string {
	tabs := make([]string, 0, len(saju.Sections()))
	for _, section := range saju.Sections() {
		style := m.styles.Tab
		if section == m.active {
			style = m.styles.ActiveTab
		}
		label := section.Title()
		switch m.status[section] {
		case statusLoading:
			label += " " + m.spinner.View()
		case statusErrored:
			label += " ✗"
		}
		tabs = append(tabs, style.Render(label))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...),
		m.styles.Content.Render(m.viewport.View()),
	)
}

// syncViewport refreshes the content pane for the active section.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	var content string
	switch m.status[m.active] {
	case statusLoading:
		content = fmt.Sprintf("AI가 열심히 %s을(를) 분석 중입니다...", m.active.Title())
	case statusDone:
		content = m.renderMarkdown(m.results[m.active])
	case statusErrored:
		content = m.styles.Error.Render(m.results[m.active])
	default:
		content = m.styles.Hint.Render("탭을 선택하면 분석을 시작합니다.")
	}
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

// renderMarkdown renders with glamour, falling back to plain text.
func (m Model) renderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()
	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) renderHelp() string {
	if m.area == focusResults {
		return m.styles.Hint.Render("1-4/←→ 탭 이동 · ↑↓ 스크롤 · tab 입력폼 · esc 종료")
	}
	return m.styles.Hint.Render("↑↓ 항목 이동 · ←→ 선택 · enter 제출 · esc 종료")
}
