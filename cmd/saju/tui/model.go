// Package tui implements the interactive client session: the birth
// form, the per-section result cache and the status machine deciding
// when a section fetch is issued.
//
// Files:
//   - model.go: types, state transitions, Update loop (this file)
//   - view.go: rendering
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/LuckyMan0277/saju-app/cmd/saju/ui"
	"github.com/LuckyMan0277/saju-app/internal/client"
	"github.com/LuckyMan0277/saju-app/internal/saju"
)

// Fetcher is the API surface the session needs. *client.Client
// satisfies it; tests substitute a stub.
type Fetcher interface {
	GetSaju(ctx context.Context, req client.Request) (*client.Response, error)
}

// sectionStatus is the per-section lifecycle. errored is terminal for
// the session: re-selecting an errored section never refetches, only a
// new submit does.
type sectionStatus int

const (
	statusIdle sectionStatus = iota
	statusLoading
	statusDone
	statusErrored
)

// focusArea determines which half of the screen handles keys.
type focusArea int

const (
	focusForm focusArea = iota
	focusResults
)

// Indices into Model.inputs.
const (
	inputName = iota
	inputYear
	inputMonth
	inputDay
	inputHour
	inputCount
)

// Form rows in focus order. Non-input rows (gender, calendar, submit)
// are interleaved with the text inputs.
const (
	rowName = iota
	rowGender
	rowCalendar
	rowYear
	rowMonth
	rowDay
	rowHour
	rowSubmit
	rowCount
)

// sectionResultMsg carries one completed section fetch. session tags
// the submit generation the fetch belongs to; results from a previous
// generation are dropped so a fresh submit never sees stale data.
type sectionResultMsg struct {
	session int
	section saju.SectionKey
	result  string
	pillars *saju.FourPillars
	err     error
}

// Model is the client session state machine.
type Model struct {
	api    Fetcher
	styles ui.Styles

	// Form state
	inputs      []textinput.Model
	focusRow    int
	genderIdx   int // 0 = male, 1 = female
	calendarIdx int // 0 = solar, 1 = lunar
	leapMonth   bool

	// UI components
	spinner  spinner.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	area     focusArea
	width    int
	height   int
	ready    bool

	// Session state. The profile is frozen at submit; results and
	// status are keyed by section and reset only by the next submit.
	session       int
	submitted     bool
	submitting    bool
	sessionFailed bool
	failMessage   string
	profile       client.Request
	pillars       *saju.FourPillars
	results       map[saju.SectionKey]string
	status        map[saju.SectionKey]sectionStatus
	active        saju.SectionKey
}

// NewModel creates a fresh session model.
func NewModel(api Fetcher) Model {
	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].CharLimit = 32
		inputs[i].Width = 24
	}
	inputs[inputName].Placeholder = "이름을 입력하세요"
	inputs[inputYear].Placeholder = "태어난 년도 (4자리)"
	inputs[inputMonth].Placeholder = "태어난 월"
	inputs[inputDay].Placeholder = "태어난 일"
	inputs[inputHour].Placeholder = "0-23 (비워두면 모름)"
	inputs[inputName].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		api:     api,
		styles:  ui.DefaultStyles(),
		inputs:  inputs,
		spinner: sp,
		results: make(map[saju.SectionKey]string),
		status:  newStatusMap(),
		active:  saju.SectionBasic,
	}
}

func newStatusMap() map[saju.SectionKey]sectionStatus {
	m := make(map[saju.SectionKey]sectionStatus, len(saju.Sections()))
	for _, s := range saju.Sections() {
		m[s] = statusIdle
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// formValid mirrors the submit-enable predicate: name, year, month and
// day must be present. Gender, calendar and hour have defaults.
func (m Model) formValid() bool {
	if strings.TrimSpace(m.inputs[inputName].Value()) == "" {
		return false
	}
	for _, idx := range []int{inputYear, inputMonth, inputDay} {
		n, err := strconv.Atoi(strings.TrimSpace(m.inputs[idx].Value()))
		if err != nil || n <= 0 {
			return false
		}
	}
	return true
}

// buildRequest freezes the current form into an immutable profile.
func (m Model) buildRequest() client.Request {
	atoi := func(idx int) int {
		n, _ := strconv.Atoi(strings.TrimSpace(m.inputs[idx].Value()))
		return n
	}
	req := client.Request{
		Name:         strings.TrimSpace(m.inputs[inputName].Value()),
		Gender:       string(saju.GenderMale),
		CalendarType: string(saju.CalendarSolar),
		Year:         atoi(inputYear),
		Month:        atoi(inputMonth),
		Day:          atoi(inputDay),
	}
	if m.genderIdx == 1 {
		req.Gender = string(saju.GenderFemale)
	}
	if m.calendarIdx == 1 {
		req.CalendarType = string(saju.CalendarLunar)
		req.IsLeapMonth = m.leapMonth
	}
	if hourText := strings.TrimSpace(m.inputs[inputHour].Value()); hourText != "" {
		if h, err := strconv.Atoi(hourText); err == nil && h >= 0 && h <= 23 {
			req.Hour = &h
		}
	}
	return req
}

// submit starts a new session: all caches and statuses reset, the
// profile is frozen, basic becomes the active section and its fetch is
// issued. Invalid forms and in-flight submissions are no-ops.
func (m Model) submit() (Model, tea.Cmd) {
	if !m.formValid() || m.submitting {
		return m, nil
	}
	m.session++
	m.profile = m.buildRequest()
	m.pillars = nil
	m.results = make(map[saju.SectionKey]string)
	m.status = newStatusMap()
	m.active = saju.SectionBasic
	m.submitted = true
	m.submitting = true
	m.sessionFailed = false
	m.failMessage = ""
	m.status[saju.SectionBasic] = statusLoading
	return m, tea.Batch(m.spinner.Tick, m.fetchSection(saju.SectionBasic))
}

// selectSection makes a section active. Only an idle section triggers
// a fetch; loading, done and errored selections are pure view
// switches, so selecting twice costs exactly one network call.
func (m Model) selectSection(section saju.SectionKey) (Model, tea.Cmd) {
	if !m.submitted || m.submitting || m.sessionFailed {
		return m, nil
	}
	m.active = section
	m.syncViewport()
	if m.status[section] != statusIdle {
		return m, nil
	}
	m.status[section] = statusLoading
	return m, tea.Batch(m.spinner.Tick, m.fetchSection(section))
}

// fetchSection issues one section request. Cached pillars ride along
// so the server skips the pillar recomputation; the basic fetch has
// none yet and runs both stages.
func (m Model) fetchSection(section saju.SectionKey) tea.Cmd {
	api := m.api
	gen := m.session
	req := m.profile
	req.Section = string(section)
	req.Pillars = m.pillars
	return func() tea.Msg {
		resp, err := api.GetSaju(context.Background(), req)
		if err != nil {
			return sectionResultMsg{session: gen, section: section, err: err}
		}
		pillars := resp.Pillars
		return sectionResultMsg{session: gen, section: section, result: resp.SajuResult, pillars: &pillars}
	}
}

// applySectionResult is the done/errored transition. A failed basic
// fetch aborts the whole session (no result tabs, submit re-enabled);
// any later section failure is isolated to that section's cache entry.
func (m Model) applySectionResult(msg sectionResultMsg) Model {
	if msg.session != m.session {
		// Stale fetch from a superseded session.
		return m
	}
	if msg.section == saju.SectionBasic {
		m.submitting = false
	}

	if msg.err != nil {
		m.results[msg.section] = placeholder(msg.section)
		m.status[msg.section] = statusErrored
		if msg.section == saju.SectionBasic && m.pillars == nil {
			m.submitted = false
			m.sessionFailed = true
			m.failMessage = msg.err.Error()
		}
		m.syncViewport()
		return m
	}

	m.results[msg.section] = msg.result
	m.status[msg.section] = statusDone
	if m.pillars == nil {
		m.pillars = msg.pillars
	}
	if msg.section == saju.SectionBasic {
		m.area = focusResults
	}
	m.syncViewport()
	return m
}

// placeholder is the localized section-local failure text.
func placeholder(section saju.SectionKey) string {
	return fmt.Sprintf("오류: %s 정보를 받아오지 못했습니다.", section.Title())
}

// anythingLoading reports whether any fetch is in flight.
func (m Model) anythingLoading() bool {
	if m.submitting {
		return true
	}
	for _, st := range m.status {
		if st == statusLoading {
			return true
		}
	}
	return false
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			if m.submitted && !m.submitting {
				if m.area == focusForm {
					m.area = focusResults
					m.blurInputs()
				} else {
					m.area = focusForm
					m.focusRow = rowName
					m.refocusInputs()
				}
				return m, nil
			}
		}
		if m.area == focusResults {
			return m.updateResultKeys(msg)
		}
		return m.updateFormKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentWidth := msg.Width - 8
		if contentWidth < 20 {
			contentWidth = 20
		}
		contentHeight := msg.Height / 2
		if contentHeight < 5 {
			contentHeight = 5
		}
		if !m.ready {
			m.viewport = viewport.New(contentWidth, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = contentHeight
		}
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(contentWidth-2),
		)
		m.syncViewport()
		return m, nil

	case spinner.TickMsg:
		if m.anythingLoading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case sectionResultMsg:
		return m.applySectionResult(msg), nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// updateFormKeys handles navigation, choice toggles and text entry.
func (m Model) updateFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.focusRow == rowSubmit {
			return m.submit()
		}
		m.moveFocus(1)
		return m, nil
	case tea.KeyUp, tea.KeyShiftTab:
		m.moveFocus(-1)
		return m, nil
	case tea.KeyDown, tea.KeyTab:
		m.moveFocus(1)
		return m, nil
	case tea.KeyLeft, tea.KeyRight:
		delta := 1
		if msg.Type == tea.KeyLeft {
			delta = -1
		}
		switch m.focusRow {
		case rowGender:
			m.genderIdx = (m.genderIdx + delta + 2) % 2
			return m, nil
		case rowCalendar:
			m.calendarIdx = (m.calendarIdx + delta + 2) % 2
			if m.calendarIdx == 0 {
				m.leapMonth = false
			}
			return m, nil
		}
	case tea.KeySpace:
		if m.focusRow == rowCalendar && m.calendarIdx == 1 {
			m.leapMonth = !m.leapMonth
			return m, nil
		}
	}

	if idx, ok := inputForRow(m.focusRow); ok {
		var cmd tea.Cmd
		m.inputs[idx], cmd = m.inputs[idx].Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateResultKeys handles tab switching and content scrolling.
func (m Model) updateResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sections := saju.Sections()
	switch msg.String() {
	case "1", "2", "3", "4":
		idx := int(msg.String()[0] - '1')
		return m.selectSection(sections[idx])
	case "left", "h":
		return m.selectSection(sections[(m.activeIndex()+len(sections)-1)%len(sections)])
	case "right", "l":
		return m.selectSection(sections[(m.activeIndex()+1)%len(sections)])
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) activeIndex() int {
	for i, s := range saju.Sections() {
		if s == m.active {
			return i
		}
	}
	return 0
}

// moveFocus shifts the focused form row and the textinput focus state.
func (m *Model) moveFocus(delta int) {
	m.focusRow = (m.focusRow + delta + rowCount) % rowCount
	m.refocusInputs()
}

func (m *Model) refocusInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	if idx, ok := inputForRow(m.focusRow); ok {
		m.inputs[idx].Focus()
	}
}

func (m *Model) blurInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

// inputForRow maps a form row to its textinput index, if it has one.
func inputForRow(row int) (int, bool) {
	switch row {
	case rowName:
		return inputName, true
	case rowYear:
		return inputYear, true
	case rowMonth:
		return inputMonth, true
	case rowDay:
		return inputDay, true
	case rowHour:
		return inputHour, true
	}
	return 0, false
}

// Run starts the interactive session.
func Run(api Fetcher) error {
	p := tea.NewProgram(NewModel(api), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
