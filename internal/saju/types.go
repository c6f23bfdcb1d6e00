// Package saju implements the two-stage fortune analysis pipeline:
// a pillar normalizer that derives the four stem-branch pillars from a
// birth profile, and a section analyst that produces one narrative per
// topic section from those pillars.
package saju

// Gender of the person being analyzed.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the known gender values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Label returns the Korean label used in prompts.
func (g Gender) Label() string {
	if g == GenderFemale {
		return "여성"
	}
	return "남성"
}

// CalendarType selects how the birth date is interpreted.
type CalendarType string

const (
	CalendarSolar CalendarType = "solar"
	CalendarLunar CalendarType = "lunar"
)

// Valid reports whether c is one of the known calendar types.
func (c CalendarType) Valid() bool {
	return c == CalendarSolar || c == CalendarLunar
}

// Label returns the Korean label used in prompts.
func (c CalendarType) Label() string {
	if c == CalendarLunar {
		return "음력"
	}
	return "양력"
}

// BirthProfile is the immutable input to the pillar computation.
// Hour is nil when the birth hour is unknown. LeapMonth is only
// meaningful for the lunar calendar.
type BirthProfile struct {
	Name      string
	Gender    Gender
	Calendar  CalendarType
	Year      int
	Month     int
	Day       int
	Hour      *int
	LeapMonth bool
}

// FourPillars is the structured stage-1 result: one two-glyph
// stem-branch code per pillar. Hour is nil when the birth hour was
// unknown. The value is opaque to everything downstream; it is never
// recomputed within a session.
type FourPillars struct {
	Year  string  `json:"year"`
	Month string  `json:"month"`
	Day   string  `json:"day"`
	Hour  *string `json:"hour"`
}

// Complete reports whether the three mandatory pillars are present.
func (p FourPillars) Complete() bool {
	return p.Year != "" && p.Month != "" && p.Day != ""
}

// SectionKey identifies one of the four fixed narrative topics.
type SectionKey string

const (
	SectionBasic  SectionKey = "basic"
	SectionWealth SectionKey = "wealth"
	SectionHealth SectionKey = "health"
	SectionFuture SectionKey = "future"
)

// Sections returns all section keys in display order.
func Sections() []SectionKey {
	return []SectionKey{SectionBasic, SectionWealth, SectionHealth, SectionFuture}
}

// Valid reports whether k is one of the known section keys.
func (k SectionKey) Valid() bool {
	switch k {
	case SectionBasic, SectionWealth, SectionHealth, SectionFuture:
		return true
	}
	return false
}

// Title returns the fixed Korean display title for the section.
func (k SectionKey) Title() string {
	switch k {
	case SectionBasic:
		return "기본 성향"
	case SectionWealth:
		return "재물운"
	case SectionHealth:
		return "건강운"
	case SectionFuture:
		return "올해의 운세"
	}
	return string(k)
}
