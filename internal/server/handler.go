package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LuckyMan0277/saju-app/internal/saju"
)

// errMissingFields is surfaced verbatim when a required field is
// absent. No upstream call is made in that case.
const errMissingFields = "필수 정보가 누락되었습니다."

// flexInt accepts both JSON numbers and numeric strings: the original
// browser form posts year/month/day as strings, typed clients post
// numbers. Zero means absent.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// optionalHour decodes the hour field. Unlike year/month/day, hour 0
// is a real value (자시), so "" and null must stay distinguishable
// from 0: the browser form posts "" when the birth hour is unknown.
type optionalHour struct {
	value int
	set   bool
}

func (h *optionalHour) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		h.set = false
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	h.value = n
	h.set = true
	return nil
}

// getSajuRequest is the wire shape of POST /api/get-saju. Pillars is
// optional: clients that already hold the session's pillar codes pass
// them back so stage 1 is not recomputed.
type getSajuRequest struct {
	Name         string            `json:"name"`
	Gender       string            `json:"gender"`
	CalendarType string            `json:"calendarType"`
	Year         flexInt           `json:"year"`
	Month        flexInt           `json:"month"`
	Day          flexInt           `json:"day"`
	Hour         optionalHour      `json:"hour"`
	IsLeapMonth  bool              `json:"isLeapMonth"`
	Section      string            `json:"section"`
	Pillars      *saju.FourPillars `json:"pillars"`
}

type getSajuResponse struct {
	SajuResult string           `json:"sajuResult"`
	Pillars    saju.FourPillars `json:"pillars"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleGetSaju(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	reqID := requestID()
	log := s.log.With(zap.String("request_id", reqID))
	start := time.Now()

	var req getSajuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("malformed request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errMissingFields})
		return
	}

	if req.Name == "" || req.Gender == "" || req.CalendarType == "" ||
		req.Year == 0 || req.Month == 0 || req.Day == 0 ||
		!saju.SectionKey(req.Section).Valid() {
		log.Warn("missing required fields", zap.String("section", req.Section))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errMissingFields})
		return
	}

	profile := saju.BirthProfile{
		Name:      req.Name,
		Gender:    saju.Gender(req.Gender),
		Calendar:  saju.CalendarType(req.CalendarType),
		Year:      int(req.Year),
		Month:     int(req.Month),
		Day:       int(req.Day),
		LeapMonth: req.IsLeapMonth,
	}
	// Out-of-range hours degrade to unknown, same as an empty field.
	if req.Hour.set && req.Hour.value >= 0 && req.Hour.value <= 23 {
		h := req.Hour.value
		profile.Hour = &h
	}
	section := saju.SectionKey(req.Section)

	// Stage 1: pillar computation, skipped when the client passed a
	// complete set back. Stage-1 failure aborts the whole request;
	// there is no partial result.
	var pillars saju.FourPillars
	if req.Pillars != nil && req.Pillars.Complete() {
		pillars = *req.Pillars
	} else {
		var err error
		pillars, err = s.normalizer.Normalize(r.Context(), profile)
		if err != nil {
			log.Error("pillar normalization failed",
				zap.String("section", string(section)),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: userMessage(err)})
			return
		}
	}

	// Stage 2: one narrative for the requested section. The caller
	// turns a failure here into a section-local placeholder.
	result, err := s.analyst.Analyze(r.Context(), pillars, section, profile.Name, profile.Gender)
	if err != nil {
		log.Error("section analysis failed",
			zap.String("section", string(section)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: userMessage(err)})
		return
	}

	log.Info("saju request served",
		zap.String("section", string(section)),
		zap.Duration("elapsed", time.Since(start)))
	writeJSON(w, http.StatusOK, getSajuResponse{SajuResult: result, Pillars: pillars})
}

// userMessage keeps the taxonomy's messages intact: parse errors carry
// their own localized text, anything else falls back to the generic
// analysis failure message unless it already has one.
func userMessage(err error) string {
	var parseErr *saju.PillarParseError
	if errors.As(err, &parseErr) {
		return parseErr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "사주 분석 중 오류가 발생했습니다."
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
