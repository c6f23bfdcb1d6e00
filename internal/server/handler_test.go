package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const pillarJSON = `{"year":"庚午","month":"辛巳","day":"丙申","hour":null}`

// scriptedClient answers the i-th call with the i-th script entry.
// An entry of the form "error:..." fails that call.
type scriptedClient struct {
	script  []string
	prompts []string
}

func (s *scriptedClient) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	idx := len(s.prompts) - 1
	if idx >= len(s.script) {
		return "", fmt.Errorf("unexpected call %d", idx)
	}
	entry := s.script[idx]
	if rest, ok := strings.CutPrefix(entry, "error:"); ok {
		return "", errors.New(rest)
	}
	return entry, nil
}

func validBody() map[string]any {
	return map[string]any{
		"name":         "Kim",
		"gender":       "male",
		"calendarType": "solar",
		"year":         1990,
		"month":        5,
		"day":          12,
		"isLeapMonth":  false,
		"section":      "basic",
	}
}

func postSaju(t *testing.T, stub *scriptedClient, body any) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(":0", stub, zap.NewNop())

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/get-saju", strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetSaju_TwoStageHappyPath(t *testing.T) {
	stub := &scriptedClient{script: []string{pillarJSON, "**기본 성향** 분석 내용입니다."}}
	rec := postSaju(t, stub, validBody())

	require.Equal(t, http.StatusOK, rec.Code)

	var resp getSajuResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "**기본 성향** 분석 내용입니다.", resp.SajuResult)
	assert.Equal(t, "庚午", resp.Pillars.Year)
	assert.Nil(t, resp.Pillars.Hour)

	// Stage 1 then stage 2, in that order, nothing else.
	require.Len(t, stub.prompts, 2)
	assert.Contains(t, stub.prompts[0], "1990년 5월 12일")
	assert.Contains(t, stub.prompts[0], "만세력")
	assert.Contains(t, stub.prompts[1], "庚午년 辛巳월 丙申일")
	assert.Contains(t, stub.prompts[1], "기본 성향")
}

func TestGetSaju_StringNumbersAccepted(t *testing.T) {
	// The browser form posts year/month/day as strings.
	body := validBody()
	body["year"] = "1990"
	body["month"] = "5"
	body["day"] = "12"
	body["hour"] = "14"

	stub := &scriptedClient{script: []string{pillarJSON, "내용"}}
	rec := postSaju(t, stub, body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, stub.prompts[0], "14시")
}

func TestGetSaju_HourField(t *testing.T) {
	// The browser form posts "" for an unknown hour; hour 0 (자시) is a
	// real value and must not be folded into unknown.
	cases := []struct {
		name string
		hour any
		omit bool
		want string
		not  string
	}{
		{name: "empty string is unknown", hour: "", want: "모름", not: "0시"},
		{name: "null is unknown", hour: nil, want: "모름"},
		{name: "absent is unknown", omit: true, want: "모름"},
		{name: "zero is midnight", hour: 0, want: "0시", not: "모름"},
		{name: "string zero is midnight", hour: "0", want: "0시", not: "모름"},
		{name: "out of range is unknown", hour: 99, want: "모름", not: "99시"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := validBody()
			if tc.omit {
				delete(body, "hour")
			} else {
				body["hour"] = tc.hour
			}

			stub := &scriptedClient{script: []string{pillarJSON, "내용"}}
			rec := postSaju(t, stub, body)

			require.Equal(t, http.StatusOK, rec.Code)
			require.NotEmpty(t, stub.prompts)
			assert.Contains(t, stub.prompts[0], "태어난 시간: "+tc.want)
			if tc.not != "" {
				assert.NotContains(t, stub.prompts[0], tc.not)
			}
		})
	}
}

func TestGetSaju_PillarPassBackSkipsStageOne(t *testing.T) {
	body := validBody()
	body["section"] = "wealth"
	body["pillars"] = map[string]any{"year": "庚午", "month": "辛巳", "day": "丙申", "hour": nil}

	stub := &scriptedClient{script: []string{"재물운 분석"}}
	rec := postSaju(t, stub, body)

	require.Equal(t, http.StatusOK, rec.Code)
	// Only the section call happened, embedding the passed-back codes.
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "庚午년 辛巳월 丙申일")
	assert.Contains(t, stub.prompts[0], "재물운")
}

func TestGetSaju_IncompletePillarsRecomputed(t *testing.T) {
	body := validBody()
	body["pillars"] = map[string]any{"year": "庚午", "month": "", "day": "丙申"}

	stub := &scriptedClient{script: []string{pillarJSON, "내용"}}
	rec := postSaju(t, stub, body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, stub.prompts, 2)
}

func TestGetSaju_ValidationGate(t *testing.T) {
	required := []string{"name", "gender", "calendarType", "year", "month", "day", "section"}
	for _, field := range required {
		t.Run("missing "+field, func(t *testing.T) {
			body := validBody()
			delete(body, field)

			stub := &scriptedClient{script: []string{pillarJSON, "내용"}}
			rec := postSaju(t, stub, body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "필수 정보가 누락되었습니다.", resp.Error)
			// No upstream call may happen before validation passes.
			assert.Empty(t, stub.prompts)
		})
	}

	t.Run("unknown section", func(t *testing.T) {
		body := validBody()
		body["section"] = "love"
		stub := &scriptedClient{script: []string{pillarJSON, "내용"}}
		rec := postSaju(t, stub, body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, stub.prompts)
	})

	t.Run("malformed body", func(t *testing.T) {
		stub := &scriptedClient{}
		srv := New(":0", stub, zap.NewNop())
		req := httptest.NewRequest(http.MethodPost, "/api/get-saju", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, stub.prompts)
	})
}

func TestGetSaju_StageOneFailureIsFatal(t *testing.T) {
	t.Run("malformed pillar payload", func(t *testing.T) {
		stub := &scriptedClient{script: []string{`{"year":"庚午","month":"辛巳"}`, "내용"}}
		rec := postSaju(t, stub, validBody())

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "AI로부터 사주팔자를 계산하는 데 실패했습니다.", resp.Error)
		// Stage 2 never ran.
		assert.Len(t, stub.prompts, 1)
	})

	t.Run("gateway failure", func(t *testing.T) {
		stub := &scriptedClient{script: []string{"error:quota exceeded"}}
		rec := postSaju(t, stub, validBody())

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "quota exceeded")
		assert.Len(t, stub.prompts, 1)
	})
}

func TestGetSaju_StageTwoFailure(t *testing.T) {
	stub := &scriptedClient{script: []string{pillarJSON, "error:model overloaded"}}
	rec := postSaju(t, stub, validBody())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "model overloaded")
	assert.Len(t, stub.prompts, 2)
}

func TestGetSaju_SamePillarsAcrossSections(t *testing.T) {
	// Two requests of one client session: the second passes the
	// pillars from the first back, so both narratives embed identical
	// codes even though the server itself keeps no state.
	stub := &scriptedClient{script: []string{pillarJSON, "basic 내용", "wealth 내용"}}
	srv := New(":0", stub, zap.NewNop())

	do := func(body map[string]any) getSajuResponse {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/get-saju", strings.NewReader(string(data)))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp getSajuResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	first := do(validBody())

	second := validBody()
	second["section"] = "wealth"
	pillarData, err := json.Marshal(first.Pillars)
	require.NoError(t, err)
	var passBack map[string]any
	require.NoError(t, json.Unmarshal(pillarData, &passBack))
	second["pillars"] = passBack
	resp := do(second)

	assert.Equal(t, first.Pillars, resp.Pillars)
	require.Len(t, stub.prompts, 3)
	for _, prompt := range stub.prompts[1:] {
		assert.Contains(t, prompt, "庚午년 辛巳월 丙申일")
	}
}

func TestCORSAndMethods(t *testing.T) {
	stub := &scriptedClient{}
	srv := New(":0", stub, zap.NewNop())

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/get-saju", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("GET rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/get-saju", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
