package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetHandler_GetSummary(t *testing.T) {
	f := newFixture(t)

	resp, env := f.do(t, http.MethodGet, "/api/v1/sets/subject/physics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=300", resp.Header.Get("Cache-Control"))

	var data struct {
		Set struct {
			Slug          string `json:"slug"`
			QuestionCount int    `json:"question_count"`
			TotalPages    int    `json:"total_pages"`
			PageSize      int    `json:"page_size"`
		} `json:"set"`
		DurationSeconds int `json:"duration_seconds"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "physics", data.Set.Slug)
	assert.Equal(t, 3, data.Set.QuestionCount)
	assert.Equal(t, 2, data.Set.TotalPages)
	assert.Equal(t, testPageSize, data.Set.PageSize)
	assert.Equal(t, 5, data.DurationSeconds)
}

func TestSetHandler_GetSummaryErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{"unknown slug", "/api/v1/sets/topic/missing", http.StatusNotFound, "QUESTION_SET_NOT_FOUND"},
		{"unknown kind", "/api/v1/sets/quiz/optics", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"negative page", "/api/v1/sets/topic/optics/questions?page=-1", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"oversized page", "/api/v1/sets/topic/optics/questions?page_size=500", http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := f.do(t, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
		})
	}
}

func TestSetHandler_GetPageRevealsAnswers(t *testing.T) {
	f := newFixture(t)

	resp, env := f.do(t, http.MethodGet, "/api/v1/sets/subject/physics/questions?page=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		Questions []questionJSON `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Questions, 1)
	assert.Equal(t, questionText("physics", 3), data.Questions[0].Text)
	assert.Equal(t, "A. one", data.Questions[0].CorrectAnswer)

	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.Equal(t, 1, env.Pagination.PrevPage)
	assert.Zero(t, env.Pagination.NextPage)
}
