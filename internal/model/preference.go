package model

// ExamModeRequest is the body of PUT /preferences/exam-mode.
type ExamModeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ExamModePreference is the stored exam mode of a client.
type ExamModePreference struct {
	ExamMode bool `json:"exam_mode"`
}
