package domain

import (
	"encoding/json"
	"time"
)

// Role is the role claim carried by an authenticated caller.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// CallerIdentity is the authenticated caller, passed explicitly to every use case.
type CallerIdentity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the caller may author content.
func (c CallerIdentity) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanPlay reports whether the caller may take quizzes.
func (c CallerIdentity) CanPlay() bool {
	return c.Role == RoleAdmin || c.Role == RoleUser
}

// Question is a multiple choice prompt with one correct option index.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Lesson        string   `json:"lesson"`
	Image         string   `json:"image,omitempty"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Gradable reports whether CorrectAnswer points at one of the options.
func (q Question) Gradable() bool {
	return q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options)
}

// Quiz is a titled, timed collection of ordered questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Timer     int        `json:"timer"` // seconds per question
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// PlayableQuestion is a question as shown to a learner: no answer, no explanation.
type PlayableQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Lesson   string   `json:"lesson"`
	Image    string   `json:"image,omitempty"`
	Options  []string `json:"options"`
}

// PlayableQuiz is the stripped quiz served for play and retake.
type PlayableQuiz struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Timer     int                `json:"timer"`
	Questions []PlayableQuestion `json:"questions"`
	Retake    bool               `json:"retake,omitempty"`
}

// QuizSummary is the learner-facing list entry for a quiz.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Timer         int       `json:"timer"`
	QuestionCount int       `json:"questionCount"`
	Lessons       []string  `json:"lessons"`
	CreatedAt     time.Time `json:"createdAt"`
}

// QuestionInput is an authored question before ids are assigned.
type QuestionInput struct {
	Question      string   `json:"question" validate:"required"`
	Lesson        string   `json:"lesson"`
	Image         string   `json:"image"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" validate:"min=0"`
	Explanation   string   `json:"explanation"`
}

// QuizInput is the admin payload for creating or replacing a quiz.
type QuizInput struct {
	Title     string          `json:"title" validate:"required"`
	Timer     int             `json:"timer" validate:"min=0"`
	Questions []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// SubmittedAnswer is one learner selection. SelectedAnswer -1 means no choice.
type SubmittedAnswer struct {
	QuestionID     string `json:"questionId" validate:"required"`
	SelectedAnswer int    `json:"selectedAnswer"`
	TimeSpent      int    `json:"timeSpent" validate:"min=0"`
}

// NoAnswer is the selection recorded when the learner picked nothing, e.g. on timeout.
const NoAnswer = -1

// UnmarshalJSON treats a missing or null selectedAnswer as NoAnswer so it can never
// be graded as option 0.
func (a *SubmittedAnswer) UnmarshalJSON(data []byte) error {
	type plain SubmittedAnswer
	aux := struct {
		*plain
		SelectedAnswer *int `json:"selectedAnswer"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.SelectedAnswer = NoAnswer
	if aux.SelectedAnswer != nil {
		a.SelectedAnswer = *aux.SelectedAnswer
	}
	return nil
}

// Submission is the full answer set for one attempt.
type Submission struct {
	Answers   []SubmittedAnswer `json:"answers" validate:"required,min=1,dive"`
	TotalTime int               `json:"totalTime" validate:"min=0"`
}

// QuestionResult is the verdict for one submitted answer.
type QuestionResult struct {
	QuestionID    string   `json:"questionId"`
	Question      string   `json:"question,omitempty"`
	Lesson        string   `json:"lesson"`
	Image         string   `json:"image,omitempty"`
	Options       []string `json:"options,omitempty"`
	UserAnswer    int      `json:"userAnswer"`
	CorrectAnswer int      `json:"correctAnswer"`
	Correct       bool     `json:"correct"`
	Explanation   string   `json:"explanation,omitempty"`
	TimeSpent     int      `json:"timeSpent"`
	Error         string   `json:"error,omitempty"`
}

// Matched reports whether the answer referenced a question of the quiz.
func (r QuestionResult) Matched() bool {
	return r.Error == ""
}

// LessonResult aggregates matched results sharing a lesson label.
type LessonResult struct {
	Lesson     string           `json:"lesson"`
	Total      int              `json:"total"`
	Correct    int              `json:"correct"`
	Percentage int              `json:"percentage"`
	Questions  []QuestionResult `json:"questions"`
}

// RecommendationType tags advisory messages.
type RecommendationType string

const (
	RecommendationOverall  RecommendationType = "overall"
	RecommendationLesson   RecommendationType = "lesson"
	RecommendationStrength RecommendationType = "strength"
)

// Recommendation is rule-based feedback text; it never affects scoring.
type Recommendation struct {
	Type    RecommendationType `json:"type"`
	Lesson  string             `json:"lesson,omitempty"`
	Message string             `json:"message"`
}

// GradingSummary is the headline score block.
type GradingSummary struct {
	TotalQuestions         int  `json:"totalQuestions"`
	CorrectAnswers         int  `json:"correctAnswers"`
	Percentage             int  `json:"percentage"`
	Passed                 bool `json:"passed"`
	PassingScore           int  `json:"passingScore"`
	TotalTime              int  `json:"totalTime"`
	AverageTimePerQuestion int  `json:"averageTimePerQuestion"`
}

// GradingResult is computed per submission and never persisted.
type GradingResult struct {
	QuizID          string           `json:"quizId"`
	QuizTitle       string           `json:"quizTitle"`
	Summary         GradingSummary   `json:"summary"`
	Results         []QuestionResult `json:"results"`
	LessonBreakdown []LessonResult   `json:"lessonBreakdown"`
	Recommendations []Recommendation `json:"recommendations"`
}
