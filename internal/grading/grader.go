// Package grading scores quiz submissions and shuffles question order for play.
package grading

import (
	"fmt"
	"math"
	"math/rand"

	"bantay-bayan/internal/domain"
)

// DefaultPassingScore is the percentage at or above which a submission passes.
const DefaultPassingScore = 70

const (
	weakLessonBelow   = 60
	strongLessonAtMin = 90
)

const retakeMessage = "Consider reviewing the materials and retaking the quiz to improve your score."

// Grade compares each submitted selection with the quiz's correct index and builds the result.
// The quiz must be the full version with answers; it is never modified.
func Grade(quiz domain.Quiz, submission domain.Submission, passingScore int) (domain.GradingResult, error) {
	if len(submission.Answers) == 0 {
		return domain.GradingResult{}, domain.ErrInvalidSubmission
	}

	index := make(map[string]int, len(quiz.Questions))
	for i := len(quiz.Questions) - 1; i >= 0; i-- {
		// iterate backwards so the first question with a given id wins
		index[quiz.Questions[i].ID] = i
	}

	results := make([]domain.QuestionResult, 0, len(submission.Answers))
	total, correct := 0, 0
	for _, answer := range submission.Answers {
		i, ok := index[answer.QuestionID]
		if !ok {
			results = append(results, domain.QuestionResult{
				QuestionID: answer.QuestionID,
				UserAnswer: answer.SelectedAnswer,
				TimeSpent:  answer.TimeSpent,
				Error:      domain.QuestionNotFound,
			})
			continue
		}
		result := scoreAnswer(quiz.Questions[i], answer)
		total++
		if result.Correct {
			correct++
		}
		results = append(results, result)
	}

	summary := domain.GradingSummary{
		TotalQuestions: total,
		CorrectAnswers: correct,
		PassingScore:   passingScore,
		TotalTime:      submission.TotalTime,
	}
	if total > 0 {
		summary.Percentage = roundRatio(correct*100, total)
		summary.Passed = summary.Percentage >= passingScore
		summary.AverageTimePerQuestion = roundRatio(submission.TotalTime, total)
	}

	lessons := breakdownByLesson(results)
	return domain.GradingResult{
		QuizID:          quiz.ID,
		QuizTitle:       quiz.Title,
		Summary:         summary,
		Results:         results,
		LessonBreakdown: lessons,
		Recommendations: recommend(lessons, summary.Passed),
	}, nil
}

func scoreAnswer(q domain.Question, answer domain.SubmittedAnswer) domain.QuestionResult {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return domain.QuestionResult{
		QuestionID:    q.ID,
		Question:      q.Question,
		Lesson:        q.Lesson,
		Image:         q.Image,
		Options:       options,
		UserAnswer:    answer.SelectedAnswer,
		CorrectAnswer: q.CorrectAnswer,
		// an out of range stored index is never satisfiable
		Correct:     q.Gradable() && answer.SelectedAnswer == q.CorrectAnswer,
		Explanation: q.Explanation,
		TimeSpent:   answer.TimeSpent,
	}
}

// breakdownByLesson groups matched results by lesson label in first-seen order.
func breakdownByLesson(results []domain.QuestionResult) []domain.LessonResult {
	lessons := make([]domain.LessonResult, 0)
	position := make(map[string]int)
	for _, r := range results {
		if !r.Matched() {
			continue
		}
		i, ok := position[r.Lesson]
		if !ok {
			i = len(lessons)
			position[r.Lesson] = i
			lessons = append(lessons, domain.LessonResult{Lesson: r.Lesson, Questions: []domain.QuestionResult{}})
		}
		lessons[i].Total++
		if r.Correct {
			lessons[i].Correct++
		}
		lessons[i].Questions = append(lessons[i].Questions, r)
	}
	for i := range lessons {
		lessons[i].Percentage = roundRatio(lessons[i].Correct*100, lessons[i].Total)
	}
	return lessons
}

func recommend(lessons []domain.LessonResult, passed bool) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0)
	if !passed {
		recs = append(recs, domain.Recommendation{Type: domain.RecommendationOverall, Message: retakeMessage})
	}
	for _, l := range lessons {
		switch {
		case l.Percentage < weakLessonBelow:
			recs = append(recs, domain.Recommendation{
				Type:    domain.RecommendationLesson,
				Lesson:  l.Lesson,
				Message: fmt.Sprintf("Focus on studying %s - you scored %d%% in this area.", l.Lesson, l.Percentage),
			})
		case l.Percentage >= strongLessonAtMin:
			recs = append(recs, domain.Recommendation{
				Type:    domain.RecommendationStrength,
				Lesson:  l.Lesson,
				Message: fmt.Sprintf("Great job on %s! You scored %d%%.", l.Lesson, l.Percentage),
			})
		}
	}
	return recs
}

// roundRatio returns n/d rounded half up. d must be positive.
func roundRatio(n, d int) int {
	return int(math.Floor(float64(n)/float64(d) + 0.5))
}

// Shuffle returns a uniformly permuted copy of items. A nil rnd uses the global source.
func Shuffle[T any](items []T, rnd *rand.Rand) []T {
	out := make([]T, len(items))
	copy(out, items)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rnd == nil {
		rand.Shuffle(len(out), swap)
	} else {
		rnd.Shuffle(len(out), swap)
	}
	return out
}
