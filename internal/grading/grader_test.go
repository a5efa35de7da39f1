package grading_test

import (
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"strings"
	"testing"

	"bantay-bayan/internal/domain"
	"bantay-bayan/internal/grading"
)

func TestGradeAllCorrect(t *testing.T) {
	res, err := grading.Grade(twoQuestionQuiz(), domain.Submission{
		Answers:   []domain.SubmittedAnswer{{QuestionID: "q1", SelectedAnswer: 1, TimeSpent: 10}, {QuestionID: "q2", SelectedAnswer: 0, TimeSpent: 5}},
		TotalTime: 15,
	}, grading.DefaultPassingScore)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	s := res.Summary
	if s.CorrectAnswers != 2 || s.TotalQuestions != 2 || s.Percentage != 100 || !s.Passed {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.AverageTimePerQuestion != 8 {
		t.Fatalf("expected average 8 (15/2 rounded), got %d", s.AverageTimePerQuestion)
	}
	if s.PassingScore != 70 {
		t.Fatalf("expected passing score echoed, got %d", s.PassingScore)
	}
	if res.QuizID != "quiz-1" || res.QuizTitle != "Fire Safety" {
		t.Fatalf("expected quiz echoed, got %s %q", res.QuizID, res.QuizTitle)
	}
}

func TestGradeHalfCorrectFails(t *testing.T) {
	res, err := grading.Grade(twoQuestionQuiz(), domain.Submission{
		Answers:   []domain.SubmittedAnswer{{QuestionID: "q1", SelectedAnswer: 0, TimeSpent: 10}, {QuestionID: "q2", SelectedAnswer: 0, TimeSpent: 5}},
		TotalTime: 15,
	}, grading.DefaultPassingScore)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Summary.Percentage != 50 || res.Summary.Passed {
		t.Fatalf("expected 50%% failing, got %+v", res.Summary)
	}
	if len(res.Recommendations) == 0 || res.Recommendations[0].Type != domain.RecommendationOverall {
		t.Fatalf("expected retake recommendation first, got %+v", res.Recommendations)
	}
}

func TestGradeTimeoutIsIncorrect(t *testing.T) {
	res, err := grading.Grade(twoQuestionQuiz(), domain.Submission{
		Answers:   []domain.SubmittedAnswer{{QuestionID: "q1", SelectedAnswer: -1, TimeSpent: 30}, {QuestionID: "q2", SelectedAnswer: 0, TimeSpent: 5}},
		TotalTime: 35,
	}, grading.DefaultPassingScore)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Results[0].Correct {
		t.Fatalf("expected timed out answer to be incorrect")
	}
	if res.Results[0].UserAnswer != -1 || res.Results[0].CorrectAnswer != 1 {
		t.Fatalf("expected answers echoed, got %+v", res.Results[0])
	}
	if res.Summary.Percentage != 50 {
		t.Fatalf("expected 50%%, got %d", res.Summary.Percentage)
	}
}

func TestGradeEmptySubmission(t *testing.T) {
	res, err := grading.Grade(twoQuestionQuiz(), domain.Submission{}, grading.DefaultPassingScore)
	if !errors.Is(err, domain.ErrInvalidSubmission) {
		t.Fatalf("expected invalid submission, got %v", err)
	}
	if res.Results != nil {
		t.Fatalf("expected no result, got %+v", res)
	}
}

func TestGradeUnmatchedQuestionExcluded(t *testing.T) {
	res, err := grading.Grade(twoQuestionQuiz(), domain.Submission{
		Answers:   []domain.SubmittedAnswer{{QuestionID: "ghost", SelectedAnswer: 2, TimeSpent: 3}, {QuestionID: "q2", SelectedAnswer: 0, TimeSpent: 5}},
		TotalTime: 8,
	}, grading.DefaultPassingScore)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Summary.TotalQuestions != 1 || res.Summary.Percentage != 100 || !res.Summary.Passed {
		t.Fatalf("expected unmatched answer excluded, got %+v", res.Summary)
	}
	if len(res.Results) != 2 {
		t.Fatalf("expected unmatched answer kept in results, got %d", len(res.Results))
	}
	ghost := res.Results[0]
	if ghost.Correct || ghost.Error != "Question not found" || ghost.Matched() {
		t.Fatalf("expected ghost flagged, got %+v", ghost)
	}
	for _, l := range res.LessonBreakdown {
		for _, q := range l.Questions {
			if q.QuestionID == "ghost" {
				t.Fatalf("unmatched answer leaked into lesson %q", l.Lesson)
			}
		}
	}
}

func TestGradeUnmatchedDoesNotChangeScore(t *testing.T) {
	base := domain.Submission{
		Answers:   []domain.SubmittedAnswer{{QuestionID: "q1", SelectedAnswer: 1}, {QuestionID: "q2", SelectedAnswer: 0}},
		TotalTime: 20,
	}
	withGhost := base
	withGhost.Answers = append(append([]domain.SubmittedAnswer{}, base.Answers...), domain.SubmittedAnswer{QuestionID: "nope", SelectedAnswer: 0})

	a, _ := grading.Grade(twoQuestionQuiz(), base, grading.DefaultPassingScore)
	b, _ := grading.Grade(twoQuestionQuiz(), withGhost, grading.DefaultPassingScore)
	if a.Summary.Percentage != b.Summary.Percentage || a.Summary.Passed != b.Summary.Passed {
		t.Fatalf("ghost answer changed score: %+v vs %+v", a.Summary, b.Summary)
	}
}

func TestGradeLessonBreakdownAndRecommendations(t *testing.T) {
	quiz := domain.Quiz{
		ID:    "quiz-2",
		Title: "Barangay Safety",
		Questions: []domain.Question{
			{ID: "a1", Lesson: "A", Options: []string{"x", "y"}, CorrectAnswer: 0},
			{ID: "b1", Lesson: "B", Options: []string{"x", "y"}, CorrectAnswer: 1},
			{ID: "a2", Lesson: "A", Options: []string{"x", "y"}, CorrectAnswer: 1},
		},
	}
	res, err := grading.Grade(quiz, domain.Submission{Answers: []domain.SubmittedAnswer{
		{QuestionID: "a1", SelectedAnswer: 0},
		{QuestionID: "b1", SelectedAnswer: 1},
		{QuestionID: "a2", SelectedAnswer: 0},
	}}, grading.DefaultPassingScore)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if len(res.LessonBreakdown) != 2 {
		t.Fatalf("expected 2 lessons, got %+v", res.LessonBreakdown)
	}
	a, b := res.LessonBreakdown[0], res.LessonBreakdown[1]
	if a.Lesson != "A" || a.Total != 2 || a.Correct != 1 || a.Percentage != 50 || len(a.Questions) != 2 {
		t.Fatalf("unexpected lesson A %+v", a)
	}
	if b.Lesson != "B" || b.Total != 1 || b.Correct != 1 || b.Percentage != 100 {
		t.Fatalf("unexpected lesson B %+v", b)
	}

	// 2/3 = 67% is below the pass mark, so the overall message leads.
	want := []domain.RecommendationType{domain.RecommendationOverall, domain.RecommendationLesson, domain.RecommendationStrength}
	if len(res.Recommendations) != len(want) {
		t.Fatalf("expected %d recommendations, got %+v", len(want), res.Recommendations)
	}
	for i, typ := range want {
		if res.Recommendations[i].Type != typ {
			t.Fatalf("recommendation %d: expected %s, got %+v", i, typ, res.Recommendations[i])
		}
	}
	if !strings.Contains(res.Recommendations[1].Message, "Focus on studying A") {
		t.Fatalf("unexpected weak lesson message %q", res.Recommendations[1].Message)
	}
	if !strings.Contains(res.Recommendations[2].Message, "Great job on B") {
		t.Fatalf("unexpected strength message %q", res.Recommendations[2].Message)
	}
}

func TestGradeMiddleLessonGetsNoMessage(t *testing.T) {
	questions := make([]domain.Question, 0, 4)
	answers := make([]domain.SubmittedAnswer, 0, 4)
	for i, id := range []string{"m1", "m2", "m3", "m4"} {
		questions = append(questions, domain.Question{ID: id, Lesson: "M", Options: []string{"x", "y"}, CorrectAnswer: 0})
		selected := 0
		if i == 3 {
			selected = 1
		}
		answers = append(answers, domain.SubmittedAnswer{QuestionID: id, SelectedAnswer: selected})
	}
	res, err := grading.Grade(domain.Quiz{ID: "q", Questions: questions}, domain.Submission{Answers: answers}, grading.DefaultPassingScore)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Summary.Percentage != 75 || !res.Summary.Passed {
		t.Fatalf("expected 75%% pass, got %+v", res.Summary)
	}
	if len(res.Recommendations) != 0 {
		t.Fatalf("expected no recommendations at 75%%, got %+v", res.Recommendations)
	}
}

func TestGradeEmptyLessonIsOwnGroup(t *testing.T) {
	quiz := domain.Quiz{ID: "q", Questions: []domain.Question{
		{ID: "1", Lesson: "", Options: []string{"a", "b"}, CorrectAnswer: 0},
		{ID: "2", Lesson: "Flood", Options: []string{"a", "b"}, CorrectAnswer: 0},
	}}
	res, _ := grading.Grade(quiz, domain.Submission{Answers: []domain.SubmittedAnswer{
		{QuestionID: "1", SelectedAnswer: 0},
		{QuestionID: "2", SelectedAnswer: 0},
	}}, grading.DefaultPassingScore)
	if len(res.LessonBreakdown) != 2 || res.LessonBreakdown[0].Lesson != "" {
		t.Fatalf("expected unlabeled group kept first, got %+v", res.LessonBreakdown)
	}
}

func TestGradeUngradableQuestionFailsClosed(t *testing.T) {
	quiz := domain.Quiz{ID: "q", Questions: []domain.Question{
		{ID: "bad", Options: []string{"a", "b"}, CorrectAnswer: 5},
		{ID: "neg", Options: []string{"a", "b"}, CorrectAnswer: -1},
	}}
	res, err := grading.Grade(quiz, domain.Submission{Answers: []domain.SubmittedAnswer{
		{QuestionID: "bad", SelectedAnswer: 5},
		{QuestionID: "neg", SelectedAnswer: -1},
	}}, grading.DefaultPassingScore)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	for _, r := range res.Results {
		if r.Correct {
			t.Fatalf("expected ungradable question %s to be incorrect", r.QuestionID)
		}
	}
	if res.Summary.TotalQuestions != 2 || res.Summary.Percentage != 0 {
		t.Fatalf("unexpected summary %+v", res.Summary)
	}
}

func TestGradeEmptyQuizDegrades(t *testing.T) {
	res, err := grading.Grade(domain.Quiz{ID: "empty"}, domain.Submission{
		Answers:   []domain.SubmittedAnswer{{QuestionID: "q1", SelectedAnswer: 0}},
		TotalTime: 12,
	}, grading.DefaultPassingScore)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	s := res.Summary
	if s.TotalQuestions != 0 || s.Percentage != 0 || s.Passed || s.AverageTimePerQuestion != 0 {
		t.Fatalf("expected degenerate summary, got %+v", s)
	}
	if len(res.LessonBreakdown) != 0 {
		t.Fatalf("expected no lessons, got %+v", res.LessonBreakdown)
	}
}

func TestGradeZeroThresholdStillFailsDegenerate(t *testing.T) {
	res, _ := grading.Grade(domain.Quiz{ID: "empty"}, domain.Submission{
		Answers: []domain.SubmittedAnswer{{QuestionID: "x"}},
	}, 0)
	if res.Summary.Passed {
		t.Fatalf("expected degenerate quiz to fail even with zero threshold")
	}
}

func TestGradeRoundsHalfUp(t *testing.T) {
	questions := make([]domain.Question, 8)
	answers := make([]domain.SubmittedAnswer, 8)
	for i := range questions {
		id := string(rune('a' + i))
		questions[i] = domain.Question{ID: id, Options: []string{"x", "y"}, CorrectAnswer: 0}
		answers[i] = domain.SubmittedAnswer{QuestionID: id, SelectedAnswer: 1}
	}
	answers[0].SelectedAnswer = 0 // 1/8 = 12.5%
	res, _ := grading.Grade(domain.Quiz{Questions: questions}, domain.Submission{Answers: answers, TotalTime: 20}, grading.DefaultPassingScore)
	if res.Summary.Percentage != 13 {
		t.Fatalf("expected 13, got %d", res.Summary.Percentage)
	}
	if res.Summary.AverageTimePerQuestion != 3 {
		t.Fatalf("expected 20/8 rounded to 3, got %d", res.Summary.AverageTimePerQuestion)
	}
}

func TestGradeIsDeterministicAndPure(t *testing.T) {
	quiz := twoQuestionQuiz()
	before := twoQuestionQuiz()
	sub := domain.Submission{
		Answers:   []domain.SubmittedAnswer{{QuestionID: "q2", SelectedAnswer: 1, TimeSpent: 4}, {QuestionID: "q1", SelectedAnswer: 1, TimeSpent: 9}},
		TotalTime: 13,
	}
	a, _ := grading.Grade(quiz, sub, 50)
	b, _ := grading.Grade(quiz, sub, 50)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical results")
	}
	a.Results[1].Options[0] = "mutated"
	if !reflect.DeepEqual(quiz, before) {
		t.Fatalf("grading result aliases quiz content")
	}
	if a.Summary.Passed != (a.Summary.Percentage >= 50) {
		t.Fatalf("passed flag disagrees with threshold: %+v", a.Summary)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	questions := make([]domain.Question, 20)
	for i := range questions {
		questions[i] = domain.Question{ID: string(rune('A' + i))}
	}
	original := append([]domain.Question(nil), questions...)

	shuffled := grading.Shuffle(questions, rand.New(rand.NewSource(42)))
	if len(shuffled) != len(questions) {
		t.Fatalf("expected %d questions, got %d", len(questions), len(shuffled))
	}
	if !reflect.DeepEqual(questions, original) {
		t.Fatalf("shuffle mutated its input")
	}
	if !reflect.DeepEqual(sortedIDs(shuffled), sortedIDs(original)) {
		t.Fatalf("shuffle changed question set")
	}
	if reflect.DeepEqual(shuffled, original) {
		t.Fatalf("expected seeded shuffle of 20 items to reorder them")
	}
}

func TestShuffleGlobalSourceAndEmpty(t *testing.T) {
	if out := grading.Shuffle([]domain.Question{}, nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %d", len(out))
	}
	out := grading.Shuffle([]int{1, 2, 3}, nil)
	sort.Ints(out)
	if !reflect.DeepEqual(out, []int{1, 2, 3}) {
		t.Fatalf("unexpected shuffle content %v", out)
	}
}

func sortedIDs(qs []domain.Question) []string {
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	sort.Strings(ids)
	return ids
}

func twoQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Fire Safety",
		Timer: 30,
		Questions: []domain.Question{
			{ID: "q1", Question: "What number do you dial for fire emergencies?", Lesson: "Fire", Options: []string{"117", "911", "143"}, CorrectAnswer: 1, Explanation: "911 is the national hotline."},
			{ID: "q2", Question: "What should you do first during an earthquake?", Lesson: "Earthquake", Options: []string{"Duck, cover, hold", "Run outside"}, CorrectAnswer: 0},
		},
	}
}
