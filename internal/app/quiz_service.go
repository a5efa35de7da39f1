package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bantay-bayan/internal/domain"
	"bantay-bayan/internal/grading"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const defaultTimer = 30

// QuizRepository loads full quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string)
}

// QuizStore is the authoritative content store used for listing and authoring.
type QuizStore interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
}

// SessionRepository maps opaque session tokens to caller identities.
type SessionRepository interface {
	Create(ctx context.Context, identity domain.CallerIdentity) (string, error)
	Resolve(ctx context.Context, token string) (domain.CallerIdentity, error)
	Revoke(ctx context.Context, token string) error
}

// QuizService contains the quiz use cases.
type QuizService struct {
	quizzes      QuizRepository
	store        QuizStore
	sessions     SessionRepository
	passingScore int
	validate     *validator.Validate
	now          func() time.Time
	shuffle      func([]domain.PlayableQuestion) []domain.PlayableQuestion
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithPassingScore overrides grading.DefaultPassingScore.
func WithPassingScore(score int) Option {
	return func(s *QuizService) { s.passingScore = score }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithShuffle replaces the play order shuffle; tests use it to pin order.
func WithShuffle(shuffle func([]domain.PlayableQuestion) []domain.PlayableQuestion) Option {
	return func(s *QuizService) { s.shuffle = shuffle }
}

func NewQuizService(quizzes QuizRepository, store QuizStore, sessions SessionRepository, opts ...Option) *QuizService {
	s := &QuizService{
		quizzes:      quizzes,
		store:        store,
		sessions:     sessions,
		passingScore: grading.DefaultPassingScore,
		validate:     validator.New(),
		now:          time.Now,
		shuffle: func(qs []domain.PlayableQuestion) []domain.PlayableQuestion {
			return grading.Shuffle(qs, nil)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate resolves a bearer token into the caller identity.
func (s *QuizService) Authenticate(ctx context.Context, token string) (domain.CallerIdentity, error) {
	if token == "" {
		return domain.CallerIdentity{}, domain.ErrUnauthenticated
	}
	identity, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.CallerIdentity{}, domain.ErrUnauthenticated
		}
		return domain.CallerIdentity{}, err
	}
	return identity, nil
}

// IssueSession creates a session token for identity.
func (s *QuizService) IssueSession(ctx context.Context, identity domain.CallerIdentity) (string, error) {
	if !identity.CanPlay() {
		return "", fmt.Errorf("unknown role %q", identity.Role)
	}
	return s.sessions.Create(ctx, identity)
}

// RevokeSession ends a session. Unknown tokens are not an error.
func (s *QuizService) RevokeSession(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// ListQuizzes returns learner summaries, newest first.
func (s *QuizService) ListQuizzes(ctx context.Context, caller domain.CallerIdentity) ([]domain.QuizSummary, error) {
	if !caller.CanPlay() {
		return nil, domain.ErrForbidden
	}
	quizzes, err := s.sortedQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summaries = append(summaries, summarize(quiz))
	}
	return summaries, nil
}

// PlayQuiz serves a quiz with answers stripped and questions shuffled.
func (s *QuizService) PlayQuiz(ctx context.Context, caller domain.CallerIdentity, quizID string) (domain.PlayableQuiz, error) {
	return s.playable(ctx, caller, quizID, false)
}

// RetakeQuiz re-serves the quiz with a fresh shuffle.
func (s *QuizService) RetakeQuiz(ctx context.Context, caller domain.CallerIdentity, quizID string) (domain.PlayableQuiz, error) {
	return s.playable(ctx, caller, quizID, true)
}

func (s *QuizService) playable(ctx context.Context, caller domain.CallerIdentity, quizID string, retake bool) (domain.PlayableQuiz, error) {
	if !caller.CanPlay() {
		return domain.PlayableQuiz{}, domain.ErrForbidden
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.PlayableQuiz{}, err
	}
	play := strip(quiz)
	play.Questions = s.shuffle(play.Questions)
	play.Retake = retake
	return play, nil
}

// SubmitQuiz grades a submission against the full quiz.
func (s *QuizService) SubmitQuiz(ctx context.Context, caller domain.CallerIdentity, quizID string, submission domain.Submission) (domain.GradingResult, error) {
	if !caller.CanPlay() {
		return domain.GradingResult{}, domain.ErrForbidden
	}
	// Reject empty submissions before touching storage.
	if len(submission.Answers) == 0 {
		return domain.GradingResult{}, domain.ErrInvalidSubmission
	}
	if err := s.validate.Struct(submission); err != nil {
		return domain.GradingResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidSubmission, err)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.GradingResult{}, err
	}
	return grading.Grade(quiz, submission, s.passingScore)
}

// AdminListQuizzes returns every quiz with answers, newest first.
func (s *QuizService) AdminListQuizzes(ctx context.Context, caller domain.CallerIdentity) ([]domain.Quiz, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.sortedQuizzes(ctx)
}

// AdminGetQuiz returns a single quiz with answers.
func (s *QuizService) AdminGetQuiz(ctx context.Context, caller domain.CallerIdentity, quizID string) (domain.Quiz, error) {
	if !caller.IsAdmin() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return s.store.LoadQuiz(ctx, quizID)
}

// CreateQuiz validates input and persists a new quiz.
func (s *QuizService) CreateQuiz(ctx context.Context, caller domain.CallerIdentity, input domain.QuizInput) (domain.Quiz, error) {
	if !caller.IsAdmin() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	if err := s.validateQuiz(input); err != nil {
		return domain.Quiz{}, err
	}
	now := s.now().UTC()
	quiz := build(uuid.NewString(), input)
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	if err := s.store.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// UpdateQuiz replaces title, timer and every question of an existing quiz.
func (s *QuizService) UpdateQuiz(ctx context.Context, caller domain.CallerIdentity, quizID string, input domain.QuizInput) (domain.Quiz, error) {
	if !caller.IsAdmin() {
		return domain.Quiz{}, domain.ErrForbidden
	}
	if err := s.validateQuiz(input); err != nil {
		return domain.Quiz{}, err
	}
	existing, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz := build(quizID, input)
	quiz.CreatedAt = existing.CreatedAt
	quiz.UpdatedAt = s.now().UTC()
	if err := s.store.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.quizzes.Invalidate(ctx, quizID)
	return quiz, nil
}

// DeleteQuiz removes a quiz.
func (s *QuizService) DeleteQuiz(ctx context.Context, caller domain.CallerIdentity, quizID string) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.quizzes.Invalidate(ctx, quizID)
	return nil
}

func (s *QuizService) validateQuiz(input domain.QuizInput) error {
	if input.Title == "" || len(input.Questions) == 0 {
		return fmt.Errorf("%w: title and at least one question are required", domain.ErrInvalidQuiz)
	}
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidQuiz, err)
	}
	for i, q := range input.Questions {
		if q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct answer %d out of range", domain.ErrInvalidQuiz, i+1, q.CorrectAnswer)
		}
	}
	return nil
}

func (s *QuizService) sortedQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

func build(id string, input domain.QuizInput) domain.Quiz {
	timer := input.Timer
	if timer == 0 {
		timer = defaultTimer
	}
	questions := make([]domain.Question, 0, len(input.Questions))
	for _, q := range input.Questions {
		questions = append(questions, domain.Question{
			ID:            uuid.NewString(),
			Question:      q.Question,
			Lesson:        q.Lesson,
			Image:         q.Image,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return domain.Quiz{ID: id, Title: input.Title, Timer: timer, Questions: questions}
}

// strip drops correct answers and explanations for the play view.
func strip(quiz domain.Quiz) domain.PlayableQuiz {
	questions := make([]domain.PlayableQuestion, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, domain.PlayableQuestion{
			ID:       q.ID,
			Question: q.Question,
			Lesson:   q.Lesson,
			Image:    q.Image,
			Options:  append([]string(nil), q.Options...),
		})
	}
	return domain.PlayableQuiz{ID: quiz.ID, Title: quiz.Title, Timer: quiz.Timer, Questions: questions}
}

func summarize(quiz domain.Quiz) domain.QuizSummary {
	lessons := make([]string, 0)
	seen := make(map[string]struct{})
	for _, q := range quiz.Questions {
		if _, ok := seen[q.Lesson]; ok {
			continue
		}
		seen[q.Lesson] = struct{}{}
		lessons = append(lessons, q.Lesson)
	}
	return domain.QuizSummary{
		ID:            quiz.ID,
		Title:         quiz.Title,
		Timer:         quiz.Timer,
		QuestionCount: len(quiz.Questions),
		Lessons:       lessons,
		CreatedAt:     quiz.CreatedAt,
	}
}
