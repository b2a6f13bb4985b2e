package seed

import (
	"context"
	"fmt"
	"log/slog"

	"thoughtforum/internal/models"
	"thoughtforum/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configure the seeder.
type Options struct {
	NumUsers     int
	NumQuestions int
	// MaxAnswers is the upper bound of answers per question.
	MaxAnswers int
	// MaxFollows is the upper bound of users each user follows.
	MaxFollows  int
	MaxDays     int
	SkipBcrypt  bool
	ShouldClean bool
	BatchSize   int
	// RandSeed makes a run reproducible when non-zero.
	RandSeed int64
}

// DefaultOptions returns a small, browsable data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:     25,
		NumQuestions: 60,
		MaxAnswers:   6,
		MaxFollows:   5,
		MaxDays:      90,
		BatchSize:    100,
	}
}

// BuiltInCategories are created by every seed run and by the server bootstrap.
var BuiltInCategories = []string{
	"General", "Programming", "Science", "Technology", "Health",
	"Books", "Movies", "Music", "Travel", "Food", "Sports", "Philosophy",
}

// Result summarises what a seed run created.
type Result struct {
	Users         int
	Categories    int
	Questions     int
	Answers       int
	QuestionLikes int
	AnswerLikes   int
	Follows       int
}

// Seeder fills the database with fake forum content.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Seeder{db: db, opts: opts, factory: NewFactory(opts)}
}

// Categories upserts the built-in categories. Existing titles are left alone.
func Categories(ctx context.Context, db *gorm.DB) ([]models.Category, error) {
	rows := make([]models.Category, 0, len(BuiltInCategories))
	for _, title := range BuiltInCategories {
		rows = append(rows, models.Category{Title: title})
	}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "title"}}, DoNothing: true}).
		Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	var categories []models.Category
	if err := db.WithContext(ctx).Where("title IN ?", BuiltInCategories).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Run seeds users, categories, questions, answers, likes and follows.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	log := observability.GlobalLogger
	log.InfoContext(ctx, "seeding database",
		slog.Int("users", s.opts.NumUsers),
		slog.Int("questions", s.opts.NumQuestions))

	if s.opts.ShouldClean {
		if err := s.clear(ctx); err != nil {
			log.WarnContext(ctx, "could not clear existing data, continuing", slog.String("error", err.Error()))
		}
	}

	res := &Result{}

	users, err := s.users(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	res.Users = len(users)

	categories, err := Categories(ctx, s.db)
	if err != nil {
		return nil, err
	}
	res.Categories = len(categories)

	if len(users) == 0 {
		return res, nil
	}

	questions, err := s.questions(ctx, users, categories)
	if err != nil {
		return nil, fmt.Errorf("seed questions: %w", err)
	}
	res.Questions = len(questions)

	answers, err := s.answers(ctx, users, questions)
	if err != nil {
		return nil, fmt.Errorf("seed answers: %w", err)
	}
	res.Answers = len(answers)

	if res.QuestionLikes, res.AnswerLikes, err = s.likes(ctx, users, questions, answers); err != nil {
		return nil, fmt.Errorf("seed likes: %w", err)
	}
	if res.Follows, err = s.follows(ctx, users); err != nil {
		return nil, fmt.Errorf("seed follows: %w", err)
	}

	log.InfoContext(ctx, "seeding completed",
		slog.Int("users", res.Users),
		slog.Int("questions", res.Questions),
		slog.Int("answers", res.Answers),
		slog.Int("follows", res.Follows))
	return res, nil
}

func (s *Seeder) clear(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE answer_likes, question_likes, follows, answers, questions, refresh_tokens, categories, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range []string{"answer_likes", "question_likes", "follows", "answers", "questions", "refresh_tokens", "categories", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) users(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.BuildUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(users, s.opts.BatchSize).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) questions(ctx context.Context, users []*models.User, categories []models.Category) ([]*models.Question, error) {
	questions := make([]*models.Question, 0, s.opts.NumQuestions)
	if len(categories) == 0 {
		return questions, nil
	}
	for i := 0; i < s.opts.NumQuestions; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		category := &categories[s.factory.rng.Intn(len(categories))]
		questions = append(questions, s.factory.BuildQuestion(author, category))
	}
	if len(questions) == 0 {
		return questions, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(questions, s.opts.BatchSize).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *Seeder) answers(ctx context.Context, users []*models.User, questions []*models.Question) ([]*models.Answer, error) {
	var answers []*models.Answer
	if s.opts.MaxAnswers <= 0 {
		return answers, nil
	}
	for _, q := range questions {
		n := s.factory.rng.Intn(s.opts.MaxAnswers + 1)
		for i := 0; i < n; i++ {
			author := users[s.factory.rng.Intn(len(users))]
			answers = append(answers, s.factory.BuildAnswer(author, q))
		}
	}
	if len(answers) == 0 {
		return answers, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(answers, s.opts.BatchSize).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

// likes has each question and answer liked by a random handful of users other
// than its author.
func (s *Seeder) likes(ctx context.Context, users []*models.User, questions []*models.Question, answers []*models.Answer) (int, int, error) {
	rng := s.factory.rng
	maxLikes := len(users) / 3

	var qLikes []models.QuestionLike
	for _, q := range questions {
		for _, u := range pick(rng, users, rng.Intn(maxLikes+1), func(u *models.User) bool { return u.ID == q.UserID }) {
			qLikes = append(qLikes, models.QuestionLike{UserID: u.ID, QuestionID: q.ID})
		}
	}

	var aLikes []models.AnswerLike
	for _, a := range answers {
		for _, u := range pick(rng, users, rng.Intn(maxLikes+1), func(u *models.User) bool { return u.ID == a.UserID }) {
			aLikes = append(aLikes, models.AnswerLike{UserID: u.ID, AnswerID: a.ID})
		}
	}

	db := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})
	if len(qLikes) > 0 {
		if err := db.CreateInBatches(&qLikes, s.opts.BatchSize).Error; err != nil {
			return 0, 0, err
		}
	}
	if len(aLikes) > 0 {
		if err := db.CreateInBatches(&aLikes, s.opts.BatchSize).Error; err != nil {
			return 0, 0, err
		}
	}
	return len(qLikes), len(aLikes), nil
}

func (s *Seeder) follows(ctx context.Context, users []*models.User) (int, error) {
	if s.opts.MaxFollows <= 0 {
		return 0, nil
	}
	rng := s.factory.rng

	var follows []models.Follow
	for _, follower := range users {
		followees := pick(rng, users, rng.Intn(s.opts.MaxFollows+1), func(u *models.User) bool { return u.ID == follower.ID })
		for _, followee := range followees {
			follows = append(follows, models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID})
		}
	}
	if len(follows) == 0 {
		return 0, nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&follows, s.opts.BatchSize).Error
	return len(follows), err
}
