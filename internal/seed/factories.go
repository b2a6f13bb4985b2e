// Package seed provides helpers to create demo data for the forum database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"thoughtforum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "Passw0rd!"

var genders = []string{"female", "male", "other"}

// Factory builds forum entities for the seeder to persist.
type Factory struct {
	opts  Options
	fake  *gofakeit.Faker
	rng   *rand.Rand
	hash  string
	count int
}

// NewFactory creates a Factory. A zero Options.RandSeed seeds from the clock.
func NewFactory(opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{
		opts: opts,
		fake: gofakeit.New(seed),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	if f.opts.SkipBcrypt {
		f.hash = DefaultPassword
		return f.hash, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	f.hash = string(hashed)
	return f.hash, nil
}

// createdAt returns a timestamp spread over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// BuildUser constructs a user without saving it. Emails are unique per factory.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	first := f.fake.FirstName()
	last := f.fake.LastName()
	f.count++
	user := &models.User{
		Name:     first + " " + last,
		Email:    fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), f.count),
		Gender:   genders[f.rng.Intn(len(genders))],
		Bio:      f.fake.Sentence(8),
		Password: hash,
	}
	user.CreatedAt = f.createdAt()

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// BuildQuestion constructs a question by author in category without saving it.
func (f *Factory) BuildQuestion(author *models.User, category *models.Category) *models.Question {
	q := &models.Question{
		Title:      strings.TrimSuffix(f.fake.Sentence(f.rng.Intn(8)+4), ".") + "?",
		Body:       f.fake.Paragraph(f.rng.Intn(3)+1, 3, 12, "\n\n"),
		UserID:     author.ID,
		CategoryID: category.ID,
	}
	q.CreatedAt = f.createdAt()
	return q
}

// BuildAnswer constructs an answer to question without saving it. It is never
// older than the question.
func (f *Factory) BuildAnswer(author *models.User, question *models.Question) *models.Answer {
	a := &models.Answer{
		Text:       f.fake.Paragraph(1, f.rng.Intn(4)+1, 14, " "),
		UserID:     author.ID,
		QuestionID: question.ID,
	}
	a.CreatedAt = question.CreatedAt.Add(time.Duration(f.rng.Intn(72)+1) * time.Hour)
	if a.CreatedAt.After(time.Now()) {
		a.CreatedAt = time.Now()
	}
	return a
}

// pick returns up to n distinct elements of items, never including skip.
func pick[T any](rng *rand.Rand, items []T, n int, skip func(T) bool) []T {
	out := make([]T, 0, n)
	for _, i := range rng.Perm(len(items)) {
		if len(out) == n {
			break
		}
		if skip != nil && skip(items[i]) {
			continue
		}
		out = append(out, items[i])
	}
	return out
}
