// Command seed fills the database with fake forum activity for development.
package main

import (
	"context"
	"flag"
	"log"

	"thoughtforum/internal/bootstrap"
	"thoughtforum/internal/config"
	"thoughtforum/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numQuestions := flag.Int("questions", defaults.NumQuestions, "Number of questions to create")
	maxAnswers := flag.Int("answers", defaults.MaxAnswers, "Maximum answers per question")
	maxFollows := flag.Int("follows", defaults.MaxFollows, "Maximum follows per user")
	maxDays := flag.Int("days", defaults.MaxDays, "Spread creation times over this many past days")
	shouldClean := flag.Bool("clean", defaults.ShouldClean, "Clean database before seeding")
	fast := flag.Bool("fast", defaults.SkipBcrypt, "Hash one shared password instead of one per user")
	randSeed := flag.Int64("seed", 0, "Random seed (0 uses the clock)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to prepare database: %v", err)
	}

	opts := defaults
	opts.NumUsers = *numUsers
	opts.NumQuestions = *numQuestions
	opts.MaxAnswers = *maxAnswers
	opts.MaxFollows = *maxFollows
	opts.MaxDays = *maxDays
	opts.ShouldClean = *shouldClean
	opts.SkipBcrypt = *fast
	opts.RandSeed = *randSeed

	log.Printf("Seeding %d users, %d questions, clean=%v", opts.NumUsers, opts.NumQuestions, opts.ShouldClean)

	res, err := seed.NewSeeder(db, opts).Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d categories, %d questions, %d answers, %d likes, %d follows",
		res.Users, res.Categories, res.Questions, res.Answers, res.QuestionLikes+res.AnswerLikes, res.Follows)
	log.Printf("All seeded users share the password %q", seed.DefaultPassword)
}
