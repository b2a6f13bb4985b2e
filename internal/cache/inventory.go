package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	CategoriesKey     = "categories:all"
	HotQuestionsKey   = "questions:hot"
	CategoryKeyPrefix = "category:%d"
)

const (
	CategoriesTTL   = 10 * time.Minute
	HotQuestionsTTL = 30 * time.Second
)

// HotQuestionsLimit is the size of the cached hot-questions ranking.
const HotQuestionsLimit = 3

func CategoryKey(categoryID uint) string {
	return fmt.Sprintf(CategoryKeyPrefix, categoryID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateQuestionLists drops cached question rankings after a question or
// answer changes.
func InvalidateQuestionLists(ctx context.Context) {
	Invalidate(ctx, HotQuestionsKey)
}

// InvalidateCategories drops cached category payloads, which embed question ids.
func InvalidateCategories(ctx context.Context, categoryIDs ...uint) {
	keys := []string{CategoriesKey}
	for _, id := range categoryIDs {
		keys = append(keys, CategoryKey(id))
	}
	Invalidate(ctx, keys...)
}
