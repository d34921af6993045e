package quiz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lectio-edu/lectio/internal/content"
)

// CachePolicy decides when previously generated tests are reused.
type CachePolicy string

const (
	// CachePolicyAuto reuses cached tests only while no AI credential is configured.
	CachePolicyAuto   CachePolicy = "auto"
	CachePolicyAlways CachePolicy = "always"
	CachePolicyNever  CachePolicy = "never"
)

// Enabled resolves the policy against whether real generation is available.
func (p CachePolicy) Enabled(hasCredential bool) bool {
	switch p {
	case CachePolicyAlways:
		return true
	case CachePolicyNever:
		return false
	default:
		return !hasCredential
	}
}

// CacheKey matches exactly; an empty chapter is part of the key, not a wildcard.
type CacheKey struct {
	Scope       content.Scope
	Fingerprint string
}

// TestCache looks up generated tests by scope and content fingerprint.
type TestCache struct {
	tests   TestRepository
	enabled bool
}

func NewTestCache(tests TestRepository, enabled bool) *TestCache {
	return &TestCache{tests: tests, enabled: enabled}
}

func (c *TestCache) Enabled() bool {
	return c.enabled
}

// FindCached returns the newest test for key, or nil on a miss or when caching is disabled.
func (c *TestCache) FindCached(ctx context.Context, key CacheKey) (*GeneratedTest, error) {
	if !c.enabled {
		return nil, nil
	}
	test, err := c.tests.FindLatest(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("tests.FindLatest() > %w", err)
	}
	if test != nil {
		slog.Default().Info("using cached test",
			"testId", test.ID,
			"subjectId", key.Scope.SubjectID,
			"bookId", key.Scope.BookID,
			"chapterId", key.Scope.ChapterID,
			"contentHash", key.Fingerprint)
	}
	return test, nil
}

// Store persists a newly generated test. It becomes the newest entry for its key.
func (c *TestCache) Store(ctx context.Context, test *GeneratedTest) error {
	if err := c.tests.Create(ctx, test); err != nil {
		return fmt.Errorf("tests.Create() > %w", err)
	}
	slog.Default().Info("generated new test",
		"testId", test.ID,
		"subjectId", test.SubjectID,
		"bookId", test.BookID,
		"chapterId", test.ChapterID,
		"contentHash", test.SourceContentHash)
	return nil
}
