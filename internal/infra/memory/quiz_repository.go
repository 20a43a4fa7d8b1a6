package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"daily-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches a day's quiz from a backing store.
type QuizLoader interface {
	LoadDailyQuiz(ctx context.Context, subject domain.Subject, day string) (domain.Quiz, error)
}

// QuizRepository caches daily quizzes with TTL to avoid repeated store hits.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetDailyQuiz(ctx context.Context, subject domain.Subject, day string) (domain.Quiz, error) {
	key := cacheKey(subject, day)
	if quiz, ok := r.lookup(key); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		if quiz, ok := r.lookup(key); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadDailyQuiz(ctx, subject, day)
		if err != nil {
			return domain.Quiz{}, err
		}

		r.mu.Lock()
		r.cache[key] = cachedQuiz{
			quiz:      quiz,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops the cached quiz so the next read sees a fresh publish.
func (r *QuizRepository) Invalidate(_ context.Context, subject domain.Subject, day string) {
	r.mu.Lock()
	delete(r.cache, cacheKey(subject, day))
	r.mu.Unlock()
}

func (r *QuizRepository) lookup(key string) (domain.Quiz, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func cacheKey(subject domain.Subject, day string) string {
	return string(subject) + "/" + day
}
