package news

import (
	"slices"
	"time"
)

// Store is an immutable article set with an id index. It is safe for
// concurrent readers because nothing mutates it after NewStore returns.
type Store struct {
	articles    []Article
	byID        map[string]int
	generatedAt time.Time
}

// NewStore copies the given articles into a new Store. Later duplicates of an
// id are ignored by ByID.
func NewStore(articles []Article) *Store {
	s := &Store{
		articles:    slices.Clone(articles),
		byID:        make(map[string]int, len(articles)),
		generatedAt: time.Now(),
	}
	for i, a := range s.articles {
		if _, ok := s.byID[a.ID]; !ok {
			s.byID[a.ID] = i
		}
	}
	return s
}

// Len returns the number of articles.
func (s *Store) Len() int { return len(s.articles) }

// GeneratedAt returns when the Store was built.
func (s *Store) GeneratedAt() time.Time { return s.generatedAt }

// All returns a copy of every article in insertion order.
func (s *Store) All() []Article { return slices.Clone(s.articles) }

// Popular returns the top limit articles by descending views. Ties keep
// insertion order.
func (s *Store) Popular(limit int) []Article {
	out := slices.Clone(s.articles)
	slices.SortStableFunc(out, func(a, b Article) int {
		return b.Views - a.Views
	})
	return out[:s.clamp(limit)]
}

// Recent returns the top limit articles by descending publish time. Ties keep
// insertion order.
func (s *Store) Recent(limit int) []Article {
	out := slices.Clone(s.articles)
	slices.SortStableFunc(out, func(a, b Article) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return out[:s.clamp(limit)]
}

// ByID returns the article with the given id.
func (s *Store) ByID(id string) (Article, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Article{}, false
	}
	return s.articles[i], true
}

// clamp treats non-positive and oversized limits as "everything".
func (s *Store) clamp(limit int) int {
	if limit <= 0 || limit > len(s.articles) {
		return len(s.articles)
	}
	return limit
}
