package services

import (
	"context"
	"fmt"
	"sync"

	"cart-ratings-backend/internal/models"
)

// fakeStore is an in-memory Store with per-call error injection.
type fakeStore struct {
	mu        sync.Mutex
	locations []models.Location
	ratings   []models.Rating

	listLocationsErr error
	insertErr        error
	listRatingsErr   error
	insertRatingErr  error
}

func (s *fakeStore) ListLocations(ctx context.Context) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listLocationsErr != nil {
		return nil, s.listLocationsErr
	}
	out := make([]models.Location, len(s.locations))
	copy(out, s.locations)
	return out, nil
}

func (s *fakeStore) InsertLocation(ctx context.Context, location models.Location) (models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return models.Location{}, s.insertErr
	}
	s.locations = append(s.locations, location)
	return location, nil
}

func (s *fakeStore) ListRatings(ctx context.Context) ([]models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listRatingsErr != nil {
		return nil, s.listRatingsErr
	}
	out := make([]models.Rating, len(s.ratings))
	copy(out, s.ratings)
	return out, nil
}

func (s *fakeStore) InsertRating(ctx context.Context, rating models.Rating) (models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertRatingErr != nil {
		return models.Rating{}, s.insertRatingErr
	}
	s.ratings = append(s.ratings, rating)
	return rating, nil
}

func (s *fakeStore) DeleteRating(ctx context.Context, id, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.ratings {
		if r.ID == id && r.AuthorID == authorID {
			s.ratings = append(s.ratings[:i], s.ratings[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("rating %s for author %s: %w", id, authorID, models.ErrNotFound)
}

func (s *fakeStore) DeleteAllRatingsForAuthor(ctx context.Context, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.ratings[:0]
	for _, r := range s.ratings {
		if r.AuthorID != authorID {
			kept = append(kept, r)
		}
	}
	s.ratings = kept
	return nil
}

func (s *fakeStore) PurgeAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings = nil
	s.locations = nil
	return nil
}

func (s *fakeStore) ratingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ratings)
}

func (s *fakeStore) locationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locations)
}

func (s *fakeStore) lastRating() models.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratings[len(s.ratings)-1]
}

func (s *fakeStore) locationByID(id string) (models.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.locations {
		if l.ID == id {
			return l, true
		}
	}
	return models.Location{}, false
}

// fakeBlobs is an in-memory BlobStore.
type fakeBlobs struct {
	mu          sync.Mutex
	uploads     int
	uploadErrAt map[int]error   // 1-based upload index -> error
	downloadErr map[string]bool // uri -> fail
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{
		uploadErrAt: make(map[int]error),
		downloadErr: make(map[string]bool),
	}
}

func (b *fakeBlobs) Upload(ctx context.Context, data []byte, category string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads++
	if err := b.uploadErrAt[b.uploads]; err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://test/%s/%d.jpg", category, b.uploads), nil
}

func (b *fakeBlobs) Download(ctx context.Context, uri string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.downloadErr[uri] {
		return nil, fmt.Errorf("blob %s unavailable", uri)
	}
	return []byte("jpeg"), nil
}

// fakeNotifier hands out one channel the test can feed directly.
type fakeNotifier struct {
	events chan RatingEvent
	once   sync.Once
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{events: make(chan RatingEvent, 16)}
}

func (n *fakeNotifier) Subscribe(ctx context.Context) (<-chan RatingEvent, error) {
	return n.events, nil
}

func (n *fakeNotifier) Unsubscribe() {
	n.once.Do(func() { close(n.events) })
}

// fakePublisher records every published rating.
type fakePublisher struct {
	mu        sync.Mutex
	published []models.Rating
}

func (p *fakePublisher) PublishRating(rating models.Rating, location models.Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, rating)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}
