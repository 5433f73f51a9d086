package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"cart-ratings-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store is the structured-data collaborator of the sync engine. It is
// implemented by the PostgreSQL repositories in production and by fakes
// in tests.
type Store interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	InsertLocation(ctx context.Context, location models.Location) (models.Location, error)
	ListRatings(ctx context.Context) ([]models.Rating, error)
	InsertRating(ctx context.Context, rating models.Rating) (models.Rating, error)
	DeleteRating(ctx context.Context, id, authorID string) error
	DeleteAllRatingsForAuthor(ctx context.Context, authorID string) error
	PurgeAll(ctx context.Context) error
}

// BlobStore stores and retrieves binary objects (photos) by opaque URI.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, category string) (string, error)
	Download(ctx context.Context, uri string) ([]byte, error)
}

// RatingEvent is one insert event on the live-change stream.
type RatingEvent struct {
	Rating   models.Rating   `json:"rating"`
	Location models.Location `json:"location"`
}

// Notifier yields an at-least-once, unordered stream of rating insert
// events. The channel is closed on Unsubscribe.
type Notifier interface {
	Subscribe(ctx context.Context) (<-chan RatingEvent, error)
	Unsubscribe()
}

// ChangePublisher receives every rating accepted into local state, so
// connected clients can be told about it. May be nil on the engine.
type ChangePublisher interface {
	PublishRating(rating models.Rating, location models.Location)
}

// EngineState is the lifecycle state of a SyncEngine.
type EngineState int

const (
	StateIdle EngineState = iota
	StateLoading
	StateReady
	StateSubmitting
)

// SubmitRequest carries everything needed to submit one rating.
type SubmitRequest struct {
	AuthorID   string
	Name       *string
	Latitude   float64
	Longitude  float64
	Score      int
	ReviewText *string
	Photo      []byte
	Photo2     []byte
}

// SyncEngine owns the authoritative in-memory rating collection for the
// running process. It bulk-loads from the store, persists submissions,
// absorbs the live-change stream with duplicate suppression, and keeps
// the derived location groups current.
//
// All state lives behind one mutex; async work (store calls, blob
// transfers) happens outside the lock and hands its result to a short
// critical section, so there is a single mutation point.
type SyncEngine struct {
	store     Store
	blobs     BlobStore
	notifier  Notifier
	resolver  *LocationResolver
	publisher ChangePublisher

	tolerance   float64
	dedupWindow time.Duration

	mu         sync.Mutex
	state      EngineState
	ratings    []models.Rating
	groups     []models.LocationGroup
	subscribed bool
	torn       bool
}

// NewSyncEngine creates a sync engine. publisher may be nil.
func NewSyncEngine(
	store Store,
	blobs BlobStore,
	notifier Notifier,
	resolver *LocationResolver,
	publisher ChangePublisher,
	tolerance float64,
	dedupWindow time.Duration,
) *SyncEngine {
	return &SyncEngine{
		store:       store,
		blobs:       blobs,
		notifier:    notifier,
		resolver:    resolver,
		publisher:   publisher,
		tolerance:   tolerance,
		dedupWindow: dedupWindow,
		state:       StateIdle,
	}
}

// Bootstrap replaces local state with a full load from the store and
// opens the live-change subscription. On store failure local state
// keeps its prior value. Ratings whose location cannot be resolved or
// whose required photo cannot be downloaded are skipped, not fatal.
func (e *SyncEngine) Bootstrap(ctx context.Context) error {
	e.mu.Lock()
	prior := e.state
	e.state = StateLoading
	e.mu.Unlock()

	loaded, err := e.load(ctx)
	if err != nil {
		// Local state keeps its prior value on a failed load.
		e.mu.Lock()
		if e.state == StateLoading {
			e.state = prior
		}
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.ratings = loaded
	e.groups = GroupRatings(e.ratings)
	e.state = StateReady
	alreadySubscribed := e.subscribed
	torn := e.torn
	e.mu.Unlock()

	if alreadySubscribed || torn {
		return nil
	}

	events, err := e.notifier.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to open live subscription: %w", err)
	}
	e.mu.Lock()
	e.subscribed = true
	e.mu.Unlock()

	go e.drain(events)
	return nil
}

// Reload refreshes local state from the store without touching the
// subscription. It is the freshness backstop for dropped notifications.
func (e *SyncEngine) Reload(ctx context.Context) error {
	loaded, err := e.load(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.ratings = loaded
	e.groups = GroupRatings(e.ratings)
	e.state = StateReady
	e.mu.Unlock()
	return nil
}

// load fetches and joins ratings and locations off the engine lock.
func (e *SyncEngine) load(ctx context.Context) ([]models.Rating, error) {
	ratings, err := e.store.ListRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing ratings: %v", models.ErrStoreUnavailable, err)
	}
	locations, err := e.store.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing locations: %v", models.ErrStoreUnavailable, err)
	}

	byID := make(map[string]models.Location, len(locations))
	for _, l := range locations {
		byID[l.ID] = l
	}

	loaded := make([]models.Rating, 0, len(ratings))
	for _, r := range ratings {
		location, ok := byID[r.LocationID]
		if !ok {
			log.Warn().
				Str("rating_id", r.ID).
				Str("location_id", r.LocationID).
				Msg("Skipping rating with unresolvable location")
			continue
		}
		if _, err := e.blobs.Download(ctx, r.PhotoURL); err != nil {
			log.Warn().
				Err(err).
				Str("rating_id", r.ID).
				Msg("Skipping rating with unretrievable photo")
			continue
		}
		r.LocationName = location.Name
		r.Latitude = location.Latitude
		r.Longitude = location.Longitude
		loaded = append(loaded, r)
	}
	return loaded, nil
}

// Submit uploads the photos, resolves the canonical location and
// persists the rating. The rating is deliberately not inserted into
// local state here: the live-change notification echo performs the
// insert, so no duplicate can arise between an optimistic copy and the
// echo.
func (e *SyncEngine) Submit(ctx context.Context, req SubmitRequest) (models.Rating, error) {
	if req.AuthorID == "" {
		return models.Rating{}, models.ErrNotAuthenticated
	}

	e.mu.Lock()
	prior := e.state
	e.state = StateSubmitting
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		if e.state == StateSubmitting {
			e.state = prior
		}
		e.mu.Unlock()
	}()

	photoURL, err := e.blobs.Upload(ctx, req.Photo, "ratings")
	if err != nil {
		return models.Rating{}, fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}

	// The second photo is optional; losing it does not fail the submit.
	var photo2URL *string
	if len(req.Photo2) > 0 {
		url, err := e.blobs.Upload(ctx, req.Photo2, "ratings")
		if err != nil {
			log.Warn().Err(err).Msg("Optional photo upload failed, continuing without it")
		} else {
			photo2URL = &url
		}
	}

	location, err := e.resolver.ResolveOrCreate(ctx, req.Name, req.Latitude, req.Longitude)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to resolve location: %w", err)
	}

	rating := models.Rating{
		ID:           uuid.New().String(),
		AuthorID:     req.AuthorID,
		LocationID:   location.ID,
		Score:        req.Score,
		ReviewText:   req.ReviewText,
		PhotoURL:     photoURL,
		Photo2URL:    photo2URL,
		LocationName: location.Name,
		Latitude:     location.Latitude,
		Longitude:    location.Longitude,
		CreatedAt:    time.Now().UTC(),
	}

	persisted, err := e.store.InsertRating(ctx, rating)
	if err != nil {
		return models.Rating{}, fmt.Errorf("%w: inserting rating: %v", models.ErrStoreUnavailable, err)
	}
	return persisted, nil
}

// OnNotification is the duplicate suppression gate for the live-change
// stream. It is a silent no-op when a local rating with the same id
// exists, or when a local rating by the same author with the same score
// sits within the coordinate tolerance and the dedup window of the
// incoming one. Otherwise the required photo is fetched; on download
// failure the whole event is dropped rather than inserting a partial
// record.
func (e *SyncEngine) OnNotification(rating models.Rating, location models.Location) error {
	rating.LocationName = location.Name
	rating.Latitude = location.Latitude
	rating.Longitude = location.Longitude

	e.mu.Lock()
	if e.torn || e.isDuplicateLocked(rating) {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	// Fetch off the lock; the insert below re-checks for a duplicate
	// that may have arrived meanwhile.
	if _, err := e.blobs.Download(context.Background(), rating.PhotoURL); err != nil {
		return fmt.Errorf("dropping notification, photo download failed: %w", err)
	}

	e.mu.Lock()
	if e.torn || e.isDuplicateLocked(rating) {
		e.mu.Unlock()
		return nil
	}
	e.ratings = append(e.ratings, rating)
	e.groups = GroupRatings(e.ratings)
	e.mu.Unlock()

	if e.publisher != nil {
		e.publisher.PublishRating(rating, location)
	}
	return nil
}

// isDuplicateLocked applies the two rejection rules under the engine
// lock: exact id match first, then the similarity heuristic covering
// notifications whose id differs from an already-held copy (client
// retries, superseded optimistic ids).
func (e *SyncEngine) isDuplicateLocked(incoming models.Rating) bool {
	for _, existing := range e.ratings {
		if existing.ID == incoming.ID {
			return true
		}
		if existing.AuthorID != incoming.AuthorID {
			continue
		}
		if existing.Score != incoming.Score {
			continue
		}
		if math.Abs(existing.Latitude-incoming.Latitude) >= e.tolerance {
			continue
		}
		if math.Abs(existing.Longitude-incoming.Longitude) >= e.tolerance {
			continue
		}
		delta := existing.CreatedAt.Sub(incoming.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta <= e.dedupWindow {
			return true
		}
	}
	return false
}

// drain feeds the live-change stream into the engine until the channel
// closes. Handler failures are logged and the stream continues.
func (e *SyncEngine) drain(events <-chan RatingEvent) {
	for ev := range events {
		if err := e.OnNotification(ev.Rating, ev.Location); err != nil {
			log.Error().Err(err).Str("rating_id", ev.Rating.ID).Msg("Failed to handle rating notification")
		}
	}
}

// Remove deletes a rating. The store delete is scoped to the requesting
// author, so a user can only remove their own rating; local state is
// only touched when the store accepted the delete.
func (e *SyncEngine) Remove(ctx context.Context, id, authorID string) error {
	if authorID == "" {
		return models.ErrNotAuthenticated
	}
	if err := e.store.DeleteRating(ctx, id, authorID); err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}

	e.mu.Lock()
	kept := e.ratings[:0]
	for _, r := range e.ratings {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	e.ratings = kept
	e.groups = GroupRatings(e.ratings)
	e.mu.Unlock()
	return nil
}

// RemoveAllForAuthor deletes every rating by the given author.
func (e *SyncEngine) RemoveAllForAuthor(ctx context.Context, authorID string) error {
	if authorID == "" {
		return models.ErrNotAuthenticated
	}
	if err := e.store.DeleteAllRatingsForAuthor(ctx, authorID); err != nil {
		return fmt.Errorf("failed to delete ratings: %w", err)
	}

	e.mu.Lock()
	kept := e.ratings[:0]
	for _, r := range e.ratings {
		if r.AuthorID != authorID {
			kept = append(kept, r)
		}
	}
	e.ratings = kept
	e.groups = GroupRatings(e.ratings)
	e.mu.Unlock()
	return nil
}

// PurgeAll wipes every rating and location. Administrative use only;
// idempotent.
func (e *SyncEngine) PurgeAll(ctx context.Context) error {
	if err := e.store.PurgeAll(ctx); err != nil {
		return fmt.Errorf("failed to purge store: %w", err)
	}
	e.mu.Lock()
	e.ratings = nil
	e.groups = nil
	e.mu.Unlock()
	return nil
}

// Teardown closes the live-change subscription. Safe to call multiple
// times and from any state; a notification already in flight lands on
// the torn-down engine as a no-op.
func (e *SyncEngine) Teardown() {
	e.mu.Lock()
	e.torn = true
	subscribed := e.subscribed
	e.subscribed = false
	e.mu.Unlock()

	if subscribed {
		e.notifier.Unsubscribe()
	}
}

// Groups returns a snapshot of the current location groups.
func (e *SyncEngine) Groups() []models.LocationGroup {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.LocationGroup, len(e.groups))
	copy(out, e.groups)
	return out
}

// Ratings returns a snapshot of the local rating collection.
func (e *SyncEngine) Ratings() []models.Rating {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Rating, len(e.ratings))
	copy(out, e.ratings)
	return out
}

// State returns the engine's current lifecycle state.
func (e *SyncEngine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
