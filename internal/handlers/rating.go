package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"cart-ratings-backend/internal/middleware"
	"cart-ratings-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxPhotoSize bounds a single uploaded photo.
const maxPhotoSize = 10 << 20

// RatingHandler handles rating-related HTTP requests
type RatingHandler struct {
	engine *services.SyncEngine
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(engine *services.SyncEngine) *RatingHandler {
	return &RatingHandler{
		engine: engine,
	}
}

// SubmitRating handles POST /api/v1/ratings. The request is multipart:
// photo (required), photo2 (optional), name, latitude, longitude,
// score and review_text fields.
func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authorID := middleware.GetAuthorID(ctx)

	if err := r.ParseMultipartForm(2 * maxPhotoSize); err != nil {
		respondError(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(r.FormValue("latitude"), 64)
	if err != nil {
		respondError(w, "latitude is required and must be a number", http.StatusBadRequest)
		return
	}
	lon, err := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if err != nil {
		respondError(w, "longitude is required and must be a number", http.StatusBadRequest)
		return
	}
	score, err := strconv.Atoi(r.FormValue("score"))
	if err != nil || score < 1 || score > 5 {
		respondError(w, "score must be an integer between 1 and 5", http.StatusBadRequest)
		return
	}

	var name *string
	if v := r.FormValue("name"); v != "" {
		name = &v
	}
	var reviewText *string
	if v := r.FormValue("review_text"); v != "" {
		reviewText = &v
	}

	photo, err := readFormPhoto(r, "photo")
	if err != nil {
		if errors.Is(err, errPhotoTooLarge) {
			respondError(w, "photo exceeds the 10 MB limit", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "photo is required", http.StatusBadRequest)
		return
	}
	photo2, err := readFormPhoto(r, "photo2") // optional, but never truncated
	if errors.Is(err, errPhotoTooLarge) {
		respondError(w, "photo2 exceeds the 10 MB limit", http.StatusRequestEntityTooLarge)
		return
	}

	rating, err := h.engine.Submit(ctx, services.SubmitRequest{
		AuthorID:   authorID,
		Name:       name,
		Latitude:   lat,
		Longitude:  lon,
		Score:      score,
		ReviewText: reviewText,
		Photo:      photo,
		Photo2:     photo2,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("author_id", authorID).
			Msg("Failed to submit rating")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	// Freshness backstop: the notification echo normally performs the
	// local insert, the reload covers dropped notifications.
	go func() {
		reloadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.engine.Reload(reloadCtx); err != nil {
			log.Warn().Err(err).Msg("Post-submit reload failed")
		}
	}()

	log.Info().
		Str("rating_id", rating.ID).
		Str("author_id", authorID).
		Str("location_id", rating.LocationID).
		Int("score", rating.Score).
		Msg("Rating submitted")

	respondJSON(w, rating, http.StatusCreated)
}

// errPhotoTooLarge marks an uploaded photo over maxPhotoSize.
var errPhotoTooLarge = errors.New("photo too large")

// readFormPhoto reads one uploaded file part fully into memory and
// rejects parts over maxPhotoSize rather than truncating them.
func readFormPhoto(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPhotoSize {
		return nil, errPhotoTooLarge
	}
	return data, nil
}

// GetGroups handles GET /api/v1/groups
func (h *RatingHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	groups := h.engine.Groups()
	respondJSON(w, map[string]interface{}{
		"groups": groups,
		"total":  len(groups),
	}, http.StatusOK)
}

// DeleteRating handles DELETE /api/v1/ratings/{rating_id}
func (h *RatingHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authorID := middleware.GetAuthorID(ctx)
	ratingID := chi.URLParam(r, "rating_id")

	if err := h.engine.Remove(ctx, ratingID, authorID); err != nil {
		log.Error().
			Err(err).
			Str("rating_id", ratingID).
			Str("author_id", authorID).
			Msg("Failed to delete rating")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	log.Info().
		Str("rating_id", ratingID).
		Str("author_id", authorID).
		Msg("Rating deleted")

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllRatings handles DELETE /api/v1/ratings, removing every
// rating by the authenticated author.
func (h *RatingHandler) DeleteAllRatings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authorID := middleware.GetAuthorID(ctx)

	if err := h.engine.RemoveAllForAuthor(ctx, authorID); err != nil {
		log.Error().
			Err(err).
			Str("author_id", authorID).
			Msg("Failed to delete author ratings")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PurgeAll handles DELETE /api/v1/admin/purge. Administrative bulk
// wipe; idempotent.
func (h *RatingHandler) PurgeAll(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.PurgeAll(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to purge")
		respondError(w, err.Error(), statusForError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
