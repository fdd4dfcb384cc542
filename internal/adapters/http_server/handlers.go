// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"homio/internal/app"
	"homio/internal/domain"
)

type Handlers struct {
	Q   *app.QueryService
	C   *app.ReviewService
	Dir domain.ProfileDirectory
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api/reviews", func(r chi.Router) {
		r.Get("/address/{addressID}", h.listAddressReviews)
		r.Get("/address/{addressID}/stats", h.addressStats)
		r.Get("/profile/{profileID}", h.listProfileReviews)
		r.Get("/{reviewID}", h.getReview)

		r.Group(func(r chi.Router) {
			r.Use(RequireProfile(h.Dir))
			r.Post("/", h.createReview)
			r.Put("/{reviewID}", h.updateReview)
			r.Delete("/{reviewID}", h.deleteReview)
		})
	})
}

// All responses are {"success":true,...} or {"success":false,"message":...}.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeFail(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrDuplicateReview),
		errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrProfileType),
		errors.Is(err, domain.ErrAddressLevel):
		writeFail(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeFail(w, http.StatusInternalServerError, "internal error")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func parseLimit(r *http.Request, w http.ResponseWriter) (int, bool) {
	limit := app.DefaultListLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeFail(w, http.StatusBadRequest, "limit must be an integer between 1 and 200")
			return 0, false
		}
		limit = l
	}
	return limit, true
}

// ---- read endpoints ----

func (h *Handlers) listAddressReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "addressID")
	if !ok {
		writeFail(w, http.StatusBadRequest, "addressID must be a number")
		return
	}
	limit, ok := parseLimit(r, w)
	if !ok {
		return
	}
	page, err := h.Q.GetAddressReviews(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, map[string]any{
		"success":      true,
		"addressId":    page.AddressID,
		"addressLevel": page.AddressLevel,
		"reviews":      reviewsJSON(page.Items),
		"count":        len(page.Items),
	})
}

func (h *Handlers) addressStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "addressID")
	if !ok {
		writeFail(w, http.StatusBadRequest, "addressID must be a number")
		return
	}
	st, err := h.Q.GetAddressStats(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, map[string]any{
		"success":      true,
		"addressLevel": st.AddressLevel,
		"unit":         st.Unit,
		"building":     st.Building,
		"street":       st.Street,
	})
}

func (h *Handlers) listProfileReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "profileID")
	if !ok {
		writeFail(w, http.StatusBadRequest, "profileID must be a number")
		return
	}
	limit, ok := parseLimit(r, w)
	if !ok {
		return
	}
	items, err := h.Q.ListProfileReviews(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, map[string]any{
		"success": true,
		"reviews": reviewsJSON(items),
		"count":   len(items),
	})
}

func (h *Handlers) getReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "reviewID")
	if !ok {
		writeFail(w, http.StatusBadRequest, "reviewID must be a number")
		return
	}
	rv, err := h.Q.GetReview(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, map[string]any{"success": true, "review": reviewJSON(rv)})
}

// ---- write endpoints ----

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := ProfileFrom(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var in app.CreateReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rv, err := h.C.CreateReview(r.Context(), caller, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "review": reviewJSON(rv)})
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := ProfileFrom(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(r, "reviewID")
	if !ok {
		writeFail(w, http.StatusBadRequest, "reviewID must be a number")
		return
	}
	var in app.UpdateReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rv, err := h.C.UpdateReview(r.Context(), caller, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "review": reviewJSON(rv)})
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := ProfileFrom(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(r, "reviewID")
	if !ok {
		writeFail(w, http.StatusBadRequest, "reviewID must be a number")
		return
	}
	if err := h.C.DeleteReview(r.Context(), caller, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "review deleted"})
}

// ---- wire shapes ----

type reviewBody struct {
	ID              int64          `json:"id"`
	ProfileID       int64          `json:"profileId"`
	AddressID       int64          `json:"addressId"`
	StreetLevelID   int64          `json:"streetLevelId"`
	BuildingLevelID int64          `json:"buildingLevelId"`
	UnitLevelID     *int64         `json:"unitLevelId,omitempty"`
	Rating          int            `json:"rating"`
	Recommend       bool           `json:"recommend"`
	Opinion         string         `json:"opinion"`
	Aspects         map[string]int `json:"aspects,omitempty"`
	Verified        bool           `json:"verified"`
	CreatedAt       string         `json:"createdAt"`
	UpdatedAt       string         `json:"updatedAt"`
}

func reviewJSON(rv domain.Review) reviewBody {
	return reviewBody{
		ID:              rv.ID,
		ProfileID:       rv.ProfileID,
		AddressID:       rv.AddressID,
		StreetLevelID:   rv.StreetLevelID,
		BuildingLevelID: rv.BuildingLevelID,
		UnitLevelID:     rv.UnitLevelID,
		Rating:          rv.Rating,
		Recommend:       rv.Recommend,
		Opinion:         rv.Opinion,
		Aspects:         rv.Aspects,
		Verified:        rv.Verified,
		CreatedAt:       rv.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:       rv.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func reviewsJSON(rs []domain.Review) []reviewBody {
	out := make([]reviewBody, 0, len(rs))
	for _, rv := range rs {
		out = append(out, reviewJSON(rv))
	}
	return out
}
