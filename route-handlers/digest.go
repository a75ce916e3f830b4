package routehandlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreybb/dailybrief/datastore"
	"github.com/coreybb/dailybrief/processing"
	"github.com/coreybb/dailybrief/webutil"
	"github.com/go-chi/chi/v5"
)

type DigestHandler struct {
	Subscriptions *datastore.SubscriptionRepository
	Digests       *processing.DigestProcessor
	Attempts      *datastore.DeliveryAttemptRepository
}

func NewDigestHandler(
	subscriptions *datastore.SubscriptionRepository,
	digests *processing.DigestProcessor,
	attempts *datastore.DeliveryAttemptRepository,
) *DigestHandler {
	return &DigestHandler{
		Subscriptions: subscriptions,
		Digests:       digests,
		Attempts:      attempts,
	}
}

// HandleTestDigest bypasses scheduling and forces one digest build-and-send
// for diagnostics. GET /api/test-digest/{email}
func (h *DigestHandler) HandleTestDigest(w http.ResponseWriter, r *http.Request) error {
	email := strings.ToLower(chi.URLParam(r, "email"))
	if email == "" {
		return webutil.ErrBadRequest("Email is required")
	}

	sub, err := h.Subscriptions.Get(r.Context(), email)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrNotFound("User not found")
		}
		return fmt.Errorf("failed to load subscription %s: %w", email, err)
	}

	if err := h.Digests.SendDigest(r.Context(), sub); err != nil {
		return webutil.ErrInternalServerWrap("Test digest failed", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Test digest sent"})
	return nil
}

// HandleGetDeliveryAttempts lists recent delivery attempts for a subscriber.
// GET /api/delivery-attempts/{email}
func (h *DigestHandler) HandleGetDeliveryAttempts(w http.ResponseWriter, r *http.Request) error {
	email := strings.ToLower(chi.URLParam(r, "email"))
	if email == "" {
		return webutil.ErrBadRequest("Email is required")
	}

	attempts, err := h.Attempts.GetRecentAttempts(r.Context(), email, 20)
	if err != nil {
		return fmt.Errorf("failed to retrieve delivery attempts for %s: %w", email, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, attempts)
	return nil
}
