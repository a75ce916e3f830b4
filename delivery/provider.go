package delivery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/coreybb/dailybrief/datastore"
	"github.com/coreybb/dailybrief/models"
	"github.com/google/uuid"
)

// DeliveryProvider is the adapter interface for outbound mail mechanisms.
// Implement this to add new transports (SMTP relay, API provider, etc.).
type DeliveryProvider interface {
	// Type returns the destination type this provider handles (e.g. "email").
	Type() string
	// Deliver sends an HTML message to the recipient.
	Deliver(ctx context.Context, recipient, subject, htmlBody string) error
}

// DeliveryService selects a provider, executes the send, and records a
// delivery attempt either way. The returned error is the provider's, so
// callers can decide whether the digest window counts as served.
type DeliveryService struct {
	providers   map[string]DeliveryProvider
	attemptRepo *datastore.DeliveryAttemptRepository
}

func NewDeliveryService(attemptRepo *datastore.DeliveryAttemptRepository, providers ...DeliveryProvider) *DeliveryService {
	providerMap := make(map[string]DeliveryProvider, len(providers))
	for _, p := range providers {
		providerMap[p.Type()] = p
	}
	return &DeliveryService{
		providers:   providerMap,
		attemptRepo: attemptRepo,
	}
}

// Deliver sends one digest email and records the attempt.
func (s *DeliveryService) Deliver(ctx context.Context, recipient, subject, htmlBody string) error {
	provider, ok := s.providers["email"]
	if !ok {
		return fmt.Errorf("no delivery provider registered for type %q", "email")
	}

	deliverErr := provider.Deliver(ctx, recipient, subject, htmlBody)

	attempt := models.DeliveryAttempt{
		ID:        uuid.NewString(),
		Email:     recipient,
		CreatedAt: time.Now().UTC(),
	}
	if deliverErr != nil {
		attempt.Status = models.DeliveryStatusFailed
		attempt.ErrorMessage = deliverErr.Error()
		log.Printf("ERROR (DeliveryService): Delivery to %s failed: %v", recipient, deliverErr)
	} else {
		attempt.Status = models.DeliveryStatusDelivered
		log.Printf("INFO (DeliveryService): Delivery to %s completed successfully", recipient)
	}

	if s.attemptRepo != nil {
		if err := s.attemptRepo.CreateAttempt(ctx, &attempt); err != nil {
			log.Printf("WARN (DeliveryService): Failed to record attempt for %s: %v", recipient, err)
		}
	}

	return deliverErr
}
