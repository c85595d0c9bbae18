package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"agency-backend/models"
	"agency-backend/utils"
)

// maxReferenceAttempts bounds how many reference codes Submit tries when the
// generated one is already taken.
const maxReferenceAttempts = 3

type BookingService struct {
	Repo       BookingRepository
	Notifier   Notifier
	References *ReferenceGenerator
	Events     EventPublisher
	Metrics    *Metrics

	// StoreTimeout bounds each repository call.
	StoreTimeout time.Duration
	// SideTimeout bounds the notification side channel of one booking.
	SideTimeout time.Duration

	log zerolog.Logger
	wg  sync.WaitGroup
}

func NewBookingService(repo BookingRepository, notifier Notifier, log zerolog.Logger) *BookingService {
	return &BookingService{
		Repo:         repo,
		Notifier:     notifier,
		References:   NewReferenceGenerator(),
		StoreTimeout: 5 * time.Second,
		SideTimeout:  15 * time.Second,
		log:          log.With().Str("component", "booking").Logger(),
	}
}

// Submit persists a validated booking under a fresh reference code and
// starts the notification side channel. The returned booking is durable;
// notification outcome never changes the result.
func (s *BookingService) Submit(ctx context.Context, in *ValidatedBooking) (*models.Booking, error) {
	var booking *models.Booking
	for attempt := 1; ; attempt++ {
		booking = in.Booking(s.References.Generate())

		err := s.create(ctx, booking)
		if err == nil {
			break
		}
		if errors.Is(err, ErrDuplicateReference) && attempt < maxReferenceAttempts {
			s.log.Warn().Str("reference", booking.Reference).Int("attempt", attempt).
				Msg("reference already taken; regenerating")
			continue
		}
		return nil, err
	}

	s.log.Info().
		Uint("id", booking.ID).
		Str("reference", booking.Reference).
		Str("type", string(booking.Type)).
		Str("email", utils.MaskEmail(booking.Email)).
		Msg("booking created")

	s.wg.Add(1)
	go func(b models.Booking) {
		defer s.wg.Done()
		sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.SideTimeout)
		defer cancel()
		s.dispatch(sideCtx, &b)
	}(*booking)

	return booking, nil
}

// Wait blocks until all started side channels have finished.
func (s *BookingService) Wait() {
	s.wg.Wait()
}

func (s *BookingService) create(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	return s.Repo.Create(ctx, b)
}

func (s *BookingService) dispatch(ctx context.Context, b *models.Booking) {
	if s.Events != nil {
		event := BookingCreatedEvent{Event: BookingCreatedKey, OccurredAt: time.Now().UTC(), Booking: b}
		if err := s.Events.PublishJSON(ctx, BookingCreatedKey, event); err != nil {
			s.log.Error().Err(err).Str("reference", b.Reference).Msg("publish booking event")
		}
	}

	msgID, ok := s.Notifier.Send(ctx, b)
	if !ok {
		s.Metrics.ObserveNotification(NotifyFailed)
		return
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()
	if err := s.Repo.AttachNotification(storeCtx, b.ID, msgID); err != nil {
		s.Metrics.ObserveNotification(NotifyDetached)
		s.log.Error().Err(err).Str("reference", b.Reference).Str("message_id", msgID).
			Msg("attach notification id")
		return
	}
	s.Metrics.ObserveNotification(NotifySent)
}

// Booking builds the record to persist, leaving the other variant's fields
// nil.
func (in *ValidatedBooking) Booking(reference string) *models.Booking {
	b := &models.Booking{
		Reference:   reference,
		Type:        in.Type,
		FullName:    in.Contact.FullName,
		Email:       in.Contact.Email,
		Phone:       in.Contact.Phone,
		Source:      in.Source,
		Description: in.Description,
	}
	switch {
	case in.Type == models.BookingTypeConsultation && in.Consultation != nil:
		d := datatypes.Date(in.Consultation.PreferredDate)
		slot := in.Consultation.PreferredTime
		b.PreferredDate = &d
		b.PreferredTime = &slot
	case in.Type == models.BookingTypeProject && in.Project != nil:
		svc := in.Project.Service
		budget := in.Project.BudgetRange
		timeline := in.Project.Timeline
		b.Service = &svc
		b.BudgetRange = &budget
		b.Timeline = &timeline
	}
	return b
}
