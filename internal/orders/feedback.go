package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

// FeedbackStatus tracks moderation of feedback.
type FeedbackStatus string

const (
	FeedbackPending   FeedbackStatus = "pending"
	FeedbackSubmitted FeedbackStatus = "submitted"
	FeedbackReviewed  FeedbackStatus = "reviewed"
)

// Feedback is one party's rating of an order.
type Feedback struct {
	ID         uuid.UUID      `json:"id"`
	OrderID    string         `json:"order_id"`
	Side       ledger.Side    `json:"side"`
	ActorID    string         `json:"actor_id"`
	Rating     int            `json:"rating"`
	Comment    string         `json:"comment,omitempty"`
	Categories map[string]int `json:"categories,omitempty"`
	Status     FeedbackStatus `json:"status"`
	ReviewedBy *string        `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// FeedbackInput is a feedback submission.
type FeedbackInput struct {
	Side       ledger.Side
	Rating     int
	Comment    string
	Categories map[string]int
}

func (in FeedbackInput) validate() error {
	if in.Side != ledger.SideCustomer && in.Side != ledger.SideProvider {
		return fmt.Errorf("%w: unknown feedback side %q", shared.ErrValidation, in.Side)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", shared.ErrValidation)
	}
	for name, score := range in.Categories {
		if strings.TrimSpace(name) == "" || score < 1 || score > 5 {
			return fmt.Errorf("%w: category %q rating must be between 1 and 5", shared.ErrValidation, name)
		}
	}
	return nil
}

func sideAllows(side ledger.Side, role shared.Role) bool {
	switch role {
	case shared.RoleAdmin:
		return true
	case shared.RoleUser:
		return side == ledger.SideCustomer
	case shared.RoleVendor, shared.RoleDriver:
		return side == ledger.SideProvider
	}
	return false
}

// SubmitFeedback stores one party's feedback. Once both sides have rated, an
// open order completes; otherwise it waits in pending_feedback.
func (s *Service) SubmitFeedback(ctx context.Context, actor shared.Actor, orderID string, in FeedbackInput) (Feedback, error) {
	if err := in.validate(); err != nil {
		return Feedback{}, err
	}
	if !sideAllows(in.Side, actor.Role) {
		return Feedback{}, fmt.Errorf("%w: role %s cannot rate as %s", shared.ErrUnauthorized, actor.Role, in.Side)
	}
	var fb Feedback
	_, err := s.mutate(ctx, actor, "submit_feedback", orderID, "feedback", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if order.Status == StatusCancelled {
			return timeline.Entry{}, fmt.Errorf("%w: order %s is cancelled", shared.ErrInvalidTransition, order.ID)
		}
		exists, err := tx.FeedbackExists(ctx, order.ID, in.Side, actor.ID)
		if err != nil {
			return timeline.Entry{}, err
		}
		if exists {
			return timeline.Entry{}, fmt.Errorf("%w: %s feedback from %s", shared.ErrAlreadyExists, in.Side, actor.ID)
		}
		fb = Feedback{
			ID:         uuid.New(),
			OrderID:    order.ID,
			Side:       in.Side,
			ActorID:    actor.ID,
			Rating:     in.Rating,
			Comment:    strings.TrimSpace(in.Comment),
			Categories: in.Categories,
			Status:     FeedbackSubmitted,
			CreatedAt:  s.now().UTC(),
		}
		if err := tx.InsertFeedback(ctx, fb); err != nil {
			return timeline.Entry{}, err
		}
		previous := order.Status
		if !order.Status.Terminal() {
			sides, err := tx.FeedbackSides(ctx, order.ID)
			if err != nil {
				return timeline.Entry{}, err
			}
			if sides[ledger.SideCustomer] && sides[ledger.SideProvider] {
				order.setStatus(StatusCompleted)
			} else {
				order.setStatus(StatusPendingFeedback)
			}
		}
		return timeline.Entry{
			Action:      timeline.ActionFeedbackSubmitted,
			Description: fmt.Sprintf("%s feedback submitted with rating %d", cases.Title(language.English).String(string(in.Side)), in.Rating),
			Previous:    timeline.Snapshot("status", previous),
			Next:        timeline.Snapshot("status", order.Status),
			Metadata:    timeline.Snapshot("feedback_id", fb.ID.String(), "side", in.Side, "rating", in.Rating),
		}, nil
	})
	if err != nil {
		return Feedback{}, err
	}
	return fb, nil
}

// ReviewFeedback marks feedback as moderated. Admin only.
func (s *Service) ReviewFeedback(ctx context.Context, actor shared.Actor, orderID string, feedbackID uuid.UUID) (Feedback, error) {
	if actor.Role != shared.RoleAdmin {
		return Feedback{}, fmt.Errorf("%w: only admins review feedback", shared.ErrUnauthorized)
	}
	var fb Feedback
	_, err := s.mutate(ctx, actor, "review_feedback", orderID, "feedback", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		var err error
		fb, err = tx.GetFeedback(ctx, feedbackID)
		if err != nil {
			return timeline.Entry{}, err
		}
		if fb.OrderID != order.ID {
			return timeline.Entry{}, fmt.Errorf("%w: feedback %s on order %s", shared.ErrNotFound, feedbackID, order.ID)
		}
		if fb.Status == FeedbackReviewed {
			return timeline.Entry{}, fmt.Errorf("%w: feedback already reviewed", shared.ErrInvalidTransition)
		}
		previous := fb.Status
		now := s.now().UTC()
		reviewer := actor.ID
		fb.Status, fb.ReviewedBy, fb.ReviewedAt = FeedbackReviewed, &reviewer, &now
		if err := tx.UpdateFeedback(ctx, fb); err != nil {
			return timeline.Entry{}, err
		}
		return timeline.Entry{
			Action:      timeline.ActionFeedbackReviewed,
			Description: fmt.Sprintf("%s feedback reviewed", fb.Side),
			Previous:    timeline.Snapshot("feedback_status", previous),
			Next:        timeline.Snapshot("feedback_status", fb.Status),
			Metadata:    timeline.Snapshot("feedback_id", fb.ID.String()),
		}, nil
	})
	if err != nil {
		return Feedback{}, err
	}
	return fb, nil
}

// Feedback lists the feedback left on an order.
func (s *Service) Feedback(ctx context.Context, orderID string) ([]Feedback, error) {
	if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListFeedback(ctx, orderID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return items, nil
}
