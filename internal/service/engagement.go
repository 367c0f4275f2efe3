package service

import (
	"context"
	"fmt"
	"sync"

	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EngagementAction is a lifecycle action requested against an engagement
type EngagementAction string

const (
	ActionConfirm       EngagementAction = "confirm"
	ActionAbort         EngagementAction = "abort"
	ActionEngage        EngagementAction = "engage"
	ActionLaunchMissile EngagementAction = "missile-launch"
	ActionComplete      EngagementAction = "complete"
)

// InvalidTransitionError reports a lifecycle action rejected because the
// record is not in a status the action accepts.
type InvalidTransitionError struct {
	Current string
	Action  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s: current status is %s", e.Action, e.Current)
}

// allowedSources maps each action to the statuses it may be applied from.
// There is deliberately no entry accepting missile_in_flight as a source:
// complete requires engaging, and nothing leads out of missile_in_flight.
var allowedSources = map[EngagementAction][]models.EngagementStatus{
	ActionConfirm:       {models.EngagementStatusPending},
	ActionAbort:         {models.EngagementStatusPending, models.EngagementStatusActive},
	ActionEngage:        {models.EngagementStatusActive},
	ActionLaunchMissile: {models.EngagementStatusEngaging},
	ActionComplete:      {models.EngagementStatusEngaging},
}

// ApplyTransition validates and applies a lifecycle action to an engagement
// in memory. Status and progress change together or not at all.
func ApplyTransition(engagement *models.Engagement, action EngagementAction) error {
	sources, ok := allowedSources[action]
	if !ok {
		return &InvalidTransitionError{Current: string(engagement.Status), Action: string(action)}
	}

	allowed := false
	for _, src := range sources {
		if engagement.Status == src {
			allowed = true
			break
		}
	}
	if !allowed {
		return &InvalidTransitionError{Current: string(engagement.Status), Action: string(action)}
	}

	switch action {
	case ActionConfirm:
		engagement.Status = models.EngagementStatusActive
		engagement.Progress = 0
	case ActionAbort:
		engagement.Status = models.EngagementStatusCancelled
	case ActionEngage:
		engagement.Status = models.EngagementStatusEngaging
	case ActionLaunchMissile:
		engagement.Status = models.EngagementStatusMissileInFlight
		engagement.Progress = 0
	case ActionComplete:
		engagement.Status = models.EngagementStatusCompleted
		engagement.Progress = 100
	}

	return nil
}

// lockFor returns the mutex serializing transitions for one engagement id
func (s *service) lockFor(id uuid.UUID) *sync.Mutex {
	mu, _ := s.engagementLocks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ApplyEngagementAction runs a lifecycle action against a stored engagement.
// The load-validate-save sequence holds a per-record mutex so two concurrent
// transitions cannot both succeed from the same source status.
func (s *service) ApplyEngagementAction(ctx context.Context, id uuid.UUID, action EngagementAction) (*models.Engagement, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	engagement, err := s.repo.FindEngagementByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := engagement.Status
	if err := ApplyTransition(engagement, action); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateEngagement(ctx, engagement); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"engagement_id": id,
		"action":        action,
		"from":          previous,
		"to":            engagement.Status,
	}).Info("Engagement transition applied")

	s.recordTransitionEvent(ctx, engagement, action, previous)
	s.broadcastUpdate("engagement_update", engagement)
	s.publishEngagement(ctx, engagement, action)

	return engagement, nil
}

// recordTransitionEvent appends a status_change event for the transition.
// Event persistence is best-effort relative to the transition itself.
func (s *service) recordTransitionEvent(ctx context.Context, engagement *models.Engagement, action EngagementAction, previous models.EngagementStatus) {
	event := &models.Event{
		EngagementID: &engagement.ID,
		EventType:    "status_change",
		Severity:     models.SeverityInfo,
		Details: models.JSONMap{
			"action": string(action),
			"from":   string(previous),
			"to":     string(engagement.Status),
		},
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		s.log.WithError(err).WithField("engagement_id", engagement.ID).Warn("Failed to record transition event")
	}
}

// publishEngagement pushes the transition to the message broker, keyed by
// engagement id so one engagement's updates stay ordered per session.
func (s *service) publishEngagement(ctx context.Context, engagement *models.Engagement, action EngagementAction) {
	if s.messaging == nil {
		return
	}
	body := map[string]interface{}{
		"kind":       "engagement_transition",
		"action":     string(action),
		"engagement": engagement,
	}
	if err := s.messaging.SendMessage(ctx, body, engagement.ID.String()); err != nil {
		s.log.WithError(err).WithField("engagement_id", engagement.ID).Warn("Failed to publish engagement transition")
	}
}

// Engagement CRUD

func (s *service) CreateEngagement(ctx context.Context, engagement *models.Engagement) error {
	if engagement.Status == "" {
		engagement.Status = models.EngagementStatusPending
	}
	return s.repo.CreateEngagement(ctx, engagement)
}

func (s *service) GetEngagement(ctx context.Context, id uuid.UUID) (*models.Engagement, error) {
	return s.repo.FindEngagementByID(ctx, id)
}

func (s *service) UpdateEngagement(ctx context.Context, engagement *models.Engagement) error {
	return s.repo.UpdateEngagement(ctx, engagement)
}

func (s *service) ListEngagements(ctx context.Context, filter repository.EngagementFilter) ([]*models.Engagement, error) {
	return s.repo.ListEngagements(ctx, filter)
}

func (s *service) DeleteEngagement(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindEngagementByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteEngagement(ctx, id)
}
