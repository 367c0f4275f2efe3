package service

import (
	"context"
	"time"

	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/repository"

	"github.com/google/uuid"
)

// DispatchCommand stores a command as pending, then publishes it to the
// message broker. A successful publish marks it sent; a publish failure
// leaves it pending for later inspection and is not surfaced to the caller.
func (s *service) DispatchCommand(ctx context.Context, command *models.Command) error {
	if command.Status == "" {
		command.Status = models.CommandStatusPending
	}
	if err := s.repo.CreateCommand(ctx, command); err != nil {
		return err
	}

	if s.messaging != nil {
		if err := s.messaging.SendMessage(ctx, command, command.ID.String()); err != nil {
			s.log.WithError(err).WithField("command_id", command.ID).Warn("Failed to publish command, left pending")
		} else {
			command.Status = models.CommandStatusSent
			if err := s.repo.UpdateCommand(ctx, command); err != nil {
				return err
			}
		}
	}

	s.broadcastUpdate("command_created", command)
	return nil
}

func (s *service) GetCommand(ctx context.Context, id uuid.UUID) (*models.Command, error) {
	return s.repo.FindCommandByID(ctx, id)
}

func (s *service) ListCommands(ctx context.Context, filter repository.CommandFilter) ([]*models.Command, error) {
	return s.repo.ListCommands(ctx, filter)
}

// AcknowledgeCommand marks a command acknowledged. Valid only once, from
// pending or sent.
func (s *service) AcknowledgeCommand(ctx context.Context, id uuid.UUID) (*models.Command, error) {
	command, err := s.repo.FindCommandByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if command.Status != models.CommandStatusPending && command.Status != models.CommandStatusSent {
		return nil, &InvalidTransitionError{Current: string(command.Status), Action: "acknowledge"}
	}

	now := time.Now().UTC()
	command.Status = models.CommandStatusAcknowledged
	command.AcknowledgedAt = &now
	if err := s.repo.UpdateCommand(ctx, command); err != nil {
		return nil, err
	}

	s.recordCommandEvent(ctx, command, "command_ack")
	s.broadcastUpdate("command_acknowledged", command)
	return command, nil
}

// FailCommand marks a command failed with an operator-visible reason.
// Valid only once, from pending or sent.
func (s *service) FailCommand(ctx context.Context, id uuid.UUID, errorMessage string) (*models.Command, error) {
	command, err := s.repo.FindCommandByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if command.Status != models.CommandStatusPending && command.Status != models.CommandStatusSent {
		return nil, &InvalidTransitionError{Current: string(command.Status), Action: "fail"}
	}

	now := time.Now().UTC()
	command.Status = models.CommandStatusFailed
	command.FailedAt = &now
	command.ErrorMessage = errorMessage
	if err := s.repo.UpdateCommand(ctx, command); err != nil {
		return nil, err
	}

	s.recordCommandEvent(ctx, command, "command_failed")
	s.broadcastUpdate("command_failed", command)
	return command, nil
}

func (s *service) recordCommandEvent(ctx context.Context, command *models.Command, eventType string) {
	event := &models.Event{
		AssetID:      command.AssetID,
		EngagementID: command.EngagementID,
		EventType:    eventType,
		Severity:     models.SeverityInfo,
		Details: models.JSONMap{
			"command_id":   command.ID.String(),
			"command_type": string(command.CommandType),
			"status":       string(command.Status),
		},
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		s.log.WithError(err).WithField("command_id", command.ID).Warn("Failed to record command event")
	}
}
