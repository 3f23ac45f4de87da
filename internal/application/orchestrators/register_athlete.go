package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clubhouse/internal/domain/athlete"
)

// AthleteStore defines the interface for athlete persistence.
type AthleteStore interface {
	Save(ctx context.Context, a athlete.Athlete) error
	GetByID(ctx context.Context, id string) (athlete.Athlete, error)
}

// RegisterAthleteInput carries input for the orchestrator.
type RegisterAthleteInput struct {
	Name      string
	BirthYear int
	Group     string
	Email     string
	Phone     string
	Notes     string
}

// RegisterAthleteDeps holds dependencies for RegisterAthlete.
type RegisterAthleteDeps struct {
	AthleteStore AthleteStore
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteRegisterAthlete coordinates athlete registration.
// PRE: Non-empty name
// POST: Athlete created with a fresh ID and Active=true
func ExecuteRegisterAthlete(ctx context.Context, input RegisterAthleteInput, deps RegisterAthleteDeps) (athlete.Athlete, error) {
	now := nowOr(deps.Now)
	id := uuid.NewString
	if deps.GenerateID != nil {
		id = deps.GenerateID
	}

	a := athlete.Athlete{
		ID:        id(),
		Name:      strings.TrimSpace(input.Name),
		BirthYear: input.BirthYear,
		Group:     strings.TrimSpace(input.Group),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Notes:     input.Notes,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.Validate(now); err != nil {
		return athlete.Athlete{}, invalid(err)
	}

	if err := deps.AthleteStore.Save(ctx, a); err != nil {
		return athlete.Athlete{}, err
	}

	slog.Info("athlete_event", "event", "athlete_registered", "athlete_id", a.ID)
	return a, nil
}

// UpdateAthleteInput carries the editable fields of an athlete.
type UpdateAthleteInput struct {
	AthleteID string
	Name      string
	BirthYear int
	Group     string
	Email     string
	Phone     string
	Notes     string
}

// UpdateAthleteDeps holds dependencies for UpdateAthlete.
type UpdateAthleteDeps struct {
	AthleteStore AthleteStore
	Now          func() time.Time
}

// ExecuteUpdateAthlete replaces the editable fields of an existing athlete.
// PRE: AthleteID refers to an existing athlete
// POST: Fields replaced, UpdatedAt bumped, Active and CreatedAt untouched
func ExecuteUpdateAthlete(ctx context.Context, input UpdateAthleteInput, deps UpdateAthleteDeps) (athlete.Athlete, error) {
	if input.AthleteID == "" {
		return athlete.Athlete{}, invalid(errors.New("athlete ID is required"))
	}
	now := nowOr(deps.Now)

	a, err := deps.AthleteStore.GetByID(ctx, input.AthleteID)
	if err != nil {
		return athlete.Athlete{}, err
	}
	a.Name = strings.TrimSpace(input.Name)
	a.BirthYear = input.BirthYear
	a.Group = strings.TrimSpace(input.Group)
	a.Email = strings.TrimSpace(input.Email)
	a.Phone = strings.TrimSpace(input.Phone)
	a.Notes = input.Notes
	a.UpdatedAt = now
	if err := a.Validate(now); err != nil {
		return athlete.Athlete{}, invalid(err)
	}

	if err := deps.AthleteStore.Save(ctx, a); err != nil {
		return athlete.Athlete{}, err
	}
	slog.Info("athlete_event", "event", "athlete_updated", "athlete_id", a.ID)
	return a, nil
}

func nowOr(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
