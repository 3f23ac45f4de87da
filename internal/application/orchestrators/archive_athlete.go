package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/athlete"
)

// AthleteStoreForArchive defines the store interface needed by Archive/Restore.
type AthleteStoreForArchive interface {
	GetByID(ctx context.Context, id string) (athlete.Athlete, error)
	Save(ctx context.Context, a athlete.Athlete) error
}

// ArchiveAthleteInput carries input for the archive orchestrator.
type ArchiveAthleteInput struct {
	AthleteID string
}

// ArchiveAthleteDeps holds dependencies for ArchiveAthlete and RestoreAthlete.
type ArchiveAthleteDeps struct {
	AthleteStore AthleteStoreForArchive
	Now          func() time.Time
}

// ExecuteArchiveAthlete archives an athlete. History is kept.
// PRE: AthleteID must be non-empty; athlete must exist and be active
// POST: Active is false
func ExecuteArchiveAthlete(ctx context.Context, input ArchiveAthleteInput, deps ArchiveAthleteDeps) error {
	return setArchived(ctx, input.AthleteID, deps, true)
}

// ExecuteRestoreAthlete restores an archived athlete.
// PRE: AthleteID must be non-empty; athlete must exist and be archived
// POST: Active is true
func ExecuteRestoreAthlete(ctx context.Context, input ArchiveAthleteInput, deps ArchiveAthleteDeps) error {
	return setArchived(ctx, input.AthleteID, deps, false)
}

func setArchived(ctx context.Context, id string, deps ArchiveAthleteDeps, archive bool) error {
	if id == "" {
		return invalid(errors.New("athlete ID is required"))
	}
	a, err := deps.AthleteStore.GetByID(ctx, id)
	if err != nil {
		return err
	}

	event := "athlete_archived"
	if archive {
		err = a.Archive()
	} else {
		err = a.Restore()
		event = "athlete_restored"
	}
	if err != nil {
		return invalid(err)
	}
	a.UpdatedAt = nowOr(deps.Now)

	if err := deps.AthleteStore.Save(ctx, a); err != nil {
		return err
	}
	slog.Info("athlete_event", "event", event, "athlete_id", id)
	return nil
}

// AthleteStoreForDelete defines the store interface needed by DeleteAthlete.
type AthleteStoreForDelete interface {
	GetByID(ctx context.Context, id string) (athlete.Athlete, error)
	Delete(ctx context.Context, id string) error
}

// AthleteHistoryStore is implemented by every document holding per-athlete data.
type AthleteHistoryStore interface {
	RemoveAthlete(ctx context.Context, athleteID string) error
}

// DeleteAthleteDeps holds dependencies for DeleteAthlete.
type DeleteAthleteDeps struct {
	AthleteStore AthleteStoreForDelete
	// History lists the stores purged of the athlete before the record goes.
	History []AthleteHistoryStore
}

// ExecuteDeleteAthlete removes an athlete and their attendance, plans and logs.
// PRE: Athlete is archived; active athletes must be archived first
// POST: No document references the athlete
func ExecuteDeleteAthlete(ctx context.Context, input ArchiveAthleteInput, deps DeleteAthleteDeps) error {
	if input.AthleteID == "" {
		return invalid(errors.New("athlete ID is required"))
	}
	a, err := deps.AthleteStore.GetByID(ctx, input.AthleteID)
	if err != nil {
		return err
	}
	if a.Active {
		return invalid(errors.New("archive the athlete before deleting"))
	}

	for _, h := range deps.History {
		if err := h.RemoveAthlete(ctx, a.ID); err != nil {
			return err
		}
	}
	if err := deps.AthleteStore.Delete(ctx, a.ID); err != nil {
		return err
	}
	slog.Info("athlete_event", "event", "athlete_deleted", "athlete_id", a.ID)
	return nil
}
