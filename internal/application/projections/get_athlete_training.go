package projections

import (
	"context"
	"time"

	domainPlan "clubhouse/internal/domain/plan"
	domainLog "clubhouse/internal/domain/traininglog"
	"clubhouse/internal/domain/week"
)

// GetAthleteTrainingQuery carries input for the plan-versus-log view.
type GetAthleteTrainingQuery struct {
	AthleteID string
	Week      string
	Now       time.Time
}

// GetAthleteTrainingDeps holds dependencies for the plan-versus-log view.
type GetAthleteTrainingDeps struct {
	AthleteStore AthleteStore
	PlanStore    PlanStore
	LogStore     TrainingLogStore
}

// TrainingDay pairs the plan and the log of one date.
type TrainingDay struct {
	Date       string          `json:"date"`
	Plan       *domainPlan.Day `json:"plan,omitempty"`
	Log        *domainLog.Day  `json:"log,omitempty"`
	Completion float64         `json:"completion"`
}

// AthleteTrainingResult carries one athlete's week.
type AthleteTrainingResult struct {
	AthleteID   string        `json:"athleteId"`
	AthleteName string        `json:"athleteName"`
	Week        string        `json:"week"`
	Label       string        `json:"label"`
	Prev        string        `json:"prev"`
	Next        string        `json:"next"`
	Days        []TrainingDay `json:"days"`
	PlannedDays int           `json:"plannedDays"`
	LoggedDays  int           `json:"loggedDays"`
	// Completion is the mean completion of planned days.
	Completion float64 `json:"completion"`
}

// QueryGetAthleteTraining returns the plan and log of an athlete for each day
// of a week. A day's completion is the share of done log entries; planned days
// without a log count as zero.
func QueryGetAthleteTraining(ctx context.Context, query GetAthleteTrainingQuery, deps GetAthleteTrainingDeps) (AthleteTrainingResult, error) {
	a, err := deps.AthleteStore.GetByID(ctx, query.AthleteID)
	if err != nil {
		return AthleteTrainingResult{}, err
	}
	key := query.Week
	if key == "" {
		now := query.Now
		if now.IsZero() {
			now = time.Now()
		}
		key = week.KeyOf(now)
	}
	key, err = week.Canonical(key)
	if err != nil {
		return AthleteTrainingResult{}, err
	}
	days, err := week.Days(key)
	if err != nil {
		return AthleteTrainingResult{}, err
	}
	from, to := days[0], days[len(days)-1]

	plans, err := deps.PlanStore.Range(ctx, a.ID, from, to)
	if err != nil {
		return AthleteTrainingResult{}, err
	}
	logs, err := deps.LogStore.Range(ctx, a.ID, from, to)
	if err != nil {
		return AthleteTrainingResult{}, err
	}
	planByDate := make(map[string]domainPlan.Day, len(plans))
	for _, p := range plans {
		planByDate[p.Date] = p.Day
	}
	logByDate := make(map[string]domainLog.Day, len(logs))
	for _, l := range logs {
		logByDate[l.Date] = l.Day
	}

	res := AthleteTrainingResult{AthleteID: a.ID, AthleteName: a.Name, Week: key}
	res.Label, _ = week.Label(key)
	res.Prev, _ = week.Shift(key, -1)
	res.Next, _ = week.Shift(key, 1)

	var sum float64
	for _, date := range days {
		td := TrainingDay{Date: date}
		if p, ok := planByDate[date]; ok {
			td.Plan = &p
			res.PlannedDays++
		}
		if l, ok := logByDate[date]; ok {
			td.Log = &l
			td.Completion = l.Completion()
			res.LoggedDays++
		}
		if td.Plan != nil {
			sum += td.Completion
		}
		res.Days = append(res.Days, td)
	}
	if res.PlannedDays > 0 {
		res.Completion = sum / float64(res.PlannedDays)
	}
	return res, nil
}
