package application

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/platform/sentinel"
)

var acronymRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// Service validates and persists application records.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create registers a new application. The acronym and dates are immutable
// afterwards; RNumber seeds the task-id counter.
func (s *Service) Create(ctx context.Context, app Application) (Application, error) {
	fields := map[string]string{}
	if !acronymRe.MatchString(app.Acronym) {
		fields["acronym"] = "acronym must be 1-32 alphanumeric or underscore characters"
	}
	if app.RNumber < 0 {
		fields["rNumber"] = "rNumber must not be negative"
	}
	start, err := time.Parse(DateLayout, app.StartDate)
	if err != nil {
		fields["startDate"] = "invalid date format, use dd-mm-yyyy"
	}
	end, err := time.Parse(DateLayout, app.EndDate)
	if err != nil {
		fields["endDate"] = "invalid date format, use dd-mm-yyyy"
	}
	if len(fields) == 0 && !start.Before(end) {
		fields["endDate"] = "end date must be after start date"
	}
	if len(fields) > 0 {
		return Application{}, dErrors.NewValidation(fields)
	}

	if err := s.store.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return Application{}, dErrors.New(dErrors.CodeConflict, "application acronym already exists")
		}
		return Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not create application")
	}
	return app, nil
}

// Update changes the description and permit groups of an existing application.
func (s *Service) Update(ctx context.Context, app Application) error {
	if !acronymRe.MatchString(app.Acronym) {
		return dErrors.NewValidation(map[string]string{"acronym": "invalid acronym"})
	}
	if err := s.store.Update(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not update application")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, acronym string) (Application, error) {
	app, err := s.store.Get(ctx, acronym)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Application{}, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return Application{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not load application")
	}
	return app, nil
}

func (s *Service) List(ctx context.Context) ([]Application, error) {
	return s.store.List(ctx)
}

// PermittedGroup looks up the group gating transitions out of a state.
// The boolean is false when no group is configured: callers must fail closed.
func (s *Service) PermittedGroup(ctx context.Context, acronym, state string) (string, bool, error) {
	app, err := s.Get(ctx, acronym)
	if err != nil {
		return "", false, err
	}
	group, ok := app.PermittedGroup(state)
	return group, ok, nil
}
