package plan

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"taskhub/internal/application"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/platform/sentinel"
)

var colourRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ApplicationLookup is the slice of the application service plans need.
type ApplicationLookup interface {
	Get(ctx context.Context, acronym string) (application.Application, error)
}

// Service validates and persists plans.
type Service struct {
	store  Store
	apps   ApplicationLookup
	logger *slog.Logger
}

func NewService(store Store, apps ApplicationLookup, logger *slog.Logger) *Service {
	return &Service{store: store, apps: apps, logger: logger}
}

// Create registers a plan under an existing application.
func (s *Service) Create(ctx context.Context, plan Plan) (Plan, error) {
	fields := map[string]string{}
	if plan.MVPName == "" {
		fields["mvpName"] = "mvp name is required"
	}
	if plan.AppAcronym == "" {
		fields["appAcronym"] = "application acronym is required"
	}
	start, err := time.Parse(application.DateLayout, plan.StartDate)
	if err != nil {
		fields["startDate"] = "invalid date format, use dd-mm-yyyy"
	}
	end, err := time.Parse(application.DateLayout, plan.EndDate)
	if err != nil {
		fields["endDate"] = "invalid date format, use dd-mm-yyyy"
	}
	if len(fields) == 0 && !start.Before(end) {
		fields["endDate"] = "end date must be after start date"
	}
	if !colourRe.MatchString(plan.Colour) {
		fields["colour"] = "colour must be a #rrggbb value"
	}
	if len(fields) > 0 {
		return Plan{}, dErrors.NewValidation(fields)
	}

	if _, err := s.apps.Get(ctx, plan.AppAcronym); err != nil {
		return Plan{}, err
	}

	if err := s.store.Create(ctx, plan); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return Plan{}, dErrors.New(dErrors.CodeConflict, "plan name already exists for this application")
		}
		return Plan{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not create plan")
	}
	return plan, nil
}

func (s *Service) Get(ctx context.Context, appAcronym, mvpName string) (Plan, error) {
	plan, err := s.store.Get(ctx, appAcronym, mvpName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Plan{}, dErrors.New(dErrors.CodeNotFound, "plan not found")
		}
		return Plan{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not load plan")
	}
	return plan, nil
}

func (s *Service) ListByApplication(ctx context.Context, appAcronym string) ([]Plan, error) {
	if _, err := s.apps.Get(ctx, appAcronym); err != nil {
		return nil, err
	}
	return s.store.ListByApplication(ctx, appAcronym)
}
