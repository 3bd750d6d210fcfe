package plan

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/application"
	dErrors "taskhub/pkg/domain-errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	apps := application.NewService(application.NewInMemoryStore(), logger)
	_, err := apps.Create(context.Background(), application.Application{
		Acronym:   "DEMO",
		RNumber:   0,
		StartDate: "01-01-2026",
		EndDate:   "31-12-2026",
	})
	require.NoError(t, err)
	return NewService(NewInMemoryStore(), apps, logger)
}

func validPlan() Plan {
	return Plan{
		MVPName:    "sprint-1",
		AppAcronym: "DEMO",
		StartDate:  "01-02-2026",
		EndDate:    "15-02-2026",
		Colour:     "#ff8800",
	}
}

func TestCreateAndGetPlan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validPlan())
	require.NoError(t, err)

	plan, err := svc.Get(ctx, "DEMO", "sprint-1")
	require.NoError(t, err)
	assert.Equal(t, "#ff8800", plan.Colour)

	_, err = svc.Get(ctx, "DEMO", "sprint-2")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestCreatePlanValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	plan := validPlan()
	plan.MVPName = ""
	plan.Colour = "orange"
	_, err := svc.Create(ctx, plan)
	require.Error(t, err)
	fields := dErrors.Fields(err)
	assert.Contains(t, fields, "mvpName")
	assert.Contains(t, fields, "colour")
}

func TestCreatePlanUnknownApplication(t *testing.T) {
	svc := newTestService(t)
	plan := validPlan()
	plan.AppAcronym = "NOPE"
	_, err := svc.Create(context.Background(), plan)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestCreatePlanDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validPlan())
	require.NoError(t, err)
	_, err = svc.Create(ctx, validPlan())
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestListByApplication(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first := validPlan()
	second := validPlan()
	second.MVPName = "sprint-2"
	_, err := svc.Create(ctx, first)
	require.NoError(t, err)
	_, err = svc.Create(ctx, second)
	require.NoError(t, err)

	plans, err := svc.ListByApplication(ctx, "DEMO")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "sprint-1", plans[0].MVPName)
	assert.Equal(t, "sprint-2", plans[1].MVPName)
}
