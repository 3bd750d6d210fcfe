package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"taskhub/internal/application"
	"taskhub/internal/platform/metrics"
	dErrors "taskhub/pkg/domain-errors"
	"taskhub/pkg/platform/sentinel"
	"taskhub/pkg/requestcontext"
)

// Oracle answers identity questions for permission checks.
type Oracle interface {
	IsActive(ctx context.Context, username string) (bool, error)
	HasGroup(ctx context.Context, username, group string) (bool, error)
}

// EmailLookup resolves a username to a registered address.
type EmailLookup interface {
	Email(ctx context.Context, username string) (string, error)
}

// Notifier receives completion events after a doing to done
// transition has committed. Implementations must not block.
type Notifier interface {
	TaskCompleted(taskID, taskName, recipient string)
}

// BoardInvalidator drops cached board listings after a mutation.
type BoardInvalidator interface {
	InvalidateBoard(ctx context.Context, appAcronym string)
}

// Service executes task operations: creation, state transitions,
// notes and plan updates. Every mutation runs inside the TxRunner and
// appends its own audit entry within the same unit.
type Service struct {
	tx       TxRunner
	store    Store
	oracle   Oracle
	emails   EmailLookup
	notifier Notifier
	boards   BoardInvalidator
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type ServiceOption func(*Service)

func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func WithEmailLookup(l EmailLookup) ServiceOption {
	return func(s *Service) { s.emails = l }
}

func WithBoardInvalidator(b BoardInvalidator) ServiceOption {
	return func(s *Service) { s.boards = b }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func NewService(tx TxRunner, store Store, oracle Oracle, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{tx: tx, store: store, oracle: oracle, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the caller-supplied fields for a new task.
type CreateInput struct {
	AppAcronym  string
	Name        string
	Description string
	Notes       string
	Plan        string
	Actor       string
}

func (in CreateInput) validate() error {
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "task name is required"
	}
	if len(in.Name) > MaxNameLen {
		fields["name"] = fmt.Sprintf("task name exceeds %d characters", MaxNameLen)
	}
	if len(in.Description) > MaxDescriptionLen {
		fields["description"] = fmt.Sprintf("description exceeds %d characters", MaxDescriptionLen)
	}
	if len(in.Notes) > MaxNotesLen {
		fields["notes"] = fmt.Sprintf("notes exceed %d characters", MaxNotesLen)
	}
	if in.AppAcronym == "" {
		fields["appAcronym"] = "application acronym is required"
	}
	for field, value := range map[string]string{"name": in.Name, "description": in.Description, "notes": in.Notes} {
		if strings.Contains(value, Separator) {
			fields[field] = "reserved character is not allowed"
		}
	}
	if len(fields) > 0 {
		return dErrors.NewValidation(fields)
	}
	return nil
}

// Create allocates an id from the application counter, inserts the
// task in state open and writes the create audit entry, all in one
// atomic unit.
func (s *Service) Create(ctx context.Context, in CreateInput) (Task, error) {
	if err := in.validate(); err != nil {
		return Task{}, err
	}
	if err := s.requireActive(ctx, in.Actor); err != nil {
		return Task{}, err
	}

	var created Task
	err := s.tx.RunInTx(ctx, func(store Store) error {
		app, err := store.GetApplication(ctx, in.AppAcronym)
		if err != nil {
			return translateStoreErr(err, "application not found")
		}
		if err := s.requireGroup(ctx, in.Actor, app.PermitCreate); err != nil {
			return err
		}
		if in.Plan != "" {
			if _, err := store.GetPlan(ctx, in.AppAcronym, in.Plan); err != nil {
				return translateStoreErr(err, "plan not found")
			}
		}

		n, err := store.AllocateRNumber(ctx, in.AppAcronym)
		if err != nil {
			return translateStoreErr(err, "application not found")
		}

		now := requestcontext.Now(ctx)
		entry := AuditEntry{
			Timestamp: now,
			Actor:     in.Actor,
			Action:    ActionCreate,
			CurrState: StateOpen,
			FreeText:  in.Notes,
		}
		created = Task{
			ID:          fmt.Sprintf("%s_%d", in.AppAcronym, n),
			Name:        in.Name,
			Description: in.Description,
			State:       StateOpen,
			Plan:        in.Plan,
			AppAcronym:  in.AppAcronym,
			Creator:     in.Actor,
			Owner:       in.Actor,
			CreatedDate: now.Format(application.DateLayout),
			Notes:       AppendEntry("", entry),
		}
		if err := store.Insert(ctx, created); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "could not insert task")
		}
		return nil
	})
	if err != nil {
		return Task{}, err
	}

	s.metrics.RecordTaskCreated()
	s.invalidate(ctx, in.AppAcronym)
	return created, nil
}

// Promote moves a task one step forward along the chain. The caller
// states which edge it expects; a task that has moved on since then
// yields a conflict, never a silent success.
func (s *Service) Promote(ctx context.Context, taskID, actor string, from, to State) (Task, error) {
	target, ok := PromoteTarget(from)
	if !ok || target != to {
		return Task{}, dErrors.Newf(dErrors.CodeConflict, "no promotion from %q to %q", from, to)
	}
	task, err := s.transition(ctx, taskID, actor, from, to, ActionPromote)
	if err != nil {
		return Task{}, err
	}
	if to == StateDone {
		s.notifyCompletion(ctx, task)
	}
	return task, nil
}

// Demote moves a task one step back. Only doing and done have demote
// edges.
func (s *Service) Demote(ctx context.Context, taskID, actor string, from, to State) (Task, error) {
	target, ok := DemoteTarget(from)
	if !ok || target != to {
		return Task{}, dErrors.Newf(dErrors.CodeConflict, "no demotion from %q to %q", from, to)
	}
	return s.transition(ctx, taskID, actor, from, to, ActionDemote)
}

func (s *Service) transition(ctx context.Context, taskID, actor string, from, to State, action Action) (Task, error) {
	if err := s.requireActive(ctx, actor); err != nil {
		return Task{}, err
	}

	var result Task
	err := s.tx.RunInTx(ctx, func(store Store) error {
		task, err := store.Get(ctx, taskID)
		if err != nil {
			return translateStoreErr(err, "task not found")
		}
		if task.State != from {
			return dErrors.Newf(dErrors.CodeConflict, "task is in state %q, not %q", task.State, from)
		}

		app, err := store.GetApplication(ctx, task.AppAcronym)
		if err != nil {
			return translateStoreErr(err, "application not found")
		}
		group, _ := app.PermittedGroup(string(task.State))
		if err := s.requireGroup(ctx, actor, group); err != nil {
			return err
		}

		entry := AuditEntry{
			Timestamp: requestcontext.Now(ctx),
			Actor:     actor,
			Action:    action,
			FromState: from,
			ToState:   to,
			CurrState: to,
		}
		blob := AppendEntry(task.Notes, entry)

		affected, err := store.Transition(ctx, taskID, from, to, actor, blob)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "could not update task state")
		}
		if affected == 0 {
			return dErrors.New(dErrors.CodeConflict, "task state changed concurrently")
		}

		task.State = to
		task.Owner = actor
		task.Notes = blob
		result = task
		return nil
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.RecordTransition(string(from), string(to), outcome)
	if err != nil {
		return Task{}, err
	}
	s.invalidate(ctx, result.AppAcronym)
	return result, nil
}

// UpdateNotes appends user text to the task's trail as an updateNotes
// audit entry. The prior trail is never rewritten.
func (s *Service) UpdateNotes(ctx context.Context, taskID, actor, text string, currState State) error {
	if text == "" {
		return dErrors.NewValidation(map[string]string{"notes": "notes text is required"})
	}
	if len(text) > MaxNotesLen {
		return dErrors.NewValidation(map[string]string{"notes": fmt.Sprintf("notes exceed %d characters", MaxNotesLen)})
	}
	if strings.Contains(text, Separator) {
		return dErrors.NewValidation(map[string]string{"notes": "reserved character is not allowed"})
	}
	if err := s.requireActive(ctx, actor); err != nil {
		return err
	}

	var acronym string
	err := s.tx.RunInTx(ctx, func(store Store) error {
		task, err := s.loadForMutation(ctx, store, taskID, actor, currState)
		if err != nil {
			return err
		}
		acronym = task.AppAcronym

		entry := AuditEntry{
			Timestamp: requestcontext.Now(ctx),
			Actor:     actor,
			Action:    ActionUpdateNotes,
			CurrState: task.State,
			FreeText:  text,
		}
		affected, err := store.UpdateNotes(ctx, taskID, currState, AppendEntry(task.Notes, entry))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "could not update task notes")
		}
		if affected == 0 {
			return dErrors.New(dErrors.CodeConflict, "task state changed concurrently")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, acronym)
	return nil
}

// UpdatePlan repoints the task at a different plan, or detaches it
// when newPlan is empty.
func (s *Service) UpdatePlan(ctx context.Context, taskID, actor, prevPlan, newPlan string, currState State) error {
	if err := s.requireActive(ctx, actor); err != nil {
		return err
	}

	var acronym string
	err := s.tx.RunInTx(ctx, func(store Store) error {
		task, err := s.loadForMutation(ctx, store, taskID, actor, currState)
		if err != nil {
			return err
		}
		acronym = task.AppAcronym
		if task.Plan != prevPlan {
			return dErrors.Newf(dErrors.CodeConflict, "task plan is %q, not %q", task.Plan, prevPlan)
		}
		if newPlan != "" {
			if _, err := store.GetPlan(ctx, task.AppAcronym, newPlan); err != nil {
				return translateStoreErr(err, "plan not found")
			}
		}

		entry := AuditEntry{
			Timestamp: requestcontext.Now(ctx),
			Actor:     actor,
			Action:    ActionUpdatePlan,
			CurrState: task.State,
			PrevPlan:  prevPlan,
			NewPlan:   newPlan,
		}
		affected, err := store.UpdatePlan(ctx, taskID, currState, newPlan, AppendEntry(task.Notes, entry))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "could not update task plan")
		}
		if affected == 0 {
			return dErrors.New(dErrors.CodeConflict, "task state changed concurrently")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, acronym)
	return nil
}

func (s *Service) Get(ctx context.Context, taskID string) (Task, error) {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return Task{}, translateStoreErr(err, "task not found")
	}
	return task, nil
}

// ListByState returns the board column for one application and state.
func (s *Service) ListByState(ctx context.Context, appAcronym string, state State) ([]Summary, error) {
	if _, err := s.store.GetApplication(ctx, appAcronym); err != nil {
		return nil, translateStoreErr(err, "application not found")
	}
	return s.store.ListByState(ctx, appAcronym, state)
}

// ListAll returns the whole board for one application, every state.
func (s *Service) ListAll(ctx context.Context, appAcronym string) ([]Summary, error) {
	if _, err := s.store.GetApplication(ctx, appAcronym); err != nil {
		return nil, translateStoreErr(err, "application not found")
	}
	return s.store.ListAll(ctx, appAcronym)
}

// loadForMutation fetches the task and runs the shared mutation
// preconditions: state matches the caller's expectation and the actor
// belongs to the group configured for that state.
func (s *Service) loadForMutation(ctx context.Context, store Store, taskID, actor string, currState State) (Task, error) {
	task, err := store.Get(ctx, taskID)
	if err != nil {
		return Task{}, translateStoreErr(err, "task not found")
	}
	if task.State != currState {
		return Task{}, dErrors.Newf(dErrors.CodeConflict, "task is in state %q, not %q", task.State, currState)
	}
	app, err := store.GetApplication(ctx, task.AppAcronym)
	if err != nil {
		return Task{}, translateStoreErr(err, "application not found")
	}
	group, _ := app.PermittedGroup(string(task.State))
	if err := s.requireGroup(ctx, actor, group); err != nil {
		return Task{}, err
	}
	return task, nil
}

func (s *Service) requireActive(ctx context.Context, actor string) error {
	active, err := s.oracle.IsActive(ctx, actor)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not check account status")
	}
	if !active {
		return dErrors.New(dErrors.CodeForbidden, "account is not active")
	}
	return nil
}

// requireGroup fails closed: an empty group means nobody may act.
func (s *Service) requireGroup(ctx context.Context, actor, group string) error {
	if group == "" {
		return dErrors.New(dErrors.CodeForbidden, "no group is permitted to perform this action")
	}
	member, err := s.oracle.HasGroup(ctx, actor, group)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not check group membership")
	}
	if !member {
		return dErrors.New(dErrors.CodeForbidden, "actor is not in the permitted group")
	}
	return nil
}

// notifyCompletion runs after the transition has committed. Failure
// to resolve an address or deliver is logged, never surfaced.
func (s *Service) notifyCompletion(ctx context.Context, task Task) {
	if s.notifier == nil {
		return
	}
	var recipient string
	if s.emails != nil {
		email, err := s.emails.Email(ctx, task.Creator)
		if err != nil {
			s.logger.WarnContext(ctx, "could not resolve creator address",
				"task_id", task.ID, "creator", task.Creator, "error", err)
		} else {
			recipient = email
		}
	}
	s.notifier.TaskCompleted(task.ID, task.Name, recipient)
}

func (s *Service) invalidate(ctx context.Context, appAcronym string) {
	if s.boards != nil && appAcronym != "" {
		s.boards.InvalidateBoard(ctx, appAcronym)
	}
}

func translateStoreErr(err error, notFoundMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}
