package task

// State is a workflow position. Tasks move along a single chain
// open -> todo -> doing -> done -> close, with demote edges back
// from doing and done.
type State string

const (
	StateOpen  State = "open"
	StateTodo  State = "todo"
	StateDoing State = "doing"
	StateDone  State = "done"
	StateClose State = "close"
)

// ParseState maps a wire token to a State.
func ParseState(s string) (State, bool) {
	switch State(s) {
	case StateOpen, StateTodo, StateDoing, StateDone, StateClose:
		return State(s), true
	}
	return "", false
}

// Field length ceilings, matching the backing column sizes.
const (
	MaxNameLen        = 64
	MaxDescriptionLen = 255
	MaxNotesLen       = 65535
)

// Task is a unit of work. ID is assigned once from the owning
// application's counter and never changes. Creator is fixed at
// creation; Owner tracks the last actor to move the task. Notes is
// the append-only audit trail, never a free-form field.
type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	State       State  `json:"state"`
	Plan        string `json:"plan,omitempty"`
	AppAcronym  string `json:"appAcronym"`
	Creator     string `json:"creator"`
	Owner       string `json:"owner"`
	CreatedDate string `json:"createdDate"`
	Notes       string `json:"notes"`
}

// Summary is the board-listing projection of a task.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State State  `json:"state"`
	Plan  string `json:"plan,omitempty"`
	Owner string `json:"owner"`
}
