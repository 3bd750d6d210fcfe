package task

import (
	"fmt"
	"strings"
	"time"
)

// Separator delimits audit entries inside a task's notes blob. It is
// rejected in user-entered text at validation time, so splitting on it
// always recovers the original entries.
const Separator = "§"

// TimestampLayout renders audit timestamps as dd-mm-yyyy hh:mm:ss.
const TimestampLayout = "02-01-2006 15:04:05"

// Action names the kind of mutation an audit entry documents.
type Action string

const (
	ActionCreate      Action = "create"
	ActionPromote     Action = "promote"
	ActionDemote      Action = "demote"
	ActionUpdateNotes Action = "updateNotes"
	ActionUpdatePlan  Action = "updatePlan"
)

// AuditEntry is one immutable record in a task's trail. FromState and
// ToState are set for transitions, PrevPlan and NewPlan for plan
// changes, FreeText for user-entered notes carried by create and
// updateNotes actions.
type AuditEntry struct {
	Timestamp time.Time
	Actor     string
	Action    Action
	FromState State
	ToState   State
	CurrState State
	PrevPlan  string
	NewPlan   string
	FreeText  string
}

func (e AuditEntry) phrase() string {
	p := fmt.Sprintf("User %q ", e.Actor)
	switch e.Action {
	case ActionCreate:
		return p + "created a new task."
	case ActionPromote:
		return p + fmt.Sprintf("has promoted task from %q state to %q state.", string(e.FromState), string(e.ToState))
	case ActionDemote:
		return p + fmt.Sprintf("has demoted task from %q state to %q state.", string(e.FromState), string(e.ToState))
	case ActionUpdateNotes:
		return p + "has updated task notes."
	case ActionUpdatePlan:
		switch {
		case e.PrevPlan != "" && e.NewPlan != "":
			return p + fmt.Sprintf("has changed task plan from %q to %q.", e.PrevPlan, e.NewPlan)
		case e.PrevPlan == "":
			return p + fmt.Sprintf("has updated task plan to %q.", e.NewPlan)
		default:
			return p + "has removed plan from task."
		}
	}
	return p + string(e.Action)
}

// String renders the entry in the persisted trail format: timestamp
// line, actor phrase, current-state line, then an optional notes block.
func (e AuditEntry) String() string {
	var b strings.Builder
	b.WriteString(e.Timestamp.Format(TimestampLayout))
	b.WriteString(":\n")
	b.WriteString(e.phrase())
	b.WriteString("\nCurrent state: ")
	b.WriteString(string(e.CurrState))
	if e.FreeText != "" {
		b.WriteString("\nNotes:\n")
		b.WriteString(e.FreeText)
	}
	return b.String()
}

// AppendEntry extends a notes blob with one more entry. The prior blob
// is always a strict prefix of the result.
func AppendEntry(notes string, e AuditEntry) string {
	if notes == "" {
		return e.String()
	}
	return notes + Separator + e.String()
}

// ParseTrail splits a notes blob back into its entries, oldest first.
// Only the fields recoverable from the rendered text are populated.
func ParseTrail(notes string) ([]AuditEntry, error) {
	if notes == "" {
		return nil, nil
	}
	blocks := strings.Split(notes, Separator)
	entries := make([]AuditEntry, 0, len(blocks))
	for i, block := range blocks {
		entry, err := parseEntry(block)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(block string) (AuditEntry, error) {
	lines := strings.SplitN(block, "\n", 4)
	if len(lines) < 3 {
		return AuditEntry{}, fmt.Errorf("malformed entry %q", block)
	}
	ts, err := time.Parse(TimestampLayout, strings.TrimSuffix(lines[0], ":"))
	if err != nil {
		return AuditEntry{}, fmt.Errorf("bad timestamp: %w", err)
	}

	entry := AuditEntry{Timestamp: ts}
	phrase := lines[1]
	if rest, ok := strings.CutPrefix(phrase, `User "`); ok {
		if actor, tail, found := strings.Cut(rest, `" `); found {
			entry.Actor = actor
			entry.Action = actionOf(tail)
		}
	}
	entry.CurrState = State(strings.TrimPrefix(lines[2], "Current state: "))
	if len(lines) == 4 {
		entry.FreeText = strings.TrimPrefix(lines[3], "Notes:\n")
	}
	return entry, nil
}

func actionOf(tail string) Action {
	switch {
	case strings.HasPrefix(tail, "created a new task"):
		return ActionCreate
	case strings.HasPrefix(tail, "has promoted"):
		return ActionPromote
	case strings.HasPrefix(tail, "has demoted"):
		return ActionDemote
	case strings.HasPrefix(tail, "has updated task notes"):
		return ActionUpdateNotes
	default:
		return ActionUpdatePlan
	}
}
