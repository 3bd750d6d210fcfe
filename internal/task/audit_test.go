package task

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var auditTime = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

func TestAuditEntryFormats(t *testing.T) {
	cases := []struct {
		name  string
		entry AuditEntry
		want  string
	}{
		{
			name: "create with notes",
			entry: AuditEntry{
				Timestamp: auditTime,
				Actor:     "alice",
				Action:    ActionCreate,
				CurrState: StateOpen,
				FreeText:  "initial scoping",
			},
			want: "14-03-2026 09:26:53:\n" +
				`User "alice" created a new task.` + "\n" +
				"Current state: open\n" +
				"Notes:\ninitial scoping",
		},
		{
			name: "promote",
			entry: AuditEntry{
				Timestamp: auditTime,
				Actor:     "bob",
				Action:    ActionPromote,
				FromState: StateDoing,
				ToState:   StateDone,
				CurrState: StateDone,
			},
			want: "14-03-2026 09:26:53:\n" +
				`User "bob" has promoted task from "doing" state to "done" state.` + "\n" +
				"Current state: done",
		},
		{
			name: "demote",
			entry: AuditEntry{
				Timestamp: auditTime,
				Actor:     "carol",
				Action:    ActionDemote,
				FromState: StateDone,
				ToState:   StateDoing,
				CurrState: StateDoing,
			},
			want: "14-03-2026 09:26:53:\n" +
				`User "carol" has demoted task from "done" state to "doing" state.` + "\n" +
				"Current state: doing",
		},
		{
			name: "update notes",
			entry: AuditEntry{
				Timestamp: auditTime,
				Actor:     "dave",
				Action:    ActionUpdateNotes,
				CurrState: StateTodo,
				FreeText:  "blocked on upstream fix",
			},
			want: "14-03-2026 09:26:53:\n" +
				`User "dave" has updated task notes.` + "\n" +
				"Current state: todo\n" +
				"Notes:\nblocked on upstream fix",
		},
		{
			name: "plan changed",
			entry: AuditEntry{
				Timestamp: auditTime,
				Actor:     "erin",
				Action:    ActionUpdatePlan,
				CurrState: StateOpen,
				PrevPlan:  "sprint-1",
				NewPlan:   "sprint-2",
			},
			want: "14-03-2026 09:26:53:\n" +
				`User "erin" has changed task plan from "sprint-1" to "sprint-2".` + "\n" +
				"Current state: open",
		},
		{
			name: "plan set",
			entry: AuditEntry{
				Timestamp: auditTime,
				Actor:     "erin",
				Action:    ActionUpdatePlan,
				CurrState: StateOpen,
				NewPlan:   "sprint-1",
			},
			want: "14-03-2026 09:26:53:\n" +
				`User "erin" has updated task plan to "sprint-1".` + "\n" +
				"Current state: open",
		},
		{
			name: "plan removed",
			entry: AuditEntry{
				Timestamp: auditTime,
				Actor:     "erin",
				Action:    ActionUpdatePlan,
				CurrState: StateOpen,
				PrevPlan:  "sprint-1",
			},
			want: "14-03-2026 09:26:53:\n" +
				`User "erin" has removed plan from task.` + "\n" +
				"Current state: open",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.entry.String())
		})
	}
}

func TestAppendEntryIsPrefixPreserving(t *testing.T) {
	first := AuditEntry{Timestamp: auditTime, Actor: "alice", Action: ActionCreate, CurrState: StateOpen}
	second := AuditEntry{
		Timestamp: auditTime.Add(time.Minute),
		Actor:     "bob",
		Action:    ActionPromote,
		FromState: StateOpen,
		ToState:   StateTodo,
		CurrState: StateTodo,
	}

	blob := AppendEntry("", first)
	grown := AppendEntry(blob, second)

	assert.True(t, strings.HasPrefix(grown, blob+Separator))
	assert.NotContains(t, blob, Separator)
}

func TestParseTrailRoundTrip(t *testing.T) {
	blob := AppendEntry("", AuditEntry{
		Timestamp: auditTime,
		Actor:     "alice",
		Action:    ActionCreate,
		CurrState: StateOpen,
		FreeText:  "line one\nline two",
	})
	blob = AppendEntry(blob, AuditEntry{
		Timestamp: auditTime.Add(time.Hour),
		Actor:     "bob",
		Action:    ActionPromote,
		FromState: StateOpen,
		ToState:   StateTodo,
		CurrState: StateTodo,
	})

	entries, err := ParseTrail(blob)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "alice", entries[0].Actor)
	assert.Equal(t, ActionCreate, entries[0].Action)
	assert.Equal(t, StateOpen, entries[0].CurrState)
	assert.Equal(t, "line one\nline two", entries[0].FreeText)
	assert.Equal(t, auditTime, entries[0].Timestamp)

	assert.Equal(t, "bob", entries[1].Actor)
	assert.Equal(t, ActionPromote, entries[1].Action)
	assert.Equal(t, StateTodo, entries[1].CurrState)
}

func TestParseTrailEmpty(t *testing.T) {
	entries, err := ParseTrail("")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseTrailMalformed(t *testing.T) {
	_, err := ParseTrail("not an audit entry")
	assert.Error(t, err)
}
