package task

// The workflow is a fixed linear chain with two demote edges. Both
// tables are keyed by the source state; permission lookup always uses
// the source state's configured group.

var promotions = map[State]State{
	StateOpen:  StateTodo,
	StateTodo:  StateDoing,
	StateDoing: StateDone,
	StateDone:  StateClose,
}

var demotions = map[State]State{
	StateDoing: StateTodo,
	StateDone:  StateDoing,
}

// PromoteTarget returns the state a promotion from the given state
// lands in. close has no outgoing edge.
func PromoteTarget(from State) (State, bool) {
	to, ok := promotions[from]
	return to, ok
}

// DemoteTarget returns the state a demotion from the given state
// lands in. Only doing and done can be demoted.
func DemoteTarget(from State) (State, bool) {
	to, ok := demotions[from]
	return to, ok
}
