package application

// DateLayout is the wire and storage rendering for application and plan dates.
const DateLayout = "02-01-2006"

// Application is a project workspace. RNumber is the running counter task ids
// are allocated from; it only ever moves forward, and only through the task
// store's atomic increment.
type Application struct {
	Acronym     string `json:"acronym"`
	Description string `json:"description,omitempty"`
	RNumber     int    `json:"rNumber"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`

	// Permit* name the single group allowed to act on tasks in the matching
	// state (PermitCreate gates task creation). Empty means nobody may act:
	// permissions fail closed.
	PermitCreate string `json:"permitCreate,omitempty"`
	PermitOpen   string `json:"permitOpen,omitempty"`
	PermitTodo   string `json:"permitTodo,omitempty"`
	PermitDoing  string `json:"permitDoing,omitempty"`
	PermitDone   string `json:"permitDone,omitempty"`
}

// PermittedGroup returns the group configured for a workflow state and whether
// one is set at all. State "close" has no outgoing transitions, so no group.
func (a Application) PermittedGroup(state string) (string, bool) {
	var group string
	switch state {
	case "open":
		group = a.PermitOpen
	case "todo":
		group = a.PermitTodo
	case "doing":
		group = a.PermitDoing
	case "done":
		group = a.PermitDone
	default:
		return "", false
	}
	return group, group != ""
}
