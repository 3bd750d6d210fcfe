package plan

// Plan is a milestone scoped to one application. MVPName and AppAcronym form
// the composite key; tasks reference plans by MVPName within their application.
type Plan struct {
	MVPName    string `json:"mvpName"`
	AppAcronym string `json:"appAcronym"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Colour     string `json:"colour"`
}
