package migrate

// statusTable maps Jira status display names to Azure DevOps states.
var statusTable = map[string]string{
	"To do":       "New",
	"In Progress": "Active",
	"Reopened":    "Active",
	"Review":      "Resolved",
	"Resolved":    "Resolved",
	"Closed":      "Closed",
	"Done":        "Closed",
}

// MapStatus returns the Azure DevOps state for a Jira status name.
// found is false for statuses without a mapping; callers skip the state
// update in that case rather than treating it as an error.
func MapStatus(statusName string) (state string, found bool) {
	state, found = statusTable[statusName]
	return state, found
}
