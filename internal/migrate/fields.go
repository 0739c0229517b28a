package migrate

import "fmt"

// Work item field paths.
const (
	FieldTitle       = "/fields/System.Title"
	FieldDescription = "/fields/System.Description"
	FieldReproSteps  = "/fields/Microsoft.VSTS.TCM.ReproSteps"
	FieldHistory     = "/fields/System.History"
	FieldState       = "/fields/System.State"
)

const opAdd = "add"

// HistoryNote is the history entry written on every imported work item.
func HistoryNote(key string) string {
	return fmt.Sprintf("Imported from %s", key)
}

// BuildCreateDocument builds the creation patch for issue as destination type dest.
// Bugs carry the description as repro steps; other work items as description.
// A missing description is sent as an empty string.
func BuildCreateDocument(issue SourceIssue, dest DestinationType) FieldPatchDocument {
	bodyField := FieldDescription
	if dest == Bug {
		bodyField = FieldReproSteps
	}

	return FieldPatchDocument{
		{Op: opAdd, Path: FieldTitle, Value: issue.Summary},
		{Op: opAdd, Path: bodyField, Value: issue.Description},
		{Op: opAdd, Path: FieldHistory, Value: HistoryNote(issue.Key)},
	}
}

// BuildStateUpdateDocument builds a patch that sets the work item state.
func BuildStateUpdateDocument(state string) FieldPatchDocument {
	return FieldPatchDocument{
		{Op: opAdd, Path: FieldState, Value: state},
	}
}
