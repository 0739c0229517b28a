// Package migrate moves Jira issues into Azure DevOps work items.
//
// The package owns the pieces that do not depend on either remote API:
// status and type mapping, field-patch construction, paginated extraction
// and the orchestrator that drives one run. Remote access is reached through
// the PageFetcher and WorkItemSink interfaces, implemented by the jira and
// azuredevops packages.
package migrate

// SourceIssue is a read-only view of one Jira issue.
type SourceIssue struct {
	Key         string // Stable external id, e.g. "PROJ-12"
	TypeName    string
	Summary     string
	Description string // Empty when the issue has no description
	StatusName  string
}

// DestinationType is the kind of work item an issue becomes.
type DestinationType int

const (
	// Skip means the issue type has no destination mapping.
	Skip DestinationType = iota
	Bug
	GenericWorkItem
)

// Azure DevOps work item type names.
const (
	WorkItemTypeBug       = "Bug"
	WorkItemTypeUserStory = "User Story"
)

// Classify derives the destination type from a Jira issue type name.
// Matching is exact and case-sensitive.
func Classify(typeName string) DestinationType {
	switch typeName {
	case "Bug":
		return Bug
	case "Story", "Task":
		return GenericWorkItem
	default:
		return Skip
	}
}

// WorkItemTypeName returns the Azure DevOps type name, or "" for Skip.
func (d DestinationType) WorkItemTypeName() string {
	switch d {
	case Bug:
		return WorkItemTypeBug
	case GenericWorkItem:
		return WorkItemTypeUserStory
	default:
		return ""
	}
}

func (d DestinationType) String() string {
	switch d {
	case Bug:
		return "bug"
	case GenericWorkItem:
		return "story"
	default:
		return "skip"
	}
}

// PatchOperation is one field-set step of a work item patch.
type PatchOperation struct {
	Op    string
	Path  string
	Value string
}

// FieldPatchDocument is an ordered list of patch operations sent in one request.
type FieldPatchDocument []PatchOperation
