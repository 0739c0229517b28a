package azuredevops

import (
	"context"

	"github.com/steveyegge/jira2ado/internal/migrate"
)

// Sink adapts a Client to migrate.WorkItemSink.
type Sink struct {
	Client *Client
}

// NewSink wraps client as a work item sink.
func NewSink(client *Client) *Sink {
	return &Sink{Client: client}
}

// CreateWorkItem implements migrate.WorkItemSink.
func (s *Sink) CreateWorkItem(ctx context.Context, doc migrate.FieldPatchDocument, project, workItemType string) (int, error) {
	wi, err := s.Client.CreateWorkItem(ctx, project, workItemType, ToPatchOperations(doc))
	if err != nil {
		return 0, err
	}
	return wi.ID, nil
}

// UpdateWorkItem implements migrate.WorkItemSink.
func (s *Sink) UpdateWorkItem(ctx context.Context, doc migrate.FieldPatchDocument, id int) error {
	_, err := s.Client.UpdateWorkItem(ctx, id, ToPatchOperations(doc))
	return err
}

// ToPatchOperations converts a field patch document to its wire form.
func ToPatchOperations(doc migrate.FieldPatchDocument) []PatchOperation {
	ops := make([]PatchOperation, len(doc))
	for i, op := range doc {
		ops[i] = PatchOperation{Op: op.Op, Path: op.Path, Value: op.Value}
	}
	return ops
}
