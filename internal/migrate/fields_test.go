package migrate

import (
	"reflect"
	"testing"
)

func TestBuildCreateDocument(t *testing.T) {
	issue := SourceIssue{
		Key:         "PROJ-7",
		TypeName:    "Bug",
		Summary:     "Crash on save",
		Description: "Click save twice",
		StatusName:  "Done",
	}

	tests := []struct {
		name string
		dest DestinationType
		want FieldPatchDocument
	}{
		{
			name: "bug uses repro steps",
			dest: Bug,
			want: FieldPatchDocument{
				{Op: "add", Path: "/fields/System.Title", Value: "Crash on save"},
				{Op: "add", Path: "/fields/Microsoft.VSTS.TCM.ReproSteps", Value: "Click save twice"},
				{Op: "add", Path: "/fields/System.History", Value: "Imported from PROJ-7"},
			},
		},
		{
			name: "story uses description",
			dest: GenericWorkItem,
			want: FieldPatchDocument{
				{Op: "add", Path: "/fields/System.Title", Value: "Crash on save"},
				{Op: "add", Path: "/fields/System.Description", Value: "Click save twice"},
				{Op: "add", Path: "/fields/System.History", Value: "Imported from PROJ-7"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCreateDocument(issue, tt.dest)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildCreateDocument() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildCreateDocument_MissingDescription(t *testing.T) {
	for _, dest := range []DestinationType{Bug, GenericWorkItem} {
		doc := BuildCreateDocument(SourceIssue{Key: "PROJ-1", Summary: "x"}, dest)
		if len(doc) != 3 {
			t.Fatalf("%v: expected 3 operations, got %d", dest, len(doc))
		}
		body := doc[1]
		if body.Path != FieldReproSteps && body.Path != FieldDescription {
			t.Errorf("%v: unexpected body field %q", dest, body.Path)
		}
		if body.Value != "" {
			t.Errorf("%v: expected empty body value, got %q", dest, body.Value)
		}
	}
}

func TestBuildCreateDocument_HistoryAlwaysNamesKey(t *testing.T) {
	for _, key := range []string{"A-1", "LONGPROJ-99999", ""} {
		doc := BuildCreateDocument(SourceIssue{Key: key}, GenericWorkItem)
		last := doc[len(doc)-1]
		if last.Path != FieldHistory || last.Value != "Imported from "+key {
			t.Errorf("history for %q = %+v", key, last)
		}
	}
}

func TestBuildStateUpdateDocument(t *testing.T) {
	got := BuildStateUpdateDocument("Resolved")
	want := FieldPatchDocument{{Op: "add", Path: "/fields/System.State", Value: "Resolved"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildStateUpdateDocument() = %+v, want %+v", got, want)
	}
}
