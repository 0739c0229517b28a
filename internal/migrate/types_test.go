package migrate

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		typeName string
		want     DestinationType
		wantName string
	}{
		{"Bug", Bug, "Bug"},
		{"Story", GenericWorkItem, "User Story"},
		{"Task", GenericWorkItem, "User Story"},
		{"Epic", Skip, ""},
		{"Sub-task", Skip, ""},
		{"bug", Skip, ""},
		{"", Skip, ""},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got := Classify(tt.typeName)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.typeName, got, tt.want)
			}
			if name := got.WorkItemTypeName(); name != tt.wantName {
				t.Errorf("WorkItemTypeName() = %q, want %q", name, tt.wantName)
			}
		})
	}
}
