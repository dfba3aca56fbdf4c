package command

import (
	"errors"
	"reflect"
	"testing"

	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Command
		wantErr bool
	}{
		{
			name: "task with people deadline and notes",
			text: "TASK, [Ann|Bo], 2025-06-30, Buy milk",
			want: Command{Kind: KindTask, People: []string{"Ann", "Bo"}, Deadline: "2025-06-30", Notes: "Buy milk"},
		},
		{
			name: "task without deadline keeps every remaining field as notes",
			text: "task, [ Ann | Bo ], Buy milk, and eggs",
			want: Command{Kind: KindTask, People: []string{"Ann", "Bo"}, Notes: "Buy milk, and eggs"},
		},
		{
			name: "task notes after deadline are joined back with commas",
			text: "Task, [Ann], 2025-01-02, one, two",
			want: Command{Kind: KindTask, People: []string{"Ann"}, Deadline: "2025-01-02", Notes: "one, two"},
		},
		{
			name: "task with only people",
			text: "TASK, [Ann]",
			want: Command{Kind: KindTask, People: []string{"Ann"}},
		},
		{name: "task without brackets", text: "TASK, Ann", wantErr: true},
		{name: "task without people field", text: "TASK", wantErr: true},
		{name: "task missing comma", text: "task [Ann]", wantErr: true},
		{name: "task with empty brackets", text: "TASK, [ | ], notes", wantErr: true},
		{name: "task with impossible date", text: "TASK, [Ann], 2025-13-45, notes", wantErr: true},
		{
			name: "list",
			text: "  LIST ",
			want: Command{Kind: KindList},
		},
		{
			name: "tasks for is not mistaken for task",
			text: "TASKS FOR Ann Lee",
			want: Command{Kind: KindTasksFor, Person: "Ann Lee"},
		},
		{name: "tasks for without name", text: "tasks for ", wantErr: true},
		{
			name: "done lower case with uuid",
			text: "done 123e4567-e89b-12d3-a456-426614174000",
			want: Command{Kind: KindDone, TaskID: "123e4567-e89b-12d3-a456-426614174000"},
		},
		{name: "done with invalid id", text: "DONE not-a-uuid", wantErr: true},
		{name: "done without id", text: "DONE", wantErr: true},
		{name: "unknown text", text: "hello there", want: Command{Kind: KindUnknown}},
		{name: "list with suffix is unknown", text: "list everything", want: Command{Kind: KindUnknown}},
		{name: "empty", text: "", want: Command{Kind: KindUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if tt.wantErr {
				var fe *FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("Parse(%q) error = %v, want *FormatError", tt.text, err)
				}
				if fe.Reply == "" {
					t.Error("format error must carry a reply for the user")
				}
				if !errors.Is(err, models.ErrValidation) {
					t.Error("format error must match models.ErrValidation")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.text, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseTaskWithoutBracketsReplyShowsExample(t *testing.T) {
	_, err := Parse("TASK, Ann")
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Reply != TaskUsage {
		t.Errorf("got %v, want usage reply", err)
	}
}

func TestKindString(t *testing.T) {
	if KindTasksFor.String() != "TASKS FOR" || Kind(99).String() != "UNKNOWN" {
		t.Error("unexpected Kind names")
	}
}
