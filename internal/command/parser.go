// Package command разбирает текстовые команды чата: TASK, LIST, TASKS FOR, DONE.
package command

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindTask
	KindList
	KindTasksFor
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindTask:
		return "TASK"
	case KindList:
		return "LIST"
	case KindTasksFor:
		return "TASKS FOR"
	case KindDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

const (
	TaskUsage = "People must be enclosed in square brackets. Example: TASK, [John|Sarah], 2025-06-30, Project proposal"
	DoneUsage = "Please provide a task ID. Format: DONE task-id"
)

var (
	peoplePattern = regexp.MustCompile(`^\[(.*?)\]$`)
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

type Command struct {
	Kind     Kind
	People   []string
	Deadline string
	Notes    string
	Person   string
	TaskID   string
}

// FormatError - команда распознана, но записана неверно; Reply уходит пользователю
type FormatError struct {
	Kind  Kind
	Reply string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed %s command: %s", e.Kind, e.Reply)
}

func (e *FormatError) Unwrap() error { return models.ErrValidation }

// Parse классифицирует сообщение без учёта регистра. TASKS FOR проверяется
// раньше TASK, иначе "tasks for Ann" попало бы в разбор TASK.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	switch {
	case firstToken(lower) == "done":
		return parseDone(text)
	case strings.HasPrefix(lower, "tasks for"):
		return parseTasksFor(text)
	case firstToken(strings.SplitN(lower, ",", 2)[0]) == "task":
		return parseTask(text)
	case lower == "list":
		return Command{Kind: KindList}, nil
	default:
		return Command{Kind: KindUnknown}, nil
	}
}

func parseDone(text string) (Command, error) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return Command{}, &FormatError{Kind: KindDone, Reply: DoneUsage}
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Command{}, &FormatError{
			Kind:  KindDone,
			Reply: fmt.Sprintf("Invalid task ID format: %s. Please provide a valid task ID.", parts[1]),
		}
	}
	return Command{Kind: KindDone, TaskID: id.String()}, nil
}

func parseTasksFor(text string) (Command, error) {
	person := strings.TrimSpace(text[len("tasks for"):])
	if person == "" {
		return Command{}, &FormatError{Kind: KindTasksFor, Reply: "Please provide a name. Format: TASKS FOR name"}
	}
	return Command{Kind: KindTasksFor, Person: person}, nil
}

func parseTask(text string) (Command, error) {
	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return Command{}, &FormatError{Kind: KindTask, Reply: TaskUsage}
	}
	m := peoplePattern.FindStringSubmatch(parts[1])
	if m == nil {
		return Command{}, &FormatError{Kind: KindTask, Reply: TaskUsage}
	}

	var people []string
	for _, p := range strings.Split(m[1], "|") {
		if p = strings.TrimSpace(p); p != "" {
			people = append(people, p)
		}
	}
	if len(people) == 0 {
		return Command{}, &FormatError{Kind: KindTask, Reply: TaskUsage}
	}

	cmd := Command{Kind: KindTask, People: people}
	rest := parts[2:]
	if len(rest) > 0 && datePattern.MatchString(rest[0]) {
		if _, err := time.Parse(models.DateLayout, rest[0]); err != nil {
			return Command{}, &FormatError{
				Kind:  KindTask,
				Reply: fmt.Sprintf("Invalid deadline %s. Use YYYY-MM-DD.", rest[0]),
			}
		}
		cmd.Deadline = rest[0]
		rest = rest[1:]
	}
	cmd.Notes = strings.Join(rest, ", ")
	return cmd, nil
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
