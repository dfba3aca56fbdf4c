package models

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

const DateLayout = "2006-01-02"

// Deadline - срок задачи: либо только дата, либо дата со временем
type Deadline struct {
	At      time.Time
	HasTime bool
}

// ParseDeadline принимает "YYYY-MM-DD" или RFC 3339; время приводится к UTC
func ParseDeadline(s string) (*Deadline, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return &Deadline{At: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &Deadline{At: t.UTC(), HasTime: true}, nil
	}
	return nil, fmt.Errorf("deadline %q: expected YYYY-MM-DD or RFC 3339: %w", s, ErrValidation)
}

// Date возвращает календарную дату срока
func (d Deadline) Date() string {
	return d.At.Format(DateLayout)
}

func (d Deadline) String() string {
	if d.HasTime {
		return d.At.Format(time.RFC3339)
	}
	return d.Date()
}

type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Creator     *User      `json:"created_by"`
	Assignees   []*User    `json:"assigned_to"`
	Completers  []*User    `json:"completed_by"`
	Status      TaskStatus `json:"status"`
	Deadline    *Deadline  `json:"-"`
	CreatedAt   time.Time  `json:"-"`
}

// IsCompletedByAll - все назначенные подтвердили выполнение
func (t *Task) IsCompletedByAll() bool {
	return len(t.Assignees) > 0 && len(t.Completers) == len(t.Assignees)
}

func (t *Task) IsAssignee(userID string) bool {
	return containsUser(t.Assignees, userID)
}

func (t *Task) HasCompleted(userID string) bool {
	return containsUser(t.Completers, userID)
}

// Remaining возвращает назначенных, которые ещё не завершили задачу
func (t *Task) Remaining() []*User {
	var out []*User
	for _, u := range t.Assignees {
		if !t.HasCompleted(u.ID) {
			out = append(out, u)
		}
	}
	return out
}

// Participants - назначенные плюс автор, без повторов
func (t *Task) Participants() []*User {
	out := make([]*User, 0, len(t.Assignees)+1)
	out = append(out, t.Assignees...)
	if t.Creator != nil && !containsUser(out, t.Creator.ID) {
		out = append(out, t.Creator)
	}
	return out
}

func containsUser(users []*User, id string) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
