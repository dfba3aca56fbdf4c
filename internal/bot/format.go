package bot

import (
	"fmt"
	"strings"

	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/service"
)

func TaskCreatedMessage(task *models.Task, res *service.Resolution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New Task (ID: %s):\n", task.ID)
	fmt.Fprintf(&b, "👥 People: %s\n", strings.Join(res.Names(), ", "))
	if task.Deadline != nil {
		fmt.Fprintf(&b, "📅 Deadline: %s\n", task.Deadline)
	}
	notes := task.Description
	if notes == "" {
		notes = "No additional notes"
	}
	fmt.Fprintf(&b, "📝 Notes: %s\n", notes)
	b.WriteString("📱 Contact Numbers:\n")
	lines := make([]string, len(res.Contacts))
	for i, c := range res.Contacts {
		lines[i] = fmt.Sprintf("%s: %s", c.Name, c.Phone)
	}
	b.WriteString(strings.Join(lines, "\n"))
	if len(res.Missing) > 0 {
		fmt.Fprintf(&b, "\n⚠️ Not found: %s", strings.Join(res.Missing, ", "))
	}
	return b.String()
}

// FormatTaskList возвращает пустую строку для пустого списка
func FormatTaskList(tasks []*models.Task) string {
	items := make([]string, len(tasks))
	for i, t := range tasks {
		deadline := "None"
		if t.Deadline != nil {
			deadline = t.Deadline.String()
		}
		notes := t.Description
		if notes == "" {
			notes = "No notes"
		}
		items[i] = fmt.Sprintf("ID: %s\n👥 People: %s\n📅 Deadline: %s\n📝 Notes: %s\n🔖 Status: %s",
			t.ID, strings.Join(displayNames(t.Assignees), ", "), deadline, notes, t.Status)
	}
	return strings.Join(items, "\n\n")
}

func CompletionReply(out *service.CompletionOutcome) string {
	if out.Status == service.CompletionDeleted {
		return "Task completed by all users and has been removed."
	}
	msg := fmt.Sprintf("You've marked this task as completed! (%d/%d users completed)", out.CompletedCount, out.TotalAssigned)
	if len(out.Remaining) > 0 {
		msg += "\nWaiting for: " + strings.Join(displayNames(out.Remaining), ", ")
	}
	return msg
}

func displayNames(users []*models.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
		if names[i] == "" {
			names[i] = u.PhoneNumber
		}
	}
	return names
}
