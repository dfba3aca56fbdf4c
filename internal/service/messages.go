package service

import (
	"fmt"
	"strings"

	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
)

func CompletionMessage(task *models.Task) string {
	var b strings.Builder
	b.WriteString("🎉 Task Completed! 🎉\n")
	fmt.Fprintf(&b, "Description: %s\n", task.Description)
	b.WriteString("All assigned users have completed this task.\n")
	b.WriteString("The task has been removed from the system.\n")
	b.WriteString("Thank you for your collaboration!")
	return b.String()
}

func reminderHeader(task *models.Task) string {
	deadline := "none"
	if task.Deadline != nil {
		deadline = task.Deadline.String()
	}
	return fmt.Sprintf("⏰ Reminder: Task Due Soon ⏰\nDescription: %s\nDeadline: %s\n", task.Description, deadline)
}

func CreatorReminder(task *models.Task, remaining []*models.User) string {
	msg := reminderHeader(task) + "\nThis is a reminder for a task you created."
	if len(remaining) > 0 {
		return msg + "\nStill waiting for: " + strings.Join(models.Names(remaining), ", ")
	}
	return msg + "\nAll assigned users have completed this task."
}

func AssigneeReminder(task *models.Task) string {
	return reminderHeader(task) + "\nYou have not yet completed this task."
}
