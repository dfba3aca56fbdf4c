package models

import (
	"strings"
	"time"
)

type User struct {
	ID          string    `json:"-"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"-"`
}

// NormalizePhone убирает ведущие "+" и пробелы: WhatsApp присылает номера без "+"
func NormalizePhone(phone string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(phone), "+"))
}

// Names возвращает имена пользователей в исходном порядке
func Names(users []*User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
	}
	return names
}
