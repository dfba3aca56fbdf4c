package service

import (
	"context"
	"strings"

	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/repository"
)

type Contact struct {
	Name  string
	Phone string
}

// Resolution - найденные контакты в порядке запроса и ненайденные имена
type Resolution struct {
	Contacts []Contact
	Missing  []string
}

func (r *Resolution) Phones() []string {
	phones := make([]string, len(r.Contacts))
	for i, c := range r.Contacts {
		phones[i] = c.Phone
	}
	return phones
}

func (r *Resolution) Names() []string {
	names := make([]string, len(r.Contacts))
	for i, c := range r.Contacts {
		names[i] = c.Name
	}
	return names
}

// ContactResolver сопоставляет имена с номерами по точному совпадению
// (с учётом регистра). При одинаковых именах берётся первый зарегистрированный.
type ContactResolver struct {
	repo repository.UserRepository
}

func NewContactResolver(repo repository.UserRepository) *ContactResolver {
	return &ContactResolver{repo: repo}
}

func (r *ContactResolver) Resolve(ctx context.Context, names []string) (*Resolution, error) {
	var wanted []string
	seen := make(map[string]bool)
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		wanted = append(wanted, n)
	}

	users, err := r.repo.FindUsersByNames(ctx, wanted)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.User, len(users))
	for _, u := range users {
		if _, ok := byName[u.Name]; !ok {
			byName[u.Name] = u
		}
	}

	res := &Resolution{}
	for _, n := range wanted {
		u, ok := byName[n]
		if !ok {
			res.Missing = append(res.Missing, n)
			continue
		}
		res.Contacts = append(res.Contacts, Contact{Name: n, Phone: models.NormalizePhone(u.PhoneNumber)})
	}
	return res, nil
}
