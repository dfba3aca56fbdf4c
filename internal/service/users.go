package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/repository"
)

type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register создаёт пользователя. Повторная регистрация с тем же именем
// возвращает существующего; с другим именем - ErrConflict. Пользователь,
// созданный автоматически без имени, получает имя при регистрации.
func (s *UserService) Register(ctx context.Context, name, phone string) (*models.User, bool, error) {
	name = strings.TrimSpace(name)
	phone = models.NormalizePhone(phone)
	if name == "" || phone == "" {
		return nil, false, fmt.Errorf("name and phone number are required: %w", models.ErrValidation)
	}

	existing, err := s.repo.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		switch existing.Name {
		case name:
			return existing, false, nil
		case "":
			existing.Name = name
			if err := s.repo.UpdateUser(ctx, existing); err != nil {
				return nil, false, err
			}
			return existing, true, nil
		default:
			return nil, false, fmt.Errorf("user with this phone number already exists with a different name: %w", models.ErrConflict)
		}
	}

	user := &models.User{Name: name, PhoneNumber: phone}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) Login(ctx context.Context, name, phone string) (*models.User, error) {
	name = strings.TrimSpace(name)
	phone = models.NormalizePhone(phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("phone number and name are required: %w", models.ErrValidation)
	}
	user, err := s.repo.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Name != name {
		return nil, fmt.Errorf("invalid login credentials: %w", models.ErrNotFound)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *UserService) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.repo.GetUserByPhone(ctx, models.NormalizePhone(phone))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", phone, models.ErrNotFound)
	}
	return user, nil
}

// FindOrCreate - явная автоподстановка пользователя по номеру
func (s *UserService) FindOrCreate(ctx context.Context, phone, name string) (*models.User, error) {
	phone = models.NormalizePhone(phone)
	if phone == "" {
		return nil, fmt.Errorf("phone number is required: %w", models.ErrValidation)
	}
	user, _, err := s.repo.FindOrCreateUser(ctx, phone, strings.TrimSpace(name))
	return user, err
}
