package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/repository"
)

var errMockSend = errors.New("gateway down")

type sentMessage struct {
	To   string
	Body string
}

// mockSender записывает сообщения; SendFunc позволяет вернуть ошибку
type mockSender struct {
	mu       sync.Mutex
	SendFunc func(ctx context.Context, to, body string) error
	Sent     []sentMessage
}

func (m *mockSender) Send(ctx context.Context, to, body string) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, to, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{To: to, Body: body})
	return nil
}

func (m *mockSender) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Sent))
	for i, s := range m.Sent {
		out[i] = s.To
	}
	return out
}

type testEnv struct {
	repo      *repository.MemoryRepository
	users     *UserService
	tasks     *TaskService
	reminders *ReminderService
	contacts  *ContactResolver
	sender    *mockSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := repository.NewMemoryRepository()
	sender := &mockSender{}
	users := NewUserService(repo)
	return &testEnv{
		repo:      repo,
		users:     users,
		tasks:     NewTaskService(repo, users, sender, logger),
		reminders: NewReminderService(repo, sender, logger),
		contacts:  NewContactResolver(repo),
		sender:    sender,
	}
}

func (e *testEnv) register(t *testing.T, name, phone string) *models.User {
	t.Helper()
	u, _, err := e.users.Register(context.Background(), name, phone)
	if err != nil {
		t.Fatalf("Register(%s): %v", name, err)
	}
	return u
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	counts := make(map[string]int)
	for _, g := range got {
		counts[g]++
	}
	for _, w := range want {
		counts[w]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}
