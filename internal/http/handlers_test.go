package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/repository"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/service"
)

type mockSender struct {
	mu   sync.Mutex
	sent map[string]int
}

func (m *mockSender) Send(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == nil {
		m.sent = make(map[string]int)
	}
	m.sent[to]++
	return nil
}

type mockBot struct {
	HandleFunc func(ctx context.Context, from, text string) (string, error)
	apologies  []string
}

func (b *mockBot) Handle(ctx context.Context, from, text string) (string, error) {
	return b.HandleFunc(ctx, from, text)
}

func (b *mockBot) Apologize(ctx context.Context, from string) {
	b.apologies = append(b.apologies, from)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type server struct {
	handler http.Handler
	tasks   *service.TaskService
	users   *service.UserService
	bot     *mockBot
	sender  *mockSender
}

func newServer(t *testing.T) *server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := repository.NewMemoryRepository()
	sender := &mockSender{}
	users := service.NewUserService(repo)
	tasks := service.NewTaskService(repo, users, sender, logger)
	bot := &mockBot{HandleFunc: func(ctx context.Context, from, text string) (string, error) {
		return "success", nil
	}}

	mux := NewRouter(Handlers{
		Users:   NewUserHandler(users, logger),
		Tasks:   NewTaskHandler(tasks, service.NewReminderService(repo, sender, logger), logger),
		Webhook: NewWebhookHandler(bot, logger),
		Health:  NewHealthHandler(repo, logger),
	})
	return &server{handler: mux, tasks: tasks, users: users, bot: bot, sender: sender}
}

func (s *server) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRegister(t *testing.T) {
	s := newServer(t)
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"new user", `{"name":"Ann","phone_number":"+111"}`, http.StatusCreated},
		{"same name again", `{"name":"Ann","phone_number":"111"}`, http.StatusOK},
		{"different name", `{"name":"Bob","phone_number":"111"}`, http.StatusConflict},
		{"missing name", `{"phone_number":"222"}`, http.StatusBadRequest},
		{"broken json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/register", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	rec := s.do(t, http.MethodGet, "/api/users", "")
	users := decode[[]userResponse](t, rec)
	if len(users) != 1 || users[0].PhoneNumber != "111" {
		t.Errorf("users = %+v", users)
	}
}

func TestLogin(t *testing.T) {
	s := newServer(t)
	s.do(t, http.MethodPost, "/api/register", `{"name":"Ann","phone_number":"111"}`)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"ok", `{"name":"Ann","phone_number":"111"}`, http.StatusOK},
		{"wrong name", `{"name":"Eve","phone_number":"111"}`, http.StatusUnauthorized},
		{"unknown phone", `{"name":"Ann","phone_number":"999"}`, http.StatusUnauthorized},
		{"missing fields", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(t, http.MethodPost, "/api/login", tt.body); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestCreateAndListTasks(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/tasks", `{"description":"report","created_by_phone":"900","assigned_to_phones":["111","+111","222"],"deadline":"2030-05-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	task := decode[taskResponse](t, rec)
	if len(task.AssignedTo) != 2 {
		t.Errorf("assignees = %d, want 2", len(task.AssignedTo))
	}
	if task.Deadline == nil || *task.Deadline != "2030-05-01" {
		t.Errorf("deadline = %v", task.Deadline)
	}
	if task.Status != "in_progress" {
		t.Errorf("status = %s", task.Status)
	}

	for _, body := range []string{
		`{"created_by_phone":"900"}`,
		`{"description":"x"}`,
		`{"description":"x","created_by_phone":"900","deadline":"tomorrow"}`,
	} {
		if rec := s.do(t, http.MethodPost, "/api/tasks", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}

	all := decode[[]taskResponse](t, s.do(t, http.MethodGet, "/api/tasks", ""))
	if len(all) != 1 {
		t.Fatalf("tasks = %d, want 1", len(all))
	}

	mine := decode[[]taskResponse](t, s.do(t, http.MethodGet, "/api/user-tasks/222", ""))
	if len(mine) != 1 || mine[0].ID != task.ID {
		t.Errorf("user tasks = %+v", mine)
	}
	if rec := s.do(t, http.MethodGet, "/api/user-tasks/000", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d, want 404", rec.Code)
	}
}

func TestCompleteTask(t *testing.T) {
	s := newServer(t)
	s.do(t, http.MethodPost, "/api/register", `{"name":"Eve","phone_number":"666"}`)
	task := decode[taskResponse](t, s.do(t, http.MethodPost, "/api/tasks",
		`{"description":"deploy","created_by_phone":"900","assigned_to_phones":["111","222"]}`))
	path := "/api/tasks/" + task.ID + "/complete"

	errCases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"missing phone", path, `{}`, http.StatusBadRequest},
		{"unknown task", "/api/tasks/7f5b3e2c-1d2a-4c9b-9a1e-0e8f7d6c5b4a/complete", `{"phone_number":"111"}`, http.StatusNotFound},
		{"unknown user", path, `{"phone_number":"777"}`, http.StatusNotFound},
		{"not assignee", path, `{"phone_number":"666"}`, http.StatusForbidden},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(t, http.MethodPost, tt.path, tt.body); rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	rec := s.do(t, http.MethodPost, path, `{"phone_number":"111"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	first := decode[completionResponse](t, rec)
	if first.Status != "in_progress" || first.CompletedCount != 1 || first.TotalAssigned != 2 || len(first.RemainingUsers) != 1 {
		t.Errorf("first completion = %+v", first)
	}

	last := decode[completionResponse](t, s.do(t, http.MethodPost, path, `{"phone_number":"222"}`))
	if last.Status != "deleted" || last.NotificationsSent == nil || *last.NotificationsSent != 3 {
		t.Errorf("last completion = %+v", last)
	}

	if rec := s.do(t, http.MethodPost, path, `{"phone_number":"222"}`); rec.Code != http.StatusNotFound {
		t.Errorf("completed task: status = %d, want 404", rec.Code)
	}
	resp := decode[errorResponse](t, s.do(t, http.MethodPost, path, `{"phone_number":"222"}`))
	if resp.Error != "task not found" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSendReminders(t *testing.T) {
	s := newServer(t)
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"default hours", "", http.StatusOK},
		{"int hours", `{"hours":2}`, http.StatusOK},
		{"string hours", `{"hours":"48"}`, http.StatusOK},
		{"bad hours", `{"hours":"soon"}`, http.StatusBadRequest},
		{"fraction", `{"hours":1.5}`, http.StatusBadRequest},
		{"negative", `{"hours":-1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/tasks/send-reminders", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusOK {
				resp := decode[remindersResponse](t, rec)
				if resp.Message != "Successfully sent 0 reminders for 0 tasks" {
					t.Errorf("message = %q", resp.Message)
				}
			}
		})
	}
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 24, false},
		{"null", 24, false},
		{"6", 6, false},
		{`" 12 "`, 12, false},
		{`"x"`, 0, true},
		{"true", 0, true},
	}
	for _, tt := range tests {
		got, err := parseHours(json.RawMessage(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseHours(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseHours(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestWebhookAlwaysOK(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		handle     func(ctx context.Context, from, text string) (string, error)
		wantStatus string
		apologies  int
	}{
		{name: "invalid json", body: `{`, wantStatus: "Invalid JSON"},
		{name: "no messages", body: `{"messages":[]}`, wantStatus: "No messages"},
		{name: "missing text", body: `{"messages":[{"from":"111"}]}`, wantStatus: "Missing sender or message text"},
		{
			name: "command",
			body: `{"messages":[{"from":"111","text":{"body":"LIST"}},{"from":"222","text":{"body":"LIST"}}]}`,
			handle: func(ctx context.Context, from, text string) (string, error) {
				if from != "111" {
					t.Errorf("only the first message is processed, got %s", from)
				}
				return "success", nil
			},
			wantStatus: "success",
		},
		{
			name: "internal error",
			body: `{"messages":[{"from":"111","text":{"body":"LIST"}}]}`,
			handle: func(ctx context.Context, from, text string) (string, error) {
				return "", errors.New("db down")
			},
			wantStatus: "Internal error occurred",
			apologies:  1,
		},
		{
			name: "panic",
			body: `{"messages":[{"from":"111","text":{"body":"LIST"}}]}`,
			handle: func(ctx context.Context, from, text string) (string, error) {
				panic("boom")
			},
			wantStatus: "Internal error occurred",
			apologies:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			if tt.handle != nil {
				s.bot.HandleFunc = tt.handle
			}
			rec := s.do(t, http.MethodPost, "/webhook", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got := decode[statusResponse](t, rec).Status; got != tt.wantStatus {
				t.Errorf("status body = %q, want %q", got, tt.wantStatus)
			}
			if len(s.bot.apologies) != tt.apologies {
				t.Errorf("apologies = %v, want %d", s.bot.apologies, tt.apologies)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tests := []struct {
		name   string
		ping   error
		status int
	}{
		{"healthy", nil, http.StatusOK},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(pingFunc(func(ctx context.Context) error { return tt.ping }), logger)
			rec := httptest.NewRecorder()
			h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
