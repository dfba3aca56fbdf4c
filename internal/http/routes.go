package http

import (
	"net/http"
)

type Handlers struct {
	Users   *UserHandler
	Tasks   *TaskHandler
	Webhook *WebhookHandler
	Health  *HealthHandler
	Metrics http.Handler
}

// NewRouter регистрирует маршруты API. Пути без завершающего слэша:
// в ServeMux шаблон со слэшем совпадает со всем поддеревом.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", h.Users.Register)
	mux.HandleFunc("POST /api/login", h.Users.Login)
	mux.HandleFunc("GET /api/users", h.Users.ListUsers)
	mux.HandleFunc("GET /api/tasks", h.Tasks.ListTasks)
	mux.HandleFunc("POST /api/tasks", h.Tasks.CreateTask)
	mux.HandleFunc("GET /api/user-tasks/{phone}", h.Tasks.UserTasks)
	mux.HandleFunc("POST /api/tasks/{id}/complete", h.Tasks.CompleteTask)
	mux.HandleFunc("POST /api/tasks/send-reminders", h.Tasks.SendReminders)
	mux.HandleFunc("POST /webhook", h.Webhook.Handle)
	mux.HandleFunc("GET /healthz", h.Health.Healthz)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	return mux
}
