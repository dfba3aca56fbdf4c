package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone_number);
CREATE INDEX IF NOT EXISTS idx_users_name ON users(name);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	created_by  TEXT NOT NULL REFERENCES users(id),
	status      TEXT NOT NULL DEFAULT 'in_progress',
	deadline    TEXT,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

CREATE TABLE IF NOT EXISTS task_assignees (
	task_id  TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	user_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (task_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_task_assignees_user ON task_assignees(user_id);

CREATE TABLE IF NOT EXISTS task_completions (
	task_id      TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	completed_at TIMESTAMP NOT NULL,
	PRIMARY KEY (task_id, user_id)
);
`

const (
	userColumns   = `u.id, u.name, u.phone_number, u.created_at`
	taskSelectSQL = `SELECT t.id, t.description, t.status, t.deadline, t.created_at, ` + userColumns + `
		FROM tasks t JOIN users u ON u.id = t.created_by`
)

// dialect описывает различия Postgres и SQLite, которые нам важны
type dialect struct {
	name     string
	numbered bool   // плейсхолдеры $1, $2 вместо ?
	lockTask string // суффикс блокировки строки задачи внутри транзакции
}

var (
	postgresDialect = dialect{name: "postgres", numbered: true, lockTask: " FOR UPDATE"}
	sqliteDialect   = dialect{name: "sqlite3"}
)

// rebind переводит ? в нумерованные плейсхолдеры для Postgres
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLRepository - общее хранилище поверх database/sql
type SQLRepository struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLRepository(db *sql.DB, d dialect) *SQLRepository {
	return &SQLRepository{
		db:      db,
		dialect: d,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Migrate создаёт таблицы, если их нет
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate %s schema: %w", r.dialect.name, err)
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.insertUser(ctx, r.db, user)
}

func (r *SQLRepository) insertUser(ctx context.Context, q querier, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	query := r.dialect.rebind(`INSERT INTO users (id, name, phone_number, created_at) VALUES (?, ?, ?, ?)`)
	_, err := q.ExecContext(ctx, query, user.ID, user.Name, user.PhoneNumber, user.CreatedAt)
	return err
}

func (r *SQLRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := r.dialect.rebind(`UPDATE users SET name = ?, phone_number = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, user.Name, user.PhoneNumber, user.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", user.ID, models.ErrNotFound)
	}
	return nil
}

func (r *SQLRepository) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.userByPhone(ctx, r.db, phone)
}

func (r *SQLRepository) userByPhone(ctx context.Context, q querier, phone string) (*models.User, error) {
	query := r.dialect.rebind(`SELECT ` + userColumns + ` FROM users u
		WHERE u.phone_number = ? ORDER BY u.created_at, u.id LIMIT 1`)
	user := &models.User{}
	err := q.QueryRowContext(ctx, query, phone).Scan(&user.ID, &user.Name, &user.PhoneNumber, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *SQLRepository) FindOrCreateUser(ctx context.Context, phone, name string) (*models.User, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	existing, err := r.userByPhone(ctx, tx, phone)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, tx.Commit()
	}

	user := &models.User{Name: name, PhoneNumber: phone}
	if err := r.insertUser(ctx, tx, user); err != nil {
		return nil, false, err
	}
	return user, true, tx.Commit()
}

func (r *SQLRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.created_at, u.id`
	return r.queryUsers(ctx, r.db, query)
}

func (r *SQLRepository) FindUsersByNames(ctx context.Context, names []string) ([]*models.User, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := r.dialect.rebind(`SELECT ` + userColumns + ` FROM users u
		WHERE u.name IN (` + placeholders(len(names)) + `) ORDER BY u.created_at, u.id`)
	return r.queryUsers(ctx, r.db, query, toArgs(names)...)
}

func (r *SQLRepository) queryUsers(ctx context.Context, q querier, query string, args ...any) ([]*models.User, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.PhoneNumber, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.Creator == nil {
		return fmt.Errorf("task creator is required: %w", models.ErrValidation)
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.now()
	}
	if task.Status == "" {
		task.Status = models.StatusInProgress
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var deadline sql.NullString
	if task.Deadline != nil {
		deadline = sql.NullString{String: task.Deadline.String(), Valid: true}
	}
	query := r.dialect.rebind(`INSERT INTO tasks (id, description, created_by, status, deadline, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, query,
		task.ID, task.Description, task.Creator.ID, string(task.Status), deadline, task.CreatedAt); err != nil {
		return err
	}

	assign := r.dialect.rebind(`INSERT INTO task_assignees (task_id, user_id, position) VALUES (?, ?, ?)`)
	for i, u := range task.Assignees {
		if _, err := tx.ExecContext(ctx, assign, task.ID, u.ID, i); err != nil {
			return err
		}
	}
	complete := r.dialect.rebind(`INSERT INTO task_completions (task_id, user_id, completed_at) VALUES (?, ?, ?)`)
	for _, u := range task.Completers {
		if _, err := tx.ExecContext(ctx, complete, task.ID, u.ID, task.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return r.getTask(ctx, r.db, id)
}

func (r *SQLRepository) getTask(ctx context.Context, q querier, id string) (*models.Task, error) {
	tasks, err := r.queryTasks(ctx, q, r.dialect.rebind(taskSelectSQL+` WHERE t.id = ?`), id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return tasks[0], nil
}

func (r *SQLRepository) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return r.queryTasks(ctx, r.db, taskSelectSQL+` ORDER BY t.created_at DESC, t.id`)
}

func (r *SQLRepository) ListTasksByAssignee(ctx context.Context, userIDs ...string) ([]*models.Task, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := r.dialect.rebind(taskSelectSQL + ` WHERE t.id IN (
		SELECT a.task_id FROM task_assignees a WHERE a.user_id IN (` + placeholders(len(userIDs)) + `)
	) ORDER BY t.created_at DESC, t.id`)
	return r.queryTasks(ctx, r.db, query, toArgs(userIDs)...)
}

func (r *SQLRepository) ListOpenTasksDueBetween(ctx context.Context, from, to string) ([]*models.Task, error) {
	query := r.dialect.rebind(taskSelectSQL + ` WHERE t.status = ? AND t.deadline IS NOT NULL
		AND substr(t.deadline, 1, 10) BETWEEN ? AND ? ORDER BY t.deadline, t.id`)
	return r.queryTasks(ctx, r.db, query, string(models.StatusInProgress), from, to)
}

func (r *SQLRepository) RecordCompletion(ctx context.Context, taskID, userID string) (*CompletionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id string
	lock := r.dialect.rebind(`SELECT id FROM tasks WHERE id = ?` + r.dialect.lockTask)
	err = tx.QueryRowContext(ctx, lock, taskID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var assigned int
	check := r.dialect.rebind(`SELECT COUNT(*) FROM task_assignees WHERE task_id = ? AND user_id = ?`)
	if err := tx.QueryRowContext(ctx, check, taskID, userID).Scan(&assigned); err != nil {
		return nil, err
	}
	if assigned == 0 {
		return nil, fmt.Errorf("user %s is not assigned to task %s: %w", userID, taskID, models.ErrForbidden)
	}

	insert := r.dialect.rebind(`INSERT INTO task_completions (task_id, user_id, completed_at) VALUES (?, ?, ?)
		ON CONFLICT (task_id, user_id) DO NOTHING`)
	res, err := tx.ExecContext(ctx, insert, taskID, userID, r.now())
	if err != nil {
		return nil, err
	}
	added, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	task, err := r.getTask(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	result := &CompletionResult{Task: task, Added: added > 0}

	if task.IsCompletedByAll() {
		for _, stmt := range []string{
			`DELETE FROM task_completions WHERE task_id = ?`,
			`DELETE FROM task_assignees WHERE task_id = ?`,
			`DELETE FROM tasks WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, r.dialect.rebind(stmt), taskID); err != nil {
				return nil, err
			}
		}
		result.Deleted = true
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// queryTasks читает задачи с автором, затем отдельными запросами подтягивает
// назначенных и завершивших. Курсор закрывается до следующего запроса: lib/pq
// не умеет держать два открытых результата на одном соединении.
func (r *SQLRepository) queryTasks(ctx context.Context, q querier, query string, args ...any) ([]*models.Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{Creator: &models.User{}}
		var status string
		var deadline sql.NullString
		if err := rows.Scan(&task.ID, &task.Description, &status, &deadline, &task.CreatedAt,
			&task.Creator.ID, &task.Creator.Name, &task.Creator.PhoneNumber, &task.Creator.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		task.Status = models.TaskStatus(status)
		if deadline.Valid {
			d, err := models.ParseDeadline(deadline.String)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("task %s: %w", task.ID, err)
			}
			task.Deadline = d
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(tasks) == 0 {
		return tasks, nil
	}
	if err := r.loadMembers(ctx, q, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *SQLRepository) loadMembers(ctx context.Context, q querier, tasks []*models.Task) error {
	byID := make(map[string]*models.Task, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}
	in := placeholders(len(ids))

	assignees, err := r.queryMembers(ctx, q, r.dialect.rebind(`SELECT a.task_id, `+userColumns+`
		FROM task_assignees a JOIN users u ON u.id = a.user_id
		WHERE a.task_id IN (`+in+`) ORDER BY a.position, u.id`), ids)
	if err != nil {
		return err
	}
	for _, m := range assignees {
		byID[m.taskID].Assignees = append(byID[m.taskID].Assignees, m.user)
	}

	completers, err := r.queryMembers(ctx, q, r.dialect.rebind(`SELECT c.task_id, `+userColumns+`
		FROM task_completions c JOIN users u ON u.id = c.user_id
		WHERE c.task_id IN (`+in+`) ORDER BY c.completed_at, u.id`), ids)
	if err != nil {
		return err
	}
	for _, m := range completers {
		byID[m.taskID].Completers = append(byID[m.taskID].Completers, m.user)
	}
	return nil
}

type member struct {
	taskID string
	user   *models.User
}

func (r *SQLRepository) queryMembers(ctx context.Context, q querier, query string, ids []string) ([]member, error) {
	rows, err := q.QueryContext(ctx, query, toArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []member
	for rows.Next() {
		m := member{user: &models.User{}}
		if err := rows.Scan(&m.taskID, &m.user.ID, &m.user.Name, &m.user.PhoneNumber, &m.user.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
