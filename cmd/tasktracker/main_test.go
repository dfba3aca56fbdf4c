package main

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRemindWithMemoryStore(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "remind", "--hours", "6")
	if err != nil {
		t.Fatalf("remind: %v", err)
	}
	if !strings.Contains(out, "Successfully sent 0 reminders for 0 tasks") {
		t.Errorf("output = %q", out)
	}
}

func TestRemindRejectsNegativeHours(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	if _, err := run(t, "remind", "--hours=-1"); err == nil {
		t.Fatal("expected error for negative hours")
	}
}

func TestMigrateSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("SQLITE_PATH", t.TempDir()+"/tasks.db")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "Schema is up to date (sqlite3)") {
		t.Errorf("output = %q", out)
	}
	// повторный запуск не падает
	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestMigrateMemoryIsError(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	if _, err := run(t, "migrate"); err == nil {
		t.Fatal("expected error for memory driver")
	}
}
