package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, created, err := env.users.Register(ctx, "Ann", "+15550001")
	if err != nil || !created || u.PhoneNumber != "15550001" {
		t.Fatalf("Register = %+v, %v, %v", u, created, err)
	}

	again, created, err := env.users.Register(ctx, "Ann", "15550001")
	if err != nil || created || again.ID != u.ID {
		t.Errorf("same name re-registration = %+v, %v, %v", again, created, err)
	}

	if _, _, err := env.users.Register(ctx, "Bob", "15550001"); !errors.Is(err, models.ErrConflict) {
		t.Errorf("different name: got %v, want ErrConflict", err)
	}
	if _, _, err := env.users.Register(ctx, "", "1"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing name: got %v, want ErrValidation", err)
	}
}

func TestRegisterClaimsProvisionedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	provisioned, err := env.users.FindOrCreate(ctx, "15550002", "")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	u, created, err := env.users.Register(ctx, "Bo", "15550002")
	if err != nil || !created || u.ID != provisioned.ID || u.Name != "Bo" {
		t.Errorf("Register = %+v, %v, %v", u, created, err)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Ann", "101")

	if _, err := env.users.Login(ctx, "Ann", "+101"); err != nil {
		t.Errorf("Login: %v", err)
	}
	if _, err := env.users.Login(ctx, "Bo", "101"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("wrong name: got %v, want ErrNotFound", err)
	}
	if _, err := env.users.Login(ctx, "Ann", ""); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing phone: got %v, want ErrValidation", err)
	}
}

func TestContactResolver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Ann", "+101")
	env.register(t, "Bo", "102")

	res, err := env.contacts.Resolve(ctx, []string{" Ann ", "Bo", "bo", "Ann", "Cy"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if names := res.Names(); len(names) != 2 || names[0] != "Ann" || names[1] != "Bo" {
		t.Errorf("resolved = %v, want [Ann Bo]", names)
	}
	if phones := res.Phones(); phones[0] != "101" || phones[1] != "102" {
		t.Errorf("phones = %v", phones)
	}
	if len(res.Missing) != 2 || res.Missing[0] != "bo" || res.Missing[1] != "Cy" {
		t.Errorf("missing = %v, want [bo Cy]", res.Missing)
	}
}
