// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/pkg"
)

// NewTestDB opens an isolated in-memory sqlite database with the schema applied.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := pkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FakeIdentity is an in-memory identity provider. Tokens are "token-<id>".
type FakeIdentity struct {
	mu       sync.Mutex
	accounts map[string]fakeAccount // by email
	calls    []string
	FailNext error
}

type fakeAccount struct {
	id       string
	password string
}

func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{accounts: make(map[string]fakeAccount)}
}

var _ repositories.IdentityProvider = (*FakeIdentity)(nil)

// Calls lists the operations invoked so far, in order.
func (f *FakeIdentity) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeIdentity) record(op string) error {
	f.calls = append(f.calls, op)
	if err := f.FailNext; err != nil {
		f.FailNext = nil
		return err
	}
	return nil
}

func (f *FakeIdentity) Register(ctx context.Context, email, password, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("register"); err != nil {
		return "", err
	}
	if _, ok := f.accounts[email]; ok {
		return "", fmt.Errorf("account %s: %w", email, repositories.ErrDuplicate)
	}
	id := uuid.NewString()
	f.accounts[email] = fakeAccount{id: id, password: password}
	return id, nil
}

// Seed adds an account without recording a call.
func (f *FakeIdentity) Seed(id, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = fakeAccount{id: id, password: password}
}

func (f *FakeIdentity) SignIn(ctx context.Context, email, password string) (*repositories.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("sign_in"); err != nil {
		return nil, err
	}
	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		return nil, repositories.ErrInvalidCredentials
	}
	return &repositories.Identity{
		ID:          acct.id,
		Email:       email,
		AccessToken: "token-" + acct.id,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (f *FakeIdentity) VerifyToken(ctx context.Context, token string) (*repositories.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil, repositories.ErrInvalidToken
	}
	for email, acct := range f.accounts {
		if acct.id == id {
			return &repositories.Identity{ID: id, Email: email}, nil
		}
	}
	return nil, repositories.ErrInvalidToken
}

func (f *FakeIdentity) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return err
	}
	for email, acct := range f.accounts {
		if acct.id == id {
			delete(f.accounts, email)
			return nil
		}
	}
	return repositories.ErrNotFound
}
