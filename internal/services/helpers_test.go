package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/planora/planora-backend/internal/auth"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repo"
	"github.com/planora/planora-backend/internal/storage"
)

const testSecret = "services-test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestFiles(t *testing.T) *storage.Local {
	t.Helper()
	l, err := storage.NewLocal(filepath.Join(t.TempDir(), "uploads"), "/uploads", 1<<20)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	return l
}

func newTestTokens() *auth.Tokens {
	return auth.NewTokens(testSecret, time.Hour, "planora")
}

func seedProfessional(t *testing.T, db *gorm.DB, name, specialization, city string, rate float64) string {
	t.Helper()
	id, err := repo.NewStore[domain.Professional](db).Add(context.Background(), &domain.Professional{
		Name: name, Email: name + "@pro.test", Password: "x",
		Specialization: specialization, City: city, HourlyRate: rate, Role: domain.RoleProfessional,
	})
	if err != nil {
		t.Fatalf("seed professional: %v", err)
	}
	return id
}

func seedUser(t *testing.T, db *gorm.DB, name, phone string) string {
	t.Helper()
	id, err := repo.NewStore[domain.User](db).Add(context.Background(), &domain.User{
		Name: name, Email: name + "@user.test", Password: "x", Phone: phone, Role: domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

type publishedEvent struct {
	key     string
	payload any
}

type stubPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{key, payload})
	return p.err
}
