package services

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"momentum/config"
	"momentum/models"
	"momentum/utils"
)

const testPassword = "Secret1!pass"

func TestMain(m *testing.M) {
	logrus.SetOutput(io.Discard)
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.AccessTTL = time.Hour
	config.AppConfig.RefreshTTL = 24 * time.Hour
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serializes transactions.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	kind  string
	email string
	value string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) SendOTP(_ context.Context, email, _ string, otp string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{kind: "otp", email: email, value: otp})
	return nil
}

func (n *fakeNotifier) SendCredentials(_ context.Context, email, _, _, password string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{kind: "credentials", email: email, value: password})
	return nil
}

func (n *fakeNotifier) lastOTP(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].kind == "otp" && n.sent[i].email == email {
			return n.sent[i].value
		}
	}
	return ""
}

// fixture is one organization owned by owner, with two workers, a project
// and its default task, plus an admin and an unrelated account.
type fixture struct {
	db       *gorm.DB
	policy   *Policy
	admin    *models.Account
	owner    *models.Account
	stranger *models.Account
	org      *models.Organization
	worker   *models.Employee
	peer     *models.Employee
	project  *models.Project
	task     *models.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db, policy: NewPolicy(db)}

	f.admin = createAccount(t, db, "admin@example.com", models.RoleAdmin)
	f.owner = createAccount(t, db, "owner@example.com", models.RoleUser)
	f.stranger = createAccount(t, db, "stranger@example.com", models.RoleManager)

	f.org = &models.Organization{Name: "Acme", Domain: "acme.example", CreatedBy: f.owner.ID, IsActive: true}
	require.NoError(t, db.Create(f.org).Error)

	f.worker = createEmployee(t, db, f.org.ID, "worker@acme.example")
	f.peer = createEmployee(t, db, f.org.ID, "peer@acme.example")

	f.project = &models.Project{OrganizationID: f.org.ID, Name: "Website", Code: "WEB", IsActive: true, CreatedBy: f.owner.ID}
	require.NoError(t, db.Create(f.project).Error)

	f.task = &models.Task{ProjectID: f.project.ID, Name: "Default Task", Code: models.DefaultTaskCode, IsDefault: true, IsActive: true, CreatedBy: f.owner.ID}
	require.NoError(t, db.Create(f.task).Error)
	return f
}

func createAccount(t *testing.T, db *gorm.DB, email string, role models.Role) *models.Account {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	account := &models.Account{
		Name:         "Account " + email,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		IsVerified:   true,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func createEmployee(t *testing.T, db *gorm.DB, orgID, email string) *models.Employee {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	emp := &models.Employee{
		OrganizationID: orgID,
		Name:           "Employee " + email,
		Email:          email,
		PasswordHash:   hash,
		IsActive:       true,
	}
	require.NoError(t, db.Create(emp).Error)
	return emp
}

func requireKind(t *testing.T, err error, kind utils.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, utils.IsKind(err, kind), "want %s, got %v", kind, err)
}
