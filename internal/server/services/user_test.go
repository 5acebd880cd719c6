package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	usersrepo "github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// memUsersRepo keeps accounts in memory and enforces the same uniqueness
// the postgres schema does.
type memUsersRepo struct {
	seq   int64
	users map[string]*models.User
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{users: map[string]*models.User{}}
}

func (f *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, ok := f.users[u.UserName]; ok {
		return nil, common.ErrorUsernameExists
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, common.ErrorEmailExists
		}
	}
	f.seq++
	u.ID = f.seq
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.users[u.UserName] = u
	return u, nil
}

func (f *memUsersRepo) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	u, ok := f.users[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *memUsersRepo) ExistsByUserName(ctx context.Context, userName string) (bool, error) {
	_, ok := f.users[userName]
	return ok, nil
}

func (f *memUsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// stubUsersRepo returns canned values, for error-path tests.
type stubUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error

	existsUserName bool
	existsEmail    bool
	existsErr      error
}

func (f *stubUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *stubUsersRepo) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *stubUsersRepo) ExistsByUserName(ctx context.Context, userName string) (bool, error) {
	return f.existsUserName, f.existsErr
}

func (f *stubUsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return f.existsEmail, f.existsErr
}

type fakeRepoManager struct {
	u usersrepo.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }

func newUserService(t *testing.T, db *sql.DB, repo usersrepo.Repository) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:             "k",
		TokenValidityDuration: time.Hour,
	}
	return NewUserService(db, &fakeRepoManager{u: repo}, auth.NewBcryptHasher(bcrypt.MinCost), cfg)
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		UserName:    "alice",
		Email:       "alice@x.com",
		Password:    "pw123456",
		FirstName:   "Alice",
		LastName:    "Smith",
		PhoneNumber: "12345",
	}
}

// --- tests ---

func TestRegisterThenLogin_RoundTrip(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := newMemUsersRepo()
	s := newUserService(t, db, repo)
	ctx := context.Background()

	reg, err := s.Register(ctx, registerRequest())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if reg.Token == "" || reg.TokenType != "Bearer" {
		t.Fatalf("unexpected auth result: %+v", reg)
	}
	if reg.User.Role != models.RoleUser {
		t.Fatalf("expected registration to assign USER, got %s", reg.User.Role)
	}
	if reg.User.PasswordHash == "pw123456" {
		t.Fatalf("plaintext password stored")
	}

	login, err := s.Login(ctx, "alice", "pw123456")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	// Both tokens must resolve to the account that produced them.
	for _, token := range []string{reg.Token, login.Token} {
		u, err := s.ResolveToken(ctx, token)
		if err != nil {
			t.Fatalf("ResolveToken error: %v", err)
		}
		if u.UserName != "alice" {
			t.Fatalf("token resolved to %q, want alice", u.UserName)
		}
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := newMemUsersRepo()
	s := newUserService(t, db, repo)
	ctx := context.Background()

	if _, err := s.Register(ctx, registerRequest()); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// same username, novel email
	req := registerRequest()
	req.Email = "other@x.com"
	_, err := s.Register(ctx, req)
	if !errors.Is(err, common.ErrorUsernameExists) {
		t.Fatalf("expected common.ErrorUsernameExists, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := newMemUsersRepo()
	s := newUserService(t, db, repo)
	ctx := context.Background()

	if _, err := s.Register(ctx, registerRequest()); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// novel username, same email
	req := registerRequest()
	req.UserName = "bob"
	_, err := s.Register(ctx, req)
	if !errors.Is(err, common.ErrorEmailExists) {
		t.Fatalf("expected common.ErrorEmailExists, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{name: "short username", mutate: func(r *RegisterRequest) { r.UserName = "ab" }},
		{name: "username with spaces", mutate: func(r *RegisterRequest) { r.UserName = "a user" }},
		{name: "bad email", mutate: func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{name: "short password", mutate: func(r *RegisterRequest) { r.Password = "pw" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := newSQLMockDB(t)
			defer db.Close()

			s := newUserService(t, db, newMemUsersRepo())

			req := registerRequest()
			tt.mutate(req)
			_, err := s.Register(context.Background(), req)
			if !errors.Is(err, common.ErrorValidation) {
				t.Fatalf("expected common.ErrorValidation, got %v", err)
			}
		})
	}
}

func TestRegister_LosesRaceToConcurrentInsert(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	// Pre-checks see no duplicate, but the insert hits the unique index:
	// the store error must come back as the same duplicate sentinel.
	repo := &stubUsersRepo{createErr: common.ErrorUsernameExists}
	s := newUserService(t, db, repo)

	_, err := s.Register(context.Background(), registerRequest())
	if !errors.Is(err, common.ErrorUsernameExists) {
		t.Fatalf("expected common.ErrorUsernameExists, got %v", err)
	}
}

func TestLogin_AntiEnumeration(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := newMemUsersRepo()
	s := newUserService(t, db, repo)
	ctx := context.Background()

	if _, err := s.Register(ctx, registerRequest()); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, wrongPassErr := s.Login(ctx, "alice", "wrong-password")
	_, unknownUserErr := s.Login(ctx, "nobody", "whatever")

	if !errors.Is(wrongPassErr, common.ErrorInvalidCredentials) {
		t.Fatalf("wrong password: expected common.ErrorInvalidCredentials, got %v", wrongPassErr)
	}
	if wrongPassErr != unknownUserErr {
		t.Fatalf("unknown user and wrong password must be indistinguishable: %v vs %v", unknownUserErr, wrongPassErr)
	}
}

func TestResolveToken_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, newMemUsersRepo())

	token, err := auth.GenerateToken("alice", "USER", []byte("k"), -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = s.ResolveToken(context.Background(), token)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestResolveToken_ForeignSecret(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, newMemUsersRepo())

	token, err := auth.GenerateToken("alice", "USER", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = s.ResolveToken(context.Background(), token)
	if !errors.Is(err, common.ErrTokenSignature) {
		t.Fatalf("expected common.ErrTokenSignature, got %v", err)
	}
}

func TestResolveToken_AccountGone(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	// Token is valid, but no account backs it anymore.
	s := newUserService(t, db, &stubUsersRepo{getErr: common.ErrorNotFound})

	token, err := auth.GenerateToken("alice", "USER", []byte("k"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = s.ResolveToken(context.Background(), token)
	if !errors.Is(err, common.ErrorPrincipalNotFound) {
		t.Fatalf("expected common.ErrorPrincipalNotFound, got %v", err)
	}
}

func TestScenario_Alice(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := newMemUsersRepo()
	s := newUserService(t, db, repo)
	ctx := context.Background()

	reg, err := s.Register(ctx, registerRequest())
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}

	login, err := s.Login(ctx, "alice", "pw123456")
	if err != nil {
		t.Fatalf("login alice: %v", err)
	}

	for _, token := range []string{reg.Token, login.Token} {
		u, err := s.ResolveToken(ctx, token)
		if err != nil || u.UserName != "alice" {
			t.Fatalf("token must resolve to alice: user=%v err=%v", u, err)
		}
	}

	if _, err := s.Login(ctx, "alice", "wrong"); !errors.Is(err, common.ErrorInvalidCredentials) {
		t.Fatalf("expected common.ErrorInvalidCredentials, got %v", err)
	}

	req := registerRequest()
	req.Email = "other@x.com"
	if _, err := s.Register(ctx, req); !errors.Is(err, common.ErrorUsernameExists) {
		t.Fatalf("expected common.ErrorUsernameExists, got %v", err)
	}
}
