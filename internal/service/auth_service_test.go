package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gaminghub/portal/internal/models"
	flowerrors "github.com/gaminghub/portal/internal/pkg/errors"
	"github.com/gaminghub/portal/internal/pkg/ulid"
)

// ============================================
// Mocks
// ============================================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockCodeRepository struct {
	mock.Mock
}

func (m *MockCodeRepository) Upsert(ctx context.Context, code *models.OneTimeCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockCodeRepository) Get(ctx context.Context, email string) (*models.OneTimeCode, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OneTimeCode), args.Error(1)
}

func (m *MockCodeRepository) Delete(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type MockLoginEventRepository struct {
	mock.Mock
}

func (m *MockLoginEventRepository) Create(ctx context.Context, event *models.LoginEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockLoginEventRepository) Close(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockLoginEventRepository) ListAll(ctx context.Context) ([]*models.LoginEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LoginEvent), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// ============================================
// Helpers
// ============================================

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{
		SiteName:      "Gaming Hub",
		CodeTTL:       5 * time.Minute,
		AdminPassword: "hunter2",
	}
}

func pinnedCode(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

func newTestService(users *MockUserRepository, codes *MockCodeRepository, events *MockLoginEventRepository, mail *MockDispatcher, code string) AuthService {
	return NewAuthServiceWithGenerator(
		users, codes, events, mail,
		testLogger(), testOptions(),
		pinnedCode(code),
		func() time.Time { return testNow },
	)
}

// ============================================
// IssueCode
// ============================================

func TestIssueCode_StoresAndDispatches(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeRepository)
	events := new(MockLoginEventRepository)
	mail := new(MockDispatcher)
	svc := newTestService(users, codes, events, mail, "123456")

	codes.On("Upsert", mock.Anything, mock.MatchedBy(func(c *models.OneTimeCode) bool {
		return c.Email == "a@x.com" && c.Code == "123456" && c.ExpiresAt.Equal(testNow.Add(5*time.Minute))
	})).Return(nil)
	mail.On("Send", mock.Anything, "a@x.com", "Your Gaming Hub OTP", "Your OTP is: 123456\nValid for 5 minutes.").Return(nil)

	err := svc.IssueCode(context.Background(), "a@x.com")
	require.NoError(t, err)

	codes.AssertExpectations(t)
	mail.AssertExpectations(t)
}

func TestIssueCode_DispatchFailureIsSwallowed(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeRepository)
	events := new(MockLoginEventRepository)
	mail := new(MockDispatcher)
	svc := newTestService(users, codes, events, mail, "123456")

	codes.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	mail.On("Send", mock.Anything, "a@x.com", mock.Anything, mock.Anything).Return(errors.New("relay down"))

	err := svc.IssueCode(context.Background(), "a@x.com")
	assert.NoError(t, err)
}

func TestIssueCode_StoreFailureSurfaces(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeRepository)
	events := new(MockLoginEventRepository)
	mail := new(MockDispatcher)
	svc := newTestService(users, codes, events, mail, "123456")

	codes.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	err := svc.IssueCode(context.Background(), "a@x.com")
	assert.Error(t, err)
	mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ============================================
// VerifyCode
// ============================================

func TestVerifyCode_NoRecord(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeRepository)
	events := new(MockLoginEventRepository)
	mail := new(MockDispatcher)
	svc := newTestService(users, codes, events, mail, "123456")

	codes.On("Get", mock.Anything, "a@x.com").Return(nil, nil)

	_, _, err := svc.VerifyCode(context.Background(), "a@x.com", "123456")
	assert.ErrorIs(t, err, flowerrors.ErrCodeNotFound)
}

func TestVerifyCode_Expired_DeletesRecord(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeRepository)
	events := new(MockLoginEventRepository)
	mail := new(MockDispatcher)
	svc := newTestService(users, codes, events, mail, "123456")

	codes.On("Get", mock.Anything, "a@x.com").Return(&models.OneTimeCode{
		Email:     "a@x.com",
		Code:      "123456",
		ExpiresAt: testNow.Add(-time.Second),
	}, nil)
	codes.On("Delete", mock.Anything, "a@x.com").Return(nil)

	_, _, err := svc.VerifyCode(context.Background(), "a@x.com", "123456")
	assert.ErrorIs(t, err, flowerrors.ErrCodeExpired)
	codes.AssertCalled(t, "Delete", mock.Anything, "a@x.com")
}

func TestVerifyCode_Mismatch_KeepsRecord(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeRepository)
	events := new(MockLoginEventRepository)
	mail := new(MockDispatcher)
	svc := newTestService(users, codes, events, mail, "123456")

	codes.On("Get", mock.Anything, "a@x.com").Return(&models.OneTimeCode{
		Email:     "a@x.com",
		Code:      "123456",
		ExpiresAt: testNow.Add(time.Minute),
	}, nil)

	_, _, err := svc.VerifyCode(context.Background(), "a@x.com", "654321")
	assert.ErrorIs(t, err, flowerrors.ErrCodeMismatch)
	codes.AssertNotCalled(t, "Delete", mock.Anything, "a@x.com")
}

func TestVerifyCode_Success(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeRepository)
	events := new(MockLoginEventRepository)
	mail := new(MockDispatcher)
	svc := newTestService(users, codes, events, mail, "123456")

	user := &models.User{ID: primitive.NewObjectID(), Email: "a@x.com", CreatedAt: testNow}

	codes.On("Get", mock.Anything, "a@x.com").Return(&models.OneTimeCode{
		Email:     "a@x.com",
		Code:      "123456",
		ExpiresAt: testNow.Add(time.Minute),
	}, nil)
	codes.On("Delete", mock.Anything, "a@x.com").Return(nil)
	users.On("FindOrCreateByEmail", mock.Anything, "a@x.com").Return(user, nil)
	events.On("Create", mock.Anything, mock.MatchedBy(func(e *models.LoginEvent) bool {
		return e.Email == "a@x.com" && e.LoginAt.Equal(testNow) && e.LogoutAt == nil
	})).Return(nil)

	gotUser, gotEvent, err := svc.VerifyCode(context.Background(), "a@x.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, user, gotUser)
	assert.Equal(t, "a@x.com", gotEvent.Email)
	assert.True(t, gotEvent.Open())

	codes.AssertExpectations(t)
	users.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestVerifyCode_StoreFailureIsNotAFlowError(t *testing.T) {
	users := new(MockUserRepository)
	codes := new(MockCodeRepository)
	events := new(MockLoginEventRepository)
	mail := new(MockDispatcher)
	svc := newTestService(users, codes, events, mail, "123456")

	codes.On("Get", mock.Anything, "a@x.com").Return(nil, errors.New("connection reset"))

	_, _, err := svc.VerifyCode(context.Background(), "a@x.com", "123456")
	require.Error(t, err)
	assert.False(t, flowerrors.IsFlowError(err))
}

// ============================================
// Admin password
// ============================================

func TestVerifyAdminPassword(t *testing.T) {
	svc := newTestService(new(MockUserRepository), new(MockCodeRepository), new(MockLoginEventRepository), new(MockDispatcher), "123456")

	assert.True(t, svc.VerifyAdminPassword("hunter2"))
	assert.False(t, svc.VerifyAdminPassword("hunter3"))
	assert.False(t, svc.VerifyAdminPassword(""))
}

// ============================================
// Lifecycle properties (in-memory fakes)
// ============================================

type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	codes  map[string]*models.OneTimeCode
	events []*models.LoginEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*models.User),
		codes: make(map[string]*models.OneTimeCode),
	}
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[email], nil
}

func (f *fakeStore) FindOrCreateByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[email]; ok {
		return user, nil
	}
	user := &models.User{ID: primitive.NewObjectID(), Email: email, CreatedAt: time.Now()}
	f.users[email] = user
	return user, nil
}

func (f *fakeStore) Upsert(_ context.Context, code *models.OneTimeCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code.Email] = code
	return nil
}

func (f *fakeStore) Get(_ context.Context, email string) (*models.OneTimeCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[email], nil
}

func (f *fakeStore) Delete(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, email)
	return nil
}

func (f *fakeStore) Create(_ context.Context, event *models.LoginEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.ID == "" {
		event.ID = ulid.New()
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) Close(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, event := range f.events {
		if event.ID == id {
			stamp := at
			event.LogoutAt = &stamp
		}
	}
	return nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]*models.LoginEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.LoginEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func newLifecycleService(store *fakeStore, codeSeq ...string) AuthService {
	i := 0
	generate := func() (string, error) {
		code := codeSeq[i%len(codeSeq)]
		i++
		return code, nil
	}
	return NewAuthServiceWithGenerator(
		store, store, store,
		&nopDispatcher{},
		testLogger(), testOptions(),
		generate,
		func() time.Time { return testNow },
	)
}

type nopDispatcher struct{}

func (n *nopDispatcher) Send(context.Context, string, string, string) error { return nil }

func TestLifecycle_ReissueInvalidatesFirstCode(t *testing.T) {
	store := newFakeStore()
	svc := newLifecycleService(store, "111111", "222222")

	ctx := context.Background()
	require.NoError(t, svc.IssueCode(ctx, "a@x.com"))
	require.NoError(t, svc.IssueCode(ctx, "a@x.com"))

	_, _, err := svc.VerifyCode(ctx, "a@x.com", "111111")
	assert.ErrorIs(t, err, flowerrors.ErrCodeMismatch)

	_, _, err = svc.VerifyCode(ctx, "a@x.com", "222222")
	assert.NoError(t, err)
}

func TestLifecycle_VerifiedCodeCannotBeReused(t *testing.T) {
	store := newFakeStore()
	svc := newLifecycleService(store, "123456")

	ctx := context.Background()
	require.NoError(t, svc.IssueCode(ctx, "a@x.com"))

	_, _, err := svc.VerifyCode(ctx, "a@x.com", "123456")
	require.NoError(t, err)

	_, _, err = svc.VerifyCode(ctx, "a@x.com", "123456")
	assert.ErrorIs(t, err, flowerrors.ErrCodeNotFound)
}

func TestLifecycle_ExpiredCodeIsRemoved(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthServiceWithGenerator(
		store, store, store,
		&nopDispatcher{},
		testLogger(), testOptions(),
		pinnedCode("123456"),
		func() time.Time { return testNow },
	)

	ctx := context.Background()
	store.codes["a@x.com"] = &models.OneTimeCode{
		Email:     "a@x.com",
		Code:      "123456",
		ExpiresAt: testNow.Add(-time.Minute),
	}

	_, _, err := svc.VerifyCode(ctx, "a@x.com", "123456")
	assert.ErrorIs(t, err, flowerrors.ErrCodeExpired)

	_, _, err = svc.VerifyCode(ctx, "a@x.com", "123456")
	assert.ErrorIs(t, err, flowerrors.ErrCodeNotFound)
}

func TestLifecycle_NoDuplicateUsers(t *testing.T) {
	store := newFakeStore()
	svc := newLifecycleService(store, "123456")

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.NoError(t, svc.IssueCode(ctx, "a@x.com"))
		_, _, err := svc.VerifyCode(ctx, "a@x.com", "123456")
		require.NoError(t, err)
	}

	assert.Len(t, store.users, 1)
	assert.Len(t, store.events, 2)
}

func TestLifecycle_LogoutClosesEventOnce(t *testing.T) {
	store := newFakeStore()
	svc := newLifecycleService(store, "123456")

	ctx := context.Background()
	require.NoError(t, svc.IssueCode(ctx, "a@x.com"))
	_, event, err := svc.VerifyCode(ctx, "a@x.com", "123456")
	require.NoError(t, err)
	require.True(t, event.Open())

	require.NoError(t, svc.CloseLoginEvent(ctx, event.ID))
	require.NotNil(t, store.events[0].LogoutAt)
	assert.Equal(t, testNow, *store.events[0].LogoutAt)
}
