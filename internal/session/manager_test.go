package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dealerflowpro/dealerflow-client/internal/api"
	"github.com/dealerflowpro/dealerflow-client/internal/entitlements"
	"github.com/dealerflowpro/dealerflow-client/internal/models"
	"github.com/dealerflowpro/dealerflow-client/internal/tokenstore"
)

type ClientMock struct {
	mock.Mock
}

func (m *ClientMock) Profile(ctx context.Context, token string) (*api.ProfileResult, error) {
	args := m.Called(ctx, token)
	res, _ := args.Get(0).(*api.ProfileResult)
	return res, args.Error(1)
}

func (m *ClientMock) Login(ctx context.Context, creds api.Credentials) (*api.AuthResult, error) {
	args := m.Called(ctx, creds)
	res, _ := args.Get(0).(*api.AuthResult)
	return res, args.Error(1)
}

func (m *ClientMock) Signup(ctx context.Context, form api.SignupForm) (*api.AuthResult, error) {
	args := m.Called(ctx, form)
	res, _ := args.Get(0).(*api.AuthResult)
	return res, args.Error(1)
}

func (m *ClientMock) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *ClientMock) Subscription(ctx context.Context, token string) (*models.Subscription, error) {
	args := m.Called(ctx, token)
	res, _ := args.Get(0).(*models.Subscription)
	return res, args.Error(1)
}

func (m *ClientMock) Upgrade(ctx context.Context, token, plan, billingCycle string) (*api.UpgradeResult, error) {
	args := m.Called(ctx, token, plan, billingCycle)
	res, _ := args.Get(0).(*api.UpgradeResult)
	return res, args.Error(1)
}

func (m *ClientMock) ConfirmPayment(ctx context.Context, token string, confirm api.ConfirmPaymentRequest) error {
	return m.Called(ctx, token, confirm).Error(0)
}

func (m *ClientMock) CancelSubscription(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *ClientMock) GenerateBulkContent(ctx context.Context, token, contentType, keywords string, platforms []string) ([]models.GeneratedPost, error) {
	args := m.Called(ctx, token, contentType, keywords, platforms)
	res, _ := args.Get(0).([]models.GeneratedPost)
	return res, args.Error(1)
}

func (m *ClientMock) SetupScraping(ctx context.Context, token, websiteURL string) (*api.ScrapingResult, error) {
	args := m.Called(ctx, token, websiteURL)
	res, _ := args.Get(0).(*api.ScrapingResult)
	return res, args.Error(1)
}

func (m *ClientMock) UploadImages(ctx context.Context, token, dealershipID string, vehicle api.VehicleMeta, files []api.ImageFile) ([]models.Image, error) {
	args := m.Called(ctx, token, dealershipID, vehicle, files)
	res, _ := args.Get(0).([]models.Image)
	return res, args.Error(1)
}

func (m *ClientMock) ListImages(ctx context.Context, token, dealershipID string) ([]models.Image, error) {
	args := m.Called(ctx, token, dealershipID)
	res, _ := args.Get(0).([]models.Image)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func starterSub() *models.Subscription {
	fs := entitlements.Fallback(models.PlanStarter)
	return &models.Subscription{Plan: models.PlanStarter, Status: models.StatusActive, Features: &fs}
}

func TestRestore_NoStoredToken_NoNetworkCall(t *testing.T) {
	client := new(ClientMock)
	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore(""))

	require.NoError(t, m.Restore(context.Background()))

	assert.Equal(t, StateUnauthenticated, m.State())
	client.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
}

func TestRestore_RejectedToken_ClearsItSilently(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "stale").Return(nil, api.ErrUnauthorized).Once()

	tokens := tokenstore.NewMemoryStore("stale")
	m := New(newNoopLogger(), client, tokens)

	require.NoError(t, m.Restore(context.Background()), "startup restore must be silent")

	assert.Equal(t, StateUnauthenticated, m.State())
	stored, _ := tokens.Load()
	assert.Empty(t, stored, "rejected token must be removed from storage")
	client.AssertExpectations(t)
}

func TestRestore_NetworkFailure_IsSilent(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "tok").Return(nil, errors.New("connection refused")).Once()

	tokens := tokenstore.NewMemoryStore("tok")
	m := New(newNoopLogger(), client, tokens)

	require.NoError(t, m.Restore(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())
	stored, _ := tokens.Load()
	assert.Empty(t, stored)
}

func TestRestore_Success_WithSecondarySubscriptionFetch(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{User: models.User{DealershipName: "ABC Motors"}}, nil).Once()
	client.On("Subscription", mock.Anything, "tok").Return(starterSub(), nil).Once()

	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore("tok"))

	require.NoError(t, m.Restore(context.Background()))

	assert.Equal(t, StateAuthenticated, m.State())
	require.NotNil(t, m.User())
	assert.Equal(t, "ABC Motors", m.User().DealershipName)
	require.NotNil(t, m.Subscription())
	assert.Equal(t, models.PlanStarter, m.Subscription().Plan)
	client.AssertExpectations(t)
}

func TestLogin_Success(t *testing.T) {
	client := new(ClientMock)
	client.On("Login", mock.Anything, api.Credentials{Email: "demo@dealer.test", Password: "hunter2"}).
		Return(&api.AuthResult{Token: "abc", User: models.User{DealershipName: "ABC Motors"}}, nil).Once()
	client.On("Subscription", mock.Anything, "abc").Return(starterSub(), nil).Once()

	tokens := tokenstore.NewMemoryStore("")
	m := New(newNoopLogger(), client, tokens)

	require.NoError(t, m.Login(context.Background(), "demo@dealer.test", "hunter2"))

	assert.Equal(t, StateAuthenticated, m.State())
	stored, _ := tokens.Load()
	assert.Equal(t, "abc", stored, "token must be persisted immediately")
	assert.Equal(t, "ABC Motors", m.User().DealershipName)
	client.AssertExpectations(t)
}

func TestLogin_ServerRejects_KeepsStoredTokenUntouched(t *testing.T) {
	client := new(ClientMock)
	client.On("Login", mock.Anything, mock.Anything).
		Return(nil, &api.ServerError{Message: "Invalid email or password"}).Once()

	tokens := tokenstore.NewMemoryStore("previous")
	m := New(newNoopLogger(), client, tokens)

	err := m.Login(context.Background(), "demo@dealer.test", "wrongpass")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
	assert.Equal(t, StateUnauthenticated, m.State())
	stored, _ := tokens.Load()
	assert.Equal(t, "previous", stored, "failed login must not mutate stored credential")
}

func TestLogin_ValidationFailure_NoNetworkCall(t *testing.T) {
	client := new(ClientMock)
	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore(""))

	err := m.Login(context.Background(), "not-an-email", "hunter2")

	require.Error(t, err)
	client.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestLogin_SecondAttemptWhileInFlight(t *testing.T) {
	client := new(ClientMock)
	release := make(chan struct{})
	started := make(chan struct{})
	client.On("Login", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&api.AuthResult{Token: "abc", User: models.User{}}, nil).Once()
	client.On("Subscription", mock.Anything, "abc").Return(starterSub(), nil).Once()

	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore(""))

	done := make(chan error, 1)
	go func() {
		done <- m.Login(context.Background(), "demo@dealer.test", "hunter2")
	}()

	<-started
	err := m.Login(context.Background(), "demo@dealer.test", "hunter2")
	assert.ErrorIs(t, err, ErrAuthInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestSignup_Success(t *testing.T) {
	form := api.SignupForm{
		DealershipName: "ABC Motors",
		ContactName:    "Jordan Lee",
		Email:          "jordan@abcmotors.test",
		Password:       "hunter2",
	}

	client := new(ClientMock)
	client.On("Signup", mock.Anything, form).
		Return(&api.AuthResult{Token: "fresh", User: models.User{DealershipName: "ABC Motors"}}, nil).Once()
	client.On("Subscription", mock.Anything, "fresh").
		Return(&models.Subscription{Plan: models.PlanTrial, Status: models.StatusTrial}, nil).Once()

	tokens := tokenstore.NewMemoryStore("")
	m := New(newNoopLogger(), client, tokens)

	require.NoError(t, m.Signup(context.Background(), form))

	assert.Equal(t, StateAuthenticated, m.State())
	stored, _ := tokens.Load()
	assert.Equal(t, "fresh", stored)
}

func TestLogout_ClearsStateEvenWhenBackendFails(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{User: models.User{DealershipName: "ABC Motors"}}, nil).Once()
	client.On("Subscription", mock.Anything, "tok").Return(starterSub(), nil).Once()
	client.On("Logout", mock.Anything, "tok").Return(errors.New("network error")).Once()

	tokens := tokenstore.NewMemoryStore("tok")
	m := New(newNoopLogger(), client, tokens)
	require.NoError(t, m.Restore(context.Background()))
	require.Equal(t, StateAuthenticated, m.State())

	m.Logout(context.Background())

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.User())
	assert.Nil(t, m.Subscription())
	stored, _ := tokens.Load()
	assert.Empty(t, stored)
	client.AssertExpectations(t)
}

func TestRefreshSubscription_FailureKeepsStaleRecord(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{User: models.User{}, Subscription: starterSub()}, nil).Once()
	client.On("Subscription", mock.Anything, "tok").
		Return(nil, errors.New("temporarily unavailable")).Once()

	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore("tok"))
	require.NoError(t, m.Restore(context.Background()))

	err := m.RefreshSubscription(context.Background())

	require.Error(t, err)
	require.NotNil(t, m.Subscription(), "stale record must survive a failed refresh")
	assert.Equal(t, models.PlanStarter, m.Subscription().Plan)
}

func TestRefreshSubscription_TwiceYieldsIdenticalRecords(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{User: models.User{}, Subscription: starterSub()}, nil).Once()
	client.On("Subscription", mock.Anything, "tok").Return(starterSub(), nil).Twice()

	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore("tok"))
	require.NoError(t, m.Restore(context.Background()))

	require.NoError(t, m.RefreshSubscription(context.Background()))
	first := m.Subscription()
	require.NoError(t, m.RefreshSubscription(context.Background()))
	second := m.Subscription()

	assert.Equal(t, first, second)
}

func TestAllows_NoSubscriptionIsTrialEquivalent(t *testing.T) {
	m := New(newNoopLogger(), new(ClientMock), tokenstore.NewMemoryStore(""))

	assert.True(t, m.Allows(entitlements.Platform("facebook")))
	assert.True(t, m.Allows(entitlements.Platform("instagram")))
	assert.False(t, m.Allows(entitlements.Platform("youtube")))
	assert.False(t, m.Allows(entitlements.FeatureAutomation))
	assert.False(t, m.Allows(entitlements.FeatureAnalytics))
	assert.False(t, m.Allows(entitlements.FeatureUnlimitedPosts))
}

func TestAllows_UnlimitedIffSentinel(t *testing.T) {
	client := new(ClientMock)
	unlimited := entitlements.Fallback(models.PlanEnterprise)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{
			User:         models.User{},
			Subscription: &models.Subscription{Plan: models.PlanEnterprise, Status: models.StatusActive, Features: &unlimited},
		}, nil).Once()

	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore("tok"))
	require.NoError(t, m.Restore(context.Background()))

	assert.True(t, m.Allows(entitlements.FeatureUnlimitedPosts))
	assert.True(t, m.Allows(entitlements.Platform("youtube")))
}

func TestAllows_FallsBackToPlanTableWithoutFeatures(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{
			User:         models.User{},
			Subscription: &models.Subscription{Plan: models.PlanProfessional, Status: models.StatusActive},
		}, nil).Once()

	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore("tok"))
	require.NoError(t, m.Restore(context.Background()))

	assert.True(t, m.Allows(entitlements.Platform("reddit")))
	assert.True(t, m.Allows(entitlements.FeatureAutomation))
	assert.False(t, m.Allows(entitlements.Platform("youtube")))
}

func TestGenerateContent_UpgradeRequired(t *testing.T) {
	client := new(ClientMock)
	trial := entitlements.Fallback(models.PlanTrial)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{
			User:         models.User{},
			Subscription: &models.Subscription{Plan: models.PlanTrial, Status: models.StatusTrial, Features: &trial},
		}, nil).Once()
	client.On("GenerateBulkContent", mock.Anything, "tok", "vehicle_showcase", "suv", []string{"facebook"}).
		Return(nil, &api.UpgradeRequiredError{Message: "Upgrade needed"}).Once()

	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore("tok"))
	require.NoError(t, m.Restore(context.Background()))

	posts, err := m.GenerateContent(context.Background(), "vehicle_showcase", "suv", []string{"facebook"})

	assert.Nil(t, posts, "entitlement failure must not produce content")
	var upgradeErr *api.UpgradeRequiredError
	require.ErrorAs(t, err, &upgradeErr)
	assert.Equal(t, "Upgrade needed", upgradeErr.Message)
	assert.Equal(t, StateAuthenticated, m.State(), "upgrade_required is not an auth failure")
}

func TestGenerateContent_UnauthorizedInvalidatesSession(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{User: models.User{}, Subscription: starterSub()}, nil).Once()
	client.On("GenerateBulkContent", mock.Anything, "tok", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, api.ErrUnauthorized).Once()

	tokens := tokenstore.NewMemoryStore("tok")
	m := New(newNoopLogger(), client, tokens)
	require.NoError(t, m.Restore(context.Background()))

	_, err := m.GenerateContent(context.Background(), "vehicle_showcase", "", []string{"facebook"})

	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, StateUnauthenticated, m.State())
	stored, _ := tokens.Load()
	assert.Empty(t, stored)
}

func TestGenerateContent_RequiresAuthentication(t *testing.T) {
	m := New(newNoopLogger(), new(ClientMock), tokenstore.NewMemoryStore(""))

	_, err := m.GenerateContent(context.Background(), "vehicle_showcase", "", []string{"facebook"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUpgrade_TwoStepSuccessReplacesRecord(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{User: models.User{}, Subscription: starterSub()}, nil).Once()
	client.On("Upgrade", mock.Anything, "tok", models.PlanProfessional, "monthly").
		Return(&api.UpgradeResult{
			PaymentIntent: api.PaymentIntent{ID: "pi_123", Amount: 299},
			PaymentID:     "pay_456",
		}, nil).Once()
	client.On("ConfirmPayment", mock.Anything, "tok", api.ConfirmPaymentRequest{
		PaymentIntentID: "pi_123",
		PaymentMethodID: "pm_789",
		PaymentID:       "pay_456",
		Plan:            models.PlanProfessional,
		BillingCycle:    "monthly",
	}).Return(nil).Once()
	pro := entitlements.Fallback(models.PlanProfessional)
	client.On("Subscription", mock.Anything, "tok").
		Return(&models.Subscription{Plan: models.PlanProfessional, Status: models.StatusActive, Features: &pro}, nil).Once()

	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore("tok"))
	require.NoError(t, m.Restore(context.Background()))

	require.NoError(t, m.Upgrade(context.Background(), models.PlanProfessional, "monthly", "pm_789"))

	assert.Equal(t, models.PlanProfessional, m.Subscription().Plan)
	client.AssertExpectations(t)
}

func TestUpgrade_ConfirmFailureKeepsOldRecord(t *testing.T) {
	client := new(ClientMock)
	client.On("Profile", mock.Anything, "tok").
		Return(&api.ProfileResult{User: models.User{}, Subscription: starterSub()}, nil).Once()
	client.On("Upgrade", mock.Anything, "tok", models.PlanProfessional, "monthly").
		Return(&api.UpgradeResult{PaymentIntent: api.PaymentIntent{ID: "pi_123"}, PaymentID: "pay_456"}, nil).Once()
	client.On("ConfirmPayment", mock.Anything, "tok", mock.Anything).
		Return(&api.ServerError{Message: "card declined"}).Once()

	m := New(newNoopLogger(), client, tokenstore.NewMemoryStore("tok"))
	require.NoError(t, m.Restore(context.Background()))

	err := m.Upgrade(context.Background(), models.PlanProfessional, "monthly", "pm_789")

	require.Error(t, err)
	assert.Equal(t, models.PlanStarter, m.Subscription().Plan, "failed upgrade must not touch the record")
	client.AssertNotCalled(t, "Subscription", mock.Anything, mock.Anything)
}
