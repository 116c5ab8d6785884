// Package session реализует менеджер сессии — единственного владельца токена,
// профиля пользователя и записи о подписке.
//
// Менеджер отвечает за границу между авторизованным и неавторизованным
// состояниями приложения и выводит доступность возможностей из тарифа.
// Ответ 401 любой аутентифицированной конечной точки трактуется как
// недействительность сессии: токен сбрасывается, состояние возвращается
// к Unauthenticated.
//
// Упорядочивание конкурирующих ответов не гарантируется: при двух запросах
// генерации подряд отображается тот результат, который пришёл последним.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/go-playground/validator"

	"github.com/dealerflowpro/dealerflow-client/internal/api"
	"github.com/dealerflowpro/dealerflow-client/internal/entitlements"
	"github.com/dealerflowpro/dealerflow-client/internal/lib/sl"
	"github.com/dealerflowpro/dealerflow-client/internal/models"
	"github.com/dealerflowpro/dealerflow-client/internal/tokenstore"
)

// State — состояние сессии.
type State int

// Состояния сессии. Начальное состояние — Unauthenticated,
// до завершения попытки восстановления при старте.
const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// ErrAuthInFlight возвращается при повторной попытке входа,
// пока предыдущая ещё не завершилась.
var ErrAuthInFlight = errors.New("authentication already in progress")

// ErrNotAuthenticated возвращается аутентифицированными операциями
// в неавторизованном состоянии.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client описывает операции бэкенда, необходимые менеджеру сессии.
type Client interface {
	Profile(ctx context.Context, token string) (*api.ProfileResult, error)
	Login(ctx context.Context, creds api.Credentials) (*api.AuthResult, error)
	Signup(ctx context.Context, form api.SignupForm) (*api.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Subscription(ctx context.Context, token string) (*models.Subscription, error)
	Upgrade(ctx context.Context, token, plan, billingCycle string) (*api.UpgradeResult, error)
	ConfirmPayment(ctx context.Context, token string, confirm api.ConfirmPaymentRequest) error
	CancelSubscription(ctx context.Context, token string) error
	GenerateBulkContent(ctx context.Context, token, contentType, keywords string, platforms []string) ([]models.GeneratedPost, error)
	SetupScraping(ctx context.Context, token, websiteURL string) (*api.ScrapingResult, error)
	UploadImages(ctx context.Context, token, dealershipID string, vehicle api.VehicleMeta, files []api.ImageFile) ([]models.Image, error)
	ListImages(ctx context.Context, token, dealershipID string) ([]models.Image, error)
}

// Manager владеет токеном, профилем и подпиской текущего пользователя.
type Manager struct {
	log      *slog.Logger
	client   Client
	tokens   tokenstore.Store
	validate *validator.Validate

	mu    sync.Mutex
	state State
	token string
	user  *models.User
	sub   *models.Subscription
}

// New создаёт менеджер сессии в состоянии Unauthenticated.
func New(log *slog.Logger, client Client, tokens tokenstore.Store) *Manager {
	return &Manager{
		log:      log,
		client:   client,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// Restore восстанавливает сессию при старте по сохранённому токену.
//
// Без сохранённого токена сетевые запросы не выполняются. Отклонённый
// бэкендом или недоступный для проверки токен удаляется, сессия остаётся
// неавторизованной; для пользователя это тихое восстановление без ошибки.
func (m *Manager) Restore(ctx context.Context) error {
	const op = "session.Restore"

	token, err := m.tokens.Load()
	if err != nil {
		m.log.Warn("failed to read stored token", slog.String("op", op), sl.Err(err))
		return nil
	}
	if token == "" {
		return nil
	}

	res, err := m.client.Profile(ctx, token)
	if err != nil {
		m.log.Warn("stored token rejected, dropping it", slog.String("op", op), sl.Err(err))
		if err := m.tokens.Clear(); err != nil {
			m.log.Warn("failed to clear stored token", slog.String("op", op), sl.Err(err))
		}
		return nil
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.token = token
	m.user = &res.User
	m.sub = res.Subscription
	m.mu.Unlock()

	m.log.Info("session restored", slog.String("dealership", res.User.DealershipName))

	if res.Subscription == nil {
		m.loadSubscription(ctx, token)
	}
	return nil
}

// Login выполняет вход по email и паролю. Пока попытка входа не завершена,
// повторные вызовы отклоняются с ErrAuthInFlight. Неуспешный вход не меняет
// сохранённый токен.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	const op = "session.Login"

	creds := api.Credentials{Email: email, Password: password}
	if err := m.validate.Struct(creds); err != nil {
		return err
	}

	if err := m.beginAuth(); err != nil {
		return err
	}

	res, err := m.client.Login(ctx, creds)
	if err != nil {
		m.failAuth()
		m.log.Error("login failed", slog.String("op", op), sl.Err(err))
		return err
	}
	m.completeAuth(op, res)

	m.loadSubscription(ctx, res.Token)
	return nil
}

// Signup регистрирует нового пользователя; контракт идентичен Login.
func (m *Manager) Signup(ctx context.Context, form api.SignupForm) error {
	const op = "session.Signup"

	if err := m.validate.Struct(form); err != nil {
		return err
	}

	if err := m.beginAuth(); err != nil {
		return err
	}

	res, err := m.client.Signup(ctx, form)
	if err != nil {
		m.failAuth()
		m.log.Error("signup failed", slog.String("op", op), sl.Err(err))
		return err
	}
	m.completeAuth(op, res)

	m.loadSubscription(ctx, res.Token)
	return nil
}

// Logout уведомляет бэкенд о завершении сессии и безусловно очищает
// локальное состояние. Сбой уведомления игнорируется: локальная очистка
// гарантирована при любом исходе сетевого вызова.
func (m *Manager) Logout(ctx context.Context) {
	const op = "session.Logout"

	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token != "" {
		if err := m.client.Logout(ctx, token); err != nil {
			m.log.Warn("backend logout failed, clearing local state anyway",
				slog.String("op", op), sl.Err(err))
		}
	}

	if err := m.tokens.Clear(); err != nil {
		m.log.Warn("failed to clear stored token", slog.String("op", op), sl.Err(err))
	}

	m.mu.Lock()
	m.state = StateUnauthenticated
	m.token = ""
	m.user = nil
	m.sub = nil
	m.mu.Unlock()
}

// RefreshSubscription перечитывает запись о подписке. При сбое предыдущая
// запись сохраняется: устаревшие данные предпочтительнее их отсутствия.
func (m *Manager) RefreshSubscription(ctx context.Context) error {
	const op = "session.RefreshSubscription"

	token, err := m.currentToken()
	if err != nil {
		return err
	}

	sub, err := m.client.Subscription(ctx, token)
	if err != nil {
		m.invalidateOnUnauthorized(err)
		m.log.Warn("failed to refresh subscription, keeping previous record",
			slog.String("op", op), sl.Err(err))
		return err
	}

	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()
	return nil
}

// Allows сообщает, доступна ли возможность на текущем тарифе.
//
// Без записи о подписке возвращается самый ограниченный ответ — набор
// возможностей trial. Если бэкенд не прислал features, используется
// локальная таблица по идентификатору тарифа.
func (m *Manager) Allows(f entitlements.Feature) bool {
	m.mu.Lock()
	sub := m.sub
	m.mu.Unlock()

	if sub == nil {
		return entitlements.Allows(entitlements.Fallback(models.PlanTrial), f)
	}
	if sub.Features != nil {
		return entitlements.Allows(*sub.Features, f)
	}
	return entitlements.Allows(entitlements.Fallback(sub.Plan), f)
}

// Upgrade выполняет двухшаговую смену тарифа: запрос на смену и подтверждение
// платежа. Запись о подписке замещается только после успеха второго шага;
// при сбое на любом шаге прежняя запись остаётся без изменений.
func (m *Manager) Upgrade(ctx context.Context, plan, billingCycle, paymentMethodID string) error {
	const op = "session.Upgrade"

	token, err := m.currentToken()
	if err != nil {
		return err
	}

	res, err := m.client.Upgrade(ctx, token, plan, billingCycle)
	if err != nil {
		m.invalidateOnUnauthorized(err)
		return err
	}

	confirm := api.ConfirmPaymentRequest{
		PaymentIntentID: res.PaymentIntent.ID,
		PaymentMethodID: paymentMethodID,
		PaymentID:       res.PaymentID,
		Plan:            plan,
		BillingCycle:    billingCycle,
	}
	if err := m.client.ConfirmPayment(ctx, token, confirm); err != nil {
		m.invalidateOnUnauthorized(err)
		return err
	}

	m.log.Info("subscription upgraded", slog.String("plan", plan))
	return m.RefreshSubscription(ctx)
}

// Cancel отменяет подписку и перечитывает её запись.
func (m *Manager) Cancel(ctx context.Context) error {
	token, err := m.currentToken()
	if err != nil {
		return err
	}

	if err := m.client.CancelSubscription(ctx, token); err != nil {
		m.invalidateOnUnauthorized(err)
		return err
	}
	return m.RefreshSubscription(ctx)
}

// GenerateContent запрашивает генерацию контента для выбранных платформ.
// Результат живёт только у вызывающей стороны; при повторном вызове
// отображается ответ, пришедший последним.
func (m *Manager) GenerateContent(ctx context.Context, contentType, keywords string, platforms []string) ([]models.GeneratedPost, error) {
	token, err := m.currentToken()
	if err != nil {
		return nil, err
	}

	posts, err := m.client.GenerateBulkContent(ctx, token, contentType, keywords, platforms)
	if err != nil {
		m.invalidateOnUnauthorized(err)
		return nil, err
	}
	return posts, nil
}

// SetupScraping настраивает скрапинг сайта дилершипа.
func (m *Manager) SetupScraping(ctx context.Context, websiteURL string) (*models.ScrapingConfig, error) {
	token, err := m.currentToken()
	if err != nil {
		return nil, err
	}

	res, err := m.client.SetupScraping(ctx, token, websiteURL)
	if err != nil {
		m.invalidateOnUnauthorized(err)
		return nil, err
	}
	return &models.ScrapingConfig{
		WebsiteURL:       res.WebsiteURL,
		Status:           models.ScrapingConfigured,
		DetectedPlatform: res.DetectedPlatform,
	}, nil
}

// UploadImages загружает изображения в библиотеку дилершипа.
func (m *Manager) UploadImages(ctx context.Context, dealershipID string, vehicle api.VehicleMeta, files []api.ImageFile) ([]models.Image, error) {
	token, err := m.currentToken()
	if err != nil {
		return nil, err
	}

	images, err := m.client.UploadImages(ctx, token, dealershipID, vehicle, files)
	if err != nil {
		m.invalidateOnUnauthorized(err)
		return nil, err
	}
	return images, nil
}

// ListImages возвращает библиотеку изображений дилершипа.
func (m *Manager) ListImages(ctx context.Context, dealershipID string) ([]models.Image, error) {
	token, err := m.currentToken()
	if err != nil {
		return nil, err
	}

	images, err := m.client.ListImages(ctx, token, dealershipID)
	if err != nil {
		m.invalidateOnUnauthorized(err)
		return nil, err
	}
	return images, nil
}

// State возвращает текущее состояние сессии.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User возвращает копию профиля текущего пользователя или nil.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Subscription возвращает копию текущей записи о подписке или nil.
func (m *Manager) Subscription() *models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub == nil {
		return nil
	}
	s := *m.sub
	return &s
}

func (m *Manager) beginAuth() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticating {
		return ErrAuthInFlight
	}
	m.state = StateAuthenticating
	return nil
}

func (m *Manager) failAuth() {
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.mu.Unlock()
}

func (m *Manager) completeAuth(op string, res *api.AuthResult) {
	if err := m.tokens.Save(res.Token); err != nil {
		m.log.Warn("failed to persist token", slog.String("op", op), sl.Err(err))
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.token = res.Token
	m.user = &res.User
	m.sub = nil
	m.mu.Unlock()

	m.log.Info("authenticated", slog.String("dealership", res.User.DealershipName))
}

// loadSubscription подтягивает подписку после аутентификации.
// Сбой не фатален: проверки возможностей работают по запасной таблице trial.
func (m *Manager) loadSubscription(ctx context.Context, token string) {
	sub, err := m.client.Subscription(ctx, token)
	if err != nil {
		m.log.Warn("failed to load subscription", sl.Err(err))
		return
	}
	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()
}

func (m *Manager) currentToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.token == "" {
		return "", ErrNotAuthenticated
	}
	return m.token, nil
}

// invalidateOnUnauthorized сбрасывает сессию, если аутентифицированный
// запрос завершился ответом 401: токен недействителен на стороне бэкенда.
func (m *Manager) invalidateOnUnauthorized(err error) {
	if !errors.Is(err, api.ErrUnauthorized) {
		return
	}

	m.log.Warn("token rejected by backend, session invalidated")

	if err := m.tokens.Clear(); err != nil {
		m.log.Warn("failed to clear stored token", sl.Err(err))
	}

	m.mu.Lock()
	m.state = StateUnauthenticated
	m.token = ""
	m.user = nil
	m.sub = nil
	m.mu.Unlock()
}
