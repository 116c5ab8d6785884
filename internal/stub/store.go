// Package stub реализует встроенный стаб бэкенда DealerFlow Pro.
//
// Стаб обслуживает тот же HTTP-контракт, что и боевой бэкенд, но хранит всё
// в памяти. Он используется для локальной разработки клиента и в контрактных
// тестах, закрепляющих соответствие локальной таблицы возможностей серверной.
package stub

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dealerflowpro/dealerflow-client/internal/entitlements"
	"github.com/dealerflowpro/dealerflow-client/internal/lib/password"
	"github.com/dealerflowpro/dealerflow-client/internal/models"
)

// Ошибки хранилища.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrPaymentNotFound    = errors.New("payment not found")
)

type account struct {
	user         models.User
	passwordHash string
}

type pendingPayment struct {
	intentID     string
	userID       int
	plan         string
	billingCycle string
	amount       float64
}

// Store — хранилище стаба в памяти. Безопасно для конкурентного доступа.
type Store struct {
	mu       sync.Mutex
	nextID   int
	byEmail  map[string]*account
	byID     map[int]*account
	subs     map[int]models.Subscription
	payments map[string]pendingPayment
	images   map[string][]models.Image
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		byEmail:  make(map[string]*account),
		byID:     make(map[int]*account),
		subs:     make(map[int]models.Subscription),
		payments: make(map[string]pendingPayment),
		images:   make(map[string][]models.Image),
	}
}

// CreateUser регистрирует пользователя и заводит ему подписку trial.
func (s *Store) CreateUser(email, pass, dealershipName, contactName, phone string) (models.User, error) {
	hash, err := password.Hash(pass)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(email)
	if _, exists := s.byEmail[email]; exists {
		return models.User{}, ErrEmailTaken
	}

	s.nextID++
	acc := &account{
		user: models.User{
			ID:             s.nextID,
			DealershipName: dealershipName,
			ContactName:    contactName,
			Email:          email,
			Phone:          phone,
		},
		passwordHash: hash,
	}
	s.byEmail[email] = acc
	s.byID[acc.user.ID] = acc

	features := entitlements.Fallback(models.PlanTrial)
	s.subs[acc.user.ID] = models.Subscription{
		Plan:             models.PlanTrial,
		Status:           models.StatusTrial,
		Features:         &features,
		DaysUntilRenewal: 14,
	}
	return acc.user, nil
}

// Authenticate проверяет пару email/пароль.
func (s *Store) Authenticate(email, pass string) (models.User, error) {
	s.mu.Lock()
	acc, ok := s.byEmail[strings.ToLower(email)]
	s.mu.Unlock()

	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	if err := password.Verify(acc.passwordHash, pass); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

// UserByID возвращает профиль пользователя.
func (s *Store) UserByID(id int) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return acc.user, nil
}

// SubscriptionFor возвращает копию подписки пользователя.
func (s *Store) SubscriptionFor(userID int) (models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok {
		return models.Subscription{}, ErrUserNotFound
	}
	if sub.Features != nil {
		fs := *sub.Features
		sub.Features = &fs
	}
	return sub, nil
}

// CreatePayment создаёт отложенный платёж для смены тарифа.
func (s *Store) CreatePayment(userID int, plan, billingCycle string, amount float64) (intentID, paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intentID = "pi_" + uuid.NewString()
	paymentID = "pay_" + uuid.NewString()
	s.payments[paymentID] = pendingPayment{
		intentID:     intentID,
		userID:       userID,
		plan:         plan,
		billingCycle: billingCycle,
		amount:       amount,
	}
	return intentID, paymentID
}

// ConfirmPayment подтверждает платёж и замещает подписку пользователя целиком.
func (s *Store) ConfirmPayment(userID int, paymentID, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok || p.userID != userID || p.intentID != intentID {
		return ErrPaymentNotFound
	}
	delete(s.payments, paymentID)

	features := entitlements.Fallback(p.plan)
	days := 30
	if p.billingCycle == "yearly" {
		days = 365
	}
	s.subs[userID] = models.Subscription{
		Plan:             p.plan,
		Status:           models.StatusActive,
		Features:         &features,
		DaysUntilRenewal: days,
	}
	return nil
}

// CancelSubscription помечает подписку отменённой, не отбирая её немедленно.
func (s *Store) CancelSubscription(userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[userID]
	if !ok {
		return ErrUserNotFound
	}
	sub.Status = models.StatusCancelled
	s.subs[userID] = sub
	return nil
}

// AddImages сохраняет описания загруженных изображений дилершипа.
func (s *Store) AddImages(dealershipID string, names []string, source string) []models.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]models.Image, 0, len(names))
	for _, name := range names {
		id := "img_" + uuid.NewString()
		img := models.Image{
			ID:     id,
			Name:   name,
			URL:    fmt.Sprintf("/api/images/%s/file?dealership_id=%s", id, dealershipID),
			Source: source,
		}
		added = append(added, img)
	}
	s.images[dealershipID] = append(s.images[dealershipID], added...)
	return added
}

// ImagesFor возвращает библиотеку изображений дилершипа.
func (s *Store) ImagesFor(dealershipID string) []models.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	imgs := s.images[dealershipID]
	out := make([]models.Image, len(imgs))
	copy(out, imgs)
	return out
}

// DetectPlatform угадывает платформу сайта дилершипа по его адресу.
func DetectPlatform(websiteURL string) string {
	u, err := url.Parse(websiteURL)
	if err != nil || u.Host == "" {
		return "custom"
	}
	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "dealer.com"):
		return "dealer.com"
	case strings.Contains(host, "dealeron"):
		return "dealeron"
	case strings.Contains(host, "autotrader"):
		return "autotrader"
	default:
		return "custom"
	}
}
