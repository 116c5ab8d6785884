// Package api реализует типизированный HTTP-клиент бэкенда DealerFlow Pro.
package api

import "github.com/dealerflowpro/dealerflow-client/internal/models"

// SignupForm — данные регистрационной формы.
//
// Поля проверяются валидатором до обращения к сети; phone необязателен.
type SignupForm struct {
	DealershipName string `json:"dealership_name" validate:"required,min=2,max=100"`
	ContactName    string `json:"contact_name" validate:"required,min=2,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
}

// Credentials — данные формы входа.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResult — результат успешного входа или регистрации.
type AuthResult struct {
	Token   string
	User    models.User
	Message string
}

// ProfileResult — результат проверки токена. Subscription присутствует,
// только если бэкенд вернул её вместе с профилем.
type ProfileResult struct {
	User         models.User
	Subscription *models.Subscription
}

// PaymentIntent — ссылка на платёж, созданный при запросе на смену тарифа.
type PaymentIntent struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
}

// UpgradeResult — результат первого шага смены тарифа.
// Платёж считается завершённым только после ConfirmPayment.
type UpgradeResult struct {
	PaymentIntent PaymentIntent
	PaymentID     string
}

// ConfirmPaymentRequest — данные подтверждения платежа (второй шаг смены тарифа).
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	PaymentMethodID string `json:"payment_method_id"`
	PaymentID       string `json:"payment_id"`
	Plan            string `json:"plan"`
	BillingCycle    string `json:"billing_cycle"`
}

// ScrapingResult — результат настройки скрапинга сайта.
type ScrapingResult struct {
	WebsiteURL       string
	DetectedPlatform string
	Message          string
}

// VehicleMeta — метаданные автомобиля, передаваемые вместе с изображениями.
type VehicleMeta struct {
	Year  string
	Make  string
	Model string
}

// ImageFile — файл изображения для загрузки.
type ImageFile struct {
	Name string
	Data []byte
}

// envelope — общая часть всех ответов бэкенда.
type envelope struct {
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	UpgradeRequired bool   `json:"upgrade_required,omitempty"`
}

func (e envelope) ok() bool            { return e.Success }
func (e envelope) errText() string     { return e.Error }
func (e envelope) upgradeNeeded() bool { return e.UpgradeRequired }

// result позволяет do() единообразно разбирать любой ответ бэкенда.
type result interface {
	ok() bool
	errText() string
	upgradeNeeded() bool
}

type authResponse struct {
	envelope
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
	Message string       `json:"message,omitempty"`
}

type profileResponse struct {
	envelope
	User         *models.User         `json:"user"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

type subscriptionResponse struct {
	envelope
	Subscription *models.Subscription `json:"subscription"`
}

type plansResponse struct {
	envelope
	Plans map[string]models.Plan `json:"plans"`
}

type upgradeResponse struct {
	envelope
	PaymentIntent PaymentIntent `json:"payment_intent"`
	PaymentID     string        `json:"payment_id"`
}

type contentResponse struct {
	envelope
	Content []models.GeneratedPost `json:"content"`
}

type scrapingResponse struct {
	envelope
	WebsiteURL       string `json:"website_url"`
	PlatformDetected string `json:"platform_detected"`
	Message          string `json:"message,omitempty"`
}

type imagesResponse struct {
	envelope
	Images []models.Image `json:"images"`
}
