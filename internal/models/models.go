// Package models содержит доменные структуры клиента DealerFlow Pro:
// профиль пользователя, подписку с набором возможностей, элемент каталога тарифов,
// а также транзиентные данные — сгенерированный контент, конфигурацию скрапинга
// и ссылки на изображения. JSON-теги соответствуют контракту бэкенда.
package models

// Идентификаторы тарифов. Закрытое множество, другие значения бэкенд не возвращает.
const (
	PlanTrial        = "trial"
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// Статусы подписки.
const (
	StatusTrial     = "trial"
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// User представляет профиль авторизованного пользователя (дилершипа).
// Изменяется только повторной загрузкой с бэкенда; очищается при выходе.
type User struct {
	ID             int    `json:"id"`
	DealershipName string `json:"dealership_name"`
	ContactName    string `json:"contact_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
}

// FeatureSet описывает возможности, доступные в рамках тарифа.
// Значение -1 в числовых лимитах означает отсутствие ограничения.
type FeatureSet struct {
	MaxPostsPerMonth int      `json:"max_posts_per_month"`
	MaxImages        int      `json:"max_images"`
	Platforms        []string `json:"platforms"`
	WebsiteScraping  bool     `json:"website_scraping"`
	BulkGeneration   bool     `json:"bulk_generation"`
	DMSIntegration   bool     `json:"dms_integration"`
	Automation       bool     `json:"automation"`
	Analytics        bool     `json:"analytics"`
	Support          string   `json:"support,omitempty"`
}

// Subscription — запись о подписке пользователя.
// Features может отсутствовать в ответе бэкенда: в этом случае клиент
// использует локальную таблицу возможностей по идентификатору тарифа.
type Subscription struct {
	Plan             string      `json:"plan"`
	Status           string      `json:"status"`
	Features         *FeatureSet `json:"features,omitempty"`
	DaysUntilRenewal int         `json:"days_until_renewal,omitempty"`
}

// Plan — элемент каталога тарифов, возвращаемого бэкендом без аутентификации.
type Plan struct {
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Features    FeatureSet `json:"features"`
	Recommended bool       `json:"recommended,omitempty"`
}

// GeneratedPost — единица сгенерированного контента для одной платформы.
// Живёт только в памяти: при повторной генерации список замещается целиком.
type GeneratedPost struct {
	Platform       string   `json:"platform"`
	Content        string   `json:"content"`
	Hashtags       []string `json:"hashtags,omitempty"`
	CharacterCount int      `json:"character_count"`
}

// Статусы конфигурации скрапинга.
const (
	ScrapingNotConfigured = "not_configured"
	ScrapingConfigured    = "configured"
)

// ScrapingConfig — конфигурация скрапинга сайта дилершипа.
type ScrapingConfig struct {
	WebsiteURL       string `json:"website_url"`
	Status           string `json:"status"`
	DetectedPlatform string `json:"platform_detected,omitempty"`
}

// Происхождение изображения.
const (
	ImageSourceUpload  = "upload"
	ImageSourceScraped = "scraped"
	ImageSourceDMS     = "dms"
)

// Image — ссылка на изображение в библиотеке дилершипа.
type Image struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Source string `json:"source,omitempty"`
}
