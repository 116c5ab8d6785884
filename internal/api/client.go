package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dealerflowpro/dealerflow-client/internal/models"
)

// Client — HTTP-клиент бэкенда DealerFlow Pro.
//
// Все методы принимают контекст; аутентифицированные — токен, который
// передаётся в заголовке Authorization по схеме Bearer. Ответ 401 любой
// конечной точки преобразуется в ErrUnauthorized.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New создаёт клиент для бэкенда по адресу baseURL с общим таймаутом запросов.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do выполняет запрос и разбирает общий конверт ответа {success, error, upgrade_required}.
func (c *Client) do(req *http.Request, out result) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if resp.StatusCode < http.StatusBadRequest {
			return nil
		}
		return &ServerError{StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &ServerError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if !out.ok() {
		if out.upgradeNeeded() {
			return &UpgradeRequiredError{Message: out.errText()}
		}
		return &ServerError{StatusCode: resp.StatusCode, Message: out.errText()}
	}
	return nil
}

// Profile проверяет токен и возвращает профиль пользователя.
// Подписка возвращается вместе с профилем, если бэкенд её прислал.
func (c *Client) Profile(ctx context.Context, token string) (*ProfileResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/auth/profile", token, nil)
	if err != nil {
		return nil, err
	}
	var resp profileResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &ServerError{Message: "profile response without user"}
	}
	return &ProfileResult{User: *resp.User, Subscription: resp.Subscription}, nil
}

// Login выполняет вход по email и паролю.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", "", creds)
	if err != nil {
		return nil, err
	}
	return c.auth(req)
}

// Signup регистрирует нового пользователя.
func (c *Client) Signup(ctx context.Context, form SignupForm) (*AuthResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/signup", "", form)
	if err != nil {
		return nil, err
	}
	return c.auth(req)
}

func (c *Client) auth(req *http.Request) (*AuthResult, error) {
	var resp authResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, &ServerError{Message: "auth response without token or user"}
	}
	return &AuthResult{Token: resp.Token, User: *resp.User, Message: resp.Message}, nil
}

// Logout уведомляет бэкенд о завершении сессии.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/logout", token, nil)
	if err != nil {
		return err
	}
	var resp envelopeOnly
	return c.do(req, &resp)
}

// Subscription возвращает текущую подписку пользователя.
func (c *Client) Subscription(ctx context.Context, token string) (*models.Subscription, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/payments/subscription", token, nil)
	if err != nil {
		return nil, err
	}
	var resp subscriptionResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Subscription == nil {
		return nil, &ServerError{Message: "subscription response without subscription"}
	}
	return resp.Subscription, nil
}

// Plans возвращает каталог тарифов. Аутентификация не требуется.
func (c *Client) Plans(ctx context.Context) (map[string]models.Plan, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/payments/plans", "", nil)
	if err != nil {
		return nil, err
	}
	var resp plansResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Plans, nil
}

// Upgrade запрашивает смену тарифа. Возвращает ссылку на платёж,
// который должен быть подтверждён вызовом ConfirmPayment.
func (c *Client) Upgrade(ctx context.Context, token, plan, billingCycle string) (*UpgradeResult, error) {
	body := map[string]string{"plan": plan, "billing_cycle": billingCycle}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/payments/subscription/upgrade", token, body)
	if err != nil {
		return nil, err
	}
	var resp upgradeResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &UpgradeResult{PaymentIntent: resp.PaymentIntent, PaymentID: resp.PaymentID}, nil
}

// ConfirmPayment подтверждает платёж, созданный Upgrade.
func (c *Client) ConfirmPayment(ctx context.Context, token string, confirm ConfirmPaymentRequest) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/payments/payment/confirm", token, confirm)
	if err != nil {
		return err
	}
	var resp envelopeOnly
	return c.do(req, &resp)
}

// CancelSubscription отменяет текущую подписку.
func (c *Client) CancelSubscription(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/payments/subscription/cancel", token, nil)
	if err != nil {
		return err
	}
	var resp envelopeOnly
	return c.do(req, &resp)
}

// GenerateBulkContent запрашивает генерацию контента для выбранных платформ.
func (c *Client) GenerateBulkContent(ctx context.Context, token, contentType, keywords string, platforms []string) ([]models.GeneratedPost, error) {
	body := map[string]any{
		"content_type": contentType,
		"keywords":     keywords,
		"platforms":    platforms,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/content/generate-bulk", token, body)
	if err != nil {
		return nil, err
	}
	var resp contentResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Content, nil
}

// SetupScraping настраивает скрапинг сайта дилершипа.
func (c *Client) SetupScraping(ctx context.Context, token, websiteURL string) (*ScrapingResult, error) {
	body := map[string]string{"website_url": websiteURL}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/scraping/setup", token, body)
	if err != nil {
		return nil, err
	}
	var resp scrapingResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &ScrapingResult{
		WebsiteURL:       resp.WebsiteURL,
		DetectedPlatform: resp.PlatformDetected,
		Message:          resp.Message,
	}, nil
}

// UploadImages загружает изображения вместе с метаданными автомобиля
// multipart-запросом и возвращает описания сохранённых изображений.
func (c *Client) UploadImages(ctx context.Context, token, dealershipID string, vehicle VehicleMeta, files []ImageFile) ([]models.Image, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"dealership_id": dealershipID,
		"year":          vehicle.Year,
		"make":          vehicle.Make,
		"model":         vehicle.Model,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("images", f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/images/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var resp imagesResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Images, nil
}

// ListImages возвращает библиотеку изображений дилершипа.
func (c *Client) ListImages(ctx context.Context, token, dealershipID string) ([]models.Image, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/images/dealership/"+dealershipID, token, nil)
	if err != nil {
		return nil, err
	}
	var resp imagesResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Images, nil
}

// envelopeOnly используется для ответов, в которых важен только конверт.
type envelopeOnly struct {
	envelope
}
