package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout таймаут HTTP клиента по умолчанию
const DefaultTimeout = 30 * time.Second

// TokenSource отдает текущий токен сессии для авторизованных запросов
type TokenSource interface {
	Token() string
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
	mu         sync.RWMutex
}

// Option настраивает Client при создании
type Option func(*Client)

// WithTimeout задает таймаут на весь HTTP запрос
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient подменяет http.Client (например, в тестах)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:       DefaultTimeout,
			CheckRedirect: checkRedirect,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// UseTokenSource подключает источник токена.
// Вызывается один раз при сборке приложения, когда сессия уже создана.
func (c *Client) UseTokenSource(src TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = src
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// requestOptions параметры отдельного запроса
type requestOptions struct {
	headers map[string]string
	bearer  string
	noAuth  bool
}

// RequestOption настраивает отдельный запрос
type RequestOption func(*requestOptions)

// WithoutAuth отключает Authorization даже при наличии токена (login/register)
func WithoutAuth() RequestOption {
	return func(o *requestOptions) {
		o.noAuth = true
	}
}

// WithBearer использует явно переданный токен вместо TokenSource
func WithBearer(token string) RequestOption {
	return func(o *requestOptions) {
		o.bearer = token
	}
}

// WithHeader добавляет или переопределяет заголовок запроса
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// Do выполняет HTTP запрос к API.
// body сериализуется в JSON, если не nil; успешный ответ декодируется в result, если он не nil.
// Ответ со статусом вне 2xx возвращается как *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, result any, opts ...RequestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if !o.noAuth {
		token := o.bearer
		if token == "" {
			token = c.currentToken()
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	// Явные заголовки имеют приоритет над значениями по умолчанию
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil {
		if len(bytes.TrimSpace(respBody)) == 0 {
			return fmt.Errorf("%w: empty body", ErrMalformedResponse)
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	return nil
}

// checkRedirect ограничивает число редиректов. Authorization переносится
// только на тот же host:port, иначе удаляется.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	if len(via) == 0 {
		return nil
	}
	if req.URL.Host != via[0].URL.Host {
		req.Header.Del("Authorization")
		return nil
	}
	if auth := via[0].Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return nil
}

// newAPIError строит нормализованную ошибку из тела ответа.
// Берется первое строковое поле из error, message.
// Тело, которое не является JSON объектом, считается пустым.
func newAPIError(status int, body []byte) *APIError {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		fields = nil
	}

	message := fmt.Sprintf("HTTP %d", status)
	for _, key := range []string{"error", "message"} {
		var text string
		if err := json.Unmarshal(fields[key], &text); err == nil && text != "" {
			message = text
			break
		}
	}

	return &APIError{
		StatusCode: status,
		Message:    message,
	}
}
