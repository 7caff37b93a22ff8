package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/model"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.clickup.com/api/v2"

	// RequestsPerMinute limite conservador (ClickUp permite 10k/min)
	RequestsPerMinute = 2000

	// DefaultTimeout timeout padrão para requisições
	DefaultTimeout = 60 * time.Second

	// RetryMaxAttempts número máximo de tentativas por página
	RetryMaxAttempts = 3

	// RetryBackoff tempo de espera entre retries
	RetryBackoff = 5 * time.Second
)

// Client é o cliente HTTP para a API do ClickUp
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	// Paginação da listagem de itens abertos
	pageSize int
	maxItems int
}

// NewClient cria um novo cliente ClickUp. pageSize e maxItems limitam a
// listagem paginada de itens abertos.
func NewClient(token string, pageSize, maxItems int) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		limiter:  rate.NewLimiter(rate.Every(time.Minute/RequestsPerMinute), 50),
		pageSize: pageSize,
		maxItems: maxItems,
	}
}

// SetBaseURL troca a URL base (usado em testes)
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// GetTask busca uma tarefa pelo ID
func (c *Client) GetTask(ctx context.Context, itemID string) (*model.Task, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/task/%s", c.baseURL, url.PathEscape(itemID))

	var task model.Task
	if err := c.doGenericRequest(ctx, endpoint, &task); err != nil {
		return nil, fmt.Errorf("buscar tarefa %s: %w", itemID, err)
	}

	return &task, nil
}

// buildOpenTasksURL constrói a URL da listagem filtrada de tarefas do time
func (c *Client) buildOpenTasksURL(teamID, assigneeID string, page int) string {
	params := url.Values{}
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("include_closed", "false")
	params.Set("subtasks", "false")
	params.Set("order_by", "due_date")
	params.Add("assignees[]", assigneeID)
	return fmt.Sprintf("%s/team/%s/task?%s", c.baseURL, url.PathEscape(teamID), params.Encode())
}

// GetOpenTasks busca as tarefas abertas de um responsável com paginação
// automática e retry. A coleta para na última página, quando uma página
// vem incompleta ou ao atingir o teto configurado.
func (c *Client) GetOpenTasks(ctx context.Context, teamID, assigneeID string) ([]model.Task, error) {
	var allTasks []model.Task
	page := 0

	for {
		// Aguarda rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		endpoint := c.buildOpenTasksURL(teamID, assigneeID, page)

		resp, err := c.doRequestWithRetry(ctx, endpoint, assigneeID, page)
		if err != nil {
			logger.Get(ctx).Error().
				Str("assignee", assigneeID).
				Int("page", page).
				Int("collected", len(allTasks)).
				Err(err).
				Msg("Falha definitiva na coleta")
			return nil, fmt.Errorf("listagem do responsável %s página %d: %w", assigneeID, page, err)
		}

		allTasks = append(allTasks, resp.Tasks...)

		logger.Get(ctx).Debug().
			Str("assignee", assigneeID).
			Int("page", page).
			Int("tasks", len(resp.Tasks)).
			Int("total", len(allTasks)).
			Bool("last_page", resp.LastPage).
			Msg("Tarefas coletadas")

		// Teto da listagem: descarta o excedente e para
		if len(allTasks) >= c.maxItems {
			logger.Get(ctx).Warn().
				Str("assignee", assigneeID).
				Int("max_items", c.maxItems).
				Msg("Teto da listagem atingido, truncando")
			allTasks = allTasks[:c.maxItems]
			break
		}

		// Condição de parada: última página ou página incompleta
		if resp.LastPage || len(resp.Tasks) < c.pageSize {
			break
		}

		page++
	}

	logger.Get(ctx).Info().
		Str("assignee", assigneeID).
		Int("tasks", len(allTasks)).
		Int("pages", page+1).
		Msg("Listagem concluída")
	return allTasks, nil
}

// ValidateToken valida se o token é válido fazendo uma requisição simples
func (c *Client) ValidateToken(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/user", c.baseURL)

	var resp model.UserResponse
	if err := c.doGenericRequest(ctx, endpoint, &resp); err != nil {
		return fmt.Errorf("validar token: %w", err)
	}

	return nil
}

// doRequestWithRetry executa request de listagem com retry e backoff
func (c *Client) doRequestWithRetry(ctx context.Context, endpoint, assigneeID string, page int) (*model.TaskResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= RetryMaxAttempts; attempt++ {
		var resp model.TaskResponse
		err := c.doGenericRequest(ctx, endpoint, &resp)
		if err == nil {
			return &resp, nil
		}

		lastErr = err

		// Se é erro de contexto cancelado, não faz retry
		if ctx.Err() != nil {
			return nil, err
		}

		// Rate limit, não autorizado e não encontrado não são transientes
		if err == model.ErrRateLimited || err == model.ErrUnauthorized || err == model.ErrNotFound {
			return nil, err
		}

		if attempt < RetryMaxAttempts {
			logger.Get(ctx).Warn().
				Str("assignee", assigneeID).
				Int("page", page).
				Int("attempt", attempt).
				Int("max_attempts", RetryMaxAttempts).
				Err(err).
				Dur("backoff", RetryBackoff).
				Msg("Tentativa falhou, aguardando retry")

			select {
			case <-time.After(RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, lastErr
}

// doGenericRequest executa uma requisição HTTP genérica para a API do ClickUp
func (c *Client) doGenericRequest(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("criar request: %w", err)
	}

	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return model.ErrTimeout
		}
		return fmt.Errorf("executar request: %w", err)
	}
	defer resp.Body.Close()

	// Tratamento de erros HTTP
	switch resp.StatusCode {
	case http.StatusOK:
		// OK, continua
	case http.StatusTooManyRequests:
		return model.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.ErrUnauthorized
	case http.StatusNotFound:
		return model.ErrNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	// Parse da resposta
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
