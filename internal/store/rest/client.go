// Package rest предоставляет хранилище поверх REST-бэкенда в диалекте PostgREST.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/service-tracker/internal/store"
)

// RemoteError — ошибка, которую вернул бэкенд. Error возвращает сообщение
// сервера без изменений.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return e.Message
}

// Client инкапсулирует HTTP-взаимодействие с REST-бэкендом.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент для бэкенда по указанному адресу.
func NewClient(baseURL, apiKey string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Select выполняет GET /rest/v1/{collection} с фильтрами в строке запроса.
func (c *Client) Select(ctx context.Context, collection string, q store.Query) ([]store.Record, error) {
	params := url.Values{}
	params.Set("select", "*")
	addFilters(params, q.Filters)

	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var res []store.Record
	if err := c.do(ctx, http.MethodGet, collection, params, nil, &res); err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}
	return res, nil
}

// Insert выполняет POST и возвращает сохранённую запись.
func (c *Client) Insert(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	var res []store.Record
	if err := c.do(ctx, http.MethodPost, collection, nil, rec, &res); err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("insert %s: empty representation", collection)
	}
	return res[0], nil
}

// Update выполняет PATCH по фильтрам и возвращает изменённые записи.
func (c *Client) Update(ctx context.Context, collection string, fields store.Record, filters ...store.Filter) ([]store.Record, error) {
	params := url.Values{}
	addFilters(params, filters)

	var res []store.Record
	if err := c.do(ctx, http.MethodPatch, collection, params, fields, &res); err != nil {
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}
	return res, nil
}

// WithinTx вызывает fn без транзакции: бэкенд не поддерживает атомарность
// нескольких запросов, и уже выполненные записи при ошибке сохраняются.
func (c *Client) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, c)
}

// Close ничего не делает.
func (c *Client) Close() error {
	return nil
}

func (c *Client) do(ctx context.Context, method, collection string, params url.Values, body any, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("rest store not configured")
	}
	if _, ok := store.Schema[collection]; !ok {
		return fmt.Errorf("%w: %s", store.ErrUnknownCollection, collection)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, collection)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &payload); err != nil {
		payload.Message = strings.TrimSpace(string(data))
	}

	remote := &RemoteError{StatusCode: resp.StatusCode, Code: payload.Code, Message: payload.Message}
	if payload.Code == "23505" || resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("%w: %w", store.ErrDuplicate, remote)
	}
	return remote
}

func addFilters(params url.Values, filters []store.Filter) {
	for _, f := range filters {
		switch f.Op {
		case store.OpEq:
			if f.Value == nil {
				params.Add(f.Column, "is.null")
				continue
			}
			params.Add(f.Column, "eq."+valueText(f.Value))
		case store.OpGt:
			params.Add(f.Column, "gt."+valueText(f.Value))
		case store.OpIn:
			values, _ := f.Value.([]any)
			texts := make([]string, len(values))
			for i, v := range values {
				texts[i] = quote(valueText(v))
			}
			params.Add(f.Column, "in.("+strings.Join(texts, ",")+")")
		}
	}
}

func valueText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	if s, err := strconv.Unquote(string(data)); err == nil {
		return s
	}
	return string(data)
}

func quote(s string) string {
	if strings.ContainsAny(s, ",()\" ") {
		return strconv.Quote(s)
	}
	return s
}
