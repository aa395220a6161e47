package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// RESTClient talks to the share-service HTTP API.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRESTClient creates a REST client. baseURL is the server root,
// e.g. "http://localhost:8080".
func NewRESTClient(baseURL string) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient overrides the underlying HTTP client.
func (c *RESTClient) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// MessageItem is one persisted message from the history endpoint.
type MessageItem struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// FileItem is one shared file from the listing endpoint.
type FileItem struct {
	ID           string    `json:"id"`
	Room         string    `json:"room"`
	Sender       string    `json:"sender"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type sendTextRequest struct {
	Room    string `json:"room"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// History retrieves the full message snapshot for a room, oldest first.
func (c *RESTClient) History(ctx context.Context, room string) ([]MessageItem, error) {
	var items []MessageItem
	path := "/api/text/list?room=" + url.QueryEscape(room)
	if err := c.get(ctx, path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SendText persists a message over REST instead of the socket.
func (c *RESTClient) SendText(ctx context.Context, room, sender, content string) (*MessageItem, error) {
	var item MessageItem
	req := sendTextRequest{Room: room, Sender: sender, Content: content}
	if err := c.post(ctx, "/api/text/send", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListFiles retrieves the share listing for a room, oldest first.
func (c *RESTClient) ListFiles(ctx context.Context, room string) ([]FileItem, error) {
	var items []FileItem
	path := "/api/files?room=" + url.QueryEscape(room)
	if err := c.get(ctx, path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Upload shares a file into a room.
func (c *RESTClient) Upload(ctx context.Context, room, sender, filename string, r io.Reader) (*FileItem, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("room", room); err != nil {
		return nil, err
	}
	if sender != "" {
		if err := mw.WriteField("sender", sender); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var item FileItem
	if err := c.do(req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Download streams a shared file by id. The caller must close the reader.
func (c *RESTClient) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/files/"+url.PathEscape(fileID), http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, apiError(resp.StatusCode, body)
	}
	return resp.Body, nil
}

func (c *RESTClient) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, dest)
}

func (c *RESTClient) post(ctx context.Context, path string, body, dest any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *RESTClient) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, body)
	}
	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func apiError(status int, body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return &ServerError{Code: er.Code, Msg: er.Error}
	}
	return fmt.Errorf("http error: %s (status %d)", string(body), status)
}
