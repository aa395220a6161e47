package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type SendTextRequest struct {
	Room    string `json:"room"`
	Sender  string `json:"sender"`
	Content string `json:"content" validate:"required,max=4000"`
}

type MessageItem struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

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
