package model

import (
	"time"

	"github.com/google/uuid"
)

type Discussion struct {
	DiscussionID uuid.UUID `json:"id" db:"discussion_id"`
	UserID       uuid.UUID `json:"userId" db:"user_id"`
	UserName     string    `json:"userName" db:"user_name"`
	Topic        string    `json:"topic" db:"topic"`
	Description  string    `json:"description" db:"description"`
	MessageCount int       `json:"messageCount" db:"message_count"`
	Messages     []Message `json:"messages,omitempty"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type Message struct {
	MessageID    uuid.UUID `json:"id" db:"message_id"`
	DiscussionID uuid.UUID `json:"discussionId" db:"discussion_id"`
	UserID       uuid.UUID `json:"userId" db:"user_id"`
	UserName     string    `json:"userName" db:"user_name"`
	Content      string    `json:"content" db:"content"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type CreateDiscussionReq struct {
	Topic       string `json:"topic" binding:"required,notblank,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type PostMessageReq struct {
	Content string `json:"content" binding:"required,notblank,max=500"`
}

type ListDiscussionsQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
}
