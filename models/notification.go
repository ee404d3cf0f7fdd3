package models

import (
	"time"
)

// NotificationLevel 通知等級
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification 是給訪客看的提示訊息
type Notification struct {
	SessionID string            `json:"session_id"`
	EventID   string            `json:"event_id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}
