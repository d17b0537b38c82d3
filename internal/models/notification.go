package models

import "time"

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "INFO"
	NotificationAlert   NotificationType = "ALERT"
	NotificationSuccess NotificationType = "SUCCESS"
)

// Notification is a system-generated event addressed to one user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	Timestamp time.Time        `json:"timestamp"`
}

// NotificationList is a user's notifications, newest first.
type NotificationList struct {
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unreadCount"`
}
