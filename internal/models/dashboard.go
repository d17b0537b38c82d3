package models

import "time"

// DashboardSummary aggregates what a user sees on landing.
type DashboardSummary struct {
	UserID              string         `json:"userId"`
	Role                UserRole       `json:"role"`
	CourseCount         int            `json:"courseCount"`
	ResourceCount       int            `json:"resourceCount"`
	UnreadNotifications int            `json:"unreadNotifications"`
	RecentNotifications []Notification `json:"recentNotifications"`
	UpcomingSessions    []ClassSession `json:"upcomingSessions"`
	GeneratedAt         time.Time      `json:"generatedAt"`
}
