package dto

// NotificationListQuery maps list query parameters.
type NotificationListQuery struct {
	UnreadOnly bool `form:"unread"`
	Limit      int  `form:"limit"`
}
