package dto

// NotificationListQuery captures notification listing parameters.
type NotificationListQuery struct {
	UnreadOnly bool `form:"unreadOnly"`
}

// UnreadCountResponse reports unread notifications.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllReadResponse reports how many notifications were flagged as read.
type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}
