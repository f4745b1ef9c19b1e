package enum

// NotificationLevel 表示通知的嚴重程度
type NotificationLevel string

const (
	NotificationLevelSuccess NotificationLevel = "success"
	NotificationLevelInfo    NotificationLevel = "info"
	NotificationLevelError   NotificationLevel = "error"
)
