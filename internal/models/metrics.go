package models

import "time"

// SystemMetrics is a lightweight runtime summary for administrators.
type SystemMetrics struct {
	RequestsTotal            uint64            `json:"requestsTotal"`
	AverageRequestDurationMs float64           `json:"averageRequestDurationMs"`
	CacheHits                uint64            `json:"cacheHits"`
	CacheMisses              uint64            `json:"cacheMisses"`
	CacheHitRatio            float64           `json:"cacheHitRatio"`
	StoreOperations          uint64            `json:"storeOperations"`
	AverageStoreOperationMs  float64           `json:"averageStoreOperationMs"`
	Transitions              map[string]uint64 `json:"transitions"`
	NotificationsDelivered   uint64            `json:"notificationsDelivered"`
	NotificationsFailed      uint64            `json:"notificationsFailed"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generatedAt"`
}
