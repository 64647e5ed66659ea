package models

import "time"

// OrderFilter ограничивает выборку заказов для пакетных расчётов.
// Ровно одно из BusinessID / DriverID должно быть задано.
type OrderFilter struct {
	BusinessID string
	DriverID   string
	Since      time.Time
	Limit      int
}

// SyncTarget: заказ, который пора обновить из провайдера.
type SyncTarget struct {
	OrderID             string
	ProviderOrderNumber string
	SyncFailCount       int32
	NextSyncAt          time.Time
}
