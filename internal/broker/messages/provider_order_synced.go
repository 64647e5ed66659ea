package messages

import (
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
)

const TopicProviderOrderSynced = "provider.order.synced"

// ProviderOrderSynced публикует sync-worker после каждой попытки обновить
// заказ у провайдера; track-api применяет его к зеркалу.
type ProviderOrderSynced struct {
	OrderID             string    `json:"order_id"`
	ProviderOrderNumber string    `json:"provider_order_number"`
	SyncedAt            time.Time `json:"synced_at"`

	Order *models.ProviderOrder `json:"order,omitempty"`

	// nil: заказ больше не синхронизируется.
	NextSyncAt *time.Time `json:"next_sync_at,omitempty"`

	Error *string `json:"error,omitempty"`
}
