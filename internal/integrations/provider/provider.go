package provider

import (
	"context"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/pkg/errors"
)

var (
	ErrOrderNotFound = errors.New("provider: order not found")
	ErrNotConfigured = errors.New("provider: credentials not configured")
)

// Client — внешний сервис доставки: авторизованный "заказ по номеру" и
// открытый "прогресс по tracking id".
type Client interface {
	HasCredentials() bool
	GetOrder(ctx context.Context, orderNumber string) (*models.ProviderOrder, error)
	GetProgress(ctx context.Context, trackingID string) (*models.Progress, error)
}
