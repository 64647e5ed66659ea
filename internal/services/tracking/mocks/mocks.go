package mocks

import (
	"context"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindOrder(ctx context.Context, identifier string) (*models.Order, error) {
	args := m.Called(ctx, identifier)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) HasCredentials() bool {
	return m.Called().Bool(0)
}

func (m *MockProvider) GetOrder(ctx context.Context, orderNumber string) (*models.ProviderOrder, error) {
	args := m.Called(ctx, orderNumber)
	po, _ := args.Get(0).(*models.ProviderOrder)
	return po, args.Error(1)
}

func (m *MockProvider) GetProgress(ctx context.Context, trackingID string) (*models.Progress, error) {
	args := m.Called(ctx, trackingID)
	p, _ := args.Get(0).(*models.Progress)
	return p, args.Error(1)
}

// MockMirror covers every lookup the courier tiers need.
type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) GetProviderOrder(ctx context.Context, orderNumber string) (*models.ProviderOrder, error) {
	args := m.Called(ctx, orderNumber)
	po, _ := args.Get(0).(*models.ProviderOrder)
	return po, args.Error(1)
}

func (m *MockMirror) GetCarrier(ctx context.Context, id int64) (*models.Carrier, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Carrier)
	return c, args.Error(1)
}

func (m *MockMirror) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Driver)
	return d, args.Error(1)
}
