package courier

import (
	"context"
	"errors"
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type storesMock struct {
	mock.Mock
}

func (m *storesMock) GetProviderOrder(ctx context.Context, orderNumber string) (*models.ProviderOrder, error) {
	args := m.Called(ctx, orderNumber)
	po, _ := args.Get(0).(*models.ProviderOrder)
	return po, args.Error(1)
}

func (m *storesMock) GetCarrier(ctx context.Context, id int64) (*models.Carrier, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Carrier)
	return c, args.Error(1)
}

func (m *storesMock) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Driver)
	return d, args.Error(1)
}

type panicTier struct{}

func (panicTier) Name() string { return "panic" }

func (panicTier) Resolve(context.Context, Input) (*models.DriverInfo, error) {
	var po *models.ProviderOrder
	_ = po.AssignedCarrier.Name
	return nil, nil
}

type ResolverSuite struct {
	suite.Suite

	stores *storesMock
	r      *Resolver
	order  *models.Order
}

func (s *ResolverSuite) SetupTest() {
	s.stores = &storesMock{}
	s.r = New(zap.NewNop(), Chain(s.stores, s.stores, s.stores)...)
	s.order = &models.Order{
		ID:                  "o-1",
		ProviderOrderNumber: "PN-1",
		AssignedCarrierID:   pointer.To(int64(77)),
		DriverID:            pointer.To("d-1"),
	}
}

func (s *ResolverSuite) TestLiveTierWins_NoLaterLookups() {
	live := &models.ProviderOrder{AssignedCarrier: &models.Carrier{Name: "Ana", PhoneNumber: "+52 1", Photo: "p.png"}}

	info, tier := s.r.Resolve(context.Background(), Input{Order: s.order, Live: live})
	s.Require().NotNil(info)
	s.Equal("live", tier)
	s.Equal("Ana", info.Name)
	s.Equal("+52 1", info.PhoneNumber)
	s.Equal(NeutralRating, info.Rating)
	s.stores.AssertNotCalled(s.T(), "GetProviderOrder", mock.Anything, mock.Anything)
	s.stores.AssertNotCalled(s.T(), "GetCarrier", mock.Anything, mock.Anything)
	s.stores.AssertNotCalled(s.T(), "GetDriver", mock.Anything, mock.Anything)
}

func (s *ResolverSuite) TestMirrorOrderTier() {
	s.stores.On("GetProviderOrder", mock.Anything, "PN-1").
		Return(&models.ProviderOrder{AssignedCarrier: &models.Carrier{Name: "Luis", Rating: pointer.To(4.2)}}, nil).
		Once()

	info, tier := s.r.Resolve(context.Background(), Input{Order: s.order})
	s.Require().NotNil(info)
	s.Equal("mirror_order", tier)
	s.Equal("Luis", info.Name)
	s.Equal(4.2, info.Rating)
	s.stores.AssertExpectations(s.T())
	s.stores.AssertNotCalled(s.T(), "GetCarrier", mock.Anything, mock.Anything)
}

func (s *ResolverSuite) TestFallsThroughErrorsToDriver() {
	s.stores.On("GetProviderOrder", mock.Anything, "PN-1").Return(nil, errors.New("connection reset")).Once()
	s.stores.On("GetCarrier", mock.Anything, int64(77)).Return(nil, models.ErrNotFound).Once()
	s.stores.On("GetDriver", mock.Anything, "d-1").
		Return(&models.Driver{ID: "d-1", Name: "Marta", PhoneNumber: "555", AverageRating: 4.7}, nil).
		Once()

	info, tier := s.r.Resolve(context.Background(), Input{Order: s.order, Live: &models.ProviderOrder{}})
	s.Require().NotNil(info)
	s.Equal("driver", tier)
	s.Equal("Marta", info.Name)
	s.Equal(4.7, info.Rating)
	s.stores.AssertExpectations(s.T())
}

func (s *ResolverSuite) TestMirrorCarrierTier_EmptyMirrorOrderCarrier() {
	s.stores.On("GetProviderOrder", mock.Anything, "PN-1").Return(&models.ProviderOrder{}, nil).Once()
	s.stores.On("GetCarrier", mock.Anything, int64(77)).
		Return(&models.Carrier{ID: 77, PhoneNumber: "123"}, nil).
		Once()

	info, tier := s.r.Resolve(context.Background(), Input{Order: s.order})
	s.Require().NotNil(info)
	s.Equal("mirror_carrier", tier)
	s.Equal(models.PlaceholderDriver, info.Name)
	s.Equal("123", info.PhoneNumber)
	s.stores.AssertNotCalled(s.T(), "GetDriver", mock.Anything, mock.Anything)
}

func (s *ResolverSuite) TestAllTiersFail_ReturnsNil() {
	s.stores.On("GetProviderOrder", mock.Anything, "PN-1").Return(nil, models.ErrNotFound).Once()
	s.stores.On("GetCarrier", mock.Anything, int64(77)).Return(nil, errors.New("bad doc")).Once()
	s.stores.On("GetDriver", mock.Anything, "d-1").Return(nil, errors.New("timeout")).Once()

	info, tier := s.r.Resolve(context.Background(), Input{Order: s.order})
	s.Nil(info)
	s.Empty(tier)
	s.stores.AssertExpectations(s.T())
}

func (s *ResolverSuite) TestNoReferences_NoLookups() {
	info, tier := s.r.Resolve(context.Background(), Input{Order: &models.Order{ID: "bare"}})
	s.Nil(info)
	s.Empty(tier)
	s.stores.AssertNotCalled(s.T(), "GetProviderOrder", mock.Anything, mock.Anything)
	s.stores.AssertNotCalled(s.T(), "GetCarrier", mock.Anything, mock.Anything)
	s.stores.AssertNotCalled(s.T(), "GetDriver", mock.Anything, mock.Anything)
}

func (s *ResolverSuite) TestPanickingTierIsATierFailure() {
	s.stores.On("GetDriver", mock.Anything, "d-1").Return(&models.Driver{Name: "Eva"}, nil).Once()
	r := New(zap.NewNop(), panicTier{}, DriverTier{Drivers: s.stores})

	info, tier := r.Resolve(context.Background(), Input{Order: &models.Order{DriverID: pointer.To("d-1")}})
	s.Require().NotNil(info)
	s.Equal("driver", tier)
	s.Equal("Eva", info.Name)
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}
