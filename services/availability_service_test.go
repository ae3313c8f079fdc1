package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketbot/models"
)

func seedVIPSales(t *testing.T, payments *fakePaymentStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, payments.Create(context.Background(), &models.Payment{
			Reference:  fmt.Sprintf("VIP-%d", i),
			ChatID:     fmt.Sprintf("chat-%d", i),
			Amount:     decimal.RequireFromString("1531.25"),
			Status:     models.PaymentSuccess,
			TicketType: models.TicketVIP,
		}))
	}
}

func TestVIPAvailable_UnderAllotment(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payments := newFakePaymentStore()
	seedVIPSales(t, payments, 19)

	mock.ExpectGet(vipBaselineKey).SetVal("0")

	service := NewAvailabilityService(db, payments, 20)
	available, err := service.VIPAvailable(context.Background())

	require.NoError(t, err)
	assert.True(t, available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVIPAvailable_AllotmentExhausted(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payments := newFakePaymentStore()
	seedVIPSales(t, payments, 20)

	mock.ExpectGet(vipBaselineKey).SetVal("0")

	service := NewAvailabilityService(db, payments, 20)
	available, err := service.VIPAvailable(context.Background())

	require.NoError(t, err)
	assert.False(t, available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVIPAvailable_StaysExhaustedPastAllotment(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payments := newFakePaymentStore()
	seedVIPSales(t, payments, 21)

	mock.ExpectGet(vipBaselineKey).SetVal("0")

	service := NewAvailabilityService(db, payments, 20)
	available, err := service.VIPAvailable(context.Background())

	require.NoError(t, err)
	assert.False(t, available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVIPAvailable_BaselineInitializedLazily(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payments := newFakePaymentStore()
	seedVIPSales(t, payments, 7)

	// First evaluation: no baseline yet, the live count becomes it.
	mock.ExpectGet(vipBaselineKey).RedisNil()
	mock.ExpectSetNX(vipBaselineKey, int64(7), 0).SetVal(true)

	service := NewAvailabilityService(db, payments, 20)
	available, err := service.VIPAvailable(context.Background())

	require.NoError(t, err)
	// 7 sold - 7 baseline = 0 of 20 allotted sold.
	assert.True(t, available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVIPAvailable_LostSetNXRaceRereadsWinner(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payments := newFakePaymentStore()
	seedVIPSales(t, payments, 25)

	mock.ExpectGet(vipBaselineKey).RedisNil()
	mock.ExpectSetNX(vipBaselineKey, int64(25), 0).SetVal(false)
	mock.ExpectGet(vipBaselineKey).SetVal("10")

	service := NewAvailabilityService(db, payments, 20)
	available, err := service.VIPAvailable(context.Background())

	require.NoError(t, err)
	// 25 sold - 10 baseline = 15 of 20 allotted sold.
	assert.True(t, available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVIPAvailable_CountFailureSurfaces(t *testing.T) {
	db, _ := redismock.NewClientMock()
	payments := newFakePaymentStore()
	payments.countErr = assert.AnError

	service := NewAvailabilityService(db, payments, 20)
	_, err := service.VIPAvailable(context.Background())

	assert.Error(t, err)
}
