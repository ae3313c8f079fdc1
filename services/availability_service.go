package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"ticketbot/models"
	"ticketbot/monitoring"
	"ticketbot/store"
)

const vipBaselineKey = "availability:vip:baseline"

// AvailabilityService keeps the soft inventory cap for the VIP tier:
// a baseline sales count captured lazily when the cap feature first
// runs, plus a fixed additional allotment. The check is intentionally
// not a reservation - concurrent buyers can all observe "available"
// before any payment lands, which oversells by at most the number of
// in-flight links.
type AvailabilityService struct {
	Redis     *redis.Client
	payments  store.PaymentStore
	allotment int64
}

func NewAvailabilityService(redisClient *redis.Client, payments store.PaymentStore, allotment int) *AvailabilityService {
	return &AvailabilityService{
		Redis:     redisClient,
		payments:  payments,
		allotment: int64(allotment),
	}
}

// VIPAvailable reports whether the VIP tier still has stock under the
// soft cap.
func (s *AvailabilityService) VIPAvailable(ctx context.Context) (bool, error) {
	sold, err := s.payments.CountSuccessful(ctx, models.TicketVIP)
	if err != nil {
		return false, fmt.Errorf("availability: count vip sales: %w", err)
	}
	monitoring.TrackVIPSold(sold)

	baseline, err := s.baseline(ctx, sold)
	if err != nil {
		return false, err
	}

	return sold-baseline < s.allotment, nil
}

// baseline returns the sales count observed when the cap was first
// evaluated. SETNX makes the lazy initialization a one-time write even
// across processes.
func (s *AvailabilityService) baseline(ctx context.Context, liveCount int64) (int64, error) {
	val, err := s.Redis.Get(ctx, vipBaselineKey).Result()
	if err == nil {
		baseline, parseErr := strconv.ParseInt(val, 10, 64)
		if parseErr != nil {
			return 0, fmt.Errorf("availability: parse baseline: %w", parseErr)
		}
		return baseline, nil
	}
	if err != redis.Nil {
		return 0, fmt.Errorf("availability: get baseline: %w", err)
	}

	set, err := s.Redis.SetNX(ctx, vipBaselineKey, liveCount, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("availability: set baseline: %w", err)
	}
	if set {
		return liveCount, nil
	}

	// Lost the SETNX race; read what the winner stored.
	val, err = s.Redis.Get(ctx, vipBaselineKey).Result()
	if err != nil {
		return 0, fmt.Errorf("availability: reread baseline: %w", err)
	}
	baseline, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("availability: parse baseline: %w", err)
	}
	return baseline, nil
}
