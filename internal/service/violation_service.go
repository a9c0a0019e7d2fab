package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/model"
)

// ViolationService accepts violation reports and queues them for persistence.
// Logging is best-effort: the exam never stalls on this path, so reports go
// to a Redis queue and the violation worker batches them into PostgreSQL.
type ViolationService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewViolationService creates a new ViolationService.
func NewViolationService(rdb *redis.Client, log zerolog.Logger) *ViolationService {
	return &ViolationService{
		rdb: rdb,
		log: log.With().Str("component", "violation_service").Logger(),
	}
}

// queuedViolation is the queue wire format consumed by the violation worker.
type queuedViolation struct {
	AttemptID string `json:"attempt_id"`
	Type      string `json:"type"`
	Count     int    `json:"count"`
	Timestamp int64  `json:"timestamp"`
}

// Log enqueues one violation event.
func (s *ViolationService) Log(ctx context.Context, req *model.LogViolationRequest) error {
	payload, err := json.Marshal(queuedViolation{
		AttemptID: req.AttemptID.String(),
		Type:      string(req.Type),
		Count:     req.Count,
		Timestamp: req.Timestamp.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal violation: %w", err)
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue violation: %w", err)
	}

	// Track the latest reported tally for live monitoring. Failure here is
	// not worth failing the request.
	countKey := config.CacheKey.AttemptViolationCountKey(req.AttemptID.String())
	if err := s.rdb.Set(ctx, countKey, req.Count, 0).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", req.AttemptID.String()).Msg("Violation count cache update failed")
	}

	return nil
}
