package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"navswap/config"
	"navswap/internal/status"
	"navswap/models"
	"navswap/monitoring"
	"navswap/store"
	"navswap/utils"
)

const (
	tokenFieldCount  = 6
	signatureLength  = 16
	nonceBytes       = 16
	tokenCachePrefix = "qr:token:"
)

// VerifyResult is the outcome of a token check. Reason is set when Valid is
// false and is safe to return to the caller.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
	SwapID    string `json:"swap_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	StationID string `json:"station_id,omitempty"`
}

// QRService issues and verifies the signed, single-use, expiring tokens that
// admit a user at a station. The durable qr_tokens record is authoritative;
// the Redis copy only accelerates replay checks.
type QRService struct {
	Redis   *redis.Client
	store   store.Store
	breaker *utils.CircuitBreaker
	monitor *monitoring.Monitor
	secret  string
	expiry  time.Duration
}

func NewQRService(redisClient *redis.Client, st store.Store, monitor *monitoring.Monitor, cfg *config.Config) *QRService {
	return &QRService{
		Redis:   redisClient,
		store:   st,
		breaker: utils.NewCircuitBreaker("qr-cache"),
		monitor: monitor,
		secret:  cfg.QRSecretKey,
		expiry:  cfg.QRTokenExpiry,
	}
}

// sign returns the first 16 hex characters of sha256(secret || payload).
func (s *QRService) sign(payload string) string {
	sum := sha256.Sum256([]byte(s.secret + payload))
	return hex.EncodeToString(sum[:])[:signatureLength]
}

// IssueToken mints a fresh admission token for a swap and records it
// durably. Any previously issued token for the swap stays in the audit trail
// but is superseded on the swap record.
func (s *QRService) IssueToken(ctx context.Context, swapID string) (string, time.Time, error) {
	swap, err := s.store.SwapByID(ctx, swapID)
	if err != nil {
		return "", time.Time{}, err
	}
	if swap == nil {
		return "", time.Time{}, status.ErrSwapNotFound
	}
	if swap.Status.Terminal() {
		return "", time.Time{}, status.ErrSwapNotActive
	}

	nonce, err := utils.GenerateNonce(nonceBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate nonce: %w", err)
	}

	now := time.Now()
	payload := fmt.Sprintf("%d:%s:%s:%s:%s", now.Unix(), swap.UserID, swap.StationID, swap.ID, nonce)
	token := payload + ":" + s.sign(payload)
	expiresAt := now.Add(s.expiry)

	record := &models.TokenRecord{
		Token:     token,
		SwapID:    swap.ID,
		UserID:    swap.UserID,
		StationID: swap.StationID,
		ExpiresAt: expiresAt,
	}
	if err := s.store.InsertToken(ctx, record); err != nil {
		s.monitor.TrackTokenOperation("issue", "error")
		return "", time.Time{}, err
	}
	if err := s.store.AttachSwapToken(ctx, swap.ID, token); err != nil {
		return "", time.Time{}, err
	}

	// Cache write is best effort; the breaker keeps issuance from paying a
	// Redis timeout per request while the cache is down.
	cacheErr := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.Redis.SetEx(ctx, tokenCachePrefix+token, swap.ID, s.expiry).Err()
	})
	if cacheErr != nil && !errors.Is(cacheErr, utils.ErrBreakerOpen) {
		log.Printf("qr: token cache write failed: %v", cacheErr)
	}

	s.monitor.TrackTokenOperation("issue", "success")
	return token, expiresAt, nil
}

// VerifyToken checks a scanned token without consuming it. Checks run
// cheapest first: shape, signature, station binding, expiry, then replay.
// Verification never mutates state.
func (s *QRService) VerifyToken(ctx context.Context, token, stationID string) (*VerifyResult, error) {
	parts := strings.Split(token, ":")
	if len(parts) != tokenFieldCount {
		return &VerifyResult{Reason: "invalid token format"}, nil
	}

	payload := strings.Join(parts[:tokenFieldCount-1], ":")
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[5])) {
		s.monitor.TrackTokenOperation("verify", "bad_signature")
		return &VerifyResult{Reason: "invalid token signature"}, nil
	}

	issuedUnix, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return &VerifyResult{Reason: "invalid token format"}, nil
	}
	userID, tokenStation, swapID := parts[1], parts[2], parts[3]

	if tokenStation != stationID {
		s.monitor.TrackTokenOperation("verify", "wrong_station")
		return &VerifyResult{Reason: "token not valid for this station"}, nil
	}

	if time.Since(time.Unix(issuedUnix, 0)) > s.expiry {
		s.monitor.TrackTokenOperation("verify", "expired")
		return &VerifyResult{Reason: "token expired"}, nil
	}

	// Replay check. Cache hit means the token is still live; on a miss the
	// durable record decides.
	cached, err := s.Redis.Get(ctx, tokenCachePrefix+token).Result()
	if err == nil && cached != "" {
		s.monitor.TrackTokenOperation("verify", "success")
		return &VerifyResult{Valid: true, SwapID: swapID, UserID: userID, StationID: tokenStation}, nil
	}
	if err != nil && err != redis.Nil {
		log.Printf("qr: token cache read failed: %v", err)
	}

	record, err := s.store.TokenByValue(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil {
		s.monitor.TrackTokenOperation("verify", "not_found")
		return &VerifyResult{Reason: "token not found or already used"}, nil
	}
	if record.Used {
		s.monitor.TrackTokenOperation("verify", "replayed")
		return &VerifyResult{Reason: "token already used"}, nil
	}

	s.monitor.TrackTokenOperation("verify", "success")
	return &VerifyResult{Valid: true, SwapID: swapID, UserID: userID, StationID: tokenStation}, nil
}

// ConsumeToken burns a verified token. The durable conditional flip decides
// the winner under concurrent scans; the cache delete just keeps the
// accelerator honest.
func (s *QRService) ConsumeToken(ctx context.Context, token string) error {
	if err := s.Redis.Del(ctx, tokenCachePrefix+token).Err(); err != nil {
		log.Printf("qr: token cache delete failed: %v", err)
	}

	won, err := s.store.ConsumeToken(ctx, token, time.Now())
	if err != nil {
		s.monitor.TrackTokenOperation("consume", "error")
		return err
	}
	if !won {
		s.monitor.TrackTokenOperation("consume", "replayed")
		return status.ErrTokenConsumed
	}

	s.monitor.TrackTokenOperation("consume", "success")
	return nil
}

// CleanupExpired removes token records that are both expired and used.
// Expired-but-unused records stay for audit.
func (s *QRService) CleanupExpired(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredUsed(ctx, time.Now())
}
