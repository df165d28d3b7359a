package attendance

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/khandaa/adminbase/internal/activity"
	"github.com/khandaa/adminbase/internal/platform/httpx"
)

const (
	codeLength = 8
	// codeAlphabet omits 0/O and 1/I to keep codes readable when dictated.
	codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	minTTL = time.Minute
	maxTTL = 24 * time.Hour
)

// Service issues and verifies attendance codes.
type Service struct {
	repo     Repository
	recorder activity.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, recorder activity.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger, now: time.Now}
}

// IssueResult carries the one-time plaintext alongside the stored record.
type IssueResult struct {
	Code      string
	Record    Code
	ExpiresAt time.Time
}

// Issue generates a random code, stores its hash and returns the plaintext.
func (s *Service) Issue(ctx context.Context, issuerID int64, label string, ttl time.Duration, maxUses int) (IssueResult, error) {
	if ttl < minTTL || ttl > maxTTL {
		return IssueResult{}, fmt.Errorf("%w: ttl must be between %s and %s", httpx.ErrValidation, minTTL, maxTTL)
	}
	if maxUses < 0 {
		return IssueResult{}, fmt.Errorf("%w: max_uses cannot be negative", httpx.ErrValidation)
	}
	plain, err := randomCode()
	if err != nil {
		return IssueResult{}, fmt.Errorf("generate code: %w", err)
	}
	expires := s.now().UTC().Add(ttl)
	record, err := s.repo.Insert(ctx, Code{
		CodeHash:  HashCode(plain),
		Label:     strings.TrimSpace(label),
		IssuedBy:  issuerID,
		MaxUses:   maxUses,
		ExpiresAt: expires,
	})
	if err != nil {
		return IssueResult{}, err
	}
	s.record(ctx, issuerID, "attendance_code.issued", record.ID, map[string]any{"label": record.Label, "max_uses": maxUses})
	return IssueResult{Code: plain, Record: record, ExpiresAt: expires}, nil
}

// Verify checks a submitted code and consumes one use. Expired or exhausted
// codes fail closed with a validation error.
func (s *Service) Verify(ctx context.Context, verifierID int64, plain string) (Code, error) {
	plain = strings.ToUpper(strings.TrimSpace(plain))
	if plain == "" {
		return Code{}, fmt.Errorf("%w: code required", httpx.ErrValidation)
	}
	c, err := s.repo.FindByHash(ctx, HashCode(plain))
	if err != nil {
		return Code{}, err
	}
	if c.Expired(s.now().UTC()) {
		return Code{}, fmt.Errorf("%w: code expired", httpx.ErrValidation)
	}
	if c.Exhausted() {
		return Code{}, fmt.Errorf("%w: code fully used", httpx.ErrValidation)
	}
	if err := s.repo.IncrementUses(ctx, c.ID); err != nil {
		return Code{}, err
	}
	c.Uses++
	s.record(ctx, verifierID, "attendance_code.verified", c.ID, nil)
	return c, nil
}

// ListActive returns codes that have not yet expired.
func (s *Service) ListActive(ctx context.Context) ([]Code, error) {
	return s.repo.ListActive(ctx, s.now().UTC())
}

// Revoke deletes a code before its natural expiry.
func (s *Service) Revoke(ctx context.Context, actorID, id int64) error {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: attendance code %d", httpx.ErrNotFound, id)
	}
	s.record(ctx, actorID, "attendance_code.revoked", id, nil)
	return nil
}

// Sweep removes expired codes and returns how many were deleted.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().UTC())
}

// HashCode returns the hex SHA-256 of a normalized plaintext code.
func HashCode(plain string) string {
	sum := sha256.Sum256([]byte(strings.ToUpper(strings.TrimSpace(plain))))
	return hex.EncodeToString(sum[:])
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, codeID int64, meta map[string]any) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, activity.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "attendance_code",
		EntityID: strconv.FormatInt(codeID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record attendance activity", slog.Any("error", err))
	}
}
