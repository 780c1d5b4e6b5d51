package astro

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/pkg/angle"
)

const fingerprintVersion = 1

// fingerprint is the typed identity of a cacheable computation. Every input
// that changes the output must be a field here.
type fingerprint struct {
	Version   int    `json:"v"`
	Operation string `json:"op"`
	Request   any    `json:"req"`
	Derived   any    `json:"derived,omitempty"`
}

func cacheKey(operation string, request, derived any) (string, error) {
	payload, err := json.Marshal(fingerprint{
		Version:   fingerprintVersion,
		Operation: operation,
		Request:   request,
		Derived:   derived,
	})
	if err != nil {
		return "", fmt.Errorf("encode fingerprint: %w", err)
	}
	sum := sha256.Sum256(payload)
	return operation + ":" + hex.EncodeToString(sum[:]), nil
}

// chartKey fingerprints the natal inputs that shape aspect detection.
func chartKey(natalJD float64, zodiac ephemeris.Zodiac, angles Angles) string {
	key := fmt.Sprintf("%.8f:%t:%s:%s:%s", natalJD, zodiac.Sidereal, zodiac.Ayanamsa, optDeg(angles.AscendantDeg), optDeg(angles.MidheavenDeg))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func optDeg(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(angle.Normalize(*v), 'f', 6, 64)
}

// cached returns the stored value for key or computes and stores it.
// Cache failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *service, key string, compute func() (T, error)) (T, bool, error) {
	var zero T
	if s.cache != nil && key != "" {
		payload, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("cache read failed", "key", key, "error", err)
		} else if ok {
			var out T
			if err := json.Unmarshal(payload, &out); err == nil {
				return out, true, nil
			}
			s.logger.Warn("cache entry corrupt, recomputing", "key", key)
		}
	}

	out, err := compute()
	if err != nil {
		return zero, false, err
	}

	if s.cache != nil && key != "" {
		payload, err := json.Marshal(out)
		if err == nil {
			err = s.cache.Set(ctx, key, payload, s.cfg.CacheTTL)
		}
		if err != nil {
			s.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return out, false, nil
}
