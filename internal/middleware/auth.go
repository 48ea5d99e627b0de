package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/httputil"
)

// CallerKey is the gin context key holding the authenticated caller name.
const CallerKey = "caller"

// authTimingFloor is the minimum response time for rejected requests so
// invalid keys cannot be told apart by latency.
const authTimingFloor = 50 * time.Millisecond

// ErrUnknownKey is returned by a KeyVerifier for keys it does not recognize.
var ErrUnknownKey = errors.New("unknown api key")

// KeyVerifier resolves an API key to the caller it belongs to.
type KeyVerifier interface {
	VerifyKey(ctx context.Context, apiKey string) (string, error)
}

// StaticKeys verifies API keys against a fixed set loaded from configuration.
type StaticKeys struct {
	callers map[[sha256.Size]byte]string
}

// ParseStaticKeys parses "caller:key" pairs separated by commas.
func ParseStaticKeys(list string) (*StaticKeys, error) {
	keys := &StaticKeys{callers: make(map[[sha256.Size]byte]string)}

	for _, pair := range strings.Split(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		caller, key, ok := strings.Cut(pair, ":")
		if !ok || caller == "" || key == "" {
			return nil, fmt.Errorf("api key entry %q must be caller:key", truncateKey(pair))
		}

		keys.callers[sha256.Sum256([]byte(key))] = caller
	}

	return keys, nil
}

// Len returns the number of configured keys.
func (k *StaticKeys) Len() int {
	return len(k.callers)
}

// VerifyKey implements KeyVerifier.
func (k *StaticKeys) VerifyKey(_ context.Context, apiKey string) (string, error) {
	sum := sha256.Sum256([]byte(apiKey))

	for h, caller := range k.callers {
		if subtle.ConstantTimeCompare(h[:], sum[:]) == 1 {
			return caller, nil
		}
	}

	return "", ErrUnknownKey
}

// truncateKey returns at most the first 4 characters of key followed by "...".
func truncateKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "..."
	}

	return key
}

func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// AuthMiddleware authenticates requests via Bearer token and stores the
// caller name under CallerKey. Failures are reported to guard when non-nil.
func AuthMiddleware(verifier KeyVerifier, log *logrus.Logger, guard *BruteForceGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		caller, err := verifier.VerifyKey(c.Request.Context(), apiKey)
		if err != nil {
			logAuthFailure(log, c, apiKey)

			if guard != nil {
				guard.RecordFailure(c.ClientIP())
			}

			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid api key")
			return
		}

		if guard != nil {
			guard.Reset(c.ClientIP())
		}

		c.Set(CallerKey, caller)
		c.Next()
	}
}

// ExtractBearerToken extracts the API key from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimPrefix(header, "Bearer ")
}

func logAuthFailure(log *logrus.Logger, c *gin.Context, apiKey string) {
	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": httputil.RequestID(c),
		"key_prefix": truncateKey(apiKey),
	}).Warn("authentication failed: invalid api key")
}
