package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type storageEntry struct {
	value   []byte
	expires time.Time
}

// IPBanStorage is an in-memory fiber.Storage for the limiter that also remembers
// banned client IPs. Bans are recorded by the limiter's LimitReached callback.
type IPBanStorage struct {
	mu      sync.RWMutex
	entries map[string]storageEntry
	bans    map[string]time.Time
	now     func() time.Time
}

// NewIPBanStorage creates the storage and starts a janitor that drops expired
// entries and bans until ctx is cancelled.
func NewIPBanStorage(ctx context.Context, sweepEvery time.Duration) *IPBanStorage {
	storage := &IPBanStorage{
		entries: make(map[string]storageEntry),
		bans:    make(map[string]time.Time),
		now:     time.Now,
	}
	if sweepEvery > 0 {
		go storage.janitor(ctx, sweepEvery)
	}
	return storage
}

// Get returns nil for missing or expired keys, as fiber.Storage requires
func (s *IPBanStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok || s.expired(entry) {
		return nil, nil
	}
	return append([]byte(nil), entry.value...), nil
}

func (s *IPBanStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	entry := storageEntry{value: append([]byte(nil), val...)}
	if exp > 0 {
		entry.expires = s.now().Add(exp)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *IPBanStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *IPBanStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]storageEntry)
	s.bans = make(map[string]time.Time)
	return nil
}

func (s *IPBanStorage) Close() error {
	return nil
}

// Ban blocks ip until now+d
func (s *IPBanStorage) Ban(ip string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans[ip] = s.now().Add(d)
}

// BannedUntil reports whether ip is banned and until when
func (s *IPBanStorage) BannedUntil(ip string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	until, ok := s.bans[ip]
	if !ok || !s.now().Before(until) {
		return time.Time{}, false
	}
	return until, true
}

func (s *IPBanStorage) expired(entry storageEntry) bool {
	return !entry.expires.IsZero() && !s.now().Before(entry.expires)
}

func (s *IPBanStorage) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, key)
		}
	}
	for ip, until := range s.bans {
		if !now.Before(until) {
			delete(s.bans, ip)
		}
	}
}

func (s *IPBanStorage) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

type LimiterConfig struct {
	// Max requests per Window from one IP
	Max    int
	Window time.Duration
	// BanFor is how long an IP stays blocked after exceeding Max. Zero disables bans.
	BanFor time.Duration
}

// NewLoginLimiter limits requests per client IP. An IP that goes over the limit is
// banned for cfg.BanFor and gets 429 with Retry-After until the ban ends.
func NewLoginLimiter(storage *IPBanStorage, cfg LimiterConfig, logger *slog.Logger) fiber.Handler {
	tooMany := func(c *fiber.Ctx, retryAfter time.Duration) error {
		secs := int(retryAfter.Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
	}

	limit := limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			ip := c.IP()
			if cfg.BanFor > 0 {
				storage.Ban(ip, cfg.BanFor)
				logger.WarnContext(c.UserContext(), "client banned after exceeding rate limit", "ip", ip, "ban", cfg.BanFor.String())
				return tooMany(c, cfg.BanFor)
			}
			return tooMany(c, cfg.Window)
		},
		Storage: storage,
	})

	return func(c *fiber.Ctx) error {
		if until, banned := storage.BannedUntil(c.IP()); banned {
			return tooMany(c, until.Sub(storage.now()))
		}
		return limit(c)
	}
}
