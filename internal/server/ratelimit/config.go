package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// Tier is a named limiter shared by a class of requests.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Config holds the read and write tiers. A nil tier is unlimited.
type Config struct {
	Read  *Tier
	Write *Tier
}

// NewConfig creates the tiers from per minute limits, 0 meaning unlimited.
// Bursts are a sixth of the per minute limit, at least 1.
func NewConfig(readPerMin, writePerMin int) *Config {
	return &Config{
		Read:  newTier("read", readPerMin),
		Write: newTier("write", writePerMin),
	}
}

func newTier(name string, perMin int) *Tier {
	if perMin <= 0 {
		return nil
	}
	return &Tier{Name: name, Limiter: NewLimiter(perMin, time.Minute, max(perMin/6, 1))}
}

// Match returns the tier for a request, or nil when it is not limited.
//
// Queries are reads even though they use POST.
func (c *Config) Match(method, path string) *Tier {
	if path == "/api/health" {
		return nil
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		return c.Read
	case http.MethodPost:
		if strings.HasSuffix(path, "/query") {
			return c.Read
		}
		return c.Write
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return c.Write
	default:
		return nil
	}
}

// Close stops all limiter cleanup goroutines.
func (c *Config) Close() {
	for _, t := range []*Tier{c.Read, c.Write} {
		if t != nil {
			t.Limiter.Close()
		}
	}
}
