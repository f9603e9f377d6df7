package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bjaus/gateway"
)

// validate checks the merged configuration before it is used at startup.
func (c *Config) validate() error {
	var errs []error

	if _, err := gateway.ParseMode(c.Mode); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode))
	}
	for _, p := range []string{c.HTTP.APIPrefix, c.HTTP.DocsPrefix} {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("%w: %q must start with /", ErrInvalidPrefix, p))
		}
	}
	if c.HTTP.APIPrefix == c.HTTP.DocsPrefix {
		errs = append(errs, fmt.Errorf("%w: api and docs share %q", ErrInvalidPrefix, c.HTTP.APIPrefix))
	}
	if c.HTTP.BodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidBodyLimit, c.HTTP.BodyLimit))
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d per %s", ErrInvalidRateLimit, c.RateLimit.Max, c.RateLimit.Window))
	}

	return errors.Join(errs...)
}
