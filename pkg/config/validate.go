package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/premkondru/InstagramPostsScrapper/pkg/utils"
)

// formatTargets lists the encodings the normalizer can write to.
var formatTargets = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
}

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Timeout
	if c.Timeout <= 0 {
		warnings = append(warnings, fmt.Sprintf("timeout should be > 0, defaulting to %v", DefaultTimeout))
		c.Timeout = DefaultTimeout
	}

	// Retries (total attempts)
	if c.Retries <= 0 {
		warnings = append(warnings, fmt.Sprintf("retries should be > 0, defaulting to %d", DefaultRetries))
		c.Retries = DefaultRetries
	}

	// ImagesDir
	if c.ImagesDir == "" {
		warnings = append(warnings, fmt.Sprintf("images_dir is empty, defaulting to '%s'", DefaultImagesDir))
		c.ImagesDir = DefaultImagesDir
	}

	// EventsDir (organize subcommand only)
	if c.EventsDir == "" {
		c.EventsDir = DefaultEventsDir
	}

	// Format targets: normalize and reject unknown encodings
	if c.ConvertWebP, err = normalizeFormat("convert_webp", c.ConvertWebP); err != nil {
		return warnings, err
	}
	if c.ConvertHEIC, err = normalizeFormat("convert_heic", c.ConvertHEIC); err != nil {
		return warnings, err
	}
	if c.ForceFormat, err = normalizeFormat("force_format", c.ForceFormat); err != nil {
		return warnings, err
	}

	// UserAgent / Accept
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Accept == "" {
		c.Accept = DefaultAccept
	}

	// Retry delays
	if c.InitialRetryDelay <= 0 {
		c.InitialRetryDelay = 500 * time.Millisecond
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = 5 * time.Second
	}
	if c.InitialRetryDelay > c.MaxRetryDelay {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	// HTTP client settings
	h := &c.HTTPClientSettings
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}

	return warnings, nil
}

// normalizeFormat lowercases and de-dots a conversion target. Empty means
// disabled and passes through.
func normalizeFormat(field, value string) (string, error) {
	v := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))
	if v == "" {
		return "", nil
	}
	if !formatTargets[v] {
		return "", utils.WrapErrorf(utils.ErrConfigValidation, "%s: unsupported format %q", field, value)
	}
	return v, nil
}
