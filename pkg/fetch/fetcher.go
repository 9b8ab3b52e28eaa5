package fetch

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/premkondru/InstagramPostsScrapper/pkg/config"
	"github.com/premkondru/InstagramPostsScrapper/pkg/parse"
	"github.com/premkondru/InstagramPostsScrapper/pkg/utils"
)

// Fetcher retrieves remote images over HTTP with bounded attempts. Every
// attempt runs under its own wall-clock deadline, and any transport error or
// non-2xx status counts as a failed attempt. A batch tool either gets the
// bytes or moves on, so 4xx statuses are retried like everything else.
type Fetcher struct {
	client *http.Client
	cfg    *config.AppConfig
	log    *logrus.Logger
}

// NewFetcher creates a new Fetcher instance.
func NewFetcher(client *http.Client, cfg *config.AppConfig, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		cfg:    cfg,
		log:    log,
	}
}

// Download fetches rawURL and streams it into dir under a deterministic,
// collision-free name. It returns the final filename of the first fully
// written attempt, or an ErrRetryFailed-wrapped error once all attempts are
// exhausted. A failed attempt may leave a partial stream file behind; that
// file is never the returned name.
func (f *Fetcher) Download(ctx context.Context, rawURL, dir string) (string, error) {
	reqLog := f.log.WithField("url", rawURL)

	stem, urlExt := parse.GuessStemAndExt(rawURL)
	stem = utils.SanitizeName(stem, 0)
	if parse.GenericStem(stem) || stem == "unknown" {
		stem = hashStem(rawURL)
	}

	attempts := f.cfg.Retries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		// Check if the batch context died before attempting or sleeping
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return "", fmt.Errorf("context cancelled (%v) during retry backoff after error: %w", ctx.Err(), lastErr)
			}
			return "", fmt.Errorf("context cancelled before first attempt: %w", ctx.Err())
		default:
		}

		if attempt > 1 {
			delay := f.backoffDelay(attempt)
			reqLog.WithFields(logrus.Fields{"attempt": attempt, "max_attempts": attempts, "delay": delay}).Warn("Retrying request...")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				reqLog.Warnf("Context cancelled during retry sleep: %v", ctx.Err())
				if lastErr != nil {
					return "", fmt.Errorf("context cancelled (%v) during retry delay after error: %w", ctx.Err(), lastErr)
				}
				return "", fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
			}
		}

		name, err := f.attempt(ctx, rawURL, dir, stem, urlExt)
		if err == nil {
			reqLog.WithFields(logrus.Fields{"file": name, "attempt": attempt}).Debug("Successfully fetched")
			return name, nil
		}
		// Parent cancellation is terminal; per-attempt deadline expiry is just
		// a failed attempt.
		if ctx.Err() != nil {
			return "", err
		}
		reqLog.WithField("attempt", attempt).Warnf("Fetch attempt failed: %v", err)
		lastErr = err
	}

	reqLog.Errorf("All %d fetch attempts failed. Last error: %v", attempts, lastErr)
	if lastErr != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrRetryFailed, lastErr)
	}
	return "", utils.ErrRetryFailed
}

// attempt performs one GET under its own deadline and streams the body to a
// UniquePath-resolved destination.
func (f *Fetcher) attempt(ctx context.Context, rawURL, dir, stem, urlExt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", f.cfg.Accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp)
	}

	// Extension precedence: a non-default extension stated by the URL wins
	// over the server's Content-Type, so a mislabeling CDN can't destabilize
	// filenames. Conversion sniffs actual content later.
	ext := parse.ExtFromContentType(resp.Header.Get("Content-Type"))
	if urlExt != "" && urlExt != ".jpg" {
		ext = urlExt
	}

	dst := utils.UniquePath(dir, stem+ext)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("%w: creating image file '%s': %w", utils.ErrFilesystem, dst, err)
	}

	copied, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		// Partial stream file stays behind as acceptable garbage; it is never
		// reported as the record's result.
		return "", fmt.Errorf("%w: streaming image data to '%s' (copied %d bytes): %w", utils.ErrFilesystem, dst, copied, copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("%w: closing image file '%s' after write: %w", utils.ErrFilesystem, dst, closeErr)
	}

	return filepath.Base(dst), nil
}

// backoffDelay computes the exponential backoff with +/- 10% jitter applied
// before the given attempt (attempt >= 2).
func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	backoff := float64(f.cfg.InitialRetryDelay) * math.Pow(2, float64(attempt-2))
	delay := time.Duration(backoff)
	if delay <= 0 || delay > f.cfg.MaxRetryDelay {
		delay = f.cfg.MaxRetryDelay
	}
	var jitter time.Duration
	if delay > 0 {
		jitter = time.Duration(rand.Int63n(int64(delay)/5)) - (delay / 10)
	}
	if delay += jitter; delay < 0 {
		delay = 0
	}
	return delay
}

// statusError wraps a non-2xx response in the matching sentinel.
func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d %s", utils.ErrServerHTTPError, resp.StatusCode, resp.Status)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, resp.StatusCode, resp.Status)
	default:
		return fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, resp.StatusCode, resp.Status)
	}
}

// hashStem derives the stable img_<sha1-prefix> stem used when a reference
// has no usable name of its own.
func hashStem(s string) string {
	sum := sha1.Sum([]byte(s))
	return fmt.Sprintf("img_%x", sum)[:14] // "img_" + first 10 hex chars
}
