package fetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/premkondru/InstagramPostsScrapper/pkg/parse"
	"github.com/premkondru/InstagramPostsScrapper/pkg/utils"
)

// Store persists classified references into a flat images directory. It
// writes at most one file per successful save; failed inline and local saves
// write nothing.
type Store struct {
	dir     string
	fetcher *Fetcher
	log     *logrus.Logger
}

// NewStore creates a Store writing into dir.
func NewStore(dir string, fetcher *Fetcher, log *logrus.Logger) *Store {
	return &Store{
		dir:     dir,
		fetcher: fetcher,
		log:     log,
	}
}

// Dir returns the images directory the store writes into.
func (s *Store) Dir() string { return s.dir }

// Save persists one classified reference and returns the stored filename.
// rawRef is the record's original reference value; inline names hash it.
func (s *Store) Save(ctx context.Context, ref parse.Reference, rawRef string) (string, error) {
	switch r := ref.(type) {
	case parse.InlineData:
		return s.SaveInline(r, rawRef)
	case parse.RemoteResource:
		return s.Download(ctx, r)
	case parse.LocalResource:
		return s.CopyLocal(r)
	default:
		return "", utils.WrapErrorf(utils.ErrUnsupportedReference, "%q", rawRef)
	}
}

// SaveInline decodes a data: URI payload and writes it under a hash-derived
// name with the extension implied by its media type. A payload decode error
// writes no file.
func (s *Store) SaveInline(inline parse.InlineData, rawRef string) (string, error) {
	var payload []byte
	if inline.Base64 {
		decoded, err := base64.StdEncoding.DecodeString(inline.Payload)
		if err != nil {
			return "", fmt.Errorf("%w: %w", utils.ErrPayloadDecode, err)
		}
		payload = decoded
	} else {
		// Unencoded data URIs carry the bytes as literal text.
		payload = []byte(inline.Payload)
	}

	ext := parse.ExtFromContentType(inline.MediaType)
	dst := utils.UniquePath(s.dir, hashStem(rawRef)+ext)
	if err := os.WriteFile(dst, payload, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing inline image '%s': %w", utils.ErrFilesystem, dst, err)
	}
	s.log.WithFields(logrus.Fields{"file": filepath.Base(dst), "bytes": len(payload)}).Debug("Saved inline image")
	return filepath.Base(dst), nil
}

// Download retrieves a remote resource via the retried fetcher.
func (s *Store) Download(ctx context.Context, remote parse.RemoteResource) (string, error) {
	return s.fetcher.Download(ctx, remote.URL, s.dir)
}

// CopyLocal copies an existing local file's bytes verbatim under a
// hash-derived name keeping the source extension (".jpg" if it has none).
func (s *Store) CopyLocal(local parse.LocalResource) (string, error) {
	ext := filepath.Ext(local.Path)
	if ext == "" {
		ext = ".jpg"
	}

	src, err := os.Open(local.Path)
	if err != nil {
		return "", fmt.Errorf("%w: opening local image '%s': %w", utils.ErrFilesystem, local.Path, err)
	}
	defer src.Close()

	dst := utils.UniquePath(s.dir, hashStem(local.Path)+ext)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("%w: creating image file '%s': %w", utils.ErrFilesystem, dst, err)
	}

	_, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(dst) // a failed local copy must not leave a truncated file
		return "", fmt.Errorf("%w: copying local image to '%s': %w", utils.ErrFilesystem, dst, copyErr)
	}

	s.log.WithFields(logrus.Fields{"file": filepath.Base(dst), "source": local.Path}).Debug("Copied local image")
	return filepath.Base(dst), nil
}
