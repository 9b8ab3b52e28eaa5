// Package parse classifies raw image references and derives filename hints
// from URLs and Content-Type headers.
package parse

import (
	"mime"
	"net/url"
	"os"
	"regexp"
	"strings"
)

// Kind identifies the fetch strategy selected for a reference.
type Kind int

const (
	KindInline Kind = iota
	KindRemote
	KindLocal
	KindUnsupported
)

// String returns the kind's label for logs and summaries.
func (k Kind) String() string {
	switch k {
	case KindInline:
		return "inline"
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	default:
		return "unsupported"
	}
}

// Reference is a classified per-record image source.
type Reference interface {
	Kind() Kind
}

// InlineData is an image embedded in the reference as a data: URI.
type InlineData struct {
	MediaType string // e.g. "image/png"; may be empty
	Base64    bool   // payload is base64-encoded when true, literal text otherwise
	Payload   string
}

func (InlineData) Kind() Kind { return KindInline }

// RemoteResource is an http or https URL.
type RemoteResource struct {
	URL string
}

func (RemoteResource) Kind() Kind { return KindRemote }

// LocalResource is a path naming an existing regular file.
type LocalResource struct {
	Path string
}

func (LocalResource) Kind() Kind { return KindLocal }

// Unsupported is a reference no fetch strategy can handle. Terminal: the
// record gets an empty filename and no file is written.
type Unsupported struct {
	Raw string
}

func (Unsupported) Kind() Kind { return KindUnsupported }

var dataHeaderPattern = regexp.MustCompile(`^data:(.*?)(;base64)?$`)

// Classify inspects a raw reference value and selects its fetch strategy.
// Order matters: data: scheme, then http/https, then an existing local file;
// anything else is Unsupported.
func Classify(raw string) Reference {
	if strings.HasPrefix(raw, "data:") {
		header, payload, found := strings.Cut(raw, ",")
		if !found {
			return Unsupported{Raw: raw}
		}
		m := dataHeaderPattern.FindStringSubmatch(header)
		if m == nil {
			return Unsupported{Raw: raw}
		}
		return InlineData{
			MediaType: strings.TrimSpace(m[1]),
			Base64:    m[2] != "",
			Payload:   payload,
		}
	}

	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return RemoteResource{URL: raw}
	}

	if fi, err := os.Stat(raw); err == nil && fi.Mode().IsRegular() {
		return LocalResource{Path: raw}
	}

	return Unsupported{Raw: raw}
}

// GuessStemAndExt derives a best-effort filename stem and dotted extension
// from a URL's final path segment. Query/fragment remnants are stripped,
// jpeg/jpe normalize to jpg, and ".jpg" is the default extension. An empty
// segment yields ("download", ".jpg").
func GuessStemAndExt(rawURL string) (string, string) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	name := p
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		name = p[idx+1:]
	}
	if name == "" {
		return "download", ".jpg"
	}
	// url.Parse already splits query/fragment, but references arrive in the
	// wild with encoded leftovers; strip anything from the first ? or #.
	if idx := strings.IndexAny(name, "?#"); idx >= 0 {
		name = name[:idx]
	}
	if name == "" {
		return "download", ".jpg"
	}

	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name, ".jpg"
	}
	stem := name[:idx]
	ext := strings.ToLower(name[idx+1:])
	switch ext {
	case "jpeg", "jpe", "jpg":
		ext = "jpg"
	}
	if stem == "" {
		stem = "download"
	}
	return stem, "." + ext
}

// ExtFromContentType maps an HTTP Content-Type header to a dotted file
// extension. Image subtypes map directly (jpeg/jpg/jpe collapse to .jpg);
// an absent, unparsable, or non-image header defaults to ".jpg".
func ExtFromContentType(ct string) string {
	if ct == "" {
		return ".jpg"
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ".jpg"
	}
	sub, ok := strings.CutPrefix(mediaType, "image/")
	if !ok || sub == "" {
		return ".jpg"
	}
	// "svg+xml" and friends: the base subtype is the usable extension.
	if idx := strings.IndexByte(sub, '+'); idx > 0 {
		sub = sub[:idx]
	}
	switch sub {
	case "jpeg", "jpg", "jpe":
		return ".jpg"
	}
	return "." + strings.ToLower(sub)
}

// genericStems are URL-derived stems too common to make useful filenames;
// callers fall back to a hash-based stem for these.
var genericStems = map[string]bool{
	"":         true,
	"download": true,
	"image":    true,
	"img":      true,
}

// GenericStem reports whether a URL-derived stem should be replaced by a
// hash-based one.
func GenericStem(stem string) bool {
	return genericStems[strings.ToLower(stem)]
}
