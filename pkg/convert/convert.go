// Package convert normalizes stored image encodings: WEBP and HEIC/HEIF
// sources to a configured target format, or every image to one format when a
// force policy is set. Decoding sniffs actual content, so files saved under a
// wrong extension still convert correctly.
package convert

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	// Content-sniffed decoders beyond imaging's built-ins.
	_ "golang.org/x/image/webp"

	"github.com/premkondru/InstagramPostsScrapper/pkg/utils"
)

// Policy selects an optional target format per source format class. Force
// overrides the per-class targets and applies to every stored image. Empty
// strings disable a conversion.
type Policy struct {
	WebPTarget string
	HEICTarget string
	Force      string
}

// Normalizer re-encodes stored images according to a Policy. All methods
// degrade gracefully: on any failure the original filename is returned
// unchanged and a warning is logged.
type Normalizer struct {
	policy Policy
	log    *logrus.Logger
}

// NewNormalizer creates a Normalizer with the given policy.
func NewNormalizer(policy Policy, log *logrus.Logger) *Normalizer {
	return &Normalizer{policy: policy, log: log}
}

// Apply converts dir/filename per the policy and returns the final filename.
// Decision order: force format, then WEBP target, then HEIC/HEIF target
// (requires the optional HEIF decode capability). No applicable policy, or
// any decode/encode failure, returns filename unchanged.
func (n *Normalizer) Apply(dir, filename string) string {
	lower := strings.ToLower(filename)

	var target string
	switch {
	case n.policy.Force != "":
		target = n.policy.Force
	case strings.HasSuffix(lower, ".webp") && n.policy.WebPTarget != "":
		target = n.policy.WebPTarget
	case (strings.HasSuffix(lower, ".heic") || strings.HasSuffix(lower, ".heif")) && n.policy.HEICTarget != "":
		if !HEIFSupported() {
			n.log.Warnf("HEIC image %q present but HEIF decoding is not built in; skipping conversion", filename)
			return filename
		}
		target = n.policy.HEICTarget
	default:
		return filename
	}

	return n.convert(dir, filename, target)
}

// convert re-encodes dir/filename into target and removes the source file
// once the destination write fully succeeds.
func (n *Normalizer) convert(dir, filename, target string) string {
	src := filepath.Join(dir, filename)
	if _, err := os.Stat(src); err != nil {
		return filename
	}

	target = strings.TrimPrefix(strings.ToLower(target), ".")
	format, err := imaging.FormatFromExtension(target)
	if err != nil {
		n.log.Warnf("Unsupported conversion target %q for %q: %v", target, filename, err)
		return filename
	}

	// EXIF orientation is applied on every conversion so re-encoded output is
	// never left sideways. Multi-frame sources decode to their first frame.
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		n.log.Warnf("%v", utils.WrapErrorf(utils.ErrImageDecode, "could not decode %q: %v", src, err))
		return filename
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	dst := utils.UniquePath(dir, stem+"."+target)

	encodeErr := n.encode(img, dst, format)
	if encodeErr != nil {
		os.Remove(dst)
		n.log.Warnf("%v", utils.WrapErrorf(utils.ErrImageEncode, "failed to convert %q -> %q: %v", src, dst, encodeErr))
		return filename
	}

	// The original is superseded; a failed delete is non-fatal.
	if err := os.Remove(src); err != nil {
		n.log.Debugf("Could not remove superseded source %q: %v", src, err)
	}
	return filepath.Base(dst)
}

// encode writes img to dst in the given format. JPEG output composites any
// transparency onto an opaque white background at fixed quality 92; other
// formats keep the alpha channel.
func (n *Normalizer) encode(img image.Image, dst string, format imaging.Format) error {
	if format == imaging.JPEG {
		return imaging.Save(flattenOnWhite(img), dst, imaging.JPEGQuality(92))
	}
	return imaging.Save(imaging.Clone(img), dst)
}

// flattenOnWhite composites a source with transparency onto an opaque white
// background; fully opaque sources pass through.
func flattenOnWhite(img image.Image) *image.NRGBA {
	if isOpaque(img) {
		return imaging.Clone(img)
	}
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	return imaging.Overlay(bg, imaging.Clone(img), image.Pt(0, 0), 1.0)
}

// isOpaque reports whether img has no transparency, using the decoded
// image's own Opaque scan when available.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
