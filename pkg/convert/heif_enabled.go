//go:build heif

package convert

import (
	"image"

	"github.com/jdeng/goheif"
)

// Builds tagged "heif" link the libde265-backed decoder and register it with
// the image package so content sniffing picks up HEIC/HEIF containers.
func init() {
	heifSupported = true
	image.RegisterFormat("heic", "????ftypheic", goheif.Decode, goheif.DecodeConfig)
	image.RegisterFormat("heix", "????ftypheix", goheif.Decode, goheif.DecodeConfig)
	image.RegisterFormat("heif", "????ftypmif1", goheif.Decode, goheif.DecodeConfig)
}
