package convert

// heifSupported is flipped at process start when the optional HEIF decoder
// is compiled in (build tag "heif"). Resolved once, never mutated afterwards.
var heifSupported = false

// HEIFSupported reports whether HEIC/HEIF sources can be decoded by this
// build.
func HEIFSupported() bool { return heifSupported }
