package encoder

import (
	"fmt"
	"strings"
)

// Registry holds all available encoders keyed by format name.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
	}

	all := []Encoder{
		&PNGEncoder{},
		&JPEGEncoder{},
		&WebPEncoder{},
		&AVIFEncoder{},
		&TIFFEncoder{},
		&GIFEncoder{},
	}

	for _, enc := range all {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}

	return r
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[strings.ToLower(format)]
}

// Available returns all available format names in priority order.
func (r *Registry) Available() []string {
	var result []string
	for _, f := range []string{"webp", "avif", "jpeg", "png", "tiff", "gif"} {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}
