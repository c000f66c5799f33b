package logging

import (
	"fmt"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfWriter opens a GELF UDP writer to a Graylog input.
func NewGelfWriter(address, facility string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("connecting to graylog at %s: %w", address, err)
	}
	if facility != "" {
		w.Facility = facility
	}
	return w, nil
}
