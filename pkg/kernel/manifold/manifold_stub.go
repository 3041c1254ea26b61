//go:build !manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library. When the "manifold" build tag is not set, this stub
// package is compiled instead: New returns an error and no backend is
// registered, so kernel.Select falls back to sdfx.
//
// Build with: go build -tags=manifold
package manifold

import (
	"errors"

	"github.com/chazu/steelframe/pkg/kernel"
)

// New returns an error indicating Manifold is not available.
// Build with -tags=manifold to enable.
func New() (kernel.Kernel, error) {
	return nil, errors.New("manifold kernel not available: build with -tags=manifold")
}
