// Package ops implements the ordered preprocessing pipeline: the closed
// set of pixel operations, the position-keyed builder that reproduces the
// user's CLI ordering, and the engine that applies the pipeline to an
// image.
package ops

import (
	"fmt"

	"github.com/imgforge/imgforge/pkg/raster"
)

// Kind tags the closed set of operations.
type Kind int

const (
	KindResize Kind = iota
	KindQuantize
	KindAlphaPremultiply
	KindAlphaUnpremultiply
	KindApplyICC
)

// Op is one unit of pixel transformation. The set of implementations is
// closed: the engine dispatches over the concrete types exhaustively.
type Op interface {
	Kind() Kind
	Name() string
	// SupportedColorspaces lists the colorspaces the operation accepts.
	// The engine rejects, never coerces, anything else.
	SupportedColorspaces() []raster.ColorSpace
	// SupportedTypes lists the accepted sample representations.
	SupportedTypes() []raster.BitType

	isOp()
}

// WrongColorspaceError reports an image whose colorspace is outside the
// operation's declared set.
type WrongColorspaceError struct {
	Op       string
	Expected []raster.ColorSpace
	Actual   raster.ColorSpace
}

func (e *WrongColorspaceError) Error() string {
	return fmt.Sprintf("%s: colorspace %s not in supported set %v", e.Op, e.Actual, e.Expected)
}

// UnsupportedTypeError reports an image whose bit type is outside the
// operation's declared set.
type UnsupportedTypeError struct {
	Op       string
	Expected []raster.BitType
	Actual   raster.BitType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s: bit type %s not in supported set %v", e.Op, e.Actual, e.Expected)
}

func checkPreconditions(op Op, img *raster.Image) error {
	csOK := false
	for _, cs := range op.SupportedColorspaces() {
		if cs == img.Color {
			csOK = true
			break
		}
	}
	if !csOK {
		return &WrongColorspaceError{Op: op.Name(), Expected: op.SupportedColorspaces(), Actual: img.Color}
	}

	for _, bt := range op.SupportedTypes() {
		if bt == img.Bits {
			return nil
		}
	}
	return &UnsupportedTypeError{Op: op.Name(), Expected: op.SupportedTypes(), Actual: img.Bits}
}
