package ops

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/raster"
)

// PremultiplyNeighborOffset is the distance from a --premultiply flag
// token to the value token of the operation it brackets. It is a fixed
// convention of the CLI grammar (the flag precedes the operation flag,
// whose value sits two tokens later); if the grammar's ordering rules
// change this offset must be revalidated.
const PremultiplyNeighborOffset = 2

type entry struct {
	pos int
	op  Op
}

// Pipeline is a totally ordered sequence of operations keyed by CLI
// argument position. Positions are unique token indices, so ties cannot
// occur.
type Pipeline struct {
	entries []entry
}

// Len returns the number of operations.
func (p *Pipeline) Len() int { return len(p.entries) }

// At returns the operation registered at pos.
func (p *Pipeline) At(pos int) (Op, bool) {
	for _, e := range p.entries {
		if e.pos == pos {
			return e.op, true
		}
	}
	return nil, false
}

// Ops returns the operations in execution order.
func (p *Pipeline) Ops() []Op {
	out := make([]Op, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.op
	}
	return out
}

// Run applies the pipeline to img in ascending position order. Each
// operation's colorspace/bit-type preconditions are validated before it
// executes; a mismatch fails without touching the image. Operations
// within one pipeline are strictly sequential. Cancellation is honored
// between operations only, never mid-operation.
func (p *Pipeline) Run(ctx context.Context, img *raster.Image) error {
	for _, e := range p.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := checkPreconditions(e.op, img); err != nil {
			return err
		}

		slog.DebugContext(ctx, "applying operation", "op", e.op.Name(), "pos", e.pos)

		var err error
		switch op := e.op.(type) {
		case *Resize:
			err = op.apply(img)
		case *Quantize:
			err = op.apply(img)
		case AlphaPremultiply:
			err = op.apply(img)
		case AlphaUnpremultiply:
			err = op.apply(img)
		case *ApplyICC:
			err = op.apply(img)
		default:
			err = fmt.Errorf("unknown operation %T", e.op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Builder collects operations at the CLI argument positions they
// occurred at and produces the ordered Pipeline.
type Builder struct {
	entries []entry
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add registers op at CLI token position pos.
func (b *Builder) Add(pos int, op Op) *Builder {
	b.entries = append(b.entries, entry{pos: pos, op: op})
	return b
}

// at reports the operation already registered at pos, if any.
func (b *Builder) at(pos int) (Op, bool) {
	for _, e := range b.entries {
		if e.pos == pos {
			return e.op, true
		}
	}
	return nil, false
}

// AddPremultiply brackets the neighboring operation at
// pos+PremultiplyNeighborOffset with an alpha premultiply before it and
// an unpremultiply after it. A premultiply flag with nothing to bracket
// is inert: it logs a warning and is skipped. A collision on the
// unpremultiply slot is a programming-contract violation and panics.
func (b *Builder) AddPremultiply(ctx context.Context, pos int) *Builder {
	neighbor, ok := b.at(pos + PremultiplyNeighborOffset)
	if !ok {
		slog.WarnContext(ctx, "no operation found for premultiply", "pos", pos)
		return b
	}

	slog.DebugContext(ctx, "bracketing operation with alpha premultiply", "op", neighbor.Name(), "pos", pos)

	after := pos + PremultiplyNeighborOffset + 1
	if taken, ok := b.at(after); ok {
		panic(fmt.Sprintf("operation %q already occupies position %d", taken.Name(), after))
	}

	b.entries = append(b.entries,
		entry{pos: pos, op: AlphaPremultiply{}},
		entry{pos: after, op: AlphaUnpremultiply{}},
	)
	return b
}

// Build sorts the collected operations by position. Sorting is explicit
// so the ordering contract lives here, not in a container's iteration
// semantics.
func (b *Builder) Build() *Pipeline {
	entries := append([]entry(nil), b.entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].pos < entries[j].pos })
	return &Pipeline{entries: entries}
}

// FromConfig builds the library-mode pipeline implied by an encoder
// config: resize before quantize, matching the CLI defaults.
func FromConfig(cfg config.EncoderConfig) *Pipeline {
	b := NewBuilder()
	pos := 0
	if rc, ok := cfg.Resize(); ok {
		b.Add(pos, &Resize{Config: rc})
		pos++
	}
	if qc, ok := cfg.Quantization(); ok {
		b.Add(pos, &Quantize{Config: qc})
	}
	return b.Build()
}
