// Package connections holds the record types and identifiers for the
// sparse synaptic connectivity store. It has no dependency on the core
// engine in internal/connections so handlers and services can speak the
// same vocabulary without importing the mutable store itself.
package connections

import (
	"fmt"
	"strconv"
	"strings"
)

// CellID is a caller-supplied index in [0, numCells).
type CellID int

// SegmentID is an opaque, stable handle to a segment. It carries a
// generation counter alongside the slot index so a destroyed-and-recycled
// slot's old handle is detectably stale rather than silently aliasing a
// newer, unrelated segment created in the same slot.
type SegmentID struct {
	index      int32
	generation int32
}

// SynapseID is the synapse equivalent of SegmentID.
type SynapseID struct {
	index      int32
	generation int32
}

// IsZero reports whether the identifier was never assigned.
func (s SegmentID) IsZero() bool { return s.generation == 0 }

// IsZero reports whether the identifier was never assigned.
func (s SynapseID) IsZero() bool { return s.generation == 0 }

// NewSegmentID packs a slot index and generation into an opaque handle.
// Used only by the allocator in internal/connections; callers never
// construct a SegmentID themselves.
func NewSegmentID(index, generation int32) SegmentID {
	return SegmentID{index: index, generation: generation}
}

// NewSynapseID packs a slot index and generation into an opaque handle.
func NewSynapseID(index, generation int32) SynapseID {
	return SynapseID{index: index, generation: generation}
}

// Parts exposes the slot index and generation backing a SegmentID, for use
// by the allocator that issued it.
func (s SegmentID) Parts() (index, generation int32) { return s.index, s.generation }

// Parts exposes the slot index and generation backing a SynapseID.
func (s SynapseID) Parts() (index, generation int32) { return s.index, s.generation }

// Index returns the dense slot index, usable directly into an
// activity-output buffer sized to segmentFlatListLength().
func (s SegmentID) Index() int32 { return s.index }

// Index returns the dense slot index backing a SynapseID.
func (s SynapseID) Index() int32 { return s.index }

// String renders a SegmentID as an opaque "index.generation" token, the
// form the HTTP layer uses for path parameters and JSON payloads. It is
// not meant to be constructed by hand; round-trip it through
// ParseSegmentID instead.
func (s SegmentID) String() string { return fmt.Sprintf("%d.%d", s.index, s.generation) }

// String renders a SynapseID the same way String does for SegmentID.
func (s SynapseID) String() string { return fmt.Sprintf("%d.%d", s.index, s.generation) }

// MarshalText implements encoding.TextMarshaler, so SegmentID serializes
// as its opaque string form in JSON.
func (s SegmentID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SegmentID) UnmarshalText(text []byte) error {
	idx, gen, err := parseHandle(string(text))
	if err != nil {
		return fmt.Errorf("invalid segment identifier %q: %w", text, err)
	}
	s.index, s.generation = idx, gen
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s SynapseID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SynapseID) UnmarshalText(text []byte) error {
	idx, gen, err := parseHandle(string(text))
	if err != nil {
		return fmt.Errorf("invalid synapse identifier %q: %w", text, err)
	}
	s.index, s.generation = idx, gen
	return nil
}

// ParseSegmentID parses the opaque string form produced by SegmentID.String.
func ParseSegmentID(raw string) (SegmentID, error) {
	idx, gen, err := parseHandle(raw)
	if err != nil {
		return SegmentID{}, fmt.Errorf("invalid segment identifier %q: %w", raw, err)
	}
	return SegmentID{index: idx, generation: gen}, nil
}

// ParseSynapseID parses the opaque string form produced by SynapseID.String.
func ParseSynapseID(raw string) (SynapseID, error) {
	idx, gen, err := parseHandle(raw)
	if err != nil {
		return SynapseID{}, fmt.Errorf("invalid synapse identifier %q: %w", raw, err)
	}
	return SynapseID{index: idx, generation: gen}, nil
}

func parseHandle(raw string) (index, generation int32, err error) {
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"index.generation\"")
	}
	idx, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("bad index: %w", err)
	}
	gen, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("bad generation: %w", err)
	}
	return int32(idx), int32(gen), nil
}

// SynapseData is the caller-visible state of a live synapse: the
// presynaptic cell it reads from and its current permanence.
type SynapseData struct {
	PresynapticCell CellID
	Permanence      float32
}

// MinPermanence and MaxPermanence bound the closed interval permanences are
// clamped into.
const (
	MinPermanence float32 = 0.0
	MaxPermanence float32 = 1.0
)

// ClampPermanence clamps v into [MinPermanence, MaxPermanence].
func ClampPermanence(v float32) float32 {
	if v < MinPermanence {
		return MinPermanence
	}
	if v > MaxPermanence {
		return MaxPermanence
	}
	return v
}
