// Package layout implements the per-message layout planner: presence-bit
// assignment, the auxiliary (message-field) list, and the masked-tag table
// dimensions.
package layout

import (
	"fmt"
	"math/bits"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/tdpb/protoc-gen-tdpb/internal/classify"
)

// MaxFieldNumber is the highest field number this generator will accept;
// messages declaring fields above this number are rejected rather than
// silently mishandled.
const MaxFieldNumber = 2047

// FieldNumberTooLargeError is returned when a message declares a field with
// number > MaxFieldNumber.
type FieldNumberTooLargeError struct {
	Message protoreflect.FullName
	Field   protoreflect.FieldDescriptor
}

func (e *FieldNumberTooLargeError) Error() string {
	return fmt.Sprintf("field %s.%s has number %d, exceeding the maximum of %d",
		e.Message, e.Field.Name(), e.Field.Number(), MaxFieldNumber)
}

// PresenceMap assigns a dense 0-based has-bit index to every singular,
// non-message, non-repeated field of a message, in declaration order.
type PresenceMap struct {
	index map[protoreflect.FieldNumber]int
	count int
}

// Index returns the has-bit index for fd, and whether fd participates in the
// presence map at all.
func (m *PresenceMap) Index(fd protoreflect.FieldDescriptor) (int, bool) {
	idx, ok := m.index[fd.Number()]
	return idx, ok
}

// Count is the number of has-bits allocated.
func (m *PresenceMap) Count() int { return m.count }

// WordCount is the number of 32-bit presence words required: ceil(Count/32).
func (m *PresenceMap) WordCount() int {
	return (m.count + 31) / 32
}

// AuxEntry is one message-typed field's slot in the auxiliary list.
type AuxEntry struct {
	Field protoreflect.FieldDescriptor
	Index int // position within the aux list == aux_idx
}

// AuxList is the ordered sequence of message-typed fields (including
// groups), in declaration order.
type AuxList struct {
	entries []AuxEntry
}

// Entries returns the aux list in declaration order.
func (l *AuxList) Entries() []AuxEntry { return l.entries }

// Len is the number of auxiliary entries.
func (l *AuxList) Len() int { return len(l.entries) }

// IndexOf returns the aux_idx for fd, and whether fd is in the aux list.
func (l *AuxList) IndexOf(fd protoreflect.FieldDescriptor) (int, bool) {
	for _, e := range l.entries {
		if e.Field.Number() == fd.Number() {
			return e.Index, true
		}
	}
	return 0, false
}

// MaskedTagParams are the masked-tag table's dimensions.
type MaskedTagParams struct {
	NumMaskedBits int
	NumMasked     int
	Mask          int
}

// ComputeMaskedTagParams picks num_masked_bits in [4, 12]: exactly 4 when
// maxFieldNumber <= 15, else floor_log2(maxFieldNumber) + 2.
func ComputeMaskedTagParams(maxFieldNumber int) MaskedTagParams {
	var bits int
	if maxFieldNumber <= 15 {
		bits = 4
	} else {
		bits = floorLog2(maxFieldNumber) + 2
	}
	numMasked := 1 << uint(bits)
	return MaskedTagParams{
		NumMaskedBits: bits,
		NumMasked:     numMasked,
		Mask:          (numMasked - 1) << 3,
	}
}

func floorLog2(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}

// ImpliedFieldNumber computes the field number that masked-table slot i
// stands for:
//
//	(i & 15) | (((i >> 5) << 4) * ((i >> 4) & 1))
func ImpliedFieldNumber(i int) int {
	return (i & 15) | (((i >> 5) << 4) * ((i >> 4) & 1))
}

// MessageLayout is the complete per-message layout: presence map, aux list,
// and masked-tag parameters.
type MessageLayout struct {
	Presence       *PresenceMap
	Aux            *AuxList
	MaxFieldNumber int
	Params         MaskedTagParams
}

// Plan walks fields (already in declaration order) with their
// classifications and builds the message's layout. classes must contain an
// entry for every field in fields.
func Plan(msgName protoreflect.FullName, fields []protoreflect.FieldDescriptor, classes map[protoreflect.FieldNumber]classify.Classification) (*MessageLayout, error) {
	pm := &PresenceMap{index: map[protoreflect.FieldNumber]int{}}
	aux := &AuxList{}
	maxNum := 0

	for _, fd := range fields {
		num := int(fd.Number())
		if num > MaxFieldNumber {
			return nil, &FieldNumberTooLargeError{Message: msgName, Field: fd}
		}
		if num > maxNum {
			maxNum = num
		}

		c := classes[fd.Number()]
		switch {
		case c.Storage == classify.StorageMessage:
			aux.entries = append(aux.entries, AuxEntry{Field: fd, Index: len(aux.entries)})
		case c.HasBitEligible:
			pm.index[fd.Number()] = pm.count
			pm.count++
		}
	}

	if maxNum == 0 {
		// Empty message: masked table still covers field numbers 0..15.
		maxNum = 0
	}

	return &MessageLayout{
		Presence:       pm,
		Aux:            aux,
		MaxFieldNumber: maxNum,
		Params:         ComputeMaskedTagParams(maxNum),
	}, nil
}
