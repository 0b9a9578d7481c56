// Package classify maps protobuf field descriptors onto the three
// classification axes the generator needs: storage kind (how the field is
// laid out in the value type), accessor kind (what the getter/setter surface
// looks like), and wire kind (how the runtime decodes/encodes it).
package classify

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// StorageKind is how a field's bytes are laid out inside the generated value
// type.
type StorageKind int

const (
	StorageInvalid StorageKind = iota
	StorageInt32               // 32-bit signed (int32, sint32, sfixed32)
	StorageUint32              // 32-bit unsigned (uint32, fixed32)
	StorageInt64               // 64-bit signed (int64, sint64, sfixed64)
	StorageUint64              // 64-bit unsigned (uint64, fixed64)
	StorageFloat32
	StorageFloat64
	StorageBool
	StorageBytes   // owned byte sequence; backs both `bytes` and `string`
	StorageMessage // owning pointer, null == absent
)

// AccessorKind selects the shape of the getter/setter pair the message
// emitter produces for a field.
type AccessorKind int

const (
	AccessorScalar AccessorKind = iota // getter/setter by value
	AccessorText                       // read-only text view (string)
	AccessorBytes                      // read-only byte view ([]byte)
	AccessorEnum                       // tagged-enum option
	AccessorMessage                    // optional ref / getter_mut(arena)
)

// WireKind is the runtime's classification of how a field's bytes are laid
// out on the wire. Values name the *scalar* wire shape; RepeatedOf renders
// the Repeated-prefixed variant used for repeated fields.
type WireKind int

const (
	KindUnknown WireKind = iota
	KindVarint32
	KindVarint32Zigzag
	KindFixed32
	KindVarint64
	KindVarint64Zigzag
	KindFixed64
	KindBytes
	KindMessage
	KindGroup
)

func (k WireKind) String() string {
	switch k {
	case KindVarint32:
		return "Varint32"
	case KindVarint32Zigzag:
		return "Varint32Zigzag"
	case KindFixed32:
		return "Fixed32"
	case KindVarint64:
		return "Varint64"
	case KindVarint64Zigzag:
		return "Varint64Zigzag"
	case KindFixed64:
		return "Fixed64"
	case KindBytes:
		return "Bytes"
	case KindMessage:
		return "Message"
	case KindGroup:
		return "Group"
	default:
		return "Unknown"
	}
}

// Symbol renders the fully qualified runtime wire-kind symbol, e.g.
// "tdpb.Varint32" or "tdpb.RepeatedVarint32". runtimePkg is the local
// package alias the caller imported the runtime facade under.
func (k WireKind) Symbol(runtimePkg string, repeated bool) string {
	name := k.String()
	if repeated {
		name = "Repeated" + name
	}
	return fmt.Sprintf("%s.%s", runtimePkg, name)
}

// Classification is the full result of classifying one field.
type Classification struct {
	Storage         StorageKind
	Accessor        AccessorKind
	Wire            WireKind
	Repeated        bool
	HasBitEligible  bool // singular, non-message, non-repeated
	IsGroup         bool
	MessageOrEnum   protoreflect.Descriptor // set when Storage == StorageMessage or Accessor == AccessorEnum
}

// UnsupportedFieldTypeError is returned when the classifier has no mapping
// for a field's kind.
type UnsupportedFieldTypeError struct {
	Field protoreflect.FieldDescriptor
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("unsupported field type for %s: kind %s", e.Field.FullName(), e.Field.Kind())
}

// Field classifies a single field descriptor.
//
// Oneof member fields are rejected: presence discrimination across a real
// oneof's members is undesigned here, and this generator declines to guess.
func Field(fd protoreflect.FieldDescriptor) (Classification, error) {
	if fd.ContainingOneof() != nil && !fd.HasOptionalKeyword() {
		return Classification{}, &UnsupportedOneofError{Field: fd}
	}

	// A map field is represented by the descriptor as a repeated message
	// field pointing at a synthetic MapEntry message; the classifier does
	// not special-case it; it is just a repeated message field.
	repeated := fd.IsList() || fd.IsMap()

	var c Classification
	c.Repeated = repeated

	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sfixed32Kind:
		c.Storage, c.Accessor = StorageInt32, AccessorScalar
		if fd.Kind() == protoreflect.Sfixed32Kind {
			c.Wire = KindFixed32
		} else {
			c.Wire = KindVarint32
		}
	case protoreflect.Sint32Kind:
		c.Storage, c.Accessor, c.Wire = StorageInt32, AccessorScalar, KindVarint32Zigzag
	case protoreflect.Int64Kind, protoreflect.Sfixed64Kind:
		c.Storage, c.Accessor = StorageInt64, AccessorScalar
		if fd.Kind() == protoreflect.Sfixed64Kind {
			c.Wire = KindFixed64
		} else {
			c.Wire = KindVarint64
		}
	case protoreflect.Sint64Kind:
		c.Storage, c.Accessor, c.Wire = StorageInt64, AccessorScalar, KindVarint64Zigzag
	case protoreflect.Uint32Kind:
		c.Storage, c.Accessor, c.Wire = StorageUint32, AccessorScalar, KindVarint32
	case protoreflect.Fixed32Kind:
		c.Storage, c.Accessor, c.Wire = StorageUint32, AccessorScalar, KindFixed32
	case protoreflect.Uint64Kind:
		c.Storage, c.Accessor, c.Wire = StorageUint64, AccessorScalar, KindVarint64
	case protoreflect.Fixed64Kind:
		c.Storage, c.Accessor, c.Wire = StorageUint64, AccessorScalar, KindFixed64
	case protoreflect.FloatKind:
		c.Storage, c.Accessor, c.Wire = StorageFloat32, AccessorScalar, KindFixed32
	case protoreflect.DoubleKind:
		c.Storage, c.Accessor, c.Wire = StorageFloat64, AccessorScalar, KindFixed64
	case protoreflect.BoolKind:
		// Bool is classified as Varint32; the runtime handles the
		// single-byte encoding.
		c.Storage, c.Accessor, c.Wire = StorageBool, AccessorScalar, KindVarint32
	case protoreflect.StringKind:
		c.Storage, c.Accessor, c.Wire = StorageBytes, AccessorText, KindBytes
	case protoreflect.BytesKind:
		c.Storage, c.Accessor, c.Wire = StorageBytes, AccessorBytes, KindBytes
	case protoreflect.EnumKind:
		// Enum fields are Varint32, same resolution as bool above.
		c.Storage, c.Accessor, c.Wire = StorageInt32, AccessorEnum, KindVarint32
		c.MessageOrEnum = fd.Enum()
	case protoreflect.MessageKind:
		c.Storage, c.Accessor, c.Wire = StorageMessage, AccessorMessage, KindMessage
		c.MessageOrEnum = fd.Message()
	case protoreflect.GroupKind:
		c.Storage, c.Accessor, c.Wire = StorageMessage, AccessorMessage, KindGroup
		c.MessageOrEnum = fd.Message()
		c.IsGroup = true
	default:
		return Classification{}, &UnsupportedFieldTypeError{Field: fd}
	}

	c.HasBitEligible = !repeated && c.Storage != StorageMessage
	return c, nil
}

// UnsupportedOneofError is returned for a field that is a member of a real
// oneof (as opposed to a synthetic proto3-optional oneof, which the
// classifier treats as an ordinary has-bit-eligible singular field).
type UnsupportedOneofError struct {
	Field protoreflect.FieldDescriptor
}

func (e *UnsupportedOneofError) Error() string {
	return fmt.Sprintf("oneof member %s not supported: presence discrimination beyond has-bits is undesigned", e.Field.FullName())
}
