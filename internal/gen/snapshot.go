package gen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// emitSnapshot walks the file's own descriptor
// (obtained via protodesc.ToFileDescriptorProto, the same conversion
// golang-protobuf's and protocolbuffers-protobuf-go's protoc-gen-go use to
// turn a live protoreflect.FileDescriptor back into a descriptorpb value)
// and emits a literal constant.
//
// The literal targets the runtime facade's own bootstrap descriptor types
// (settings.RuntimePackage + the proto message's bare name, e.g.
// tdpb.FileDescriptorProto, tdpb.DescriptorProto, ...): the runtime cannot
// depend on this generator's own output to represent descriptor.proto
// without a chicken-and-egg problem, so it ships those types hand-written,
// the same way every real protobuf runtime hand-writes its own bootstrap
// representation of descriptor.proto. This generator only needs to know
// their field names, which are just strcase.ToCamel of the descriptor
// proto's own field names — the same convention this generator uses for
// every other message's accessors.
func emitSnapshot(p *printer, settings *Settings, file protoreflect.FileDescriptor) {
	fdProto := protodesc.ToFileDescriptorProto(file)
	lit := messageLiteral(settings, fdProto.ProtoReflect(), "\t")

	p.P("// FILE_DESCRIPTOR_PROTO is a bootstrap payload: the runtime can")
	p.P("// decode it lazily to expose reflection over this file without")
	p.P("// re-deriving it from the .proto source.")
	p.P("var FILE_DESCRIPTOR_PROTO = ", lit)
	p.P()
}

// messageLiteral recursively renders a protoreflect.Message as a Go
// composite literal against the runtime's bootstrap descriptor type. Every
// declared field is emitted as a name/value pair in declaration order; the
// has-bit-eligible fields additionally contribute a 1 bit to a Presence
// array, in that same declaration order, for every singular non-message
// field that is actually set on the source message.
func messageLiteral(settings *Settings, msg protoreflect.Message, indent string) string {
	desc := msg.Descriptor()
	typeName := settings.RuntimePackage + "." + string(desc.Name())
	fields := desc.Fields()

	var presenceWords []uint32
	presenceIdx := 0
	var lines []string

	inner := indent + "\t"
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		goName := strcase.ToCamel(string(fd.Name()))

		switch {
		case fd.IsMap():
			m := msg.Get(fd).Map()
			var elems []string
			m.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
				entryType := settings.RuntimePackage + "." + string(fd.MapValue().Message().Name()) + "Entry"
				elems = append(elems, fmt.Sprintf("&%s{Key: %s, Value: %s}", entryType,
					scalarLiteral(fd.MapKey(), k.Value()), valueLiteral(settings, fd.MapValue(), v, inner+"\t")))
				return true
			})
			lines = append(lines, fmt.Sprintf("%s%s: %s.RepeatedFrom([]*%s.%sEntry{\n%s\n%s}),",
				inner, goName, settings.RuntimePackage, settings.RuntimePackage,
				string(fd.MapValue().Message().Name()), strings.Join(elems, ",\n"), inner))
		case fd.IsList():
			list := msg.Get(fd).List()
			elemType := repeatedLiteralElemType(settings, fd)
			elems := make([]string, list.Len())
			for j := 0; j < list.Len(); j++ {
				elems[j] = valueLiteral(settings, fd, list.Get(j), inner+"\t")
			}
			lines = append(lines, fmt.Sprintf("%s%s: %s.RepeatedFrom([]%s{\n%s\n%s}),",
				inner, goName, settings.RuntimePackage, elemType, strings.Join(elems, ",\n"), inner))
		case fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind:
			if msg.Has(fd) {
				lines = append(lines, fmt.Sprintf("%s%s: %s,", inner, goName, valueLiteral(settings, fd, msg.Get(fd), inner)))
			} else {
				lines = append(lines, fmt.Sprintf("%s%s: nil,", inner, goName))
			}
		default:
			if msg.Has(fd) {
				presenceWords = setBit(presenceWords, presenceIdx)
				lines = append(lines, fmt.Sprintf("%s%s: %s,", inner, goName, valueLiteral(settings, fd, msg.Get(fd), inner)))
			} else {
				lines = append(lines, fmt.Sprintf("%s%s: %s,", inner, goName, zeroLiteral(fd)))
			}
			presenceIdx++
		}
	}

	presenceLit := presenceArrayLiteral(presenceWords, (presenceIdx+31)/32)
	body := fmt.Sprintf("%sPresence: %s,\n%s", inner, presenceLit, strings.Join(lines, "\n"))
	return fmt.Sprintf("&%s{\n%s\n%s}", typeName, body, indent)
}

func setBit(words []uint32, idx int) []uint32 {
	w := idx / 32
	for len(words) <= w {
		words = append(words, 0)
	}
	words[w] |= 1 << uint(idx%32)
	return words
}

func presenceArrayLiteral(words []uint32, wantLen int) string {
	for len(words) < wantLen {
		words = append(words, 0)
	}
	if wantLen == 0 {
		return "[0]uint32{}"
	}
	parts := make([]string, wantLen)
	for i, w := range words[:wantLen] {
		parts[i] = fmt.Sprintf("0x%x", w)
	}
	return fmt.Sprintf("[%d]uint32{%s}", wantLen, strings.Join(parts, ", "))
}

func repeatedLiteralElemType(settings *Settings, fd protoreflect.FieldDescriptor) string {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return "*" + settings.RuntimePackage + "." + string(fd.Message().Name())
	case protoreflect.EnumKind:
		return "int32"
	case protoreflect.StringKind:
		return "string"
	case protoreflect.BytesKind:
		return "[]byte"
	case protoreflect.BoolKind:
		return "bool"
	case protoreflect.FloatKind:
		return "float32"
	case protoreflect.DoubleKind:
		return "float64"
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return "int64"
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return "uint64"
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return "uint32"
	default:
		return "int32"
	}
}

func valueLiteral(settings *Settings, fd protoreflect.FieldDescriptor, v protoreflect.Value, indent string) string {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return messageLiteral(settings, v.Message(), indent)
	default:
		return scalarLiteral(fd, v)
	}
}

// scalarLiteral renders a non-message value. Enums emit the numeric value,
// not the variant name.
func scalarLiteral(fd protoreflect.FieldDescriptor, v protoreflect.Value) string {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return fmt.Sprintf("%t", v.Bool())
	case protoreflect.EnumKind:
		return fmt.Sprintf("int32(%d)", int32(v.Enum()))
	case protoreflect.StringKind:
		return strconv.Quote(v.String())
	case protoreflect.BytesKind:
		return fmt.Sprintf("[]byte(%s)", strconv.Quote(string(v.Bytes())))
	case protoreflect.FloatKind:
		return fmt.Sprintf("float32(%v)", v.Float())
	case protoreflect.DoubleKind:
		return fmt.Sprintf("%v", v.Float())
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return fmt.Sprintf("int32(%d)", int32(v.Int()))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return fmt.Sprintf("int64(%d)", v.Int())
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return fmt.Sprintf("uint32(%d)", uint32(v.Uint()))
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return fmt.Sprintf("uint64(%d)", v.Uint())
	default:
		return "0"
	}
}

// zeroLiteral is the default value used for an absent scalar field: 0, 0.0,
// false, or empty container.
func zeroLiteral(fd protoreflect.FieldDescriptor) string {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return "false"
	case protoreflect.StringKind:
		return `""`
	case protoreflect.BytesKind:
		return "nil"
	case protoreflect.FloatKind:
		return "float32(0)"
	case protoreflect.DoubleKind:
		return "float64(0)"
	case protoreflect.EnumKind:
		return "int32(0)"
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return "uint32(0)"
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return "uint64(0)"
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return "int64(0)"
	default:
		return "int32(0)"
	}
}
