package gen

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/tdpb/protoc-gen-tdpb/internal/classify"
	"github.com/tdpb/protoc-gen-tdpb/internal/layout"
	"github.com/tdpb/protoc-gen-tdpb/internal/mangle"
)

// noHasBit is the sentinel has_bit_idx used for fields that are not
// has-bit-eligible (message and repeated fields).
const noHasBit = 0xFFFF

// wireType returns the wire type that goes into a field's encoded_tag.
// Repeated fields of a packable scalar kind (every varint and fixed-width
// kind, but not bytes/message/group, which are already length-delimited or
// use their own start/end markers) always tag as length-delimited: the
// generator precomputes the packed tag unconditionally and leaves the
// unpacked fallback, if any, to the runtime's encoder.
func wireType(k classify.WireKind, repeated bool) protowire.Type {
	if repeated && packable(k) {
		return protowire.BytesType
	}
	switch k {
	case classify.KindFixed32:
		return protowire.Fixed32Type
	case classify.KindFixed64:
		return protowire.Fixed64Type
	case classify.KindBytes, classify.KindMessage:
		return protowire.BytesType
	case classify.KindGroup:
		return protowire.StartGroupType
	default:
		return protowire.VarintType
	}
}

func packable(k classify.WireKind) bool {
	switch k {
	case classify.KindVarint32, classify.KindVarint32Zigzag, classify.KindFixed32,
		classify.KindVarint64, classify.KindVarint64Zigzag, classify.KindFixed64:
		return true
	default:
		return false
	}
}

// emitEncodeTable emits the declaration-order encoding table used to
// serialize a message's populated fields back to wire bytes.
func emitEncodeTable(p *printer, settings *Settings, goName string, fullName protoreflect.FullName, fields []fieldInfo, mLayout *layout.MessageLayout) {
	rt := settings.RuntimePackage
	tableName := mangle.Table("ENCODING_TABLE", string(fullName))

	p.P("var ", tableName, " = ", rt, ".EncodingTable{")
	p.P("\tMain: []", rt, ".EncodeEntry{")
	for _, fi := range fields {
		hasBitIdx := noHasBit
		if idx, ok := mLayout.Presence.Index(fi.fd); ok {
			hasBitIdx = idx
		}

		var fieldOffset string
		if fi.class.Storage == classify.StorageMessage {
			auxIdx, _ := mLayout.Aux.IndexOf(fi.fd)
			fieldOffset = fmt.Sprintf("%d", auxIdx)
		} else {
			fieldOffset = offsetExpr(goName, fi.slotName)
		}

		// Tag: field number and wire type combined, per the wire spec
		// (google.golang.org/protobuf/encoding/protowire).
		tag := protowire.EncodeTag(protowire.Number(fi.fd.Number()), wireType(fi.class.Wire, fi.class.Repeated))

		p.P("\t\t{HasBitIdx: ", hasBitIdx, ", Wire: ", fi.class.Wire.Symbol(rt, fi.class.Repeated),
			", FieldOffset: ", fieldOffset, ", EncodedTag: ", uint64(tag), "},")
	}
	p.P("\t},")

	p.P("\tAux: []", rt, ".AuxEncodeEntry{")
	for _, e := range mLayout.Aux.Entries() {
		var slot string
		for _, fi := range fields {
			if fi.fd.Number() == e.Field.Number() {
				slot = fi.slotName
			}
		}
		childTable := mangle.Table("ENCODING_TABLE", string(e.Field.Message().FullName()))
		p.P("\t\t{Offset: ", offsetExpr(goName, slot), ", Table: &", childTable, "},")
	}
	p.P("\t},")
	p.P("}")
	p.P()
}
