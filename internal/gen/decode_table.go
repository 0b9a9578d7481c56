package gen

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/tdpb/protoc-gen-tdpb/internal/classify"
	"github.com/tdpb/protoc-gen-tdpb/internal/layout"
	"github.com/tdpb/protoc-gen-tdpb/internal/mangle"
)

// emitDecodeTable emits the masked-tag decoding table used to route an
// incoming wire tag to the field it decodes into.
//
// Adaptation note (recorded in DESIGN.md): a wire-format description of a message
// field's masked-table payload as "the byte offset of the corresponding
// auxiliary entry inside the composite". Go slices are not laid out inline
// in their parent struct (a slice header is three words pointing at
// separately-allocated backing storage), so "offset of the Nth aux entry
// inside the composite" is not a meaningful compile-time constant the way it
// is for a language with an inline fixed-size array field. We carry the
// aux_idx instead, and the runtime facade indexes Aux[aux_idx] rather than
// doing pointer arithmetic into the composite. This preserves the
// decoding-table-coverage invariant (every declared field number resolves to
// its slot) without depending on layout guarantees Go does not make.
func emitDecodeTable(p *printer, settings *Settings, goName string, fullName protoreflect.FullName, fields []fieldInfo, classes map[protoreflect.FieldNumber]classify.Classification, mLayout *layout.MessageLayout) error {
	rt := settings.RuntimePackage
	tableName := mangle.Table("DECODING_TABLE", string(fullName))

	byNumber := make(map[int]fieldInfo, len(fields))
	for _, fi := range fields {
		byNumber[int(fi.fd.Number())] = fi
	}

	p.P("var ", tableName, " = ", rt, ".DecodingTable{")
	p.P("\tMask: ", mLayout.Params.Mask, ",")
	p.P("\tStructSize: uint32(unsafe.Sizeof(", goName, "{})),")
	p.P("\tMain: [", mLayout.Params.NumMasked, "]", rt, ".DecodeEntry{")
	for i := 0; i < mLayout.Params.NumMasked; i++ {
		implied := layout.ImpliedFieldNumber(i)
		fi, ok := byNumber[implied]
		if !ok {
			p.P("\t\t{}, // slot ", i, ": unused")
			continue
		}
		if fi.class.Storage == classify.StorageMessage {
			auxIdx, ok := mLayout.Aux.IndexOf(fi.fd)
			if !ok {
				return &MalformedDescriptorError{Detail: fmt.Sprintf("message field %s missing aux entry", fi.fd.FullName())}
			}
			p.P("\t\t{Payload: ", auxIdx, ", Kind: ", fi.class.Wire.Symbol(rt, fi.class.Repeated), "}, // field ", implied)
			continue
		}
		hasBitIdx := 0
		if idx, ok := mLayout.Presence.Index(fi.fd); ok {
			hasBitIdx = idx
		}
		payload := fmt.Sprintf("%s | uint16(%d)<<10", offsetExpr(goName, fi.slotName), hasBitIdx)
		p.P("\t\t{Payload: ", payload, ", Kind: ", fi.class.Wire.Symbol(rt, fi.class.Repeated), "}, // field ", implied)
	}
	p.P("\t},")

	p.P("\tAux: []", rt, ".AuxDecodeEntry{")
	for _, e := range mLayout.Aux.Entries() {
		fi := byNumber[int(e.Field.Number())]
		childTable := mangle.Table("DECODING_TABLE", string(e.Field.Message().FullName()))
		p.P("\t\t{Offset: ", offsetExpr(goName, fi.slotName), ", Table: &", childTable, "},")
	}
	p.P("\t},")
	p.P("}")
	p.P()
	return nil
}
