package gen

import (
	"github.com/tdpb/protoc-gen-tdpb/internal/classify"
	"github.com/tdpb/protoc-gen-tdpb/internal/layout"
	"github.com/tdpb/protoc-gen-tdpb/internal/mangle"
)

// emitAccessors emits one accessor pair per field, shaped by the field's
// classification.
func emitAccessors(p *printer, settings *Settings, goName string, fi fieldInfo, mLayout *layout.MessageLayout) {
	switch {
	case fi.class.Repeated:
		emitRepeatedAccessors(p, settings, goName, fi)
	case fi.class.Storage == classify.StorageMessage:
		emitMessageAccessors(p, settings, goName, fi)
	case fi.class.Accessor == classify.AccessorText:
		emitBytesLikeAccessors(p, goName, fi, mLayout, true)
	case fi.class.Accessor == classify.AccessorBytes:
		emitBytesLikeAccessors(p, goName, fi, mLayout, false)
	default: // AccessorScalar, AccessorEnum
		emitScalarAccessors(p, goName, fi, mLayout)
	}
}

func hasBitExpr(mLayout *layout.MessageLayout, fi fieldInfo) (word, mask int) {
	idx, _ := mLayout.Presence.Index(fi.fd)
	return idx / 32, 1 << uint(idx%32)
}

func emitScalarAccessors(p *printer, goName string, fi fieldInfo, mLayout *layout.MessageLayout) {
	word, mask := hasBitExpr(mLayout, fi)
	typ := fi.slotType

	p.P("func (m *", goName, ") Get", fi.accessorName, "() ", typ, " {")
	p.P("\treturn m.", fi.slotName)
	p.P("}")
	p.P("func (m *", goName, ") Set", fi.accessorName, "(v ", typ, ") {")
	p.P("\tm.", fi.slotName, " = v")
	p.P("\tm._presence[", word, "] |= ", mask)
	p.P("}")
	p.P("func (m *", goName, ") Has", fi.accessorName, "() bool {")
	p.P("\treturn m._presence[", word, "]&", mask, " != 0")
	p.P("}")
	p.P()
}

func emitBytesLikeAccessors(p *printer, goName string, fi fieldInfo, mLayout *layout.MessageLayout, asText bool) {
	word, mask := hasBitExpr(mLayout, fi)

	if asText {
		p.P("// Get", fi.accessorName, " returns a read-only text view; the")
		p.P("// returned string aliases the field's owned buffer.")
		p.P("func (m *", goName, ") Get", fi.accessorName, "() string {")
		p.P("\treturn unsafe.String(unsafe.SliceData(m.", fi.slotName, "), len(m.", fi.slotName, "))")
		p.P("}")
		p.P("func (m *", goName, ") Set", fi.accessorName, "(v string) {")
		p.P("\tm.", fi.slotName, " = []byte(v)")
		p.P("\tm._presence[", word, "] |= ", mask)
		p.P("}")
	} else {
		p.P("// Get", fi.accessorName, " returns a read-only view of the owned buffer.")
		p.P("func (m *", goName, ") Get", fi.accessorName, "() []byte {")
		p.P("\treturn m.", fi.slotName)
		p.P("}")
		p.P("func (m *", goName, ") Set", fi.accessorName, "(v []byte) {")
		p.P("\tm.", fi.slotName, " = v")
		p.P("\tm._presence[", word, "] |= ", mask)
		p.P("}")
	}
	p.P("func (m *", goName, ") Has", fi.accessorName, "() bool {")
	p.P("\treturn m._presence[", word, "]&", mask, " != 0")
	p.P("}")
	p.P()
}

func emitMessageAccessors(p *printer, settings *Settings, goName string, fi fieldInfo) {
	childName := mangle.Type(string(fi.fd.Message().FullName()))
	p.P("// Get", fi.accessorName, " returns nil when the field is absent; absence")
	p.P("// is signalled by a nil pointer, not a has-bit.")
	p.P("func (m *", goName, ") Get", fi.accessorName, "() *", childName, " {")
	p.P("\treturn m.", fi.slotName)
	p.P("}")
	p.P("// Get", fi.accessorName, "Mut lazily allocates the child in arena when absent.")
	p.P("func (m *", goName, ") Get", fi.accessorName, "Mut(arena *", settings.RuntimePackage, ".Arena) *", childName, " {")
	p.P("\tif m.", fi.slotName, " == nil {")
	p.P("\t\tm.", fi.slotName, " = ", settings.RuntimePackage, ".NewInArena[", childName, "](arena)")
	p.P("\t}")
	p.P("\treturn m.", fi.slotName)
	p.P("}")
	p.P()
}

func emitRepeatedAccessors(p *printer, settings *Settings, goName string, fi fieldInfo) {
	p.P("func (m *", goName, ") Get", fi.accessorName, "() []", repeatedElemType(fi, settings), " {")
	p.P("\treturn m.", fi.slotName, ".Values()")
	p.P("}")
	p.P("func (m *", goName, ") Get", fi.accessorName, "Mut() *", fi.slotType, " {")
	p.P("\treturn &m.", fi.slotName)
	p.P("}")
	p.P()
}

func repeatedElemType(fi fieldInfo, settings *Settings) string {
	switch {
	case fi.class.Accessor == classify.AccessorEnum:
		return mangle.Type(string(fi.fd.Enum().FullName()))
	case fi.class.Storage == classify.StorageMessage:
		return "*" + mangle.Type(string(fi.fd.Message().FullName()))
	default:
		return scalarGoType(fi.class.Storage)
	}
}
