package gen

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/tdpb/protoc-gen-tdpb/internal/mangle"
)

// emitEnum emits a tagged integer type, a number->variant partial inverse
// (FromNumber), and a variant->number total projection (ToNumber, trivial
// here since the underlying representation already is the declared number).
func emitEnum(p *printer, ed protoreflect.EnumDescriptor) {
	goName := mangle.Type(string(ed.FullName()))
	values := ed.Values()

	p.P("// ", goName, " is generated from enum ", ed.FullName(), ".")
	p.P("type ", goName, " int32")
	p.P()

	p.P("const (")
	seen := map[protoreflect.EnumNumber]bool{}
	for i := 0; i < values.Len(); i++ {
		v := values.Get(i)
		variantName := goName + "_" + mangle.Field(string(v.Name()))
		p.P("\t", variantName, " ", goName, " = ", int32(v.Number()))
		seen[v.Number()] = true
	}
	p.P(")")
	p.P()

	// FromNumber: partial, first-declaration-wins on duplicate numbers.
	p.P("// ", goName, "FromNumber returns the declared variant for n, in")
	p.P("// declaration order; if n matches more than one declared value the")
	p.P("// first one wins. Returns false if n is not a declared value.")
	p.P("func ", goName, "FromNumber(n int32) (", goName, ", bool) {")
	p.P("\tswitch n {")
	emittedNumbers := map[protoreflect.EnumNumber]bool{}
	for i := 0; i < values.Len(); i++ {
		v := values.Get(i)
		if emittedNumbers[v.Number()] {
			continue
		}
		emittedNumbers[v.Number()] = true
		variantName := goName + "_" + mangle.Field(string(v.Name()))
		p.P("\tcase ", int32(v.Number()), ":")
		p.P("\t\treturn ", variantName, ", true")
	}
	p.P("\tdefault:")
	p.P("\t\treturn 0, false")
	p.P("\t}")
	p.P("}")
	p.P()

	// ToNumber: total, since the type's representation is the number.
	p.P("// ", goName, "ToNumber returns the declared number of v.")
	p.P("func ", goName, "ToNumber(v ", goName, ") int32 {")
	p.P("\treturn int32(v)")
	p.P("}")
	p.P()
}
