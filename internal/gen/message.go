package gen

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/tdpb/protoc-gen-tdpb/internal/classify"
	"github.com/tdpb/protoc-gen-tdpb/internal/layout"
	"github.com/tdpb/protoc-gen-tdpb/internal/logger"
	"github.com/tdpb/protoc-gen-tdpb/internal/mangle"
)

// emitMessage emits nested enums, then the value type,
// accessors, decoding table, encoding table, then a recursive descent into
// nested messages.
func emitMessage(p *printer, settings *Settings, md protoreflect.MessageDescriptor) error {
	logger.Log.Named("message").Debug(string(md.FullName()))

	// 1. Nested enums first (they may be referenced by field accessors
	// below).
	enums := md.Enums()
	for i := 0; i < enums.Len(); i++ {
		emitEnum(p, enums.Get(i))
	}

	goName := mangle.Type(string(md.FullName()))
	fds := md.Fields()

	classes := make(map[protoreflect.FieldNumber]classify.Classification, fds.Len())
	ordered := make([]protoreflect.FieldDescriptor, 0, fds.Len())
	for i := 0; i < fds.Len(); i++ {
		fd := fds.Get(i)
		c, err := classify.Field(fd)
		if err != nil {
			return err
		}
		classes[fd.Number()] = c
		ordered = append(ordered, fd)
	}

	mLayout, err := layout.Plan(md.FullName(), ordered, classes)
	if err != nil {
		return err
	}

	fields := make([]fieldInfo, 0, len(ordered))
	for _, fd := range ordered {
		fields = append(fields, buildFieldInfo(fd, classes[fd.Number()], settings))
	}

	// 2. The value-type declaration.
	emitStruct(p, goName, mLayout, fields)

	// 3. Accessors, one pair per field.
	for _, fi := range fields {
		emitAccessors(p, settings, goName, fi, mLayout)
	}

	// 4 & 5. Decoding and encoding tables.
	if err := emitDecodeTable(p, settings, goName, md.FullName(), fields, classes, mLayout); err != nil {
		return err
	}
	emitEncodeTable(p, settings, goName, md.FullName(), fields, mLayout)
	emitConformance(p, settings, goName, md.FullName())

	// 6. Recurse into nested messages.
	nested := md.Messages()
	for i := 0; i < nested.Len(); i++ {
		if nested.Get(i).IsMapEntry() {
			// Map entries are synthetic; they are never emitted as a
			// standalone type, only referenced as a repeated aux entry.
			continue
		}
		if err := emitMessage(p, settings, nested.Get(i)); err != nil {
			return err
		}
	}
	return nil
}

func emitStruct(p *printer, goName string, mLayout *layout.MessageLayout, fields []fieldInfo) {
	p.P("// ", goName, " is a table-driven value type; fields carry no")
	p.P("// wire-format tags of their own, see DECODING_TABLE_", goName, " and")
	p.P("// ENCODING_TABLE_", goName, ".")
	p.P("type ", goName, " struct {")
	p.P("\t_presence [", mLayout.Presence.WordCount(), "]uint32")
	for _, fi := range fields {
		p.P("\t", fi.slotName, " ", fi.slotType)
	}
	p.P("}")
	p.P()
}

func emitConformance(p *printer, settings *Settings, goName string, fullName protoreflect.FullName) {
	decodeName := mangle.Table("DECODING_TABLE", string(fullName))
	encodeName := mangle.Table("ENCODING_TABLE", string(fullName))
	rt := settings.RuntimePackage
	p.P("func (m *", goName, ") TDPBDecodingTable() *", rt, ".DecodingTable { return &", decodeName, " }")
	p.P("func (m *", goName, ") TDPBEncodingTable() *", rt, ".EncodingTable { return &", encodeName, " }")
	p.P()
}
