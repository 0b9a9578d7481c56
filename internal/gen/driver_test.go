package gen

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tdpb/protoc-gen-tdpb/internal/layout"
)

// fakeSink is an in-memory gen.Sink backed by a bytes.Buffer.
type fakeSink struct {
	bytes.Buffer
}

// fakeContext is an in-memory gen.Context that records every opened file by
// name, so a test can assert on exactly what a driver run produced without a
// real protoc invocation.
type fakeContext struct {
	files    map[string]*fakeSink
	failOpen error
}

func newFakeContext() *fakeContext {
	return &fakeContext{files: map[string]*fakeSink{}}
}

func (c *fakeContext) Open(name string) (Sink, error) {
	if c.failOpen != nil {
		return nil, c.failOpen
	}
	s := &fakeSink{}
	c.files[name] = s
	return s, nil
}

func buildTestFile(t *testing.T, fdProto *descriptorpb.FileDescriptorProto) protoreflect.FileDescriptor {
	t.Helper()
	fd, err := protodesc.NewFile(fdProto, nil)
	require.NoError(t, err)
	return fd
}

func scalarFieldProto(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(num),
		Type:     typ.Enum(),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		JsonName: proto.String(name),
	}
}

func TestGenerateFileEmptyMessage(t *testing.T) {
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("empty.proto"),
		Package: proto.String("t"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: proto.String("Empty")},
		},
	}
	file := buildTestFile(t, fdProto)
	ctx := newFakeContext()
	d := NewDriver(nil)
	require.NoError(t, d.GenerateFile(ctx, file))

	out, ok := ctx.files["empty.tdpb.go"]
	require.True(t, ok)
	src := out.String()
	require.Contains(t, src, "package t")
	require.Contains(t, src, "type t_Empty struct {")
	require.Contains(t, src, "_presence [0]uint32")
	require.Contains(t, src, "DECODING_TABLE_t_Empty")
	require.Contains(t, src, "ENCODING_TABLE_t_Empty")
}

func TestGenerateFileSingleScalarField(t *testing.T) {
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("scalar.proto"),
		Package: proto.String("t"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("M"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarFieldProto("count", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				},
			},
		},
	}
	file := buildTestFile(t, fdProto)
	ctx := newFakeContext()
	d := NewDriver(nil)
	require.NoError(t, d.GenerateFile(ctx, file))

	src := ctx.files["scalar.tdpb.go"].String()
	require.Contains(t, src, "count int32")
	require.Contains(t, src, "func (m *t_M) GetCount() int32 {")
	require.Contains(t, src, "func (m *t_M) SetCount(v int32) {")
	require.Contains(t, src, "func (m *t_M) HasCount() bool {")
}

func TestGenerateFileStringField(t *testing.T) {
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("str.proto"),
		Package: proto.String("t"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("M"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarFieldProto("name", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
		},
	}
	file := buildTestFile(t, fdProto)
	ctx := newFakeContext()
	d := NewDriver(nil)
	require.NoError(t, d.GenerateFile(ctx, file))

	src := ctx.files["str.tdpb.go"].String()
	require.Contains(t, src, "name []byte")
	require.Contains(t, src, "func (m *t_M) GetName() string {")
	require.Contains(t, src, "func (m *t_M) SetName(v string) {")
}

func TestGenerateFileNestedMessage(t *testing.T) {
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("nested.proto"),
		Package: proto.String("t"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Outer"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:     proto.String("inner"),
						Number:   proto.Int32(1),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						TypeName: proto.String(".t.Outer.Inner"),
						JsonName: proto.String("inner"),
					},
				},
				NestedType: []*descriptorpb.DescriptorProto{
					{
						Name: proto.String("Inner"),
						Field: []*descriptorpb.FieldDescriptorProto{
							scalarFieldProto("v", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
						},
					},
				},
			},
		},
	}
	file := buildTestFile(t, fdProto)
	ctx := newFakeContext()
	d := NewDriver(nil)
	require.NoError(t, d.GenerateFile(ctx, file))

	src := ctx.files["nested.tdpb.go"].String()
	require.Contains(t, src, "type t_Outer struct {")
	require.Contains(t, src, "type t_Outer_Inner struct {")
	require.Contains(t, src, "inner *t_Outer_Inner")
	require.Contains(t, src, "func (m *t_Outer) GetInner() *t_Outer_Inner {")
	require.Contains(t, src, "func (m *t_Outer) GetInnerMut(")
}

func TestGenerateFileRepeatedAndEnum(t *testing.T) {
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("repenum.proto"),
		Package: proto.String("t"),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			{
				Name: proto.String("E"),
				Value: []*descriptorpb.EnumValueDescriptorProto{
					{Name: proto.String("A"), Number: proto.Int32(0)},
					{Name: proto.String("B"), Number: proto.Int32(1)},
				},
			},
		},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("R"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:     proto.String("es"),
						Number:   proto.Int32(3),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_ENUM.Enum(),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
						TypeName: proto.String(".t.E"),
						JsonName: proto.String("es"),
					},
				},
			},
		},
	}
	file := buildTestFile(t, fdProto)
	ctx := newFakeContext()
	d := NewDriver(nil)
	require.NoError(t, d.GenerateFile(ctx, file))

	src := ctx.files["repenum.tdpb.go"].String()
	require.Contains(t, src, "type t_E int32")
	require.Contains(t, src, "t_E_A t_E = 0")
	require.Contains(t, src, "t_E_B t_E = 1")
	require.Contains(t, src, "es tdpb.RepeatedField[t_E]")
	require.Contains(t, src, "func (m *t_R) GetEs() []t_E {")

	// spec scenario 5: repeated field 3, wire kind RepeatedVarint32, but the
	// table's precomputed tag is the packed (length-delimited) form:
	// (3<<3)|2 = 26, not the scalar varint tag (3<<3)|0 = 24.
	require.Contains(t, src, "Wire: tdpb.RepeatedVarint32")
	require.Contains(t, src, "EncodedTag: 26")
	require.NotContains(t, src, "EncodedTag: 24")
}

func TestGenerateFileEnumOnlyOmitsUnsafeImport(t *testing.T) {
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("enumonly.proto"),
		Package: proto.String("t"),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			{
				Name: proto.String("Color"),
				Value: []*descriptorpb.EnumValueDescriptorProto{
					{Name: proto.String("RED"), Number: proto.Int32(0)},
					{Name: proto.String("BLUE"), Number: proto.Int32(1)},
				},
			},
		},
	}
	file := buildTestFile(t, fdProto)
	ctx := newFakeContext()
	d := NewDriver(nil)
	require.NoError(t, d.GenerateFile(ctx, file))

	src := ctx.files["enumonly.tdpb.go"].String()
	require.Contains(t, src, "type t_Color int32")
	require.NotContains(t, src, "\"unsafe\"")
}

func TestGenerateFileRejectsOversizedFieldNumber(t *testing.T) {
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("toolarge.proto"),
		Package: proto.String("t"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("M"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarFieldProto("x", 2048, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				},
			},
		},
	}
	file := buildTestFile(t, fdProto)
	ctx := newFakeContext()
	d := NewDriver(nil)
	err := d.GenerateFile(ctx, file)
	require.Error(t, err)
	var tooLarge *layout.FieldNumberTooLargeError
	require.ErrorAs(t, err, &tooLarge)
}

func TestGenerateFileSinkOpenFailurePropagates(t *testing.T) {
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("fail.proto"),
		Package: proto.String("t"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: proto.String("M")},
		},
	}
	file := buildTestFile(t, fdProto)
	ctx := newFakeContext()
	ctx.failOpen = errors.New("disk full")
	d := NewDriver(nil)
	err := d.GenerateFile(ctx, file)
	require.Error(t, err)
	var sinkErr *SinkFailureError
	require.ErrorAs(t, err, &sinkErr)
}

func TestGenerateFileOmitSnapshot(t *testing.T) {
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("omit.proto"),
		Package: proto.String("t"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: proto.String("M")},
		},
	}
	file := buildTestFile(t, fdProto)
	ctx := newFakeContext()
	settings := DefaultSettings()
	settings.OmitSnapshot = true
	d := NewDriver(settings)
	require.NoError(t, d.GenerateFile(ctx, file))

	src := ctx.files["omit.tdpb.go"].String()
	require.NotContains(t, src, "FILE_DESCRIPTOR_PROTO")
}
