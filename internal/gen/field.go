package gen

import (
	"fmt"

	"github.com/iancoleman/strcase"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/tdpb/protoc-gen-tdpb/internal/classify"
	"github.com/tdpb/protoc-gen-tdpb/internal/mangle"
)

// fieldInfo bundles a field descriptor with everything the message emitter
// needs to know about it: its classification, its Go accessor name, its
// struct slot name, and the Go type of that slot.
type fieldInfo struct {
	fd    protoreflect.FieldDescriptor
	class classify.Classification

	accessorName string // exported: GetFoo/SetFoo
	slotName     string // unexported struct field
	slotType     string // Go type of the struct field
}

func buildFieldInfo(fd protoreflect.FieldDescriptor, c classify.Classification, settings *Settings) fieldInfo {
	fi := fieldInfo{
		fd:           fd,
		class:        c,
		accessorName: strcase.ToCamel(string(fd.Name())),
		slotName:     mangle.Field(string(fd.Name())),
	}
	fi.slotType = slotGoType(fd, c, settings)
	return fi
}

func scalarGoType(k classify.StorageKind) string {
	switch k {
	case classify.StorageInt32:
		return "int32"
	case classify.StorageUint32:
		return "uint32"
	case classify.StorageInt64:
		return "int64"
	case classify.StorageUint64:
		return "uint64"
	case classify.StorageFloat32:
		return "float32"
	case classify.StorageFloat64:
		return "float64"
	case classify.StorageBool:
		return "bool"
	case classify.StorageBytes:
		return "[]byte"
	default:
		return "int32"
	}
}

// slotGoType returns the Go type of a field's storage slot: the base type
// wrapped in the runtime's RepeatedField container when repeated, an owning
// pointer for message/group fields, and the mangled enum type for enum
// fields.
func slotGoType(fd protoreflect.FieldDescriptor, c classify.Classification, settings *Settings) string {
	var base string
	switch {
	case c.Accessor == classify.AccessorEnum:
		base = mangle.Type(string(fd.Enum().FullName()))
	case c.Storage == classify.StorageMessage:
		base = "*" + mangle.Type(string(fd.Message().FullName()))
	default:
		base = scalarGoType(c.Storage)
	}

	if c.Repeated {
		return fmt.Sprintf("%s.RepeatedField[%s]", settings.RuntimePackage, base)
	}
	return base
}

// offsetExpr renders a compile-time-constant unsafe.Offsetof expression
// naming the struct field, letting the target Go compiler resolve the
// concrete offset, so the compiler resolves the real struct layout.
func offsetExpr(msgGoName, slot string) string {
	return fmt.Sprintf("uint16(unsafe.Offsetof((*%s)(nil).%s))", msgGoName, slot)
}
