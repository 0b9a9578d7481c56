// Package gen implements the plugin driver and the emission stages (enum,
// message, decoding table, encoding table, descriptor snapshot) that turn a
// file descriptor into generated Go source.
package gen

import (
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tdpb/protoc-gen-tdpb/internal/logger"
	"github.com/tdpb/protoc-gen-tdpb/internal/mangle"
)

// Sink is a writable byte sink for one output file.
type Sink interface {
	io.Writer
}

// Context is the narrow collaborator the driver depends on: it can open a
// named sink. It intentionally knows nothing about protoc, stdin/stdout
// framing, or *protogen.Plugin, so the driver is unit-testable against an
// in-memory fake.
type Context interface {
	Open(name string) (Sink, error)
}

// Driver runs the per-file generation pipeline.
type Driver struct {
	Settings *Settings
}

// NewDriver constructs a Driver, defaulting to DefaultSettings when settings
// is nil.
func NewDriver(settings *Settings) *Driver {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &Driver{Settings: settings}
}

// GenerateFile opens the output sink and emits the prologue, enums,
// messages, and descriptor snapshot for a single input file.
func (d *Driver) GenerateFile(ctx Context, file protoreflect.FileDescriptor) error {
	log := logger.Log.Named("driver")

	outName := outputName(file.Path(), d.Settings.SourceExt)
	sink, err := ctx.Open(outName)
	if err != nil {
		log.Error("sink open failed", zap.Error(err))
		return &SinkFailureError{Name: outName, Err: err}
	}

	p := newPrinter(sink)
	emitPrologue(p, d.Settings, file, hasAnyMessage(file.Messages()))

	enums := file.Enums()
	for i := 0; i < enums.Len(); i++ {
		emitEnum(p, enums.Get(i))
	}

	messages := file.Messages()
	for i := 0; i < messages.Len(); i++ {
		if err := emitMessage(p, d.Settings, messages.Get(i)); err != nil {
			log.Error("message emission failed", zap.Error(err))
			return err
		}
	}

	if !d.Settings.OmitSnapshot {
		emitSnapshot(p, d.Settings, file)
	}

	if err := p.Err(); err != nil {
		log.Error("sink write failed", zap.Error(err))
		return &SinkFailureError{Name: outName, Err: err}
	}
	return nil
}

func outputName(protoPath, sourceExt string) string {
	stem := strings.TrimSuffix(protoPath, ".proto")
	return stem + sourceExt
}

// generationID is minted once per process, so every file one plugin
// invocation emits carries the same id in its banner.
var generationID = uuid.NewString()

func emitPrologue(p *printer, settings *Settings, file protoreflect.FileDescriptor, needsUnsafe bool) {
	p.P("// Code generated by protoc-gen-tdpb. DO NOT EDIT.")
	p.P("// generation-id: ", generationID)
	p.P("// source: ", file.Path())
	p.P("package ", goPackageName(file))
	p.P()
	p.P(`import (`)
	if needsUnsafe {
		p.P("\t\"unsafe\"")
		p.P()
	}
	p.P("\t", settings.RuntimePackage, ` "`, settings.RuntimeImportPath, `"`)
	p.P(")")
	p.P()
}

// hasAnyMessage reports whether the file declares at least one top-level
// message. emitMessage is the only emitter that writes unsafe.* calls
// (unsafe.Sizeof in decode_table.go, unsafe.Offsetof via field.go's
// offsetExpr, and unsafe.String in the text getters of accessors.go), and
// it is also the only path that recurses into nested message types, so a
// nested message can never exist without a top-level one to reach it through
// — checking the top level alone is enough to know whether "unsafe" will be
// referenced anywhere in the file. A file with none (e.g. enum-only) must not
// import "unsafe" at all.
func hasAnyMessage(ms protoreflect.MessageDescriptors) bool {
	return ms.Len() > 0
}

// goPackageName derives the emitted file's package clause from the file's
// go_package option when present, falling back to the last component of the
// proto package name.
func goPackageName(file protoreflect.FileDescriptor) string {
	if opts, ok := file.Options().(*descriptorpb.FileOptions); ok && opts.GetGoPackage() != "" {
		goPkg := opts.GetGoPackage()
		if i := strings.LastIndexByte(goPkg, ';'); i >= 0 {
			return mangle.GoSanitized(goPkg[i+1:])
		}
		return mangle.PackageName(goPkg)
	}
	parts := strings.Split(string(file.Package()), ".")
	return mangle.GoSanitized(parts[len(parts)-1])
}
