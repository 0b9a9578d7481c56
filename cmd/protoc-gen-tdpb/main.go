// Command protoc-gen-tdpb is the protoc plugin transport for the tdpb
// generator: it reads a CodeGeneratorRequest from stdin, adapts each
// requested file to the gen package's descriptor- and sink-based interface,
// and writes a CodeGeneratorResponse to stdout.
//
// The transport itself — stdin/stdout framing, *protogen.Plugin — is the
// external collaborator that stays out of scope for the generator core;
// this file is the thin seam between that collaborator and package gen.
package main

import (
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/tdpb/protoc-gen-tdpb/internal/gen"
	"github.com/tdpb/protoc-gen-tdpb/internal/logger"
)

// pluginContext adapts *protogen.Plugin to gen.Context.
type pluginContext struct {
	plugin *protogen.Plugin
}

func (c pluginContext) Open(name string) (gen.Sink, error) {
	// protogen.GeneratedFile never actually fails to open (it buffers in
	// memory until the response is assembled), but the interface allows
	// for it, matching the GeneratorContext.open contract the driver expects.
	return c.plugin.NewGeneratedFile(name, ""), nil
}

func run(p *protogen.Plugin) error {
	p.SupportedFeatures = uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)

	settings := gen.ParseSettings(p.Request.GetParameter())
	driver := gen.NewDriver(settings)
	ctx := pluginContext{plugin: p}

	for _, file := range p.Files {
		if !file.Generate {
			continue
		}
		if err := driver.GenerateFile(ctx, file.Desc); err != nil {
			// A single file's failure is fatal for the whole invocation:
			// There is no partial-success recovery path, and protoc has no
			// notion of "some files succeeded".
			return err
		}
	}
	return nil
}

func main() {
	protogen.Options{}.Run(func(p *protogen.Plugin) error {
		if err := run(p); err != nil {
			logger.Log.Error(err.Error())
			return err
		}
		return nil
	})
}
