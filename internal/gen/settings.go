package gen

import "strings"

// Settings are the plugin's command-line-style options, passed through
// protoc as a comma-separated key=value parameter string. Parsing mirrors
// a protoc-gen plugin's usual parameter parsing convention.
type Settings struct {
	// SourceExt overrides the emitted file's suffix (default ".tdpb.go").
	SourceExt string
	// OmitSnapshot skips emission of the descriptor snapshot constant
	// — useful for files that will never be used as a
	// bootstrap payload.
	OmitSnapshot bool
	// RuntimeImportPath is the import path of the runtime facade the
	// generated code imports.
	RuntimeImportPath string
	// RuntimePackage is the local package name that import is referenced
	// under in generated code.
	RuntimePackage string
}

// DefaultSettings returns the settings used when the plugin receives no
// parameter string.
func DefaultSettings() *Settings {
	return &Settings{
		SourceExt:         ".tdpb.go",
		OmitSnapshot:      false,
		RuntimeImportPath: "github.com/tdpb/tdpb-runtime",
		RuntimePackage:    "tdpb",
	}
}

// ParseSettings parses protoc's plugin parameter string ("key=value,key2=value2").
// Unknown keys are ignored.
func ParseSettings(param string) *Settings {
	s := DefaultSettings()
	if param == "" {
		return s
	}
	for _, kv := range strings.Split(param, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := parts[0], parts[1]
		switch key {
		case "source_ext":
			s.SourceExt = val
		case "omit_snapshot":
			s.OmitSnapshot = val == "true"
		case "runtime_import_path":
			s.RuntimeImportPath = val
		case "runtime_package":
			s.RuntimePackage = val
		}
	}
	return s
}
