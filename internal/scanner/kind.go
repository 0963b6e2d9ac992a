package scanner

import (
	"path/filepath"
	"strings"
)

// Kind classifies a discovered file.
type Kind string

const (
	KindUnknown     Kind = ""
	KindDescription Kind = "description" // YAML method description
	KindSnapshot    Kind = "snapshot"    // msgpack graph snapshot
)

var kindByExt = map[string]Kind{
	".yaml":    KindDescription,
	".yml":     KindDescription,
	".msgpack": KindSnapshot,
	".mpk":     KindSnapshot,
}

// DetectKind classifies a file by its name. Config files of vcfg itself are
// never reported as descriptions.
func DetectKind(name string) Kind {
	base := strings.ToLower(filepath.Base(name))
	if base == "config.yaml" || base == "config.yml" {
		return KindUnknown
	}
	return kindByExt[filepath.Ext(base)]
}
