package logging

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// pathAttrKeys are attribute keys whose values are absolute filesystem paths.
var pathAttrKeys = map[string]struct{}{
	"path":     {},
	"src":      {},
	"dst":      {},
	"root":     {},
	"manifest": {},
}

// redactPathAttr reduces absolute paths to their base name so logs written
// with NAMEGNOME_DEBUG=0 do not leak library layout.
func redactPathAttr(_ []string, attr slog.Attr) slog.Attr {
	if _, ok := pathAttrKeys[attr.Key]; !ok {
		return attr
	}
	if attr.Value.Kind() != slog.KindString {
		return attr
	}
	value := attr.Value.String()
	if !strings.HasPrefix(value, "/") {
		return attr
	}
	return slog.String(attr.Key, "…/"+filepath.Base(value))
}
