package irceline

import (
	"io"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

const wfsNamespace = "http://www.opengis.net/wfs"

var (
	wfsFeatureTypeNames = mustCompileWithNS(`/*//wfs:FeatureTypeList/wfs:FeatureType/wfs:Name`,
		map[string]string{"wfs": wfsNamespace})

	// Unprefixed steps match unprefixed elements in any namespace: the bare
	// WMS 1.1.1 and the default-namespaced 1.3.0 documents alike.
	wmsLayerNames = xpath.MustCompile(`/*//Capability/Layer/Layer/Name`)
)

func mustCompileWithNS(expr string, namespaces map[string]string) *xpath.Expr {
	e, err := xpath.CompileWithNS(expr, namespaces)
	if err != nil {
		panic(err)
	}
	return e
}

// ParseWFSCapabilities returns the feature type names advertised by a WFS
// GetCapabilities document. A malformed document yields an empty list.
func ParseWFSCapabilities(r io.Reader) []string {
	return parseCapabilities(r, wfsFeatureTypeNames)
}

// ParseWMSCapabilities returns the named layers nested under the root layer
// of a WMS GetCapabilities document. A malformed document yields an empty
// list.
func ParseWMSCapabilities(r io.Reader) []string {
	return parseCapabilities(r, wmsLayerNames)
}

// parseCapabilities collects the text of every element selected by expr.
// The result is sorted and free of duplicates.
func parseCapabilities(r io.Reader, expr *xpath.Expr) []string {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return []string{}
	}

	names := make(map[string]struct{})
	for _, n := range xmlquery.QuerySelectorAll(doc, expr) {
		if name := strings.TrimSpace(n.InnerText()); name != "" {
			names[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
