package legacy

import (
	"strings"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/pysrc"
)

// Parser turns DRF modules into construct descriptors.
type Parser struct {
	Tables *mapping.Tables
}

// NewParser returns a parser classifying fields through tables.
func NewParser(tables *mapping.Tables) *Parser {
	return &Parser{Tables: tables}
}

// Parse parses one source file with the default tables.
func Parse(file string, src []byte) ([]descriptor.LegacyConstructDescriptor, error) {
	return NewParser(mapping.DefaultTables()).Parse(file, src)
}

// Parse returns the serializers and view-sets declared at the top level of
// src, in source order. A ParseError means no construct of the file could
// be read.
func (p *Parser) Parse(file string, src []byte) ([]descriptor.LegacyConstructDescriptor, error) {
	mod, err := pysrc.Parse(file, src)
	if err != nil {
		return nil, err
	}

	var out []descriptor.LegacyConstructDescriptor

	for _, c := range mod.Classes() {
		switch {
		case isViewSet(c):
			out = append(out, p.viewSet(file, c))
		case isSerializer(c):
			out = append(out, p.serializer(file, mod, c))
		}
	}

	return out, nil
}

func isSerializer(c *pysrc.Class) bool {
	return baseContains(c, "Serializer")
}

func isViewSet(c *pysrc.Class) bool {
	return baseContains(c, "ViewSet")
}

func baseContains(c *pysrc.Class, part string) bool {
	for _, b := range c.BaseNames() {
		if strings.Contains(common.LastSegment(b), part) {
			return true
		}
	}

	return false
}

// recognized reports whether no field or construct part was left untranslated.
func recognized(c *descriptor.LegacyConstructDescriptor) bool {
	if len(c.Issues) > 0 {
		return false
	}

	for _, f := range c.DeclaredFields {
		if !f.Recognized() {
			return false
		}
	}

	return true
}
