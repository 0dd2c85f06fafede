package mapping

import (
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/sfimport/core/errors"
	"github.com/antchfx/xmlquery"
)

// LoadXML reads a mapping list of the form
//
//	<MappingList>
//	  <Mapping beginMarker="\qt" endMarker="\qt*" isInline="true"
//	           style="Quoted Text" styleKind="character" domain="default" ws="en"/>
//	</MappingList>
//
// Element and attribute names are matched as written above.
func LoadXML(r io.Reader, path string) (*Table, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Path: path, Message: err.Error(), Err: err}
	}

	nodes, err := xmlquery.QueryAll(doc, "//Mapping")
	if err != nil {
		return nil, &errors.ParseError{Format: "XML", Path: path, Message: err.Error(), Err: err}
	}

	mappings := make([]Mapping, 0, len(nodes))
	for _, n := range nodes {
		m := Mapping{
			BeginMarker:   n.SelectAttr("beginMarker"),
			EndMarker:     n.SelectAttr("endMarker"),
			StyleName:     n.SelectAttr("style"),
			WritingSystem: n.SelectAttr("ws"),
		}
		if v := n.SelectAttr("isInline"); v != "" {
			inline, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, errors.NewParse("XML", path, "isInline must be true or false: "+v)
			}
			m.IsInline = inline
		}
		if err := m.StyleKind.UnmarshalText([]byte(n.SelectAttr("styleKind"))); err != nil {
			return nil, errors.Wrapf(err, "mapping %s", m.BeginMarker)
		}
		if err := m.Domain.UnmarshalText([]byte(n.SelectAttr("domain"))); err != nil {
			return nil, errors.Wrapf(err, "mapping %s", m.BeginMarker)
		}
		mappings = append(mappings, m)
	}

	return NewTable(mappings)
}
