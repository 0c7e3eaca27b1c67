// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stream implements a single-pass record codec for backup export
// documents: one root element whose direct children are self-contained
// entity records. The Reader yields one top-level record at a time without
// materializing the rest of the tree, and the Writer re-emits records
// incrementally inside a root fragment cloned from the input, so memory
// stays bounded by the largest single record regardless of document size.
package stream

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Attr is one named attribute on a record. Attributes keep document order;
// a slice rather than a map is deliberate so that re-serialized records are
// byte-identical to the input except for explicit rewrites.
type Attr struct {
	Name  string
	Value string
}

// Record is one entity from the document: a category tag, ordered
// attributes, and (for the few categories that carry embedded
// sub-documents, like workflow descriptors or tabular row data) nested
// children and text content.
//
// Records are self-contained. Cross-references between entities are plain
// identifier strings held in attribute values; no Record ever points at
// another Record.
type Record struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Record
}

// Get returns the value of the named attribute, or "" if absent.
func (r *Record) Get(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// Lookup returns the value of the named attribute and whether it exists.
func (r *Record) Lookup(name string) (string, bool) {
	for _, a := range r.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Set replaces the value of the named attribute in place, preserving its
// position. If the attribute does not exist it is appended.
func (r *Record) Set(name, value string) {
	for i := range r.Attrs {
		if r.Attrs[i].Name == name {
			r.Attrs[i].Value = value
			return
		}
	}
	r.Attrs = append(r.Attrs, Attr{Name: name, Value: value})
}

// ShallowClone returns a copy of the record's tag and attributes with no
// text or children. The Writer uses this to derive the root open/close
// fragments from the input's root element.
func (r *Record) ShallowClone() *Record {
	attrs := make([]Attr, len(r.Attrs))
	copy(attrs, r.Attrs)
	return &Record{Tag: r.Tag, Attrs: attrs}
}

// ChildText returns the text content of the first direct child with the
// given tag, or "" if there is none.
func (r *Record) ChildText(tag string) string {
	for _, c := range r.Children {
		if c.Tag == tag {
			return c.Text
		}
	}
	return ""
}

// Walk visits the record and every descendant, depth-first in document
// order.
func (r *Record) Walk(fn func(*Record)) {
	fn(r)
	for _, c := range r.Children {
		c.Walk(fn)
	}
}

// Marshal serializes the record subtree. Attribute order is preserved
// exactly; empty elements are written as <tag></tag> rather than
// self-closing, matching the convention of the export format.
func (r *Record) Marshal() []byte {
	var buf bytes.Buffer
	r.encode(&buf)
	return buf.Bytes()
}

func (r *Record) encode(buf *bytes.Buffer) {
	buf.WriteByte('<')
	buf.WriteString(r.Tag)
	for _, a := range r.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(a.Value))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')
	if r.Text != "" {
		buf.WriteString(escapeText(r.Text))
	}
	for _, c := range r.Children {
		c.encode(buf)
	}
	buf.WriteString("</")
	buf.WriteString(r.Tag)
	buf.WriteByte('>')
}

// textEscaper escapes character content. Literal whitespace is preserved so
// layout text and CDATA-derived bodies round-trip readably.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#13;",
)

// attrEscaper escapes attribute values, including whitespace that would
// otherwise be normalized away by a conforming parser on re-import.
var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\n", "&#10;",
	"\t", "&#09;",
	"\r", "&#13;",
)

func escapeText(s string) string { return textEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }

// ParseFragment parses a standalone XML fragment (such as an embedded
// workflow descriptor) into a Record tree rooted at the fragment's first
// element. Directives and processing instructions ahead of the root, like
// a DOCTYPE declaration, are skipped.
func ParseFragment(s string) (*Record, error) {
	dec := xml.NewDecoder(strings.NewReader(s))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ParseError{Offset: dec.InputOffset(), Err: err}
		}
		if start, ok := tok.(xml.StartElement); ok {
			rec, err := decodeElement(dec, start)
			if err != nil {
				return nil, &ParseError{Offset: dec.InputOffset(), Err: err}
			}
			return rec, nil
		}
	}
}

// decodeElement consumes tokens through the end of the element opened by
// start and returns the parsed subtree. Whitespace-only character data
// (pretty-printing between child elements) is discarded.
func decodeElement(dec *xml.Decoder, start xml.StartElement) (*Record, error) {
	rec := &Record{Tag: start.Name.Local, Attrs: attrsOf(start.Attr)}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			rec.Children = append(rec.Children, child)
		case xml.EndElement:
			return rec, nil
		case xml.CharData:
			if s := string(t); strings.TrimSpace(s) != "" {
				rec.Text += s
			}
		}
	}
}

// attrsOf converts decoder attributes to ordered record attributes,
// reconstructing namespace-declaration spellings the decoder splits apart.
func attrsOf(xa []xml.Attr) []Attr {
	if len(xa) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(xa))
	for _, a := range xa {
		out = append(out, Attr{Name: attrName(a.Name), Value: a.Value})
	}
	return out
}

func attrName(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case "xmlns":
		return "xmlns:" + n.Local
	default:
		// The decoder expands prefixed attributes to their namespace URI.
		// Entity exports only use unprefixed attributes, so this branch is
		// a best-effort spelling for foreign documents.
		return n.Space + ":" + n.Local
	}
}
