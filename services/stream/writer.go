// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"bytes"
	"fmt"
	"io"
)

// xmlDeclaration matches the declaration convention of the export format.
const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// WriterOptions controls document-level output behavior.
type WriterOptions struct {
	// DefaultNamespace, when non-empty, overrides the root element's xmlns
	// declaration so the whole output lives in a single default namespace.
	// Child elements are always written unprefixed and inherit it.
	DefaultNamespace string
}

// Writer emits a syntactically valid document incrementally: the XML
// declaration and root-open fragment exactly once before any record, one
// re-serialized record subtree per surviving record, and the root-close
// fragment exactly once at the end. Nothing beyond the record currently
// being written is held in memory.
//
// The open/close fragments are derived by serializing a zero-child clone
// of the input's root element and splitting the result at the first
// close-tag marker. The emitted root therefore carries the input root's
// attributes verbatim, without re-deriving the serialization format by
// hand.
type Writer struct {
	w         io.Writer
	rootOpen  []byte
	rootClose []byte
	opened    bool
	closed    bool
	records   int
}

// NewWriter prepares a writer for the given sink using the input document's
// root element (as returned by Reader.Root).
func NewWriter(w io.Writer, root *Record, opts WriterOptions) (*Writer, error) {
	if root == nil {
		return nil, fmt.Errorf("writer requires the input document's root element")
	}

	clone := root.ShallowClone()
	if opts.DefaultNamespace != "" {
		clone.Set("xmlns", opts.DefaultNamespace)
	}
	// The newline-tab text mirrors the layout convention of the export
	// format: records sit indented one level under the root.
	clone.Text = "\n\t"

	serialized := append([]byte(xmlDeclaration), clone.Marshal()...)
	idx := bytes.Index(serialized, []byte("</"))
	if idx < 0 {
		return nil, fmt.Errorf("root serialization has no close tag")
	}

	open := serialized[:idx]
	closeFrag := append([]byte{}, serialized[idx:]...)
	closeFrag = append(closeFrag, '\n')

	return &Writer{w: w, rootOpen: open, rootClose: closeFrag}, nil
}

// WriteRecord serializes one record subtree into the document. The root
// open fragment is written before the first record.
func (w *Writer) WriteRecord(rec *Record) error {
	if w.closed {
		return fmt.Errorf("write after Close")
	}
	if err := w.ensureOpen(); err != nil {
		return err
	}
	if _, err := w.w.Write(rec.Marshal()); err != nil {
		return fmt.Errorf("write record %s: %w", rec.Tag, err)
	}
	if _, err := io.WriteString(w.w, "\n\t"); err != nil {
		return fmt.Errorf("write record %s: %w", rec.Tag, err)
	}
	w.records++
	return nil
}

// Records returns how many records have been written.
func (w *Writer) Records() int { return w.records }

// Close writes the root-close fragment. It does not close the underlying
// sink; the caller owns it (and is responsible for atomic-rename semantics
// on the output path).
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if err := w.ensureOpen(); err != nil {
		return err
	}
	w.closed = true
	if _, err := w.w.Write(w.rootClose); err != nil {
		return fmt.Errorf("write root close: %w", err)
	}
	return nil
}

func (w *Writer) ensureOpen() error {
	if w.opened {
		return nil
	}
	w.opened = true
	if _, err := w.w.Write(w.rootOpen); err != nil {
		return fmt.Errorf("write root open: %w", err)
	}
	return nil
}
