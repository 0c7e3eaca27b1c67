// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// ParseError reports a malformed input document. It carries the approximate
// byte offset and the number of complete top-level records consumed before
// the failure, so the operator can locate the damage in a multi-gigabyte
// export.
type ParseError struct {
	Offset  int64
	Records int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed document at byte offset %d (after %d records): %v",
		e.Offset, e.Records, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Source is a re-openable handle to an input document.
//
// Scanning and filtering are two independent full passes over the same
// logical input, so the input must be something that can be opened again
// from the start: a path, never an already-consumed stream.
type Source string

// Open opens the source for one forward-only pass.
func (s Source) Open() (*Reader, error) {
	f, err := os.Open(string(s))
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// ProgressFunc receives the running count of top-level records consumed.
// Purely observational; it must not affect processing.
type ProgressFunc func(records int)

// Reader yields the top-level records of a document one at a time, in
// document order. It is lazy, single-pass, and non-restartable: each call
// to Next parses exactly one record subtree, and the previous record is
// released to the garbage collector once the caller drops it.
//
// The reader tracks element nesting itself, so a record boundary (a direct
// child of the root) is never confused with nested structure inside a
// record.
type Reader struct {
	dec      *xml.Decoder
	closer   io.Closer
	root     *Record
	count    int
	interval int
	progress ProgressFunc
}

// NewReader wraps an io.Reader. Use Source.Open for file inputs; NewReader
// exists for tests and in-memory documents.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// SetProgress installs a progress callback invoked after every `every`
// top-level records. every <= 0 disables reporting.
func (r *Reader) SetProgress(every int, fn ProgressFunc) {
	r.interval = every
	r.progress = fn
}

// Root returns a zero-child clone of the document's root element (tag and
// attributes only). It is nil until the first call to Next, which is
// guaranteed to have captured the root before it returns a record or io.EOF.
func (r *Reader) Root() *Record {
	return r.root
}

// Count returns the number of top-level records consumed so far.
func (r *Reader) Count() int { return r.count }

// Next returns the next top-level record, or io.EOF after the last one.
// Any other error is a *ParseError.
func (r *Reader) Next() (*Record, error) {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			if r.root == nil {
				return nil, r.fail(fmt.Errorf("document has no root element"))
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, r.fail(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if r.root == nil {
				r.root = &Record{Tag: t.Name.Local, Attrs: attrsOf(t.Attr)}
				continue
			}
			rec, err := decodeElement(r.dec, t)
			if err != nil {
				return nil, r.fail(err)
			}
			r.count++
			if r.interval > 0 && r.progress != nil && r.count%r.interval == 0 {
				r.progress(r.count)
			}
			return rec, nil
		case xml.EndElement:
			// Root close. Keep draining so trailing garbage still surfaces
			// as a parse error on the next iteration.
		}
	}
}

// Close releases the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}

func (r *Reader) fail(err error) *ParseError {
	return &ParseError{Offset: r.dec.InputOffset(), Records: r.count, Err: err}
}
