// Copyright © 2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package gfa reads sequence graphs in GFA 1 format.
//
// Only segment (S) and link (L) records are used. Each segment is added
// as two vertices, "name+" for the sequence and "name-" for its reverse
// complement, and each link adds the edge and its reverse:
//
//	L a + b - 3M  =>  a+ -> b-, b+ -> a-
//
// Link overlaps must be exact matches, like 0M or 3M.
package gfa

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/shenwei356/gwfa"
)

// ErrBadRecord means a malformed or unsupported GFA record.
var ErrBadRecord = errors.New("gfa: bad record")

// maximum length of a line
const maxLineSize = 1 << 30

type link struct {
	from, to string
	overlap  int
	line     int
}

// Read reads a graph from GFA records.
// Other record types, like H and P, are ignored.
func Read(r io.Reader) (*gwfa.Graph, error) {
	g := gwfa.NewGraph()
	links := make([]link, 0, 1024)
	segments := make(map[string]int, 1024) // segment name -> line number

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineSize)

	var line []byte
	var nline int
	var ignored int
	for scanner.Scan() {
		nline++
		line = bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}

		switch line[0] {
		case 'S':
			name, seq, err := parseSegment(line)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", nline)
			}
			if l, ok := segments[name]; ok {
				klog.Warningf("segment %s at line %d replaces the one at line %d", name, nline, l)
			}
			segments[name] = nline

			g.AddVertex(name+"+", seq)
			g.AddVertex(name+"-", ReverseComplement(seq))
		case 'L':
			lk, rev, err := parseLink(line)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", nline)
			}
			lk.line, rev.line = nline, nline
			links = append(links, lk, rev)
		default:
			ignored++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read gfa")
	}
	if ignored > 0 {
		klog.V(1).Infof("%d records other than S and L ignored", ignored)
	}

	for _, lk := range links {
		from, ok := g.VertexID(lk.from)
		if !ok {
			return nil, errors.Wrapf(ErrBadRecord, "line %d: segment %s in link is missing",
				lk.line, lk.from[:len(lk.from)-1])
		}
		to, ok := g.VertexID(lk.to)
		if !ok {
			return nil, errors.Wrapf(ErrBadRecord, "line %d: segment %s in link is missing",
				lk.line, lk.to[:len(lk.to)-1])
		}
		if err := g.AddEdge(from, to, lk.overlap); err != nil {
			return nil, errors.Wrapf(err, "line %d", lk.line)
		}
	}

	return g, nil
}

// parseSegment parses an S record: S <name> <sequence> [tags].
func parseSegment(line []byte) (string, []byte, error) {
	fields := bytes.Fields(line)
	if len(fields) < 3 || string(fields[0]) != "S" {
		return "", nil, errors.Wrapf(ErrBadRecord, "segment with %d fields", len(fields))
	}
	if len(fields[2]) == 1 && fields[2][0] == '*' {
		return "", nil, errors.Wrapf(ErrBadRecord, "segment %s without sequence", fields[1])
	}
	seq := make([]byte, len(fields[2]))
	copy(seq, fields[2])
	return string(fields[1]), seq, nil
}

// parseLink parses an L record: L <from> <+/-> <to> <+/-> <overlap> [tags],
// and returns the edge and the reverse edge.
func parseLink(line []byte) (link, link, error) {
	var lk, rev link
	fields := bytes.Fields(line)
	if len(fields) < 6 || string(fields[0]) != "L" {
		return lk, rev, errors.Wrapf(ErrBadRecord, "link with %d fields", len(fields))
	}
	from, fromOri := string(fields[1]), string(fields[2])
	to, toOri := string(fields[3]), string(fields[4])
	if !validOrientation(fromOri) || !validOrientation(toOri) {
		return lk, rev, errors.Wrapf(ErrBadRecord, "link orientations: %s %s", fromOri, toOri)
	}

	overlap, err := parseOverlap(fields[5])
	if err != nil {
		return lk, rev, err
	}

	lk = link{from: from + fromOri, to: to + toOri, overlap: overlap}
	rev = link{from: to + flip(toOri), to: from + flip(fromOri), overlap: overlap}
	return lk, rev, nil
}

// parseOverlap parses an overlap of exact matches, like 3M.
func parseOverlap(s []byte) (int, error) {
	if len(s) < 2 || s[len(s)-1] != 'M' {
		return 0, errors.Wrapf(ErrBadRecord, "unsupported overlap: %s", s)
	}
	n, err := strconv.Atoi(string(s[:len(s)-1]))
	if err != nil || n < 0 {
		return 0, errors.Wrapf(ErrBadRecord, "unsupported overlap: %s", s)
	}
	return n, nil
}

func validOrientation(s string) bool { return s == "+" || s == "-" }

func flip(s string) string {
	if s == "+" {
		return "-"
	}
	return "+"
}

// SegmentName returns the segment name and orientation of a vertex name.
func SegmentName(vertex string) (name string, reverse bool) {
	if n := len(vertex); n > 0 && (vertex[n-1] == '+' || vertex[n-1] == '-') {
		return vertex[:n-1], vertex[n-1] == '-'
	}
	return vertex, false
}

// ReverseComplement returns the reverse complement of a DNA sequence,
// IUPAC ambiguity codes included. The case is kept.
func ReverseComplement(seq []byte) []byte {
	letters := make([]alphabet.Letter, len(seq))
	for i, b := range seq {
		letters[i] = alphabet.Letter(b)
	}
	s := linear.NewSeq("", letters, alphabet.DNAredundant)
	s.RevComp()

	rc := make([]byte, len(s.Seq))
	for i, l := range s.Seq {
		rc[i] = byte(l)
	}
	return rc
}
