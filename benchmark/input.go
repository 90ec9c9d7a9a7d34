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

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/shenwei356/gwfa"
	"github.com/shenwei356/gwfa/gfa"
)

// position is a position given by a segment name, offset and orientation.
type position struct {
	vertex string // segment name with the orientation
	offset int
}

// resolve returns the position in the graph.
func (p *position) resolve(g *gwfa.Graph) (gwfa.Position, error) {
	v, ok := g.VertexID(p.vertex)
	if !ok {
		return gwfa.Position{}, errors.Errorf("vertex not found: %s", p.vertex)
	}
	return gwfa.Position{Vertex: v, Offset: p.offset}, nil
}

// query is a sequence to align, with optional start and end positions.
type query struct {
	name       string
	seq        []byte
	start, end *position
}

// align aligns the query from its start position, or any source,
// to its end position, or any sink.
func (q *query) align(algn *gwfa.Aligner) (*gwfa.Alignment, error) {
	if q.start == nil {
		return algn.Align(q.seq)
	}
	g := algn.Graph()
	start, err := q.start.resolve(g)
	if err != nil {
		return nil, errors.Wrap(err, "start position")
	}
	if q.end == nil {
		return algn.AlignFromStart(q.seq, start)
	}
	end, err := q.end.resolve(g)
	if err != nil {
		return nil, errors.Wrap(err, "end position")
	}
	return algn.AlignFrom(q.seq, start, end)
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() (err error) {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if e := r.closers[i].Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// openInput opens a file or stdin ("-"), files ending with .zst are decompressed.
func openInput(file string) (io.ReadCloser, error) {
	var fh io.ReadCloser
	if file == "-" {
		fh = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read file: %s", file)
		}
		fh = f
	}

	if !strings.HasSuffix(file, ".zst") {
		return readCloser{Reader: bufio.NewReaderSize(fh, 1<<16), closers: []io.Closer{fh}}, nil
	}

	zr, err := zstd.NewReader(fh, zstd.WithDecoderConcurrency(1))
	if err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "failed to read zstd file: %s", file)
	}
	zrc := zr.IOReadCloser()
	return readCloser{Reader: zrc, closers: []io.Closer{fh, zrc}}, nil
}

// readGraph reads a graph from a GFA file.
func readGraph(file string) (*gwfa.Graph, error) {
	fh, err := openInput(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	g, err := gfa.Read(fh)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse GFA file: %s", file)
	}
	if g.NumVertices() == 0 {
		return nil, errors.Errorf("no segments in GFA file: %s", file)
	}
	return g, nil
}

// readQueries reads queries in FASTA format, headers may carry positions.
func readQueries(r io.Reader) ([]*query, error) {
	queries := make([]*query, 0, 1024)

	reader := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant))
	for {
		s, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "read query %d", len(queries)+1)
		}
		l := s.(*linear.Seq)

		header := l.Name()
		if desc := l.Description(); desc != "" {
			header += " " + desc
		}
		q, err := parseHeader(header, len(queries))
		if err != nil {
			return nil, errors.Wrapf(err, "query %d", len(queries)+1)
		}

		q.seq = make([]byte, len(l.Seq))
		for i, v := range l.Seq {
			q.seq[i] = byte(v)
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// parseHeader parses "name" or "segment offset +|- [segment offset +|-]".
func parseHeader(header string, i int) (*query, error) {
	q := &query{name: fmt.Sprintf("seq_%d", i)}
	fields := strings.Fields(header)

	var err error
	switch len(fields) {
	case 0:
	case 1, 2:
		q.name = fields[0]
	default:
		if q.start, err = parsePosition(fields[0:3]); err != nil {
			if len(fields) == 3 {
				return nil, err
			}
			// a FASTA header with a description
			q.name = fields[0]
			return q, nil
		}
		if len(fields) >= 6 {
			if q.end, err = parsePosition(fields[3:6]); err != nil {
				return nil, err
			}
		}
	}
	return q, nil
}

func parsePosition(fields []string) (*position, error) {
	offset, err := strconv.Atoi(fields[1])
	if err != nil || offset < 0 {
		return nil, errors.Errorf("invalid offset: %s", fields[1])
	}
	if fields[2] != "+" && fields[2] != "-" {
		return nil, errors.Errorf("invalid orientation: %s", fields[2])
	}
	return &position{vertex: fields[0] + fields[2], offset: offset}, nil
}
