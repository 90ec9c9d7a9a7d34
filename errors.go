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

package gwfa

import "github.com/pkg/errors"

// Errors
var (
	// ErrInvalidPenalties means the penalty values can not be used by the aligner.
	ErrInvalidPenalties = errors.New("gwfa: invalid penalties")

	// ErrOutOfBounds means a score window or a fixed-capacity wavefront
	// was addressed outside its range. It indicates a broken invariant.
	ErrOutOfBounds = errors.New("gwfa: out of bounds")

	// ErrUnreachable means no alignment reaches the end position
	// within the score ceiling.
	ErrUnreachable = errors.New("gwfa: end position unreachable")

	ErrBadGraph    = errors.New("gwfa: bad graph")
	ErrBadVertex   = errors.New("gwfa: bad vertex ID")
	ErrBadEdge     = errors.New("gwfa: bad edge")
	ErrCyclicGraph = errors.New("gwfa: graph contains a cycle")
	ErrBadPosition = errors.New("gwfa: bad start or end position")
)
