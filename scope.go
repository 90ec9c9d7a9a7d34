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

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Scope is a circular buffer of wavefronts for the most recent scores.
// Only the last Size() scores can contribute to a new score,
// so older slots are recycled.
type Scope struct {
	frontIdx   int
	frontScore int

	slots [][numKinds]*Wavefront
}

// NewScope creates a Scope holding nscores scores.
func NewScope(nscores int) *Scope {
	if nscores < 1 {
		nscores = 1
	}
	sc := &Scope{slots: make([][numKinds]*Wavefront, nscores)}
	for i := range sc.slots {
		for k := range sc.slots[i] {
			sc.slots[i][k] = NewWavefront(WAVEFRONT_BASE_SIZE, OneAndHalf)
		}
	}
	sc.NewAlignment()
	return sc
}

// Size returns the number of scores in the window.
func (sc *Scope) Size() int { return len(sc.slots) }

// FrontScore returns the newest score.
func (sc *Scope) FrontScore() int { return sc.frontScore }

// NewAlignment resets the window. The first call of NewScore makes score 0.
func (sc *Scope) NewAlignment() {
	sc.frontIdx = len(sc.slots) - 1
	sc.frontScore = -1
	for i := range sc.slots {
		for _, wf := range sc.slots[i] {
			wf.Reset()
		}
	}
}

// NewScore advances the window by one score, clearing the slot of the
// score which is Size() scores old.
func (sc *Scope) NewScore() {
	sc.frontIdx = (sc.frontIdx + 1) % len(sc.slots)
	sc.frontScore++
	for _, wf := range sc.slots[sc.frontIdx] {
		wf.Reset()
	}
}

// Contains tells if the score is in the window.
func (sc *Scope) Contains(score int) bool {
	return score <= sc.frontScore && score > sc.frontScore-len(sc.slots) && score >= 0
}

func (sc *Scope) score2idx(score int) int {
	if !sc.Contains(score) {
		panic(errors.Wrapf(ErrOutOfBounds, "score %d out of scope [%d, %d]",
			score, max(0, sc.frontScore-len(sc.slots)+1), sc.frontScore))
	}
	n := len(sc.slots)
	return ((sc.frontIdx+score-sc.frontScore)%n + n) % n
}

// Wave returns the wavefront of a kind at a score in the window.
func (sc *Scope) Wave(kind Kind, score int) *Wavefront {
	return sc.slots[sc.score2idx(score)][kind]
}

// reallocs returns the number of reallocations of all wavefronts.
func (sc *Scope) reallocs() (n int) {
	for i := range sc.slots {
		for _, wf := range sc.slots[i] {
			n += wf.grows
		}
	}
	return n
}

// Print lists the wavefronts in the window.
func (sc *Scope) Print(wtr io.Writer) {
	for s := max(0, sc.frontScore-len(sc.slots)+1); s <= sc.frontScore; s++ {
		for k := Kind(0); k < numKinds; k++ {
			wf := sc.Wave(k, s)
			if wf.Len() == 0 {
				continue
			}
			fmt.Fprintf(wtr, "%s%d: %s\n", k, s, wf)
		}
	}
}
