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

	"github.com/pkg/errors"
)

// PenaltyType is the gap model of a Penalties.
type PenaltyType int

const (
	// Linear gaps cost GapExt per symbol.
	Linear PenaltyType = iota
	// Affine gaps cost GapOpen + GapExt per symbol.
	Affine
	// DualAffine gaps cost the cheaper of the two affine tiers.
	DualAffine
)

func (t PenaltyType) String() string {
	switch t {
	case Linear:
		return "linear"
	case Affine:
		return "affine"
	case DualAffine:
		return "dual-affine"
	default:
		return "unknown"
	}
}

// Penalties contains the penalties. The objective is to minimize the score,
// so all values are costs.
type Penalties struct {
	Type PenaltyType

	Match    int
	Mismatch int

	GapOpen int // 0 for Linear
	GapExt  int

	GapOpen2 int // only for DualAffine
	GapExt2  int
}

// DefaultPenalties is the default gap-affine setting of the command line tool.
var DefaultPenalties = Penalties{
	Type:     Affine,
	Match:    0,
	Mismatch: 2,
	GapOpen:  3,
	GapExt:   1,
}

// NewLinearPenalties returns gap-linear penalties.
func NewLinearPenalties(match, mismatch, gapExt int) (*Penalties, error) {
	p := &Penalties{Type: Linear, Match: match, Mismatch: mismatch, GapExt: gapExt}
	return p, p.Validate()
}

// NewAffinePenalties returns gap-affine penalties.
func NewAffinePenalties(match, mismatch, gapOpen, gapExt int) (*Penalties, error) {
	p := &Penalties{Type: Affine, Match: match, Mismatch: mismatch, GapOpen: gapOpen, GapExt: gapExt}
	return p, p.Validate()
}

// NewDualAffinePenalties returns dual gap-affine penalties.
func NewDualAffinePenalties(match, mismatch, gapOpen, gapExt, gapOpen2, gapExt2 int) (*Penalties, error) {
	p := &Penalties{
		Type:     DualAffine,
		Match:    match,
		Mismatch: mismatch,
		GapOpen:  gapOpen,
		GapExt:   gapExt,
		GapOpen2: gapOpen2,
		GapExt2:  gapExt2,
	}
	return p, p.Validate()
}

// Validate checks if the penalties can be used for alignment.
func (p *Penalties) Validate() error {
	if p.Match < 0 || p.Mismatch < 0 || p.GapOpen < 0 || p.GapExt < 0 ||
		p.GapOpen2 < 0 || p.GapExt2 < 0 {
		return errors.Wrap(ErrInvalidPenalties, "negative cost")
	}
	// matches are extended for free along diagonals.
	if p.Match != 0 {
		return errors.Wrapf(ErrInvalidPenalties, "match cost must be 0, got %d", p.Match)
	}
	if p.Mismatch == 0 {
		return errors.Wrap(ErrInvalidPenalties, "mismatch cost must be positive")
	}
	if p.GapExt == 0 {
		return errors.Wrap(ErrInvalidPenalties, "gap extension cost must be positive")
	}

	switch p.Type {
	case Linear:
		if p.GapOpen != 0 {
			return errors.Wrap(ErrInvalidPenalties, "gap-linear penalties with a gap open cost")
		}
		fallthrough
	case Affine:
		if p.GapOpen2 != 0 || p.GapExt2 != 0 {
			return errors.Wrapf(ErrInvalidPenalties, "%s penalties with second-tier gap costs", p.Type)
		}
	case DualAffine:
		if p.GapExt2 == 0 {
			return errors.Wrap(ErrInvalidPenalties, "second gap extension cost must be positive")
		}
	default:
		return errors.Wrapf(ErrInvalidPenalties, "unknown penalty type: %d", p.Type)
	}
	return nil
}

// ScopeSize returns the number of scores an alignment needs to look back,
// plus one.
func (p *Penalties) ScopeSize() int {
	w := max(p.GapOpen+p.GapExt, p.Mismatch)
	if p.Type == DualAffine {
		w = max(w, p.GapOpen2+p.GapExt2)
	}
	return w + 1
}

// gapCost returns the cost of a gap of n symbols.
func (p *Penalties) gapCost(n int) int {
	if n <= 0 {
		return 0
	}
	c := p.GapOpen + n*p.GapExt
	if p.Type == DualAffine {
		c = min(c, p.GapOpen2+n*p.GapExt2)
	}
	return c
}

// ScoreCigar computes the score of CIGAR records, e.g., the Ops of an Alignment.
// Consecutive records of the same gap type are treated as one gap.
func (p *Penalties) ScoreCigar(ops []*CIGARRecord) int {
	var score int
	var gapOp byte
	var gapLen int
	for _, r := range ops {
		switch r.Op {
		case 'I', 'D':
			if r.Op != gapOp {
				score += p.gapCost(gapLen)
				gapOp, gapLen = r.Op, 0
			}
			gapLen += int(r.N)
			continue
		case 'M':
			score += int(r.N) * p.Match
		case 'X':
			score += int(r.N) * p.Mismatch
		}
		score += p.gapCost(gapLen)
		gapOp, gapLen = 0, 0
	}
	return score + p.gapCost(gapLen)
}

// ScoreOps computes the score of an operation string like "MMXIID".
func (p *Penalties) ScoreOps(ops []byte) int {
	records := make([]*CIGARRecord, 0, len(ops))
	for _, op := range ops {
		records = append(records, &CIGARRecord{N: 1, Op: op})
	}
	return p.ScoreCigar(records)
}

func (p Penalties) String() string {
	switch p.Type {
	case Linear:
		return fmt.Sprintf("linear(x=%d,e=%d)", p.Mismatch, p.GapExt)
	case Affine:
		return fmt.Sprintf("affine(x=%d,o=%d,e=%d)", p.Mismatch, p.GapOpen, p.GapExt)
	default:
		return fmt.Sprintf("dual-affine(x=%d,o=%d,e=%d,o2=%d,e2=%d)",
			p.Mismatch, p.GapOpen, p.GapExt, p.GapOpen2, p.GapExt2)
	}
}
