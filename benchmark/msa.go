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
	"io"
	"os"
	"time"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/shenwei356/gwfa"
	"github.com/shenwei356/gwfa/poa"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// fastaLineWidth is the line width of FASTA output.
const fastaLineWidth = 60

// runMSA folds the queries one by one into a partial order graph,
// and writes the multiple sequence alignment.
func runMSA(c *config, p *gwfa.Penalties, queries []*query, timeStart time.Time) error {
	if len(queries) == 0 {
		return errors.New("no queries to align")
	}

	var pbs *mpb.Progress
	var bar *mpb.Bar
	if c.Progress {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(queries)),
			mpb.PrependDecorators(
				decor.Name("folded queries: ", decor.WC{W: len("folded queries: "), C: decor.DindentRight}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.EwmaETA(decor.ET_STYLE_GO, 1024),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
	}

	g, err := fold(p, queries, bar)
	if pbs != nil {
		if err != nil {
			bar.Abort(false)
		}
		pbs.Wait()
	}
	if err != nil {
		return err
	}

	rows, err := g.MSA()
	if err != nil {
		return err
	}
	outfh, closeOut, err := createOutput(c.OutFile)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if err = writeFASTA(outfh, queries[i].name, row); err != nil {
			closeOut()
			return errors.Wrapf(err, "failed to write row %d", i+1)
		}
	}
	if err = closeOut(); err != nil {
		return err
	}

	if c.ConsensusFile != "" {
		cons, err := g.Consensus()
		if err != nil {
			return err
		}
		outfh, closeOut, err := createOutput(c.ConsensusFile)
		if err != nil {
			return err
		}
		if err = writeFASTA(outfh, "consensus", cons); err != nil {
			closeOut()
			return errors.Wrapf(err, "failed to write file: %s", c.ConsensusFile)
		}
		if err = closeOut(); err != nil {
			return err
		}
	}

	if c.DOTFile != "" {
		cg, err := g.Compact()
		if err != nil {
			return err
		}
		if err = writeDOT(c.DOTFile, cg); err != nil {
			return err
		}
	}

	klog.Infof("%s queries folded into %s nodes, %s columns, elapsed time: %s",
		humanize.Comma(int64(len(queries))), humanize.Comma(int64(g.NumNodes())),
		humanize.Comma(int64(len(rows[0]))), time.Since(timeStart))
	return nil
}

// fold builds the partial order graph of the queries in order.
func fold(p *gwfa.Penalties, queries []*query, bar *mpb.Bar) (*poa.Graph, error) {
	timeQ := time.Now()
	g, err := poa.New(queries[0].seq)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", queries[0].name)
	}
	if bar != nil {
		bar.EwmaIncrBy(1, time.Since(timeQ))
	}

	for _, q := range queries[1:] {
		timeQ = time.Now()
		result, err := g.Fold(p, q.seq)
		if err != nil {
			return nil, errors.Wrapf(err, "query %s", q.name)
		}
		klog.V(1).Infof("query %s folded, score: %d, cigar: %s", q.name, result.Score, result.CIGAR())
		gwfa.RecycleAlignment(result)

		if bar != nil {
			bar.EwmaIncrBy(1, time.Since(timeQ))
		}
	}
	return g, nil
}

// writeFASTA writes a record with gaps kept.
func writeFASTA(w io.Writer, name string, s []byte) error {
	letters := make([]alphabet.Letter, len(s))
	for i, b := range s {
		letters[i] = alphabet.Letter(b)
	}
	_, err := fasta.NewWriter(w, fastaLineWidth).Write(linear.NewSeq(name, letters, alphabet.DNAredundant))
	return err
}
