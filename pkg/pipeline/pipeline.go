// Package pipeline drives records through classify -> fetch -> normalize and
// annotates each record with its stored filename. Failures never cross a
// record boundary: a failed record gets an empty filename and the batch
// continues.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/premkondru/InstagramPostsScrapper/pkg/convert"
	"github.com/premkondru/InstagramPostsScrapper/pkg/fetch"
	"github.com/premkondru/InstagramPostsScrapper/pkg/parse"
	"github.com/premkondru/InstagramPostsScrapper/pkg/table"
	"github.com/premkondru/InstagramPostsScrapper/pkg/utils"
)

// ReferenceColumn is the input column holding each record's image reference.
const ReferenceColumn = "url"

// OutputColumn is the column set (or overwritten) with the stored filename.
const OutputColumn = "image_name"

// Summary counts record outcomes for the operator-facing report.
type Summary struct {
	Total      int
	Downloaded int // remote fetches
	Copied     int // local file copies
	Inline     int // data: URI saves
	Missing    int // empty reference field
	Failed     int // classified but unretrievable
}

// Succeeded returns the number of records that produced a stored file.
func (s Summary) Succeeded() int {
	return s.Downloaded + s.Copied + s.Inline
}

// Pipeline processes one table, one record at a time, strictly in input
// order.
type Pipeline struct {
	store      *fetch.Store
	normalizer *convert.Normalizer
	log        *logrus.Entry
}

// New creates a Pipeline. Every log line carries a per-run ID so interleaved
// operator logs from repeated runs stay attributable.
func New(store *fetch.Store, normalizer *convert.Normalizer, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		normalizer: normalizer,
		log:        log.WithField("run_id", uuid.NewString()),
	}
}

// Run annotates every row of tbl with its final stored filename. The output
// column always exists afterwards; an empty value marks a record whose
// reference was empty or whose retrieval failed. Returns an error only for
// the fatal startup condition of a missing reference column.
func (p *Pipeline) Run(ctx context.Context, tbl *table.Table) (Summary, error) {
	urlCol, err := tbl.RequireColumn(ReferenceColumn)
	if err != nil {
		return Summary{}, err
	}
	outCol := tbl.EnsureColumn(OutputColumn)

	summary := Summary{Total: len(tbl.Rows)}
	for i := range tbl.Rows {
		rowLog := p.log.WithField("row", i)

		raw := tbl.Get(i, urlCol)
		if raw == "" {
			rowLog.Debug("Empty reference field; skipping")
			summary.Missing++
			tbl.Set(i, outCol, "")
			continue
		}

		ref := parse.Classify(raw)
		name, err := p.store.Save(ctx, ref, raw)
		if err != nil {
			rowLog.WithFields(logrus.Fields{
				"reference": raw,
				"kind":      ref.Kind().String(),
				"category":  utils.CategorizeError(err),
			}).Warnf("Failed to store image: %v", err)
			summary.Failed++
			tbl.Set(i, outCol, "")
			continue
		}

		switch ref.Kind() {
		case parse.KindInline:
			summary.Inline++
		case parse.KindRemote:
			summary.Downloaded++
		case parse.KindLocal:
			summary.Copied++
		}

		if p.normalizer != nil {
			name = p.normalizer.Apply(p.store.Dir(), name)
		}
		tbl.Set(i, outCol, name)
	}

	p.log.WithFields(logrus.Fields{
		"total":      summary.Total,
		"downloaded": summary.Downloaded,
		"copied":     summary.Copied,
		"inline":     summary.Inline,
		"missing":    summary.Missing,
		"failed":     summary.Failed,
	}).Info("Batch complete")
	return summary, nil
}
