package fusion

import (
	"context"
	"sort"

	"fishquery-be/internal/constant"
	"fishquery-be/internal/pkg/logger"
	"fishquery-be/pkg/rag/retriever"
	"fishquery-be/pkg/rerank"
)

// sourcePriority is the documented tie-break order: vector > graph > geo.
var sourcePriority = map[string]int{
	constant.CandidateSourceVector: 0,
	constant.CandidateSourceGraph:  1,
	constant.CandidateSourceGeo:    2,
}

// Item is a fused candidate annotated with its normalized and rerank scores.
type Item struct {
	retriever.Candidate
	NormScore   float64
	RerankScore float64
	Position    int
}

// Context is the final ranked, deduplicated context handed to the generator.
// Invariant: len(Items) <= the configured rerank depth.
type Context struct {
	Items []Item
	// Unreranked marks a degraded context ordered by normalized scores only,
	// because the rerank model was unavailable.
	Unreranked bool
}

// Fuser merges the three score-incomparable candidate lists into one ranking.
type Fuser struct {
	reranker rerank.Reranker
	topK     int
	logger   logger.ILogger
}

func NewFuser(reranker rerank.Reranker, topK int, log logger.ILogger) *Fuser {
	return &Fuser{
		reranker: reranker,
		topK:     topK,
		logger:   log,
	}
}

// Fuse deduplicates, normalizes per source, reranks and truncates. It never
// fails: rerank unavailability degrades to normalized-score order, and empty
// input yields an empty context. For fixed inputs and fixed rerank scores the
// output order is fully deterministic.
func (f *Fuser) Fuse(ctx context.Context, query string, candidates []retriever.Candidate) *Context {
	survivors := dedupe(candidates)
	if len(survivors) == 0 {
		return &Context{}
	}

	items := normalize(survivors)

	reranked, err := f.rerankItems(ctx, query, items)
	if err != nil {
		f.logger.Warn("fusion", "rerank unavailable, using normalized order", map[string]interface{}{
			"error":      err.Error(),
			"candidates": len(items),
		})
		sortByNorm(items)
		return f.truncate(&Context{Items: items, Unreranked: true})
	}

	sortByRerank(reranked)
	return f.truncate(&Context{Items: reranked})
}

// dedupe drops candidates whose payload is a duplicate (same source+id, or
// exact payload text), keeping the highest-scoring instance.
func dedupe(candidates []retriever.Candidate) []retriever.Candidate {
	type key struct {
		source string
		id     string
	}
	bestByKey := make(map[key]int)
	bestByText := make(map[string]int)
	var out []retriever.Candidate

	replaceIfBetter := func(at int, c retriever.Candidate) {
		if c.Score > out[at].Score {
			out[at] = c
		}
	}

	for _, c := range candidates {
		k := key{c.Source, c.ID}
		at, seen := bestByKey[k]
		if !seen {
			at, seen = bestByText[c.Payload]
		}
		if seen {
			replaceIfBetter(at, c)
			// Both identities now resolve to this slot, so a later
			// candidate sharing either one cannot slip past as new.
			bestByKey[k] = at
			bestByText[c.Payload] = at
			continue
		}
		bestByKey[k] = len(out)
		bestByText[c.Payload] = len(out)
		out = append(out, c)
	}
	return out
}

// normalize min-max scales each source's scores independently so no source
// dominates purely due to scale. A single-candidate source maps to 1.0.
func normalize(candidates []retriever.Candidate) []Item {
	minBySource := make(map[string]float64)
	maxBySource := make(map[string]float64)
	for _, c := range candidates {
		if min, seen := minBySource[c.Source]; !seen || c.Score < min {
			minBySource[c.Source] = c.Score
		}
		if max, seen := maxBySource[c.Source]; !seen || c.Score > max {
			maxBySource[c.Source] = c.Score
		}
	}

	items := make([]Item, len(candidates))
	for i, c := range candidates {
		min, max := minBySource[c.Source], maxBySource[c.Source]
		norm := 1.0
		if max > min {
			norm = (c.Score - min) / (max - min)
		}
		items[i] = Item{Candidate: c, NormScore: norm}
	}
	return items
}

func (f *Fuser) rerankItems(ctx context.Context, query string, items []Item) ([]Item, error) {
	candidates := make([]rerank.Candidate, len(items))
	for i, it := range items {
		candidates[i] = rerank.Candidate{
			ID:      it.Source + ":" + it.ID,
			Content: it.Payload,
		}
	}

	results, err := f.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	scoreByID := make(map[string]float64, len(results))
	for _, r := range results {
		scoreByID[r.ID] = r.Score
	}

	out := make([]Item, len(items))
	for i, it := range items {
		it.RerankScore = scoreByID[it.Source+":"+it.ID]
		out[i] = it
	}
	return out, nil
}

func sortByRerank(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.RerankScore != b.RerankScore {
			return a.RerankScore > b.RerankScore
		}
		if sourcePriority[a.Source] != sourcePriority[b.Source] {
			return sourcePriority[a.Source] < sourcePriority[b.Source]
		}
		return a.ID < b.ID
	})
}

func sortByNorm(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.NormScore != b.NormScore {
			return a.NormScore > b.NormScore
		}
		if sourcePriority[a.Source] != sourcePriority[b.Source] {
			return sourcePriority[a.Source] < sourcePriority[b.Source]
		}
		return a.ID < b.ID
	})
}

func (f *Fuser) truncate(c *Context) *Context {
	if f.topK > 0 && len(c.Items) > f.topK {
		c.Items = c.Items[:f.topK]
	}
	for i := range c.Items {
		c.Items[i].Position = i
	}
	return c
}
