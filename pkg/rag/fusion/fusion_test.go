package fusion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishquery-be/internal/constant"
	"fishquery-be/pkg/rag/retriever"
	"fishquery-be/pkg/rerank"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// fakeReranker scores candidates from a fixed table, or fails.
type fakeReranker struct {
	scores map[string]float64
	err    error
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, candidates []rerank.Candidate) ([]rerank.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]rerank.Result, len(candidates))
	for i, c := range candidates {
		out[i] = rerank.Result{ID: c.ID, Score: f.scores[c.ID]}
	}
	return out, nil
}

func (f *fakeReranker) ModelName() string { return "fake-rerank" }

func vectorCand(id, payload string, score float64) retriever.Candidate {
	return retriever.Candidate{Source: constant.CandidateSourceVector, ID: id, Score: score, Payload: payload}
}

func graphCand(id, payload string, score float64) retriever.Candidate {
	return retriever.Candidate{Source: constant.CandidateSourceGraph, ID: id, Score: score, Payload: payload}
}

func geoCand(id, payload string, score float64) retriever.Candidate {
	return retriever.Candidate{Source: constant.CandidateSourceGeo, ID: id, Score: score, Payload: payload}
}

func TestFuseEmptyInput(t *testing.T) {
	f := NewFuser(&fakeReranker{}, 5, nopLogger{})

	got := f.Fuse(context.Background(), "bag limit", nil)

	assert.Empty(t, got.Items)
	assert.False(t, got.Unreranked)
}

func TestFuseTruncatesToTopK(t *testing.T) {
	f := NewFuser(&fakeReranker{scores: map[string]float64{}}, 2, nopLogger{})

	got := f.Fuse(context.Background(), "q", []retriever.Candidate{
		vectorCand("1", "a", 0.9),
		vectorCand("2", "b", 0.5),
		graphCand("3", "c", 4.0),
		geoCand("4", "d", 1.0),
	})

	require.Len(t, got.Items, 2)
	for i, it := range got.Items {
		assert.Equal(t, i, it.Position)
	}
}

func TestFuseDedupeKeepsHighestScore(t *testing.T) {
	f := NewFuser(&fakeReranker{err: rerank.ErrUnavailable}, 10, nopLogger{})

	got := f.Fuse(context.Background(), "q", []retriever.Candidate{
		vectorCand("1", "snapper limits", 0.4),
		vectorCand("1", "snapper limits", 0.9),
		vectorCand("2", "other passage", 0.5),
	})

	require.Len(t, got.Items, 2)
	assert.Equal(t, "1", got.Items[0].ID)
	assert.InDelta(t, 0.9, got.Items[0].Score, 1e-9)
}

func TestFuseDedupeByPayloadAcrossSources(t *testing.T) {
	f := NewFuser(&fakeReranker{err: rerank.ErrUnavailable}, 10, nopLogger{})

	got := f.Fuse(context.Background(), "q", []retriever.Candidate{
		vectorCand("1", "closure in botany bay", 0.4),
		geoCand("9", "closure in botany bay", 1.0),
	})

	require.Len(t, got.Items, 1)
	// The geo instance scored higher, so it replaced the vector one in place.
	assert.Equal(t, constant.CandidateSourceGeo, got.Items[0].Source)
}

func TestFuseDedupeAbsorbedKeyStillRegistered(t *testing.T) {
	f := NewFuser(&fakeReranker{err: rerank.ErrUnavailable}, 10, nopLogger{})

	// The graph candidate first lands in the vector candidate's slot through
	// the shared payload text; its own identity must stick to that slot so
	// the second graph/r1 row cannot survive as a duplicate.
	got := f.Fuse(context.Background(), "q", []retriever.Candidate{
		vectorCand("p1", "same text", 0.5),
		graphCand("r1", "same text", 0.9),
		graphCand("r1", "other text", 0.95),
	})

	require.Len(t, got.Items, 1)
	assert.Equal(t, constant.CandidateSourceGraph, got.Items[0].Source)
	assert.Equal(t, "r1", got.Items[0].ID)
}

func TestFuseRerankOrderWins(t *testing.T) {
	reranker := &fakeReranker{scores: map[string]float64{
		"vector:1": 0.1,
		"graph:2":  0.9,
	}}
	f := NewFuser(reranker, 10, nopLogger{})

	got := f.Fuse(context.Background(), "q", []retriever.Candidate{
		vectorCand("1", "a", 0.99),
		graphCand("2", "b", 0.01),
	})

	require.Len(t, got.Items, 2)
	assert.False(t, got.Unreranked)
	assert.Equal(t, "2", got.Items[0].ID)
	assert.Equal(t, "1", got.Items[1].ID)
}

func TestFuseTieBreakSourcePriorityThenID(t *testing.T) {
	reranker := &fakeReranker{scores: map[string]float64{
		"geo:1":    0.5,
		"graph:1":  0.5,
		"vector:2": 0.5,
		"vector:1": 0.5,
	}}
	f := NewFuser(reranker, 10, nopLogger{})

	got := f.Fuse(context.Background(), "q", []retriever.Candidate{
		geoCand("1", "a", 1.0),
		graphCand("1", "b", 1.0),
		vectorCand("2", "c", 1.0),
		vectorCand("1", "d", 1.0),
	})

	require.Len(t, got.Items, 4)
	assert.Equal(t, constant.CandidateSourceVector, got.Items[0].Source)
	assert.Equal(t, "1", got.Items[0].ID)
	assert.Equal(t, constant.CandidateSourceVector, got.Items[1].Source)
	assert.Equal(t, "2", got.Items[1].ID)
	assert.Equal(t, constant.CandidateSourceGraph, got.Items[2].Source)
	assert.Equal(t, constant.CandidateSourceGeo, got.Items[3].Source)
}

func TestFuseRerankFailureFallsBackToNormalizedOrder(t *testing.T) {
	f := NewFuser(&fakeReranker{err: errors.New("rerank down")}, 10, nopLogger{})

	// Graph scores live on a different scale than vector scores; min-max
	// normalization makes them comparable.
	got := f.Fuse(context.Background(), "q", []retriever.Candidate{
		vectorCand("1", "a", 0.2),
		vectorCand("2", "b", 0.8),
		graphCand("3", "c", 12.0),
		graphCand("4", "d", 3.0),
	})

	require.Len(t, got.Items, 4)
	assert.True(t, got.Unreranked)
	// Per-source maxima normalize to 1.0; vector wins the tie on priority.
	assert.Equal(t, "2", got.Items[0].ID)
	assert.Equal(t, "3", got.Items[1].ID)
}

func TestFuseSingleCandidateSourceNormalizesToOne(t *testing.T) {
	f := NewFuser(&fakeReranker{err: rerank.ErrUnavailable}, 10, nopLogger{})

	got := f.Fuse(context.Background(), "q", []retriever.Candidate{
		geoCand("1", "a", 0.5),
	})

	require.Len(t, got.Items, 1)
	assert.InDelta(t, 1.0, got.Items[0].NormScore, 1e-9)
}

func TestFuseMixedSourcesScenario(t *testing.T) {
	// Three passages, two graph edges, one closure boundary. The reranker
	// favours the boundary and the strongest passage; the weakest passage
	// must land behind both.
	reranker := &fakeReranker{scores: map[string]float64{
		"vector:p1": 0.8,
		"vector:p2": 0.6,
		"vector:p3": 0.2,
		"graph:g1":  0.5,
		"graph:g2":  0.4,
		"geo:b1":    0.9,
	}}
	f := NewFuser(reranker, 5, nopLogger{})

	got := f.Fuse(context.Background(), "can i catch snapper near botany bay in october", []retriever.Candidate{
		vectorCand("p1", "snapper size and bag limits", 0.81),
		vectorCand("p2", "october seasonal closures", 0.77),
		vectorCand("p3", "general licensing rules", 0.55),
		graphCand("g1", "snapper — is subject to — bag limit 10", 3.0),
		graphCand("g2", "snapper — is found in — botany bay", 2.0),
		geoCand("b1", "Botany Bay (closure): no take in october", 1.0),
	})

	require.Len(t, got.Items, 5)
	positionOf := func(id string) int {
		for _, it := range got.Items {
			if it.ID == id {
				return it.Position
			}
		}
		return -1
	}
	assert.Equal(t, 0, positionOf("b1"))
	assert.Equal(t, 1, positionOf("p1"))
	// The weakest passage fell off the truncated context entirely.
	assert.Equal(t, -1, positionOf("p3"))
}

func TestFuseDeterministicAcrossRuns(t *testing.T) {
	reranker := &fakeReranker{scores: map[string]float64{
		"vector:a": 0.7, "vector:b": 0.7, "graph:a": 0.7, "geo:z": 0.3,
	}}
	f := NewFuser(reranker, 10, nopLogger{})

	input := []retriever.Candidate{
		graphCand("a", "p1", 2.0),
		vectorCand("b", "p2", 0.5),
		geoCand("z", "p3", 1.0),
		vectorCand("a", "p4", 0.9),
	}

	first := f.Fuse(context.Background(), "q", input)
	for i := 0; i < 5; i++ {
		again := f.Fuse(context.Background(), "q", input)
		require.Len(t, again.Items, len(first.Items))
		for j := range first.Items {
			assert.Equal(t, first.Items[j].Source, again.Items[j].Source)
			assert.Equal(t, first.Items[j].ID, again.Items[j].ID)
		}
	}
}
