package retrieval

import (
	"testing"

	"github.com/siherrmann/wellgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(node *model.Node, score float64, rank int) *model.Candidate {
	c := model.NewCandidate(node, model.ProvenanceVector)
	c.VectorScore = &score
	c.VectorRank = rank
	return c
}

func TestRerankerScore(t *testing.T) {
	t.Run("Combines vector and keyword score linearly", func(t *testing.T) {
		r := NewReranker(0.7, 0.3)
		assert.InDelta(t, 0.7*0.8+0.3*0.5, r.Score(0.8, 0.5), 1e-9)
		assert.InDelta(t, 0.0, r.Score(0, 0), 1e-9)
		assert.InDelta(t, 1.0, r.Score(1, 1), 1e-9)
	})
}

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		text     string
		expected float64
	}{
		{"All terms present", "GR curve", "log_curve curve:15_9-13:GR mnemonic: GR", 1.0},
		{"Half of the terms present", "GR density", "log_curve mnemonic: GR", 0.5},
		{"No term present", "porosity", "log_curve mnemonic: GR", 0.0},
		{"Only stopwords", "what is the", "log_curve mnemonic: GR", 0.0},
		{"Repeated terms count once", "gr gr curve", "mnemonic: GR", 0.5},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.InDelta(t, test.expected, KeywordScore(test.query, test.text), 1e-9)
		})
	}
}

func TestQueryTerms(t *testing.T) {
	t.Run("Drops stopwords and duplicates", func(t *testing.T) {
		assert.Equal(t, []string{"curves", "15", "9", "13"}, QueryTerms("What are the curves of 15/9-13, the curves?"))
	})
}

func TestRerank(t *testing.T) {
	t.Run("Orders by final score", func(t *testing.T) {
		gr := newCurve(t, "15_9-13", "GR")
		dt := newCurve(t, "15_9-13", "DT")
		r := NewReranker(0.7, 0.3)

		ranked := r.Rerank("GR", []*model.Candidate{scored(dt, 0.9, 0), scored(gr, 0.85, 1)})
		require.Len(t, ranked, 2)

		// GR: 0.7*0.85 + 0.3*1.0 > DT: 0.7*0.9
		assert.Equal(t, gr.ID, ranked[0].NodeID)
		assert.InDelta(t, 0.7*0.85+0.3, ranked[0].FinalScore, 1e-9)
		assert.InDelta(t, 1.0, ranked[0].KeywordScore, 1e-9)
		assert.InDelta(t, 0.7*0.9, ranked[1].FinalScore, 1e-9)
	})

	t.Run("Breaks ties by vector rank then node id", func(t *testing.T) {
		a := newCurve(t, "15_9-13", "GR")
		b := newCurve(t, "15_9-13", "DT")
		c := newCurve(t, "15_9-13", "BS")
		d := newCurve(t, "15_9-13", "SP")

		unranked := model.NewCandidate(d, model.ProvenanceGraphExpansion)
		other := model.NewCandidate(c, model.ProvenanceGraphExpansion)
		zero := 0.0

		r := NewReranker(0.7, 0.3)
		ranked := r.Rerank("zzz", []*model.Candidate{
			unranked,
			scored(a, zero, 3),
			other,
			scored(b, zero, 1),
		})

		ids := make([]string, len(ranked))
		for i, candidate := range ranked {
			ids[i] = candidate.NodeID
		}
		assert.Equal(t, []string{b.ID, a.ID, c.ID, d.ID}, ids)
	})

	t.Run("Missing vector score counts as zero", func(t *testing.T) {
		gr := newCurve(t, "15_9-13", "GR")
		r := NewReranker(0.7, 0.3)

		ranked := r.Rerank("GR", []*model.Candidate{model.NewCandidate(gr, model.ProvenanceGraphExpansion)})
		require.Len(t, ranked, 1)
		assert.InDelta(t, 0.3, ranked[0].FinalScore, 1e-9)
	})

	t.Run("Does not modify the input", func(t *testing.T) {
		gr := newCurve(t, "15_9-13", "GR")
		input := []*model.Candidate{scored(gr, 0.5, 0)}

		NewReranker(0.7, 0.3).Rerank("GR", input)
		assert.Equal(t, 0.0, input[0].FinalScore)
		assert.Equal(t, 0.0, input[0].KeywordScore)
	})

	t.Run("Empty input", func(t *testing.T) {
		assert.Empty(t, NewReranker(0.7, 0.3).Rerank("GR", nil))
	})
}
