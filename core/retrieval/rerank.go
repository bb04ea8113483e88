package retrieval

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/siherrmann/wellgraph/model"
)

// Query words that carry no lexical signal
var queryStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "did": true, "do": true, "does": true, "for": true, "from": true, "has": true,
	"have": true, "how": true, "in": true, "is": true, "it": true, "me": true, "of": true,
	"on": true, "or": true, "show": true, "tell": true, "that": true, "the": true, "there": true,
	"to": true, "was": true, "were": true, "what": true, "which": true, "who": true, "with": true,
}

// Reranker orders candidates by a weighted combination of vector and keyword score
type Reranker struct {
	VectorWeight  float64
	KeywordWeight float64
}

// NewReranker creates a reranker with the given weights.
// The weights are expected, not required, to sum to 1.
func NewReranker(vectorWeight, keywordWeight float64) *Reranker {
	return &Reranker{VectorWeight: vectorWeight, KeywordWeight: keywordWeight}
}

// Score returns vectorWeight*v + keywordWeight*k
func (r *Reranker) Score(vectorScore, keywordScore float64) float64 {
	return r.VectorWeight*vectorScore + r.KeywordWeight*keywordScore
}

// Rerank scores and sorts copies of the candidates, the input is not modified.
// Candidates without vector score count as 0. Ties are broken by vector rank,
// candidates without rank last, then by node id.
func (r *Reranker) Rerank(query string, candidates []*model.Candidate) []*model.Candidate {
	terms := QueryTerms(query)

	ranked := make([]*model.Candidate, len(candidates))
	for i, c := range candidates {
		scored := *c

		vectorScore := 0.0
		if c.VectorScore != nil {
			vectorScore = *c.VectorScore
		}
		if c.Node != nil {
			scored.KeywordScore = keywordCoverage(terms, c.Node.Text())
		}
		scored.FinalScore = r.Score(vectorScore, scored.KeywordScore)

		ranked[i] = &scored
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if ra, rb := rankKey(a), rankKey(b); ra != rb {
			return ra < rb
		}
		return a.NodeID < b.NodeID
	})

	return ranked
}

func rankKey(c *model.Candidate) int {
	if c.VectorRank < 0 {
		return math.MaxInt
	}
	return c.VectorRank
}

// KeywordScore is the share of query terms found in the text, in [0,1]
func KeywordScore(query string, text string) float64 {
	return keywordCoverage(QueryTerms(query), text)
}

// QueryTerms returns the distinct lower cased terms of a query without stopwords
func QueryTerms(query string) []string {
	var terms []string
	seen := map[string]bool{}
	for _, token := range tokenize(query) {
		if queryStopwords[token] || seen[token] {
			continue
		}
		seen[token] = true
		terms = append(terms, token)
	}
	return terms
}

func keywordCoverage(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}

	tokens := map[string]bool{}
	for _, token := range tokenize(text) {
		tokens[token] = true
	}

	matches := 0
	for _, term := range terms {
		if tokens[term] {
			matches++
		}
	}

	coverage := float64(matches) / float64(len(terms))
	if coverage > 1 {
		return 1
	}
	return coverage
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
