package pipeline

import (
	"context"

	"github.com/siherrmann/wellgraph/model"
)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// EntityExtractFunc extracts entities from query text.
// Returns a map keyed by model.Entity* keys, without keys that had no match.
type EntityExtractFunc func(text string) map[string]string

// ClassifyFunc maps query text and its entities to an intent
type ClassifyFunc func(text string, entities map[string]string) model.QueryIntent

// Pipeline combines extraction, classification and embedding of a query
type Pipeline struct {
	EntityExtractor EntityExtractFunc
	Classifier      ClassifyFunc
	Embedder        EmbedFunc // Optional, required for vector search
}

// NewPipeline creates a pipeline with the default extractor and classifier
func NewPipeline(embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		EntityExtractor: NewEntityExtractor().Extract,
		Classifier:      NewQueryClassifier(DefaultClassifierConfig()).Classify,
		Embedder:        embedder,
	}
}

// SetEntityExtractor sets the entity extraction function
func (p *Pipeline) SetEntityExtractor(extractor EntityExtractFunc) {
	p.EntityExtractor = extractor
}

// SetClassifier sets the classification function
func (p *Pipeline) SetClassifier(classifier ClassifyFunc) {
	p.Classifier = classifier
}

// Analyze extracts the entities of a query and classifies it
func (p *Pipeline) Analyze(text string) model.QueryIntent {
	entities := map[string]string{}
	if p.EntityExtractor != nil {
		entities = p.EntityExtractor(text)
	}
	if p.Classifier == nil {
		return model.QueryIntent{Entities: entities}
	}
	return p.Classifier(text, entities)
}
