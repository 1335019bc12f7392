package strategy

import (
	"context"
	"errors"

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

// Engine names reported in SearchResponse.EngineUsed and Status.
const (
	EngineIndex      = "index"
	EngineRelational = "relational"
)

// ErrNotFound is returned by index operations on a document that does not
// exist. Deletes treat it as success.
var ErrNotFound = errors.New("document not found")

// Strategy is one search backend. Search receives the entity descriptors the
// caller is allowed to see; access filtering has already happened.
type Strategy interface {
	Name() string
	Search(ctx context.Context, req model.SearchRequest, entities []*registry.EntityDescriptor) (*model.SearchResponse, error)
	IsAvailable(ctx context.Context) bool
}

// DocumentIndexer is the optional write-side capability of a strategy.
// Only the index-engine strategy maintains documents.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, docType, id string, doc model.SearchDocument) error
	DeleteDocument(ctx context.Context, docType, id string) error
}

// IndexClient is the opaque transport to the inverted-index engine. The wire
// protocol belongs to the client implementation; this package only defines
// the query body and document shapes it receives.
type IndexClient interface {
	Search(ctx context.Context, body map[string]interface{}) (*model.IndexSearchResult, error)
	Index(ctx context.Context, docType, id string, doc model.SearchDocument) error
	Delete(ctx context.Context, docType, id string) error
	Ping(ctx context.Context) error
}
