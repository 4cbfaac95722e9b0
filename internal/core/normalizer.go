package core

import "context"

// DocumentNormalizer is the capability every extraction backend implements.
// New providers are added by implementing this interface and registering it,
// not by branching pipeline logic.
type DocumentNormalizer interface {
	Normalize(ctx context.Context, doc SourceDocument) (*NormalizedDocument, error)
	Provider() Provider
}
