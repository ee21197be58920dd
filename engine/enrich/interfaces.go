package enrich

import (
	"context"

	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
)

// API is the slice of the DevRev client the enrichment layer consumes
type API interface {
	GetWork(ctx context.Context, id string) (*devrev.Work, error)
	ListTimelineEntries(
		ctx context.Context,
		req devrev.TimelineEntriesListRequest,
	) (*devrev.TimelineEntriesListResponse, error)
	GetTimelineEntry(ctx context.Context, id string) (*devrev.TimelineEntry, error)
	GetArtifact(ctx context.Context, id string) (*devrev.Artifact, error)
	LocateArtifact(ctx context.Context, id string) (*devrev.ArtifactLocateResponse, error)
	ListLinks(ctx context.Context, objectID string) ([]devrev.Link, error)
	ListLinkTypes(ctx context.Context) ([]devrev.LinkType, error)
}

// Cache is the process-local store of enriched payloads, keyed by
// object type and canonical ID.
type Cache interface {
	Get(objectType core.ObjectType, id string) (string, bool)
	Set(objectType core.ObjectType, id, payload string)
	Delete(objectType core.ObjectType, id string) bool
}
