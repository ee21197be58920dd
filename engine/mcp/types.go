package mcp

import (
	"context"

	"github.com/saramaebee/devrev-mcp/engine/artifact"
	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
	"github.com/saramaebee/devrev-mcp/engine/enrich"
)

// Enricher composes raw API records with their relations and caches
// the results for the lifetime of the server process.
type Enricher interface {
	Ticket(ctx context.Context, ref core.WorkRef) (*enrich.Ticket, error)
	Timeline(ctx context.Context, ref core.WorkRef) (*enrich.Timeline, error)
	TimelineEntry(ctx context.Context, entryID string) (*enrich.TimelineEntry, error)
	Artifact(ctx context.Context, id string) (*enrich.Artifact, error)
	TicketArtifacts(ctx context.Context, ref core.WorkRef) (*enrich.TicketArtifacts, error)
	ArtifactTickets(ctx context.Context, artifactID string) (*enrich.ArtifactTickets, error)
	Work(ctx context.Context, id string) (*enrich.Work, error)
	Invalidate(id string)
}

// API is the slice of the DevRev client the tool handlers call directly
type API interface {
	CreateWork(ctx context.Context, req devrev.WorksCreateRequest) (*devrev.Work, error)
	UpdateWork(ctx context.Context, req devrev.WorksUpdateRequest) (*devrev.Work, error)
	CreateTimelineEntry(ctx context.Context, req devrev.TimelineEntryCreateRequest) (*devrev.TimelineEntry, error)
	SearchHybrid(ctx context.Context, req devrev.SearchHybridRequest) ([]devrev.SearchResult, error)
	SearchCore(ctx context.Context, req devrev.SearchCoreRequest) ([]devrev.SearchResult, error)
}

// Downloader saves artifact content to the local filesystem
type Downloader interface {
	Download(ctx context.Context, artifactID, dir, filename string) (*artifact.Result, error)
}
