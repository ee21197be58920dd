package enrich

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
	"github.com/saramaebee/devrev-mcp/pkg/logger"
)

const (
	// timelinePageSize matches the upstream default page size
	timelinePageSize = 50

	// maxTimelinePages caps pagination so a malformed cursor chain
	// cannot loop forever.
	maxTimelinePages = 50

	// linkTypesCacheKey caches the link-type catalog once per process
	linkTypesCacheKey = "catalog"

	apiVersion = "v1"
)

// Service resolves related objects for raw API records, decorates them
// with navigation URIs, and caches the result. All relation resolution
// degrades gracefully: a failed relation is logged and omitted, never
// fatal to the parent enrichment.
type Service struct {
	api   API
	cache Cache
}

// NewService creates an enrichment service
func NewService(api API, cache Cache) *Service {
	return &Service{api: api, cache: cache}
}

// fromCache decodes a cached enrichment, treating undecodable payloads
// as misses.
func fromCache[T any](cache Cache, objectType core.ObjectType, id string) (*T, bool) {
	payload, ok := cache.Get(objectType, id)
	if !ok {
		return nil, false
	}
	var value T
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return nil, false
	}
	return &value, true
}

// storeCache encodes and stores an enrichment; encoding failures only
// cost the cache entry.
func storeCache[T any](cache Cache, objectType core.ObjectType, id string, value *T) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		logger.Warn("failed to encode cache entry", "object_type", objectType, "id", id, "error", err)
		return
	}
	cache.Set(objectType, id, string(data))
}

// Ticket fetches a ticket and enriches it with timeline entries,
// artifacts, linked work items, and navigation links. With N referenced
// artifacts this issues at most one works.get plus N artifact fetches,
// each independently cached.
func (s *Service) Ticket(ctx context.Context, ref core.WorkRef) (*Ticket, error) {
	displayID := ref.DisplayID()
	if cached, ok := fromCache[Ticket](s.cache, ref.ObjectType(), displayID); ok {
		logger.Debug("ticket served from cache", "id", displayID)
		return cached, nil
	}

	work, err := s.api.GetWork(ctx, displayID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", displayID, err)
	}

	ticket := &Ticket{
		Work:            *work,
		TimelineEntries: []devrev.TimelineEntry{},
		Artifacts:       []Artifact{},
		Links:           enrichedWorkLinks(ref),
	}

	entries, err := s.listAllTimelineEntries(ctx, displayID)
	if err != nil {
		logger.Warn("could not fetch timeline entries", "id", displayID, "error", err)
	} else {
		ticket.TimelineEntries = entries
		for _, id := range collectArtifactIDs(entries) {
			artifact, artErr := s.Artifact(ctx, id)
			if artErr != nil {
				logger.Warn("could not fetch artifact", "artifact_id", id, "error", artErr)
				continue
			}
			ticket.Artifacts = append(ticket.Artifacts, *artifact)
			ticket.ArtifactURIs = append(ticket.ArtifactURIs, ArtifactURI(id))
		}
	}

	if linked, linkErr := s.linkedWorkItems(ctx, work.ID, displayID); linkErr != nil {
		logger.Warn("could not fetch linked work items", "id", displayID, "error", linkErr)
	} else {
		ticket.LinkedWorkItems = linked
	}

	storeCache(s.cache, ref.ObjectType(), displayID, ticket)
	return ticket, nil
}

// Work fetches any work item by its given identifier and decorates it
// with type-aware navigation links.
func (s *Service) Work(ctx context.Context, id string) (*Work, error) {
	if cached, ok := fromCache[Work](s.cache, core.ObjectTypeWork, id); ok {
		logger.Debug("work item served from cache", "id", id)
		return cached, nil
	}

	raw, err := s.api.GetWork(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch work item %s: %w", id, err)
	}

	links := map[string]string{"self": WorkURI(raw.DisplayID)}
	if ref, refErr := core.ParseWorkRef(raw.DisplayID, core.WorkKindTicket); refErr == nil {
		links = workNavigationLinks(ref)
	}

	work := &Work{
		Work:  *raw,
		Links: links,
		Metadata: WorkMetadata{
			ResourceType: "work",
			WorkType:     raw.Type,
			APIVersion:   apiVersion,
		},
	}

	storeCache(s.cache, core.ObjectTypeWork, id, work)
	return work, nil
}

// Artifact fetches artifact metadata and resolves a temporary download
// URL via artifacts.locate. Locate failures degrade to metadata-only.
func (s *Service) Artifact(ctx context.Context, id string) (*Artifact, error) {
	if cached, ok := fromCache[Artifact](s.cache, core.ObjectTypeArtifact, id); ok {
		logger.Debug("artifact served from cache", "id", id)
		return cached, nil
	}

	raw, err := s.api.GetArtifact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artifact %s: %w", id, err)
	}

	artifact := &Artifact{Artifact: *raw}
	if artifact.ResolveDownloadURL() == "" {
		located, locErr := s.api.LocateArtifact(ctx, id)
		switch {
		case locErr != nil:
			logger.Warn("could not locate artifact download URL", "artifact_id", id, "error", locErr)
		case located.URL != "":
			artifact.DownloadURL = located.URL
		case located.Artifact != nil && located.Artifact.ResolveDownloadURL() != "":
			artifact.DownloadURL = located.Artifact.ResolveDownloadURL()
		}
	}

	artifact.Links = map[string]string{
		"self":    ArtifactURI(id),
		"tickets": ArtifactTicketsURI(id),
	}

	storeCache(s.cache, core.ObjectTypeArtifact, id, artifact)
	return artifact, nil
}

// TimelineEntry fetches one timeline entry and adds parent navigation
func (s *Service) TimelineEntry(ctx context.Context, entryID string) (*TimelineEntry, error) {
	if cached, ok := fromCache[TimelineEntry](s.cache, core.ObjectTypeTimelineEntry, entryID); ok {
		logger.Debug("timeline entry served from cache", "id", entryID)
		return cached, nil
	}

	raw, err := s.api.GetTimelineEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timeline entry %s: %w", entryID, err)
	}

	entry := &TimelineEntry{
		TimelineEntry: *raw,
		Links:         map[string]string{},
	}
	if ref, refErr := core.ParseWorkRef(raw.Object, core.WorkKindTicket); refErr == nil && ref.Kind == core.WorkKindTicket {
		entry.Links["ticket"] = TicketURI(ref.Num)
		entry.Links["ticket_timeline"] = TicketTimelineURI(ref.Num)
	}
	for _, artifact := range raw.Artifacts {
		entry.ArtifactURIs = append(entry.ArtifactURIs, ArtifactURI(artifact.ID))
	}

	storeCache(s.cache, core.ObjectTypeTimelineEntry, entryID, entry)
	return entry, nil
}

// TicketArtifacts returns the artifact collection of a ticket, with
// per-artifact navigation links.
func (s *Service) TicketArtifacts(ctx context.Context, ref core.WorkRef) (*TicketArtifacts, error) {
	ticket, err := s.Ticket(ctx, ref)
	if err != nil {
		return nil, err
	}

	collection := &TicketArtifacts{
		Artifacts: make([]Artifact, 0, len(ticket.Artifacts)),
		Links: map[string]string{
			"ticket": TicketURI(ref.Num),
		},
	}
	for _, artifact := range ticket.Artifacts {
		withLinks := artifact
		withLinks.Links = map[string]string{
			"self":   ArtifactURI(artifact.ID),
			"ticket": TicketURI(ref.Num),
		}
		collection.Artifacts = append(collection.Artifacts, withLinks)
	}
	return collection, nil
}

// ArtifactTickets reverse-resolves the work items referencing an
// artifact through links.list, degrading to an empty list.
func (s *Service) ArtifactTickets(ctx context.Context, artifactID string) (*ArtifactTickets, error) {
	result := &ArtifactTickets{
		LinkedTickets: []LinkedWorkItem{},
		Links: map[string]string{
			"artifact": ArtifactURI(artifactID),
		},
	}

	links, err := s.api.ListLinks(ctx, artifactID)
	if err != nil {
		logger.Warn("could not reverse-resolve artifact links", "artifact_id", artifactID, "error", err)
		return result, nil
	}

	types, _ := s.linkTypes(ctx)
	result.LinkedTickets = processLinks(links, artifactID, core.TailID(artifactID), types)
	return result, nil
}

// Invalidate drops all cached enrichments derived from a work item so
// the next read refetches. Update tools call this after a write.
func (s *Service) Invalidate(id string) {
	s.cache.Delete(core.ObjectTypeWork, id)
	s.cache.Delete(core.ObjectTypeTimelineEntry, id)
	if ref, err := core.ParseWorkRef(id, core.WorkKindTicket); err == nil {
		s.cache.Delete(ref.ObjectType(), ref.DisplayID())
		s.cache.Delete(core.ObjectTypeWork, ref.DisplayID())
		s.cache.Delete(core.ObjectTypeTimelineEntry, ref.DisplayID())
	}
}

// listAllTimelineEntries pages through the full timeline of an object
func (s *Service) listAllTimelineEntries(ctx context.Context, objectID string) ([]devrev.TimelineEntry, error) {
	var all []devrev.TimelineEntry
	cursor := ""

	for page := 0; page < maxTimelinePages; page++ {
		req := devrev.TimelineEntriesListRequest{
			Object: objectID,
			Limit:  timelinePageSize,
		}
		if cursor != "" {
			req.Cursor = cursor
			req.Mode = "after"
		}

		resp, err := s.api.ListTimelineEntries(ctx, req)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.TimelineEntries...)

		cursor = resp.NextCursor
		if cursor == "" || len(resp.TimelineEntries) == 0 {
			break
		}
	}
	return all, nil
}

// linkTypes returns the cached link-type catalog, fetching it once
func (s *Service) linkTypes(ctx context.Context) (map[string]devrev.LinkType, error) {
	if cached, ok := fromCache[map[string]devrev.LinkType](s.cache, core.ObjectTypeLinkTypes, linkTypesCacheKey); ok {
		return *cached, nil
	}

	listed, err := s.api.ListLinkTypes(ctx)
	if err != nil {
		logger.Warn("could not fetch link types", "error", err)
		return map[string]devrev.LinkType{}, err
	}

	catalog := make(map[string]devrev.LinkType, len(listed))
	for _, lt := range listed {
		if lt.ID != "" {
			catalog[lt.ID] = lt
		}
	}
	storeCache(s.cache, core.ObjectTypeLinkTypes, linkTypesCacheKey, &catalog)
	return catalog, nil
}

// linkedWorkItems resolves both directions of every link on a work item
func (s *Service) linkedWorkItems(ctx context.Context, donID, displayID string) ([]LinkedWorkItem, error) {
	links, err := s.api.ListLinks(ctx, donID)
	if err != nil {
		return nil, err
	}
	types, _ := s.linkTypes(ctx)
	return processLinks(links, donID, displayID, types), nil
}

// processLinks converts raw links into deduplicated linked work items
// with relationship descriptions rendered from the link-type catalog.
func processLinks(
	links []devrev.Link,
	selfID, selfDisplayID string,
	types map[string]devrev.LinkType,
) []LinkedWorkItem {
	var items []LinkedWorkItem
	seen := make(map[string]bool)

	for _, link := range links {
		for _, side := range []struct {
			endpoint  *devrev.LinkEndpoint
			direction string
		}{
			{link.Target, "outbound"},
			{link.Source, "inbound"},
		} {
			ep := side.endpoint
			if ep == nil || ep.ID == "" || ep.ID == selfID || seen[ep.ID] {
				continue
			}
			seen[ep.ID] = true

			item := LinkedWorkItem{
				ID:                    ep.ID,
				Type:                  ep.Type,
				DisplayID:             ep.DisplayID,
				Title:                 ep.Title,
				LinkType:              link.LinkType,
				RelationshipDirection: side.direction,
				Stage:                 stageName(ep.Stage),
				Priority:              orUnknown(ep.Priority),
				OwnedBy:               ep.OwnedBy,
				Links:                 linkedItemLinks(ep),
			}
			item.RelationshipDescription = describeRelationship(
				selfDisplayID, ep.DisplayID, link.LinkType, side.direction, types,
			)
			if ep.SyncMetadata != nil && ep.SyncMetadata.ExternalReference != "" {
				item.ExternalReference = ep.SyncMetadata.ExternalReference
				item.OriginSystem = orUnknown(ep.SyncMetadata.OriginSystem)
			}
			items = append(items, item)
		}
	}
	return items
}

// describeRelationship renders "TKT-1 is blocked by ISS-2" style text
// using the link type's directional names.
func describeRelationship(
	selfDisplayID, otherDisplayID, linkType, direction string,
	types map[string]devrev.LinkType,
) string {
	name := linkType
	if lt, ok := types[linkType]; ok {
		if direction == "outbound" && lt.ForwardName != "" {
			name = lt.ForwardName
		} else if direction == "inbound" && lt.BackwardName != "" {
			name = lt.BackwardName
		}
	}
	if direction == "outbound" {
		return fmt.Sprintf("%s %s %s", selfDisplayID, name, otherDisplayID)
	}
	return fmt.Sprintf("%s %s %s", otherDisplayID, name, selfDisplayID)
}

// collectArtifactIDs gathers unique artifact IDs across timeline entries
func collectArtifactIDs(entries []devrev.TimelineEntry) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		for _, artifact := range entry.Artifacts {
			if artifact.ID != "" && !seen[artifact.ID] {
				seen[artifact.ID] = true
				ids = append(ids, artifact.ID)
			}
		}
	}
	return ids
}

func stageName(stage *devrev.StageSummary) string {
	if stage == nil || stage.Name == "" {
		return "unknown"
	}
	return stage.Name
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
