package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
	"github.com/saramaebee/devrev-mcp/engine/enrich"
)

// validNamespaces are the object namespaces hybrid search accepts
var validNamespaces = map[string]bool{
	"article":  true,
	"issue":    true,
	"ticket":   true,
	"part":     true,
	"dev_user": true,
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return nil, err
	}
	namespace, err := req.RequireString("namespace")
	if err != nil {
		return nil, err
	}
	if !validNamespaces[namespace] {
		return nil, core.NewError(
			fmt.Errorf("invalid namespace %q: must be one of article, issue, ticket, part, dev_user", namespace),
			core.ErrorCodeValidationFailed,
			map[string]any{"namespace": namespace},
		)
	}

	results, err := s.api.SearchHybrid(ctx, devrev.SearchHybridRequest{
		Query:     query,
		Namespace: namespace,
	})
	if err != nil {
		return nil, err
	}

	return newToolResultJSON(map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleCoreSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	searchReq := devrev.SearchCoreRequest{
		Query:     getString(req, "query"),
		Title:     getString(req, "title"),
		Tag:       getString(req, "tag"),
		Type:      getString(req, "type"),
		Status:    getString(req, "status"),
		Namespace: getString(req, "namespace"),
	}
	if searchReq.Query == "" && searchReq.Title == "" && searchReq.Tag == "" {
		return nil, core.NewError(
			fmt.Errorf("at least one of query, title, or tag is required"),
			core.ErrorCodeValidationFailed,
			nil,
		)
	}

	results, err := s.api.SearchCore(ctx, searchReq)
	if err != nil {
		return nil, err
	}

	return newToolResultJSON(map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleGetObject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, err
	}

	work, err := s.enricher.Work(ctx, resolveWorkID(id))
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(work)
}

func (s *Server) handleGetWork(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, err
	}

	work, err := s.enricher.Work(ctx, resolveWorkID(id))
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(work)
}

func (s *Server) handleCreateObject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectType, err := req.RequireString("type")
	if err != nil {
		return nil, err
	}
	if objectType != "issue" && objectType != "ticket" {
		return nil, core.NewError(
			fmt.Errorf("invalid type %q: must be 'issue' or 'ticket'", objectType),
			core.ErrorCodeValidationFailed,
			map[string]any{"type": objectType},
		)
	}
	title, err := req.RequireString("title")
	if err != nil {
		return nil, err
	}
	appliesToPart, err := req.RequireString("applies_to_part")
	if err != nil {
		return nil, err
	}

	createReq := devrev.WorksCreateRequest{
		Type:          objectType,
		Title:         title,
		AppliesToPart: appliesToPart,
		Body:          getString(req, "body"),
	}
	if ownedBy := getString(req, "owned_by"); ownedBy != "" {
		for _, owner := range strings.Split(ownedBy, ",") {
			if owner = strings.TrimSpace(owner); owner != "" {
				createReq.OwnedBy = append(createReq.OwnedBy, owner)
			}
		}
	}

	work, err := s.api.CreateWork(ctx, createReq)
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(work)
}

func (s *Server) handleUpdateObject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, err
	}
	objectType, err := req.RequireString("type")
	if err != nil {
		return nil, err
	}
	if objectType != "issue" && objectType != "ticket" {
		return nil, core.NewError(
			fmt.Errorf("invalid type %q: must be 'issue' or 'ticket'", objectType),
			core.ErrorCodeValidationFailed,
			map[string]any{"type": objectType},
		)
	}

	title := getString(req, "title")
	body := getString(req, "body")
	if title == "" && body == "" {
		return nil, core.NewError(
			fmt.Errorf("at least one of title or body is required"),
			core.ErrorCodeValidationFailed,
			nil,
		)
	}

	fallback := core.WorkKindTicket
	if objectType == "issue" {
		fallback = core.WorkKindIssue
	}
	resolvedID := id
	if ref, refErr := core.ParseWorkRef(id, fallback); refErr == nil {
		resolvedID = ref.DisplayID()
	}

	work, err := s.api.UpdateWork(ctx, devrev.WorksUpdateRequest{
		ID:    resolvedID,
		Type:  objectType,
		Title: title,
		Body:  body,
	})
	if err != nil {
		return nil, err
	}

	// Cached enrichments of this work item are now stale
	s.enricher.Invalidate(resolvedID)

	return newToolResultJSON(work)
}

func (s *Server) handleGetTicket(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, err
	}
	ref, err := core.ParseTicketRef(id)
	if err != nil {
		return nil, err
	}

	ticket, err := s.enricher.Ticket(ctx, ref)
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(ticket)
}

func (s *Server) handleGetTimelineEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, err
	}
	ref, err := core.ParseTicketRef(id)
	if err != nil {
		return nil, err
	}

	format := req.GetString("format", "summary")
	if format != "summary" && format != "detailed" && format != "full" {
		return nil, core.NewError(
			fmt.Errorf("invalid format %q: must be 'summary', 'detailed', or 'full'", format),
			core.ErrorCodeValidationFailed,
			map[string]any{"format": format},
		)
	}

	timeline, err := s.enricher.Timeline(ctx, ref)
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(formatTimeline(timeline, format))
}

// formatTimeline shapes the timeline for the requested detail level.
// summary keeps the header and counts, detailed adds the conversation
// thread, full returns everything.
func formatTimeline(timeline *enrich.Timeline, format string) any {
	switch format {
	case "summary":
		return map[string]any{
			"summary":            timeline.Summary,
			"conversation_count": len(timeline.ConversationThread),
			"key_event_count":    len(timeline.KeyEvents),
			"visibility_summary": timeline.VisibilitySummary,
			"links":              timeline.Links,
		}
	case "detailed":
		return map[string]any{
			"summary":             timeline.Summary,
			"conversation_thread": timeline.ConversationThread,
			"key_event_count":     len(timeline.KeyEvents),
			"visibility_summary":  timeline.VisibilitySummary,
			"links":               timeline.Links,
		}
	default:
		return timeline
	}
}

func (s *Server) handleCreateTimelineComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workID, err := req.RequireString("work_id")
	if err != nil {
		return nil, err
	}
	body, err := req.RequireString("body")
	if err != nil {
		return nil, err
	}

	// Comments default to internal visibility so agent notes never leak
	// to the customer unless explicitly requested.
	createReq := devrev.TimelineEntryCreateRequest{
		Object:      resolveWorkID(workID),
		Body:        body,
		BodyType:    "text",
		Type:        string(core.EntryTypeComment),
		Collections: []string{"discussions"},
		Visibility:  string(core.VisibilityInternal),
	}
	if visibility := getString(req, "visibility"); visibility != "" {
		v := core.NormalizeVisibility(visibility)
		switch v {
		case core.VisibilityPrivate, core.VisibilityInternal, core.VisibilityExternal, core.VisibilityPublic:
			createReq.Visibility = string(v)
		default:
			return nil, core.NewError(
				fmt.Errorf("invalid visibility %q: must be 'private', 'internal', 'external', or 'public'", visibility),
				core.ErrorCodeValidationFailed,
				map[string]any{"visibility": visibility},
			)
		}
	}

	entry, err := s.api.CreateTimelineEntry(ctx, createReq)
	if err != nil {
		return nil, err
	}

	// The cached timeline no longer reflects the new comment
	s.enricher.Invalidate(createReq.Object)

	return newToolResultJSON(entry)
}

func (s *Server) handleDownloadArtifact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artifactID, err := req.RequireString("artifact_id")
	if err != nil {
		return nil, err
	}

	dir := req.GetString("directory", s.config.Download.Dir)
	filename := getString(req, "filename")

	result, err := s.downloader.Download(ctx, artifactID, dir, filename)
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(result)
}

// resolveWorkID canonicalizes recognized work ID forms and passes
// anything else through for the API to interpret.
func resolveWorkID(id string) string {
	if ref, err := core.ParseWorkRef(id, core.WorkKindTicket); err == nil {
		return ref.DisplayID()
	}
	return id
}
