package mcp

import (
	"context"
	"fmt"

	"github.com/saramaebee/devrev-mcp/engine/core"
)

// Resource handlers mirror the read-side tools so MCP clients can
// navigate between objects through the links embedded in every
// enriched payload.

func (s *Server) handleTicketResource(ctx context.Context, params map[string]string) (any, error) {
	ref, err := requireTicketRef(params)
	if err != nil {
		return nil, err
	}
	return s.enricher.Ticket(ctx, ref)
}

func (s *Server) handleTicketTimelineResource(ctx context.Context, params map[string]string) (any, error) {
	ref, err := requireTicketRef(params)
	if err != nil {
		return nil, err
	}
	return s.enricher.Timeline(ctx, ref)
}

func (s *Server) handleTimelineEntryResource(ctx context.Context, params map[string]string) (any, error) {
	entryID, ok := params["entry_id"]
	if !ok || entryID == "" {
		return nil, core.NewError(
			fmt.Errorf("entry_id is required"),
			core.ErrorCodeValidationFailed,
			nil,
		)
	}
	// Conversation links carry the short entry ID, which
	// timeline-entries.get cannot resolve. Serve the surrounding ticket
	// timeline instead; it contains the entry.
	if !core.IsDonID(entryID) {
		ref, err := requireTicketRef(params)
		if err != nil {
			return nil, err
		}
		return s.enricher.Timeline(ctx, ref)
	}
	return s.enricher.TimelineEntry(ctx, entryID)
}

func (s *Server) handleTicketArtifactsResource(ctx context.Context, params map[string]string) (any, error) {
	ref, err := requireTicketRef(params)
	if err != nil {
		return nil, err
	}
	return s.enricher.TicketArtifacts(ctx, ref)
}

func (s *Server) handleArtifactResource(ctx context.Context, params map[string]string) (any, error) {
	id, err := requireArtifactID(params)
	if err != nil {
		return nil, err
	}
	return s.enricher.Artifact(ctx, id)
}

func (s *Server) handleArtifactTicketsResource(ctx context.Context, params map[string]string) (any, error) {
	id, err := requireArtifactID(params)
	if err != nil {
		return nil, err
	}
	return s.enricher.ArtifactTickets(ctx, id)
}

func (s *Server) handleIssueResource(ctx context.Context, params map[string]string) (any, error) {
	id, ok := params["id"]
	if !ok || id == "" {
		return nil, core.NewError(
			fmt.Errorf("issue id is required"),
			core.ErrorCodeValidationFailed,
			nil,
		)
	}
	ref, err := core.ParseWorkRef(id, core.WorkKindIssue)
	if err != nil {
		return nil, err
	}
	if ref.Kind != core.WorkKindIssue {
		return nil, core.NewError(
			fmt.Errorf("%q is not an issue identifier", id),
			core.ErrorCodeInvalidID,
			map[string]any{"id": id, "kind": string(ref.Kind)},
		)
	}
	return s.enricher.Ticket(ctx, ref)
}

func (s *Server) handleWorkResource(ctx context.Context, params map[string]string) (any, error) {
	id, ok := params["id"]
	if !ok || id == "" {
		return nil, core.NewError(
			fmt.Errorf("id is required"),
			core.ErrorCodeValidationFailed,
			nil,
		)
	}
	return s.enricher.Work(ctx, resolveWorkID(id))
}

func requireTicketRef(params map[string]string) (core.WorkRef, error) {
	id, ok := params["id"]
	if !ok || id == "" {
		return core.WorkRef{}, core.NewError(
			fmt.Errorf("ticket id is required"),
			core.ErrorCodeValidationFailed,
			nil,
		)
	}
	return core.ParseTicketRef(id)
}

func requireArtifactID(params map[string]string) (string, error) {
	id, ok := params["id"]
	if !ok || id == "" {
		return "", core.NewError(
			fmt.Errorf("artifact id is required"),
			core.ErrorCodeValidationFailed,
			nil,
		)
	}
	return core.NormalizeArtifactID(id)
}
