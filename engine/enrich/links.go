package enrich

import (
	"fmt"
	"net/url"

	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
)

// Navigation URIs are string-templated on canonical IDs. Tickets and
// issues use the bare number in their resource paths; artifacts carry
// the full ID, escaped so it stays a single path segment.

// URIScheme is the resource scheme this server registers
const URIScheme = "devrev"

// TicketURI returns the resource URI for a ticket number
func TicketURI(num string) string {
	return fmt.Sprintf("%s://tickets/%s", URIScheme, num)
}

// TicketTimelineURI returns the timeline resource URI for a ticket
func TicketTimelineURI(num string) string {
	return fmt.Sprintf("%s://tickets/%s/timeline", URIScheme, num)
}

// TimelineEntryURI returns the resource URI for one timeline entry
func TimelineEntryURI(ticketNum, entryID string) string {
	return fmt.Sprintf("%s://tickets/%s/timeline/%s", URIScheme, ticketNum, entryID)
}

// TicketArtifactsURI returns the artifact collection URI for a ticket
func TicketArtifactsURI(num string) string {
	return fmt.Sprintf("%s://tickets/%s/artifacts", URIScheme, num)
}

// ArtifactURI returns the resource URI for an artifact. The ID is kept
// in the form artifacts.get accepts; don IDs contain ':' and '/' so the
// value is escaped to keep the artifacts/{id} template matchable.
func ArtifactURI(id string) string {
	return fmt.Sprintf("%s://artifacts/%s", URIScheme, url.QueryEscape(id))
}

// ArtifactTicketsURI returns the reverse-lookup URI for an artifact
func ArtifactTicketsURI(id string) string {
	return fmt.Sprintf("%s://artifacts/%s/tickets", URIScheme, url.QueryEscape(id))
}

// WorkURI returns the unified work item URI for a display ID
func WorkURI(displayID string) string {
	return fmt.Sprintf("%s://works/%s", URIScheme, displayID)
}

// IssueURI returns the resource URI for an issue number
func IssueURI(num string) string {
	return fmt.Sprintf("%s://issues/%s", URIScheme, num)
}

// enrichedWorkLinks builds the link map for a fully enriched work
// item. Tickets link to their timeline and artifact collections; issues
// link back to their own resource and the unified works view.
func enrichedWorkLinks(ref core.WorkRef) map[string]string {
	if ref.Kind == core.WorkKindIssue {
		return map[string]string{
			"self":      IssueURI(ref.Num),
			"work_item": WorkURI(ref.DisplayID()),
		}
	}
	return map[string]string{
		"timeline":  TicketTimelineURI(ref.Num),
		"artifacts": TicketArtifactsURI(ref.Num),
	}
}

// workNavigationLinks builds the navigation map for a work item based
// on its kind.
func workNavigationLinks(ref core.WorkRef) map[string]string {
	links := map[string]string{
		"self": WorkURI(ref.DisplayID()),
	}
	switch ref.Kind {
	case core.WorkKindTicket:
		links["ticket"] = TicketURI(ref.Num)
		links["timeline"] = TicketTimelineURI(ref.Num)
		links["artifacts"] = TicketArtifactsURI(ref.Num)
	case core.WorkKindIssue:
		links["issue"] = IssueURI(ref.Num)
	}
	return links
}

// linkedItemLinks builds navigation links for a linked work item found
// through links.list.
func linkedItemLinks(endpoint *devrev.LinkEndpoint) map[string]string {
	if endpoint.DisplayID == "" {
		return map[string]string{}
	}
	links := map[string]string{
		"work_item": WorkURI(endpoint.DisplayID),
	}
	if ref, err := core.ParseWorkRef(endpoint.DisplayID, core.WorkKindTicket); err == nil {
		switch ref.Kind {
		case core.WorkKindTicket:
			links["ticket"] = TicketURI(ref.Num)
			links["timeline"] = TicketTimelineURI(ref.Num)
			links["artifacts"] = TicketArtifactsURI(ref.Num)
		case core.WorkKindIssue:
			links["issue"] = IssueURI(ref.Num)
		}
	}
	return links
}
