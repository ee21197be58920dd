package enrich

import (
	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
)

// Enriched records are explicit compositions: the upstream fields, the
// resolved relations, and a navigation map. Raw payloads are never
// mutated in place.

// Ticket is a work item enriched with its timeline, artifacts, and
// linked work items.
type Ticket struct {
	devrev.Work

	TimelineEntries []devrev.TimelineEntry `json:"timeline_entries"`
	Artifacts       []Artifact             `json:"artifacts"`
	LinkedWorkItems []LinkedWorkItem       `json:"linked_work_items,omitempty"`
	ArtifactURIs    []string               `json:"artifact_uris,omitempty"`
	Links           map[string]string      `json:"links"`
}

// Work is a work item with navigation links and resource metadata,
// served through the unified works resource.
type Work struct {
	devrev.Work

	Links    map[string]string `json:"links"`
	Metadata WorkMetadata      `json:"metadata"`
}

// WorkMetadata describes how a work record was produced
type WorkMetadata struct {
	ResourceType string `json:"resource_type"`
	WorkType     string `json:"work_type"`
	APIVersion   string `json:"api_version"`
}

// Artifact is artifact metadata with a resolved download URL and
// navigation links.
type Artifact struct {
	devrev.Artifact

	Links map[string]string `json:"links"`
}

// ArtifactRef is the compact artifact reference embedded in timeline
// conversation entries.
type ArtifactRef struct {
	ID                string `json:"id"`
	DisplayID         string `json:"display_id,omitempty"`
	Type              string `json:"type,omitempty"`
	AttachedToMessage int    `json:"attached_to_message"`
	ResourceURI       string `json:"resource_uri"`
}

// Speaker classifies who produced a conversation entry
type Speaker struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ConversationEntry is one message in the enriched timeline thread
type ConversationEntry struct {
	Seq              int                 `json:"seq"`
	Timestamp        string              `json:"timestamp"`
	EventType        string              `json:"event_type"`
	Speaker          Speaker             `json:"speaker"`
	Message          string              `json:"message"`
	Artifacts        []ArtifactRef       `json:"artifacts"`
	VisibilityInfo   core.VisibilityInfo `json:"visibility_info"`
	TimelineEntryURI string              `json:"timeline_entry_uri,omitempty"`
}

// KeyEvent is a non-conversation timeline event worth surfacing
type KeyEvent struct {
	Type           string              `json:"type"`
	EventType      string              `json:"event_type"`
	Timestamp      string              `json:"timestamp"`
	FromStage      string              `json:"from_stage,omitempty"`
	ToStage        string              `json:"to_stage,omitempty"`
	Actor          *Speaker            `json:"actor,omitempty"`
	VisibilityInfo core.VisibilityInfo `json:"visibility_info"`
}

// TimelineSummary is the workflow-focused header of an enriched timeline
type TimelineSummary struct {
	TicketID            string `json:"ticket_id"`
	Customer            string `json:"customer"`
	Workspace           string `json:"workspace"`
	Subject             string `json:"subject"`
	CurrentStage        string `json:"current_stage"`
	CreatedDate         string `json:"created_date,omitempty"`
	TotalArtifacts      int    `json:"total_artifacts"`
	LastCustomerMessage string `json:"last_customer_message,omitempty"`
	LastSupportResponse string `json:"last_support_response,omitempty"`
}

// VisibilitySummary aggregates visibility across all timeline entries
type VisibilitySummary struct {
	TotalEntries           int                     `json:"total_entries"`
	VisibilityBreakdown    map[core.Visibility]int `json:"visibility_breakdown"`
	CustomerVisibleEntries int                     `json:"customer_visible_entries"`
	InternalOnlyEntries    int                     `json:"internal_only_entries"`
	CustomerVisiblePercent float64                 `json:"customer_visible_percentage"`
	InternalOnlyPercent    float64                 `json:"internal_only_percentage"`
}

// Timeline is the enriched conversation view of a ticket
type Timeline struct {
	Summary            TimelineSummary     `json:"summary"`
	ConversationThread []ConversationEntry `json:"conversation_thread"`
	KeyEvents          []KeyEvent          `json:"key_events"`
	AllArtifacts       []ArtifactRef       `json:"all_artifacts"`
	VisibilitySummary  VisibilitySummary   `json:"visibility_summary"`
	Links              map[string]string   `json:"links"`
}

// TimelineEntry is a single entry with parent navigation
type TimelineEntry struct {
	devrev.TimelineEntry

	ArtifactURIs []string          `json:"artifact_uris,omitempty"`
	Links        map[string]string `json:"links"`
}

// TicketArtifacts is the artifact collection of one ticket
type TicketArtifacts struct {
	Artifacts []Artifact        `json:"artifacts"`
	Links     map[string]string `json:"links"`
}

// ArtifactTickets is the reverse lookup from an artifact to the work
// items referencing it.
type ArtifactTickets struct {
	LinkedTickets []LinkedWorkItem  `json:"linked_tickets"`
	Links         map[string]string `json:"links"`
}

// LinkedWorkItem is a related work item discovered through links.list
type LinkedWorkItem struct {
	ID                      string               `json:"id"`
	Type                    string               `json:"type"`
	DisplayID               string               `json:"display_id"`
	Title                   string               `json:"title,omitempty"`
	LinkType                string               `json:"link_type"`
	RelationshipDirection   string               `json:"relationship_direction"`
	RelationshipDescription string               `json:"relationship_description"`
	Stage                   string               `json:"stage"`
	Priority                string               `json:"priority"`
	OwnedBy                 []devrev.UserSummary `json:"owned_by,omitempty"`
	ExternalReference       string               `json:"external_reference,omitempty"`
	OriginSystem            string               `json:"origin_system,omitempty"`
	Links                   map[string]string    `json:"links"`
}
