package devrev

// Wire types for the subset of DevRev object fields this server reads.
// Unknown fields are dropped on decode; enrichment works from these
// records, never from raw payloads.

// UserSummary identifies a dev or rev user on a work item or entry
type UserSummary struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Type        string `json:"type,omitempty"`
}

// OrgSummary identifies a rev (customer) organization
type OrgSummary struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// StageSummary carries the lifecycle stage of a work item
type StageSummary struct {
	Name string `json:"name,omitempty"`
}

// SyncMetadata links a work item to an external system (e.g. Jira)
type SyncMetadata struct {
	ExternalReference string `json:"external_reference,omitempty"`
	OriginSystem      string `json:"origin_system,omitempty"`
}

// Work is a DevRev work item (ticket or issue)
type Work struct {
	ID            string        `json:"id,omitempty"`
	DisplayID     string        `json:"display_id,omitempty"`
	Type          string        `json:"type,omitempty"`
	Title         string        `json:"title,omitempty"`
	Body          string        `json:"body,omitempty"`
	Severity      string        `json:"severity,omitempty"`
	Priority      string        `json:"priority,omitempty"`
	Stage         *StageSummary `json:"stage,omitempty"`
	OwnedBy       []UserSummary `json:"owned_by,omitempty"`
	CreatedBy     *UserSummary  `json:"created_by,omitempty"`
	RevOrg        *OrgSummary   `json:"rev_org,omitempty"`
	AppliesToPart string        `json:"applies_to_part,omitempty"`
	CreatedDate   string        `json:"created_date,omitempty"`
	ModifiedDate  string        `json:"modified_date,omitempty"`
	SyncMetadata  *SyncMetadata `json:"sync_metadata,omitempty"`
}

// ArtifactFile carries file metadata for an artifact
type ArtifactFile struct {
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Artifact is a file attachment on a ticket or timeline entry
type Artifact struct {
	ID          string        `json:"id,omitempty"`
	DisplayID   string        `json:"display_id,omitempty"`
	File        *ArtifactFile `json:"file,omitempty"`
	CreatedDate string        `json:"created_date,omitempty"`
	DownloadURL string        `json:"download_url,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// ResolveDownloadURL returns the first usable download URL on the
// artifact. The API surfaces it in different places depending on
// whether the artifact came from artifacts.get or artifacts.locate.
func (a *Artifact) ResolveDownloadURL() string {
	if a == nil {
		return ""
	}
	if a.File != nil {
		if a.File.DownloadURL != "" {
			return a.File.DownloadURL
		}
		if a.File.URL != "" {
			return a.File.URL
		}
	}
	if a.DownloadURL != "" {
		return a.DownloadURL
	}
	return a.URL
}

// FileName returns the best available name for the downloaded file
func (a *Artifact) FileName() string {
	if a == nil {
		return ""
	}
	if a.File != nil && a.File.Name != "" {
		return a.File.Name
	}
	return a.DisplayID
}

// StageTransition records a stage_updated timeline event
type StageTransition struct {
	OldStage *StageSummary `json:"old_stage,omitempty"`
	NewStage *StageSummary `json:"new_stage,omitempty"`
}

// TimelineEntry is one chronological event on a work item
type TimelineEntry struct {
	ID           string           `json:"id,omitempty"`
	Type         string           `json:"type,omitempty"`
	Object       string           `json:"object,omitempty"`
	Body         string           `json:"body,omitempty"`
	BodyType     string           `json:"body_type,omitempty"`
	CreatedDate  string           `json:"created_date,omitempty"`
	CreatedBy    *UserSummary     `json:"created_by,omitempty"`
	Visibility   string           `json:"visibility,omitempty"`
	Artifacts    []Artifact       `json:"artifacts,omitempty"`
	StageUpdated *StageTransition `json:"stage_updated,omitempty"`
	Collections  []string         `json:"collections,omitempty"`
}

// LinkEndpoint is one side of a link between work items
type LinkEndpoint struct {
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type,omitempty"`
	DisplayID    string        `json:"display_id,omitempty"`
	Title        string        `json:"title,omitempty"`
	Priority     string        `json:"priority,omitempty"`
	Stage        *StageSummary `json:"stage,omitempty"`
	OwnedBy      []UserSummary `json:"owned_by,omitempty"`
	SyncMetadata *SyncMetadata `json:"sync_metadata,omitempty"`
}

// Link is a typed relation between two work items
type Link struct {
	ID       string        `json:"id,omitempty"`
	LinkType string        `json:"link_type,omitempty"`
	Source   *LinkEndpoint `json:"source,omitempty"`
	Target   *LinkEndpoint `json:"target,omitempty"`
}

// LinkType names both directions of a link relation
type LinkType struct {
	ID           string `json:"id,omitempty"`
	ForwardName  string `json:"forward_name,omitempty"`
	BackwardName string `json:"backward_name,omitempty"`
}

// Article is a knowledge-base search hit
type Article struct {
	ID         string       `json:"id,omitempty"`
	DisplayID  string       `json:"display_id,omitempty"`
	Title      string       `json:"title,omitempty"`
	Status     string       `json:"status,omitempty"`
	AuthoredBy *UserSummary `json:"authored_by,omitempty"`
}

// SearchResult is one hit from hybrid or core search
type SearchResult struct {
	Type    string   `json:"type,omitempty"`
	ID      string   `json:"id,omitempty"`
	Snippet string   `json:"snippet,omitempty"`
	Work    *Work    `json:"work,omitempty"`
	Article *Article `json:"article,omitempty"`
}

// -----
// Request payloads
// -----

// WorksGetRequest fetches a single work item; ID accepts display IDs
// and fully qualified don IDs.
type WorksGetRequest struct {
	ID string `json:"id"`
}

// WorksCreateRequest creates a ticket or issue
type WorksCreateRequest struct {
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	AppliesToPart string   `json:"applies_to_part"`
	Body          string   `json:"body,omitempty"`
	OwnedBy       []string `json:"owned_by,omitempty"`
}

// WorksUpdateRequest updates mutable fields of a work item
type WorksUpdateRequest struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// TimelineEntriesListRequest pages through the timeline of an object
type TimelineEntriesListRequest struct {
	Object string `json:"object"`
	Limit  int    `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

// TimelineEntriesGetRequest fetches one timeline entry by don ID
type TimelineEntriesGetRequest struct {
	ID string `json:"id"`
}

// TimelineEntryCreateRequest creates a timeline comment
type TimelineEntryCreateRequest struct {
	Object      string   `json:"object"`
	Body        string   `json:"body"`
	BodyType    string   `json:"body_type,omitempty"`
	Type        string   `json:"type"`
	Collections []string `json:"collections,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
}

// ArtifactsGetRequest fetches artifact metadata
type ArtifactsGetRequest struct {
	ID string `json:"id"`
}

// ArtifactsLocateRequest resolves a temporary download URL
type ArtifactsLocateRequest struct {
	ID string `json:"id"`
}

// SearchHybridRequest runs a natural-language hybrid search
type SearchHybridRequest struct {
	Query     string `json:"query"`
	Namespace string `json:"namespace"`
}

// SearchCoreRequest runs a structured core search; at least one field
// must be set.
type SearchCoreRequest struct {
	Query     string `json:"query,omitempty"`
	Title     string `json:"title,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Type      string `json:"type,omitempty"`
	Status    string `json:"status,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// LinksListRequest lists links touching an object
type LinksListRequest struct {
	Object string `json:"object"`
}

// -----
// Response envelopes
// -----

// WorkResponse wraps works.get/create/update responses
type WorkResponse struct {
	Work *Work `json:"work"`
}

// TimelineEntriesListResponse is one page of timeline entries
type TimelineEntriesListResponse struct {
	TimelineEntries []TimelineEntry `json:"timeline_entries"`
	NextCursor      string          `json:"next_cursor,omitempty"`
}

// TimelineEntryResponse wraps timeline-entries.get/create responses
type TimelineEntryResponse struct {
	TimelineEntry *TimelineEntry `json:"timeline_entry"`
}

// ArtifactResponse wraps artifacts.get responses
type ArtifactResponse struct {
	Artifact *Artifact `json:"artifact"`
}

// ArtifactLocateResponse wraps artifacts.locate responses. Some API
// versions nest the located artifact, others return the URL at the top
// level.
type ArtifactLocateResponse struct {
	Artifact  *Artifact `json:"artifact,omitempty"`
	URL       string    `json:"url,omitempty"`
	ExpiresAt string    `json:"expires_at,omitempty"`
}

// SearchResponse wraps search.hybrid and search.core responses
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// LinksListResponse wraps links.list responses
type LinksListResponse struct {
	Links []Link `json:"links"`
}

// LinkTypesListResponse wraps link-types.list responses
type LinkTypesListResponse struct {
	LinkTypes []LinkType `json:"link_types"`
}
