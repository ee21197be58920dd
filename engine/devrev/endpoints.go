package devrev

// DevRev API endpoint paths. Every call is a POST of a JSON body to
// <base-url>/<endpoint>.
const (
	// Works (tickets, issues)
	EndpointWorksGet    = "works.get"
	EndpointWorksCreate = "works.create"
	EndpointWorksUpdate = "works.update"

	// Timeline entries
	EndpointTimelineEntriesList   = "timeline-entries.list"
	EndpointTimelineEntriesGet    = "timeline-entries.get"
	EndpointTimelineEntriesCreate = "timeline-entries.create"

	// Artifacts
	EndpointArtifactsGet    = "artifacts.get"
	EndpointArtifactsLocate = "artifacts.locate"

	// Search
	EndpointSearchHybrid = "search.hybrid"
	EndpointSearchCore   = "search.core"

	// Links
	EndpointLinksList     = "links.list"
	EndpointLinkTypesList = "link-types.list"
)
