package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/saramaebee/devrev-mcp/pkg/config"
	"github.com/saramaebee/devrev-mcp/pkg/logger"
)

// ServerName identifies this server to MCP clients
const ServerName = "devrev-mcp"

// Server exposes the DevRev API as MCP tools and resources over stdio
type Server struct {
	config     *config.Config
	api        API
	enricher   Enricher
	downloader Downloader
	mcpServer  *server.MCPServer
}

// NewServer creates an MCP server instance with all tools and
// resources registered.
func NewServer(cfg *config.Config, api API, enricher Enricher, downloader Downloader, version string) *Server {
	s := &Server{
		config:     cfg,
		api:        api,
		enricher:   enricher,
		downloader: downloader,
	}

	s.mcpServer = server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false), // Static tool set
		server.WithResourceCapabilities(true, true),
	)

	s.registerTools()
	s.registerResources()

	return s
}

// Start serves MCP over stdio until the client disconnects
func (s *Server) Start(_ context.Context) error {
	logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.registerSearchTools()
	s.registerWorkTools()
	s.registerTicketTools()
	s.registerArtifactTools()
}

// registerSearchTools registers the search tools
func (s *Server) registerSearchTools() {
	searchTool := mcp.NewTool(
		"search",
		mcp.WithDescription("Search DevRev using the hybrid search API within a namespace"),
		mcp.WithString("query", mcp.Required(), mcp.Description("The search query string")),
		mcp.WithString(
			"namespace",
			mcp.Required(),
			mcp.Description("Object namespace to search: 'article', 'issue', 'ticket', 'part', or 'dev_user'"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearch)

	coreSearchTool := mcp.NewTool(
		"core_search",
		mcp.WithDescription("Search DevRev with structured field filters instead of free text"),
		mcp.WithString("query", mcp.Description("Free-text query")),
		mcp.WithString("title", mcp.Description("Match against object titles")),
		mcp.WithString("tag", mcp.Description("Match against tags")),
		mcp.WithString("type", mcp.Description("Object type filter, e.g. 'ticket' or 'issue'")),
		mcp.WithString("status", mcp.Description("Status filter")),
		mcp.WithString("namespace", mcp.Description("Namespace to search within")),
	)
	s.mcpServer.AddTool(coreSearchTool, s.handleCoreSearch)
}

// registerWorkTools registers generic work item tools
func (s *Server) registerWorkTools() {
	getObjectTool := mcp.NewTool(
		"get_object",
		mcp.WithDescription("Get any DevRev object by ID: tickets, issues, or other work items"),
		mcp.WithString(
			"id",
			mcp.Required(),
			mcp.Description("Object ID: numeric, display form like TKT-12345 or ISS-9031, or a full don: ID"),
		),
	)
	s.mcpServer.AddTool(getObjectTool, s.handleGetObject)

	getWorkTool := mcp.NewTool(
		"get_work",
		mcp.WithDescription("Get a work item with navigation links and resource metadata"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Work item ID in any accepted form")),
	)
	s.mcpServer.AddTool(getWorkTool, s.handleGetWork)

	createObjectTool := mcp.NewTool(
		"create_object",
		mcp.WithDescription("Create a new issue or ticket in DevRev"),
		mcp.WithString("type", mcp.Required(), mcp.Description("Object type: 'issue' or 'ticket'")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the new object")),
		mcp.WithString(
			"applies_to_part",
			mcp.Required(),
			mcp.Description("Part ID the object applies to, e.g. PROD-123 or a don: ID"),
		),
		mcp.WithString("body", mcp.Description("Body text of the new object")),
		mcp.WithString("owned_by", mcp.Description("Comma-separated list of owner user IDs")),
	)
	s.mcpServer.AddTool(createObjectTool, s.handleCreateObject)

	updateObjectTool := mcp.NewTool(
		"update_object",
		mcp.WithDescription("Update the title and/or body of an existing issue or ticket"),
		mcp.WithString("id", mcp.Required(), mcp.Description("ID of the object to update")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Object type: 'issue' or 'ticket'")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("body", mcp.Description("New body text")),
	)
	s.mcpServer.AddTool(updateObjectTool, s.handleUpdateObject)
}

// registerTicketTools registers ticket and timeline tools
func (s *Server) registerTicketTools() {
	getTicketTool := mcp.NewTool(
		"get_ticket",
		mcp.WithDescription("Get a ticket enriched with its timeline entries, artifacts, and linked work items"),
		mcp.WithString(
			"id",
			mcp.Required(),
			mcp.Description("Ticket ID: numeric, TKT-12345 form, or a full don: ID"),
		),
	)
	s.mcpServer.AddTool(getTicketTool, s.handleGetTicket)

	getTimelineTool := mcp.NewTool(
		"get_timeline_entries",
		mcp.WithDescription("Get the conversation timeline of a ticket with speaker and visibility annotations"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Ticket ID in any accepted form")),
		mcp.WithString(
			"format",
			mcp.Description("Output format: 'summary' (default), 'detailed', or 'full'"),
		),
	)
	s.mcpServer.AddTool(getTimelineTool, s.handleGetTimelineEntries)

	createCommentTool := mcp.NewTool(
		"create_timeline_comment",
		mcp.WithDescription("Add a comment to a work item's timeline"),
		mcp.WithString("work_id", mcp.Required(), mcp.Description("Work item ID to comment on")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Comment text")),
		mcp.WithString(
			"visibility",
			mcp.Description("Comment visibility: 'private', 'internal' (default), 'external', or 'public'"),
		),
	)
	s.mcpServer.AddTool(createCommentTool, s.handleCreateTimelineComment)
}

// registerArtifactTools registers artifact tools
func (s *Server) registerArtifactTools() {
	downloadTool := mcp.NewTool(
		"download_artifact",
		mcp.WithDescription("Download an artifact's content to a local directory"),
		mcp.WithString("artifact_id", mcp.Required(), mcp.Description("Artifact ID: numeric or a full don: ID")),
		mcp.WithString("directory", mcp.Description("Target directory (default: configured download directory)")),
		mcp.WithString("filename", mcp.Description("Override the saved file name")),
	)
	s.mcpServer.AddTool(downloadTool, s.handleDownloadArtifact)
}

// registerResources registers all MCP resource templates
func (s *Server) registerResources() {
	s.addResource(
		"devrev://tickets/{id}",
		"ticket",
		"Enriched ticket with timeline entries, artifacts, and linked work items",
		s.handleTicketResource,
	)
	s.addResource(
		"devrev://tickets/{id}/timeline",
		"ticket_timeline",
		"Conversation-oriented timeline of a ticket",
		s.handleTicketTimelineResource,
	)
	s.addResource(
		"devrev://tickets/{id}/timeline/{entry_id}",
		"timeline_entry",
		"Single timeline entry with parent navigation",
		s.handleTimelineEntryResource,
	)
	s.addResource(
		"devrev://tickets/{id}/artifacts",
		"ticket_artifacts",
		"Artifact collection of a ticket",
		s.handleTicketArtifactsResource,
	)
	s.addResource(
		"devrev://artifacts/{id}",
		"artifact",
		"Artifact metadata with a resolved download URL",
		s.handleArtifactResource,
	)
	s.addResource(
		"devrev://artifacts/{id}/tickets",
		"artifact_tickets",
		"Work items referencing an artifact",
		s.handleArtifactTicketsResource,
	)
	s.addResource(
		"devrev://issues/{id}",
		"issue",
		"Enriched issue with timeline entries, artifacts, and linked work items",
		s.handleIssueResource,
	)
	s.addResource(
		"devrev://works/{id}",
		"work",
		"Work item with navigation links and resource metadata",
		s.handleWorkResource,
	)
}

func (s *Server) addResource(template, name, description string, handler resourceHandler) {
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(
		template,
		name,
		mcp.WithTemplateDescription(description),
		mcp.WithTemplateMIMEType("application/json"),
	), wrapResourceHandler(template, handler))
}
