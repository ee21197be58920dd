package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saramaebee/devrev-mcp/engine/artifact"
	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
	"github.com/saramaebee/devrev-mcp/engine/enrich"
	"github.com/saramaebee/devrev-mcp/pkg/config"
)

// MockEnricher mocks the enrichment service
type MockEnricher struct {
	mock.Mock
}

func (m *MockEnricher) Ticket(ctx context.Context, ref core.WorkRef) (*enrich.Ticket, error) {
	args := m.Called(ctx, ref)
	if result := args.Get(0); result != nil {
		return result.(*enrich.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnricher) Timeline(ctx context.Context, ref core.WorkRef) (*enrich.Timeline, error) {
	args := m.Called(ctx, ref)
	if result := args.Get(0); result != nil {
		return result.(*enrich.Timeline), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnricher) TimelineEntry(ctx context.Context, entryID string) (*enrich.TimelineEntry, error) {
	args := m.Called(ctx, entryID)
	if result := args.Get(0); result != nil {
		return result.(*enrich.TimelineEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnricher) Artifact(ctx context.Context, id string) (*enrich.Artifact, error) {
	args := m.Called(ctx, id)
	if result := args.Get(0); result != nil {
		return result.(*enrich.Artifact), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnricher) TicketArtifacts(ctx context.Context, ref core.WorkRef) (*enrich.TicketArtifacts, error) {
	args := m.Called(ctx, ref)
	if result := args.Get(0); result != nil {
		return result.(*enrich.TicketArtifacts), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnricher) ArtifactTickets(ctx context.Context, artifactID string) (*enrich.ArtifactTickets, error) {
	args := m.Called(ctx, artifactID)
	if result := args.Get(0); result != nil {
		return result.(*enrich.ArtifactTickets), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnricher) Work(ctx context.Context, id string) (*enrich.Work, error) {
	args := m.Called(ctx, id)
	if result := args.Get(0); result != nil {
		return result.(*enrich.Work), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnricher) Invalidate(id string) {
	m.Called(id)
}

// MockAPI mocks the write-side client operations
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateWork(ctx context.Context, req devrev.WorksCreateRequest) (*devrev.Work, error) {
	args := m.Called(ctx, req)
	if result := args.Get(0); result != nil {
		return result.(*devrev.Work), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) UpdateWork(ctx context.Context, req devrev.WorksUpdateRequest) (*devrev.Work, error) {
	args := m.Called(ctx, req)
	if result := args.Get(0); result != nil {
		return result.(*devrev.Work), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) CreateTimelineEntry(
	ctx context.Context,
	req devrev.TimelineEntryCreateRequest,
) (*devrev.TimelineEntry, error) {
	args := m.Called(ctx, req)
	if result := args.Get(0); result != nil {
		return result.(*devrev.TimelineEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) SearchHybrid(ctx context.Context, req devrev.SearchHybridRequest) ([]devrev.SearchResult, error) {
	args := m.Called(ctx, req)
	if result := args.Get(0); result != nil {
		return result.([]devrev.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) SearchCore(ctx context.Context, req devrev.SearchCoreRequest) ([]devrev.SearchResult, error) {
	args := m.Called(ctx, req)
	if result := args.Get(0); result != nil {
		return result.([]devrev.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDownloader mocks the artifact downloader
type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) Download(
	ctx context.Context,
	artifactID, dir, filename string,
) (*artifact.Result, error) {
	args := m.Called(ctx, artifactID, dir, filename)
	if result := args.Get(0); result != nil {
		return result.(*artifact.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

type serverMocks struct {
	enricher   *MockEnricher
	api        *MockAPI
	downloader *MockDownloader
}

func newTestServer() (*Server, *serverMocks) {
	mocks := &serverMocks{
		enricher:   &MockEnricher{},
		api:        &MockAPI{},
		downloader: &MockDownloader{},
	}
	server := NewServer(config.DefaultConfig(), mocks.api, mocks.enricher, mocks.downloader, "test")
	return server, mocks
}

func newToolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return textContent.Text
}

func TestHandleSearch(t *testing.T) {
	t.Run("Should search within a valid namespace", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.api.On("SearchHybrid", mock.Anything, devrev.SearchHybridRequest{
			Query: "login failure", Namespace: "ticket",
		}).Return([]devrev.SearchResult{{Type: "work", ID: "don:1"}}, nil).Once()

		result, err := server.handleSearch(context.Background(), newToolRequest(map[string]any{
			"query":     "login failure",
			"namespace": "ticket",
		}))
		require.NoError(t, err)
		assert.Contains(t, resultText(t, result), `"count": 1`)
		mocks.api.AssertExpectations(t)
	})
	t.Run("Should reject an unknown namespace", func(t *testing.T) {
		server, mocks := newTestServer()
		_, err := server.handleSearch(context.Background(), newToolRequest(map[string]any{
			"query":     "anything",
			"namespace": "galaxy",
		}))
		require.Error(t, err)
		assert.Equal(t, core.ErrorCodeValidationFailed, core.CodeOf(err))
		mocks.api.AssertNotCalled(t, "SearchHybrid")
	})
	t.Run("Should require the query argument", func(t *testing.T) {
		server, _ := newTestServer()
		_, err := server.handleSearch(context.Background(), newToolRequest(map[string]any{
			"namespace": "ticket",
		}))
		assert.Error(t, err)
	})
}

func TestHandleCoreSearch(t *testing.T) {
	t.Run("Should require at least one search criterion", func(t *testing.T) {
		server, mocks := newTestServer()
		_, err := server.handleCoreSearch(context.Background(), newToolRequest(map[string]any{
			"namespace": "ticket",
		}))
		require.Error(t, err)
		assert.Equal(t, core.ErrorCodeValidationFailed, core.CodeOf(err))
		mocks.api.AssertNotCalled(t, "SearchCore")
	})
	t.Run("Should pass filters through", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.api.On("SearchCore", mock.Anything, devrev.SearchCoreRequest{
			Title: "crash", Type: "issue",
		}).Return([]devrev.SearchResult{}, nil).Once()

		_, err := server.handleCoreSearch(context.Background(), newToolRequest(map[string]any{
			"title": "crash",
			"type":  "issue",
		}))
		require.NoError(t, err)
		mocks.api.AssertExpectations(t)
	})
}

func TestHandleGetTicket(t *testing.T) {
	t.Run("Should normalize the ID before enrichment", func(t *testing.T) {
		server, mocks := newTestServer()
		expectedRef := core.WorkRef{Kind: core.WorkKindTicket, Num: "12345"}
		mocks.enricher.On("Ticket", mock.Anything, expectedRef).Return(&enrich.Ticket{
			Work: devrev.Work{DisplayID: "TKT-12345"},
		}, nil).Once()

		result, err := server.handleGetTicket(context.Background(), newToolRequest(map[string]any{
			"id": "don:core:dvrv-us-1:devo/ABC:ticket/12345",
		}))
		require.NoError(t, err)
		assert.Contains(t, resultText(t, result), "TKT-12345")
		mocks.enricher.AssertExpectations(t)
	})
	t.Run("Should reject issue identifiers", func(t *testing.T) {
		server, mocks := newTestServer()
		_, err := server.handleGetTicket(context.Background(), newToolRequest(map[string]any{
			"id": "ISS-5",
		}))
		require.Error(t, err)
		assert.Equal(t, core.ErrorCodeInvalidID, core.CodeOf(err))
		mocks.enricher.AssertNotCalled(t, "Ticket")
	})
}

func TestHandleCreateObject(t *testing.T) {
	t.Run("Should create an issue with owners", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.api.On("CreateWork", mock.Anything, devrev.WorksCreateRequest{
			Type:          "issue",
			Title:         "New issue",
			AppliesToPart: "PROD-1",
			Body:          "details",
			OwnedBy:       []string{"user-1", "user-2"},
		}).Return(&devrev.Work{DisplayID: "ISS-1"}, nil).Once()

		result, err := server.handleCreateObject(context.Background(), newToolRequest(map[string]any{
			"type":            "issue",
			"title":           "New issue",
			"applies_to_part": "PROD-1",
			"body":            "details",
			"owned_by":        "user-1, user-2",
		}))
		require.NoError(t, err)
		assert.Contains(t, resultText(t, result), "ISS-1")
		mocks.api.AssertExpectations(t)
	})
	t.Run("Should reject unsupported object types", func(t *testing.T) {
		server, mocks := newTestServer()
		_, err := server.handleCreateObject(context.Background(), newToolRequest(map[string]any{
			"type":            "epic",
			"title":           "x",
			"applies_to_part": "PROD-1",
		}))
		require.Error(t, err)
		assert.Equal(t, core.ErrorCodeValidationFailed, core.CodeOf(err))
		mocks.api.AssertNotCalled(t, "CreateWork")
	})
}

func TestHandleUpdateObject(t *testing.T) {
	t.Run("Should update and invalidate the cache", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.api.On("UpdateWork", mock.Anything, devrev.WorksUpdateRequest{
			ID: "TKT-1", Type: "ticket", Title: "Updated",
		}).Return(&devrev.Work{DisplayID: "TKT-1", Title: "Updated"}, nil).Once()
		mocks.enricher.On("Invalidate", "TKT-1").Once()

		_, err := server.handleUpdateObject(context.Background(), newToolRequest(map[string]any{
			"id":    "TKT-1",
			"type":  "ticket",
			"title": "Updated",
		}))
		require.NoError(t, err)
		mocks.api.AssertExpectations(t)
		mocks.enricher.AssertExpectations(t)
	})
	t.Run("Should require a title or body", func(t *testing.T) {
		server, mocks := newTestServer()
		_, err := server.handleUpdateObject(context.Background(), newToolRequest(map[string]any{
			"id":   "TKT-1",
			"type": "ticket",
		}))
		require.Error(t, err)
		assert.Equal(t, core.ErrorCodeValidationFailed, core.CodeOf(err))
		mocks.api.AssertNotCalled(t, "UpdateWork")
	})
}

func TestHandleGetTimelineEntries(t *testing.T) {
	sampleTimeline := &enrich.Timeline{
		Summary: enrich.TimelineSummary{TicketID: "TKT-1", Customer: "ada@example.com"},
		ConversationThread: []enrich.ConversationEntry{
			{Seq: 1, Message: "hello"},
		},
		KeyEvents: []enrich.KeyEvent{{Type: "created"}},
		Links:     map[string]string{"ticket": "devrev://tickets/1"},
	}

	t.Run("Should default to the summary format", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.enricher.On("Timeline", mock.Anything, mock.Anything).Return(sampleTimeline, nil).Once()

		result, err := server.handleGetTimelineEntries(context.Background(), newToolRequest(map[string]any{
			"id": "TKT-1",
		}))
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
		assert.Contains(t, payload, "conversation_count")
		assert.NotContains(t, payload, "conversation_thread")
	})
	t.Run("Should include the thread in detailed format", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.enricher.On("Timeline", mock.Anything, mock.Anything).Return(sampleTimeline, nil).Once()

		result, err := server.handleGetTimelineEntries(context.Background(), newToolRequest(map[string]any{
			"id":     "TKT-1",
			"format": "detailed",
		}))
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
		assert.Contains(t, payload, "conversation_thread")
		assert.NotContains(t, payload, "key_events")
	})
	t.Run("Should return everything in full format", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.enricher.On("Timeline", mock.Anything, mock.Anything).Return(sampleTimeline, nil).Once()

		result, err := server.handleGetTimelineEntries(context.Background(), newToolRequest(map[string]any{
			"id":     "TKT-1",
			"format": "full",
		}))
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
		assert.Contains(t, payload, "conversation_thread")
		assert.Contains(t, payload, "key_events")
	})
	t.Run("Should reject unknown formats", func(t *testing.T) {
		server, mocks := newTestServer()
		_, err := server.handleGetTimelineEntries(context.Background(), newToolRequest(map[string]any{
			"id":     "TKT-1",
			"format": "xml",
		}))
		require.Error(t, err)
		assert.Equal(t, core.ErrorCodeValidationFailed, core.CodeOf(err))
		mocks.enricher.AssertNotCalled(t, "Timeline")
	})
}

func TestHandleCreateTimelineComment(t *testing.T) {
	t.Run("Should create a comment and invalidate the timeline", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.api.On("CreateTimelineEntry", mock.Anything, devrev.TimelineEntryCreateRequest{
			Object:      "TKT-1",
			Body:        "thanks for the report",
			BodyType:    "text",
			Type:        "timeline_comment",
			Collections: []string{"discussions"},
			Visibility:  "internal",
		}).Return(&devrev.TimelineEntry{ID: "entry-1"}, nil).Once()
		mocks.enricher.On("Invalidate", "TKT-1").Once()

		_, err := server.handleCreateTimelineComment(context.Background(), newToolRequest(map[string]any{
			"work_id": "TKT-1",
			"body":    "thanks for the report",
		}))
		require.NoError(t, err)
		mocks.api.AssertExpectations(t)
		mocks.enricher.AssertExpectations(t)
	})
	t.Run("Should honor an explicit visibility", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.api.On("CreateTimelineEntry", mock.Anything, devrev.TimelineEntryCreateRequest{
			Object:      "TKT-1",
			Body:        "resolved, closing",
			BodyType:    "text",
			Type:        "timeline_comment",
			Collections: []string{"discussions"},
			Visibility:  "external",
		}).Return(&devrev.TimelineEntry{ID: "entry-2"}, nil).Once()
		mocks.enricher.On("Invalidate", "TKT-1").Once()

		_, err := server.handleCreateTimelineComment(context.Background(), newToolRequest(map[string]any{
			"work_id":    "TKT-1",
			"body":       "resolved, closing",
			"visibility": "external",
		}))
		require.NoError(t, err)
		mocks.api.AssertExpectations(t)
	})
	t.Run("Should reject unknown visibility levels", func(t *testing.T) {
		server, mocks := newTestServer()
		_, err := server.handleCreateTimelineComment(context.Background(), newToolRequest(map[string]any{
			"work_id":    "TKT-1",
			"body":       "x",
			"visibility": "secret",
		}))
		require.Error(t, err)
		assert.Equal(t, core.ErrorCodeValidationFailed, core.CodeOf(err))
		mocks.api.AssertNotCalled(t, "CreateTimelineEntry")
	})
}

func TestHandleDownloadArtifact(t *testing.T) {
	t.Run("Should default to the configured download directory", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.downloader.On("Download", mock.Anything, "12345", ".", "").
			Return(&artifact.Result{Path: "./file.bin", Filename: "file.bin", Size: 9}, nil).Once()

		result, err := server.handleDownloadArtifact(context.Background(), newToolRequest(map[string]any{
			"artifact_id": "12345",
		}))
		require.NoError(t, err)
		assert.Contains(t, resultText(t, result), "file.bin")
		mocks.downloader.AssertExpectations(t)
	})
	t.Run("Should pass an explicit directory and filename through", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.downloader.On("Download", mock.Anything, "12345", "/tmp/dl", "report.pdf").
			Return(&artifact.Result{Path: "/tmp/dl/report.pdf", Filename: "report.pdf", Size: 1}, nil).Once()

		_, err := server.handleDownloadArtifact(context.Background(), newToolRequest(map[string]any{
			"artifact_id": "12345",
			"directory":   "/tmp/dl",
			"filename":    "report.pdf",
		}))
		require.NoError(t, err)
		mocks.downloader.AssertExpectations(t)
	})
}

func TestResourceHandlers(t *testing.T) {
	t.Run("Should serve a ticket resource by URI", func(t *testing.T) {
		server, mocks := newTestServer()
		expectedRef := core.WorkRef{Kind: core.WorkKindTicket, Num: "42"}
		mocks.enricher.On("Ticket", mock.Anything, expectedRef).Return(&enrich.Ticket{
			Work: devrev.Work{DisplayID: "TKT-42"},
		}, nil).Once()

		handler := wrapResourceHandler("devrev://tickets/{id}", server.handleTicketResource)
		req := mcp.ReadResourceRequest{}
		req.Params.URI = "devrev://tickets/42"

		contents, err := handler(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, contents, 1)

		text, ok := contents[0].(*mcp.TextResourceContents)
		require.True(t, ok)
		assert.Contains(t, text.Text, "TKT-42")
		assert.Equal(t, "application/json", text.MIMEType)
	})
	t.Run("Should serve a timeline entry resource from a don ID", func(t *testing.T) {
		server, mocks := newTestServer()
		entryID := "don:core:dvrv-us-1:devo/ABC:ticket/42:timeline_entry/e7"
		mocks.enricher.On("TimelineEntry", mock.Anything, entryID).Return(&enrich.TimelineEntry{
			TimelineEntry: devrev.TimelineEntry{ID: entryID},
			Links:         map[string]string{},
		}, nil).Once()

		handler := wrapResourceHandler(
			"devrev://tickets/{id}/timeline/{entry_id}",
			server.handleTimelineEntryResource,
		)
		req := mcp.ReadResourceRequest{}
		req.Params.URI = "devrev://tickets/42/timeline/" +
			"don%3Acore%3Advrv-us-1%3Adevo%2FABC%3Aticket%2F42%3Atimeline_entry%2Fe7"

		contents, err := handler(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, contents, 1)
		mocks.enricher.AssertExpectations(t)
	})
	t.Run("Should fall back to the ticket timeline for short entry IDs", func(t *testing.T) {
		server, mocks := newTestServer()
		expectedRef := core.WorkRef{Kind: core.WorkKindTicket, Num: "42"}
		mocks.enricher.On("Timeline", mock.Anything, expectedRef).Return(&enrich.Timeline{
			Summary: enrich.TimelineSummary{TicketID: "TKT-42"},
			Links:   map[string]string{},
		}, nil).Once()

		handler := wrapResourceHandler(
			"devrev://tickets/{id}/timeline/{entry_id}",
			server.handleTimelineEntryResource,
		)
		req := mcp.ReadResourceRequest{}
		req.Params.URI = "devrev://tickets/42/timeline/e7"

		contents, err := handler(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, contents, 1)
		mocks.enricher.AssertExpectations(t)
		mocks.enricher.AssertNotCalled(t, "TimelineEntry")
	})
	t.Run("Should serve an issue resource by number", func(t *testing.T) {
		server, mocks := newTestServer()
		expectedRef := core.WorkRef{Kind: core.WorkKindIssue, Num: "42"}
		mocks.enricher.On("Ticket", mock.Anything, expectedRef).Return(&enrich.Ticket{
			Work: devrev.Work{DisplayID: "ISS-42"},
		}, nil).Once()

		handler := wrapResourceHandler("devrev://issues/{id}", server.handleIssueResource)
		req := mcp.ReadResourceRequest{}
		req.Params.URI = "devrev://issues/42"

		contents, err := handler(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, contents, 1)

		text, ok := contents[0].(*mcp.TextResourceContents)
		require.True(t, ok)
		assert.Contains(t, text.Text, "ISS-42")
		mocks.enricher.AssertExpectations(t)
	})
	t.Run("Should reject ticket identifiers on the issue resource", func(t *testing.T) {
		server, mocks := newTestServer()
		handler := wrapResourceHandler("devrev://issues/{id}", server.handleIssueResource)
		req := mcp.ReadResourceRequest{}
		req.Params.URI = "devrev://issues/TKT-9"

		_, err := handler(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, core.ErrorCodeInvalidID, core.CodeOf(err))
		mocks.enricher.AssertNotCalled(t, "Ticket")
	})
	t.Run("Should decode escaped don IDs in artifact resources", func(t *testing.T) {
		server, mocks := newTestServer()
		artifactID := "don:core:dvrv-us-1:devo/ABC:artifact/101"
		mocks.enricher.On("Artifact", mock.Anything, artifactID).Return(&enrich.Artifact{
			Artifact: devrev.Artifact{ID: artifactID},
			Links:    map[string]string{},
		}, nil).Once()

		handler := wrapResourceHandler("devrev://artifacts/{id}", server.handleArtifactResource)
		req := mcp.ReadResourceRequest{}
		req.Params.URI = "devrev://artifacts/don%3Acore%3Advrv-us-1%3Adevo%2FABC%3Aartifact%2F101"

		contents, err := handler(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, contents, 1)
		mocks.enricher.AssertExpectations(t)
	})
	t.Run("Should reject malformed artifact IDs in resources", func(t *testing.T) {
		server, mocks := newTestServer()
		handler := wrapResourceHandler("devrev://artifacts/{id}", server.handleArtifactResource)
		req := mcp.ReadResourceRequest{}
		req.Params.URI = "devrev://artifacts/not-an-id"

		_, err := handler(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, core.ErrorCodeInvalidID, core.CodeOf(err))
		mocks.enricher.AssertNotCalled(t, "Artifact")
	})
}
