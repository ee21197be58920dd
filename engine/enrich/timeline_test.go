package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
)

func sampleWork() *devrev.Work {
	return &devrev.Work{
		ID:        "don:core:dvrv-us-1:devo/ABC:ticket/1",
		DisplayID: "TKT-1",
		Type:      "ticket",
		Title:     "Login broken",
		Stage:     &devrev.StageSummary{Name: "in_progress"},
		CreatedBy: &devrev.UserSummary{
			DisplayName: "Ada Customer",
			Email:       "ada@example.com",
		},
		RevOrg:      &devrev.OrgSummary{DisplayName: "Example Corp"},
		CreatedDate: "2025-01-01T09:00:00Z",
	}
}

func TestBuildTimeline(t *testing.T) {
	ref := ticketRef("1")

	t.Run("Should split entries into conversation and key events", func(t *testing.T) {
		entries := []devrev.TimelineEntry{
			{
				ID:          "don:core:dvrv-us-1:devo/ABC:timeline_entry/e1",
				Type:        "work_created",
				CreatedDate: "2025-01-01T09:00:00Z",
			},
			{
				ID:          "don:core:dvrv-us-1:devo/ABC:timeline_entry/e2",
				Type:        "timeline_comment",
				Body:        "I cannot log in",
				CreatedDate: "2025-01-01T09:05:00Z",
				CreatedBy:   &devrev.UserSummary{DisplayName: "Ada Customer", Email: "ada@example.com"},
			},
			{
				ID:          "don:core:dvrv-us-1:devo/ABC:timeline_entry/e3",
				Type:        "stage_updated",
				CreatedDate: "2025-01-01T09:10:00Z",
				StageUpdated: &devrev.StageTransition{
					OldStage: &devrev.StageSummary{Name: "queued"},
					NewStage: &devrev.StageSummary{Name: "in_progress"},
				},
			},
		}

		timeline := buildTimeline(ref, sampleWork(), entries)

		require.Len(t, timeline.ConversationThread, 1)
		require.Len(t, timeline.KeyEvents, 2)
		assert.Equal(t, 1, timeline.ConversationThread[0].Seq)
		assert.Equal(t, "I cannot log in", timeline.ConversationThread[0].Message)
		assert.Equal(t, "queued", timeline.KeyEvents[1].FromStage)
		assert.Equal(t, "in_progress", timeline.KeyEvents[1].ToStage)
		assert.Equal(t, "devrev://tickets/1", timeline.Links["ticket"])
	})
	t.Run("Should classify speakers by creator email", func(t *testing.T) {
		entries := []devrev.TimelineEntry{
			{
				ID: "e1", Type: "timeline_comment", Body: "help",
				CreatedDate: "2025-01-01T10:00:00Z",
				CreatedBy:   &devrev.UserSummary{DisplayName: "Ada Customer", Email: "ada@example.com"},
			},
			{
				ID: "e2", Type: "timeline_comment", Body: "on it",
				CreatedDate: "2025-01-01T10:05:00Z",
				CreatedBy:   &devrev.UserSummary{DisplayName: "Sam Support", Email: "sam@devrev.ai"},
			},
			{
				ID: "e3", Type: "timeline_comment", Body: "sla reminder",
				CreatedDate: "2025-01-01T10:10:00Z",
				CreatedBy:   &devrev.UserSummary{DisplayName: "DevRev System Bot"},
			},
		}

		timeline := buildTimeline(ref, sampleWork(), entries)
		require.Len(t, timeline.ConversationThread, 3)
		assert.Equal(t, SpeakerCustomer, timeline.ConversationThread[0].Speaker.Type)
		assert.Equal(t, SpeakerSupport, timeline.ConversationThread[1].Speaker.Type)
		assert.Equal(t, SpeakerSystem, timeline.ConversationThread[2].Speaker.Type)

		assert.Equal(t, "2025-01-01T10:00:00Z", timeline.Summary.LastCustomerMessage)
		assert.Equal(t, "2025-01-01T10:05:00Z", timeline.Summary.LastSupportResponse)
	})
	t.Run("Should build the summary header from the work item", func(t *testing.T) {
		timeline := buildTimeline(ref, sampleWork(), nil)
		assert.Equal(t, "TKT-1", timeline.Summary.TicketID)
		assert.Equal(t, "ada@example.com", timeline.Summary.Customer)
		assert.Equal(t, "Example Corp", timeline.Summary.Workspace)
		assert.Equal(t, "Login broken", timeline.Summary.Subject)
		assert.Equal(t, "in_progress", timeline.Summary.CurrentStage)
	})
	t.Run("Should collect artifacts across messages with attachment seq", func(t *testing.T) {
		entries := []devrev.TimelineEntry{
			{
				ID: "e1", Type: "timeline_comment", Body: "see log",
				Artifacts: []devrev.Artifact{
					{ID: "don:core:dvrv-us-1:devo/ABC:artifact/101"},
				},
			},
			{
				ID: "e2", Type: "timeline_comment", Body: "same log again",
				Artifacts: []devrev.Artifact{
					{ID: "don:core:dvrv-us-1:devo/ABC:artifact/101"},
					{ID: "don:core:dvrv-us-1:devo/ABC:artifact/102"},
				},
			},
		}

		timeline := buildTimeline(ref, sampleWork(), entries)
		require.Len(t, timeline.AllArtifacts, 2)
		assert.Equal(t, 2, timeline.Summary.TotalArtifacts)
		assert.Equal(t, 1, timeline.AllArtifacts[0].AttachedToMessage)
		assert.Equal(
			t,
			"devrev://artifacts/don%3Acore%3Advrv-us-1%3Adevo%2FABC%3Aartifact%2F101",
			timeline.AllArtifacts[0].ResourceURI,
		)
		assert.Equal(t, "devrev://tickets/1/artifacts", timeline.Links["artifacts"])
	})
	t.Run("Should treat unknown entry types with a body as messages", func(t *testing.T) {
		entries := []devrev.TimelineEntry{
			{ID: "e1", Type: "timeline_entry_custom", Body: "custom note"},
			{ID: "e2", Type: "timeline_entry_custom"},
		}

		timeline := buildTimeline(ref, sampleWork(), entries)
		assert.Len(t, timeline.ConversationThread, 1)
		assert.Len(t, timeline.KeyEvents, 1)
	})
	t.Run("Should summarize visibility with percentages", func(t *testing.T) {
		entries := []devrev.TimelineEntry{
			{ID: "e1", Type: "timeline_comment", Body: "public msg"},
			{ID: "e2", Type: "timeline_comment", Body: "internal note", Visibility: "internal"},
			{ID: "e3", Type: "work_created"},
			{ID: "e4", Type: "timeline_comment", Body: "private", Visibility: "private"},
		}

		timeline := buildTimeline(ref, sampleWork(), entries)
		vs := timeline.VisibilitySummary

		assert.Equal(t, 4, vs.TotalEntries)
		assert.Equal(t, 2, vs.CustomerVisibleEntries)
		assert.Equal(t, 2, vs.InternalOnlyEntries)
		assert.InDelta(t, 50.0, vs.CustomerVisiblePercent, 0.01)
		assert.InDelta(t, 50.0, vs.InternalOnlyPercent, 0.01)
		assert.Equal(t, 2, vs.VisibilityBreakdown[core.VisibilityExternal])
		assert.Equal(t, 1, vs.VisibilityBreakdown[core.VisibilityInternal])
		assert.Equal(t, 1, vs.VisibilityBreakdown[core.VisibilityPrivate])
	})
	t.Run("Should link each message to its timeline entry resource", func(t *testing.T) {
		entries := []devrev.TimelineEntry{
			{
				ID: "don:core:dvrv-us-1:devo/ABC:timeline_entry/e42", Type: "timeline_comment", Body: "hi",
			},
		}
		timeline := buildTimeline(ref, sampleWork(), entries)
		require.Len(t, timeline.ConversationThread, 1)
		assert.Equal(t, "devrev://tickets/1/timeline/e42", timeline.ConversationThread[0].TimelineEntryURI)
	})
}

func TestEventLabel(t *testing.T) {
	t.Run("Should strip prefixes and underscores", func(t *testing.T) {
		assert.Equal(t, "created", eventLabel("work_created"))
		assert.Equal(t, "stage updated", eventLabel("stage_updated"))
		assert.Equal(t, "created", eventLabel("timeline_entry_work_created"))
		assert.Equal(t, "part suggested", eventLabel("part_suggested"))
	})
}

func TestClassifySpeaker(t *testing.T) {
	t.Run("Should fall back through name fields", func(t *testing.T) {
		s := classifySpeaker(&devrev.UserSummary{FullName: "Full Name"}, "")
		assert.Equal(t, "Full Name", s.Name)
		s = classifySpeaker(&devrev.UserSummary{Email: "only@example.com"}, "")
		assert.Equal(t, "only@example.com", s.Name)
	})
	t.Run("Should default unknown authors to support", func(t *testing.T) {
		s := classifySpeaker(nil, "ada@example.com")
		assert.Equal(t, "Unknown", s.Name)
		assert.Equal(t, SpeakerSupport, s.Type)
	})
}
