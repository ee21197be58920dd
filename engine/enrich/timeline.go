package enrich

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/saramaebee/devrev-mcp/engine/core"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
	"github.com/saramaebee/devrev-mcp/pkg/logger"
)

// Speaker types used in conversation entries
const (
	SpeakerCustomer = "customer"
	SpeakerSupport  = "support"
	SpeakerSystem   = "system"
)

// Timeline builds the conversation-oriented view of a ticket: the
// message thread with speaker classification, the key workflow events,
// and per-entry visibility annotations.
func (s *Service) Timeline(ctx context.Context, ref core.WorkRef) (*Timeline, error) {
	displayID := ref.DisplayID()
	if cached, ok := fromCache[Timeline](s.cache, core.ObjectTypeTimelineEntry, displayID); ok {
		logger.Debug("timeline served from cache", "id", displayID)
		return cached, nil
	}

	work, err := s.api.GetWork(ctx, displayID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", displayID, err)
	}
	entries, err := s.listAllTimelineEntries(ctx, displayID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timeline for %s: %w", displayID, err)
	}

	timeline := buildTimeline(ref, work, entries)
	storeCache(s.cache, core.ObjectTypeTimelineEntry, displayID, timeline)
	return timeline, nil
}

// buildTimeline converts raw timeline entries into the enriched view
func buildTimeline(ref core.WorkRef, work *devrev.Work, entries []devrev.TimelineEntry) *Timeline {
	timeline := &Timeline{
		Summary:            summarize(ref, work),
		ConversationThread: []ConversationEntry{},
		KeyEvents:          []KeyEvent{},
		AllArtifacts:       []ArtifactRef{},
		Links: map[string]string{
			"ticket": TicketURI(ref.Num),
		},
	}

	customerEmail := ""
	if work.CreatedBy != nil {
		customerEmail = work.CreatedBy.Email
	}

	seq := 0
	seenArtifacts := make(map[string]bool)

	for _, entry := range entries {
		info := core.NewVisibilityInfo(entry.Visibility)
		entryType := core.TimelineEntryType(entry.Type)

		switch {
		case entryType.IsConversation():
			seq++
			conv := conversationEntry(ref, entry, seq, customerEmail, info)
			timeline.ConversationThread = append(timeline.ConversationThread, conv)
			collectRefs(timeline, conv.Artifacts, seenArtifacts)
			updateLastMessages(&timeline.Summary, conv)

		case entryType.IsSystemEvent():
			timeline.KeyEvents = append(timeline.KeyEvents, keyEvent(entry, info))

		case strings.TrimSpace(entry.Body) != "":
			// unknown entry types with a body still read as messages
			seq++
			conv := conversationEntry(ref, entry, seq, customerEmail, info)
			timeline.ConversationThread = append(timeline.ConversationThread, conv)
			collectRefs(timeline, conv.Artifacts, seenArtifacts)
			updateLastMessages(&timeline.Summary, conv)

		default:
			timeline.KeyEvents = append(timeline.KeyEvents, keyEvent(entry, info))
		}
	}

	timeline.Summary.TotalArtifacts = len(timeline.AllArtifacts)
	timeline.VisibilitySummary = summarizeVisibility(timeline.ConversationThread, timeline.KeyEvents)
	if len(timeline.AllArtifacts) > 0 {
		timeline.Links["artifacts"] = TicketArtifactsURI(ref.Num)
	}
	return timeline
}

func summarize(ref core.WorkRef, work *devrev.Work) TimelineSummary {
	summary := TimelineSummary{
		TicketID:     ref.DisplayID(),
		Customer:     "unknown",
		Workspace:    "unknown",
		Subject:      work.Title,
		CurrentStage: stageName(work.Stage),
		CreatedDate:  work.CreatedDate,
	}
	if work.CreatedBy != nil {
		if work.CreatedBy.Email != "" {
			summary.Customer = work.CreatedBy.Email
		} else if work.CreatedBy.DisplayName != "" {
			summary.Customer = work.CreatedBy.DisplayName
		}
	}
	if work.RevOrg != nil && work.RevOrg.DisplayName != "" {
		summary.Workspace = work.RevOrg.DisplayName
	} else if len(work.OwnedBy) > 0 && work.OwnedBy[0].DisplayName != "" {
		summary.Workspace = work.OwnedBy[0].DisplayName
	}
	return summary
}

func conversationEntry(
	ref core.WorkRef,
	entry devrev.TimelineEntry,
	seq int,
	customerEmail string,
	info core.VisibilityInfo,
) ConversationEntry {
	conv := ConversationEntry{
		Seq:            seq,
		Timestamp:      entry.CreatedDate,
		EventType:      entry.Type,
		Speaker:        classifySpeaker(entry.CreatedBy, customerEmail),
		Message:        entry.Body,
		Artifacts:      []ArtifactRef{},
		VisibilityInfo: info,
	}
	if entry.ID != "" {
		conv.TimelineEntryURI = TimelineEntryURI(ref.Num, core.TailID(entry.ID))
	}
	for _, artifact := range entry.Artifacts {
		if artifact.ID == "" {
			continue
		}
		attachment := ArtifactRef{
			ID:                artifact.ID,
			DisplayID:         artifact.DisplayID,
			AttachedToMessage: seq,
			ResourceURI:       ArtifactURI(artifact.ID),
		}
		if artifact.File != nil {
			attachment.Type = artifact.File.Type
		}
		conv.Artifacts = append(conv.Artifacts, attachment)
	}
	return conv
}

// classifySpeaker decides who authored a message. The ticket creator's
// email marks the customer; a "system" display name marks automation;
// everyone else is support.
func classifySpeaker(author *devrev.UserSummary, customerEmail string) Speaker {
	speaker := Speaker{Name: "Unknown", Type: SpeakerSupport}
	if author == nil {
		return speaker
	}
	if author.DisplayName != "" {
		speaker.Name = author.DisplayName
	} else if author.FullName != "" {
		speaker.Name = author.FullName
	} else if author.Email != "" {
		speaker.Name = author.Email
	}

	switch {
	case customerEmail != "" && author.Email == customerEmail:
		speaker.Type = SpeakerCustomer
	case strings.Contains(strings.ToLower(speaker.Name), "system"):
		speaker.Type = SpeakerSystem
	}
	return speaker
}

func keyEvent(entry devrev.TimelineEntry, info core.VisibilityInfo) KeyEvent {
	event := KeyEvent{
		Type:           eventLabel(entry.Type),
		EventType:      entry.Type,
		Timestamp:      entry.CreatedDate,
		VisibilityInfo: info,
	}
	if entry.StageUpdated != nil {
		if entry.StageUpdated.OldStage != nil {
			event.FromStage = entry.StageUpdated.OldStage.Name
		}
		if entry.StageUpdated.NewStage != nil {
			event.ToStage = entry.StageUpdated.NewStage.Name
		}
	}
	if entry.CreatedBy != nil {
		actor := classifySpeaker(entry.CreatedBy, "")
		event.Actor = &actor
	}
	return event
}

// eventLabel turns "timeline_entry_work_created" style type strings
// into short human labels like "created".
func eventLabel(entryType string) string {
	label := entryType
	if idx := strings.LastIndex(label, "timeline_entry_"); idx >= 0 {
		label = label[idx+len("timeline_entry_"):]
	}
	label = strings.TrimPrefix(label, "work_")
	return strings.ReplaceAll(label, "_", " ")
}

func collectRefs(timeline *Timeline, refs []ArtifactRef, seen map[string]bool) {
	for _, ref := range refs {
		if seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		timeline.AllArtifacts = append(timeline.AllArtifacts, ref)
	}
}

func updateLastMessages(summary *TimelineSummary, conv ConversationEntry) {
	switch conv.Speaker.Type {
	case SpeakerCustomer:
		summary.LastCustomerMessage = conv.Timestamp
	case SpeakerSupport:
		summary.LastSupportResponse = conv.Timestamp
	}
}

// summarizeVisibility aggregates visibility levels across the whole
// timeline, with percentages rounded to one decimal.
func summarizeVisibility(thread []ConversationEntry, events []KeyEvent) VisibilitySummary {
	summary := VisibilitySummary{
		VisibilityBreakdown: make(map[core.Visibility]int),
	}

	count := func(info core.VisibilityInfo) {
		summary.TotalEntries++
		summary.VisibilityBreakdown[info.Level]++
		if info.CustomerVisible {
			summary.CustomerVisibleEntries++
		}
		if info.InternalOnly {
			summary.InternalOnlyEntries++
		}
	}
	for _, conv := range thread {
		count(conv.VisibilityInfo)
	}
	for _, event := range events {
		count(event.VisibilityInfo)
	}

	if summary.TotalEntries > 0 {
		total := float64(summary.TotalEntries)
		summary.CustomerVisiblePercent = round1(float64(summary.CustomerVisibleEntries) / total * 100)
		summary.InternalOnlyPercent = round1(float64(summary.InternalOnlyEntries) / total * 100)
	}
	return summary
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
