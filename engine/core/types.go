package core

import (
	"github.com/google/uuid"
)

// RequestID correlates one client call across log lines
type RequestID string

// NewRequestID generates a new unique request ID
func NewRequestID() RequestID {
	return RequestID(uuid.New().String())
}

// String returns the string representation of the request ID
func (id RequestID) String() string {
	return string(id)
}

// ObjectType represents the kind of a DevRev object
type ObjectType string

const (
	ObjectTypeTicket        ObjectType = "ticket"
	ObjectTypeIssue         ObjectType = "issue"
	ObjectTypeWork          ObjectType = "work"
	ObjectTypeArtifact      ObjectType = "artifact"
	ObjectTypeTimelineEntry ObjectType = "timeline_entry"
	ObjectTypeLinkTypes     ObjectType = "link_types"
)

// Visibility represents who can see a timeline entry.
// Entries without an explicit visibility default to external.
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityInternal Visibility = "internal"
	VisibilityExternal Visibility = "external"
	VisibilityPublic   Visibility = "public"
)

// Audience returns who can see entries at this visibility level
func (v Visibility) Audience() string {
	switch v {
	case VisibilityPrivate:
		return "Creator only"
	case VisibilityInternal:
		return "Dev organization members"
	case VisibilityExternal:
		return "Dev organization + customers"
	case VisibilityPublic:
		return "Everyone"
	default:
		return "Unknown"
	}
}

// Description returns a human-readable description of the visibility level
func (v Visibility) Description() string {
	switch v {
	case VisibilityPrivate:
		return "Only visible to the creator"
	case VisibilityInternal:
		return "Visible within the Dev organization"
	case VisibilityExternal:
		return "Visible to Dev organization and Rev users (customers)"
	case VisibilityPublic:
		return "Visible to all users"
	default:
		return "Unknown visibility: " + string(v)
	}
}

// CustomerVisible reports whether customers can see entries at this level
func (v Visibility) CustomerVisible() bool {
	return v == VisibilityExternal || v == VisibilityPublic
}

// InternalOnly reports whether the entry is restricted to internal users
func (v Visibility) InternalOnly() bool {
	return v == VisibilityPrivate || v == VisibilityInternal
}

// NormalizeVisibility applies the upstream default (external) to an
// unset visibility value.
func NormalizeVisibility(raw string) Visibility {
	if raw == "" {
		return VisibilityExternal
	}
	return Visibility(raw)
}

// VisibilityInfo is the expanded visibility block attached to enriched
// timeline entries.
type VisibilityInfo struct {
	Level           Visibility `json:"level"`
	Description     string     `json:"description"`
	Audience        string     `json:"audience"`
	CustomerVisible bool       `json:"customer_visible"`
	InternalOnly    bool       `json:"internal_only"`
}

// NewVisibilityInfo expands a raw visibility string into its info block
func NewVisibilityInfo(raw string) VisibilityInfo {
	v := NormalizeVisibility(raw)
	return VisibilityInfo{
		Level:           v,
		Description:     v.Description(),
		Audience:        v.Audience(),
		CustomerVisible: v.CustomerVisible(),
		InternalOnly:    v.InternalOnly(),
	}
}

// TimelineEntryType represents common timeline entry types
type TimelineEntryType string

const (
	EntryTypeComment       TimelineEntryType = "timeline_comment"
	EntryTypeWorkCreated   TimelineEntryType = "work_created"
	EntryTypeStageUpdated  TimelineEntryType = "stage_updated"
	EntryTypePartSuggested TimelineEntryType = "part_suggested"
	EntryTypeWorkUpdated   TimelineEntryType = "work_updated"
)

// IsConversation reports whether the entry type carries a message
func (t TimelineEntryType) IsConversation() bool {
	return t == EntryTypeComment
}

// IsSystemEvent reports whether the entry type is a system-generated event
func (t TimelineEntryType) IsSystemEvent() bool {
	switch t {
	case EntryTypeWorkCreated, EntryTypeStageUpdated, EntryTypePartSuggested, EntryTypeWorkUpdated:
		return true
	default:
		return false
	}
}
