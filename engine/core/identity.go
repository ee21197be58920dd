package core

import (
	"fmt"
	"regexp"
	"strings"
)

// Work items surface in three identifier forms: a bare number ("12345"),
// a display ID ("TKT-12345", "ISS-9031"), and the fully qualified don ID
// ("don:core:dvrv-us-1:devo/118WAPdKBc:ticket/12345"). Every upstream call
// goes through normalization first; the canonical form is the display ID.

// WorkKind distinguishes the work item types exposed by this server
type WorkKind string

const (
	WorkKindTicket WorkKind = "ticket"
	WorkKindIssue  WorkKind = "issue"
)

// DisplayPrefix returns the display ID prefix for the work kind
func (k WorkKind) DisplayPrefix() string {
	switch k {
	case WorkKindIssue:
		return "ISS-"
	default:
		return "TKT-"
	}
}

var (
	displayIDPattern = regexp.MustCompile(`^(?i)(tkt|iss)-(\d+)$`)
	donWorkPattern   = regexp.MustCompile(`^don:core:[A-Za-z0-9-]+:devo/[A-Za-z0-9]+:(ticket|issue)/(\d+)$`)
	numericPattern   = regexp.MustCompile(`^\d+$`)
	donArtifact      = regexp.MustCompile(`^don:core:[A-Za-z0-9-]+:devo/[A-Za-z0-9]+(?::[A-Za-z0-9_]+/[A-Za-z0-9]+)*:artifact/(\d+)$`)
)

// WorkRef is a normalized reference to a work item
type WorkRef struct {
	Kind WorkKind
	Num  string
}

// DisplayID returns the canonical display form, e.g. "TKT-12345"
func (r WorkRef) DisplayID() string {
	return r.Kind.DisplayPrefix() + r.Num
}

// ObjectType returns the object type of the referenced work item
func (r WorkRef) ObjectType() ObjectType {
	if r.Kind == WorkKindIssue {
		return ObjectTypeIssue
	}
	return ObjectTypeTicket
}

// ParseWorkRef normalizes any accepted work identifier surface form.
// Bare numbers resolve against fallback, which callers set from the
// endpoint context (ticket resources assume tickets).
func ParseWorkRef(raw string, fallback WorkKind) (WorkRef, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return WorkRef{}, NewError(
			fmt.Errorf("empty work identifier"),
			ErrorCodeInvalidID,
			nil,
		)
	}
	if m := displayIDPattern.FindStringSubmatch(id); m != nil {
		kind := WorkKindTicket
		if strings.EqualFold(m[1], "iss") {
			kind = WorkKindIssue
		}
		return WorkRef{Kind: kind, Num: m[2]}, nil
	}
	if m := donWorkPattern.FindStringSubmatch(id); m != nil {
		return WorkRef{Kind: WorkKind(m[1]), Num: m[2]}, nil
	}
	if numericPattern.MatchString(id) {
		return WorkRef{Kind: fallback, Num: id}, nil
	}
	return WorkRef{}, NewError(
		fmt.Errorf("unrecognized work identifier %q", raw),
		ErrorCodeInvalidID,
		map[string]any{"id": raw},
	)
}

// ParseTicketRef is ParseWorkRef restricted to tickets. Issue identifiers
// are rejected rather than silently re-interpreted.
func ParseTicketRef(raw string) (WorkRef, error) {
	ref, err := ParseWorkRef(raw, WorkKindTicket)
	if err != nil {
		return WorkRef{}, err
	}
	if ref.Kind != WorkKindTicket {
		return WorkRef{}, NewError(
			fmt.Errorf("%q is not a ticket identifier", raw),
			ErrorCodeInvalidID,
			map[string]any{"id": raw, "kind": string(ref.Kind)},
		)
	}
	return ref, nil
}

// NormalizeArtifactID validates an artifact identifier. Both the bare
// number and the fully qualified don form are accepted; the don form is
// preserved because artifacts.get and artifacts.locate require it when
// the artifact lives outside the caller's default part.
func NormalizeArtifactID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if numericPattern.MatchString(id) || donArtifact.MatchString(id) {
		return id, nil
	}
	return "", NewError(
		fmt.Errorf("unrecognized artifact identifier %q", raw),
		ErrorCodeInvalidID,
		map[string]any{"id": raw},
	)
}

// IsDonID reports whether the identifier is already a fully qualified don ID
func IsDonID(id string) bool {
	return strings.HasPrefix(id, "don:core:")
}

// TailID returns the trailing path segment of a don ID, which is the
// short display form used in navigation URIs.
func TailID(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
