// Package wire defines the request-parameter vocabulary shared by every
// panel: panel-scoped parameter names and event tokens. Both are plain
// strings on the wire; this package is the single place that knows how they
// are joined, split, and validated.
package wire

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	// ParamSep joins a panel id and a local field name into one wire
	// parameter name, e.g. "3:.:name".
	ParamSep = ":.:"

	// EventSep joins the three fields of an event token,
	// e.g. "add.add.0" for event "add", routine "add", panel 0.
	EventSep = "."

	// ButtonPrefix marks a submit-control parameter *name* as carrying an
	// event token. The value is irrelevant (browsers send the button label).
	ButtonPrefix = "eventbutton+"

	// LinkParam is the query parameter whose *value* carries a link event
	// token.
	LinkParam = "n"

	// SessionParam round-trips the session id via a hidden field.
	SessionParam = "session_id"
)

// MalformedTokenError reports an event token that does not split into
// exactly three non-empty components with a numeric panel id.
type MalformedTokenError struct {
	Token string
}

func (e *MalformedTokenError) Error() string {
	return fmt.Sprintf("wire: malformed event token %q", e.Token)
}

// CheckLocalName rejects field names that cannot survive the parameter
// namespace: empty names and names containing ParamSep or reserved words.
func CheckLocalName(name string) error {
	if name == "" {
		return fmt.Errorf("wire: empty field name")
	}
	if strings.Contains(name, ParamSep) {
		return fmt.Errorf("wire: field name %q contains separator %q", name, ParamSep)
	}
	if name == SessionParam || name == LinkParam {
		return fmt.Errorf("wire: field name %q is reserved", name)
	}
	return nil
}

// CheckEventPart rejects event and routine names that cannot survive the
// event token grammar.
func CheckEventPart(part string) error {
	if part == "" {
		return fmt.Errorf("wire: empty event token component")
	}
	if strings.Contains(part, EventSep) {
		return fmt.Errorf("wire: event token component %q contains separator %q", part, EventSep)
	}
	return nil
}

// EncodeParam returns the wire name for a panel-scoped field.
func EncodeParam(panelID int, local string) (string, error) {
	if err := CheckLocalName(local); err != nil {
		return "", err
	}
	return strconv.Itoa(panelID) + ParamSep + local, nil
}

// DecodeParams filters the raw inbound parameter set down to the fields
// addressed to one panel, keyed by local name. Parameters belonging to other
// panels, and parameters outside the namespace entirely, are dropped: two
// sibling panels may both use a field called "name" without collision.
func DecodeParams(panelID int, raw url.Values) map[string]string {
	prefix := strconv.Itoa(panelID) + ParamSep
	out := make(map[string]string)
	for name, vals := range raw {
		local, ok := strings.CutPrefix(name, prefix)
		if !ok || local == "" || len(vals) == 0 {
			continue
		}
		out[local] = vals[0]
	}
	return out
}

// Event is a decoded event descriptor: which event fired, which routine on
// which panel should handle it.
type Event struct {
	Name    string
	Routine string
	PanelID int
}

// EncodeEvent returns the opaque token for an event descriptor. The same
// token serves both presentation forms: embedded after ButtonPrefix in a
// submit-control name, or as the value of the LinkParam query parameter.
func EncodeEvent(name, routine string, panelID int) (string, error) {
	if err := CheckEventPart(name); err != nil {
		return "", err
	}
	if err := CheckEventPart(routine); err != nil {
		return "", err
	}
	return name + EventSep + routine + EventSep + strconv.Itoa(panelID), nil
}

// DecodeEvent parses a token produced by EncodeEvent.
func DecodeEvent(token string) (Event, error) {
	parts := strings.Split(token, EventSep)
	if len(parts) != 3 {
		return Event{}, &MalformedTokenError{Token: token}
	}
	for _, p := range parts {
		if p == "" {
			return Event{}, &MalformedTokenError{Token: token}
		}
	}
	id, err := strconv.Atoi(parts[2])
	if err != nil || id < 0 {
		return Event{}, &MalformedTokenError{Token: token}
	}
	return Event{Name: parts[0], Routine: parts[1], PanelID: id}, nil
}

// FindToken scans an inbound parameter set for an event in either
// presentation form and returns the raw token. Button parameters win over a
// link parameter; among several button parameters (which a well-formed page
// never produces) the lexically smallest name is chosen so the result is
// deterministic.
func FindToken(raw url.Values) (string, bool) {
	var buttons []string
	for name := range raw {
		if tok, ok := strings.CutPrefix(name, ButtonPrefix); ok && tok != "" {
			buttons = append(buttons, tok)
		}
	}
	if len(buttons) > 0 {
		sort.Strings(buttons)
		return buttons[0], true
	}
	if tok := raw.Get(LinkParam); tok != "" {
		return tok, true
	}
	return "", false
}
