// package models defines the data model shared by the session core and its consumers
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayouts are tried in order when decoding API timestamps.
// The API emits naive ISO-8601 values (no zone) for database timestamps, which are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a [time.Time] that tolerates the timestamp formats returned by the API.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s using the layouts accepted by [Timestamp].
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UserProfile is the authenticated identity as returned by GET /users/me and POST /users/.
//
// A profile is an immutable snapshot: the session replaces it wholesale and never patches fields.
// Fields the client does not model are kept verbatim in Extra.
type UserProfile struct {
	ID        int64                      `json:"id"`
	Name      string                     `json:"name"`
	Email     string                     `json:"email"`
	CreatedAt Timestamp                  `json:"created_at"`
	Extra     map[string]json.RawMessage `json:"-"`
}

var profileFields = map[string]bool{"id": true, "name": true, "email": true, "created_at": true}

func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	for name, raw := range all {
		if profileFields[name] {
			continue
		}
		if decoded.Extra == nil {
			decoded.Extra = make(map[string]json.RawMessage)
		}
		decoded.Extra[name] = raw
	}

	*p = UserProfile(decoded)
	return nil
}

func (p UserProfile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+len(profileFields))
	for name, raw := range p.Extra {
		out[name] = raw
	}
	out["id"] = p.ID
	out["name"] = p.Name
	out["email"] = p.Email
	out["created_at"] = p.CreatedAt
	return json.Marshal(out)
}

// Clone returns a deep copy so callers cannot mutate a shared snapshot through Extra.
func (p UserProfile) Clone() UserProfile {
	if p.Extra == nil {
		return p
	}
	extra := make(map[string]json.RawMessage, len(p.Extra))
	for name, raw := range p.Extra {
		extra[name] = append(json.RawMessage(nil), raw...)
	}
	p.Extra = extra
	return p
}

// Validate checks the profile carries an identity. Used to reject empty 2xx bodies.
func (p UserProfile) Validate() error {
	if p.ID == 0 && p.Email == "" {
		return fmt.Errorf("profile has neither id nor email")
	}
	return nil
}

// MemberSince formats CreatedAt as a calendar date, or "" when unknown.
func (p UserProfile) MemberSince() string {
	if p.CreatedAt.IsZero() {
		return ""
	}
	return p.CreatedAt.Format("2006-01-02")
}
