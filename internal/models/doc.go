// Package models defines the data shared between the session core, the API client, and presentation layers.
//
//   - [UserProfile] : the authenticated identity as returned by the API, an immutable snapshot
//   - [Timestamp] : a time value tolerant of the naive ISO-8601 timestamps the API emits
//
// The session state itself lives in the session package; models only carries data.
package models
