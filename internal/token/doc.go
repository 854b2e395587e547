// Package token decodes bearer credentials issued by the catalogue API.
//
// # Trust Model
//
// [Codec.Decode] reads the unverified payload of a JWT-shaped credential. It exists so the client can skip
// a network round trip for a credential that is obviously expired and schedule local expiry; it is not a
// security boundary. Signature verification happens on the server, which is the only authority on whether
// a credential grants access.
//
// # Format
//
// Three dot-separated base64url segments. The middle segment is a JSON object with at least "exp"
// (seconds since the epoch). "sub" and "iat" are read when present.
//
// Structural failures wrap [ErrMalformedCredential]; callers treat them as "no session".
package token
