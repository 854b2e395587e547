// Package services implements the HTTP client for the catalogue API.
//
// # APIService
//
// [APIService] is the only component that performs network I/O. It asks its [CredentialSource] for the
// current credential when each request is sent, so a login or logout is observed by the next request and
// never applied to one already in flight. [WithCredential] overrides the source for a single request.
//
// Every request carries an X-Request-ID and passes through an optional [rate.Limiter]. Requests are not
// retried; callers decide.
//
// # Error Handling
//
// Failures are typed and match the shared sentinels with errors.Is:
//   - [*NetworkError] : no response reached the client ([shared.ErrServiceUnavailable])
//   - [*StatusError] : non-2xx status, server detail verbatim ([shared.ErrAPIRequest]; 401 also [shared.ErrNotAuthenticated])
//   - [*DecodeError] : body not in the expected shape ([shared.ErrAPIRequest], [shared.ErrUnexpectedResponse])
//
// # AuthAPI
//
// [AuthAPI] maps POST /login/, POST /users/ and GET /users/me onto typed requests and responses.
package services
