// Package services implements HTTP clients for the PathFinder backend.
//
// # Transport
//
// [APIService] issues raw requests against the configured base URL and returns an [APIResponse] with the status,
// headers and body. Non-2xx responses are turned into [*ServerError], carrying the backend's {"message": ...} text
// when the body has one.
//
// # Collaborators
//
//   - [AuthService] : POST /users/login and POST /users/register ([Authenticator])
//   - [AnalysisService] : POST /upload/cv as multipart/form-data with field "file" ([Analyzer])
//
// Analysis requests carry the session's access token as a bearer credential. [APIService.WithToken] wraps the
// client's transport in an [oauth2.Transport] over a static token source.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : non-2xx response (unwrapped from [*ServerError])
//   - [shared.ErrMalformedResponse] : 2xx response that does not match the expected shape
//   - [shared.ErrNotAuthenticated] : analysis requested without a token
package services
