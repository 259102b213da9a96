// Package server provides HTTP routing, middleware, and a development stand-in for the PathFinder backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
// Unknown paths and rejected methods answer with a JSON {"message": ...} body.
//
// # Development Server
//
// [DevServer] serves the three endpoints the client consumes:
//
//	POST /users/login     {email,password}          -> {data:{accessToken,user}}
//	POST /users/register  {fullname,email,password} -> 201 {message}
//	POST /upload/cv       multipart "file" + Bearer -> {data:{jobs:[...]}}
//
// Accounts live in SQLite with bcrypt password hashes. Access tokens are opaque UUIDs.
// Uploaded PDFs are scored against the built-in job catalogue of the analysis package.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
