// Package models defines domain entities and persistence interfaces for the PathFinder client.
//
// The package contains two categories of types:
//
// 1. Workflow state: values owned by the client's three units
//   - [Session] and [User] : authenticated identity, owned by the session store
//   - [UploadCandidate] and [UploadProgress] : the staged PDF, owned by the upload controller
//   - [AnalysisResult] : job matches from the analysis service, owned by the result cache
//
// 2. Persistent Entities: database-backed models used by the development server
//   - [Account] : registered users with bcrypt password hashes
//
// Persistent entities implement the [Model] interface and are accessed through [Repository].
package models
