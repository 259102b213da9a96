// Package tasks implements the CV upload workflow with real-time progress reporting.
//
// # Core Operations
//
// [UploadController] drives a single candidate through its lifecycle:
//
//  1. [UploadController.SelectFile] : validate and stage a PDF
//     - Rejects non-PDF declared types ([shared.ErrUnsupportedFileType]) and oversized files ([shared.ErrFileTooLarge])
//     - Cancels any previous run and starts a [ProgressSource]
//     - Records the page count when the PDF can be parsed
//
//  2. [UploadController.RemoveFile] : clear the candidate and reset progress
//
//  3. [UploadController.Analyze] : submit the staged file to the analysis service
//     - Requires an authenticated session and complete progress
//     - Writes the result to the cache and clears the candidate on success
//
// # Progress Reporting
//
// [StagedProgress] reports the fraction of the file read into memory. [SimulatedProgress] advances on a fixed tick
// and is kept as a fallback. Both report a non-decreasing sequence ending at exactly 100.
//
// All operations use non-blocking channels for progress updates. Updates use select with default to prevent blocking.
package tasks
