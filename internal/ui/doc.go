// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the PathFinder landing page:
//  1. [UploadView] : Pick or drop a CV, watch the progress bar, analyze it
//  2. [LoginView] : Log in with email and password
//  3. [RegisterView] : Create an account
//  4. [ResultsView] : Browse job matches and open a listing in the browser
//
// The header shows the logged in user or "Log In · Sign Up", and follows session changes through [session.Store]
// subscriptions. Upload progress arrives on the channel given to [tasks.WithUpdates].
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Keyboard actions use ctrl chords since a text input is focused in most views, with contextual help via charmbracelet/bubbles/help.
package ui
