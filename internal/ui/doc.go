// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI follows the session rather than driving it:
//  1. [CheckingView] : shown while the stored credential is being verified
//  2. [LoginView] : email and password form, shown once the session is anonymous
//  3. [RegisterView] : account creation; success returns to the login form with the email filled in
//  4. [ProfileView] : welcome banner and profile of the authenticated user
//
// The [Model] subscribes to the session manager and receives transitions through a single-slot channel,
// so a logout or an expiry observed anywhere in the process moves the UI back to the login form.
// Login, registration and refresh run as commands; their error messages are shown verbatim.
package ui
