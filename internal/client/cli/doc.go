// Package cli implements the bimio commands.
//
// Each invocation runs a single command: App.Run picks it from the first
// argument, parses the command's own flags and returns the exit code. The
// commands talk to the session facade (login, logout, session) and to the
// plugin service (list, upload, download, build). Commands that need an
// account check the stored session first and point the user at
// `bimio login` when there is none.
package cli
