// Package ui implements the interactive terminal front end launched by a
// bare djx invocation.
//
// Three views: a prompt (text input for the music request), a working
// spinner while the pipeline resolves and plays, and a result view showing
// the outcome with bindings to start over ("r") or queue more of the same
// ("m"). All pipeline work runs off the update loop via [tea.Cmd] closures
// that deliver a [Msg] union value when done.
package ui
