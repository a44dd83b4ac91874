// Package binding keeps a control's displayed value in sync with the shell
// commands that own it.
//
// A Binding reads the initial value when it is created, applies external
// changes delivered from a file observer unless the user is interacting with
// the control, and writes user edits back through the update command. When an
// update fails the binding re-queries the external value and forces the
// control back to it.
//
// Every Binding method that touches the control runs on the presentation
// loop. Background work (observers, pumps and the coalescing edit worker) is
// owned by a Supervisor.
package binding
