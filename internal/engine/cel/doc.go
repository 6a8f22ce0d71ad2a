// Package cel implements the one concrete optimisation engine the
// coordination core ships with: a small declarative model evaluated by
// github.com/google/cel-go. It exists to exercise the Engine interface
// end to end in tests and in the reference deployment; it is not a
// production-grade mathematical-programming solver.
package cel
