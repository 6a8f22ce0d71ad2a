package domain

// WorkerState is a C2 solver worker's position in the state machine
// spec.md §4.1 defines: start -> Undefined; Define-Problem success ->
// Idle; Solve-Problem accepted -> Working; solve completes or fails ->
// Idle.
type WorkerState string

const (
	WorkerUndefined WorkerState = "Undefined"
	WorkerIdle      WorkerState = "Idle"
	WorkerWorking   WorkerState = "Working"
)

// WorkerAddress identifies one worker task within the pool C3 dispatches
// against. It is opaque to the dispatcher beyond equality/ordering.
type WorkerAddress string
