package tasks

// TaskSchedulerInterface is the scheduling surface used by the main
// application and the HTTP handlers: start and stop the worker pool, and
// enqueue ad-hoc tasks such as a manual dataset refresh.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
