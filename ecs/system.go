package ecs

// System is one step of a frame. Query and Singleton fields declared on the
// implementing struct are bound by Scheduler.Register; any other fields are
// private state that persists between frames.
type System interface {
	Execute(frame *UpdateFrame)
}
