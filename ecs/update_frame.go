package ecs

// UpdateFrame is handed to every system during Scheduler.Once.
type UpdateFrame struct {
	DeltaTime float64
	// Index counts frames from zero.
	Index    int64
	Commands *Commands
	Storage  *Storage
}

func newUpdateFrame(dt float64, index int64, storage *Storage) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Index:     index,
		Commands:  newCommands(),
		Storage:   storage,
	}
}
