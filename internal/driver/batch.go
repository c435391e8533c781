package driver

import (
	"runtime"
	"sync"

	"github.com/akmonengine/cuboid"
)

// Run is a world stepped for a fixed number of steps by RunAll.
type Run struct {
	Name  string
	World *cuboid.World
	Dt    float64
	Steps int

	// Filled by RunAll.
	Contacts int
	Awake    int
}

// RunAll steps every run to completion. Worlds share nothing, so the runs
// are spread over the available CPUs.
func RunAll(runs []*Run) {
	if len(runs) == 0 {
		return
	}

	task(min(runtime.NumCPU(), len(runs)), runs, func(run *Run) {
		for range run.Steps {
			run.World.Step(run.Dt)
			run.Contacts += run.World.Contacts()
		}
		run.Awake = run.World.Awake()
	})
}

func task[T any](workersCount int, data []T, fn func(data T)) {
	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(data[i])
			}
		}(workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()
}
