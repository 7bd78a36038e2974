package backend

// Progress is a startup progress event shown on the splash view.
type Progress struct {
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

// ProgressFunc receives progress events in order. It is called from the goroutine running
// Start and must not block for long.
type ProgressFunc func(Progress)

// Splash messages.
const (
	MsgLocating     = "Locating Python Environment..."
	MsgFound        = "Python Environment Found"
	MsgSpawning     = "Spawning Core Engine..."
	MsgInitializing = "Initializing Database..."
	MsgReady        = "Ready!"
)

const (
	percentLocating = 10
	percentFound    = 25
	percentSpawning = 40
	percentPerPoll  = 2
	percentPollCap  = 90
	percentReady    = 100
)

// pollPercent is the progress shown on the n-th health poll (n starts at 1).
func pollPercent(attempt int) int {
	p := percentSpawning + attempt*percentPerPoll
	if p > percentPollCap {
		return percentPollCap
	}
	return p
}
