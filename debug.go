package fabric

// debugLog writes per-tick timing and traversal counts at debug level.
// Only called when the executor was built WithDebug(true).
func (e *GraphExecutor) debugLog(stats FrameStats) {
	e.log.Debug().
		Uint64("frame", stats.Frame).
		Dur("traverse", stats.Traverse).
		Dur("aggregate", stats.Aggregate).
		Dur("draw", stats.Draw).
		Dur("total", stats.Total()).
		Msg("frame timing")
	e.log.Debug().
		Uint64("frame", stats.Frame).
		Int("visited", stats.Visited).
		Int("executed", stats.Executed).
		Int("cached", stats.Cached).
		Int("faults", stats.Faults).
		Int("feedback", stats.Feedback).
		Int("objects", stats.Objects).
		Int("cameras", stats.Cameras).
		Msg("frame graph")
	if n := e.graph.Len(); n > debugMaxGraphNodes {
		e.log.Warn().Int("nodes", n).Int("threshold", debugMaxGraphNodes).Msg("graph is unusually large")
	}
}

// debugMaxGraphNodes is the node count above which debug mode warns.
const debugMaxGraphNodes = 1000
