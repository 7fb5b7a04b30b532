package bpmn

import (
	"strconv"
	"strings"
)

// Grid constants. All geometry is a fixed grid; non-overlap falls out of the
// grid instead of collision search.
const (
	originX  = 200
	originY  = 180
	pitchX   = 350 // horizontal slot per activity
	laneBand = 280 // vertical band per lane
	lanePad  = 70  // task offset inside its band

	poolX = 50
	poolY = 50
	laneX = 80
)

// Element dimensions by kind.
func dimFor(kind NodeKind) (w, h int) {
	switch kind {
	case NodeStartEvent, NodeEndEvent, NodeThrowMessage, NodeCatchMessage, NodeBoundaryTimer:
		return 36, 36
	case NodeExclusiveGateway:
		return 50, 50
	case NodeUserTask, NodeServiceTask:
		return 160, 90
	default:
		return 140, 80
	}
}

// Layout assigns every node its bounding box. Tasks sit left to right at a
// fixed pitch inside their lane band; gateways and message events share their
// task's pitch slot with a vertical offset; boundary events straddle the
// bottom edge of the owning task.
func Layout(g *Graph) error {
	if len(g.Nodes) == 0 {
		return ErrEmptyGraph
	}

	bandByLane := make(map[string]int, len(g.Pool.Lanes))
	for _, lane := range g.Pool.Lanes {
		bandByLane[lane.ID] = lane.BandIndex
	}

	activityCount := 0
	for _, n := range g.Nodes {
		if n.Kind == NodeUserTask || n.Kind == NodeServiceTask {
			activityCount++
		}
	}

	maxX := originX + pitchX*max(1, activityCount)

	for _, n := range g.Nodes {
		w, h := dimFor(n.Kind)
		taskY := originY + bandByLane[n.LaneID]*laneBand + lanePad

		switch n.Kind {
		case NodeStartEvent:
			n.Bounds = Bounds{X: originX - 100, Y: taskY + 27, W: w, H: h}
		case NodeEndEvent:
			// One slot past the last activity, clear of any trailing gateway.
			n.Bounds = Bounds{X: maxX + 360, Y: taskY + 27, W: w, H: h}
		case NodeUserTask, NodeServiceTask:
			n.Bounds = Bounds{X: slotX(n.ID), Y: taskY, W: w, H: h}
		case NodeExclusiveGateway:
			x := slotX(gatewayOwner(n.ID)) + 210
			if n.Role == gatewayConverge {
				x += 70
			}

			n.Bounds = Bounds{X: x, Y: taskY + 20, W: w, H: h}
		case NodeThrowMessage:
			// Below its task, still inside the source lane band.
			n.Bounds = Bounds{X: slotX(eventOwner(n.ID)) + 62, Y: taskY + 120, W: w, H: h}
		case NodeCatchMessage:
			// Above its task, inside the target lane band.
			n.Bounds = Bounds{X: slotX(eventOwner(n.ID)) + 62, Y: taskY - 66, W: w, H: h}
		case NodeBoundaryTimer:
			owner := g.Node(n.AttachedTo)
			n.Bounds = Bounds{
				X: owner.Bounds.X + owner.Bounds.W - w - 10,
				Y: owner.Bounds.Y + owner.Bounds.H - h/2,
				W: w,
				H: h,
			}
		}
	}

	return nil
}

// slotX derives the horizontal slot from the sequence index embedded in a
// task id, keeping coordinates a pure function of sequence order.
func slotX(taskID string) int {
	return originX + pitchX*(sequenceOf(taskID)+1)
}

func sequenceOf(taskID string) int {
	idx := strings.LastIndexByte(taskID, '_')
	if idx < 0 {
		return 0
	}

	n, err := strconv.Atoi(taskID[idx+1:])
	if err != nil {
		return 0
	}

	return n
}

// gatewayOwner maps Gateway_<seq>_split / Gateway_<seq>_join back to the task
// id sharing its pitch slot.
func gatewayOwner(gatewayID string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(gatewayID, "_split"), "_join")

	return "Activity_" + strings.TrimPrefix(trimmed, "Gateway_")
}

// eventOwner maps MessageThrow_<seq> / MessageCatch_<seq> to its task id.
func eventOwner(eventID string) string {
	return taskID(sequenceOf(eventID))
}

// PoolBounds returns the participant box for the laid-out graph.
func PoolBounds(g *Graph) Bounds {
	activityCount := 0
	for _, n := range g.Nodes {
		if n.Kind == NodeUserTask || n.Kind == NodeServiceTask {
			activityCount++
		}
	}

	maxX := originX + pitchX*max(1, activityCount)
	laneCount := max(1, len(g.Pool.Lanes))

	return Bounds{X: poolX, Y: poolY, W: maxX + 500, H: 150 + laneCount*laneBand}
}

// LaneBounds returns the band box for one lane inside the pool.
func LaneBounds(g *Graph, lane *Lane) Bounds {
	pool := PoolBounds(g)

	return Bounds{
		X: laneX,
		Y: originY + lane.BandIndex*laneBand,
		W: pool.W - 60,
		H: laneBand,
	}
}
