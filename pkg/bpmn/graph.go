package bpmn

import (
	"fmt"

	"github.com/leanflow/leanflow/pkg/models"
)

// NodeKind is the BPMN element name of a flow node. Values double as the XML
// element local names.
type NodeKind string

const (
	NodeStartEvent       NodeKind = "startEvent"
	NodeEndEvent         NodeKind = "endEvent"
	NodeUserTask         NodeKind = "userTask"
	NodeServiceTask      NodeKind = "serviceTask"
	NodeExclusiveGateway NodeKind = "exclusiveGateway"
	NodeBoundaryTimer    NodeKind = "boundaryEvent"
	NodeThrowMessage     NodeKind = "intermediateThrowEvent"
	NodeCatchMessage     NodeKind = "intermediateCatchEvent"
)

// Fixed element ids for the chain endpoints.
const (
	startEventID = "StartEvent_1"
	endEventID   = "EndEvent_1"
)

// Event labels, matching the source system's Spanish diagrams.
const (
	startEventLabel = "Inicio"
	endEventLabel   = "Fin"
)

type gatewayRole int

const (
	gatewayNone gatewayRole = iota
	gatewayDiverge
	gatewayConverge
)

// Bounds is an axis-aligned box; zero until the layout engine runs.
type Bounds struct {
	X, Y, W, H int
}

// FlowNode is one vertex of the abstract BPMN graph.
type FlowNode struct {
	ID         string
	Kind       NodeKind
	Label      string
	LaneID     string
	AttachedTo string // owning task id, boundary events only
	Doc        string // documentation element body
	Role       gatewayRole
	Bounds     Bounds
}

// Flow is a directed edge. Message flows cross lanes; sequence flows form the
// main chain.
type Flow struct {
	ID       string
	SourceID string
	TargetID string
	Label    string
	Message  bool
}

// Graph is the builder output consumed by layout and serialization.
type Graph struct {
	Pool  *Pool
	Nodes []*FlowNode
	Flows []*Flow

	index map[string]*FlowNode
}

// Node returns the flow node with the given id, or nil.
func (g *Graph) Node(id string) *FlowNode {
	return g.index[id]
}

func (g *Graph) addNode(n *FlowNode) *FlowNode {
	g.Nodes = append(g.Nodes, n)
	g.index[n.ID] = n

	return n
}

// builder carries the flow counters so edge ids stay a deterministic function
// of build order.
type builder struct {
	graph     *Graph
	cfg       PipelineConfig
	seqCount  int
	msgCount  int
	laneByAct map[string]string
}

// Build walks activities in sequence order and produces the element graph:
// start event, one task per activity (service task when automated), matched
// gateway pairs for decision activities, timer boundary events past the
// long-running threshold, throw/catch message pairs on lane handoffs, end
// event. The result always satisfies the single-chain reachability invariant;
// Build verifies it before returning.
func Build(pool *Pool, activities []*models.Activity, cfg PipelineConfig) (*Graph, error) {
	if len(activities) == 0 {
		return nil, ErrEmptyProcess
	}

	sorted := models.SortActivities(activities)

	b := &builder{
		graph:     &Graph{Pool: pool, index: make(map[string]*FlowNode)},
		cfg:       cfg,
		laneByAct: make(map[string]string, len(sorted)),
	}

	for _, lane := range pool.Lanes {
		for _, id := range lane.ActivityIDs {
			b.laneByAct[id] = lane.ID
		}
	}

	start := b.graph.addNode(&FlowNode{
		ID:     startEventID,
		Kind:   NodeStartEvent,
		Label:  startEventLabel,
		LaneID: b.laneByAct[sorted[0].ID],
	})

	prev := start

	for i, a := range sorted {
		task := b.taskNode(a)

		if cfg.UseMessageFlows && i > 0 && b.laneByAct[a.ID] != b.laneByAct[sorted[i-1].ID] {
			b.handoff(prev, task, sorted[i-1], a)
		} else {
			b.sequence(prev, task, "")
		}

		if cfg.InsertBoundaryTimers && a.DurationMinutes > cfg.LongRunningThresholdMin {
			b.boundaryTimer(a, task)
		}

		prev = task

		if cfg.InsertGateways && a.Decision != nil {
			join, err := b.gatewayPair(a, task)
			if err != nil {
				return nil, err
			}

			prev = join
		}
	}

	end := b.graph.addNode(&FlowNode{
		ID:     endEventID,
		Kind:   NodeEndEvent,
		Label:  endEventLabel,
		LaneID: b.laneByAct[sorted[len(sorted)-1].ID],
	})
	b.sequence(prev, end, "")

	if err := verify(b.graph); err != nil {
		return nil, err
	}

	return b.graph, nil
}

func (b *builder) taskNode(a *models.Activity) *FlowNode {
	kind := NodeUserTask
	if a.Automated {
		kind = NodeServiceTask
	}

	return b.graph.addNode(&FlowNode{
		ID:     taskID(a.SequenceIndex),
		Kind:   kind,
		Label:  taskLabel(a, b.cfg.ShowTimes),
		LaneID: b.laneByAct[a.ID],
		Doc:    taskDocumentation(a, b.cfg.ShowTimes),
	})
}

// handoff replaces the direct sequence flow between tasks in different lanes
// with a throw/catch message pair, keeping the chain connected through
// ordinary sequence flows on both sides.
func (b *builder) handoff(prev, task *FlowNode, from, to *models.Activity) {
	throw := b.graph.addNode(&FlowNode{
		ID:     fmt.Sprintf("MessageThrow_%d", from.SequenceIndex),
		Kind:   NodeThrowMessage,
		Label:  "Entregar a " + laneName(b.graph.Pool, b.laneByAct[to.ID]),
		LaneID: b.laneByAct[from.ID],
	})
	catch := b.graph.addNode(&FlowNode{
		ID:     fmt.Sprintf("MessageCatch_%d", to.SequenceIndex),
		Kind:   NodeCatchMessage,
		Label:  "Recibir de " + laneName(b.graph.Pool, b.laneByAct[from.ID]),
		LaneID: b.laneByAct[to.ID],
	})

	b.sequence(prev, throw, "")
	b.message(throw, catch)
	b.sequence(catch, task, "")
}

func (b *builder) boundaryTimer(a *models.Activity, task *FlowNode) {
	b.graph.addNode(&FlowNode{
		ID:         fmt.Sprintf("BoundaryTimer_%d", a.SequenceIndex),
		Kind:       NodeBoundaryTimer,
		Label:      fmt.Sprintf("%.0f min", a.DurationMinutes),
		LaneID:     b.laneByAct[a.ID],
		AttachedTo: task.ID,
	})
}

// gatewayPair inserts a diverge/converge pair after the task. Branches run
// diverge to converge directly, labeled from the decision metadata; gateways
// always come matched, an unmatched one is a build error.
func (b *builder) gatewayPair(a *models.Activity, task *FlowNode) (*FlowNode, error) {
	if len(a.Decision.Branches) < 2 {
		return nil, fmt.Errorf("%w: decision on activity %s has %d branch(es), need at least 2",
			ErrUnbalancedGateway, a.ID, len(a.Decision.Branches))
	}

	diverge := b.graph.addNode(&FlowNode{
		ID:     fmt.Sprintf("Gateway_%d_split", a.SequenceIndex),
		Kind:   NodeExclusiveGateway,
		Label:  a.Decision.Question,
		LaneID: b.laneByAct[a.ID],
		Role:   gatewayDiverge,
	})
	converge := b.graph.addNode(&FlowNode{
		ID:     fmt.Sprintf("Gateway_%d_join", a.SequenceIndex),
		Kind:   NodeExclusiveGateway,
		LaneID: b.laneByAct[a.ID],
		Role:   gatewayConverge,
	})

	b.sequence(task, diverge, "")

	for _, branch := range a.Decision.Branches {
		b.sequence(diverge, converge, branch)
	}

	return converge, nil
}

func (b *builder) sequence(from, to *FlowNode, label string) {
	b.seqCount++
	b.graph.Flows = append(b.graph.Flows, &Flow{
		ID:       fmt.Sprintf("Flow_%d", b.seqCount),
		SourceID: from.ID,
		TargetID: to.ID,
		Label:    label,
	})
}

func (b *builder) message(from, to *FlowNode) {
	b.msgCount++
	b.graph.Flows = append(b.graph.Flows, &Flow{
		ID:       fmt.Sprintf("MessageFlow_%d", b.msgCount),
		SourceID: from.ID,
		TargetID: to.ID,
		Message:  true,
	})
}

func taskID(sequenceIndex int) string {
	return fmt.Sprintf("Activity_%d", sequenceIndex)
}

func laneName(pool *Pool, laneID string) string {
	for _, lane := range pool.Lanes {
		if lane.ID == laneID {
			return lane.Name
		}
	}

	return laneID
}

// verify enforces the connectivity and gateway-balance invariants on the
// finished graph. A failure here is a builder defect, not a user error.
func verify(g *Graph) error {
	if len(g.Nodes) == 0 {
		return ErrEmptyGraph
	}

	indegree := make(map[string]int, len(g.Nodes))
	outdegree := make(map[string]int, len(g.Nodes))
	adjacency := make(map[string][]string, len(g.Nodes))

	for _, f := range g.Flows {
		if g.Node(f.SourceID) == nil {
			return &DanglingNodeError{NodeID: f.SourceID, Reason: "flow " + f.ID + " references undeclared source"}
		}

		if g.Node(f.TargetID) == nil {
			return &DanglingNodeError{NodeID: f.TargetID, Reason: "flow " + f.ID + " references undeclared target"}
		}

		outdegree[f.SourceID]++
		indegree[f.TargetID]++
		adjacency[f.SourceID] = append(adjacency[f.SourceID], f.TargetID)
	}

	for _, n := range g.Nodes {
		// Boundary events are attached annotations, not chain members.
		if n.Kind == NodeBoundaryTimer {
			if g.Node(n.AttachedTo) == nil {
				return &DanglingNodeError{NodeID: n.ID, Reason: "boundary event attached to undeclared task"}
			}

			continue
		}

		if n.Kind != NodeStartEvent && indegree[n.ID] == 0 {
			return &DanglingNodeError{NodeID: n.ID, Reason: "no incoming flow"}
		}

		if n.Kind != NodeEndEvent && outdegree[n.ID] == 0 {
			return &DanglingNodeError{NodeID: n.ID, Reason: "no outgoing flow"}
		}

		if n.Kind == NodeStartEvent && indegree[n.ID] > 0 {
			return &DanglingNodeError{NodeID: n.ID, Reason: "start event has incoming flow"}
		}

		if n.Role == gatewayDiverge {
			if err := verifyGatewayPair(g, n, adjacency); err != nil {
				return err
			}
		}
	}

	return verifyReachability(g, adjacency)
}

// verifyGatewayPair checks that every outgoing branch of a diverging gateway
// re-converges at one single converging gateway.
func verifyGatewayPair(g *Graph, diverge *FlowNode, adjacency map[string][]string) error {
	targets := adjacency[diverge.ID]
	if len(targets) < 2 {
		return fmt.Errorf("%w: diverging gateway %s has %d branch(es)", ErrUnbalancedGateway, diverge.ID, len(targets))
	}

	converge := targets[0]
	for _, t := range targets[1:] {
		if t != converge {
			return fmt.Errorf("%w: branches of %s do not re-converge", ErrUnbalancedGateway, diverge.ID)
		}
	}

	if n := g.Node(converge); n == nil || n.Role != gatewayConverge {
		return fmt.Errorf("%w: diverging gateway %s has no matching converge", ErrUnbalancedGateway, diverge.ID)
	}

	return nil
}

func verifyReachability(g *Graph, adjacency map[string][]string) error {
	seen := map[string]bool{startEventID: true}
	queue := []string{startEventID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, next := range adjacency[id] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, n := range g.Nodes {
		if n.Kind == NodeBoundaryTimer {
			continue
		}

		if !seen[n.ID] {
			return &DanglingNodeError{NodeID: n.ID, Reason: "unreachable from start event"}
		}
	}

	return nil
}
