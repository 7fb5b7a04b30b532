package bpmn

import (
	"encoding/xml"
	"fmt"
)

// BPMN 2.0 namespaces. The generator emits descriptive process definitions,
// never executable ones.
const (
	nsModel = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	nsDI    = "http://www.omg.org/spec/BPMN/20100524/DI"
	nsDD    = "http://www.omg.org/spec/DD/20100524/DI"
	nsDC    = "http://www.omg.org/spec/DD/20100524/DC"

	targetNamespace = "http://leanflow.io/bpmn"

	definitionsID   = "Definitions_1"
	collaborationID = "Collaboration_1"
	participantID   = "Participant_1"
	processID       = "Process_1"
	laneSetID       = "LaneSet_1"
)

type xmlDefinitions struct {
	XMLName         xml.Name         `xml:"definitions"`
	Xmlns           string           `xml:"xmlns,attr"`
	XmlnsBpmndi     string           `xml:"xmlns:bpmndi,attr"`
	XmlnsDi         string           `xml:"xmlns:di,attr"`
	XmlnsDc         string           `xml:"xmlns:dc,attr"`
	ID              string           `xml:"id,attr"`
	TargetNamespace string           `xml:"targetNamespace,attr"`
	Collaboration   xmlCollaboration `xml:"collaboration"`
	Process         xmlProcess       `xml:"process"`
	Diagram         xmlDiagram       `xml:"bpmndi:BPMNDiagram"`
}

type xmlCollaboration struct {
	ID           string           `xml:"id,attr"`
	Participant  xmlParticipant   `xml:"participant"`
	MessageFlows []xmlMessageFlow `xml:"messageFlow"`
}

type xmlParticipant struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name,attr"`
	ProcessRef string `xml:"processRef,attr"`
}

type xmlMessageFlow struct {
	ID        string `xml:"id,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

type xmlProcess struct {
	ID           string `xml:"id,attr"`
	IsExecutable bool   `xml:"isExecutable,attr"`

	LaneSet *xmlLaneSet `xml:"laneSet"`

	StartEvents    []xmlEvent         `xml:"startEvent"`
	EndEvents      []xmlEvent         `xml:"endEvent"`
	UserTasks      []xmlTask          `xml:"userTask"`
	ServiceTasks   []xmlTask          `xml:"serviceTask"`
	Gateways       []xmlGateway       `xml:"exclusiveGateway"`
	ThrowEvents    []xmlMessageEvent  `xml:"intermediateThrowEvent"`
	CatchEvents    []xmlMessageEvent  `xml:"intermediateCatchEvent"`
	BoundaryEvents []xmlBoundaryEvent `xml:"boundaryEvent"`
	SequenceFlows  []xmlSequenceFlow  `xml:"sequenceFlow"`
}

type xmlLaneSet struct {
	ID    string    `xml:"id,attr"`
	Lanes []xmlLane `xml:"lane"`
}

type xmlLane struct {
	ID           string   `xml:"id,attr"`
	Name         string   `xml:"name,attr"`
	FlowNodeRefs []string `xml:"flowNodeRef"`
}

type xmlEvent struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr,omitempty"`
}

type xmlTask struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"name,attr"`
	Documentation string `xml:"documentation,omitempty"`
}

type xmlGateway struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr,omitempty"`
}

type xmlMessageEvent struct {
	ID         string        `xml:"id,attr"`
	Name       string        `xml:"name,attr,omitempty"`
	Definition xmlDefinition `xml:"messageEventDefinition"`
}

type xmlBoundaryEvent struct {
	ID          string        `xml:"id,attr"`
	Name        string        `xml:"name,attr,omitempty"`
	AttachedTo  string        `xml:"attachedToRef,attr"`
	CancelsWork bool          `xml:"cancelActivity,attr"`
	Definition  xmlDefinition `xml:"timerEventDefinition"`
}

type xmlDefinition struct {
	ID string `xml:"id,attr"`
}

type xmlSequenceFlow struct {
	ID        string `xml:"id,attr"`
	Name      string `xml:"name,attr,omitempty"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

type xmlDiagram struct {
	ID    string   `xml:"id,attr"`
	Plane xmlPlane `xml:"bpmndi:BPMNPlane"`
}

type xmlPlane struct {
	ID          string     `xml:"id,attr"`
	BpmnElement string     `xml:"bpmnElement,attr"`
	Shapes      []xmlShape `xml:"bpmndi:BPMNShape"`
	Edges       []xmlEdge  `xml:"bpmndi:BPMNEdge"`
}

type xmlShape struct {
	ID           string    `xml:"id,attr"`
	BpmnElement  string    `xml:"bpmnElement,attr"`
	IsHorizontal *bool     `xml:"isHorizontal,attr,omitempty"`
	Bounds       xmlBounds `xml:"dc:Bounds"`
}

type xmlBounds struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
	W int `xml:"width,attr"`
	H int `xml:"height,attr"`
}

type xmlEdge struct {
	ID          string        `xml:"id,attr"`
	BpmnElement string        `xml:"bpmnElement,attr"`
	Waypoints   []xmlWaypoint `xml:"di:waypoint"`
}

type xmlWaypoint struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
}

// Serialize renders a laid-out graph as a BPMN 2.0 document with diagram
// interchange geometry. Every flow must reference declared nodes; a dangling
// reference aborts serialization, partial XML is never returned.
func Serialize(g *Graph) (string, error) {
	doc := xmlDefinitions{
		Xmlns:           nsModel,
		XmlnsBpmndi:     nsDI,
		XmlnsDi:         nsDD,
		XmlnsDc:         nsDC,
		ID:              definitionsID,
		TargetNamespace: targetNamespace,
		Collaboration: xmlCollaboration{
			ID: collaborationID,
			Participant: xmlParticipant{
				ID:         participantID,
				Name:       g.Pool.Name,
				ProcessRef: processID,
			},
		},
		Process: xmlProcess{ID: processID, IsExecutable: false},
		Diagram: xmlDiagram{
			ID: "BPMNDiagram_1",
			Plane: xmlPlane{
				ID:          "BPMNPlane_1",
				BpmnElement: collaborationID,
			},
		},
	}

	if !g.Pool.Implicit() {
		laneSet := &xmlLaneSet{ID: laneSetID}
		for _, lane := range g.Pool.Lanes {
			laneSet.Lanes = append(laneSet.Lanes, xmlLane{
				ID:           lane.ID,
				Name:         lane.Name,
				FlowNodeRefs: laneFlowNodeRefs(g, lane),
			})
		}

		doc.Process.LaneSet = laneSet
	}

	for _, n := range g.Nodes {
		switch n.Kind {
		case NodeStartEvent:
			doc.Process.StartEvents = append(doc.Process.StartEvents, xmlEvent{ID: n.ID, Name: n.Label})
		case NodeEndEvent:
			doc.Process.EndEvents = append(doc.Process.EndEvents, xmlEvent{ID: n.ID, Name: n.Label})
		case NodeUserTask:
			doc.Process.UserTasks = append(doc.Process.UserTasks, xmlTask{ID: n.ID, Name: n.Label, Documentation: n.Doc})
		case NodeServiceTask:
			doc.Process.ServiceTasks = append(doc.Process.ServiceTasks, xmlTask{ID: n.ID, Name: n.Label, Documentation: n.Doc})
		case NodeExclusiveGateway:
			doc.Process.Gateways = append(doc.Process.Gateways, xmlGateway{ID: n.ID, Name: n.Label})
		case NodeThrowMessage:
			doc.Process.ThrowEvents = append(doc.Process.ThrowEvents, xmlMessageEvent{
				ID: n.ID, Name: n.Label, Definition: xmlDefinition{ID: "MessageEventDefinition_" + n.ID},
			})
		case NodeCatchMessage:
			doc.Process.CatchEvents = append(doc.Process.CatchEvents, xmlMessageEvent{
				ID: n.ID, Name: n.Label, Definition: xmlDefinition{ID: "MessageEventDefinition_" + n.ID},
			})
		case NodeBoundaryTimer:
			doc.Process.BoundaryEvents = append(doc.Process.BoundaryEvents, xmlBoundaryEvent{
				ID: n.ID, Name: n.Label, AttachedTo: n.AttachedTo,
				Definition: xmlDefinition{ID: "TimerEventDefinition_" + n.ID},
			})
		}
	}

	for _, f := range g.Flows {
		if g.Node(f.SourceID) == nil || g.Node(f.TargetID) == nil {
			return "", &DanglingNodeError{NodeID: f.SourceID, Reason: "flow " + f.ID + " references undeclared element"}
		}

		if f.Message {
			doc.Collaboration.MessageFlows = append(doc.Collaboration.MessageFlows, xmlMessageFlow{
				ID: f.ID, SourceRef: f.SourceID, TargetRef: f.TargetID,
			})
		} else {
			doc.Process.SequenceFlows = append(doc.Process.SequenceFlows, xmlSequenceFlow{
				ID: f.ID, Name: f.Label, SourceRef: f.SourceID, TargetRef: f.TargetID,
			})
		}
	}

	buildPlane(g, &doc.Diagram.Plane)

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal bpmn document: %w", err)
	}

	return xml.Header + string(body) + "\n", nil
}

func laneFlowNodeRefs(g *Graph, lane *Lane) []string {
	refs := make([]string, 0, len(lane.ActivityIDs))
	for _, n := range g.Nodes {
		if n.LaneID == lane.ID {
			refs = append(refs, n.ID)
		}
	}

	return refs
}

func buildPlane(g *Graph, plane *xmlPlane) {
	horizontal := true

	pool := PoolBounds(g)
	plane.Shapes = append(plane.Shapes, xmlShape{
		ID:           participantID + "_di",
		BpmnElement:  participantID,
		IsHorizontal: &horizontal,
		Bounds:       xmlBounds{X: pool.X, Y: pool.Y, W: pool.W, H: pool.H},
	})

	if !g.Pool.Implicit() {
		for _, lane := range g.Pool.Lanes {
			b := LaneBounds(g, lane)
			plane.Shapes = append(plane.Shapes, xmlShape{
				ID:           lane.ID + "_di",
				BpmnElement:  lane.ID,
				IsHorizontal: &horizontal,
				Bounds:       xmlBounds{X: b.X, Y: b.Y, W: b.W, H: b.H},
			})
		}
	}

	for _, n := range g.Nodes {
		plane.Shapes = append(plane.Shapes, xmlShape{
			ID:          n.ID + "_di",
			BpmnElement: n.ID,
			Bounds:      xmlBounds{X: n.Bounds.X, Y: n.Bounds.Y, W: n.Bounds.W, H: n.Bounds.H},
		})
	}

	for _, f := range g.Flows {
		plane.Edges = append(plane.Edges, xmlEdge{
			ID:          f.ID + "_di",
			BpmnElement: f.ID,
			Waypoints:   waypoints(g.Node(f.SourceID), g.Node(f.TargetID), f.Message),
		})
	}
}

// waypoints connects box edge centers. Sequence flows leave the source's
// right edge and enter the target's left edge, with a dogleg when the
// vertical gap is large; message flows run bottom center to top center.
func waypoints(source, target *FlowNode, message bool) []xmlWaypoint {
	if message {
		sx := source.Bounds.X + source.Bounds.W/2
		sy := source.Bounds.Y + source.Bounds.H
		tx := target.Bounds.X + target.Bounds.W/2
		ty := target.Bounds.Y

		if sx == tx {
			return []xmlWaypoint{{X: sx, Y: sy}, {X: tx, Y: ty}}
		}

		midY := (sy + ty) / 2

		return []xmlWaypoint{{X: sx, Y: sy}, {X: sx, Y: midY}, {X: tx, Y: midY}, {X: tx, Y: ty}}
	}

	sx := source.Bounds.X + source.Bounds.W
	sy := source.Bounds.Y + source.Bounds.H/2
	tx := target.Bounds.X
	ty := target.Bounds.Y + target.Bounds.H/2

	points := []xmlWaypoint{{X: sx, Y: sy}}

	if abs(sy-ty) > 60 {
		midX := (sx + tx) / 2
		points = append(points, xmlWaypoint{X: midX, Y: sy}, xmlWaypoint{X: midX, Y: ty})
	}

	return append(points, xmlWaypoint{X: tx, Y: ty})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
