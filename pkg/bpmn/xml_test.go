package bpmn_test

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/leanflow/leanflow/pkg/bpmn"
	"github.com/leanflow/leanflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parsedDefinitions mirrors the emitted document closely enough to check
// structure and cross-references.
type parsedDefinitions struct {
	XMLName       xml.Name `xml:"definitions"`
	Collaboration struct {
		ID          string `xml:"id,attr"`
		Participant struct {
			ID         string `xml:"id,attr"`
			Name       string `xml:"name,attr"`
			ProcessRef string `xml:"processRef,attr"`
		} `xml:"participant"`
		MessageFlows []parsedFlow `xml:"messageFlow"`
	} `xml:"collaboration"`
	Process struct {
		ID           string `xml:"id,attr"`
		IsExecutable string `xml:"isExecutable,attr"`
		LaneSet      *struct {
			Lanes []struct {
				ID           string   `xml:"id,attr"`
				Name         string   `xml:"name,attr"`
				FlowNodeRefs []string `xml:"flowNodeRef"`
			} `xml:"lane"`
		} `xml:"laneSet"`
		StartEvents   []parsedNode `xml:"startEvent"`
		EndEvents     []parsedNode `xml:"endEvent"`
		UserTasks     []parsedNode `xml:"userTask"`
		ServiceTasks  []parsedNode `xml:"serviceTask"`
		Gateways      []parsedNode `xml:"exclusiveGateway"`
		ThrowEvents   []parsedNode `xml:"intermediateThrowEvent"`
		CatchEvents   []parsedNode `xml:"intermediateCatchEvent"`
		Boundary      []parsedNode `xml:"boundaryEvent"`
		SequenceFlows []parsedFlow `xml:"sequenceFlow"`
	} `xml:"process"`
	Diagram struct {
		Plane struct {
			BpmnElement string `xml:"bpmnElement,attr"`
			Shapes      []struct {
				ID          string `xml:"id,attr"`
				BpmnElement string `xml:"bpmnElement,attr"`
			} `xml:"BPMNShape"`
			Edges []struct {
				BpmnElement string `xml:"bpmnElement,attr"`
				Waypoints   []struct {
					X int `xml:"x,attr"`
					Y int `xml:"y,attr"`
				} `xml:"waypoint"`
			} `xml:"BPMNEdge"`
		} `xml:"BPMNPlane"`
	} `xml:"BPMNDiagram"`
}

type parsedNode struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type parsedFlow struct {
	ID        string `xml:"id,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

func serializeDocument(t *testing.T, activities []*models.Activity, diagramType models.DiagramType) (string, parsedDefinitions) {
	t.Helper()

	graph := layoutGraph(t, activities, diagramType)

	text, err := bpmn.Serialize(graph)
	require.NoError(t, err)

	var doc parsedDefinitions
	require.NoError(t, xml.Unmarshal([]byte(text), &doc), "output must be well-formed XML")

	return text, doc
}

func TestSerialize_DocumentSkeleton(t *testing.T) {
	t.Parallel()

	text, doc := serializeDocument(t, sampleActivities(), models.DiagramTypePoolsByResponsible)

	assert.True(t, strings.HasPrefix(text, xml.Header))
	assert.Contains(t, text, `xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL"`)
	assert.Contains(t, text, `xmlns:bpmndi="http://www.omg.org/spec/BPMN/20100524/DI"`)
	assert.Contains(t, text, `xmlns:dc="http://www.omg.org/spec/DD/20100524/DC"`)

	assert.Equal(t, "false", doc.Process.IsExecutable)
	assert.Equal(t, doc.Process.ID, doc.Collaboration.Participant.ProcessRef)
	assert.Equal(t, doc.Collaboration.ID, doc.Diagram.Plane.BpmnElement)
	assert.Equal(t, "Proceso", doc.Collaboration.Participant.Name)
}

func TestSerialize_NoDanglingReferences(t *testing.T) {
	t.Parallel()

	_, doc := serializeDocument(t, denseProcess(), models.DiagramTypeComplete)

	declared := map[string]bool{}
	collect := func(nodes []parsedNode) {
		for _, n := range nodes {
			declared[n.ID] = true
		}
	}

	collect(doc.Process.StartEvents)
	collect(doc.Process.EndEvents)
	collect(doc.Process.UserTasks)
	collect(doc.Process.ServiceTasks)
	collect(doc.Process.Gateways)
	collect(doc.Process.ThrowEvents)
	collect(doc.Process.CatchEvents)
	collect(doc.Process.Boundary)

	for _, f := range doc.Process.SequenceFlows {
		assert.True(t, declared[f.SourceRef], "sequence flow %s has undeclared source %s", f.ID, f.SourceRef)
		assert.True(t, declared[f.TargetRef], "sequence flow %s has undeclared target %s", f.ID, f.TargetRef)
	}

	for _, f := range doc.Collaboration.MessageFlows {
		assert.True(t, declared[f.SourceRef], "message flow %s has undeclared source %s", f.ID, f.SourceRef)
		assert.True(t, declared[f.TargetRef], "message flow %s has undeclared target %s", f.ID, f.TargetRef)
	}

	// Every declared element and flow has exactly one DI mirror.
	shapeFor := map[string]int{}
	for _, s := range doc.Diagram.Plane.Shapes {
		shapeFor[s.BpmnElement]++
	}

	for id := range declared {
		assert.Equal(t, 1, shapeFor[id], "element %s needs exactly one BPMNShape", id)
	}

	edgeCount := len(doc.Process.SequenceFlows) + len(doc.Collaboration.MessageFlows)
	assert.Len(t, doc.Diagram.Plane.Edges, edgeCount)

	for _, e := range doc.Diagram.Plane.Edges {
		assert.GreaterOrEqual(t, len(e.Waypoints), 2, "edge %s needs at least two waypoints", e.BpmnElement)
	}
}

func TestSerialize_LaneSetPartition(t *testing.T) {
	t.Parallel()

	_, doc := serializeDocument(t, denseProcess(), models.DiagramTypePoolsByResponsible)

	require.NotNil(t, doc.Process.LaneSet)
	require.Len(t, doc.Process.LaneSet.Lanes, 3)

	taskRefs := map[string]int{}
	for _, lane := range doc.Process.LaneSet.Lanes {
		for _, ref := range lane.FlowNodeRefs {
			if strings.HasPrefix(ref, "Activity_") {
				taskRefs[ref]++
			}
		}
	}

	require.Len(t, taskRefs, 4)
	for id, count := range taskRefs {
		assert.Equal(t, 1, count, "task %s must appear in exactly one lane", id)
	}
}

func TestSerialize_SequentialOmitsLaneSet(t *testing.T) {
	t.Parallel()

	_, doc := serializeDocument(t, sampleActivities(), models.DiagramTypeSequential)

	assert.Nil(t, doc.Process.LaneSet)
}

func TestSerialize_DanglingFlowAborts(t *testing.T) {
	t.Parallel()

	graph := layoutGraph(t, sampleActivities(), models.DiagramTypeSequential)
	graph.Flows = append(graph.Flows, &bpmn.Flow{ID: "Flow_99", SourceID: "Activity_0", TargetID: "Ghost_1"})

	text, err := bpmn.Serialize(graph)

	var dangling *bpmn.DanglingNodeError
	require.ErrorAs(t, err, &dangling)
	assert.Empty(t, text, "no partial XML on serialization failure")
}

func TestSerialize_EscapesLabels(t *testing.T) {
	t.Parallel()

	activities := []*models.Activity{
		{ID: "a", SequenceIndex: 0, Name: `Revisar <contrato> & "anexos"`},
	}

	text, doc := serializeDocument(t, activities, models.DiagramTypeSequential)

	require.Len(t, doc.Process.UserTasks, 1)
	assert.Contains(t, doc.Process.UserTasks[0].Name, "<contrato>")
	assert.NotContains(t, text, `name="Revisar <contrato>`)
}
