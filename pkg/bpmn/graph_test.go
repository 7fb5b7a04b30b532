package bpmn_test

import (
	"testing"

	"github.com/leanflow/leanflow/pkg/bpmn"
	"github.com/leanflow/leanflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, activities []*models.Activity, diagramType models.DiagramType) *bpmn.Graph {
	t.Helper()

	cfg, err := bpmn.SelectMode(diagramType, activities)
	require.NoError(t, err)

	pool := bpmn.AssignLanes("Proceso", activities, cfg.Discriminator)

	graph, err := bpmn.Build(pool, activities, cfg)
	require.NoError(t, err)

	return graph
}

func countKind(g *bpmn.Graph, kind bpmn.NodeKind) int {
	count := 0
	for _, n := range g.Nodes {
		if n.Kind == kind {
			count++
		}
	}

	return count
}

func TestBuild_SequentialChain(t *testing.T) {
	t.Parallel()

	graph := buildGraph(t, sampleActivities(), models.DiagramTypeSequential)

	assert.Equal(t, 1, countKind(graph, bpmn.NodeStartEvent))
	assert.Equal(t, 1, countKind(graph, bpmn.NodeEndEvent))
	assert.Equal(t, 1, countKind(graph, bpmn.NodeUserTask))
	assert.Equal(t, 1, countKind(graph, bpmn.NodeServiceTask))
	assert.Len(t, graph.Flows, 3) // start->t1, t1->t2, t2->end

	for _, f := range graph.Flows {
		assert.False(t, f.Message)
	}
}

func TestBuild_MessageHandoffBetweenLanes(t *testing.T) {
	t.Parallel()

	graph := buildGraph(t, sampleActivities(), models.DiagramTypePoolsByResponsible)

	assert.Equal(t, 1, countKind(graph, bpmn.NodeThrowMessage))
	assert.Equal(t, 1, countKind(graph, bpmn.NodeCatchMessage))

	var messageFlows []*bpmn.Flow
	for _, f := range graph.Flows {
		if f.Message {
			messageFlows = append(messageFlows, f)
		}
	}

	require.Len(t, messageFlows, 1)

	throw := graph.Node(messageFlows[0].SourceID)
	catch := graph.Node(messageFlows[0].TargetID)
	require.NotNil(t, throw)
	require.NotNil(t, catch)
	assert.Equal(t, bpmn.NodeThrowMessage, throw.Kind)
	assert.Equal(t, bpmn.NodeCatchMessage, catch.Kind)
	assert.NotEqual(t, throw.LaneID, catch.LaneID, "message flow must cross lanes")
}

func TestBuild_NoHandoffWithinSameLane(t *testing.T) {
	t.Parallel()

	activities := []*models.Activity{
		{ID: "a", SequenceIndex: 0, Name: "A", Responsible: "Agente"},
		{ID: "b", SequenceIndex: 1, Name: "B", Responsible: "Agente"},
	}

	graph := buildGraph(t, activities, models.DiagramTypePoolsByResponsible)

	assert.Zero(t, countKind(graph, bpmn.NodeThrowMessage))
	assert.Zero(t, countKind(graph, bpmn.NodeCatchMessage))
}

func TestBuild_GatewayPair(t *testing.T) {
	t.Parallel()

	activities := []*models.Activity{
		{ID: "a", SequenceIndex: 0, Name: "Revisar", Responsible: "Agente", Decision: &models.Decision{
			Question: "¿Documentos completos?",
			Branches: []string{"Sí", "No"},
		}},
		{ID: "b", SequenceIndex: 1, Name: "Aprobar", Responsible: "Agente"},
	}

	graph := buildGraph(t, activities, models.DiagramTypeComplete)

	require.Equal(t, 2, countKind(graph, bpmn.NodeExclusiveGateway))

	split := graph.Node("Gateway_0_split")
	join := graph.Node("Gateway_0_join")
	require.NotNil(t, split)
	require.NotNil(t, join)
	assert.Equal(t, "¿Documentos completos?", split.Label)

	branchLabels := map[string]bool{}
	for _, f := range graph.Flows {
		if f.SourceID == split.ID {
			assert.Equal(t, join.ID, f.TargetID, "every branch must re-converge at the join")
			branchLabels[f.Label] = true
		}
	}

	assert.True(t, branchLabels["Sí"])
	assert.True(t, branchLabels["No"])
}

func TestBuild_UnbalancedGateway(t *testing.T) {
	t.Parallel()

	activities := []*models.Activity{
		{ID: "a", SequenceIndex: 0, Name: "Revisar", Decision: &models.Decision{
			Question: "¿Completo?",
			Branches: []string{"Sí"},
		}},
	}

	cfg, err := bpmn.SelectMode(models.DiagramTypeComplete, activities)
	require.NoError(t, err)

	pool := bpmn.AssignLanes("Proceso", activities, cfg.Discriminator)

	_, err = bpmn.Build(pool, activities, cfg)
	require.ErrorIs(t, err, bpmn.ErrUnbalancedGateway)
}

func TestBuild_BoundaryTimerPastThreshold(t *testing.T) {
	t.Parallel()

	activities := []*models.Activity{
		{ID: "a", SequenceIndex: 0, Name: "Tramitar", Responsible: "Agente", DurationMinutes: 240},
		{ID: "b", SequenceIndex: 1, Name: "Cerrar", Responsible: "Agente", DurationMinutes: 5},
	}

	graph := buildGraph(t, activities, models.DiagramTypeComplete)

	require.Equal(t, 1, countKind(graph, bpmn.NodeBoundaryTimer))

	timer := graph.Node("BoundaryTimer_0")
	require.NotNil(t, timer)
	assert.Equal(t, "Activity_0", timer.AttachedTo)

	// Boundary events annotate their task; they never join the flow chain.
	for _, f := range graph.Flows {
		assert.NotEqual(t, timer.ID, f.SourceID)
		assert.NotEqual(t, timer.ID, f.TargetID)
	}
}

func TestBuild_DeterministicIDs(t *testing.T) {
	t.Parallel()

	first := buildGraph(t, sampleActivities(), models.DiagramTypePoolsByResponsible)
	second := buildGraph(t, sampleActivities(), models.DiagramTypePoolsByResponsible)

	require.Len(t, second.Nodes, len(first.Nodes))
	for i, n := range first.Nodes {
		assert.Equal(t, n.ID, second.Nodes[i].ID)
	}

	require.Len(t, second.Flows, len(first.Flows))
	for i, f := range first.Flows {
		assert.Equal(t, f.ID, second.Flows[i].ID)
		assert.Equal(t, f.SourceID, second.Flows[i].SourceID)
		assert.Equal(t, f.TargetID, second.Flows[i].TargetID)
	}
}

func TestBuild_EmptyActivities(t *testing.T) {
	t.Parallel()

	pool := bpmn.AssignLanes("Proceso", nil, bpmn.DiscriminatorNone)

	_, err := bpmn.Build(pool, nil, bpmn.PipelineConfig{})
	require.ErrorIs(t, err, bpmn.ErrEmptyProcess)
}
