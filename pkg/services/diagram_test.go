package services_test

import (
	"testing"

	"github.com/leanflow/leanflow/pkg/bpmn"
	"github.com/leanflow/leanflow/pkg/mocks"
	"github.com/leanflow/leanflow/pkg/models"
	"github.com/leanflow/leanflow/pkg/persistence/file"
	"github.com/leanflow/leanflow/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newDiagramServices(t *testing.T) (*services.Process, *services.Diagram, *mocks.MockEventBus) {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	tracer := noop.NewTracerProvider().Tracer("test")

	return services.NewProcess(store, bus), services.NewDiagram(store, bus, tracer), bus
}

func createClaimsProcess(t *testing.T, processes *services.Process) *models.Process {
	t.Helper()

	created, err := processes.Create(t.Context(), claimsProcess())
	require.NoError(t, err)

	return created
}

func TestDiagramService_Generate(t *testing.T) {
	t.Parallel()

	processes, diagrams, _ := newDiagramServices(t)
	created := createClaimsProcess(t, processes)

	process, err := diagrams.Generate(t.Context(), created.ID, services.GenerateDiagramRequest{
		DiagramType: models.DiagramTypePoolsByResponsible,
	})
	require.NoError(t, err)

	require.NotNil(t, process.Diagram)
	assert.Equal(t, models.DiagramTypePoolsByResponsible, process.Diagram.Type)
	assert.True(t, process.Diagram.UseLanes)
	assert.Contains(t, process.Diagram.XML, "<definitions")
	assert.False(t, process.Diagram.GeneratedAt.IsZero())

	// The record survives a reload.
	loaded, err := processes.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Diagram)
	assert.Equal(t, process.Diagram.XML, loaded.Diagram.XML)
}

func TestDiagramService_GenerateInvalidType(t *testing.T) {
	t.Parallel()

	processes, diagrams, _ := newDiagramServices(t)
	created := createClaimsProcess(t, processes)

	_, err := diagrams.Generate(t.Context(), created.ID, services.GenerateDiagramRequest{
		DiagramType: "mapa_mental",
	})
	require.ErrorIs(t, err, bpmn.ErrInvalidDiagramType)

	// A failed generation must not store anything.
	_, err = diagrams.FetchDiagram(t.Context(), created.ID)
	require.ErrorIs(t, err, services.ErrNoDiagram)
}

func TestDiagramService_GenerateUnknownProcess(t *testing.T) {
	t.Parallel()

	_, diagrams, _ := newDiagramServices(t)

	_, err := diagrams.Generate(t.Context(), "missing", services.GenerateDiagramRequest{
		DiagramType: models.DiagramTypeComplete,
	})
	require.ErrorIs(t, err, services.ErrProcessNotFound)
}

func TestDiagramService_RegenerateCarriesConfiguration(t *testing.T) {
	t.Parallel()

	processes, diagrams, _ := newDiagramServices(t)
	created := createClaimsProcess(t, processes)

	generated, err := diagrams.Generate(t.Context(), created.ID, services.GenerateDiagramRequest{
		DiagramType: models.DiagramTypePoolsByResponsible,
	})
	require.NoError(t, err)

	edited := make([]*models.Activity, len(generated.Activities))
	for i, activity := range generated.Activities {
		edited[i] = activity.Clone()
	}

	edited[0].Name = "Recibir reclamo formal"

	regenerated, err := diagrams.Regenerate(t.Context(), created.ID, edited)
	require.NoError(t, err)

	assert.Equal(t, models.DiagramTypePoolsByResponsible, regenerated.Diagram.Type, "diagram type carries over")
	assert.NotEqual(t, generated.Diagram.XML, regenerated.Diagram.XML)
	assert.Contains(t, regenerated.Diagram.XML, "Recibir reclamo formal")
}

func TestDiagramService_RegenerateRejectsInvalidEdit(t *testing.T) {
	t.Parallel()

	processes, diagrams, _ := newDiagramServices(t)
	created := createClaimsProcess(t, processes)

	generated, err := diagrams.Generate(t.Context(), created.ID, services.GenerateDiagramRequest{
		DiagramType: models.DiagramTypeSequential,
	})
	require.NoError(t, err)

	duplicate := generated.Activities[0].ID
	edited := []*models.Activity{
		{ID: duplicate, SequenceIndex: 0, Name: "Recibir reclamo"},
		{ID: duplicate, SequenceIndex: 1, Name: "Registrar reclamo"},
	}

	_, err = diagrams.Regenerate(t.Context(), created.ID, edited)

	var invalid *bpmn.InvalidActivitiesError
	require.ErrorAs(t, err, &invalid)

	// The stored table and diagram stay as they were before the bad edit.
	loaded, err := processes.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, generated.Diagram.XML, loaded.Diagram.XML)
	require.Len(t, loaded.Activities, 2)
	assert.NotEqual(t, loaded.Activities[0].ID, loaded.Activities[1].ID)
}

func TestDiagramService_RegenerateWithoutDiagram(t *testing.T) {
	t.Parallel()

	processes, diagrams, _ := newDiagramServices(t)
	created := createClaimsProcess(t, processes)

	_, err := diagrams.Regenerate(t.Context(), created.ID, created.Activities)
	require.ErrorIs(t, err, services.ErrNoDiagram)
}

func TestDiagramService_FetchDiagram(t *testing.T) {
	t.Parallel()

	processes, diagrams, _ := newDiagramServices(t)
	created := createClaimsProcess(t, processes)

	_, err := diagrams.FetchDiagram(t.Context(), created.ID)
	require.ErrorIs(t, err, services.ErrNoDiagram)

	_, err = diagrams.Generate(t.Context(), created.ID, services.GenerateDiagramRequest{
		DiagramType: models.DiagramTypeComplete,
	})
	require.NoError(t, err)

	record, err := diagrams.FetchDiagram(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DiagramTypeComplete, record.Type)
}
