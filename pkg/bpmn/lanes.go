package bpmn

import (
	"fmt"

	"github.com/leanflow/leanflow/pkg/models"
)

// Lane labels follow the Spanish-facing source tables.
const (
	UnassignedLaneName = "Sin asignar"
	SystemLaneName     = "Sistema"
	manualLaneName     = "Manual"
	automatedLaneName  = "Automatizado"
)

// Lane is a horizontal band grouping activities that share a discriminator
// value. Activity order inside a lane is a subsequence of the global order.
type Lane struct {
	ID          string
	Name        string
	BandIndex   int
	ActivityIDs []string
}

// Pool is the outermost container. A single pool per diagram; cross-pool
// collaborations are out of scope.
type Pool struct {
	Name          string
	Discriminator LaneDiscriminator
	Lanes         []*Lane
}

// Implicit reports whether the pool holds only the single lane implied by a
// sequential diagram. Implicit lanes are not serialized as a laneSet.
func (p *Pool) Implicit() bool {
	return p.Discriminator == DiscriminatorNone
}

// LaneOf returns the lane containing the given activity id, or nil.
func (p *Pool) LaneOf(activityID string) *Lane {
	for _, lane := range p.Lanes {
		for _, id := range lane.ActivityIDs {
			if id == activityID {
				return lane
			}
		}
	}

	return nil
}

// AssignLanes partitions activities into lanes by the discriminator value,
// scanning in sequence order. Band order is first-seen order of the value,
// not alphabetical, so lanes read top to bottom in the order roles enter the
// process. Activities with an empty value land in a trailing "Sin asignar"
// lane, except automated ones, which get the system lane instead of an empty
// responsible.
func AssignLanes(poolName string, activities []*models.Activity, discriminator LaneDiscriminator) *Pool {
	sorted := models.SortActivities(activities)
	pool := &Pool{Name: poolName, Discriminator: discriminator}

	byName := make(map[string]*Lane)
	order := make([]string, 0, len(sorted))

	for _, a := range sorted {
		name := laneValue(a, poolName, discriminator)

		lane, ok := byName[name]
		if !ok {
			lane = &Lane{Name: name}
			byName[name] = lane
			order = append(order, name)
		}

		lane.ActivityIDs = append(lane.ActivityIDs, a.ID)
	}

	// The unassigned lane always sinks to the bottom band.
	if _, ok := byName[UnassignedLaneName]; ok {
		kept := make([]string, 0, len(order))
		for _, name := range order {
			if name != UnassignedLaneName {
				kept = append(kept, name)
			}
		}

		order = append(kept, UnassignedLaneName)
	}

	for i, name := range order {
		lane := byName[name]
		lane.ID = fmt.Sprintf("Lane_%d", i+1)
		lane.BandIndex = i
		pool.Lanes = append(pool.Lanes, lane)
	}

	return pool
}

func laneValue(a *models.Activity, poolName string, discriminator LaneDiscriminator) string {
	switch discriminator {
	case DiscriminatorAutomation:
		if a.Automated {
			return automatedLaneName
		}

		return manualLaneName
	case DiscriminatorResponsible:
		if a.Responsible != "" {
			return a.Responsible
		}

		if a.Automated {
			return SystemLaneName
		}

		return UnassignedLaneName
	default:
		return poolName
	}
}
