//go:build unit || !integration

package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"github.com/reservoir-project/reservoir/pkg/models"
)

type ManagerSuite struct {
	suite.Suite
	clock   *clock.Mock
	manager *Manager
	ctx     context.Context
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.manager = NewManager(ManagerParams{Clock: s.clock})
	s.ctx = context.Background()
}

func (s *ManagerSuite) addResource(name string, resourceType models.ResourceType, maximum float64) *models.Resource {
	resource := models.NewResource(name, resourceType, maximum, "units")
	s.manager.RegisterResource(resource)
	return resource
}

func (s *ManagerSuite) computeRequirement(amount float64) *models.Requirement {
	return &models.Requirement{Type: models.ResourceTypeCompute, Amount: amount, Unit: "units"}
}

func (s *ManagerSuite) TestRegisterAndUnregister() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 10)

	got, ok := s.manager.GetResource(resource.ID)
	s.Require().True(ok)
	s.Require().Equal(resource, got)
	s.Require().Equal(1, s.manager.ResourceCount(models.ResourceTypeCompute))

	s.Require().True(s.manager.UnregisterResource(resource.ID))
	s.Require().False(s.manager.UnregisterResource(resource.ID))
	s.Require().Equal(0, s.manager.ResourceCount(models.ResourceTypeCompute))
}

func (s *ManagerSuite) TestFullLifecycle() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 100)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(40)}, StrategyGreedy, time.Minute)
	s.Require().Equal(StatusPending, r.Status)
	s.Require().Len(r.AllocatedResources, 1)
	s.Require().Equal(40.0, resource.Capacity.Current)

	s.Require().True(s.manager.Confirm(s.ctx, r.ID))
	s.Require().Equal(StatusConfirmed, r.Status)
	s.Require().Equal(models.ResourceStateInUse, resource.State)

	s.Require().True(s.manager.Release(s.ctx, r.ID))
	s.Require().Equal(StatusReleased, r.Status)
	s.Require().Equal(0.0, resource.Capacity.Current)
	s.Require().Equal(models.ResourceStateAvailable, resource.State)
}

func (s *ManagerSuite) TestTransitionsAreMonotonic() {
	s.addResource("node-1", models.ResourceTypeCompute, 100)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(40)}, StrategyGreedy, time.Minute)

	s.Require().True(s.manager.Confirm(s.ctx, r.ID))
	s.Require().False(s.manager.Confirm(s.ctx, r.ID), "second confirm must fail")
	s.Require().True(s.manager.Release(s.ctx, r.ID))
	s.Require().False(s.manager.Release(s.ctx, r.ID), "second release must fail")
	s.Require().Equal(StatusReleased, r.Status)
}

func (s *ManagerSuite) TestFailedWhenNothingFits() {
	s.addResource("node-1", models.ResourceTypeCompute, 10)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(50)}, StrategyGreedy, time.Minute)
	s.Require().Equal(StatusFailed, r.Status)
	s.Require().Empty(r.AllocatedResources)
	s.Require().False(s.manager.Confirm(s.ctx, r.ID))
}

func (s *ManagerSuite) TestPartialHoldsMatchedAmounts() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 100)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{
			s.computeRequirement(40),
			{Type: models.ResourceTypeMemory, Amount: 16, Unit: "GB"},
		}, StrategyGreedy, time.Minute)
	s.Require().Equal(StatusPartial, r.Status)
	s.Require().Equal(40.0, resource.Capacity.Current, "partial reservation keeps matched amounts held")

	s.Require().True(s.manager.Release(s.ctx, r.ID))
	s.Require().Equal(0.0, resource.Capacity.Current)
}

func (s *ManagerSuite) TestConservation() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 100)

	first := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(60)}, StrategyGreedy, time.Minute)
	second := s.manager.CreateReservation(s.ctx, "job-2",
		[]*models.Requirement{s.computeRequirement(30)}, StrategyGreedy, time.Minute)
	s.Require().Equal(StatusPending, first.Status)
	s.Require().Equal(StatusPending, second.Status)
	s.Require().Equal(90.0, resource.Capacity.Current)

	s.Require().True(s.manager.Confirm(s.ctx, first.ID))
	s.Require().True(s.manager.Confirm(s.ctx, second.ID))
	s.Require().True(s.manager.Release(s.ctx, first.ID))
	s.Require().Equal(30.0, resource.Capacity.Current)
	s.Require().True(s.manager.Release(s.ctx, second.ID))
	s.Require().Equal(0.0, resource.Capacity.Current)
}

func (s *ManagerSuite) TestSharedResourceAcrossRequirements() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 100)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(30), s.computeRequirement(20)},
		StrategyGreedy, time.Minute)
	s.Require().Equal(StatusPending, r.Status)
	s.Require().Len(r.AllocatedResources, 1)
	s.Require().Equal(50.0, r.AllocatedResources[resource.ID].Amount)
	s.Require().Equal(50.0, resource.Capacity.Current)

	s.Require().True(s.manager.Confirm(s.ctx, r.ID))
	s.Require().True(s.manager.Release(s.ctx, r.ID))
	s.Require().Equal(0.0, resource.Capacity.Current)
}

func (s *ManagerSuite) TestExpiredConfirmFails() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 100)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(40)}, StrategyGreedy, time.Minute)

	s.clock.Add(2 * time.Minute)
	s.Require().False(s.manager.Confirm(s.ctx, r.ID))
	s.Require().Equal(StatusExpired, r.Status)
	s.Require().Equal(0.0, resource.Capacity.Current, "expiry on confirm returns the holds")
	s.Require().False(s.manager.Confirm(s.ctx, r.ID), "repeat confirm must not release twice")
	s.Require().Equal(0.0, resource.Capacity.Current)
}

func (s *ManagerSuite) TestCleanupExpired() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 100)

	expired := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(40)}, StrategyGreedy, time.Minute)
	fresh := s.manager.CreateReservation(s.ctx, "job-2",
		[]*models.Requirement{s.computeRequirement(20)}, StrategyGreedy, time.Hour)

	s.clock.Add(2 * time.Minute)
	s.Require().Equal(1, s.manager.CleanupExpired(s.ctx))
	s.Require().Equal(StatusExpired, expired.Status)
	s.Require().Equal(StatusPending, fresh.Status)
	s.Require().Equal(20.0, resource.Capacity.Current)

	s.Require().Equal(0, s.manager.CleanupExpired(s.ctx), "sweep is idempotent")
}

func (s *ManagerSuite) TestPurgeHistory() {
	s.addResource("node-1", models.ResourceTypeCompute, 100)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(40)}, StrategyGreedy, time.Minute)
	s.Require().True(s.manager.Confirm(s.ctx, r.ID))
	s.Require().True(s.manager.Release(s.ctx, r.ID))

	s.Require().Equal(0, s.manager.PurgeHistory(time.Hour), "too recent to purge")
	s.clock.Add(2 * time.Hour)
	s.Require().Equal(1, s.manager.PurgeHistory(time.Hour))
	_, ok := s.manager.GetReservation(r.ID)
	s.Require().False(ok)
}

func (s *ManagerSuite) TestGreedyPicksLargest() {
	s.addResource("small", models.ResourceTypeCompute, 20)
	big := s.addResource("big", models.ResourceTypeCompute, 200)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(10)}, StrategyGreedy, time.Minute)
	s.Require().Equal(StatusPending, r.Status)
	s.Require().Contains(r.AllocatedResources, big.ID)
}

func (s *ManagerSuite) TestBalancedPicksLeastUtilized() {
	busy := s.addResource("busy", models.ResourceTypeCompute, 100)
	s.Require().True(busy.Reserve(80, "someone"))
	idle := s.addResource("idle", models.ResourceTypeCompute, 50)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(10)}, StrategyBalanced, time.Minute)
	s.Require().Equal(StatusPending, r.Status)
	s.Require().Contains(r.AllocatedResources, idle.ID)
}

func (s *ManagerSuite) TestOptimizedFavorsPreferred() {
	s.addResource("roomy", models.ResourceTypeCompute, 1000)
	preferred := s.addResource("preferred", models.ResourceTypeCompute, 100)

	requirement := s.computeRequirement(10)
	requirement.PreferredResources = []string{preferred.ID}

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{requirement}, StrategyOptimized, time.Minute)
	s.Require().Equal(StatusPending, r.Status)
	s.Require().Contains(r.AllocatedResources, preferred.ID)
}

func (s *ManagerSuite) TestPriorityOrdersRequirements() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 50)

	low := s.computeRequirement(40)
	low.Priority = 1
	high := s.computeRequirement(40)
	high.Priority = 9

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{low, high}, StrategyPriority, time.Minute)
	s.Require().Equal(StatusPartial, r.Status, "only the high priority requirement fits")
	s.Require().Equal(40.0, resource.Capacity.Current)
	s.Require().Equal(1, len(r.AllocatedResources))
}

func (s *ManagerSuite) TestAvailableResourcesFilters() {
	s.addResource("compute", models.ResourceTypeCompute, 100)
	full := s.addResource("full", models.ResourceTypeCompute, 100)
	s.Require().True(full.Reserve(100, "someone"))
	s.addResource("memory", models.ResourceTypeMemory, 100)

	candidates := s.manager.AvailableResources(s.computeRequirement(10))
	s.Require().Len(candidates, 1)
	s.Require().Equal("compute", candidates[0].Name)
}

func (s *ManagerSuite) TestDefaultTimeoutApplied() {
	s.addResource("node-1", models.ResourceTypeCompute, 100)

	r := s.manager.CreateReservation(s.ctx, "job-1",
		[]*models.Requirement{s.computeRequirement(10)}, StrategyGreedy, 0)
	s.Require().Equal(s.clock.Now().Add(DefaultTimeout), r.ExpiresAt)
}
