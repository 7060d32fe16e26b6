//go:build unit || !integration

package allocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"github.com/reservoir-project/reservoir/pkg/allocation"
	"github.com/reservoir-project/reservoir/pkg/models"
	"github.com/reservoir-project/reservoir/pkg/reservation"
)

type AllocatorSuite struct {
	suite.Suite
	clock     *clock.Mock
	manager   *reservation.Manager
	allocator *allocation.Allocator
	ctx       context.Context
}

func TestAllocatorSuite(t *testing.T) {
	suite.Run(t, new(AllocatorSuite))
}

func (s *AllocatorSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.manager = reservation.NewManager(reservation.ManagerParams{Clock: s.clock})
	s.allocator = allocation.NewAllocator(allocation.AllocatorParams{Reservations: s.manager})
	s.ctx = context.Background()
}

func (s *AllocatorSuite) addResource(name string, resourceType models.ResourceType, maximum float64) *models.Resource {
	resource := models.NewResource(name, resourceType, maximum, "units")
	s.manager.RegisterResource(resource)
	return resource
}

func (s *AllocatorSuite) request(amounts ...float64) *allocation.Request {
	requirements := make([]*models.Requirement, 0, len(amounts))
	for _, amount := range amounts {
		requirements = append(requirements, &models.Requirement{
			Type:   models.ResourceTypeCompute,
			Amount: amount,
		})
	}
	return &allocation.Request{
		RequesterID:  "job-1",
		Requirements: requirements,
		Strategy:     reservation.StrategyGreedy,
		Timeout:      time.Minute,
	}
}

func (s *AllocatorSuite) TestSuccessConfirmsReservation() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 100)

	result := s.allocator.Allocate(s.ctx, s.request(40))
	s.Require().True(result.IsSuccess())
	s.Require().Equal(40.0, result.AllocatedResources[resource.ID])
	s.Require().Equal(models.ResourceStateInUse, resource.State)

	r, ok := s.manager.GetReservation(result.ReservationID)
	s.Require().True(ok)
	s.Require().Equal(reservation.StatusConfirmed, r.Status)
}

func (s *AllocatorSuite) TestPartialReleasesHolds() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 100)

	request := s.request(40)
	request.Requirements = append(request.Requirements,
		&models.Requirement{Type: models.ResourceTypeMemory, Amount: 16})

	result := s.allocator.Allocate(s.ctx, request)
	s.Require().Equal(allocation.StatusPartial, result.Status)
	s.Require().Len(result.UnsatisfiedRequirements, 1)
	s.Require().Equal(models.ResourceTypeMemory, result.UnsatisfiedRequirements[0].Type)
	s.Require().Equal(0.0, resource.Capacity.Current, "partial holds must be returned")
}

func (s *AllocatorSuite) TestFailedListsAllRequirements() {
	s.addResource("node-1", models.ResourceTypeCompute, 10)

	result := s.allocator.Allocate(s.ctx, s.request(50, 60))
	s.Require().Equal(allocation.StatusFailed, result.Status)
	s.Require().Len(result.UnsatisfiedRequirements, 2)
}

func (s *AllocatorSuite) TestDeferredAndRetried() {
	compute := s.addResource("node-1", models.ResourceTypeCompute, 100)

	request := s.request(40)
	request.Requirements = append(request.Requirements,
		&models.Requirement{Type: models.ResourceTypeMemory, Amount: 16})
	request.WaitIfUnavailable = true

	result := s.allocator.Allocate(s.ctx, request)
	s.Require().Equal(allocation.StatusDeferred, result.Status)
	s.Require().Equal(1, s.allocator.PendingCount())
	s.Require().Equal(0.0, compute.Capacity.Current, "deferred request holds nothing")

	s.Require().Equal(0, s.allocator.RetryPendingAllocations(s.ctx), "memory is still missing")

	s.addResource("node-2", models.ResourceTypeMemory, 64)
	s.Require().Equal(1, s.allocator.RetryPendingAllocations(s.ctx))
	s.Require().Equal(0, s.allocator.PendingCount())
	s.Require().Equal(40.0, compute.Capacity.Current)
}

func (s *AllocatorSuite) TestTotalFailureIsNeverDeferred() {
	request := s.request(40)
	request.WaitIfUnavailable = true

	result := s.allocator.Allocate(s.ctx, request)
	s.Require().Equal(allocation.StatusFailed, result.Status)
	s.Require().Len(result.UnsatisfiedRequirements, 1)
	s.Require().Equal(0, s.allocator.PendingCount())

	// A fully drained registry is a total failure too.
	s.addResource("node-1", models.ResourceTypeCompute, 100)
	blocker := s.allocator.Allocate(s.ctx, s.request(100))
	s.Require().True(blocker.IsSuccess())

	result = s.allocator.Allocate(s.ctx, request)
	s.Require().Equal(allocation.StatusFailed, result.Status)
	s.Require().Equal(0, s.allocator.PendingCount())
}

func (s *AllocatorSuite) TestDeferredRequestsAccumulatePerRequester() {
	compute := s.addResource("node-1", models.ResourceTypeCompute, 100)
	network := s.addResource("node-2", models.ResourceTypeNetwork, 50)

	first := s.request(40)
	first.Requirements = append(first.Requirements,
		&models.Requirement{Type: models.ResourceTypeMemory, Amount: 16})
	first.WaitIfUnavailable = true
	s.Require().Equal(allocation.StatusDeferred, s.allocator.Allocate(s.ctx, first).Status)

	second := &allocation.Request{
		RequesterID: "job-1",
		Requirements: []*models.Requirement{
			{Type: models.ResourceTypeNetwork, Amount: 10},
			{Type: models.ResourceTypeStorage, Amount: 5},
		},
		Strategy:          reservation.StrategyGreedy,
		Timeout:           time.Minute,
		WaitIfUnavailable: true,
	}
	s.Require().Equal(allocation.StatusDeferred, s.allocator.Allocate(s.ctx, second).Status)

	s.Require().Equal(2, s.allocator.PendingCount(), "one requester can park several requests")

	s.addResource("node-3", models.ResourceTypeMemory, 64)
	s.addResource("node-4", models.ResourceTypeStorage, 20)
	s.Require().Equal(2, s.allocator.RetryPendingAllocations(s.ctx))
	s.Require().Equal(0, s.allocator.PendingCount())
	s.Require().Equal(40.0, compute.Capacity.Current)
	s.Require().Equal(10.0, network.Capacity.Current)
}

func (s *AllocatorSuite) TestReleaseRoundTrip() {
	resource := s.addResource("node-1", models.ResourceTypeCompute, 100)

	result := s.allocator.Allocate(s.ctx, s.request(70))
	s.Require().True(result.IsSuccess())
	s.Require().True(s.allocator.Release(s.ctx, result.ReservationID))
	s.Require().Equal(0.0, resource.Capacity.Current)
	s.Require().False(s.allocator.Release(s.ctx, result.ReservationID))
}

type PriorityAllocatorSuite struct {
	suite.Suite
	clock     *clock.Mock
	manager   *reservation.Manager
	allocator *allocation.PriorityAllocator
	ctx       context.Context
}

func TestPriorityAllocatorSuite(t *testing.T) {
	suite.Run(t, new(PriorityAllocatorSuite))
}

func (s *PriorityAllocatorSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.manager = reservation.NewManager(reservation.ManagerParams{Clock: s.clock})
	s.allocator = allocation.NewPriorityAllocator(allocation.AllocatorParams{Reservations: s.manager})
	s.ctx = context.Background()
}

func (s *PriorityAllocatorSuite) request(requester string, amount float64) *allocation.Request {
	return &allocation.Request{
		RequesterID:  requester,
		Requirements: []*models.Requirement{{Type: models.ResourceTypeCompute, Amount: amount}},
		Strategy:     reservation.StrategyGreedy,
		Timeout:      time.Minute,
	}
}

func (s *PriorityAllocatorSuite) TestImmediateSuccessSkipsQueue() {
	resource := models.NewResource("node-1", models.ResourceTypeCompute, 100, "units")
	s.manager.RegisterResource(resource)

	result := s.allocator.AllocateWithPriority(s.ctx, s.request("job-1", 40), 5)
	s.Require().True(result.IsSuccess())
	s.Require().Equal(0, s.allocator.QueueLength())
}

func (s *PriorityAllocatorSuite) TestQueueServedInPriorityOrder() {
	for _, name := range []string{"node-1", "node-2", "node-3"} {
		s.manager.RegisterResource(models.NewResource(name, models.ResourceTypeCompute, 100, "units"))
	}

	// One requirement per node so the blocker drains the whole registry.
	blocker := s.allocator.Allocate(s.ctx, &allocation.Request{
		RequesterID: "blocker",
		Requirements: []*models.Requirement{
			{Type: models.ResourceTypeCompute, Amount: 100},
			{Type: models.ResourceTypeCompute, Amount: 100},
			{Type: models.ResourceTypeCompute, Amount: 100},
		},
		Strategy: reservation.StrategyGreedy,
		Timeout:  time.Minute,
	})
	s.Require().True(blocker.IsSuccess())

	s.Require().Equal(allocation.StatusQueued,
		s.allocator.AllocateWithPriority(s.ctx, s.request("low", 30), 1).Status)
	s.Require().Equal(allocation.StatusQueued,
		s.allocator.AllocateWithPriority(s.ctx, s.request("high", 30), 5).Status)
	s.Require().Equal(allocation.StatusQueued,
		s.allocator.AllocateWithPriority(s.ctx, s.request("mid", 30), 3).Status)
	s.Require().Equal(3, s.allocator.QueueLength())

	s.Require().True(s.allocator.Release(s.ctx, blocker.ReservationID))

	results := s.allocator.ProcessQueue(s.ctx)
	s.Require().Len(results, 3)
	s.Require().Equal("high", results[0].RequesterID)
	s.Require().Equal("mid", results[1].RequesterID)
	s.Require().Equal("low", results[2].RequesterID)
}

func (s *PriorityAllocatorSuite) TestHeadOfLineBlocking() {
	small := models.NewResource("small-node", models.ResourceTypeCompute, 40, "units")
	s.manager.RegisterResource(small)

	// The high priority request fits nowhere; the low priority one would
	// fit on the small node but must not jump the queue.
	s.allocator.AllocateWithPriority(s.ctx, s.request("big", 80), 5)
	s.allocator.AllocateWithPriority(s.ctx, s.request("small", 10), 1)

	results := s.allocator.ProcessQueue(s.ctx)
	s.Require().Empty(results)
	s.Require().Equal(2, s.allocator.QueueLength())
	s.Require().Equal(0.0, small.Capacity.Current, "blocked queue must not leak holds")
}

func (s *PriorityAllocatorSuite) TestRequirementsTotal() {
	totals := allocation.RequirementsTotal([]*models.Requirement{
		{Type: models.ResourceTypeCompute, Amount: 4},
		{Type: models.ResourceTypeCompute, Amount: 2},
		{Type: models.ResourceTypeMemory, Amount: 16},
	})
	s.Require().Equal(6.0, totals[models.ResourceTypeCompute])
	s.Require().Equal(16.0, totals[models.ResourceTypeMemory])
}
