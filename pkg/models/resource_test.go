//go:build unit || !integration

package models_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/reservoir-project/reservoir/pkg/models"
)

type ResourceSuite struct {
	suite.Suite
}

func TestResourceSuite(t *testing.T) {
	suite.Run(t, new(ResourceSuite))
}

func (s *ResourceSuite) TestReserveAndRelease() {
	resource := models.NewResource("worker-1", models.ResourceTypeCompute, 100, "cores")

	s.Require().True(resource.IsAvailable())
	s.Require().True(resource.Reserve(40, "requester-1"))
	s.Require().Equal(40.0, resource.Capacity.Current)
	s.Require().Equal(models.ResourceStateAvailable, resource.State)
	s.Require().Equal("requester-1", resource.OwnerID)

	s.Require().True(resource.Release(40))
	s.Require().Equal(0.0, resource.Capacity.Current)
	s.Require().Equal(models.ResourceStateAvailable, resource.State)
	s.Require().Empty(resource.OwnerID, "owner should be cleared once nothing is committed")
}

func (s *ResourceSuite) TestReserveBeyondCapacityFails() {
	resource := models.NewResource("worker-1", models.ResourceTypeCompute, 100, "cores")

	s.Require().False(resource.Reserve(150, "requester-1"))
	s.Require().Equal(0.0, resource.Capacity.Current)
	s.Require().GreaterOrEqual(resource.Capacity.Current, 0.0)
	s.Require().LessOrEqual(resource.Capacity.Current, resource.Capacity.Maximum)
}

func (s *ResourceSuite) TestReleaseMoreThanCommittedFails() {
	resource := models.NewResource("worker-1", models.ResourceTypeCompute, 100, "cores")
	s.Require().True(resource.Reserve(30, "requester-1"))

	s.Require().False(resource.Release(50))
	s.Require().Equal(30.0, resource.Capacity.Current)
}

// Two sequential reservations of 50 fill a resource of 100, a third request
// for 10 fails, and releasing 60 makes the resource available again.
func (s *ResourceSuite) TestSequentialReservationScenario() {
	resource := models.NewResource("worker-1", models.ResourceTypeCompute, 100, "cores")

	s.Require().True(resource.Reserve(50, "requester-1"))
	s.Require().True(resource.Reserve(50, "requester-2"))
	s.Require().Equal(models.ResourceStateReserved, resource.State)
	s.Require().Equal(100.0, resource.Capacity.Current)

	s.Require().False(resource.Reserve(10, "requester-3"))

	s.Require().True(resource.Release(60))
	s.Require().Equal(models.ResourceStateAvailable, resource.State)
	s.Require().Equal(40.0, resource.Capacity.Current)
}

func (s *ResourceSuite) TestRequirementSatisfaction() {
	resource := models.NewResource("gpu-1", models.ResourceTypeGPU, 4, "devices")
	resource.Specification.Capabilities["vram_gb"] = 24.0
	resource.Specification.Capabilities["arch"] = "ampere"

	minVRAM := 16.0
	requirement := &models.Requirement{
		Type:   models.ResourceTypeGPU,
		Amount: 2,
		Unit:   "devices",
		Constraints: []*models.Constraint{
			{Name: "vram_gb", MinValue: &minVRAM},
			{Name: "arch", RequiredValues: []string{"ampere", "hopper"}},
		},
	}
	s.Require().True(requirement.CanBeSatisfiedBy(resource))

	// wrong type
	requirement.Type = models.ResourceTypeCompute
	s.Require().False(requirement.CanBeSatisfiedBy(resource))
	requirement.Type = models.ResourceTypeGPU

	// not enough free capacity
	requirement.Amount = 5
	s.Require().False(requirement.CanBeSatisfiedBy(resource))
	requirement.Amount = 2

	// constraint on a capability the resource does not declare
	requirement.Constraints = append(requirement.Constraints, &models.Constraint{Name: "nvlink"})
	s.Require().False(requirement.CanBeSatisfiedBy(resource))
}

func (s *ResourceSuite) TestConstraintValidate() {
	min, max := 2.0, 8.0
	numeric := &models.Constraint{Name: "cores", MinValue: &min, MaxValue: &max}
	s.Require().True(numeric.Validate(4))
	s.Require().True(numeric.Validate(2.0))
	s.Require().False(numeric.Validate(1))
	s.Require().False(numeric.Validate(9.5))

	categorical := &models.Constraint{
		Name:           "region",
		RequiredValues: []string{"eu-west", "eu-central"},
		ExcludedValues: []string{"us-east"},
	}
	s.Require().True(categorical.Validate("eu-west"))
	s.Require().False(categorical.Validate("us-east"))
	s.Require().False(categorical.Validate("ap-south"))
}

func (s *ResourceSuite) TestParseResourceType() {
	typ, err := models.ParseResourceType("GPU")
	s.Require().NoError(err)
	s.Require().Equal(models.ResourceTypeGPU, typ)

	_, err = models.ParseResourceType("quantum")
	s.Require().Error(err)
}

func (s *ResourceSuite) TestMeetsCapabilities() {
	spec := &models.Specification{
		Type: models.ResourceTypeCompute,
		Capabilities: map[string]any{
			"cores": 16,
			"arch":  "amd64",
		},
	}

	s.Require().True(spec.MeetsCapabilities(map[string]any{"cores": 8}))
	s.Require().False(spec.MeetsCapabilities(map[string]any{"cores": 32}))
	s.Require().True(spec.MeetsCapabilities(map[string]any{"arch": "amd64"}))
	s.Require().False(spec.MeetsCapabilities(map[string]any{"arch": "arm64"}))
	s.Require().False(spec.MeetsCapabilities(map[string]any{"numa": true}))
}
