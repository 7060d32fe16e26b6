//go:build unit || !integration

package validation_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/reservoir-project/reservoir/pkg/models"
	"github.com/reservoir-project/reservoir/pkg/validation"
)

type ValidatorSuite struct {
	suite.Suite
	validator *validation.ResourceValidator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.validator = validation.NewResourceValidator()
}

func (s *ValidatorSuite) TestAccumulatesAllViolations() {
	resource := models.NewResource("node-1", models.ResourceTypeCompute, 10, "cores")
	resource.Specification.Capabilities["arch"] = "arm64"

	minClock := 3.0
	requirement := &models.Requirement{
		Type:   models.ResourceTypeCompute,
		Amount: 20, // more than the resource has
		Constraints: []*models.Constraint{
			{Name: "arch", RequiredValues: []string{"amd64"}}, // wrong value
			{Name: "clock_ghz", MinValue: &minClock},          // missing capability
		},
	}

	result := s.validator.ValidateResourceForRequirement(resource, requirement)
	s.Require().False(result.IsValid())
	s.Require().Len(result.Violations(), 3, "every violation should be reported, not just the first")
	s.Require().Error(result.Err())
}

func (s *ValidatorSuite) TestTypeMismatchShortCircuits() {
	resource := models.NewResource("node-1", models.ResourceTypeMemory, 10, "GB")
	requirement := &models.Requirement{
		Type:        models.ResourceTypeCompute,
		Amount:      100,
		Constraints: []*models.Constraint{{Name: "missing"}},
	}

	result := s.validator.ValidateResourceForRequirement(resource, requirement)
	s.Require().False(result.IsValid())
	s.Require().Len(result.Violations(), 1, "type mismatch should be the only violation reported")
}

func (s *ValidatorSuite) TestValidResourcePasses() {
	resource := models.NewResource("node-1", models.ResourceTypeCompute, 10, "cores")
	requirement := &models.Requirement{Type: models.ResourceTypeCompute, Amount: 5}

	result := s.validator.ValidateResourceForRequirement(resource, requirement)
	s.Require().True(result.IsValid())
	s.Require().NoError(result.Err())
}

func (s *ValidatorSuite) TestCustomValidator() {
	s.validator.RegisterCustomValidator("no-tagged", func(r *models.Resource, _ *models.Requirement) *validation.Result {
		result := validation.NewResult()
		if len(r.Tags) > 0 {
			result.AddViolation("tagged resources are not eligible")
		}
		return result
	})

	resource := models.NewResource("node-1", models.ResourceTypeCompute, 10, "cores")
	resource.Tags = []string{"drained"}
	requirement := &models.Requirement{Type: models.ResourceTypeCompute, Amount: 1}

	result := s.validator.ValidateResourceForRequirement(resource, requirement)
	s.Require().False(result.IsValid())

	s.Require().True(s.validator.UnregisterCustomValidator("no-tagged"))
	s.Require().False(s.validator.UnregisterCustomValidator("no-tagged"))
	s.Require().True(s.validator.ValidateResourceForRequirement(resource, requirement).IsValid())
}

func (s *ValidatorSuite) TestValidateResourcesForRequirements() {
	compute := models.NewResource("node-1", models.ResourceTypeCompute, 10, "cores")
	memory := models.NewResource("mem-1", models.ResourceTypeMemory, 64, "GB")

	requirements := []*models.Requirement{
		{Type: models.ResourceTypeCompute, Amount: 4},
		{Type: models.ResourceTypeMemory, Amount: 128}, // too large
		{Type: models.ResourceTypeGPU, Amount: 1},      // no such type
	}

	result := s.validator.ValidateResourcesForRequirements(
		[]*models.Resource{compute, memory}, requirements)
	s.Require().False(result.IsValid())
	s.Require().Len(result.Violations(), 2)
}

func (s *ValidatorSuite) TestConstraintValidator() {
	cv := validation.NewConstraintValidator()

	resource := models.NewResource("node-1", models.ResourceTypeCompute, 10, "cores")
	resource.Specification.Capabilities["clock_ghz"] = 2.4

	s.Require().True(cv.ValidateCapacity(resource, 5, 0).IsValid())
	s.Require().False(cv.ValidateCapacity(resource, 20, 0).IsValid())
	s.Require().False(cv.ValidateCapacity(resource, 0, 5).IsValid())

	min := 3.0
	s.Require().False(cv.ValidateCapability(resource, &models.Constraint{Name: "clock_ghz", MinValue: &min}).IsValid())
	min = 2.0
	s.Require().True(cv.ValidateCapability(resource, &models.Constraint{Name: "clock_ghz", MinValue: &min}).IsValid())
	s.Require().False(cv.ValidateCapability(resource, &models.Constraint{Name: "sockets"}).IsValid())

	other := models.NewResource("node-2", models.ResourceTypeCompute, 10, "cores")
	other.Specification.Capabilities["clock_ghz"] = 3.2
	s.Require().False(cv.ValidateCompatibility(resource, []*models.Resource{other}).IsValid())
	other.Specification.Capabilities["clock_ghz"] = 2.4
	s.Require().True(cv.ValidateCompatibility(resource, []*models.Resource{other}).IsValid())
}
