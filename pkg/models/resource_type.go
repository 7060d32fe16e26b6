package models

import (
	"fmt"
	"strings"
)

// ResourceType classifies the kind of capacity a resource provides.
type ResourceType int

const (
	resourceTypeUndefined ResourceType = iota
	ResourceTypeCompute
	ResourceTypeMemory
	ResourceTypeStorage
	ResourceTypeNetwork
	ResourceTypeGPU
	ResourceTypeSpecialized
	ResourceTypeCustom
)

var resourceTypeNames = map[ResourceType]string{
	ResourceTypeCompute:     "compute",
	ResourceTypeMemory:      "memory",
	ResourceTypeStorage:     "storage",
	ResourceTypeNetwork:     "network",
	ResourceTypeGPU:         "gpu",
	ResourceTypeSpecialized: "specialized",
	ResourceTypeCustom:      "custom",
}

func (t ResourceType) String() string {
	if name, ok := resourceTypeNames[t]; ok {
		return name
	}
	return "undefined"
}

// ResourceTypes returns all defined resource types, in declaration order.
func ResourceTypes() []ResourceType {
	types := make([]ResourceType, 0, len(resourceTypeNames))
	for typ := ResourceTypeCompute; typ <= ResourceTypeCustom; typ++ {
		types = append(types, typ)
	}
	return types
}

func ParseResourceType(s string) (ResourceType, error) {
	for typ := ResourceTypeCompute; typ <= ResourceTypeCustom; typ++ {
		if strings.EqualFold(typ.String(), strings.TrimSpace(s)) {
			return typ, nil
		}
	}
	return resourceTypeUndefined, fmt.Errorf("invalid resource type: %s", s)
}

func (t ResourceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ResourceType) UnmarshalText(text []byte) (err error) {
	*t, err = ParseResourceType(string(text))
	return
}
