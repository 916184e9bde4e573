package plan

import (
	"fmt"
	"sort"

	json "github.com/json-iterator/go"
)

// File is the on-disk plan file for one app:
//
//	{"app_id": "...", "action_plans": {"methodName": {"method_name": "...", "steps": [...]}}}
type File struct {
	AppID       string           `json:"app_id"`
	ActionPlans map[string]*Plan `json:"action_plans"`
}

// Decode parses a plan file. Plans without a method_name take their map key,
// and plans are re-keyed by method name.
func Decode(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode plan file: %w", err)
	}

	plans := make(map[string]*Plan, len(f.ActionPlans))
	for key, p := range f.ActionPlans {
		if p == nil {
			continue
		}
		if p.MethodName == "" {
			p.MethodName = key
		}
		plans[p.MethodName] = p
	}
	f.ActionPlans = plans
	return &f, nil
}

// DecodePlan parses a single plan object.
func DecodePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return &p, nil
}

// Plan returns the plan for method, or nil.
func (f *File) Plan(method string) *Plan {
	if f == nil {
		return nil
	}
	return f.ActionPlans[method]
}

// Methods returns the method names in sorted order.
func (f *File) Methods() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.ActionPlans))
	for name := range f.ActionPlans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
