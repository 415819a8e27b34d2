package nearby

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
}

// RegisterSteps registers nearby lookup step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &nearbySteps{tc: tc}

	ctx.Step(`^I look up nearby entities$`, steps.lookUp)
	ctx.Step(`^I list my nearby history$`, steps.history)
	ctx.Step(`^the nearby list should be ordered by distance$`, steps.orderedByDistance)
	ctx.Step(`^the nearest "([^"]*)" should be "([^"]*)"$`, steps.nearestShouldBe)
	ctx.Step(`^the history should not be empty$`, steps.historyNotEmpty)
}

type nearbySteps struct {
	tc TestContext
}

func (s *nearbySteps) lookUp(ctx context.Context) error {
	return s.tc.GET("/nearby")
}

func (s *nearbySteps) history(ctx context.Context) error {
	return s.tc.GET("/nearby/history")
}

func (s *nearbySteps) orderedByDistance(ctx context.Context) error {
	raw, err := s.tc.GetResponseField("nearby")
	if err != nil {
		return err
	}
	entries, ok := raw.([]interface{})
	if !ok || len(entries) == 0 {
		return fmt.Errorf("expected a non-empty nearby list, got %v", raw)
	}
	last := -1.0
	for i, e := range entries {
		entry, ok := e.(map[string]interface{})
		if !ok {
			return fmt.Errorf("entry %d is not an object", i)
		}
		d, ok := entry["distance_km"].(float64)
		if !ok {
			return fmt.Errorf("entry %d has no distance_km", i)
		}
		if d < last {
			return fmt.Errorf("entry %d at %.2f km comes after %.2f km", i, d, last)
		}
		last = d
	}
	return nil
}

func (s *nearbySteps) nearestShouldBe(ctx context.Context, kind, name string) error {
	got, err := s.tc.GetResponseField("nearest_by_type." + kind + ".name")
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != name {
		return fmt.Errorf("expected nearest %s %q, got %v", kind, name, got)
	}
	return nil
}

func (s *nearbySteps) historyNotEmpty(ctx context.Context) error {
	raw, err := s.tc.GetResponseField("records")
	if err != nil {
		return err
	}
	records, ok := raw.([]interface{})
	if !ok || len(records) == 0 {
		return fmt.Errorf("expected history records, got %v", raw)
	}
	return nil
}
