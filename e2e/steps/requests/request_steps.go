package requests

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseHeader(key string) string
	ProfileID(alias string) (string, error)
	SetNextHeader(key, value string)
	Save(key, value string)
	Saved(key string) (string, error)
}

// RegisterSteps registers blood request lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &requestSteps{tc: tc}

	ctx.Step(`^I request (\d+) units? of "([^"]*)" blood at the hospital with urgency "([^"]*)"$`, steps.createAtHospital)
	ctx.Step(`^I request (\d+) units? of "([^"]*)" blood at an unregistered hospital "([^"]*)"$`, steps.createAtNamedHospital)
	ctx.Step(`^I save the request$`, steps.saveRequest)
	ctx.Step(`^I move the request to "([^"]*)"$`, steps.transition)
	ctx.Step(`^I move the request to "([^"]*)" with the saved version$`, steps.transitionWithSavedVersion)
	ctx.Step(`^I approve the request assigning the (donor|second donor)$`, steps.approveAssigning)
	ctx.Step(`^I reject the request because "([^"]*)"$`, steps.reject)
	ctx.Step(`^I view the request$`, steps.view)
	ctx.Step(`^I check the eligibility of the (donor|second donor)$`, steps.eligibility)
}

type requestSteps struct {
	tc TestContext
}

func (s *requestSteps) createAtHospital(ctx context.Context, units int, group, urgency string) error {
	hospitalID, err := s.tc.ProfileID("hospital")
	if err != nil {
		return err
	}
	body := s.baseBody(units, group, urgency)
	body["hospital_id"] = hospitalID
	return s.tc.POST("/requests", body)
}

func (s *requestSteps) createAtNamedHospital(ctx context.Context, units int, group, name string) error {
	body := s.baseBody(units, group, "ROUTINE")
	body["hospital_name"] = name
	return s.tc.POST("/requests", body)
}

func (s *requestSteps) baseBody(units int, group, urgency string) map[string]interface{} {
	return map[string]interface{}{
		"patient_name":     "E2E Patient",
		"patient_age":      40,
		"blood_group":      group,
		"units_required":   units,
		"reason":           "scheduled surgery",
		"urgency":          urgency,
		"required_by_date": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	}
}

func (s *requestSteps) saveRequest(ctx context.Context) error {
	requestID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("request_id", fmt.Sprint(requestID))
	s.tc.Save("etag", s.tc.GetLastResponseHeader("ETag"))
	return nil
}

func (s *requestSteps) requestPath() (string, error) {
	requestID, err := s.tc.Saved("request_id")
	if err != nil {
		return "", err
	}
	return "/requests/" + requestID, nil
}

func (s *requestSteps) transition(ctx context.Context, status string) error {
	return s.post(map[string]interface{}{"status": status})
}

func (s *requestSteps) transitionWithSavedVersion(ctx context.Context, status string) error {
	etag, err := s.tc.Saved("etag")
	if err != nil {
		return err
	}
	s.tc.SetNextHeader("If-Match", etag)
	return s.post(map[string]interface{}{"status": status})
}

func (s *requestSteps) approveAssigning(ctx context.Context, alias string) error {
	donorID, err := s.tc.ProfileID(alias)
	if err != nil {
		return err
	}
	return s.post(map[string]interface{}{"status": "APPROVED", "assigned_donor": donorID})
}

func (s *requestSteps) reject(ctx context.Context, reason string) error {
	return s.post(map[string]interface{}{"status": "REJECTED", "rejection_reason": strings.TrimSpace(reason)})
}

func (s *requestSteps) post(body map[string]interface{}) error {
	path, err := s.requestPath()
	if err != nil {
		return err
	}
	return s.tc.POST(path+"/transitions", body)
}

func (s *requestSteps) view(ctx context.Context) error {
	path, err := s.requestPath()
	if err != nil {
		return err
	}
	return s.tc.GET(path)
}

func (s *requestSteps) eligibility(ctx context.Context, alias string) error {
	donorID, err := s.tc.ProfileID(alias)
	if err != nil {
		return err
	}
	return s.tc.GET("/donors/" + donorID + "/eligibility")
}
