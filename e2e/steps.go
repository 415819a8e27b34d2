package e2e

import (
	"github.com/cucumber/godog"

	"bloodlink/e2e/steps/common"
	"bloodlink/e2e/steps/nearby"
	"bloodlink/e2e/steps/requests"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (identity, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register blood request lifecycle steps
	requests.RegisterSteps(ctx, tc)

	// Register nearby lookup steps
	nearby.RegisterSteps(ctx, tc)
}
