// Package selection decides which blueprint documents a project receives.
package selection

import "slices"

// Known document types, in generation order. Order matters: later documents
// reference the content of earlier ones during generation.
const (
	DocProjectRequirements = "project-requirements"
	DocTechStack           = "tech-stack"
	DocDataModel           = "data-model"
	DocAuthArchitecture    = "auth-architecture"
	DocAPIDesign           = "api-design"
	DocIntegrations        = "integrations"
	DocUIGuidelines        = "ui-guidelines"
	DocDeploymentPlan      = "deployment-plan"
)

// Feature flag constants detected during the interview.
const (
	FeatureAuth         = "auth"
	FeaturePayments     = "payments"
	FeatureRealtime     = "realtime"
	FeatureExternalAPIs = "external-apis"
)

// DocumentTypes returns the ordered list of document types to generate for a
// project, based on its type and detected feature flags. Pure function; the
// same inputs always select the same suite.
func DocumentTypes(projectType string, features []string) []string {
	types := []string{DocProjectRequirements, DocTechStack, DocDataModel}

	if slices.Contains(features, FeatureAuth) {
		types = append(types, DocAuthArchitecture)
	}

	switch projectType {
	case "api", "backend":
		types = append(types, DocAPIDesign)
	case "cli":
		// no API or UI documents
	default:
		// web and mobile projects get both surfaces
		types = append(types, DocAPIDesign, DocUIGuidelines)
	}

	if slices.Contains(features, FeaturePayments) || slices.Contains(features, FeatureExternalAPIs) {
		types = append(types, DocIntegrations)
	}

	types = append(types, DocDeploymentPlan)
	return types
}
