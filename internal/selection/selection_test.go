package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentTypes(t *testing.T) {
	tests := []struct {
		name        string
		projectType string
		features    []string
		want        []string
	}{
		{
			name:        "web project with no features",
			projectType: "web",
			want: []string{
				DocProjectRequirements, DocTechStack, DocDataModel,
				DocAPIDesign, DocUIGuidelines, DocDeploymentPlan,
			},
		},
		{
			name:        "backend api with auth",
			projectType: "api",
			features:    []string{FeatureAuth},
			want: []string{
				DocProjectRequirements, DocTechStack, DocDataModel,
				DocAuthArchitecture, DocAPIDesign, DocDeploymentPlan,
			},
		},
		{
			name:        "cli gets neither surface document",
			projectType: "cli",
			want: []string{
				DocProjectRequirements, DocTechStack, DocDataModel,
				DocDeploymentPlan,
			},
		},
		{
			name:        "payments pull in integrations",
			projectType: "web",
			features:    []string{FeaturePayments},
			want: []string{
				DocProjectRequirements, DocTechStack, DocDataModel,
				DocAPIDesign, DocUIGuidelines, DocIntegrations, DocDeploymentPlan,
			},
		},
		{
			name:        "external apis pull in integrations",
			projectType: "mobile",
			features:    []string{FeatureExternalAPIs},
			want: []string{
				DocProjectRequirements, DocTechStack, DocDataModel,
				DocAPIDesign, DocUIGuidelines, DocIntegrations, DocDeploymentPlan,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentTypes(tt.projectType, tt.features))
		})
	}
}

func TestDocumentTypesIsDeterministic(t *testing.T) {
	a := DocumentTypes("web", []string{FeatureAuth, FeaturePayments})
	b := DocumentTypes("web", []string{FeatureAuth, FeaturePayments})
	assert.Equal(t, a, b)
}
