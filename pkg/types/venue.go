// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Venue is a publication venue (journal, conference, repository).
type Venue struct {
	ID                   string `json:"id" yaml:"id"`
	Name                 string `json:"name" yaml:"name"`
	SourceType           string `json:"source_type,omitempty" yaml:"source_type,omitempty"`
	HostOrganizationID   string `json:"host_organization_id,omitempty" yaml:"host_organization_id,omitempty"`
	HostOrganizationName string `json:"host_organization_name,omitempty" yaml:"host_organization_name,omitempty"`
	ISSNL                string `json:"issn_l,omitempty" yaml:"issn_l,omitempty"`
	WorksCount           int    `json:"works_count,omitempty" yaml:"works_count,omitempty"`
	CitedByCount         int    `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`
	HomepageURL          string `json:"homepage_url,omitempty" yaml:"homepage_url,omitempty"`
}
