package models

// Rollup shapes returned by the telemetry aggregator. Counts always equal the
// number of records contributing to the bucket.

// MitreRollup is a per tactic/technique histogram entry.
type MitreRollup struct {
	Tactic          string   `json:"mitre_tactic"`
	Technique       string   `json:"mitre_technique"`
	Count           int      `json:"mitre_count"`
	TechniqueIDs    []string `json:"mitre_ids"`
	RuleDescription string   `json:"rule_description"`
}

// RansomwareRollup is a name/count pair.
type RansomwareRollup struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// CVERollup lists distinct CVE names with the total record count.
type CVERollup struct {
	CVENames []string `json:"cve_name"`
	CVECount int      `json:"cve_count"`
}

// IoCRollup groups indicator values by type.
type IoCRollup struct {
	IoCType  string   `json:"ioc_type"`
	IoCCount int      `json:"ioc_count"`
	IoCData  []string `json:"ioc_data"`
}

// ComplianceRollup lists distinct control names with the total record count.
type ComplianceRollup struct {
	ControlNames    []string `json:"compliance_name"`
	ComplianceCount int      `json:"compliance_count"`
}

// OverviewSummary is the per-category count rollup for the dashboard landing
// view, computed over the caller's effective agent scope.
type OverviewSummary struct {
	MitreCount      int `json:"mitre_count"`
	RansomwareCount int `json:"ransomware_count"`
	CVECount        int `json:"cve_count"`
	IoCCount        int `json:"ioc_count"`
	ComplianceCount int `json:"compliance_count"`
}
