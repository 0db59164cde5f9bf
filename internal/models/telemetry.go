package models

import "time"

// Telemetry record shapes as fetched from the telemetry store. Every record
// carries the agent it came from so aggregation output can be checked against
// the query scope.

// MitreEvent is one MITRE ATT&CK rule hit.
type MitreEvent struct {
	AgentID         string    `json:"agent_id" db:"agent_id"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
	Tactic          string    `json:"mitre_tactic" db:"mitre_tactic"`
	Technique       string    `json:"mitre_technique" db:"mitre_technique"`
	TechniqueID     string    `json:"mitre_id" db:"mitre_id"`
	RuleDescription string    `json:"rule_description" db:"rule_description"`
}

// RansomwareAlert is one ransomware-related alert line.
type RansomwareAlert struct {
	AgentID   string    `json:"agent_id" db:"agent_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Name      string    `json:"name" db:"name"`
}

// CVERecord is one detected vulnerability.
type CVERecord struct {
	AgentID   string    `json:"agent_id" db:"agent_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	CVEName   string    `json:"cve_name" db:"cve_name"`
}

// IoCRecord is one indicator-of-compromise observation.
type IoCRecord struct {
	AgentID   string    `json:"agent_id" db:"agent_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	IoCType   string    `json:"ioc_type" db:"ioc_type"`
	IoCValue  string    `json:"ioc_value" db:"ioc_value"`
}

// ComplianceFinding is one compliance-control finding (CIS etc).
type ComplianceFinding struct {
	AgentID     string    `json:"agent_id" db:"agent_id"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	ControlName string    `json:"compliance_name" db:"compliance_name"`
}

// ModbusEvent is one industrial-protocol event from the OT sensor feed.
type ModbusEvent struct {
	EventID         string    `json:"event_id" db:"event_id"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
	EventType       string    `json:"event_type" db:"event_type"`
	DeviceID        string    `json:"device_id" db:"device_id"`
	SourceIP        string    `json:"source_ip" db:"source_ip"`
	SourcePort      int       `json:"source_port" db:"source_port"`
	DestinationIP   string    `json:"destination_ip" db:"destination_ip"`
	DestinationPort int       `json:"destination_port" db:"destination_port"`
	ModbusFunction  int       `json:"modbus_function" db:"modbus_function"`
	ModbusData      string    `json:"modbus_data" db:"modbus_data"`
	Alert           string    `json:"alert" db:"alert"`
	AdditionalInfo  string    `json:"additional_info,omitempty" db:"additional_info"` // JSON blob
}
