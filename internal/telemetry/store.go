// Package telemetry reads raw security-event records and rolls them up into
// per-category summaries.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
)

// Store is the read interface over the telemetry tables, plus the one write
// path (modbus ingestion). Agent filtering happens inside the SQL predicate:
// result volumes are too large to filter client-side.
type Store interface {
	MitreEvents(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.MitreEvent, error)
	RansomwareAlerts(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.RansomwareAlert, error)
	CVERecords(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.CVERecord, error)
	IoCRecords(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.IoCRecord, error)
	ComplianceFindings(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.ComplianceFinding, error)

	CountByCategory(ctx context.Context, category string, scope authz.AgentScope, window models.TimeWindow) (int, error)

	ModbusEvents(ctx context.Context, window models.TimeWindow) ([]models.ModbusEvent, error)
	InsertModbusEvent(ctx context.Context, event *models.ModbusEvent) (string, error)
}

// Category table names for CountByCategory.
const (
	CategoryMitre      = "mitre_events"
	CategoryRansomware = "ransomware_alerts"
	CategoryCVE        = "cve_records"
	CategoryIoC        = "ioc_records"
	CategoryCompliance = "compliance_findings"
)

var categoryTables = map[string]string{
	CategoryMitre:      CategoryMitre,
	CategoryRansomware: CategoryRansomware,
	CategoryCVE:        CategoryCVE,
	CategoryIoC:        CategoryIoC,
	CategoryCompliance: CategoryCompliance,
}

// SQLStore implements Store over sqlx. Queries are written with `?` bindvars
// and rebound per driver, so the same implementation serves SQLite and
// PostgreSQL.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) MitreEvents(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.MitreEvent, error) {
	out := []models.MitreEvent{}
	err := s.selectScoped(ctx, &out,
		`SELECT agent_id, timestamp, mitre_tactic, mitre_technique, mitre_id, rule_description FROM mitre_events`,
		scope, window)
	return out, err
}

func (s *SQLStore) RansomwareAlerts(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.RansomwareAlert, error) {
	out := []models.RansomwareAlert{}
	err := s.selectScoped(ctx, &out,
		`SELECT agent_id, timestamp, name FROM ransomware_alerts`,
		scope, window)
	return out, err
}

func (s *SQLStore) CVERecords(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.CVERecord, error) {
	out := []models.CVERecord{}
	err := s.selectScoped(ctx, &out,
		`SELECT agent_id, timestamp, cve_name FROM cve_records`,
		scope, window)
	return out, err
}

func (s *SQLStore) IoCRecords(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.IoCRecord, error) {
	out := []models.IoCRecord{}
	err := s.selectScoped(ctx, &out,
		`SELECT agent_id, timestamp, ioc_type, ioc_value FROM ioc_records`,
		scope, window)
	return out, err
}

func (s *SQLStore) ComplianceFindings(ctx context.Context, scope authz.AgentScope, window models.TimeWindow) ([]models.ComplianceFinding, error) {
	out := []models.ComplianceFinding{}
	err := s.selectScoped(ctx, &out,
		`SELECT agent_id, timestamp, compliance_name FROM compliance_findings`,
		scope, window)
	return out, err
}

// CountByCategory counts records in one category without fetching them.
func (s *SQLStore) CountByCategory(ctx context.Context, category string, scope authz.AgentScope, window models.TimeWindow) (int, error) {
	table, ok := categoryTables[category]
	if !ok {
		return 0, fmt.Errorf("unknown telemetry category %q", category)
	}
	if scope.Empty() {
		return 0, nil
	}
	query := `SELECT COUNT(*) FROM ` + table + ` WHERE timestamp >= ? AND timestamp <= ?`
	args := []interface{}{window.Start, window.End}
	if !scope.All {
		var err error
		query, args, err = sqlx.In(query+` AND agent_id IN (?)`, window.Start, window.End, scope.Agents)
		if err != nil {
			return 0, err
		}
	}
	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLStore) ModbusEvents(ctx context.Context, window models.TimeWindow) ([]models.ModbusEvent, error) {
	out := []models.ModbusEvent{}
	query := s.db.Rebind(`
		SELECT event_id, timestamp, event_type, device_id, source_ip, source_port,
		       destination_ip, destination_port, modbus_function, modbus_data, alert, additional_info
		FROM modbus_events
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
	`)
	err := s.db.SelectContext(ctx, &out, query, window.Start, window.End)
	return out, err
}

func (s *SQLStore) InsertModbusEvent(ctx context.Context, event *models.ModbusEvent) (string, error) {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	query := s.db.Rebind(`
		INSERT INTO modbus_events (event_id, timestamp, event_type, device_id, source_ip, source_port,
		                           destination_ip, destination_port, modbus_function, modbus_data, alert, additional_info)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		event.EventID, event.Timestamp, event.EventType, event.DeviceID,
		event.SourceIP, event.SourcePort, event.DestinationIP, event.DestinationPort,
		event.ModbusFunction, event.ModbusData, event.Alert, event.AdditionalInfo,
	)
	if err != nil {
		return "", err
	}
	return event.EventID, nil
}

// selectScoped appends the window predicate and, for restricted scopes, the
// agent IN clause, then rebinds for the active driver. An empty restricted
// scope short-circuits to zero rows: the query ran, nothing was visible.
func (s *SQLStore) selectScoped(ctx context.Context, dest interface{}, baseQuery string, scope authz.AgentScope, window models.TimeWindow) error {
	if scope.Empty() {
		return nil
	}
	query := baseQuery + ` WHERE timestamp >= ? AND timestamp <= ?`
	args := []interface{}{window.Start, window.End}
	if !scope.All {
		var err error
		query, args, err = sqlx.In(query+` AND agent_id IN (?)`, window.Start, window.End, scope.Agents)
		if err != nil {
			return err
		}
	}
	query += ` ORDER BY timestamp DESC`
	return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
}
