package telemetry

import "github.com/sentriq/sentriq-backend/internal/models"

// Pure rollup functions over fetched record sets. Input records arrive already
// scope-filtered by the dispatcher, so no rollup can reference an agent
// outside the scope that produced them. Bucket counts always equal the number
// of contributing records.

// SummarizeMitre builds the per tactic/technique histogram. Technique-id lists
// keep first-seen order and drop duplicates; the first rule description seen
// for a bucket wins.
func SummarizeMitre(events []models.MitreEvent) []models.MitreRollup {
	type bucketKey struct {
		tactic    string
		technique string
	}
	index := make(map[bucketKey]int)
	rollups := []models.MitreRollup{}
	seenIDs := make(map[bucketKey]map[string]struct{})

	for _, ev := range events {
		key := bucketKey{tactic: ev.Tactic, technique: ev.Technique}
		i, ok := index[key]
		if !ok {
			i = len(rollups)
			index[key] = i
			rollups = append(rollups, models.MitreRollup{
				Tactic:          ev.Tactic,
				Technique:       ev.Technique,
				TechniqueIDs:    []string{},
				RuleDescription: ev.RuleDescription,
			})
			seenIDs[key] = make(map[string]struct{})
		}
		rollups[i].Count++
		if ev.TechniqueID != "" {
			if _, dup := seenIDs[key][ev.TechniqueID]; !dup {
				seenIDs[key][ev.TechniqueID] = struct{}{}
				rollups[i].TechniqueIDs = append(rollups[i].TechniqueIDs, ev.TechniqueID)
			}
		}
	}
	return rollups
}

// SummarizeRansomware counts alerts per alert name, first-seen order.
func SummarizeRansomware(alerts []models.RansomwareAlert) []models.RansomwareRollup {
	index := make(map[string]int)
	rollups := []models.RansomwareRollup{}
	for _, a := range alerts {
		i, ok := index[a.Name]
		if !ok {
			i = len(rollups)
			index[a.Name] = i
			rollups = append(rollups, models.RansomwareRollup{Name: a.Name})
		}
		rollups[i].Value++
	}
	return rollups
}

// SummarizeCVE lists distinct CVE names; the count is the total record count,
// not the distinct-name count.
func SummarizeCVE(records []models.CVERecord) models.CVERollup {
	seen := make(map[string]struct{})
	rollup := models.CVERollup{CVENames: []string{}}
	for _, rec := range records {
		rollup.CVECount++
		if _, dup := seen[rec.CVEName]; !dup {
			seen[rec.CVEName] = struct{}{}
			rollup.CVENames = append(rollup.CVENames, rec.CVEName)
		}
	}
	return rollup
}

// SummarizeIoC groups indicator values by type; values are deduplicated per
// type while the count tracks every contributing record.
func SummarizeIoC(records []models.IoCRecord) []models.IoCRollup {
	index := make(map[string]int)
	seen := make(map[string]map[string]struct{})
	rollups := []models.IoCRollup{}
	for _, rec := range records {
		i, ok := index[rec.IoCType]
		if !ok {
			i = len(rollups)
			index[rec.IoCType] = i
			rollups = append(rollups, models.IoCRollup{IoCType: rec.IoCType, IoCData: []string{}})
			seen[rec.IoCType] = make(map[string]struct{})
		}
		rollups[i].IoCCount++
		if _, dup := seen[rec.IoCType][rec.IoCValue]; !dup {
			seen[rec.IoCType][rec.IoCValue] = struct{}{}
			rollups[i].IoCData = append(rollups[i].IoCData, rec.IoCValue)
		}
	}
	return rollups
}

// SummarizeCompliance lists distinct control names with the total record count.
func SummarizeCompliance(findings []models.ComplianceFinding) models.ComplianceRollup {
	seen := make(map[string]struct{})
	rollup := models.ComplianceRollup{ControlNames: []string{}}
	for _, f := range findings {
		rollup.ComplianceCount++
		if _, dup := seen[f.ControlName]; !dup {
			seen[f.ControlName] = struct{}{}
			rollup.ControlNames = append(rollup.ControlNames, f.ControlName)
		}
	}
	return rollup
}
