// Package summarize renders consolidated state changes into the textual
// descriptions fed to the annotator: a flat per-change list and a grouped
// per-component digest.
package summarize

import (
	"encoding/json"
	"fmt"

	"github.com/joss/sessionlens/internal/aggregate"
)

// ProcessedChanges lists one human-readable description per consolidated
// change, in consolidation order.
type ProcessedChanges struct {
	ConfigurationChanges    []string `json:"configuration_changes"`
	ConfigurationRowChanges []string `json:"configuration_row_changes"`
	TableOperations         []string `json:"table_operations"`
	JobExecutions           []string `json:"job_executions"`
}

// GroupedSummary condenses configuration activity: created and modified
// configurations grouped by component type, rows grouped by parent
// configuration. A group of one gets a detailed sentence, larger groups a
// count.
type GroupedSummary struct {
	CreatedConfigurations  []string `json:"created_configurations"`
	ModifiedConfigurations []string `json:"modified_configurations"`
	CreatedRows            []string `json:"created_configuration_rows"`
	ModifiedRows           []string `json:"modified_configuration_rows"`
}

// parameters pulls the "parameters" subtree of a state and renders it as
// compact JSON.
func parameters(state map[string]any) (string, bool) {
	raw, ok := state["parameters"]
	if !ok {
		return "", false
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Process renders every consolidated change as one description line.
func Process(sc *aggregate.StateChanges) *ProcessedChanges {
	pc := &ProcessedChanges{
		ConfigurationChanges:    []string{},
		ConfigurationRowChanges: []string{},
		TableOperations:         []string{},
		JobExecutions:           []string{},
	}

	for _, c := range sc.CreatedConfigurations {
		d := fmt.Sprintf("Created configuration %s of type %s", c.ID, c.ComponentID)
		if p, ok := parameters(c.Final); ok {
			d += " with parameters: " + p
		}
		pc.ConfigurationChanges = append(pc.ConfigurationChanges, d)
	}
	for _, c := range sc.ModifiedConfigurations {
		d := fmt.Sprintf("Modified configuration %s of type %s", c.ID, c.ComponentID)
		// Parameter diff is rendered only when both sides carry parameters.
		if _, ok := parameters(c.Initial); ok {
			if p, ok := parameters(c.Final); ok {
				d += ". Changes in parameters: " + p
			}
		}
		pc.ConfigurationChanges = append(pc.ConfigurationChanges, d)
	}
	for _, c := range sc.DeletedConfigurations {
		pc.ConfigurationChanges = append(pc.ConfigurationChanges,
			fmt.Sprintf("Deleted configuration %s of type %s", c.ID, c.ComponentID))
	}

	for _, r := range sc.CreatedRows {
		d := fmt.Sprintf("Created configuration row %s for configuration %s of type %s", r.ID, r.ConfigurationID, r.ComponentID)
		if p, ok := parameters(r.Final); ok {
			d += " with parameters: " + p
		}
		pc.ConfigurationRowChanges = append(pc.ConfigurationRowChanges, d)
	}
	for _, r := range sc.ModifiedRows {
		d := fmt.Sprintf("Modified configuration row %s for configuration %s of type %s", r.ID, r.ConfigurationID, r.ComponentID)
		if _, ok := parameters(r.Initial); ok {
			if p, ok := parameters(r.Final); ok {
				d += ". Changes in parameters: " + p
			}
		}
		pc.ConfigurationRowChanges = append(pc.ConfigurationRowChanges, d)
	}
	for _, r := range sc.DeletedRows {
		pc.ConfigurationRowChanges = append(pc.ConfigurationRowChanges,
			fmt.Sprintf("Deleted configuration row %s for configuration %s of type %s", r.ID, r.ConfigurationID, r.ComponentID))
	}

	for _, tbl := range sc.AffectedTables {
		for _, op := range tbl.Operations {
			d := fmt.Sprintf("Table %s: %s", tbl.TableID, op.EventType)
			if op.Message != "" {
				d += " - " + op.Message
			}
			pc.TableOperations = append(pc.TableOperations, d)
		}
	}

	for _, j := range sc.ExecutedJobs {
		d := fmt.Sprintf("Job %s for configuration %s executed with status %s", j.JobID, j.ConfigurationID, j.Status)
		if j.ErrorMessage != "" {
			d += ". Error: " + j.ErrorMessage
		}
		pc.JobExecutions = append(pc.JobExecutions, d)
	}

	return pc
}

// groupBy buckets entities by key, keeping the order keys first appear.
func groupBy(entities []aggregate.EntityState, key func(aggregate.EntityState) string) ([]string, map[string][]aggregate.EntityState) {
	groups := make(map[string][]aggregate.EntityState)
	var order []string
	for _, e := range entities {
		k := key(e)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}
	return order, groups
}

func byComponent(e aggregate.EntityState) string     { return e.ComponentID }
func byConfiguration(e aggregate.EntityState) string { return e.ConfigurationID }

// Group builds the condensed configuration digest.
func Group(sc *aggregate.StateChanges) *GroupedSummary {
	gs := &GroupedSummary{
		CreatedConfigurations:  []string{},
		ModifiedConfigurations: []string{},
		CreatedRows:            []string{},
		ModifiedRows:           []string{},
	}

	order, groups := groupBy(sc.CreatedConfigurations, byComponent)
	for _, component := range order {
		configs := groups[component]
		if len(configs) == 1 {
			d := fmt.Sprintf("Created a %s configuration", component)
			if p, ok := parameters(configs[0].Final); ok {
				d += " with parameters: " + p
			}
			gs.CreatedConfigurations = append(gs.CreatedConfigurations, d)
			continue
		}
		gs.CreatedConfigurations = append(gs.CreatedConfigurations,
			fmt.Sprintf("Created %d %s configurations", len(configs), component))
	}

	order, groups = groupBy(sc.ModifiedConfigurations, byComponent)
	for _, component := range order {
		configs := groups[component]
		if len(configs) == 1 {
			d := fmt.Sprintf("Modified a %s configuration", component)
			if p, ok := parameters(configs[0].Final); ok {
				d += " with updated parameters: " + p
			}
			gs.ModifiedConfigurations = append(gs.ModifiedConfigurations, d)
			continue
		}
		gs.ModifiedConfigurations = append(gs.ModifiedConfigurations,
			fmt.Sprintf("Modified %d %s configurations", len(configs), component))
	}

	order, groups = groupBy(sc.CreatedRows, byConfiguration)
	for _, configurationID := range order {
		rows := groups[configurationID]
		if len(rows) == 1 {
			d := fmt.Sprintf("Created a configuration row for configuration %s", configurationID)
			if p, ok := parameters(rows[0].Final); ok {
				d += " with parameters: " + p
			}
			gs.CreatedRows = append(gs.CreatedRows, d)
			continue
		}
		gs.CreatedRows = append(gs.CreatedRows,
			fmt.Sprintf("Created %d configuration rows for configuration %s", len(rows), configurationID))
	}

	order, groups = groupBy(sc.ModifiedRows, byConfiguration)
	for _, configurationID := range order {
		rows := groups[configurationID]
		if len(rows) == 1 {
			d := fmt.Sprintf("Modified a configuration row for configuration %s", configurationID)
			if p, ok := parameters(rows[0].Final); ok {
				d += " with updated parameters: " + p
			}
			gs.ModifiedRows = append(gs.ModifiedRows, d)
			continue
		}
		gs.ModifiedRows = append(gs.ModifiedRows,
			fmt.Sprintf("Modified %d configuration rows for configuration %s", len(rows), configurationID))
	}

	return gs
}
