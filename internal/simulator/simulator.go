// Package simulator builds named what-if fee scenarios over a fixed base
// table of services. The base table is copied at construction and never
// mutated; every scenario is a complete, self-contained snapshot.
package simulator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mol-insights/feestrat-cli/internal/ingest"
	"github.com/mol-insights/feestrat-cli/internal/model"
)

// Simulator owns the base service table and a named scenario registry.
// Registry writes are last-write-wins per name and mutex guarded, so one
// instance can back a multi-user server.
type Simulator struct {
	base []model.ServiceRecord

	mu        sync.Mutex
	scenarios map[string]model.Scenario
	order     []string
}

// New copies the given records into a fresh simulator. Later edits to the
// caller's slice do not affect the base table.
func New(records []model.ServiceRecord) *Simulator {
	base := make([]model.ServiceRecord, len(records))
	for i, rec := range records {
		cp := rec
		cp.RequestsByYear = make(map[int]int, len(rec.RequestsByYear))
		for y, n := range rec.RequestsByYear {
			cp.RequestsByYear[y] = n
		}
		base[i] = cp
	}
	return &Simulator{
		base:      base,
		scenarios: make(map[string]model.Scenario),
	}
}

// BaselineRevenue sums annual revenue over the unmodified base table.
func (s *Simulator) BaselineRevenue() float64 {
	var total float64
	for _, rec := range s.base {
		total += rec.AnnualRevenue
	}
	return total
}

// CreateScenario applies the fee changes to a copy of the base table and
// registers the result under name, replacing any prior scenario with that
// name. Changes naming services not in the base table are silently
// dropped. The per-service breakdown preserves the order the changes were
// listed in.
func (s *Simulator) CreateScenario(name, description string, changes []model.FeeChange) model.Scenario {
	services := make([]model.ServiceRecord, len(s.base))
	copy(services, s.base)

	index := make(map[string]int, len(services))
	for i, rec := range services {
		index[rec.Name] = i
	}

	var applied []model.ScenarioChange
	for _, change := range changes {
		i, ok := index[change.Service]
		if !ok {
			continue
		}
		before := services[i]
		after := before.WithFee(change.NewFee)
		services[i] = after
		applied = append(applied, model.ScenarioChange{
			Service:       change.Service,
			OriginalFee:   before.CurrentFee,
			NewFee:        change.NewFee,
			Requests:      before.TotalRequests,
			RevenueChange: after.AnnualRevenue - before.AnnualRevenue,
		})
	}

	var total float64
	for _, rec := range services {
		total += rec.AnnualRevenue
	}

	baseline := s.BaselineRevenue()
	sc := model.Scenario{
		Name:             name,
		Description:      description,
		Changes:          applied,
		Services:         services,
		TotalRevenue:     total,
		BaselineRevenue:  baseline,
		RevenueIncrease:  total - baseline,
		ServicesModified: len(applied),
		CreatedAt:        time.Now(),
	}
	if baseline > 0 {
		sc.RevenueIncreasePct = sc.RevenueIncrease / baseline * 100
	}

	s.save(sc)

	zap.L().Info("simulator: scenario created",
		zap.String("scenario", name),
		zap.Int("services_modified", sc.ServicesModified),
		zap.Float64("revenue_increase", sc.RevenueIncrease),
	)

	return sc
}

// ApplyCategoryFee assigns one flat fee to every service in the category.
// With onlyNoFee set, services that already charge something are left
// untouched. Zero matches yields a valid no-op scenario.
func (s *Simulator) ApplyCategoryFee(name, category string, fee float64, onlyNoFee bool) model.Scenario {
	var changes []model.FeeChange
	for _, rec := range s.base {
		if rec.Category != category {
			continue
		}
		if onlyNoFee && rec.CurrentFee != 0 {
			continue
		}
		changes = append(changes, model.FeeChange{Service: rec.Name, NewFee: fee})
	}

	desc := fmt.Sprintf("Flat fee %.0f for category %s", fee, category)
	return s.CreateScenario(name, desc, changes)
}

// ApplyTieredFees monetizes currently free services by request volume:
// at or above threshold gets highFee, from threshold/4 up gets mediumFee,
// the rest get lowFee. Services with an existing fee are never touched.
func (s *Simulator) ApplyTieredFees(name string, threshold int, highFee, mediumFee, lowFee float64) model.Scenario {
	mediumFloor := threshold / 4

	var changes []model.FeeChange
	for _, rec := range s.base {
		if rec.CurrentFee != 0 {
			continue
		}
		fee := lowFee
		switch {
		case rec.TotalRequests >= threshold:
			fee = highFee
		case rec.TotalRequests >= mediumFloor:
			fee = mediumFee
		}
		changes = append(changes, model.FeeChange{Service: rec.Name, NewFee: fee})
	}

	desc := fmt.Sprintf("Tiered fees %.0f/%.0f/%.0f at volume threshold %d", highFee, mediumFee, lowFee, threshold)
	return s.CreateScenario(name, desc, changes)
}

// OptimizeForTarget greedily assigns fees to currently free services,
// highest volume first, until target revenue is reached or the pool runs
// out. Each fee is capped at maxFee and rounded to a whole unit; a fee
// that rounds to zero is skipped. The result may overshoot the target,
// and an undershoot is reported in the scenario rather than errored.
func (s *Simulator) OptimizeForTarget(name string, target, maxFee float64) model.Scenario {
	baseline := s.BaselineRevenue()
	if target <= baseline {
		return s.CreateScenario(name, "Target already met by current revenue", nil)
	}

	free := make([]model.ServiceRecord, 0, len(s.base))
	for _, rec := range s.base {
		if rec.CurrentFee == 0 {
			free = append(free, rec)
		}
	}
	sort.SliceStable(free, func(i, j int) bool {
		return free[i].TotalRequests > free[j].TotalRequests
	})

	remaining := target - baseline
	var changes []model.FeeChange
	for _, rec := range free {
		if remaining <= 0 {
			break
		}
		if rec.TotalRequests == 0 {
			continue
		}
		fee := math.Round(remaining / float64(rec.TotalRequests))
		if fee > maxFee {
			fee = math.Round(maxFee)
		}
		if fee == 0 {
			continue
		}
		changes = append(changes, model.FeeChange{Service: rec.Name, NewFee: fee})
		remaining -= fee * float64(rec.TotalRequests)
	}

	desc := fmt.Sprintf("Greedy fee assignment toward target revenue %.0f (max fee %.0f)", target, maxFee)
	return s.CreateScenario(name, desc, changes)
}

// Scenario returns the named scenario from the registry.
func (s *Simulator) Scenario(name string) (model.Scenario, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenarios[name]
	return sc, ok
}

// Scenarios lists all registered scenarios in insertion order.
func (s *Simulator) Scenarios() []model.Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Scenario, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.scenarios[name])
	}
	return out
}

// CompareScenarios builds the comparison table: a synthetic baseline row
// first, then one row per requested name that exists, in the order given.
// With no names, all registered scenarios are compared in insertion order.
func (s *Simulator) CompareScenarios(names ...string) []model.ComparisonRow {
	rows := []model.ComparisonRow{{
		Scenario:     "baseline",
		TotalRevenue: s.BaselineRevenue(),
	}}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(names) == 0 {
		names = s.order
	}
	for _, name := range names {
		sc, ok := s.scenarios[name]
		if !ok {
			continue
		}
		rows = append(rows, model.ComparisonRow{
			Scenario:         sc.Name,
			TotalRevenue:     sc.TotalRevenue,
			RevenueIncrease:  sc.RevenueIncrease,
			IncreasePct:      sc.RevenueIncreasePct,
			ServicesModified: sc.ServicesModified,
		})
	}
	return rows
}

// ExportScenario writes the named scenario's resulting table to an xlsx
// workbook. Unknown names are a silent no-op.
func (s *Simulator) ExportScenario(name, path string) error {
	sc, ok := s.Scenario(name)
	if !ok {
		return nil
	}
	return WriteScenarioWorkbook(sc, path)
}

// WriteScenarioWorkbook writes a scenario's resulting table as a
// five-column workbook (service, category, requests, fee, revenue).
func WriteScenarioWorkbook(sc model.Scenario, path string) error {
	header := []string{"Service", "Category", "Requests", "Fee", "Annual Revenue"}
	rows := make([][]string, len(sc.Services))
	for i, rec := range sc.Services {
		rows[i] = []string{
			rec.Name,
			rec.Category,
			strconv.Itoa(rec.TotalRequests),
			strconv.FormatFloat(rec.CurrentFee, 'f', -1, 64),
			strconv.FormatFloat(rec.AnnualRevenue, 'f', -1, 64),
		}
	}

	return ingest.WriteWorkbook(path, sc.Name, header, rows)
}

func (s *Simulator) save(sc model.Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.scenarios[sc.Name]; !exists {
		s.order = append(s.order, sc.Name)
	}
	s.scenarios[sc.Name] = sc
}
