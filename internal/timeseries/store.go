package timeseries

import (
	"errors"
	"fmt"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

// Metric family names, also used as keys in exports.
const (
	FamilyLatency              = "latency"
	FamilyNodeUsage            = "node_usage"
	FamilyNodeAllocation       = "node_allocation"
	FamilyDeploymentUsage      = "deployment_usage"
	FamilyDeploymentAllocation = "deployment_allocation"
	FamilyDeploymentPods       = "deployment_pods"
)

// RunResult is one labeled run and every series built from it.
type RunResult struct {
	Label  string
	Rounds int // highest round index observed plus one

	Latency              *Family // percentile label -> millis
	NodeUsage            *Family // node id -> usage/capacity
	NodeAllocation       *Family // node id -> allocation/capacity
	DeploymentUsage      *Family // deployment id -> usage/allocation
	DeploymentAllocation *Family // deployment id -> allocation
	DeploymentPods       *Family // deployment id -> pods
}

// Families returns every family of the run in a fixed order.
func (r *RunResult) Families() []*Family {
	return []*Family{
		r.Latency,
		r.NodeUsage,
		r.NodeAllocation,
		r.DeploymentUsage,
		r.DeploymentAllocation,
		r.DeploymentPods,
	}
}

// Store accumulates measurements round by round into per-entity series.
// It is owned by a single ingestion pass and is not safe for concurrent use.
type Store struct {
	run       *RunResult
	lastRound int
}

// NewRunResult returns a labeled run with empty families.
func NewRunResult(label string, rounds int) *RunResult {
	return &RunResult{
		Label:                label,
		Rounds:               rounds,
		Latency:              NewFamily(FamilyLatency),
		NodeUsage:            NewFamily(FamilyNodeUsage),
		NodeAllocation:       NewFamily(FamilyNodeAllocation),
		DeploymentUsage:      NewFamily(FamilyDeploymentUsage),
		DeploymentAllocation: NewFamily(FamilyDeploymentAllocation),
		DeploymentPods:       NewFamily(FamilyDeploymentPods),
	}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		run:       NewRunResult("", 0),
		lastRound: -1,
	}
}

// BeginRound records that round exists even if it yields no measurements.
func (s *Store) BeginRound(round int) {
	if round > s.lastRound {
		s.lastRound = round
	}
}

// LastRound returns the highest round index seen, or -1.
func (s *Store) LastRound() int { return s.lastRound }

// Observe appends the values carried by m at round. Alignment problems are
// healed and returned alongside ratio errors; none of them stop ingestion.
func (s *Store) Observe(round int, m model.Measurement) error {
	s.BeginRound(round)

	switch v := m.(type) {
	case model.PercentileLatency:
		return s.run.Latency.Append(v.Label, round, v.Millis)

	case model.NodeStat:
		usage, err := v.UsageRatio()
		if err != nil {
			return err
		}
		alloc, err := v.AllocationRatio()
		if err != nil {
			return err
		}
		return errors.Join(
			s.run.NodeUsage.Append(v.NodeID, round, usage),
			s.run.NodeAllocation.Append(v.NodeID, round, alloc),
		)

	case model.DeploymentStat:
		usage, ratioErr := v.UsageRatio()
		var usageErr error
		if ratioErr == nil {
			usageErr = s.run.DeploymentUsage.Append(v.DeploymentID, round, usage)
		}
		return errors.Join(
			ratioErr,
			usageErr,
			s.run.DeploymentAllocation.Append(v.DeploymentID, round, float64(v.Allocation)),
			s.run.DeploymentPods.Append(v.DeploymentID, round, float64(v.Pods)),
		)

	case model.ErrorEvent:
		return nil

	case nil:
		return nil
	}
	return fmt.Errorf("timeseries: unsupported measurement %T", m)
}

// Finalize labels the accumulated run and returns it. The store must not be
// used afterwards.
func (s *Store) Finalize(label string) *RunResult {
	run := s.run
	run.Label = label
	run.Rounds = s.lastRound + 1
	s.run = nil
	return run
}
