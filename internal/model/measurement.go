package model

import "fmt"

// Measurement is one typed value parsed from a line of a closed round.
// The concrete types are PercentileLatency, NodeStat, DeploymentStat and ErrorEvent.
type Measurement interface {
	measurement()
}

// PercentileLatency is a latency percentile normalized to milliseconds.
type PercentileLatency struct {
	Label  string
	Millis float64
}

// NodeStat is the per-round capacity, allocation and usage of one node.
type NodeStat struct {
	NodeID     string
	Capacity   int64
	Allocation int64
	Usage      int64
}

// DeploymentStat is the per-round allocation, usage and pod count of one deployment.
type DeploymentStat struct {
	DeploymentID string
	Allocation   int64
	Usage        int64
	Pods         int64
}

// ErrorEvent is a line the monitored process flagged as an error.
type ErrorEvent struct {
	Text string
}

func (PercentileLatency) measurement() {}
func (NodeStat) measurement()          {}
func (DeploymentStat) measurement()    {}
func (ErrorEvent) measurement()        {}

// UsageRatio returns usage / capacity.
func (n NodeStat) UsageRatio() (float64, error) {
	return ratio(n.Usage, n.Capacity, "node "+n.NodeID+" capacity")
}

// AllocationRatio returns allocation / capacity.
func (n NodeStat) AllocationRatio() (float64, error) {
	return ratio(n.Allocation, n.Capacity, "node "+n.NodeID+" capacity")
}

// UsageRatio returns usage / allocation.
func (d DeploymentStat) UsageRatio() (float64, error) {
	return ratio(d.Usage, d.Allocation, "deployment "+d.DeploymentID+" allocation")
}

func ratio(num, den int64, what string) (float64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%s: %w", what, ErrZeroDenominator)
	}
	return float64(num) / float64(den), nil
}
