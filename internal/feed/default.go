package feed

import "github.com/miradorstack/mirador-clusterview/internal/models"

// defaultDocument is the synthetic seed used when no feed file is configured.
const defaultDocument = `
metrics:
  cpuUsage: 42
  memoryUsage: 38
  podCount: 24
  nodeCount: 3
  healthyPods: 23
  unhealthyPods: 1
alerts:
  - id: "1"
    timestamp: "2024-03-18T09:23:45"
    severity: high
    message: Unusual pod activity detected
    anomalyScore: 0.89
  - id: "2"
    timestamp: "2024-03-17T14:12:30"
    severity: medium
    message: Potential privilege escalation
    anomalyScore: 0.72
  - id: "3"
    timestamp: "2024-03-15T22:45:12"
    severity: low
    message: Uncommon API access pattern
    anomalyScore: 0.62
compliance:
  passed: 37
  failed: 4
  warning: 8
  lastRun: "2024-03-17T08:30:00"
history:
  - period: Jan
    incidents: 12
    complianceScore: 92
  - period: Feb
    incidents: 8
    complianceScore: 94
  - period: Mar
    incidents: 5
    complianceScore: 96
`

// Default returns the built-in synthetic snapshot.
func Default() models.Snapshot {
	snap, err := Parse([]byte(defaultDocument))
	if err != nil {
		panic("feed: built-in document is invalid: " + err.Error())
	}
	return snap
}
