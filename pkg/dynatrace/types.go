package dynatrace

// Response payloads for the four endpoint categories the daily digest reads.
// The shapes follow the platform's v2 environment API but only carry the
// fields the aggregator consumes.

type Problem struct {
	ProblemID     string `json:"problemId"`
	Title         string `json:"title"`
	SeverityLevel string `json:"severityLevel"` // ERROR, WARNING, ...
	Status        string `json:"status"`        // OPEN or CLOSED
	StartTime     int64  `json:"startTime"`     // epoch millis
}

type ProblemsResponse struct {
	TotalCount int       `json:"totalCount"`
	Problems   []Problem `json:"problems"`
}

type EntityProperties struct {
	InstallerVersion string `json:"installerVersion,omitempty"`
	MonitoringMode   string `json:"monitoringMode,omitempty"`
	State            string `json:"state,omitempty"`
}

type Entity struct {
	EntityID    string           `json:"entityId"`
	DisplayName string           `json:"displayName"`
	Properties  EntityProperties `json:"properties"`
}

type EntitiesResponse struct {
	TotalCount int      `json:"totalCount"`
	Entities   []Entity `json:"entities"`
}

type ActiveGate struct {
	ID        string `json:"id"`
	Connected bool   `json:"connected"`
	Version   string `json:"version,omitempty"`
	OSType    string `json:"osType,omitempty"`
}

type ActiveGatesResponse struct {
	ActiveGates []ActiveGate `json:"activeGates"`
}

type SyntheticMonitor struct {
	EntityID string `json:"entityId"`
	Name     string `json:"name"`
	Enabled  bool   `json:"enabled"`
	Status   string `json:"status,omitempty"` // SUCCESS or FAILING when reported
}

type SyntheticMonitorsResponse struct {
	Monitors []SyntheticMonitor `json:"monitors"`
}
