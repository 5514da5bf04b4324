package types

// ProgressUpdate is one progress event parsed from the analysis subprocess
// output and relayed to websocket listeners subscribed to the session.
type ProgressUpdate struct {
	SessionID   string  `json:"sessionId"`
	Percentage  float64 `json:"percentage"`
	Description string  `json:"description"`
}
