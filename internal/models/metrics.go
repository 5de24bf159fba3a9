package models

import "time"

// MetricsSnapshot summarises client activity for the health endpoint.
type MetricsSnapshot struct {
	ConsoleRequests             uint64    `json:"consoleRequests"`
	AverageConsoleRequestMs     float64   `json:"averageConsoleRequestMs"`
	RemoteCalls                 uint64    `json:"remoteCalls"`
	RemoteFailures              uint64    `json:"remoteFailures"`
	AverageRemoteCallDurationMs float64   `json:"averageRemoteCallDurationMs"`
	PushMessages                uint64    `json:"pushMessages"`
	PushState                   string    `json:"pushState"`
	Goroutines                  int       `json:"goroutines"`
	GeneratedAt                 time.Time `json:"generatedAt"`
}
