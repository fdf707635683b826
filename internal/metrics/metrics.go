// Package metrics produces the snapshot pushed to LAN clients: a short
// system header plus a flat, display-ready list of readings.
package metrics

// Source supplies one snapshot per call. The web server does not look
// inside the value; it only serializes it.
type Source interface {
	Snapshot() (any, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (any, error)

func (f SourceFunc) Snapshot() (any, error) { return f() }

// Payload is the JSON document sent to browsers. Field names are kept short
// because it is pushed every second.
type Payload struct {
	Sys   SysInfo `json:"sys"`
	Items []Item  `json:"items"`
}

type SysInfo struct {
	Host   string `json:"host"`
	IP     string `json:"ip"`
	Port   int    `json:"port"`
	Uptime string `json:"uptime"`
}

type Item struct {
	Key       string  `json:"k"`
	Name      string  `json:"n"`
	Value     string  `json:"v"`
	Unit      string  `json:"u"`
	GroupID   string  `json:"gid"`
	GroupName string  `json:"gn"`
	Pct       float64 `json:"pct"`
	Status    Status  `json:"sts"`
	Primary   bool    `json:"primary"`
}

// Status is the colour state of a reading.
type Status int

const (
	StatusNormal Status = iota
	StatusWarn
	StatusCrit
)
