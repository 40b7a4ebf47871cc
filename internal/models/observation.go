package models

import "time"

// DefaultMinecraftPort is assumed when the server address carries no port
const DefaultMinecraftPort uint16 = 25565

// PlayerCount is the online/max player summary reported by the server
type PlayerCount struct {
	Online int `json:"online"`
	Max    int `json:"max"`
}

// ServerDetails is the opaque descriptive data passed through to rendering.
// It is only ever populated for online observations.
type ServerDetails struct {
	Version     string   `json:"version,omitempty"`
	Software    string   `json:"software,omitempty"`
	MOTD        []string `json:"motd,omitempty"`
	Map         string   `json:"map,omitempty"`
	Gamemode    string   `json:"gamemode,omitempty"`
	Info        []string `json:"info,omitempty"`
	Plugins     []AddOn  `json:"plugins,omitempty"`
	Mods        []AddOn  `json:"mods,omitempty"`
	EULABlocked bool     `json:"eula_blocked,omitempty"`
	APIVersion  int      `json:"api_version,omitempty"`
}

// Observation is the result of one poll cycle. It is built once per cycle and
// never mutated afterwards.
type Observation struct {
	Online     bool      `json:"online"`
	Host       string    `json:"host"`
	Port       uint16    `json:"port"`
	LatencyMs  *int64    `json:"latency_ms,omitempty"`
	ObservedAt time.Time `json:"observed_at"`

	// Players is nil when the server did not report player counts
	Players *PlayerCount `json:"players,omitempty"`
	// OnlinePlayers may be empty even when Online is true (servers can hide the list)
	OnlinePlayers []string `json:"online_players,omitempty"`

	Details *ServerDetails `json:"details,omitempty"`
}

// NewObservation builds an observation and enforces that offline observations
// carry no players and no descriptive fields.
func NewObservation(online bool, host string, port uint16, latencyMs *int64, observedAt time.Time, players *PlayerCount, onlinePlayers []string, details *ServerDetails) *Observation {
	obs := &Observation{
		Online:     online,
		Host:       host,
		Port:       port,
		ObservedAt: observedAt,
	}
	if latencyMs != nil {
		v := *latencyMs
		obs.LatencyMs = &v
	}
	if !online {
		return obs
	}

	if players != nil {
		p := *players
		obs.Players = &p
	}
	if len(onlinePlayers) > 0 {
		obs.OnlinePlayers = append([]string(nil), onlinePlayers...)
	}
	if details != nil {
		d := *details
		obs.Details = &d
	}
	return obs
}

// OfflineObservation is the synthetic observation used when the status API is unreachable
func OfflineObservation(host string, port uint16, latencyMs *int64, observedAt time.Time) *Observation {
	return NewObservation(false, host, port, latencyMs, observedAt, nil, nil, nil)
}

// HasPlayerList reports whether the observation carries at least one online player name
func (o *Observation) HasPlayerList() bool {
	return o != nil && o.Online && len(o.OnlinePlayers) > 0
}
