package services

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"mcstatus/internal/config"
	"mcstatus/internal/models"
)

// StatusProvider is the status API collaborator
type StatusProvider interface {
	GetStatus(ctx context.Context, address string) (*models.StatusDocument, error)
}

// LatencyProber measures round-trip latency; ok=false means unknown
type LatencyProber interface {
	Probe(ctx context.Context, host string, port uint16) (latencyMs int64, ok bool)
}

// StatusFetcher combines the status API and the latency probe into one Observation
type StatusFetcher struct {
	api    StatusProvider
	prober LatencyProber
	now    func() time.Time
}

// NewStatusFetcher creates a fetcher
func NewStatusFetcher(api StatusProvider, prober LatencyProber) *StatusFetcher {
	return &StatusFetcher{api: api, prober: prober, now: time.Now}
}

// WithClock replaces the fetcher clock (tests)
func (f *StatusFetcher) WithClock(now func() time.Time) *StatusFetcher {
	f.now = now
	return f
}

// Fetch always returns a well-formed observation. API failures become an
// offline observation for the requested host that still carries the probe latency.
func (f *StatusFetcher) Fetch(ctx context.Context, address string) *models.Observation {
	host, port := config.SplitServerAddress(address)

	// The probe only targets the game port when the address names one
	var probePort uint16
	if _, _, err := net.SplitHostPort(address); err == nil {
		probePort = port
	}

	var (
		wg       sync.WaitGroup
		latency  *int64
		doc      *models.StatusDocument
		fetchErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if f.prober == nil {
			return
		}
		if ms, ok := f.prober.Probe(ctx, host, probePort); ok {
			latency = &ms
		}
	}()
	go func() {
		defer wg.Done()
		doc, fetchErr = f.api.GetStatus(ctx, address)
	}()
	wg.Wait()

	observedAt := f.now()

	if fetchErr != nil {
		log.Printf("⚠️  [STATUS] Status API failed for %s, reporting offline: %v", address, fetchErr)
		return models.OfflineObservation(host, port, latency, observedAt)
	}

	return observationFromDocument(doc, host, port, latency, observedAt)
}

func observationFromDocument(doc *models.StatusDocument, host string, port uint16, latency *int64, observedAt time.Time) *models.Observation {
	if doc.Port > 0 && doc.Port <= 65535 {
		port = uint16(doc.Port)
	}

	var (
		players *models.PlayerCount
		names   []string
	)
	if doc.Players != nil {
		players = &models.PlayerCount{Online: doc.Players.Online, Max: doc.Players.Max}
		for _, p := range doc.Players.List {
			if p.Name != "" {
				names = append(names, p.Name)
			}
		}
	}

	details := &models.ServerDetails{
		Version:     doc.Version,
		Software:    doc.Software,
		Gamemode:    doc.Gamemode,
		Plugins:     doc.Plugins,
		Mods:        doc.Mods,
		EULABlocked: doc.EULABlocked,
	}
	if doc.MOTD != nil {
		details.MOTD = doc.MOTD.Clean
	}
	if doc.Info != nil {
		details.Info = doc.Info.Clean
	}
	if doc.Map != nil {
		details.Map = doc.Map.Clean
	}
	if doc.Debug != nil {
		details.APIVersion = doc.Debug.APIVersion
	}

	return models.NewObservation(doc.Online, host, port, latency, observedAt, players, names, details)
}
