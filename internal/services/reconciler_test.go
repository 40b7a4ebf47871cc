package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mcstatus/internal/config"
	"mcstatus/internal/discord"
	"mcstatus/internal/models"
)

const (
	testAddress = "play.example.net"
	botID       = "bot-1"
)

// fakePlatform is an in-memory channel
type fakePlatform struct {
	messages map[string]*models.DiscordMessage
	order    []string // newest first
	nextID   int

	fetchErr  error
	listErr   error
	createErr error
	editErr   error

	fetchCalls  int
	editCalls   int
	listCalls   int
	createCalls int
	edited      []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{messages: make(map[string]*models.DiscordMessage), nextID: 100}
}

func (p *fakePlatform) add(author string, title string) string {
	p.nextID++
	id := fmt.Sprintf("m%d", p.nextID)
	p.messages[id] = &models.DiscordMessage{
		ID:     id,
		Author: models.DiscordUser{ID: author},
		Embeds: []models.Embed{{Title: title}},
	}
	p.order = append([]string{id}, p.order...)
	return id
}

func (p *fakePlatform) FetchMessage(_ context.Context, id string) (*models.DiscordMessage, error) {
	p.fetchCalls++
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	msg, ok := p.messages[id]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", id, discord.ErrMessageNotFound)
	}
	return msg, nil
}

func (p *fakePlatform) EditMessage(_ context.Context, id string, embed *models.Embed) (*models.DiscordMessage, error) {
	p.editCalls++
	if p.editErr != nil {
		return nil, p.editErr
	}
	msg, ok := p.messages[id]
	if !ok {
		return nil, discord.ErrMessageNotFound
	}
	msg.Embeds = []models.Embed{*embed}
	p.edited = append(p.edited, id)
	return msg, nil
}

func (p *fakePlatform) ListRecentMessages(_ context.Context, limit int) ([]models.DiscordMessage, error) {
	p.listCalls++
	if p.listErr != nil {
		return nil, p.listErr
	}
	var out []models.DiscordMessage
	for _, id := range p.order {
		if len(out) == limit {
			break
		}
		out = append(out, *p.messages[id])
	}
	return out, nil
}

func (p *fakePlatform) CreateMessage(_ context.Context, embed *models.Embed) (*models.DiscordMessage, error) {
	p.createCalls++
	if p.createErr != nil {
		return nil, p.createErr
	}
	id := p.add(botID, embed.Title)
	return p.messages[id], nil
}

func (p *fakePlatform) SelfID(_ context.Context) (string, error) {
	return botID, nil
}

type memoryRefStore struct {
	id      string
	saves   int
	loadErr error
}

func (s *memoryRefStore) LastKnownID(context.Context) (string, error) {
	return s.id, s.loadErr
}

func (s *memoryRefStore) SaveID(_ context.Context, id string) error {
	s.saves++
	s.id = id
	return nil
}

func statusEmbed() *models.Embed {
	return &models.Embed{Title: StatusTitleMarker(testAddress)}
}

func TestReconciler_KnownMessageEdited(t *testing.T) {
	platform := newFakePlatform()
	id := platform.add(botID, StatusTitleMarker(testAddress))
	refs := &memoryRefStore{id: id}

	result := NewReconciler(platform, refs, testAddress, nil).Reconcile(context.Background(), statusEmbed())

	if !result.Synced || result.Step != StepKnown || result.MessageID != id {
		t.Fatalf("Unexpected result %+v", result)
	}
	if platform.listCalls != 0 || platform.createCalls != 0 {
		t.Errorf("Expected no list or create calls, got %d and %d", platform.listCalls, platform.createCalls)
	}
	if refs.saves != 0 {
		t.Errorf("Known id should not be re-saved, got %d saves", refs.saves)
	}
}

func TestReconciler_CreatesWhenNothingMatches(t *testing.T) {
	platform := newFakePlatform()
	// Oldest message, pushed out of the 50-message window by later traffic
	platform.add(botID, StatusTitleMarker(testAddress))
	for i := 0; i < 60; i++ {
		platform.add("someone-else", StatusTitleMarker(testAddress))
	}
	refs := &memoryRefStore{}

	result := NewReconciler(platform, refs, testAddress, nil).Reconcile(context.Background(), statusEmbed())

	if !result.Synced || result.Step != StepCreate {
		t.Fatalf("Expected create, got %+v", result)
	}
	if platform.createCalls != 1 {
		t.Errorf("Expected exactly one create, got %d", platform.createCalls)
	}
	if refs.id != result.MessageID {
		t.Errorf("Expected created id %s to be saved, got %s", result.MessageID, refs.id)
	}
	if platform.fetchCalls != 0 {
		t.Errorf("Expected no fetch without a known id, got %d", platform.fetchCalls)
	}
}

func TestReconciler_SearchFindsOwnMessage(t *testing.T) {
	tests := []struct {
		name     string
		knownID  string
		fetchErr error
	}{
		{name: "no known id"},
		{name: "known id deleted", knownID: "m-gone"},
		{name: "fetch transport error", knownID: "m-any", fetchErr: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := newFakePlatform()
			platform.fetchErr = tt.fetchErr
			platform.add("someone-else", StatusTitleMarker(testAddress))
			older := platform.add(botID, StatusTitleMarker(testAddress))
			platform.add(botID, "Unrelated announcement")
			platform.add(botID, StatusTitleMarker("other.example.net"))
			refs := &memoryRefStore{id: tt.knownID}

			result := NewReconciler(platform, refs, testAddress, nil).Reconcile(context.Background(), statusEmbed())

			if !result.Synced || result.Step != StepSearch || result.MessageID != older {
				t.Fatalf("Expected search to find %s, got %+v", older, result)
			}
			if refs.id != older {
				t.Errorf("Expected found id to be saved, got %q", refs.id)
			}
			if platform.createCalls != 0 {
				t.Errorf("Expected no create, got %d", platform.createCalls)
			}
		})
	}
}

func TestReconciler_MarkerMatchesTitleWithPort(t *testing.T) {
	platform := newFakePlatform()
	id := platform.add(botID, "Minecraft Server Status: play.example.net:19132")

	result := NewReconciler(platform, &memoryRefStore{}, testAddress, nil).Reconcile(context.Background(), statusEmbed())

	if result.Step != StepSearch || result.MessageID != id {
		t.Errorf("Expected title containing the address to match, got %+v", result)
	}
}

func TestReconciler_SearchMatchesRenderedTitle(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		obsPort  uint16
		wantText string
	}{
		{name: "default port in address", address: "play.example.net:25565", obsPort: 25565, wantText: "Minecraft Server Status: play.example.net"},
		{name: "no port in address", address: "play.example.net", obsPort: 25565, wantText: "Minecraft Server Status: play.example.net"},
		{name: "custom port", address: "play.example.net:25570", obsPort: 25570, wantText: "Minecraft Server Status: play.example.net:25570"},
		{name: "no port, server reports custom port", address: "play.example.net", obsPort: 25570, wantText: "Minecraft Server Status: play.example.net:25570"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, _ := config.SplitServerAddress(tt.address)
			obs := models.NewObservation(true, host, tt.obsPort, nil, time.Now(), &models.PlayerCount{Online: 1, Max: 20}, []string{"Steve"}, nil)
			embed := NewEmbedRenderer().Render(obs, nil, time.Now())
			if embed.Title != tt.wantText {
				t.Fatalf("Expected rendered title %q, got %q", tt.wantText, embed.Title)
			}

			platform := newFakePlatform()
			id := platform.add(botID, embed.Title)

			result := NewReconciler(platform, &memoryRefStore{}, tt.address, nil).Reconcile(context.Background(), embed)

			if !result.Synced || result.Step != StepSearch || result.MessageID != id {
				t.Errorf("Expected search to find %s for %s, got %+v (marker %q)", id, tt.address, result, StatusTitleMarker(tt.address))
			}
			if platform.createCalls != 0 {
				t.Errorf("Expected no duplicate message, got %d creates", platform.createCalls)
			}
		})
	}
}

func TestReconciler_ListErrorFallsBackToCreate(t *testing.T) {
	platform := newFakePlatform()
	platform.listErr = errors.New("503 service unavailable")
	refs := &memoryRefStore{}

	result := NewReconciler(platform, refs, testAddress, nil).Reconcile(context.Background(), statusEmbed())

	if !result.Synced || result.Step != StepCreate || platform.createCalls != 1 {
		t.Errorf("Expected create fallback, got %+v (creates=%d)", result, platform.createCalls)
	}
}

func TestReconciler_CreateFailureIsTerminal(t *testing.T) {
	platform := newFakePlatform()
	platform.createErr = errors.New("missing permissions")
	refs := &memoryRefStore{id: "m-stale"}

	result := NewReconciler(platform, refs, testAddress, nil).Reconcile(context.Background(), statusEmbed())

	if result.Synced {
		t.Fatalf("Expected unsynced result, got %+v", result)
	}
	if result.Reason == "" {
		t.Error("Expected a failure reason")
	}
	if platform.createCalls != 1 {
		t.Errorf("Expected a single create attempt, got %d", platform.createCalls)
	}
	if refs.id != "m-stale" || refs.saves != 0 {
		t.Errorf("Known id must not be cleared or overwritten, got %q (%d saves)", refs.id, refs.saves)
	}
}

func TestReconciler_SubsequentCycleReusesCreatedMessage(t *testing.T) {
	platform := newFakePlatform()
	refs := &memoryRefStore{}
	reconciler := NewReconciler(platform, refs, testAddress, nil)

	first := reconciler.Reconcile(context.Background(), statusEmbed())
	second := reconciler.Reconcile(context.Background(), statusEmbed())

	if first.Step != StepCreate || second.Step != StepKnown || first.MessageID != second.MessageID {
		t.Errorf("Expected create then known on the same message, got %+v then %+v", first, second)
	}
	if platform.createCalls != 1 {
		t.Errorf("Expected a single message to be created, got %d", platform.createCalls)
	}
}
