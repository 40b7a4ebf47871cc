package services

import (
	"strings"
	"testing"
	"time"

	"mcstatus/internal/models"
)

func findField(embed *models.Embed, name string) *models.EmbedField {
	for i := range embed.Fields {
		if embed.Fields[i].Name == name {
			return &embed.Fields[i]
		}
	}
	return nil
}

func onlineObservation() *models.Observation {
	latency := int64(150)
	return models.NewObservation(true, "play.example.net", 25565, &latency, baseTime,
		&models.PlayerCount{Online: 2, Max: 20},
		[]string{"Steve", "Alex"},
		&models.ServerDetails{
			Version:    "1.21.4",
			Software:   "Paper",
			MOTD:       []string{"Welcome", "to the server "},
			Map:        "world",
			APIVersion: 3,
		})
}

func TestEmbedRenderer_Online(t *testing.T) {
	recent := []models.PresenceRecord{
		{Name: "Herobrine", LastSeenAt: baseTime.Add(-2 * time.Hour)},
		{Name: "Notch", LastSeenAt: baseTime.Add(-3 * 24 * time.Hour)},
	}

	embed := NewEmbedRenderer().Render(onlineObservation(), recent, baseTime)

	if embed.Title != "Minecraft Server Status: play.example.net" {
		t.Errorf("Unexpected title %q", embed.Title)
	}
	if embed.Color != ColorOnline {
		t.Errorf("Expected online colour, got %#x", embed.Color)
	}
	if embed.Description != "**MOTD:**\nWelcome\nto the server" {
		t.Errorf("Unexpected description %q", embed.Description)
	}
	if embed.Thumbnail == nil || embed.Thumbnail.URL != DefaultServerIcon {
		t.Errorf("Expected default icon thumbnail, got %+v", embed.Thumbnail)
	}

	checks := map[string]string{
		"Status":            "🟢 Online",
		"Version":           "1.21.4",
		"Software":          "Paper",
		"👥 Players":         "2/20",
		"🎮 Online Players":  "Steve, Alex",
		"👻 Recently Online": "Herobrine (2 hours ago)\nNotch (3 days ago)",
		"🗺️ Map":            "world",
	}
	for name, want := range checks {
		field := findField(embed, name)
		if field == nil {
			t.Errorf("Missing field %q", name)
			continue
		}
		if field.Value != want {
			t.Errorf("Field %q = %q, want %q", name, field.Value, want)
		}
	}

	if embed.Footer == nil || embed.Footer.Text != "Last updated | Ping: 🟡 150ms | API v3" {
		t.Errorf("Unexpected footer %+v", embed.Footer)
	}
}

func TestEmbedRenderer_Offline(t *testing.T) {
	obs := models.OfflineObservation("play.example.net", 25570, nil, baseTime)

	embed := NewEmbedRenderer().Render(obs, []models.PresenceRecord{{Name: "Steve", LastSeenAt: baseTime}}, baseTime)

	if embed.Title != "Minecraft Server Status: play.example.net:25570" {
		t.Errorf("Unexpected title %q", embed.Title)
	}
	if embed.Color != ColorOffline {
		t.Errorf("Expected offline colour, got %#x", embed.Color)
	}
	if embed.Description != "⚠️ **Server is offline** ⚠️" {
		t.Errorf("Unexpected description %q", embed.Description)
	}
	if len(embed.Fields) != 0 {
		t.Errorf("Offline embed should have no fields, got %+v", embed.Fields)
	}
	if embed.Footer == nil || embed.Footer.Text != "Last updated" {
		t.Errorf("Unexpected footer %+v", embed.Footer)
	}
}

func TestEmbedRenderer_OmitsMissingSections(t *testing.T) {
	obs := models.NewObservation(true, "play.example.net", 25565, nil, baseTime, nil, nil, nil)

	embed := NewEmbedRenderer().Render(obs, nil, baseTime)

	if field := findField(embed, "Version"); field == nil || field.Value != "Unknown" {
		t.Errorf("Expected Unknown version, got %+v", field)
	}
	for _, name := range []string{"Software", "👥 Players", "🎮 Online Players", "👻 Recently Online", "🗺️ Map", "🧩 Plugins"} {
		if findField(embed, name) != nil {
			t.Errorf("Expected %q to be omitted", name)
		}
	}
	if embed.Description != "" {
		t.Errorf("Expected no description, got %q", embed.Description)
	}
}

func TestEmbedRenderer_VanillaSoftwareHidden(t *testing.T) {
	obs := models.NewObservation(true, "play.example.net", 25565, nil, baseTime, nil, nil,
		&models.ServerDetails{Software: "Vanilla", Gamemode: "Survival", EULABlocked: true, Info: []string{"line one", "line two"}})

	embed := NewEmbedRenderer().Render(obs, nil, baseTime)

	if findField(embed, "Software") != nil {
		t.Error("Vanilla software should not be shown")
	}
	if field := findField(embed, "🎮 Gamemode"); field == nil || field.Value != "Survival" {
		t.Errorf("Expected gamemode field, got %+v", field)
	}
	if findField(embed, "⚠️ EULA Warning") == nil {
		t.Error("Expected EULA warning")
	}
	if field := findField(embed, "Additional Info"); field == nil || field.Value != "line one\nline two" {
		t.Errorf("Unexpected info field %+v", field)
	}
}

func TestEmbedRenderer_AddOnList(t *testing.T) {
	var mods []models.AddOn
	for i := 0; i < 12; i++ {
		mods = append(mods, models.AddOn{Name: string(rune('a' + i)), Version: "1"})
	}
	plugins := []models.AddOn{{Name: "WorldEdit"}, {Name: "LuckPerms", Version: "5.4"}}

	obs := models.NewObservation(true, "play.example.net", 25565, nil, baseTime, nil, nil,
		&models.ServerDetails{Plugins: plugins, Mods: mods})
	embed := NewEmbedRenderer().Render(obs, nil, baseTime)

	if field := findField(embed, "🧩 Plugins"); field == nil || field.Value != "WorldEdit, LuckPerms (5.4)" {
		t.Errorf("Unexpected plugins field %+v", field)
	}
	field := findField(embed, "🧱 Mods")
	if field == nil {
		t.Fatal("Missing mods field")
	}
	if !strings.HasSuffix(field.Value, "j (1) and 2 more...") {
		t.Errorf("Expected the list to stop at 10 entries, got %q", field.Value)
	}
}

func TestEmbedRenderer_TruncatesLongFields(t *testing.T) {
	names := make([]string, 200)
	for i := range names {
		names[i] = "PlayerWithALongName"
	}
	obs := models.NewObservation(true, "play.example.net", 25565, nil, baseTime,
		&models.PlayerCount{Online: 200, Max: 500}, names, nil)

	embed := NewEmbedRenderer().Render(obs, nil, baseTime)

	field := findField(embed, "🎮 Online Players")
	if field == nil {
		t.Fatal("Missing online players field")
	}
	if n := len([]rune(field.Value)); n != maxEmbedFieldValue {
		t.Errorf("Expected value truncated to %d runes, got %d", maxEmbedFieldValue, n)
	}
	if !strings.HasSuffix(field.Value, "...") {
		t.Errorf("Expected truncation marker, got %q", field.Value[len(field.Value)-10:])
	}
}

func TestFormatLastSeen(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{0, "0 minutes ago"},
		{time.Minute, "1 minute ago"},
		{59 * time.Minute, "59 minutes ago"},
		{time.Hour, "1 hour ago"},
		{23*time.Hour + 59*time.Minute, "23 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{6 * 24 * time.Hour, "6 days ago"},
		{-time.Minute, "0 minutes ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatLastSeen(baseTime.Add(-tt.age), baseTime); got != tt.want {
				t.Errorf("FormatLastSeen(%v) = %q, want %q", tt.age, got, tt.want)
			}
		})
	}
}

func TestFooterPingIndicator(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{35, "Last updated | Ping: 🟢 35ms"},
		{100, "Last updated | Ping: 🟡 100ms"},
		{299, "Last updated | Ping: 🟡 299ms"},
		{300, "Last updated | Ping: 🔴 300ms"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := footerText(&tt.ms, 0); got != tt.want {
				t.Errorf("footerText(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}
