package services

import (
	"fmt"
	"strings"
	"time"

	"mcstatus/internal/config"
	"mcstatus/internal/models"
)

// Embed colours
const (
	ColorOnline  = 0x4caf50
	ColorOffline = 0xf44336
)

// Discord embed limits
const (
	maxEmbedTitle       = 256
	maxEmbedDescription = 4096
	maxEmbedFieldValue  = 1024
	maxEmbedFooter      = 2048
)

const (
	// DefaultServerIcon is used as the thumbnail; Discord does not accept data: URIs
	DefaultServerIcon = "https://images.icon-icons.com/2699/PNG/512/minecraft_logo_icon_168974.png"

	statusTitlePrefix = "Minecraft Server Status: "
	maxListedAddOns   = 10
)

// StatusTitleMarker is the title fragment that identifies this bot's status
// message for address in a channel. It is normalized the same way as the
// rendered title, so "host:25565" and "host" share one marker.
func StatusTitleMarker(address string) string {
	return statusTitle(config.SplitServerAddress(address))
}

// EmbedRenderer turns an observation into the status embed. It holds no state.
type EmbedRenderer struct{}

// NewEmbedRenderer creates a renderer
func NewEmbedRenderer() *EmbedRenderer {
	return &EmbedRenderer{}
}

// Render builds the embed for obs. recent is shown only for online servers
// that report player counts; sections with no data are omitted.
func (r *EmbedRenderer) Render(obs *models.Observation, recent []models.PresenceRecord, now time.Time) *models.Embed {
	embed := &models.Embed{
		Title:     truncate(statusTitle(obs.Host, obs.Port), maxEmbedTitle),
		Color:     ColorOffline,
		Timestamp: now.UTC().Format(time.RFC3339),
		Thumbnail: &models.EmbedThumbnail{URL: DefaultServerIcon},
	}

	if !obs.Online {
		embed.Description = "⚠️ **Server is offline** ⚠️"
		embed.Footer = &models.EmbedFooter{Text: footerText(obs.LatencyMs, 0)}
		return embed
	}

	embed.Color = ColorOnline
	details := obs.Details
	if details == nil {
		details = &models.ServerDetails{}
	}

	version := details.Version
	if version == "" {
		version = "Unknown"
	}
	addField(embed, "Status", "🟢 Online", true)
	addField(embed, "Version", version, true)

	if details.Software != "" && details.Software != "Vanilla" {
		addField(embed, "Software", details.Software, true)
	}

	if motd := joinLines(details.MOTD); motd != "" {
		embed.Description = truncate("**MOTD:**\n"+motd, maxEmbedDescription)
	}

	if obs.Players != nil {
		addField(embed, "👥 Players", fmt.Sprintf("%d/%d", obs.Players.Online, obs.Players.Max), true)

		if len(obs.OnlinePlayers) > 0 {
			addField(embed, "🎮 Online Players", strings.Join(obs.OnlinePlayers, ", "), false)
		}

		if len(recent) > 0 {
			lines := make([]string, 0, len(recent))
			for _, record := range recent {
				lines = append(lines, fmt.Sprintf("%s (%s)", record.Name, FormatLastSeen(record.LastSeenAt, now)))
			}
			addField(embed, "👻 Recently Online", strings.Join(lines, "\n"), false)
		}
	}

	if details.Map != "" {
		addField(embed, "🗺️ Map", details.Map, true)
	}
	if details.Gamemode != "" {
		addField(embed, "🎮 Gamemode", details.Gamemode, true)
	}
	if len(details.Plugins) > 0 {
		addField(embed, "🧩 Plugins", formatAddOns(details.Plugins), false)
	}
	if len(details.Mods) > 0 {
		addField(embed, "🧱 Mods", formatAddOns(details.Mods), false)
	}
	if info := joinLines(details.Info); info != "" {
		addField(embed, "Additional Info", info, false)
	}
	if details.EULABlocked {
		addField(embed, "⚠️ EULA Warning", "This server appears to be blocked by the Minecraft EULA", false)
	}

	embed.Footer = &models.EmbedFooter{Text: footerText(obs.LatencyMs, details.APIVersion)}
	return embed
}

// FormatLastSeen renders the age of t as "N minute(s)/hour(s)/day(s) ago"
func FormatLastSeen(t, now time.Time) string {
	age := now.Sub(t)
	if age < 0 {
		age = 0
	}

	minutes := int(age / time.Minute)
	hours := int(age / time.Hour)
	days := int(age / (24 * time.Hour))

	switch {
	case days > 0:
		return plural(days, "day") + " ago"
	case hours > 0:
		return plural(hours, "hour") + " ago"
	default:
		return plural(minutes, "minute") + " ago"
	}
}

func statusTitle(host string, port uint16) string {
	if port != 0 && port != models.DefaultMinecraftPort {
		return fmt.Sprintf("%s%s:%d", statusTitlePrefix, host, port)
	}
	return statusTitlePrefix + host
}

func footerText(latencyMs *int64, apiVersion int) string {
	text := "Last updated"
	if latencyMs != nil {
		ms := *latencyMs
		indicator := "🔴"
		switch {
		case ms < 100:
			indicator = "🟢"
		case ms < 300:
			indicator = "🟡"
		}
		text += fmt.Sprintf(" | Ping: %s %dms", indicator, ms)
	}
	if apiVersion > 0 {
		text += fmt.Sprintf(" | API v%d", apiVersion)
	}
	return truncate(text, maxEmbedFooter)
}

func formatAddOns(addOns []models.AddOn) string {
	shown := addOns
	if len(shown) > maxListedAddOns {
		shown = shown[:maxListedAddOns]
	}

	parts := make([]string, 0, len(shown))
	for _, a := range shown {
		if a.Version != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", a.Name, a.Version))
		} else {
			parts = append(parts, a.Name)
		}
	}

	list := strings.Join(parts, ", ")
	if extra := len(addOns) - len(shown); extra > 0 {
		list = fmt.Sprintf("%s and %d more...", list, extra)
	}
	return list
}

func addField(embed *models.Embed, name, value string, inline bool) {
	embed.Fields = append(embed.Fields, models.EmbedField{
		Name:   name,
		Value:  truncate(value, maxEmbedFieldValue),
		Inline: inline,
	})
}

func joinLines(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
