package models

// Embed is a Discord rich embed
// Limits: https://discord.com/developers/docs/resources/message#embed-object-embed-limits
type Embed struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Color       int             `json:"color,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Footer      *EmbedFooter    `json:"footer,omitempty"`
	Thumbnail   *EmbedThumbnail `json:"thumbnail,omitempty"`
	Fields      []EmbedField    `json:"fields,omitempty"`
}

// EmbedFooter is the footer line of an embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedThumbnail is the small image shown in the embed's corner
type EmbedThumbnail struct {
	URL string `json:"url"`
}

// EmbedField is one name/value block of an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordUser is the subset of the Discord user object the bot needs
type DiscordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

// DiscordChannel is the subset of the Discord channel object the bot needs
type DiscordChannel struct {
	ID   string `json:"id"`
	Type int    `json:"type"`
	Name string `json:"name,omitempty"`
}

// Discord channel types that accept regular messages
const (
	DiscordChannelTypeGuildText         = 0
	DiscordChannelTypeGuildAnnouncement = 5
)

// DiscordMessage is the subset of the Discord message object the bot needs
type DiscordMessage struct {
	ID        string      `json:"id"`
	ChannelID string      `json:"channel_id"`
	Author    DiscordUser `json:"author"`
	Embeds    []Embed     `json:"embeds"`
	Timestamp string      `json:"timestamp,omitempty"`
}
