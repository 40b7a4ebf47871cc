package services

import (
	"context"

	"mcstatus/internal/discord"
	"mcstatus/internal/models"
)

// ChatPlatform is the channel-scoped view of the chat service the reconciler
// works against. FetchMessage returns an error wrapping
// discord.ErrMessageNotFound when the message is gone.
type ChatPlatform interface {
	FetchMessage(ctx context.Context, id string) (*models.DiscordMessage, error)
	EditMessage(ctx context.Context, id string, embed *models.Embed) (*models.DiscordMessage, error)
	ListRecentMessages(ctx context.Context, limit int) ([]models.DiscordMessage, error)
	CreateMessage(ctx context.Context, embed *models.Embed) (*models.DiscordMessage, error)
	SelfID(ctx context.Context) (string, error)
}

// DiscordChannel binds a Discord client to one channel
type DiscordChannel struct {
	client    *discord.Client
	channelID string
}

// NewDiscordChannel creates a ChatPlatform for channelID
func NewDiscordChannel(client *discord.Client, channelID string) *DiscordChannel {
	return &DiscordChannel{client: client, channelID: channelID}
}

func (c *DiscordChannel) FetchMessage(ctx context.Context, id string) (*models.DiscordMessage, error) {
	return c.client.GetMessage(ctx, c.channelID, id)
}

func (c *DiscordChannel) EditMessage(ctx context.Context, id string, embed *models.Embed) (*models.DiscordMessage, error) {
	return c.client.EditMessage(ctx, c.channelID, id, embed)
}

func (c *DiscordChannel) ListRecentMessages(ctx context.Context, limit int) ([]models.DiscordMessage, error) {
	return c.client.ListMessages(ctx, c.channelID, limit)
}

func (c *DiscordChannel) CreateMessage(ctx context.Context, embed *models.Embed) (*models.DiscordMessage, error) {
	return c.client.CreateMessage(ctx, c.channelID, embed)
}

func (c *DiscordChannel) SelfID(ctx context.Context) (string, error) {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
