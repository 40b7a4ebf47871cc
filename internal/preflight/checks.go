package preflight

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"mcstatus/internal/config"
	"mcstatus/internal/discord"
	"mcstatus/internal/models"
)

// Check statuses
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusWarning = "warning"
)

const checkTimeout = 10 * time.Second

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Pinger is a storage backend that can report its health
type Pinger interface {
	Ping(ctx context.Context) error
}

// DiscordAPI is the subset of the Discord client the checks need
type DiscordAPI interface {
	CurrentUser(ctx context.Context) (*models.DiscordUser, error)
	GetChannel(ctx context.Context, channelID string) (*models.DiscordChannel, error)
}

// Checker performs pre-flight checks before the poll loop starts
type Checker struct {
	storage     Pinger
	storageName string
	discord     DiscordAPI
	channelID   string
	cronExpr    string
}

// NewChecker creates a new preflight checker
func NewChecker(storage Pinger, storageName string, discordAPI DiscordAPI, channelID, cronExpr string) *Checker {
	return &Checker{
		storage:     storage,
		storageName: storageName,
		discord:     discordAPI,
		channelID:   channelID,
		cronExpr:    cronExpr,
	}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkStorage(ctx),
		c.checkSchedule(),
		c.checkDiscordIdentity(ctx),
		c.checkDiscordChannel(ctx),
	}

	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case StatusPass:
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case StatusFail:
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case StatusWarning:
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("📊 Pre-flight summary: %d passed, %d failed, %d warnings", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == StatusFail {
			return true
		}
	}
	return false
}

// checkStorage verifies the presence store backend is reachable
func (c *Checker) checkStorage(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := c.storage.Ping(ctx); err != nil {
		return CheckResult{
			Name:    "Storage",
			Status:  StatusFail,
			Message: fmt.Sprintf("Cannot reach %s storage", c.storageName),
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Storage",
		Status:  StatusPass,
		Message: fmt.Sprintf("%s storage reachable", c.storageName),
	}
}

// checkSchedule verifies the poll cron expression parses
func (c *Checker) checkSchedule() CheckResult {
	schedule, err := config.ParseCron(c.cronExpr)
	if err != nil {
		return CheckResult{
			Name:    "Poll Schedule",
			Status:  StatusFail,
			Message: fmt.Sprintf("Invalid cron expression '%s'", c.cronExpr),
			Error:   err,
		}
	}

	next := schedule.Next(time.Now())
	return CheckResult{
		Name:    "Poll Schedule",
		Status:  StatusPass,
		Message: fmt.Sprintf("'%s', next run at %s", c.cronExpr, next.Format(time.RFC3339)),
	}
}

// checkDiscordIdentity verifies the bot token is accepted
func (c *Checker) checkDiscordIdentity(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	user, err := c.discord.CurrentUser(ctx)
	if err != nil {
		message := "Cannot resolve bot identity"
		if errors.Is(err, discord.ErrUnauthorized) {
			message = "Discord rejected DISCORD_TOKEN"
		}
		return CheckResult{
			Name:    "Discord Identity",
			Status:  StatusFail,
			Message: message,
			Error:   err,
		}
	}

	if !user.Bot {
		return CheckResult{
			Name:    "Discord Identity",
			Status:  StatusWarning,
			Message: fmt.Sprintf("Token belongs to %s, which is not a bot account", user.Username),
		}
	}

	return CheckResult{
		Name:    "Discord Identity",
		Status:  StatusPass,
		Message: fmt.Sprintf("Logged in as %s (%s)", user.Username, user.ID),
	}
}

// checkDiscordChannel verifies CHANNEL_ID is a text channel the bot can see
func (c *Checker) checkDiscordChannel(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	channel, err := c.discord.GetChannel(ctx, c.channelID)
	if err != nil {
		message := "Cannot fetch channel"
		if errors.Is(err, discord.ErrChannelNotFound) {
			message = fmt.Sprintf("Channel with ID %s not found", c.channelID)
		}
		return CheckResult{
			Name:    "Discord Channel",
			Status:  StatusFail,
			Message: message,
			Error:   err,
		}
	}

	if channel.Type != models.DiscordChannelTypeGuildText && channel.Type != models.DiscordChannelTypeGuildAnnouncement {
		return CheckResult{
			Name:    "Discord Channel",
			Status:  StatusFail,
			Message: fmt.Sprintf("Channel with ID %s is not a text channel (type %d)", c.channelID, channel.Type),
		}
	}

	return CheckResult{
		Name:    "Discord Channel",
		Status:  StatusPass,
		Message: fmt.Sprintf("Posting to #%s", channel.Name),
	}
}
