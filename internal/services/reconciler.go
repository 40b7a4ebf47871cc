package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"mcstatus/internal/discord"
	"mcstatus/internal/models"
)

// Reconcile steps, in the order they are attempted
const (
	StepKnown  = "known"
	StepSearch = "search"
	StepCreate = "create"
)

// searchWindow is how many recent channel messages SEARCH inspects
const searchWindow = 50

// ReconcileResult describes how a cycle's embed reached the channel
type ReconcileResult struct {
	Synced    bool   `json:"synced"`
	Step      string `json:"step,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// stepResult is the uniform outcome of one reconcile step
type stepResult struct {
	done      bool
	messageID string
	reason    string
}

func stepOK(messageID string) stepResult {
	return stepResult{done: true, messageID: messageID}
}

func stepFailed(format string, args ...interface{}) stepResult {
	return stepResult{reason: fmt.Sprintf(format, args...)}
}

type reconcileStep struct {
	name string
	run  func(ctx context.Context, embed *models.Embed) stepResult
	// persist records the resolved message id as the new known id
	persist bool
}

// Reconciler keeps exactly one status message in the channel up to date.
// It tries the stored message id, then a search of recent bot messages
// carrying the status title, then creates a new message.
type Reconciler struct {
	platform ChatPlatform
	refs     ArtifactRefStore
	marker   string
	metrics  *Metrics
}

// NewReconciler creates a reconciler for the server at address
func NewReconciler(platform ChatPlatform, refs ArtifactRefStore, address string, metrics *Metrics) *Reconciler {
	return &Reconciler{
		platform: platform,
		refs:     refs,
		marker:   StatusTitleMarker(address),
		metrics:  metrics,
	}
}

// Reconcile publishes embed. It never returns an error; a cycle that could
// not place the embed reports Synced=false.
func (r *Reconciler) Reconcile(ctx context.Context, embed *models.Embed) ReconcileResult {
	steps := []reconcileStep{
		{name: StepKnown, run: r.updateKnown},
		{name: StepSearch, run: r.searchAndUpdate, persist: true},
		{name: StepCreate, run: r.create, persist: true},
	}

	var reasons []string
	for _, step := range steps {
		res := step.run(ctx, embed)
		if !res.done {
			r.metrics.RecordReconcile(step.name, false)
			reasons = append(reasons, fmt.Sprintf("%s: %s", step.name, res.reason))
			if step.name != StepCreate {
				log.Printf("⚠️  [RECONCILE] %s step did not resolve (%s), falling back", step.name, res.reason)
			}
			continue
		}

		r.metrics.RecordReconcile(step.name, true)
		if step.persist {
			if err := r.refs.SaveID(ctx, res.messageID); err != nil {
				log.Printf("⚠️  [RECONCILE] Failed to save status message id %s: %v", res.messageID, err)
			}
		}
		log.Printf("✅ [RECONCILE] Status message %s synced via %s", res.messageID, step.name)
		return ReconcileResult{Synced: true, Step: step.name, MessageID: res.messageID}
	}

	reason := strings.Join(reasons, "; ")
	log.Printf("❌ [RECONCILE] Failed to publish status message, will retry next cycle: %s", reason)
	return ReconcileResult{Synced: false, Reason: reason}
}

// updateKnown edits the message whose id was persisted last time
func (r *Reconciler) updateKnown(ctx context.Context, embed *models.Embed) stepResult {
	id, err := r.refs.LastKnownID(ctx)
	if err != nil {
		return stepFailed("failed to load known id: %v", err)
	}
	if id == "" {
		return stepFailed("no known message id")
	}

	if _, err := r.platform.FetchMessage(ctx, id); err != nil {
		if errors.Is(err, discord.ErrMessageNotFound) {
			return stepFailed("message %s not found", id)
		}
		return stepFailed("failed to fetch message %s: %v", id, err)
	}

	if _, err := r.platform.EditMessage(ctx, id, embed); err != nil {
		return stepFailed("failed to edit message %s: %v", id, err)
	}
	return stepOK(id)
}

// searchAndUpdate finds the newest bot-authored message carrying the status
// title among the most recent messages and edits it
func (r *Reconciler) searchAndUpdate(ctx context.Context, embed *models.Embed) stepResult {
	selfID, err := r.platform.SelfID(ctx)
	if err != nil {
		return stepFailed("failed to resolve bot identity: %v", err)
	}

	messages, err := r.platform.ListRecentMessages(ctx, searchWindow)
	if err != nil {
		return stepFailed("failed to list messages: %v", err)
	}

	for _, msg := range messages {
		if msg.Author.ID != selfID || !r.hasMarker(msg) {
			continue
		}
		if _, err := r.platform.EditMessage(ctx, msg.ID, embed); err != nil {
			return stepFailed("failed to edit matching message %s: %v", msg.ID, err)
		}
		return stepOK(msg.ID)
	}

	return stepFailed("no status message among %d recent messages", len(messages))
}

// create posts a new status message
func (r *Reconciler) create(ctx context.Context, embed *models.Embed) stepResult {
	msg, err := r.platform.CreateMessage(ctx, embed)
	if err != nil {
		return stepFailed("failed to create message: %v", err)
	}
	return stepOK(msg.ID)
}

func (r *Reconciler) hasMarker(msg models.DiscordMessage) bool {
	for _, e := range msg.Embeds {
		if strings.Contains(e.Title, r.marker) {
			return true
		}
	}
	return false
}
