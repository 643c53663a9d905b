// Package channel implements the board's messaging surface on top of the
// Discord REST API.
package channel

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/availboard/availbot/availbot/listings"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

const defaultCallTimeout = 15 * time.Second

// unknownMessage is Discord's JSON error code for a message that no longer
// exists.
const unknownMessage = 10008

// Gateway sends, edits, and deletes board messages in a single configured
// channel. Calls are bounded by a timeout so a stalled request cannot starve
// the scheduler loop.
type Gateway struct {
	rest      rest.Rest
	channelID snowflake.ID
	timeout   time.Duration
}

func NewGateway(restClient rest.Rest, channelID snowflake.ID) *Gateway {
	return &Gateway{
		rest:      restClient,
		channelID: channelID,
		timeout:   defaultCallTimeout,
	}
}

func (g *Gateway) ChannelID() snowflake.ID {
	return g.channelID
}

func (g *Gateway) Send(ctx context.Context, post listings.Post) (snowflake.ID, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	create := discord.MessageCreate{Embeds: post.Embeds}
	if len(post.ImageData) > 0 {
		create.Files = []*discord.File{
			discord.NewFile(post.ImageName, "", bytes.NewReader(post.ImageData)),
		}
	}

	msg, err := g.rest.CreateMessage(g.channelID, create, rest.WithCtx(ctx))
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (g *Gateway) Edit(ctx context.Context, messageID snowflake.ID, post listings.Post) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	embeds := post.Embeds
	_, err := g.rest.UpdateMessage(g.channelID, messageID, discord.MessageUpdate{
		Embeds: &embeds,
	}, rest.WithCtx(ctx))
	return err
}

// Delete removes a board message. An already-missing message is not treated
// as a failure.
func (g *Gateway) Delete(ctx context.Context, messageID snowflake.ID) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := g.rest.DeleteMessage(g.channelID, messageID, rest.WithCtx(ctx))
	if err != nil && isUnknownMessage(err) {
		return nil
	}
	return err
}

// Pin marks a board message as the channel's pinned message.
func (g *Gateway) Pin(ctx context.Context, messageID snowflake.ID) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return g.rest.PinMessage(g.channelID, messageID, rest.WithCtx(ctx))
}

func isUnknownMessage(err error) bool {
	var restErr rest.Error
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Code == unknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
