package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/availboard/availbot/availbot"
	"github.com/availboard/availbot/availbot/config"
	"github.com/availboard/availbot/availbot/database/models"
	"github.com/availboard/availbot/availbot/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/sahilm/fuzzy"
)

var Profiles = discord.SlashCommandCreate{
	Name:        "profiles",
	Description: "Browse member profiles",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "search",
			Description:  "Filter by display name",
			Autocomplete: true,
		},
	},
}

// profileSearchItems implements fuzzy.Source over member display names.
type profileSearchItems []*models.Profile

func (items profileSearchItems) Len() int {
	return len(items)
}

func (items profileSearchItems) String(i int) string {
	return strings.ToLower(items[i].DisplayName)
}

func ProfilesHandler(b *availbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
		defer cancel()

		profiles, err := b.ProfileRepository.GetAll(ctx)
		if err != nil {
			slog.Error("Failed to list profiles",
				slog.String("type", "cmd"),
				slog.Any("error", err))
			return utils.EH.CreateErrorEmbed(e, "Something went wrong. Please try again later.")
		}

		query := ""
		if v, ok := e.SlashCommandInteractionData().OptString("search"); ok {
			query = strings.TrimSpace(v)
		}
		if query != "" {
			profiles = filterProfiles(profiles, query)
		}
		if len(profiles) == 0 {
			if query != "" {
				return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("No profiles match `%s`.", query))
			}
			return utils.EH.CreateInfoEmbed(e, "No profiles yet. Be the first with `/profile set`!")
		}

		totalPages := int(math.Ceil(float64(len(profiles)) / float64(config.ProfilesPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start := page * config.ProfilesPerPage
				end := min(start+config.ProfilesPerPage, len(profiles))

				var description strings.Builder
				for i, profile := range profiles[start:end] {
					description.WriteString(fmt.Sprintf("**%d. %s**", start+i+1, profile.DisplayName))
					if profile.Location != "" {
						description.WriteString(" • " + profile.Location)
					}
					description.WriteString("\n")
					if len(profile.Services) > 0 {
						description.WriteString(strings.Join(profile.Services, ", ") + "\n")
					}
					description.WriteString("\n")
				}

				embed.
					SetTitle("Member Profiles").
					SetDescription(description.String()).
					SetColor(config.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d profiles", page+1, totalPages, len(profiles)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func ProfilesAutocomplete(b *availbot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		focused := e.Data.Focused()
		if focused.Name != "search" {
			return nil
		}

		searchTerm := ""
		if focused.Value != nil {
			var s string
			if err := json.Unmarshal(focused.Value, &s); err != nil {
				slog.Error("Failed to unmarshal focused.Value",
					slog.String("error", err.Error()))
				return e.AutocompleteResult([]discord.AutocompleteChoice{})
			}
			searchTerm = strings.TrimSpace(s)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		profiles, err := b.ProfileRepository.GetAll(ctx)
		if err != nil {
			slog.Error("Failed to load profiles for autocomplete",
				slog.String("error", err.Error()))
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}

		if searchTerm != "" {
			profiles = filterProfiles(profiles, searchTerm)
		}

		choices := make([]discord.AutocompleteChoice, 0, min(len(profiles), 25))
		for _, profile := range profiles {
			if len(choices) >= 25 {
				break
			}
			choices = append(choices, discord.AutocompleteChoiceString{
				Name:  profile.DisplayName,
				Value: profile.DisplayName,
			})
		}
		return e.AutocompleteResult(choices)
	}
}

// filterProfiles keeps profiles whose display name fuzzy-matches the query,
// ordered by match relevance.
func filterProfiles(profiles []*models.Profile, query string) []*models.Profile {
	items := profileSearchItems(profiles)
	matches := fuzzy.FindFrom(strings.ToLower(query), items)

	results := make([]*models.Profile, len(matches))
	for i, match := range matches {
		results[i] = items[match.Index]
	}
	return results
}
