package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/availboard/availbot/availbot/database/models"
	"github.com/chromedp/chromedp"
)

// CardImageService renders an availability card as a PNG for profiles that
// have no media of their own. The card is attached to the listing post.
type CardImageService struct {
	logger *slog.Logger
	tmpl   *template.Template
}

type cardData struct {
	DisplayName  string
	Initial      string
	Services     []string
	Location     string
	ExpiresLabel string
}

const cardTemplate = `<html><head><style>
body { margin: 0; font-family: sans-serif; }
#card { width: 600px; padding: 32px; background: %23232428; color: %23f2f3f5; border-radius: 12px; }
#card .avatar { width: 72px; height: 72px; border-radius: 50%25; background: %235865f2; color: white; font-size: 36px; line-height: 72px; text-align: center; float: left; margin-right: 20px; }
#card h1 { margin: 0; font-size: 28px; }
#card .services { clear: both; padding-top: 18px; font-size: 18px; }
#card .footer { margin-top: 18px; font-size: 15px; color: %23b5bac1; }
</style></head><body>
<div id="card">
  <div class="avatar">{{.Initial}}</div>
  <h1>{{.DisplayName}}</h1>
  <div class="services">{{range .Services}}&bull; {{.}}<br/>{{end}}</div>
  <div class="footer">{{if .Location}}{{.Location}} &middot; {{end}}{{.ExpiresLabel}}</div>
</div>
</body></html>`

func NewCardImageService() *CardImageService {
	svc := &CardImageService{
		logger: slog.With(slog.String("service", "card_image")),
		tmpl:   template.Must(template.New("card").Parse(cardTemplate)),
	}
	svc.testChromedpAvailability()
	return svc
}

func (s *CardImageService) testChromedpAvailability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chromedpCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	if err := chromedp.Run(chromedpCtx, chromedp.Navigate("data:text/html,<html><body>test</body></html>")); err != nil {
		s.logger.Warn("chromedp not available, generated cards disabled",
			slog.String("error", err.Error()))
	}
}

// GenerateListingCard renders the card for one profile/listing pair.
func (s *CardImageService) GenerateListingCard(ctx context.Context, profile *models.Profile, expiresLabel string) ([]byte, error) {
	initial := "?"
	if profile.DisplayName != "" {
		initial = strings.ToUpper(profile.DisplayName[:1])
	}

	var buf bytes.Buffer
	err := s.tmpl.Execute(&buf, cardData{
		DisplayName:  profile.DisplayName,
		Initial:      initial,
		Services:     profile.Services,
		Location:     profile.Location,
		ExpiresLabel: expiresLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render card template: %w", err)
	}
	htmlContent := strings.ReplaceAll(buf.String(), "\n", "")

	chromedpCtx, cancel := chromedp.NewContext(ctx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	chromedpCtx, cancel = context.WithTimeout(chromedpCtx, 15*time.Second)
	defer cancel()

	var imageBytes []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("data:text/html,"+htmlContent),
		chromedp.WaitVisible("#card", chromedp.ByID),
		chromedp.Sleep(200*time.Millisecond),
		chromedp.Screenshot("#card", &imageBytes, chromedp.ByID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate card image: %w", err)
	}

	s.logger.Debug("Generated listing card",
		slog.String("user_id", profile.UserID),
		slog.Int("image_size", len(imageBytes)))
	return imageBytes, nil
}
