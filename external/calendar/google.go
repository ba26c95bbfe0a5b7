package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voxcal/voxcal/external/googleauth"
	"github.com/voxcal/voxcal/internal/calendar"
	"github.com/voxcal/voxcal/internal/repository"
	"github.com/voxcal/voxcal/internal/secrets"
	"golang.org/x/oauth2"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const primaryCalendarID = "primary"

type GoogleSchedulerConfig struct {
	OAuth     googleauth.Config
	SecretKey string
	Timezone  string
	Location  *time.Location
}

type GoogleScheduler struct {
	users     repository.UserRepository
	oauth     *oauth2.Config
	secretKey string
	tzName    string
	loc       *time.Location
}

func NewGoogleScheduler(users repository.UserRepository, cfg GoogleSchedulerConfig) calendar.Scheduler {
	return &GoogleScheduler{
		users:     users,
		oauth:     googleauth.OAuthConfig(cfg.OAuth),
		secretKey: cfg.SecretKey,
		tzName:    cfg.Timezone,
		loc:       cfg.Location,
	}
}

func (g *GoogleScheduler) AddEvent(ctx context.Context, userID string, input calendar.AddEventInput) (*calendar.EventResult, error) {
	svc, err := g.serviceForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end, err := calendar.ResolveTimes(input.StartTime, input.EndTime, g.loc)
	if err != nil {
		return nil, fmt.Errorf("could not understand the requested time: %w", err)
	}

	description := input.Description
	if input.AttendeeName != "" {
		description = strings.TrimSpace("Meeting with " + input.AttendeeName + "\n" + description)
	}

	event := &gcalendar.Event{
		Summary:     input.Summary,
		Description: description,
		Start:       &gcalendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: g.tzName},
		End:         &gcalendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: g.tzName},
	}

	slog.Info("creating calendar event",
		"user_id", userID, "summary", input.Summary,
		"start", event.Start.DateTime, "end", event.End.DateTime, "timezone", g.tzName)

	created, err := svc.Events.Insert(primaryCalendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}

	result := &calendar.EventResult{
		ProviderEventID: created.Id,
		Summary:         created.Summary,
		HTMLLink:        created.HtmlLink,
		Message:         fmt.Sprintf("Event '%s' created successfully!", input.Summary),
	}
	if created.Start != nil {
		result.Start = created.Start.DateTime
	}
	if created.End != nil {
		result.End = created.End.DateTime
	}
	return result, nil
}

func (g *GoogleScheduler) serviceForUser(ctx context.Context, userID string) (*gcalendar.Service, error) {
	if userID == "" {
		return nil, fmt.Errorf("Google Calendar not authenticated. Please connect your calendar first.")
	}
	user, err := g.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || user.TokenSealed == "" {
		return nil, fmt.Errorf("Google Calendar not authenticated. Please connect your calendar first.")
	}

	tokenJSON, err := secrets.Open(g.secretKey, user.TokenSealed)
	if err != nil {
		return nil, fmt.Errorf("stored calendar credentials are unreadable: %w", err)
	}
	var stored oauth2.Token
	if err := json.Unmarshal(tokenJSON, &stored); err != nil {
		return nil, fmt.Errorf("stored calendar credentials are malformed: %w", err)
	}

	source := g.oauth.TokenSource(ctx, &stored)
	fresh, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("calendar credentials expired; please reconnect your calendar: %w", err)
	}
	if fresh.AccessToken != stored.AccessToken {
		g.persistRefreshedToken(ctx, userID, fresh)
	}

	svc, err := gcalendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(fresh)))
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar client: %w", err)
	}
	return svc, nil
}

// persistRefreshedToken writes back a refreshed token so the next session
// skips the refresh round trip. Best effort: a write failure only costs that.
func (g *GoogleScheduler) persistRefreshedToken(ctx context.Context, userID string, token *oauth2.Token) {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return
	}
	sealed, err := secrets.Seal(g.secretKey, tokenJSON)
	if err != nil {
		slog.Warn("failed to seal refreshed token", "error", err, "user_id", userID)
		return
	}
	if err := g.users.SaveUserToken(ctx, userID, sealed); err != nil {
		slog.Warn("failed to persist refreshed token", "error", err, "user_id", userID)
	}
}
