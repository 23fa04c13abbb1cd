package catalogService

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"parlayTracker/models"
	"parlayTracker/models/external"
	"parlayTracker/services/calendarService"
	"parlayTracker/services/common"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultGamesTTL = 5 * time.Minute
	TeamsTTL        = 24 * time.Hour
	gamesPerPage    = 200
	teamsPerPage    = 100
)

// Catalog reads the day's schedule from the balldontlie API.
type Catalog struct {
	baseURL string
	apiKey  string
	ttl     time.Duration
	client  *http.Client
	cache   Cache
	cal     *calendarService.Calendar
}

func NewCatalog(baseURL string, apiKey string, cache Cache, ttl time.Duration, cal *calendarService.Calendar) *Catalog {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = DefaultGamesTTL
	}
	return &Catalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		ttl:     ttl,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache: cache,
		cal:   cal,
	}
}

func (c *Catalog) Today(now time.Time) string {
	return c.cal.Today(now)
}

// GamesForDay returns the games whose calendar day is day. The API is asked for the
// surrounding days too because its own date bucketing does not follow our zone.
func (c *Catalog) GamesForDay(ctx context.Context, day string) ([]models.Game, error) {
	if _, err := time.Parse(calendarService.DayLayout, day); err != nil {
		return []models.Game{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", day)
	}

	if data, ok := c.cache.Get(ctx, gamesKey(day)); ok {
		var games []models.Game
		if err := json.Unmarshal(data, &games); err == nil {
			return games, nil
		}
	}
	return c.fetchDay(ctx, day)
}

// Refresh refetches day and replaces the cached entry.
func (c *Catalog) Refresh(ctx context.Context, day string) ([]models.Game, error) {
	if _, err := time.Parse(calendarService.DayLayout, day); err != nil {
		return []models.Game{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", day)
	}
	return c.fetchDay(ctx, day)
}

func gamesKey(day string) string {
	return "games:" + day
}

func (c *Catalog) fetchDay(ctx context.Context, day string) ([]models.Game, error) {
	prev, _ := c.cal.AddDays(day, -1)
	next, _ := c.cal.AddDays(day, 1)

	params := url.Values{}
	for _, d := range []string{prev, day, next} {
		params.Add("dates[]", d)
	}
	params.Set("per_page", strconv.Itoa(gamesPerPage))

	resp, err := common.BDLWrapper(ctx, c.client, c.baseURL+"/games?"+params.Encode(), c.apiKey)
	if err != nil {
		return []models.Game{}, err
	}
	defer resp.Body.Close()

	var payload external.BDL_GamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return []models.Game{}, fmt.Errorf("error parsing games: %v", err)
	}

	games := c.filterDay(payload.Data, day)

	if data, err := json.Marshal(games); err == nil {
		if err := c.cache.Set(ctx, gamesKey(day), data, c.ttl); err != nil {
			log.Printf("Error caching games for %s: %v", day, err)
		}
	}

	return games, nil
}

func (c *Catalog) filterDay(raw []external.BDL_Game, day string) []models.Game {
	games := []models.Game{}
	for _, g := range raw {
		if g.HomeTeam.FullName == "" || g.VisitorTeam.FullName == "" {
			continue
		}

		gameDay, scheduledAt, ok := c.resolveDay(g)
		if !ok || gameDay != day {
			continue
		}

		games = append(games, models.Game{
			ID:          g.ID,
			Home:        g.HomeTeam.FullName,
			Visitor:     g.VisitorTeam.FullName,
			ScheduledAt: scheduledAt,
			Day:         gameDay,
			Status:      g.Status,
		})
	}

	sort.SliceStable(games, func(i, j int) bool {
		if games[i].ScheduledAt.Equal(games[j].ScheduledAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].ScheduledAt.Before(games[j].ScheduledAt)
	})
	return games
}

// resolveDay prefers the full tip-off timestamp and falls back to the date fields.
func (c *Catalog) resolveDay(g external.BDL_Game) (string, time.Time, bool) {
	for _, candidate := range []*string{g.Datetime, g.Date, g.GameDate} {
		if candidate == nil {
			continue
		}
		day, at, err := c.cal.ParseGameDay(*candidate)
		if err == nil {
			return day, at, true
		}
	}
	return "", time.Time{}, false
}

// Teams lists every team the API knows, sorted by name.
func (c *Catalog) Teams(ctx context.Context) ([]models.Team, error) {
	const cacheKey = "teams"
	if data, ok := c.cache.Get(ctx, cacheKey); ok {
		var teams []models.Team
		if err := json.Unmarshal(data, &teams); err == nil {
			return teams, nil
		}
	}

	params := url.Values{}
	params.Set("per_page", strconv.Itoa(teamsPerPage))

	resp, err := common.BDLWrapper(ctx, c.client, c.baseURL+"/teams?"+params.Encode(), c.apiKey)
	if err != nil {
		return []models.Team{}, err
	}
	defer resp.Body.Close()

	var payload external.BDL_TeamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return []models.Team{}, fmt.Errorf("error parsing teams: %v", err)
	}

	teams := make([]models.Team, 0, len(payload.Data))
	for _, t := range payload.Data {
		if t.FullName == "" {
			continue
		}
		teams = append(teams, models.Team{FullName: t.FullName, Abbreviation: t.Abbreviation})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].FullName < teams[j].FullName })

	if data, err := json.Marshal(teams); err == nil {
		if err := c.cache.Set(ctx, cacheKey, data, TeamsTTL); err != nil {
			log.Printf("Error caching teams: %v", err)
		}
	}
	return teams, nil
}

// ScheduledTeams is the set of team names playing on day.
func (c *Catalog) ScheduledTeams(ctx context.Context, day string) (map[string]bool, error) {
	games, err := c.GamesForDay(ctx, day)
	scheduled := make(map[string]bool, len(games)*2)
	for _, g := range games {
		scheduled[g.Home] = true
		scheduled[g.Visitor] = true
	}
	return scheduled, err
}
