// Package hltv adapts a public statistics site into the provider contract
// by parsing rendered HTML. Selectors are brittle by nature; any structural
// change upstream degrades operations to empty results rather than errors.
package hltv

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"github.com/cs2central/analytics-api/internal/models"
	"github.com/cs2central/analytics-api/internal/provider"
	"github.com/cs2central/analytics-api/internal/scrape"
)

const (
	providerName = "hltv"
	idPrefix     = "hltv_"
	maxNewsItems = 10
)

var (
	highImportanceKeywords   = []string{"roster", "change", "signs", "leaves", "benched", "standin"}
	mediumImportanceKeywords = []string{"practice", "bootcamp", "interview", "statement"}
)

type Provider struct {
	fetcher scrape.Fetcher
	baseURL string
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func New(fetcher scrape.Fetcher, baseURL string, logger *zap.Logger) *Provider {
	return &Provider{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  logger.Sugar(),
		now:     time.Now,
	}
}

func (p *Provider) Name() string   { return providerName }
func (p *Provider) Prefix() string { return idPrefix }

// ListMatches scrapes the matches page. Rows missing both team names are
// dropped; a row with one known team keeps the match with a "TBD"
// placeholder on the other side.
func (p *Provider) ListMatches(ctx context.Context) []models.Match {
	doc, err := p.document(ctx, p.baseURL+"/matches")
	if err != nil {
		p.logger.Warnw("Match list fetch failed", "provider", providerName, "error", err)
		provider.UpstreamRequests.WithLabelValues(providerName, "list_matches", "error").Inc()
		return []models.Match{}
	}

	matches := []models.Match{}
	doc.Find(".upcomingMatch, .liveMatch").Each(func(_ int, row *goquery.Selection) {
		m, ok := p.parseMatchRow(row)
		if ok {
			matches = append(matches, m)
		}
	})

	provider.UpstreamRequests.WithLabelValues(providerName, "list_matches", "ok").Inc()
	p.logger.Infow("Scraped match list", "provider", providerName, "count", len(matches))
	return matches
}

// MatchByID re-scrapes the match list and picks out the requested id. The
// site has no cheap single-match endpoint worth a dedicated selector set.
func (p *Provider) MatchByID(ctx context.Context, id string) (*models.Match, bool) {
	for _, m := range p.ListMatches(ctx) {
		if m.ID == id {
			return &m, true
		}
	}
	return nil, false
}

func (p *Provider) parseMatchRow(row *goquery.Selection) (models.Match, bool) {
	team1Name := strings.TrimSpace(row.Find(".matchTeam").First().Find(".matchTeamName").Text())
	team2Name := strings.TrimSpace(row.Find(".matchTeam").Last().Find(".matchTeamName").Text())

	// A row with no team names at all is noise, not a match.
	if team1Name == "" && team2Name == "" {
		return models.Match{}, false
	}
	if team1Name == "" {
		team1Name = provider.PlaceholderTeam
	}
	if team2Name == "" {
		team2Name = provider.PlaceholderTeam
	}

	matchURL, _ := row.Find("a.match").Attr("href")
	id := idPrefix + matchIDFromURL(matchURL)

	team1Logo, _ := row.Find(".matchTeam").First().Find("img").Attr("src")
	team2Logo, _ := row.Find(".matchTeam").Last().Find("img").Attr("src")

	isLive := row.HasClass("liveMatch")
	status := models.StatusUpcoming
	if isLive {
		status = models.StatusLive
	}

	meta := strings.ToLower(row.Find(".matchMeta").Text())
	format := "BO3"
	if strings.Contains(meta, "bo1") {
		format = "BO1"
	} else if strings.Contains(meta, "bo5") {
		format = "BO5"
	}

	m := models.Match{
		ID: id,
		Team1: models.Team{
			ID:         teamID(team1Name),
			Name:       team1Name,
			Logo:       p.absoluteURL(team1Logo),
			RecentForm: []string{},
		},
		Team2: models.Team{
			ID:         teamID(team2Name),
			Name:       team2Name,
			Logo:       p.absoluteURL(team2Logo),
			RecentForm: []string{},
		},
		Status:    status,
		StartTime: p.parseMatchTime(strings.TrimSpace(row.Find(".matchTime").Text())),
		Event:     fallback(strings.TrimSpace(row.Find(".matchEvent").Text()), "Unknown Event"),
		Format:    format,
	}

	if isLive {
		s1 := atoi(row.Find(".matchTeam").First().Find(".matchTeamScore").Text())
		s2 := atoi(row.Find(".matchTeam").Last().Find(".matchTeamScore").Text())
		m.CurrentScore = &models.Score{Team1: s1, Team2: s2}
	}

	return m, true
}

// TeamStats resolves the team page via site search and parses ranking,
// roster and recent results. Returns nil when the team cannot be found.
func (p *Provider) TeamStats(ctx context.Context, name string) *provider.TeamStats {
	teamURL, ok := p.resolveTeamURL(ctx, name)
	if !ok {
		provider.UpstreamRequests.WithLabelValues(providerName, "team_stats", "miss").Inc()
		return nil
	}

	doc, err := p.document(ctx, teamURL)
	if err != nil {
		p.logger.Warnw("Team page fetch failed", "team", name, "error", err)
		provider.UpstreamRequests.WithLabelValues(providerName, "team_stats", "error").Inc()
		return nil
	}

	stats := &provider.TeamStats{RecentForm: []string{}, Roster: []string{}}

	rankingText := doc.Find(".profile-team-stat .ranking").First().Text()
	stats.Ranking = atoi(strings.Map(digitsOnly, rankingText))

	doc.Find(".bodyshot-team a").Each(func(_ int, sel *goquery.Selection) {
		if playerName := strings.TrimSpace(sel.Find(".text-ellipsis").Text()); playerName != "" {
			stats.Roster = append(stats.Roster, playerName)
		}
	})

	wins := 0
	doc.Find(".past-matches .result").Each(func(_ int, sel *goquery.Selection) {
		if sel.HasClass("won") {
			stats.RecentForm = append(stats.RecentForm, "W")
			wins++
		} else {
			stats.RecentForm = append(stats.RecentForm, "L")
		}
	})
	if len(stats.RecentForm) > 0 {
		stats.WinRate = float64(wins) / float64(len(stats.RecentForm)) * 100
	}

	provider.UpstreamRequests.WithLabelValues(providerName, "team_stats", "ok").Inc()
	return stats
}

// TeamMapStats parses the per-map table on the team stats page.
func (p *Provider) TeamMapStats(ctx context.Context, name string) []models.MapStats {
	teamURL, ok := p.resolveTeamURL(ctx, name)
	if !ok {
		return []models.MapStats{}
	}

	doc, err := p.document(ctx, teamURL+"#tab-mapsBox")
	if err != nil {
		p.logger.Warnw("Map stats fetch failed", "team", name, "error", err)
		provider.UpstreamRequests.WithLabelValues(providerName, "map_stats", "error").Inc()
		return []models.MapStats{}
	}

	stats := []models.MapStats{}
	doc.Find(".map-statistics-container").Each(func(_ int, sel *goquery.Selection) {
		mapName := strings.TrimSpace(sel.Find(".map-statistics-row-map-mapname").Text())
		if mapName == "" {
			return
		}

		winRate := parsePercent(sel.Find(".map-statistics-row-win-percentage").Text())
		played := atoi(strings.Map(digitsOnly, sel.Find(".map-statistics-row-matches-played").Text()))
		ctRate := parsePercent(sel.Find(".map-statistics-row-ct-round-percentage").Text())
		tRate := parsePercent(sel.Find(".map-statistics-row-t-round-percentage").Text())
		if ctRate == 0 && tRate == 0 {
			// Side split often absent on the summary table; fall back to
			// an even split so bestSide derivation stays defined.
			ctRate, tRate = 50, 50
		}

		stats = append(stats, models.MapStats{
			Name:        mapName,
			PlayedCount: played,
			WinRate:     winRate,
			CTWinRate:   ctRate,
			TWinRate:    tRate,
			BestSide:    provider.BestSide(ctRate, tRate),
		})
	})

	provider.UpstreamRequests.WithLabelValues(providerName, "map_stats", "ok").Inc()
	return stats
}

// PlayerStats parses the roster table with per-player rating and K/D.
func (p *Provider) PlayerStats(ctx context.Context, name string) []models.Player {
	teamURL, ok := p.resolveTeamURL(ctx, name)
	if !ok {
		return []models.Player{}
	}

	doc, err := p.document(ctx, teamURL)
	if err != nil {
		provider.UpstreamRequests.WithLabelValues(providerName, "player_stats", "error").Inc()
		return []models.Player{}
	}

	players := []models.Player{}
	doc.Find(".players-table tbody tr").Each(func(_ int, row *goquery.Selection) {
		playerName := strings.TrimSpace(row.Find(".playersBox-playernick").Text())
		if playerName == "" {
			return
		}
		rating := parseFloat(row.Find("td.rating-cell").Text())
		kd := parseFloat(row.Find("td.kd-cell").Text())
		if rating == 0 {
			rating = 1.0
		}
		if kd == 0 {
			kd = 1.0
		}
		players = append(players, models.Player{
			Name:              playerName,
			Rating:            rating,
			KD:                kd,
			RecentPerformance: int(rating * 70),
		})
	})

	provider.UpstreamRequests.WithLabelValues(providerName, "player_stats", "ok").Inc()
	return players
}

// H2H parses past meetings from the results page filtered to both teams.
func (p *Provider) H2H(ctx context.Context, nameA, nameB string) []models.H2HMatch {
	pageURL := fmt.Sprintf("%s/results?team=%s&team=%s",
		p.baseURL, url.QueryEscape(nameA), url.QueryEscape(nameB))
	doc, err := p.document(ctx, pageURL)
	if err != nil {
		p.logger.Warnw("H2H fetch failed", "teamA", nameA, "teamB", nameB, "error", err)
		provider.UpstreamRequests.WithLabelValues(providerName, "h2h", "error").Inc()
		return []models.H2HMatch{}
	}

	results := []models.H2HMatch{}
	doc.Find(".result-con").Each(func(_ int, row *goquery.Selection) {
		winner := strings.TrimSpace(row.Find(".team-won").Text())
		score := strings.TrimSpace(row.Find(".result-score").Text())
		event := strings.TrimSpace(row.Find(".event-name").Text())
		if winner == "" || score == "" {
			return
		}

		date := p.now().UTC().Format(time.RFC3339)
		if unixMillis, ok := row.Attr("data-zonedgrouping-entry-unix"); ok {
			if ms, err := strconv.ParseInt(unixMillis, 10, 64); err == nil {
				date = time.UnixMilli(ms).UTC().Format(time.RFC3339)
			}
		}

		results = append(results, models.H2HMatch{
			Date:   date,
			Winner: winner,
			Score:  strings.Join(strings.Fields(score), ""),
			Event:  fallback(event, "Unknown Event"),
		})
	})

	provider.UpstreamRequests.WithLabelValues(providerName, "h2h", "ok").Inc()
	return results
}

// News scrapes the news feed and keeps items mentioning any given team
// name in the title. At most 10 items; ordering is left to the caller.
func (p *Provider) News(ctx context.Context, names []string) []models.News {
	doc, err := p.document(ctx, p.baseURL+"/news")
	if err != nil {
		p.logger.Warnw("News fetch failed", "error", err)
		provider.UpstreamRequests.WithLabelValues(providerName, "news", "error").Inc()
		return []models.News{}
	}

	news := []models.News{}
	doc.Find(".news-item, a.newsline").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		title := strings.TrimSpace(item.Find(".newstext").Text())
		if title == "" || !provider.TitleMentions(title, names) {
			return true
		}

		link, _ := item.Attr("href")
		if link == "" {
			link, _ = item.Find("a").Attr("href")
		}
		id := newsIDFromURL(link)

		news = append(news, models.News{
			ID:         id,
			Timestamp:  p.parseRelativeTime(strings.TrimSpace(item.Find(".newsrecent").Text())),
			Title:      title,
			Content:    title,
			Importance: classifyImportance(title),
			Source:     "HLTV",
		})
		return len(news) < maxNewsItems
	})

	provider.UpstreamRequests.WithLabelValues(providerName, "news", "ok").Inc()
	return news
}

// resolveTeamURL searches the site and picks the result closest to the
// requested name by fuzzy rank.
func (p *Provider) resolveTeamURL(ctx context.Context, name string) (string, bool) {
	doc, err := p.document(ctx, p.baseURL+"/search?term="+url.QueryEscape(name))
	if err != nil {
		p.logger.Warnw("Team search failed", "team", name, "error", err)
		return "", false
	}

	type candidate struct {
		href string
		rank int
	}
	var candidates []candidate
	doc.Find(".search-result .teams a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		text := strings.TrimSpace(sel.Text())
		rank := fuzzy.RankMatchNormalizedFold(name, text)
		if rank < 0 {
			return
		}
		candidates = append(candidates, candidate{href: href, rank: rank})
	})

	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].rank < candidates[j].rank })
	return p.absoluteURL(candidates[0].href), true
}

func (p *Provider) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (p *Provider) absoluteURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return p.baseURL + href
}

// parseMatchTime interprets an "HH:MM" cell as the next occurrence of that
// wall-clock time; anything unparseable maps to now.
func (p *Provider) parseMatchTime(text string) string {
	now := p.now()
	parts := strings.Split(text, ":")
	if len(parts) == 2 {
		hours, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		minutes, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 == nil && err2 == nil {
			t := time.Date(now.Year(), now.Month(), now.Day(), hours, minutes, 0, 0, now.Location())
			if t.Before(now) {
				t = t.AddDate(0, 0, 1)
			}
			return t.UTC().Format(time.RFC3339)
		}
	}
	return now.UTC().Format(time.RFC3339)
}

// parseRelativeTime turns the feed's "N hours ago" style stamps into
// absolute timestamps.
func (p *Provider) parseRelativeTime(text string) string {
	now := p.now()
	n := atoi(strings.Map(digitsOnly, text))
	switch {
	case strings.Contains(text, "minute"):
		return now.Add(-time.Duration(n) * time.Minute).UTC().Format(time.RFC3339)
	case strings.Contains(text, "hour"):
		return now.Add(-time.Duration(n) * time.Hour).UTC().Format(time.RFC3339)
	case strings.Contains(text, "day"):
		return now.AddDate(0, 0, -n).UTC().Format(time.RFC3339)
	}
	return now.UTC().Format(time.RFC3339)
}

func classifyImportance(title string) string {
	lower := strings.ToLower(title)
	for _, kw := range highImportanceKeywords {
		if strings.Contains(lower, kw) {
			return models.ImportanceHigh
		}
	}
	for _, kw := range mediumImportanceKeywords {
		if strings.Contains(lower, kw) {
			return models.ImportanceMedium
		}
	}
	return models.ImportanceLow
}

func matchIDFromURL(matchURL string) string {
	// Match URLs look like /matches/<id>/<slug>.
	parts := strings.Split(strings.Trim(matchURL, "/"), "/")
	if len(parts) >= 2 && parts[0] == "matches" && parts[1] != "" {
		return parts[1]
	}
	return uuid.NewString()
}

func newsIDFromURL(link string) string {
	parts := strings.Split(strings.Trim(link, "/"), "/")
	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}
	return "news_" + uuid.NewString()
}

func teamID(name string) string {
	return "team_" + strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parsePercent(s string) float64 {
	return parseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

func digitsOnly(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}
