// Package votes serves the favourite-Pokémon survey dashboard: vote counts
// per hour, a leaderboard and the colour palettes the client draws with.
package votes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"epidash/internal/dashboard"
)

// SpriteFallback is drawn when a Pokémon has no sprite of its own.
const SpriteFallback = "./images/pokeball.png"

// Vote is one survey answer.
type Vote struct {
	Time time.Time `json:"timestamp"`
	Name string    `json:"vote"`
}

// HourlyCount is the number of votes cast within one clock hour.
type HourlyCount struct {
	Hour  time.Time `json:"hour"`
	Label string    `json:"label"`
	Count int       `json:"count"`
}

// Standing is one line of the leaderboard.
type Standing struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Votes int    `json:"votes"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"1/2/2006 15:04:05",
	"2006/01/02 3:04:05 PM",
}

// LoadVotes reads a votes CSV from path.
func LoadVotes(path string) ([]Vote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open votes file: %w", err)
	}
	defer f.Close()
	return ReadVotes(f)
}

// ReadVotes reads "timestamp,vote" rows. Rows with an empty vote or an
// unparsable timestamp are dropped.
func ReadVotes(r io.Reader) ([]Vote, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read votes header: %w", err)
	}
	tsCol, voteCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "timestamp":
			tsCol = i
		case "vote", "what is your favourite pokémon?":
			voteCol = i
		}
	}
	if tsCol < 0 || voteCol < 0 {
		return nil, errors.New("votes CSV needs timestamp and vote columns")
	}

	var out []Vote
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read votes: %w", err)
		}
		if tsCol >= len(rec) || voteCol >= len(rec) {
			continue
		}
		name := strings.TrimSpace(rec[voteCol])
		ts, ok := parseTime(strings.TrimSpace(rec[tsCol]))
		if name == "" || !ok {
			continue
		}
		out = append(out, Vote{Time: ts, Name: name})
	}
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Hourly counts the votes for name per clock hour, from the first to the
// last hour with a vote, including the empty hours between them.
func Hourly(votes []Vote, name string) []HourlyCount {
	counts := map[time.Time]int{}
	var first, last time.Time
	for _, v := range votes {
		if v.Name != name {
			continue
		}
		h := v.Time.Truncate(time.Hour)
		if len(counts) == 0 || h.Before(first) {
			first = h
		}
		if len(counts) == 0 || h.After(last) {
			last = h
		}
		counts[h]++
	}
	if len(counts) == 0 {
		return []HourlyCount{}
	}

	var out []HourlyCount
	for h := first; !h.After(last); h = h.Add(time.Hour) {
		out = append(out, HourlyCount{Hour: h, Label: h.Format("15:04"), Count: counts[h]})
	}
	return out
}

// Leaderboard ranks names by vote count, most votes first, ties in
// alphabetical order. limit <= 0 returns every name.
func Leaderboard(votes []Vote, limit int) []Standing {
	counts := map[string]int{}
	for _, v := range votes {
		counts[v.Name]++
	}
	standings := make([]Standing, 0, len(counts))
	for name, n := range counts {
		standings = append(standings, Standing{Name: name, Votes: n})
	}

	sort.Slice(standings, func(i, j int) bool { return standings[i].Name < standings[j].Name })
	ranked := dashboard.RankBy(standings, func(s Standing) dashboard.Key {
		return dashboard.Key{Primary: -float64(s.Votes)}
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
