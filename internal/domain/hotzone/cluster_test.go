package hotzone

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/caliban/dropzone/internal/domain/model"
)

func sample(account string, team int, x, y float64, offset time.Duration) model.PlayerPosition {
	return model.PlayerPosition{
		Base: model.Base{TS: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC).Add(offset)},
		Character: model.Character{
			Name:      account,
			TeamID:    team,
			AccountID: account,
			Location:  model.Location{X: x, Y: y},
		},
		ElapsedTime: offset.Seconds(),
	}
}

func TestClusterer_Empty(t *testing.T) {
	c := NewClusterer()
	if zones := c.Cluster(nil); len(zones) != 0 {
		t.Errorf("expected no zones, got %d", len(zones))
	}
}

func TestClusterer_MinPlayersFilter(t *testing.T) {
	c := NewClusterer(WithRadius(500), WithMinPlayers(3))

	// Two players landing together do not make a hot zone.
	positions := []model.PlayerPosition{
		sample("a", 1, 100, 100, time.Second),
		sample("b", 1, 150, 150, 2*time.Second),
	}
	if zones := c.Cluster(positions); len(zones) != 0 {
		t.Fatalf("expected cluster below min players to be dropped, got %d zones", len(zones))
	}

	// A third player within the radius tips it over.
	positions = append(positions, sample("c", 2, 120, 130, 3*time.Second))
	zones := c.Cluster(positions)
	if len(zones) != 1 {
		t.Fatalf("expected one zone, got %d", len(zones))
	}
	if zones[0].PlayerCount != 3 {
		t.Errorf("expected 3 players, got %d", zones[0].PlayerCount)
	}
	if zones[0].TeamCount != 2 {
		t.Errorf("expected 2 teams, got %d", zones[0].TeamCount)
	}
}

func TestClusterer_RepeatSamplesCountOnce(t *testing.T) {
	c := NewClusterer(WithMinPlayers(1))

	// Many samples from one player are one distinct player.
	var positions []model.PlayerPosition
	for i := 0; i < 10; i++ {
		positions = append(positions, sample("solo", 1, float64(i*10), 0, time.Duration(i)*time.Second))
	}
	zones := c.Cluster(positions)
	if len(zones) != 1 {
		t.Fatalf("expected one zone, got %d", len(zones))
	}
	if zones[0].PlayerCount != 1 {
		t.Errorf("expected 1 distinct player, got %d", zones[0].PlayerCount)
	}
}

func TestClusterer_TopKAndOrdering(t *testing.T) {
	c := NewClusterer(WithRadius(500), WithMinPlayers(3), WithTopK(2))

	var positions []model.PlayerPosition
	// Three separated sites with 5, 4, and 3 players.
	sites := []struct {
		x, y    float64
		players int
	}{
		{10000, 10000, 5},
		{50000, 50000, 4},
		{90000, 90000, 3},
	}
	offset := time.Duration(0)
	for s, site := range sites {
		for p := 0; p < site.players; p++ {
			offset += time.Second
			positions = append(positions, sample(
				fmt.Sprintf("s%d-p%d", s, p), s*10+p,
				site.x+float64(p*20), site.y-float64(p*20), offset,
			))
		}
	}

	zones := c.Cluster(positions)
	if len(zones) != 2 {
		t.Fatalf("expected top-2 zones, got %d", len(zones))
	}
	if zones[0].PlayerCount != 5 || zones[1].PlayerCount != 4 {
		t.Errorf("expected zones ordered 5,4 by player count, got %d,%d",
			zones[0].PlayerCount, zones[1].PlayerCount)
	}
	if math.Abs(zones[0].Center.X-10040) > 500 {
		t.Errorf("unexpected center for densest zone: %+v", zones[0].Center)
	}
}

func TestClusterer_RunningMeanCenter(t *testing.T) {
	c := NewClusterer(WithRadius(1000), WithMinPlayers(1))

	positions := []model.PlayerPosition{
		sample("a", 1, 0, 0, time.Second),
		sample("b", 1, 400, 0, 2*time.Second),
		sample("c", 1, 800, 0, 3*time.Second),
	}
	zones := c.Cluster(positions)
	if len(zones) != 1 {
		t.Fatalf("expected one zone, got %d", len(zones))
	}
	if zones[0].Center.X != 400 {
		t.Errorf("expected running-mean center x=400, got %v", zones[0].Center.X)
	}
}

func TestClusterer_ProcessesEarliestFirst(t *testing.T) {
	c := NewClusterer(WithRadius(500), WithMinPlayers(1))

	// Reverse-chronological input; the greedy pass must still seed the first
	// cluster with the earliest sample.
	positions := []model.PlayerPosition{
		sample("late", 2, 10000, 10000, time.Minute),
		sample("early", 1, 0, 0, time.Second),
	}
	zones := c.Cluster(positions)
	if len(zones) != 2 {
		t.Fatalf("expected two zones, got %d", len(zones))
	}
}

func TestDistance2D_IgnoresAltitude(t *testing.T) {
	a := model.Location{X: 0, Y: 0, Z: 0}
	b := model.Location{X: 3, Y: 4, Z: 5000}
	if d := distance2D(a, b); d != 5 {
		t.Errorf("expected ground-plane distance 5, got %v", d)
	}
}
