package resolvers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/99designs/gqlgen/client"

	"github.com/bbernstein/lacylights-palette/internal/favorites"
	"github.com/bbernstein/lacylights-palette/internal/services/pubsub"
	"github.com/bbernstein/lacylights-palette/internal/testutil"
)

func testSetup(t *testing.T) (*client.Client, *Resolver) {
	t.Helper()

	store := testutil.StandardStore(t)
	tdb := testutil.SetupTestDB(t)
	ps := pubsub.New()
	favs := favorites.NewService(store, tdb.FavoriteRepo, tdb.SettingRepo, ps)
	if err := favs.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load favorites: %v", err)
	}

	r := NewResolver(store, favs, ps)
	return client.New(NewHandler(r)), r
}

type recordsResponse struct {
	Records struct {
		Total   int `json:"total"`
		Records []struct {
			Index int    `json:"index"`
			Hex   string `json:"hex"`
		} `json:"records"`
	} `json:"records"`
}

func TestRecords_Filters(t *testing.T) {
	c, _ := testSetup(t)

	tests := []struct {
		name   string
		filter string
		total  int
	}{
		{"everything", `{}`, 1024},
		{"hue membership", `{hue: ["red", "blue"]}`, 106},
		{"white", `{hue: "white"}`, 156},
		{"pure red channels", `{r: "255", g: "0", b: "0"}`, 16},
		{"amber off", `{search: "A0"}`, 256},
		{"channel range", `{a: "0-85"}`, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp recordsResponse
			err := c.Post(`query { records(filter: `+tt.filter+`, limit: 3) { total records { index hex } } }`, &resp)
			if err != nil {
				t.Fatalf("records query failed: %v", err)
			}
			if resp.Records.Total != tt.total {
				t.Errorf("Expected total %d, got %d", tt.total, resp.Records.Total)
			}
			if len(resp.Records.Records) != min(3, tt.total) {
				t.Errorf("Expected %d records on the page, got %d", min(3, tt.total), len(resp.Records.Records))
			}
		})
	}
}

func TestRecords_Sorting(t *testing.T) {
	c, _ := testSetup(t)

	var brightest recordsResponse
	c.MustPost(`{ records(filter: {sort: "brightness", order: "desc"}, limit: 1) { total records { index hex } } }`, &brightest)
	if got := brightest.Records.Records[0]; got.Index != 111 || got.Hex != "#ffffff" {
		t.Errorf("Expected index 111 #ffffff first, got %d %s", got.Index, got.Hex)
	}

	var last recordsResponse
	c.MustPost(`{ records(filter: {order: "desc"}, limit: 1) { total records { index hex } } }`, &last)
	if got := last.Records.Records[0].Index; got != 1023 {
		t.Errorf("Expected descending index order to start at 1023, got %d", got)
	}
}

func TestRecords_Variables(t *testing.T) {
	c, _ := testSetup(t)

	var resp recordsResponse
	err := c.Post(`query($filter: RecordFilter, $offset: Int) {
		records(filter: $filter, offset: $offset, limit: 2) { total records { index hex } }
	}`, &resp,
		client.Var("filter", map[string]any{"hue": []string{"red", "blue"}}),
		client.Var("offset", 104))
	if err != nil {
		t.Fatalf("records query failed: %v", err)
	}
	if resp.Records.Total != 106 {
		t.Errorf("Expected total 106, got %d", resp.Records.Total)
	}
	if len(resp.Records.Records) != 2 {
		t.Errorf("Expected the last 2 records, got %d", len(resp.Records.Records))
	}
}

func TestRecords_InvalidFilter(t *testing.T) {
	c, _ := testSetup(t)

	for _, filter := range []string{`{sort: "sideways"}`, `{hue: "chartreuse"}`, `{r: "x"}`, `{brightness: "0-9"}`} {
		var resp struct {
			Records *struct {
				Total int `json:"total"`
			} `json:"records"`
		}
		err := c.Post(`{ records(filter: `+filter+`) { total } }`, &resp)
		if err == nil || !strings.Contains(err.Error(), "invalid filter spec") {
			t.Errorf("%s: expected an invalid filter error, got %v", filter, err)
		}
		if resp.Records != nil {
			t.Errorf("%s: expected null records", filter)
		}
	}
}

func TestRecord(t *testing.T) {
	c, _ := testSetup(t)

	var resp struct {
		Record struct {
			Typename    string `json:"__typename"`
			Channels    string `json:"channels"`
			Hex         string `json:"hex"`
			HueGroup    string `json:"hueGroup"`
			Category    string `json:"category"`
			Temperature string `json:"temperature"`
			A           int    `json:"a"`
			Favorite    bool   `json:"favorite"`
		} `json:"record"`
	}
	c.MustPost(`query($index: Int!) {
		record(index: $index) { __typename channels hex hueGroup category temperature a favorite }
	}`, &resp, client.Var("index", 1))

	got := resp.Record
	if got.Typename != "Record" {
		t.Errorf("Expected __typename Record, got %q", got.Typename)
	}
	if got.Channels != "R0 G0 B0 W0 A85" || got.A != 85 {
		t.Errorf("Unexpected channels %q (a=%d)", got.Channels, got.A)
	}
	if got.Hex != "#2b2000" || got.HueGroup != "orange" || got.Category != "warm" || got.Temperature != "very-warm" {
		t.Errorf("Unexpected classification %+v", got)
	}
	if got.Favorite {
		t.Error("Expected record 1 not to be a favorite")
	}
}

func TestRecord_OutOfRange(t *testing.T) {
	c, _ := testSetup(t)

	var resp struct {
		Record *struct {
			Index int `json:"index"`
		} `json:"record"`
	}
	err := c.Post(`{ record(index: 1024) { index } }`, &resp)
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("Expected an out of range error, got %v", err)
	}
	if resp.Record != nil {
		t.Error("Expected null record")
	}
}

func TestFavoriteMutations(t *testing.T) {
	c, r := testSetup(t)

	var set struct {
		SetFavorite struct {
			Index    int  `json:"index"`
			Favorite bool `json:"favorite"`
		} `json:"setFavorite"`
	}
	c.MustPost(`mutation { setFavorite(index: 7, favorite: true) { index favorite } }`, &set)
	if set.SetFavorite.Index != 7 || !set.SetFavorite.Favorite {
		t.Errorf("Unexpected setFavorite result %+v", set.SetFavorite)
	}

	var toggle struct {
		ToggleFavorite struct {
			Favorite bool `json:"favorite"`
		} `json:"toggleFavorite"`
	}
	c.MustPost(`mutation { toggleFavorite(index: 3) { favorite } }`, &toggle)
	if !toggle.ToggleFavorite.Favorite {
		t.Error("Expected toggle to mark record 3")
	}
	if got := r.Favorites.List(); len(got) != 2 || got[0] != 3 || got[1] != 7 {
		t.Errorf("Expected favorites [3 7], got %v", got)
	}

	var list struct {
		Favorites []struct {
			Index    int  `json:"index"`
			Favorite bool `json:"favorite"`
		} `json:"favorites"`
	}
	c.MustPost(`{ favorites { index favorite } }`, &list)
	if len(list.Favorites) != 2 || list.Favorites[0].Index != 3 || !list.Favorites[1].Favorite {
		t.Errorf("Unexpected favorites %+v", list.Favorites)
	}

	var resp struct {
		ToggleFavorite *struct {
			Favorite bool `json:"favorite"`
		} `json:"toggleFavorite"`
	}
	if err := c.Post(`mutation { toggleFavorite(index: -1) { favorite } }`, &resp); err == nil {
		t.Error("Expected an error for index -1")
	}
}

func TestSummary(t *testing.T) {
	c, _ := testSetup(t)

	type count struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
	}
	var resp struct {
		Summary struct {
			Signature        string  `json:"signature"`
			Total            int     `json:"total"`
			HueGroups        []count `json:"hueGroups"`
			BrightnessLevels []count `json:"brightnessLevels"`
		} `json:"summary"`
	}
	c.MustPost(`{ summary { signature total hueGroups { key count } brightnessLevels { key count } } }`, &resp)

	sum := resp.Summary
	if sum.Signature != "0,85,170,255" || sum.Total != 1024 {
		t.Errorf("Unexpected summary header %q/%d", sum.Signature, sum.Total)
	}
	if len(sum.HueGroups) < 3 || sum.HueGroups[0] != (count{"black", 1}) || sum.HueGroups[2] != (count{"pastel", 271}) {
		t.Errorf("Unexpected hue groups %+v", sum.HueGroups)
	}
	want := []count{{"0", 8}, {"1", 108}, {"2", 389}, {"3", 519}}
	if len(sum.BrightnessLevels) != len(want) {
		t.Fatalf("Expected %d brightness levels, got %d", len(want), len(sum.BrightnessLevels))
	}
	for i, w := range want {
		if sum.BrightnessLevels[i] != w {
			t.Errorf("Level %d: expected %+v, got %+v", i, w, sum.BrightnessLevels[i])
		}
	}
}

func TestFavoriteChangedSubscription(t *testing.T) {
	c, r := testSetup(t)

	sub := c.Websocket(`subscription { favoriteChanged { signature index channels favorite } }`)
	defer func() { _ = sub.Close() }()

	deadline := time.Now().Add(2 * time.Second)
	for r.PubSub.SubscriberCount(pubsub.TopicFavoriteChanged) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := r.Favorites.Toggle(context.Background(), 12); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	var resp struct {
		FavoriteChanged struct {
			Signature string `json:"signature"`
			Index     int    `json:"index"`
			Channels  string `json:"channels"`
			Favorite  bool   `json:"favorite"`
		} `json:"favoriteChanged"`
	}
	if err := sub.Next(&resp); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	got := resp.FavoriteChanged
	if got.Signature != "0,85,170,255" || got.Index != 12 || got.Channels != "R0 G0 B0 W255 A0" || !got.Favorite {
		t.Errorf("Unexpected event %+v", got)
	}
}

func TestIntrospectionIsRejected(t *testing.T) {
	c, _ := testSetup(t)

	var resp map[string]any
	if err := c.Post(`{ __schema { queryType { name } } }`, &resp); err == nil {
		t.Error("Expected introspection to be rejected")
	}
}
