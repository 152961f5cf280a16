package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"
)

// likedTracksHandler serves a synthetic library of total tracks in pages
// of pageSize, with working next links pointing back at the server.
func likedTracksHandler(total, pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		items := []map[string]any{}
		for i := offset; i < offset+pageSize && i < total; i++ {
			items = append(items, map[string]any{
				"added_at": "2024-01-15T10:30:00Z",
				"track": map[string]any{
					"id":      fmt.Sprintf("t%03d", i),
					"name":    fmt.Sprintf("Song %d", i),
					"type":    "track",
					"artists": []map[string]any{{"name": "Artist"}},
					"album":   map[string]any{"name": "Album"},
				},
			})
		}

		next := ""
		if offset+pageSize < total {
			next = "http://" + r.Host + "/me/tracks?offset=" + strconv.Itoa(offset+pageSize)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"items":  items,
			"limit":  pageSize,
			"offset": offset,
			"total":  total,
			"next":   next,
		})
	}
}

func TestFetchLikedTracks_Pagination(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		limit        int
		wantTracks   int
		wantRequests int64
	}{
		{"full library across pages", 120, 0, 120, 3},
		{"single short page", 30, 0, 30, 1},
		{"limit stops paging early", 120, 60, 60, 2},
		{"limit within first page", 120, 10, 10, 1},
		{"limit beyond library", 30, 100, 30, 1},
		{"empty library", 0, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, requests := newTestClient(t, likedTracksHandler(tt.total, 50))

			tracks, err := client.FetchLikedTracks(context.Background(), tt.limit)
			if err != nil {
				t.Fatalf("FetchLikedTracks() error = %v", err)
			}

			if len(tracks) != tt.wantTracks {
				t.Errorf("FetchLikedTracks() returned %d tracks, want %d", len(tracks), tt.wantTracks)
			}
			if n := requests.Load(); n != tt.wantRequests {
				t.Errorf("server saw %d requests, want %d", n, tt.wantRequests)
			}
		})
	}
}

func TestFetchLikedTracks_PreservesOrder(t *testing.T) {
	client, _ := newTestClient(t, likedTracksHandler(120, 50))

	tracks, err := client.FetchLikedTracks(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchLikedTracks() error = %v", err)
	}

	for i, track := range tracks {
		want := fmt.Sprintf("t%03d", i)
		if track.ID != want {
			t.Fatalf("tracks[%d].ID = %q, want %q", i, track.ID, want)
		}
	}
}

func TestFetchLikedTracks_RequestFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"status":429,"message":"rate limited"}}`))
	})

	if _, err := client.FetchLikedTracks(context.Background(), 0); err == nil {
		t.Error("FetchLikedTracks() error = nil, want request failure")
	}
}
