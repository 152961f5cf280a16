package deezer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewClient(log.New(io.Discard), WithBaseURL(srv.URL)), &requests
}

func TestFindPreview(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{
			name: "first result with a preview wins",
			body: `{"data":[
				{"id":1,"title":"Song","preview":"","artist":{"name":"A"}},
				{"id":2,"title":"Song","preview":"https://cdn.example/clip2.mp3","artist":{"name":"A"}},
				{"id":3,"title":"Song","preview":"https://cdn.example/clip3.mp3","artist":{"name":"A"}}
			],"total":3}`,
			want: "https://cdn.example/clip2.mp3",
		},
		{
			name:    "no results",
			body:    `{"data":[],"total":0}`,
			wantErr: ErrNoPreview,
		},
		{
			name: "results without previews",
			body: `{"data":[
				{"id":1,"title":"Song","preview":"","artist":{"name":"A"}}
			],"total":1}`,
			wantErr: ErrNoPreview,
		},
		{
			name:    "quota exhausted",
			body:    `{"error":{"type":"Exception","message":"Quota limit exceeded","code":4}}`,
			wantErr: ErrQuotaExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			got, err := client.FindPreview(context.Background(), "Song", "A")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FindPreview() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindPreview() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FindPreview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindPreview_Query(t *testing.T) {
	var gotQuery string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"data":[],"total":0}`))
	})

	client.FindPreview(context.Background(), "Paranoid Android", "Radiohead")

	if want := "Paranoid Android Radiohead"; gotQuery != want {
		t.Errorf("search query = %q, want %q", gotQuery, want)
	}
}

func TestFindPreview_CachesHits(t *testing.T) {
	client, requests := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":1,"title":"Song","preview":"https://cdn.example/clip.mp3","artist":{"name":"A"}}],"total":1}`))
	})

	for i := 0; i < 3; i++ {
		got, err := client.FindPreview(context.Background(), "Song", "A")
		if err != nil {
			t.Fatalf("FindPreview() call %d error = %v", i, err)
		}
		if got != "https://cdn.example/clip.mp3" {
			t.Fatalf("FindPreview() call %d = %q", i, got)
		}
	}

	if n := requests.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestFindPreview_CachesMisses(t *testing.T) {
	client, requests := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"total":0}`))
	})

	for i := 0; i < 3; i++ {
		_, err := client.FindPreview(context.Background(), "Song", "A")
		if !errors.Is(err, ErrNoPreview) {
			t.Fatalf("FindPreview() call %d error = %v, want ErrNoPreview", i, err)
		}
	}

	// Negative results are cached too; one lookup per unique track.
	if n := requests.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestFindPreview_DistinctTracksAreDistinctLookups(t *testing.T) {
	client, requests := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"total":0}`))
	})

	client.FindPreview(context.Background(), "Song", "A")
	client.FindPreview(context.Background(), "Song", "B")
	client.FindPreview(context.Background(), "Other", "A")

	if n := requests.Load(); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
}

func TestFindPreview_MalformedResponse(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := client.FindPreview(context.Background(), "Song", "A")
	if err == nil {
		t.Error("FindPreview() error = nil, want parse failure")
	}
}
