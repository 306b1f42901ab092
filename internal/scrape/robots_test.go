package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobots_DisallowedPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("fundlens-test", 5*time.Second)

	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/public/page")
	if err != nil || !allowed {
		t.Errorf("Expected /public allowed, got allowed=%v err=%v", allowed, err)
	}
	allowed, _, err = checker.CanFetch(context.Background(), server.URL+"/private/page")
	if err != nil || allowed {
		t.Errorf("Expected /private disallowed, got allowed=%v err=%v", allowed, err)
	}
}

func TestRobots_Missing404AllowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker("fundlens-test", 5*time.Second)
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("404 robots must not error: %v", err)
	}
	if !allowed {
		t.Error("Missing robots.txt must allow all")
	}
}

func TestRobots_CachedPerHost(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			fmt.Fprint(w, "User-agent: *\nAllow: /\n")
		}
	}))
	defer server.Close()

	checker := NewRobotsChecker("fundlens-test", 5*time.Second)
	for i := 0; i < 3; i++ {
		if _, _, err := checker.CanFetch(context.Background(), fmt.Sprintf("%s/page/%d", server.URL, i)); err != nil {
			t.Fatalf("CanFetch %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("Expected one robots.txt fetch per host, got %d", got)
	}
}
