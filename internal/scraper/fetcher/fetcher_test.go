package fetcher

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetcher_OK(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<a href="//bilibili.com/video/BV1?from=search">庆余年</a>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(2*time.Second, "bililinks-test/0.1")
	page, err := f.Fetch(context.Background(), srv.URL+"/all?page=3&o=72")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if page.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", page.StatusCode)
	}
	if !strings.Contains(page.Body, "庆余年") {
		t.Errorf("unexpected body: %q", page.Body)
	}
	if gotUA != "bililinks-test/0.1" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotQuery != "page=3&o=72" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestHTTPFetcher_NoCustomUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	if _, err := NewHTTPFetcher(0, "").Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !strings.HasPrefix(gotUA, "Go-http-client/") {
		t.Errorf("expected Go default User-Agent, got %q", gotUA)
	}
}

func TestHTTPFetcher_NonOKStillReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
		_, _ = w.Write([]byte("<html>blocked</html>"))
	}))
	defer srv.Close()

	page, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if page.StatusCode != http.StatusPreconditionFailed || page.Body != "<html>blocked</html>" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestHTTPFetcher_InvalidUTF8Replaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{'a', 0xff, 'b'})
	}))
	defer srv.Close()

	page, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if page.Body != "a�b" {
		t.Errorf("Body = %q", page.Body)
	}
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	ln, _ := net.Listen("tcp", "127.0.0.1:0")
	addr := ln.Addr().String()
	ln.Close()

	_, err := NewHTTPFetcher(time.Second, "").Fetch(context.Background(), "http://"+addr)
	if err == nil {
		t.Fatal("expected network error, got nil")
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(50*time.Millisecond, "").Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}
