package iris

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	pkgerrors "github.com/kapu/groupstats-kakao-bot-go/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendMessage(t *testing.T) {
	var received ReplyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reply" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode failed: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, newTestLogger())
	if err := c.SendMessage(context.Background(), "room1", "안녕하세요"); err != nil {
		t.Fatalf("send message failed: %v", err)
	}

	if received.Type != "text" || received.Room != "room1" || received.Data != "안녕하세요" {
		t.Errorf("unexpected payload: %+v", received)
	}
}

func TestSendImagePayloadType(t *testing.T) {
	var received ReplyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, newTestLogger())
	if err := c.SendImage(context.Background(), "room1", "aGVsbG8="); err != nil {
		t.Fatalf("send image failed: %v", err)
	}
	if received.Type != "image" || received.Data != "aGVsbG8=" {
		t.Errorf("unexpected payload: %+v", received)
	}
}

func TestSendMessageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, newTestLogger())
	err := c.SendMessage(context.Background(), "room1", "hello")
	if err == nil {
		t.Fatal("expected error on 500 response")
	}

	var deliveryErr *pkgerrors.DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("expected DeliveryError, got %T", err)
	}
	if deliveryErr.Group != "room1" {
		t.Errorf("group = %s, want room1", deliveryErr.Group)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/config" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))

	c := NewHTTPClient(server.URL, newTestLogger())
	if !c.Ping(context.Background()) {
		t.Error("expected ping to succeed")
	}

	server.Close()
	if c.Ping(context.Background()) {
		t.Error("expected ping to fail after server close")
	}
}
