package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenExchangeStreamsDeltas(t *testing.T) {
	var gotAuth string
	var gotBody exchangeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"id\":\"1\",\"content\":\"Hello\"}\n\n")
		io.WriteString(w, "data: {\"id\":\"2\",\"content\":\" world\"}\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok-123")
	turns := []Turn{{Role: RoleUser, Content: "hi"}}
	stream := client.OpenExchange(context.Background(), turns, "llama3.2")
	defer stream.Close()

	var text string
	sawDone := false
	for {
		ev, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		switch ev.Type {
		case EventDelta:
			text += ev.Text
		case EventDone:
			sawDone = true
		case EventError:
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
	}

	if text != "Hello world" {
		t.Errorf("text = %q, want %q", text, "Hello world")
	}
	if !sawDone {
		t.Error("never saw EventDone")
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.ModelName != "llama3.2" || len(gotBody.Messages) != 1 {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestOpenExchangeImplicitDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Server drops the connection without sending the sentinel.
		io.WriteString(w, "data: {\"id\":\"1\",\"content\":\"partial\"}\n\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	stream := client.OpenExchange(context.Background(), nil, "m")
	defer stream.Close()

	var types []EventType
	for {
		ev, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		types = append(types, ev.Type)
	}

	if len(types) != 2 || types[0] != EventDelta || types[1] != EventDone {
		t.Fatalf("event types = %v, want [EventDelta EventDone]", types)
	}
}

func TestOpenExchangeAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad")
	stream := client.OpenExchange(context.Background(), nil, "m")
	defer stream.Close()

	ev, err := stream.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if ev.Type != EventError {
		t.Fatalf("event type = %v, want EventError", ev.Type)
	}
	if !IsAuth(ev.Err) {
		t.Errorf("IsAuth(%v) = false", ev.Err)
	}
}

func TestOpenExchangeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "boom")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	stream := client.OpenExchange(context.Background(), nil, "m")
	defer stream.Close()

	ev, err := stream.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if ev.Type != EventError {
		t.Fatalf("event type = %v, want EventError", ev.Type)
	}
	var serverErr *ServerError
	if !errors.As(ev.Err, &serverErr) {
		t.Fatalf("error %v is not a ServerError", ev.Err)
	}
	if serverErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", serverErr.StatusCode)
	}
}

func TestGetConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chats/abc" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Turn{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	turns, err := client.GetConversation(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(turns) != 2 || turns[1].Role != RoleAssistant {
		t.Fatalf("turns = %+v", turns)
	}
}

func TestListConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]ConversationSummary{
			{ID: "b", Title: "newest"},
			{ID: "a", Title: "older"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	summaries, err := client.ListConversations(context.Background())
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != "b" {
		t.Fatalf("summaries = %+v", summaries)
	}
}

func TestDeleteConversation(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	if err := client.DeleteConversation(context.Background(), "abc"); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/chats/abc" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestRenameConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/chats/abc/title" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(ConversationSummary{ID: "abc", Title: body["title"]})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	summary, err := client.RenameConversation(context.Background(), "abc", "Renamed")
	if err != nil {
		t.Fatalf("RenameConversation: %v", err)
	}
	if summary.Title != "Renamed" {
		t.Errorf("summary = %+v", summary)
	}
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://example.com/api/", "tok")
	if client.baseURL != "http://example.com/api" {
		t.Errorf("baseURL = %q", client.baseURL)
	}
}
