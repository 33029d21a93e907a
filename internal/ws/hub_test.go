package ws

import "testing"

func TestHubJoinAndLeave(t *testing.T) {
	hub := NewHub()

	hub.Join(1, nil, ConnInfo{UserID: 1})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected user room to be created")
	}
	if hub.ConnCount(1) != 1 {
		t.Fatalf("expected one connection for user 1")
	}

	hub.Leave(1, nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected user room to be removed")
	}
	if hub.ConnCount(1) != 0 {
		t.Fatalf("expected no connections for user 1")
	}
}

func TestHubLeaveUnknownConnection(t *testing.T) {
	hub := NewHub()

	hub.Leave(7, nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected hub to stay empty")
	}
}
