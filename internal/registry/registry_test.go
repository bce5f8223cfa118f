package registry

import "testing"

func TestAdd_DuplicateIDRejected(t *testing.T) {
	r := New()

	if !r.Add("c1", "Alice", "key1") {
		t.Fatalf("first add should succeed")
	}
	if r.Add("c1", "AliceAgain", "key2") {
		t.Fatalf("second add with same id should fail")
	}

	client, ok := r.Get("c1")
	if !ok || client.Name != "Alice" {
		t.Fatalf("registry should keep the first registration, got %+v", client)
	}
	if r.Len() != 1 {
		t.Fatalf("want 1 client, got %d", r.Len())
	}
}

func TestMakeAdmin_UnknownID(t *testing.T) {
	r := New()
	if r.MakeAdmin("ghost") {
		t.Fatalf("make admin on unknown id should fail")
	}
	if _, ok := r.AdminID(); ok {
		t.Fatalf("no admin should exist")
	}
}

func TestMakeAdmin_DemotesPreviousAdmin(t *testing.T) {
	r := New()
	r.Add("c1", "Alice", "k1")
	r.Add("c2", "Bob", "k2")

	if !r.MakeAdmin("c1") {
		t.Fatalf("make admin c1 failed")
	}
	if !r.MakeAdmin("c2") {
		t.Fatalf("make admin c2 failed")
	}

	id, ok := r.AdminID()
	if !ok || id != "c2" {
		t.Fatalf("want admin c2, got %q (ok=%v)", id, ok)
	}

	admins := 0
	for _, client := range r.List() {
		if client.IsAdmin {
			admins++
		}
	}
	if admins != 1 {
		t.Fatalf("want exactly one admin, got %d", admins)
	}
}

func TestRemove_ReportsRegistration(t *testing.T) {
	r := New()
	r.Add("c1", "Alice", "k1")

	client, ok := r.Remove("c1")
	if !ok || client.Name != "Alice" {
		t.Fatalf("remove should return the stored client, got %+v (ok=%v)", client, ok)
	}
	if _, ok := r.Remove("c1"); ok {
		t.Fatalf("second remove should report missing")
	}
	if r.Len() != 0 {
		t.Fatalf("registry should be empty")
	}
}

func TestList_SortedSnapshot(t *testing.T) {
	r := New()
	r.Add("c2", "Bob", "k2")
	r.Add("c1", "Alice", "k1")
	r.Add("c3", "Mallory", "k3")

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("want 3 clients, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Fatalf("list not sorted by id: %+v", list)
		}
	}
}
