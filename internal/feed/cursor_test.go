package feed

import "testing"

func TestCursor_HasMore(t *testing.T) {
	c := NewCursor(10)
	if !c.HasMore() {
		t.Fatal("fresh cursor must be optimistic")
	}

	c.TotalPages = 0
	if c.HasMore() {
		t.Fatal("known-empty feed has no more pages")
	}

	c.TotalPages = 3
	c.NextPage = 3
	if !c.HasMore() {
		t.Fatal("last page must still be fetchable")
	}

	c.NextPage = 4
	if c.HasMore() {
		t.Fatal("cursor past the last page must report complete")
	}
}
