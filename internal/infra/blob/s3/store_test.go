package s3

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"phylotree/internal/blob/core"
)

func TestListFollowsPagination(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("presets/p%d.json", i)
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("{}")), core.PutOptions{ContentType: "application/json"}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "presets/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 5 {
		t.Fatalf("expected 5 objects across pages, got %d", len(infos))
	}
	for i, info := range infos {
		if want := fmt.Sprintf("presets/p%d.json", i); info.Key != want {
			t.Fatalf("object %d = %q, want %q", i, info.Key, want)
		}
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
	store, err := New(context.Background(), Config{Bucket: "trees", Endpoint: "http://localhost:9000", PathStyle: true, AccessKeyID: "a", SecretAccessKey: "b"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}

func TestDecodeChunked(t *testing.T) {
	if got, ok := decodeChunked([]byte("3\r\nabc\r\n0\r\n")); !ok || string(got) != "abc" {
		t.Fatalf("unexpected decode %q %v", got, ok)
	}
	if _, ok := decodeChunked([]byte("5\r\nabc\r\n0\r\n")); ok {
		t.Fatalf("expected length mismatch")
	}
	if _, ok := decodeChunked([]byte("plain body")); ok {
		t.Fatalf("expected plain body to pass through")
	}
}
