package store

import (
	"context"
	"os"
	"testing"
)

func TestFileBlobStoreUpload(t *testing.T) {
	b, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBlobStore() error: %v", err)
	}
	ctx := context.Background()

	ref, err := b.Upload(ctx, []byte("audio bytes"), "wav")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		t.Fatalf("reference is not readable: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Errorf("stored payload mismatch: %q", data)
	}

	// Same payload yields the same reference
	again, err := b.Upload(ctx, []byte("audio bytes"), "wav")
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if again != ref {
		t.Errorf("identical payload produced different refs: %s vs %s", again, ref)
	}
}

func TestFileBlobStoreRejectsEmptyPayload(t *testing.T) {
	b, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBlobStore() error: %v", err)
	}
	if _, err := b.Upload(context.Background(), nil, "wav"); err == nil {
		t.Error("Upload() accepted an empty payload")
	}
}

func TestFileBlobStoreHonorsCancelledContext(t *testing.T) {
	b, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBlobStore() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Upload(ctx, []byte("x"), ""); err == nil {
		t.Error("Upload() ignored a cancelled context")
	}
}
