package export

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	objects map[string]string
	types   map[string]string
	fail    bool
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.fail {
		return nil, errors.New("bucket unreachable")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = string(body)
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func TestSnapshotKeys(t *testing.T) {
	fp := &fakePutter{objects: map[string]string{}, types: map[string]string{}}
	u := newUploader(fp, "inventar", "backups", Labels{Yes: "Yes", No: "No"})

	at := time.Date(2026, 3, 1, 14, 5, 9, 0, time.FixedZone("CET", 3600))
	keys, err := u.Snapshot(context.Background(), sampleItems(), at)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	want := []string{
		"backups/20260301T130509Z/inventory.csv",
		"backups/20260301T130509Z/inventory.json",
	}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), keys)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("key %d: want %s, got %s", i, k, keys[i])
		}
		if _, ok := fp.objects[k]; !ok {
			t.Errorf("object %s not uploaded", k)
		}
	}
	if !strings.Contains(fp.objects[want[0]], "2024-001") {
		t.Error("CSV snapshot missing item")
	}
	if fp.types[want[1]] != "application/json" {
		t.Errorf("unexpected JSON content type %q", fp.types[want[1]])
	}
}

func TestSnapshotUploadError(t *testing.T) {
	u := newUploader(&fakePutter{fail: true}, "inventar", "", Labels{})
	if _, err := u.Snapshot(context.Background(), nil, time.Now()); err == nil {
		t.Error("expected upload error")
	}
}
