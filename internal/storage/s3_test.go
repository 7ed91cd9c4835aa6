// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUnconfigured(t *testing.T) {
	c, err := New("", "us-east-1", "", "", "bucket", "")
	if err != nil || c != nil {
		t.Fatalf("New() = %v, %v; want nil, nil", c, err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New("http://minio:9000", "us-east-1", "ak", "sk", "", ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}

func TestFileURLAndExtractKey(t *testing.T) {
	tests := []struct {
		name      string
		publicURL string
		wantURL   string
	}{
		{"path style", "", "http://minio:9000/homepros-public/providers/a/b.jpg"},
		{"cdn", "https://cdn.example.com/", "https://cdn.example.com/providers/a/b.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New("http://minio:9000/", "us-east-1", "ak", "sk", "homepros-public", tt.publicURL)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			got := c.FileURL("providers/a/b.jpg")
			if got != tt.wantURL {
				t.Errorf("FileURL = %q, want %q", got, tt.wantURL)
			}
			key, ok := c.ExtractKey(got)
			if !ok || key != "providers/a/b.jpg" {
				t.Errorf("ExtractKey = %q, %v", key, ok)
			}
		})
	}

	c, _ := New("http://minio:9000", "us-east-1", "ak", "sk", "homepros-public", "")
	if _, ok := c.ExtractKey("https://elsewhere.example.com/x.jpg"); ok {
		t.Error("foreign URL should not resolve to a key")
	}
}

func TestImageKey(t *testing.T) {
	id := uuid.New()

	key, err := ImageKey(id, "image/png")
	if err != nil {
		t.Fatalf("ImageKey: %v", err)
	}
	if !strings.HasPrefix(key, "providers/"+id.String()+"/") || !strings.HasSuffix(key, ".png") {
		t.Errorf("unexpected key %q", key)
	}

	other, _ := ImageKey(id, "image/png")
	if other == key {
		t.Error("keys should be unique per upload")
	}

	if _, err := ImageKey(id, "application/pdf"); err == nil {
		t.Error("expected error for non-image content type")
	}
}
