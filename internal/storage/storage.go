// Package storage keeps uploaded timetable images.
package storage

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// ImageStore saves an object and returns a URL it can be read from.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// DemoBaseURL prefixes keys of images that were never uploaded anywhere.
const DemoBaseURL = "https://demo-timetable"

// DemoURL returns the placeholder URL recorded for key.
func DemoURL(key string) string {
	return DemoBaseURL + "/" + key
}

// Demo discards images and hands back placeholder URLs.
type Demo struct{}

func (Demo) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	return DemoURL(key), nil
}

// TimetableKey builds a unique object key for a user's semester upload.
func TimetableKey(userID int64, semester, contentType string) string {
	return fmt.Sprintf("timetables/%d/%s-%s%s", userID, sanitize(semester), uuid.NewString(), extension(contentType))
}

func extension(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/jpeg", "image/jpg", "":
		return ".jpg"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".jpg"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}
