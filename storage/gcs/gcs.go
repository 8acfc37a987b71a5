// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gcs publishes sbstat output files to Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// A Location names a bucket and an object name prefix, as in
// gs://bucket/prefix.
type Location struct {
	Bucket string
	Prefix string
}

// ParseURL parses a gs://bucket[/prefix] URL.
func ParseURL(s string) (Location, error) {
	rest, ok := strings.CutPrefix(s, "gs://")
	if !ok {
		return Location{}, fmt.Errorf("bad storage URL %q: must start with gs://", s)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("bad storage URL %q: missing bucket", s)
	}
	return Location{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Object returns the object name of name within l.
func (l Location) Object(name string) string {
	if l.Prefix == "" {
		return name
	}
	return path.Join(l.Prefix, name)
}

// URL returns the gs:// URL of the object name within l.
func (l Location) URL(name string) string {
	return "gs://" + l.Bucket + "/" + l.Object(name)
}

func (l Location) String() string {
	if l.Prefix == "" {
		return "gs://" + l.Bucket
	}
	return "gs://" + l.Bucket + "/" + l.Prefix
}

// Credentials returns the client option used to authenticate to
// Cloud Storage. If credentialsFile is empty, the application
// default credentials are used.
func Credentials(ctx context.Context, credentialsFile string) (option.ClientOption, error) {
	if credentialsFile != "" {
		return option.WithCredentialsFile(credentialsFile), nil
	}
	ts, err := google.DefaultTokenSource(ctx, storage.ScopeReadWrite)
	if err != nil {
		return nil, fmt.Errorf("finding default credentials: %w", err)
	}
	return option.WithTokenSource(ts), nil
}

// An Uploader writes objects below a Location.
type Uploader struct {
	client *storage.Client
	loc    Location
}

// NewUploader returns an Uploader for loc. opts are passed to
// storage.NewClient.
func NewUploader(ctx context.Context, loc Location, opts ...option.ClientOption) (*Uploader, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Uploader{client: client, loc: loc}, nil
}

// Upload copies r to the object name below u's location and returns
// its gs:// URL.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	w := u.client.Bucket(u.loc.Bucket).Object(u.loc.Object(name)).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("uploading %s: %w", u.loc.URL(name), err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("uploading %s: %w", u.loc.URL(name), err)
	}
	return u.loc.URL(name), nil
}

// UploadFile uploads the local file at path, naming the object after
// the file's base name.
func (u *Uploader) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	name := filepath.Base(path)
	return u.Upload(ctx, name, ContentType(name), f)
}

// Close closes the underlying client.
func (u *Uploader) Close() error {
	return u.client.Close()
}

// ContentType returns the MIME type of an output file from its name.
func ContentType(name string) string {
	switch ext := filepath.Ext(name); ext {
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
