// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/perfkit/sbperf/sbfmt"
	. "github.com/perfkit/sbperf/storage/db"
	"github.com/perfkit/sbperf/storage/db/dbtest"
)

func testResults() sbfmt.Results {
	results := make(sbfmt.Results)
	b := sbfmt.NewBucket(16384, "4G")
	b.Add(sbfmt.IOPS, 1, 333.33)
	b.Add(sbfmt.IOPS, 1, 340)
	b.Add(sbfmt.IOPS, 4, 666.67)
	b.Add(sbfmt.ReqAvg, 4, 12.5)
	results.Config("ssd")["rndrd"] = b
	results.Config("hdd")["seqwr"] = sbfmt.NewBucket(4096, "1G")
	results.Finalize()
	return results
}

// TestUploadIDs verifies that NewUpload generates increasing upload IDs.
func TestUploadIDs(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)

	for _, want := range []string{"1", "2", "3"} {
		u, err := db.NewUpload(ctx)
		if err != nil {
			t.Fatalf("NewUpload: %v", err)
		}
		if u.ID != want {
			t.Errorf("NewUpload().ID = %q, want %q", u.ID, want)
		}
	}
	n, err := db.CountUploads()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("CountUploads() = %d, want 3", n)
	}
	ids, err := db.ListUploads(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"3", "2"}, ids); diff != "" {
		t.Errorf("ListUploads (-want +got):\n%s", diff)
	}
}

func TestInsertResults(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)

	want := testResults()
	u, err := db.NewUpload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := u.InsertResults(ctx, want); err != nil {
		t.Fatalf("InsertResults: %v", err)
	}

	got, err := db.LoadResults(ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadResults: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
}

func TestLoadResultsEmpty(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)

	u, err := db.NewUpload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadResults(ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadResults: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("LoadResults of empty upload = %v, want no results", got)
	}
}

func TestLoadResultsNotFound(t *testing.T) {
	db := dbtest.NewDB(t)
	if _, err := db.LoadResults(context.Background(), "42"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadResults of missing upload: got %v, want ErrNotFound", err)
	}
	if _, err := db.LoadResults(context.Background(), "x"); err == nil {
		t.Errorf("LoadResults with bad ID succeeded")
	}
}

func TestInsertResultsDuplicate(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)

	u, err := db.NewUpload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := u.InsertResults(ctx, testResults()); err != nil {
		t.Fatal(err)
	}
	// The second insert collides on the bucket keys and must leave
	// the first one intact.
	if err := u.InsertResults(ctx, testResults()); err == nil {
		t.Fatal("second InsertResults succeeded")
	}
	got, err := db.LoadResults(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testResults(), got); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
}
