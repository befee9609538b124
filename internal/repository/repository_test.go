package repository

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	apperrors "go-image-compressor/internal/errors"
	"go-image-compressor/pkg/models"
)

type stubFetcher struct {
	img   image.Image
	err   error
	calls int
}

func (f *stubFetcher) FetchImage(context.Context, string) (image.Image, error) {
	f.calls++
	return f.img, f.err
}

func TestHTTPImageRepository_FetchChannels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(1, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	fetcher := &stubFetcher{img: src}
	repo := NewHTTPImageRepository(fetcher, nil)

	img, err := repo.FetchChannels(context.Background(), "https://example.com/a.png")
	if err != nil {
		t.Fatalf("Expected channels, got %v", err)
	}
	if img.Channel(2).At(0, 1) != 30 {
		t.Errorf("Expected blue sample 30, got %v", img.Channel(2).At(0, 1))
	}
}

func TestHTTPImageRepository_RejectsInvalidURL(t *testing.T) {
	fetcher := &stubFetcher{}
	repo := NewHTTPImageRepository(fetcher, nil)

	_, err := repo.FetchImage(context.Background(), "ftp://example.com/a.png")
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("Expected no fetch for invalid URL, got %d", fetcher.calls)
	}
}

func TestHTTPImageRepository_PropagatesFetchError(t *testing.T) {
	boom := apperrors.NewNetworkError("down", nil)
	repo := NewHTTPImageRepository(&stubFetcher{err: boom}, nil)

	_, err := repo.FetchChannels(context.Background(), "https://example.com/a.png")
	if !errors.Is(err, boom) {
		t.Errorf("Expected fetch error, got %v", err)
	}
}

func TestMemoryResultRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryResultRepository(2)

	for _, rec := range []*ResultRecord{
		{RunID: "a", ImageURL: "u1", Stats: models.CompressionStats{Algorithm: "svd"}},
		{RunID: "b", ImageURL: "u2"},
		{RunID: "c", ImageURL: "u1"},
	} {
		if err := repo.SaveResult(ctx, rec); err != nil {
			t.Fatalf("SaveResult(%s) failed: %v", rec.RunID, err)
		}
	}

	if _, err := repo.GetResult(ctx, "a"); !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("Expected oldest record to be evicted, got %v", err)
	}
	if !errors.Is(func() error { _, err := repo.GetResult(ctx, "a"); return err }(), ErrResultNotFound) {
		t.Error("Expected not found error to wrap ErrResultNotFound")
	}

	got, err := repo.GetResult(ctx, "c")
	if err != nil || got.ImageURL != "u1" {
		t.Errorf("Expected record c for u1, got %+v, %v", got, err)
	}

	history, _ := repo.GetResultHistory(ctx, "u1")
	if len(history) != 1 || history[0].RunID != "c" {
		t.Errorf("Expected history [c], got %+v", history)
	}

	if err := repo.SaveResult(ctx, &ResultRecord{}); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error for missing run id, got %v", err)
	}
}

func TestMemoryResultRepository_EvictionReleasesIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryResultRepository(3)

	for i := 0; i < 10; i++ {
		rec := &ResultRecord{RunID: fmt.Sprintf("run-%d", i), ImageURL: "u"}
		if err := repo.SaveResult(ctx, rec); err != nil {
			t.Fatalf("SaveResult failed: %v", err)
		}
	}
	// re-saving a live record must not take a slot
	if err := repo.SaveResult(ctx, &ResultRecord{RunID: "run-8", ImageURL: "u"}); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	if len(repo.order) != 3 || len(repo.records) != 3 {
		t.Fatalf("Expected 3 slots and 3 records, got %d and %d", len(repo.order), len(repo.records))
	}
	for _, id := range repo.order {
		if _, ok := repo.records[id]; !ok {
			t.Errorf("Slot holds evicted run %s", id)
		}
	}

	history, _ := repo.GetResultHistory(ctx, "u")
	var ids []string
	for _, rec := range history {
		ids = append(ids, rec.RunID)
	}
	if fmt.Sprint(ids) != "[run-9 run-8 run-7]" {
		t.Errorf("Expected newest-first history [run-9 run-8 run-7], got %v", ids)
	}
}
