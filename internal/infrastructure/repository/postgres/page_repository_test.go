package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/storybook-labs/readalong/internal/core/domain"
)

func samplePage() *domain.Page {
	return &domain.Page{
		ID:          "p1",
		SessionID:   "s1",
		ImageRef:    "img-1",
		Layout:      []domain.Paragraph{{Text: "hello"}},
		SubmittedAt: time.Now().UTC(),
		ProcessedAt: time.Now().UTC(),
	}
}

func TestCreatePageAllocatesIndexInTx(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM sessions").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s1"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM pages`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("INSERT INTO pages").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO text_regions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO text_regions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPageRepository(db)
	page := samplePage()
	regions := []domain.TextRegion{
		{ID: "r1", PageID: "p1", OriginalText: "a"},
		{ID: "r2", PageID: "p1", OriginalText: "b"},
	}
	if err := repo.CreatePageWithRegions(context.Background(), page, regions); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Index != 2 {
		t.Fatalf("expected allocated index 2, got %d", page.Index)
	}
	expectationsMet(t, mock)
}

func TestCreatePageUnknownSession(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM sessions").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	repo := NewPageRepository(db)
	err := repo.CreatePageWithRegions(context.Background(), samplePage(), nil)
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetPageByIndexNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT id, session_id, page_index").WillReturnError(sql.ErrNoRows)

	repo := NewPageRepository(db)
	_, err := repo.GetPageByIndex(context.Background(), "s1", 9)
	if !domain.IsKind(err, domain.ErrPageNotFound) {
		t.Fatalf("expected page not found, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetPageByIndex(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows([]string{
		"id", "session_id", "page_index", "image_ref", "layout",
		"is_front_page", "submitted_at", "processed_at", "audio_ready_at",
	}).AddRow("p1", "s1", 0, "img-1", []byte(`[{"text":"hello","bbox":{"x1":0,"y1":0,"x2":1,"y2":0,"x3":1,"y3":1,"x4":0,"y4":1}}]`),
		false, time.Now().UTC(), time.Now().UTC(), nil)
	mock.ExpectQuery("SELECT id, session_id, page_index").
		WithArgs("s1", 0).
		WillReturnRows(rows)

	repo := NewPageRepository(db)
	page, err := repo.GetPageByIndex(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Layout) != 1 || page.Layout[0].Text != "hello" {
		t.Fatalf("layout not decoded: %+v", page.Layout)
	}
	expectationsMet(t, mock)
}

func TestListRegionsDecodesJSON(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows([]string{
		"id", "page_id", "region_index", "original_text", "translated_text",
		"coordinates", "directions", "audio_clips",
	}).AddRow(
		"r1", "p1", 0, "hi", "hallo",
		[]byte(`{"x1":0,"y1":0,"x2":1,"y2":0,"x3":1,"y3":1,"x4":0,"y4":1}`),
		[]byte(`[{"source":"hi","translation":"hallo","tone":"warm","emotion":"joy","pacing":"slow"}]`),
		[]byte(`["clip-a"]`),
	)
	mock.ExpectQuery("SELECT id, page_id, region_index").
		WithArgs("p1").
		WillReturnRows(rows)

	repo := NewPageRepository(db)
	regions, err := repo.ListRegions(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}
	region := regions[0]
	if len(region.Directions) != 1 || region.Directions[0].Translation != "hallo" {
		t.Fatalf("directions not decoded: %+v", region.Directions)
	}
	if len(region.AudioClips) != 1 || region.AudioClips[0] != "clip-a" {
		t.Fatalf("clips not decoded: %+v", region.AudioClips)
	}
	expectationsMet(t, mock)
}

func TestSetRegionAudioNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE text_regions SET audio_clips").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPageRepository(db)
	err := repo.SetRegionAudio(context.Background(), "gone", []string{"clip"})
	if !domain.IsKind(err, domain.ErrRegionNotFound) {
		t.Fatalf("expected region not found, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestMarkAudioReadyNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE pages SET audio_ready_at").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPageRepository(db)
	err := repo.MarkAudioReady(context.Background(), "gone")
	if !domain.IsKind(err, domain.ErrPageNotFound) {
		t.Fatalf("expected page not found, got %v", err)
	}
	expectationsMet(t, mock)
}
