package db

import (
	"testing"
	"time"

	"github.com/wyhuang/guba-signal/models"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func TestCreateAndFinishSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	sessionID, err := db.CreateSession("002594", 1, 3)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if sessionID == 0 {
		t.Error("CreateSession() returned 0 session ID")
	}

	if err := db.FinishSession(sessionID, 42, 3, 0); err != nil {
		t.Fatalf("FinishSession() error = %v", err)
	}

	session, err := db.GetSessionByID(sessionID)
	if err != nil {
		t.Fatalf("GetSessionByID() error = %v", err)
	}
	if session.StockCode != "002594" {
		t.Errorf("session.StockCode = %q, want %q", session.StockCode, "002594")
	}
	if session.StartPage != 1 || session.EndPage != 3 {
		t.Errorf("session pages = %d..%d, want 1..3", session.StartPage, session.EndPage)
	}
	if session.PostCount != 42 {
		t.Errorf("session.PostCount = %d, want 42", session.PostCount)
	}
	if session.PagesFetched != 3 || session.PagesFailed != 0 {
		t.Errorf("session pages fetched/failed = %d/%d, want 3/0", session.PagesFetched, session.PagesFailed)
	}
}

func TestGetSessionByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := db.GetSessionByID(9999); err == nil {
		t.Error("GetSessionByID() for missing session should error")
	}
}

func TestLatestSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if s, err := db.LatestSession("600519"); err != nil || s != nil {
		t.Errorf("LatestSession() before any crawl = (%v, %v), want (nil, nil)", s, err)
	}

	first, _ := db.CreateSession("600519", 1, 3)
	second, _ := db.CreateSession("600519", 1, 5)
	db.CreateSession("002594", 1, 3) // different stock, must not match

	latest, err := db.LatestSession("600519")
	if err != nil {
		t.Fatalf("LatestSession() error = %v", err)
	}
	if latest == nil || latest.SessionID != second {
		t.Errorf("LatestSession() = %+v, want session %d (not %d)", latest, second, first)
	}
}

func TestListSessions(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	db.CreateSession("002594", 1, 3)
	db.CreateSession("600519", 1, 3)
	db.CreateSession("000001", 1, 3)

	sessions, err := db.ListSessions(2)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want limit 2", len(sessions))
	}
	// Most recent first
	if sessions[0].StockCode != "000001" {
		t.Errorf("sessions[0].StockCode = %q, want most recent 000001", sessions[0].StockCode)
	}
}

func TestInsertAndGetPosts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	sessionID, _ := db.CreateSession("002594", 1, 1)
	crawled := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{Title: "比亚迪销量创新高", Link: "https://guba.eastmoney.com/news,002594,1.html",
			ReadCount: 12000, CommentCount: 340, Author: "老股民", Time: "03-15 08:55",
			Page: 1, CrawlTime: crawled},
		{Title: "观望一下", Author: "未知", Page: 1, CrawlTime: crawled},
	}

	if err := db.InsertPosts(sessionID, posts); err != nil {
		t.Fatalf("InsertPosts() error = %v", err)
	}

	got, err := db.GetPosts(sessionID)
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d posts, want 2", len(got))
	}
	if got[0].Title != "比亚迪销量创新高" || got[0].ReadCount != 12000 {
		t.Errorf("posts[0] = %+v", got[0])
	}
	if !got[0].CrawlTime.Equal(crawled) {
		t.Errorf("posts[0].CrawlTime = %v, want %v", got[0].CrawlTime, crawled)
	}
}

func TestInsertPosts_DuplicateTitleIgnored(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	sessionID, _ := db.CreateSession("002594", 1, 2)
	post := models.Post{Title: "重复的标题", Page: 1, CrawlTime: time.Now()}

	if err := db.InsertPosts(sessionID, []models.Post{post, post}); err != nil {
		t.Fatalf("InsertPosts() error = %v", err)
	}

	got, err := db.GetPosts(sessionID)
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d posts, want duplicate collapsed to 1", len(got))
	}
}
