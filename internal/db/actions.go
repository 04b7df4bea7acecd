package db

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/wyhuang/guba-signal/models"
	dbpkg "github.com/wyhuang/guba-signal/pkg/db"
)

func openDatabase() (*dbpkg.DB, error) {
	_ = godotenv.Load()
	env, err := models.LoadEnv()
	if err != nil {
		return nil, err
	}
	database, err := dbpkg.Open(env.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// SessionsAction lists recorded crawl sessions, most recent first
func SessionsAction(c *cli.Context) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	sessions, err := database.ListSessions(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	// Print table header
	fmt.Printf("%-6s %-20s %-10s %-10s %-8s %-8s %-8s\n",
		"ID", "Created", "Stock", "Pages", "Posts", "Fetched", "Failed")
	fmt.Println(strings.Repeat("-", 80))

	for _, s := range sessions {
		fmt.Printf("%-6d %-20s %-10s %-10s %-8d %-8d %-8d\n",
			s.SessionID,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			s.StockCode,
			fmt.Sprintf("%d..%d", s.StartPage, s.EndPage),
			s.PostCount,
			s.PagesFetched,
			s.PagesFailed,
		)
	}

	fmt.Printf("\nTotal: %d sessions\n", len(sessions))
	fmt.Printf("\nTip: Use 'guba-signal db session <id>' to see posts\n")

	return nil
}

// SessionAction shows one session and its posts
func SessionAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("session ID required\nUsage: guba-signal db session <id>")
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	var sessionID int64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &sessionID); err != nil {
		return fmt.Errorf("invalid session ID: %s", c.Args().First())
	}

	session, err := database.GetSessionByID(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	posts, err := database.GetPosts(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get posts: %w", err)
	}

	fmt.Printf("Session %d\n", session.SessionID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Stock:    %s\n", session.StockCode)
	fmt.Printf("Created:  %s\n", session.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Pages:    %d..%d (%d fetched, %d failed)\n",
		session.StartPage, session.EndPage, session.PagesFetched, session.PagesFailed)
	fmt.Printf("Posts:    %d\n", session.PostCount)

	if len(posts) > 0 {
		fmt.Printf("\nPosts (%d):\n", len(posts))
		fmt.Println(strings.Repeat("-", 60))
		for i, p := range posts {
			fmt.Printf("%3d. %s\n", i+1, p.Title)
			fmt.Printf("     read: %d | comments: %d | author: %s | page: %d\n",
				p.ReadCount, p.CommentCount, p.Author, p.Page)
		}
	}

	return nil
}

// PurgeCacheAction clears persisted classification results
func PurgeCacheAction(c *cli.Context) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := database.PurgeAnalyses()
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}

	fmt.Printf("Purged %d cached analyses\n", n)
	return nil
}
