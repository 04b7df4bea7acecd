package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Crawl sessions: one row per crawl run of a stock's forum
CREATE TABLE IF NOT EXISTS crawl_sessions (
    session_id INTEGER PRIMARY KEY AUTOINCREMENT,
    stock_code TEXT NOT NULL,
    start_page INTEGER NOT NULL,
    end_page INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    post_count INTEGER DEFAULT 0,
    pages_fetched INTEGER DEFAULT 0,
    pages_failed INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_stock ON crawl_sessions(stock_code);
CREATE INDEX IF NOT EXISTS idx_sessions_created ON crawl_sessions(created_at DESC);

-- Posts: every deduplicated post extracted during a session
CREATE TABLE IF NOT EXISTS posts (
    post_id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    link TEXT,
    read_count INTEGER DEFAULT 0,
    comment_count INTEGER DEFAULT 0,
    author TEXT,
    post_time TEXT,
    page INTEGER NOT NULL,
    crawl_time TIMESTAMP NOT NULL,
    FOREIGN KEY (session_id) REFERENCES crawl_sessions(session_id) ON DELETE CASCADE,
    UNIQUE(session_id, title)
);

CREATE INDEX IF NOT EXISTS idx_posts_session ON posts(session_id);
CREATE INDEX IF NOT EXISTS idx_posts_engagement ON posts(read_count + comment_count);

-- Analysis cache: classification results keyed by title content hash
CREATE TABLE IF NOT EXISTS analysis_cache (
    content_hash TEXT PRIMARY KEY,
    sentiment TEXT NOT NULL,
    confidence REAL NOT NULL,
    signal TEXT NOT NULL,
    reason TEXT,
    urgency TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_analysis_created ON analysis_cache(created_at);
`
