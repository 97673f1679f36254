package bench

var schemaStmts = []string{
	`DROP TABLE IF EXISTS comments`,
	`DROP TABLE IF EXISTS articles`,
	`DROP TABLE IF EXISTS users`,

	`CREATE TABLE users (
		id INTEGER PRIMARY KEY NOT NULL,
		created INTEGER NOT NULL,
		email TEXT NOT NULL,
		active INTEGER NOT NULL
	)`,
	`CREATE INDEX users_created ON users(created)`,

	`CREATE TABLE articles (
		id INTEGER PRIMARY KEY NOT NULL,
		created INTEGER NOT NULL,
		userId INTEGER NOT NULL REFERENCES users(id),
		text TEXT NOT NULL
	)`,
	`CREATE INDEX articles_created ON articles(created)`,
	`CREATE INDEX articles_userId ON articles(userId)`,

	`CREATE TABLE comments (
		id INTEGER PRIMARY KEY NOT NULL,
		created INTEGER NOT NULL,
		articleId INTEGER NOT NULL REFERENCES articles(id),
		text TEXT NOT NULL
	)`,
	`CREATE INDEX comments_created ON comments(created)`,
	`CREATE INDEX comments_articleId ON comments(articleId)`,
}

// connPragmas are run on every new connection of every target.
var connPragmas = []string{
	`PRAGMA foreign_keys = ON`,
	`PRAGMA busy_timeout = 10000`,
}

const (
	insertUserSQL    = "INSERT INTO users (created, email, active) VALUES (?, ?, ?)"
	insertArticleSQL = "INSERT INTO articles (created, userId, text) VALUES (?, ?, ?)"
	insertCommentSQL = "INSERT INTO comments (created, articleId, text) VALUES (?, ?, ?)"
	selectUsersSQL   = "SELECT id, created, email, active FROM users ORDER BY id"
	selectJoinSQL    = `
		SELECT
		users.id, users.created, users.email, users.active,
		articles.id, articles.created, articles.userId, articles.text,
		comments.id, comments.created, comments.articleId, comments.text
		FROM users
		LEFT JOIN articles ON articles.userId = users.id
		LEFT JOIN comments ON comments.articleId = articles.id
		ORDER BY users.created, articles.created, comments.created
	`
)
