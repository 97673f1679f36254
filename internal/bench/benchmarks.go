package bench

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nsqlite/litebind/internal/bench/benchbar"
)

// result stores the outcome of a benchmark.
type result struct {
	Name     string
	Duration time.Duration
	Reads    int64
	Writes   int64
}

// workload holds the row counts of every benchmark.
type workload struct {
	simpleUsers int

	complexUsers           int
	complexArticlesPerUser int
	complexCommentsPerArt  int

	manyUsers   int
	manyQueries int

	largeUsers int
	largeBytes int
}

func newWorkload(scale float64) workload {
	scaled := func(n int) int {
		return max(1, int(float64(n)*scale))
	}

	return workload{
		simpleUsers: scaled(1_000_000),

		complexUsers:           scaled(200),
		complexArticlesPerUser: scaled(100),
		complexCommentsPerArt:  scaled(20),

		manyUsers:   scaled(1_000),
		manyQueries: scaled(1_000),

		largeUsers: scaled(10_000),
		largeBytes: 10_000,
	}
}

// runner runs the benchmarks against one target.
type runner struct {
	out        io.Writer
	goroutines int
	work       workload
}

type benchmark struct {
	name string
	run  func(ctx context.Context, t target) (reads, writes int64, err error)
}

func (r *runner) benchmarks() []benchmark {
	return []benchmark{
		{"Simple", r.simple},
		{"Complex", r.complex},
		{"Many", r.many},
		{"Large", r.large},
	}
}

// runAll recreates the schema and runs every benchmark in order.
func (r *runner) runAll(ctx context.Context, t target) ([]result, error) {
	var results []result

	for _, b := range r.benchmarks() {
		if err := recreateSchema(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to recreate schema: %w", err)
		}

		start := time.Now()
		reads, writes, err := b.run(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("benchmark %s failed: %w", b.name, err)
		}
		results = append(results, result{
			Name:     b.name,
			Duration: time.Since(start),
			Reads:    reads,
			Writes:   writes,
		})
	}

	return results, nil
}

func recreateSchema(ctx context.Context, t target) error {
	for _, stmt := range schemaStmts {
		if _, err := t.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) bar(description string, n int) *benchbar.Bar {
	return benchbar.New(r.out, description, n)
}

// insertUsers inserts n users from r.goroutines goroutines.
func (r *runner) insertUsers(ctx context.Context, t target, n int, email func(idx int) string) (int64, error) {
	return parallel(ctx, n, r.goroutines, r.bar(fmt.Sprintf("Inserting %d users", n), n),
		func(idx int) (int64, error) {
			return t.exec(ctx, insertUserSQL, time.Now().Unix(), email(idx), 1)
		},
	)
}

func userEmail(idx int) string {
	return fmt.Sprintf("user%d@example.com", idx)
}

// simple inserts X users and then queries all of them in single query.
func (r *runner) simple(ctx context.Context, t target) (int64, int64, error) {
	writes, err := r.insertUsers(ctx, t, r.work.simpleUsers, userEmail)
	if err != nil {
		return 0, 0, fmt.Errorf("error when inserting: %w", err)
	}

	reads, err := t.readAll(ctx, selectUsersSQL)
	if err != nil {
		return 0, 0, fmt.Errorf("error when querying: %w", err)
	}
	return reads, writes, nil
}

// complex inserts X users, each with Y articles, and each article with Z
// comments. Then it queries all of them with a JOIN query.
func (r *runner) complex(ctx context.Context, t target) (int64, int64, error) {
	w := r.work
	writes, err := r.insertUsers(ctx, t, w.complexUsers, userEmail)
	if err != nil {
		return 0, 0, fmt.Errorf("error inserting users: %w", err)
	}

	totalArticles := w.complexUsers * w.complexArticlesPerUser
	n, err := parallel(ctx, totalArticles, r.goroutines,
		r.bar(fmt.Sprintf("Inserting %d articles", totalArticles), totalArticles),
		func(idx int) (int64, error) {
			userID := (idx % w.complexUsers) + 1
			return t.exec(ctx, insertArticleSQL,
				time.Now().Unix(), userID, fmt.Sprintf("article for user %d", userID))
		},
	)
	if err != nil {
		return 0, 0, fmt.Errorf("error inserting articles: %w", err)
	}
	writes += n

	totalComments := totalArticles * w.complexCommentsPerArt
	n, err = parallel(ctx, totalComments, r.goroutines,
		r.bar(fmt.Sprintf("Inserting %d comments", totalComments), totalComments),
		func(idx int) (int64, error) {
			articleID := (idx % totalArticles) + 1
			return t.exec(ctx, insertCommentSQL, time.Now().Unix(), articleID, "comment")
		},
	)
	if err != nil {
		return 0, 0, fmt.Errorf("error inserting comments: %w", err)
	}
	writes += n

	reads, err := t.readAll(ctx, selectJoinSQL)
	if err != nil {
		return 0, 0, fmt.Errorf("error querying: %w", err)
	}
	return reads, writes, nil
}

// many inserts X users in a single transaction and then queries all users Y
// times. This simulates a read-heavy workload.
func (r *runner) many(ctx context.Context, t target) (int64, int64, error) {
	w := r.work
	args := make([][]any, w.manyUsers)
	for idx := range args {
		args[idx] = []any{time.Now().Unix(), userEmail(idx), 1}
	}

	bar := r.bar(fmt.Sprintf("Inserting %d users", w.manyUsers), w.manyUsers)
	writes, err := t.execMany(ctx, insertUserSQL, args, bar.Inc)
	bar.Finish()
	if err != nil {
		return 0, 0, fmt.Errorf("error inserting users: %w", err)
	}

	reads, err := parallel(ctx, w.manyQueries, r.goroutines,
		r.bar(fmt.Sprintf("Querying all users %d times", w.manyQueries), w.manyQueries),
		func(int) (int64, error) {
			return t.readAll(ctx, selectUsersSQL)
		},
	)
	if err != nil {
		return 0, 0, fmt.Errorf("error querying users: %w", err)
	}
	return reads, writes, nil
}

// large inserts X users with Y bytes of content and then queries all of them
// in single query.
func (r *runner) large(ctx context.Context, t target) (int64, int64, error) {
	email := strings.Repeat("Y", r.work.largeBytes)
	writes, err := r.insertUsers(ctx, t, r.work.largeUsers, func(int) string {
		return email
	})
	if err != nil {
		return 0, 0, fmt.Errorf("error when inserting: %w", err)
	}

	reads, err := t.readAll(ctx, selectUsersSQL)
	if err != nil {
		return 0, 0, fmt.Errorf("error when querying: %w", err)
	}
	return reads, writes, nil
}
