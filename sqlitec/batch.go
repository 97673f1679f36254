package sqlitec

import "errors"

// Batch executes the statements of a SQL text one at a time. The text that
// has not been executed yet is available through State.
type Batch struct {
	conn  *Conn
	query string
	state string
}

// NewBatch returns a batch over query. Nothing is compiled until the first
// execution.
func NewBatch(conn *Conn, query string) *Batch {
	return &Batch{conn: conn, query: query, state: query}
}

// Prepare replaces the batch SQL text and rewinds it.
func (b *Batch) Prepare(query string) {
	b.query = query
	b.state = query
}

// Reset rewinds the batch to the start of its SQL text.
func (b *Batch) Reset() {
	b.state = b.query
}

// State returns the part of the SQL text that has not been executed.
func (b *Batch) State() string {
	return b.state
}

// Done reports whether nothing is left to execute. A remainder made only
// of comments counts as done.
func (b *Batch) Done() bool {
	if isBlankSQL(b.state) {
		return true
	}
	stmt, _, err := b.conn.PrepareTail(b.state)
	if errors.Is(err, ErrEmptyStatement) {
		return true
	}
	if stmt != nil {
		_ = stmt.Finalize()
	}
	return false
}

// Next compiles the next statement and advances the batch past it. The
// caller owns the returned statement and must finalize it. A nil statement
// with a nil error means the batch is exhausted.
func (b *Batch) Next() (*Stmt, error) {
	if isBlankSQL(b.state) {
		b.state = ""
		return nil, nil
	}

	stmt, tail, err := b.conn.PrepareTail(b.state)
	if errors.Is(err, ErrEmptyStatement) {
		b.state = ""
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b.state = tail
	return stmt, nil
}

// ExecuteNext runs the next statement to completion. It returns false when
// there was nothing left to run. On error the state stays at the failing
// statement.
func (b *Batch) ExecuteNext() (bool, error) {
	prev := b.state

	stmt, err := b.Next()
	if err != nil || stmt == nil {
		return false, err
	}

	if err := errors.Join(stmt.Exec(), stmt.Finalize()); err != nil {
		b.state = prev
		return false, err
	}

	return true, nil
}

// ExecuteAll runs every remaining statement, stopping at the first error.
func (b *Batch) ExecuteAll() error {
	for {
		ran, err := b.ExecuteNext()
		if err != nil {
			return err
		}
		if !ran {
			return nil
		}
	}
}
