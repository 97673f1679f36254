package sqlitec

import "errors"

// Command is a prepared statement executed for its side effects. The SQL
// text may contain several statements; ExecuteAll runs them all.
type Command struct {
	*Stmt
	tail string
}

// NewCommand prepares the first statement of query and keeps the rest for
// ExecuteAll.
func NewCommand(conn *Conn, query string) (*Command, error) {
	stmt, tail, err := conn.PrepareTail(query)
	if err != nil {
		return nil, err
	}
	return &Command{Stmt: stmt, tail: tail}, nil
}

// Execute performs one step of the current statement and reports whether it
// produced a row.
func (c *Command) Execute() (bool, error) {
	return c.Step()
}

// ExecuteAll runs the current statement to completion, then prepares and
// runs every remaining statement of the SQL text. The bindings of the last
// statement that declared parameters are transferred to each following
// statement that declares them too; a parameter count mismatch is an error.
// Statements without parameters run on their own and leave the current
// statement in place.
func (c *Command) ExecuteAll() error {
	if err := c.Exec(); err != nil {
		return err
	}

	for !isBlankSQL(c.tail) {
		next, tail, err := c.conn.PrepareTail(c.tail)
		if errors.Is(err, ErrEmptyStatement) {
			c.tail = ""
			break
		}
		if err != nil {
			return err
		}

		if next.BindParameterCount() == 0 && c.BindParameterCount() > 0 {
			c.tail = tail
			err := next.Exec()
			if ferr := next.Finalize(); err == nil {
				err = ferr
			}
			if err != nil {
				return err
			}
			continue
		}

		if err := c.transferBindings(next); err != nil {
			_ = next.Finalize()
			return err
		}
		if err := c.Finalize(); err != nil {
			_ = next.Finalize()
			return err
		}

		c.cStmt = next.cStmt
		c.tail = tail

		if err := c.Exec(); err != nil {
			return err
		}
	}

	c.tail = ""
	return nil
}

// Tail returns the SQL text that has not been prepared yet.
func (c *Command) Tail() string {
	return c.tail
}

// Insert executes the statement and returns the rowid of the inserted row.
func (c *Command) Insert() (int64, error) {
	if err := c.Exec(); err != nil {
		return 0, err
	}
	id, _ := c.conn.LastInsertRowID()
	return id, nil
}
