package csvrow

import "iter"

// Source is a restartable CSV input: every pass opens the file again.
type Source struct {
	path string
	opts Options
}

// NewSource returns a Source for the file at path.
func NewSource(path string, opts Options) Source {
	return Source{path: path, opts: opts}
}

// Path returns the file path.
func (s Source) Path() string {
	return s.path
}

// Iter returns a fresh one-shot Iterator.
func (s Source) Iter() *Iterator {
	return Open(s.path, s.opts)
}

// All ranges over every row. A read error is yielded once, with a nil row,
// and ends the sequence. Breaking out of the loop closes the file.
func (s Source) All() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		it := s.Iter()
		defer it.Close()

		for it.Next() {
			if !yield(it.Row(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}
