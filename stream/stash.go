package stream

// Stashable wraps an OutputStream with an optional in-memory hold window.
// While stashing is enabled, writes are buffered instead of reaching the base
// stream, but they keep counting toward Tell; the buffer is applied only by
// StashPop. The row-group writer uses this to slide the Parquet footer of a
// sub-file past the padding that follows it.
type Stashable struct {
	base     OutputStream
	stash    []byte
	stashing bool
	offset   int64
	closed   bool
}

// NewStashable wraps base. The wrapper assumes it is the only writer of base.
func NewStashable(base OutputStream) *Stashable {
	return &Stashable{base: base}
}

// StashWrites buffers incoming writes until StashResume. Stashed writes
// continue to affect the file size reported by Tell.
func (s *Stashable) StashWrites() { s.stashing = true }

// StashResume stops buffering. Previously stashed writes stay held; they are
// applied only through StashPop.
func (s *Stashable) StashResume() { s.stashing = false }

// StashGet returns the currently held bytes.
func (s *Stashable) StashGet() []byte { return s.stash }

// StashPop applies the held bytes to the base stream and clears the buffer.
func (s *Stashable) StashPop() error {
	if len(s.stash) == 0 {
		return nil
	}
	_, err := s.doWrite(s.stash)
	s.stash = s.stash[:0]
	return err
}

func (s *Stashable) Write(p []byte) (int, error) {
	if s.stashing {
		s.stash = append(s.stash, p...)
		return len(p), nil
	}
	return s.doWrite(p)
}

func (s *Stashable) doWrite(p []byte) (int, error) {
	n, err := s.base.Write(p)
	s.offset += int64(n)
	return n, err
}

// Tell reports the offset the stream would be at if the stash were applied.
func (s *Stashable) Tell() int64 { return s.offset + int64(len(s.stash)) }

func (s *Stashable) BeginRowGroup() error { return s.base.BeginRowGroup() }

func (s *Stashable) EndRowGroup() error { return s.base.EndRowGroup() }

func (s *Stashable) Finish() error { return s.base.Finish() }

// Close closes the base stream. Bytes still stashed at close are discarded;
// that is a caller error.
func (s *Stashable) Close() error {
	s.closed = true
	return s.base.Close()
}
