package bluetooth

// Group runs several scanners as one. Start fails only if every member
// fails; members that started are stopped together.
type Group []Scanner

// Start starts every member. It returns the first error when none started.
func (g Group) Start(sink Sink) error {
	var firstErr error
	started := 0
	for _, s := range g {
		if err := s.Start(sink); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		started++
	}
	if started == 0 {
		return firstErr
	}
	return nil
}

// Stop stops every member.
func (g Group) Stop() {
	for _, s := range g {
		s.Stop()
	}
}
