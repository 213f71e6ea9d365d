package mediatex

import (
	"sync"

	"go.uber.org/multierr"
)

// StopAll stops the given sources in parallel, since stopping a capture
// device can take a while, and combines their errors.
func StopAll(sources ...*Playable) error {
	fs := make([]func() error, 0, len(sources))
	for _, p := range sources {
		fs = append(fs, p.Stop)
	}
	return runParallel(fs)
}

// runParallel runs the given functions in parallel to completion or error.
func runParallel(fs []func() error) error {
	var wg sync.WaitGroup
	wg.Add(len(fs))
	errs := make([]error, len(fs))
	for i, f := range fs {
		iCopy := i
		fCopy := f
		go func() {
			defer wg.Done()
			errs[iCopy] = fCopy()
		}()
	}
	wg.Wait()

	return multierr.Combine(errs...)
}
