// SPDX-License-Identifier: MPL-2.0

// Package loader defines the collaborator that makes extracted code
// containers resolvable by the runtime.
//
// The extraction engine only produces an ordered list of cache file paths;
// registering their contained code before the application needs it is the
// loader's job. The concrete mechanism is platform-specific and out of this
// repository's hands, so consumers plug in their own implementation.
package loader

// Loader registers a list of extracted container paths with the runtime's
// code-loading mechanism. Paths must be installed in the given order: the
// runtime resolves references against earlier containers first.
type Loader interface {
	Install(paths []string) error
}

// Func adapts a plain function to the Loader interface.
type Func func(paths []string) error

// Install calls f.
func (f Func) Install(paths []string) error {
	return f(paths)
}

// Multi returns a Loader that runs each given loader in order with the full
// path list, stopping at the first error.
func Multi(loaders ...Loader) Loader {
	return Func(func(paths []string) error {
		for _, l := range loaders {
			if err := l.Install(paths); err != nil {
				return err
			}
		}
		return nil
	})
}
