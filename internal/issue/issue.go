// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	SourcePackageNotFoundId Id = iota + 1
	SourcePackageInvalidId
	CacheDirFailedId
	ExtractionRetryExhaustedId
	RenameLockFailedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links for the issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	sourcePackageNotFoundIssue = &Issue{
		id: SourcePackageNotFoundId,
		mdMsg: `
# Source package not found!

The application package you pointed at does not exist or cannot be read.

## Things you can try:
- Check the path for typos:
~~~
$ dexcache inspect /path/to/app.apk
~~~

- Verify the file is readable by your user:
~~~
$ ls -l /path/to/app.apk
~~~`,
	}

	sourcePackageInvalidIssue = &Issue{
		id: SourcePackageInvalidId,
		mdMsg: `
# Source package is not a valid archive!

The file exists but its zip central directory could not be parsed.

## Common causes:
- The download or copy was interrupted
- The file is not actually an application package

## Things you can try:
- Re-download or re-copy the package and compare sizes
- Confirm the file type:
~~~
$ file /path/to/app.apk
~~~`,
	}

	cacheDirFailedIssue = &Issue{
		id: CacheDirFailedId,
		mdMsg: `
# Cache directory could not be prepared!

The cache directory could not be created, or the path is occupied by
something that is not a directory.

## Things you can try:
- Check what occupies the path:
~~~
$ ls -ld <cache-dir>
~~~

- Point dexcache at a writable location:
~~~
$ dexcache extract app.apk --cache-dir ~/.cache/dexcache
~~~

- Or set it persistently:
~~~
$ dexcache config init
~~~`,
	}

	extractionRetryExhaustedIssue = &Issue{
		id: ExtractionRetryExhaustedId,
		mdMsg: `
# Extraction kept producing corrupt files!

A secondary archive failed verification on every attempt. This usually
points at an environmental problem rather than a bad package.

## Common causes:
- The filesystem under the cache directory is full
- The storage device is failing
- Another program is truncating files in the cache directory

## Things you can try:
- Check free space:
~~~
$ df -h <cache-dir>
~~~

- Clear the cache and retry:
~~~
$ dexcache clean app.apk
$ dexcache extract app.apk
~~~`,
	}

	renameLockFailedIssue = &Issue{
		id: RenameLockFailedId,
		mdMsg: `
# Could not acquire the cache lock!

The well-known lock file in the cache directory could not be opened or
locked.

## Things you can try:
- Check permissions on the cache directory
- Make sure the cache directory is on a filesystem that supports
  advisory file locks (some network filesystems do not)`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the dexcache configuration file.

## Configuration file locations:
- Linux: ~/.config/dexcache/config.toml
- macOS: ~/Library/Application Support/dexcache/config.toml
- Windows: %APPDATA%\dexcache\config.toml

## Things you can try:
- Create a default configuration:
~~~
$ dexcache config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults

## Example configuration:
~~~toml
cache_dir = "/home/user/.cache/dexcache"
max_attempts = 3

[ui]
verbose = false
~~~`,
	}

	issues = map[Id]*Issue{
		sourcePackageNotFoundIssue.Id():    sourcePackageNotFoundIssue,
		sourcePackageInvalidIssue.Id():     sourcePackageInvalidIssue,
		cacheDirFailedIssue.Id():           cacheDirFailedIssue,
		extractionRetryExhaustedIssue.Id(): extractionRetryExhaustedIssue,
		renameLockFailedIssue.Id():         renameLockFailedIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
