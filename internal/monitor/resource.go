package monitor

import (
	"io/fs"
	"os"
)

// LinkPolicy controls how symbolic links are treated during retrieval.
type LinkPolicy int

const (
	// FollowLinks stats through symlinks to their target.
	FollowLinks LinkPolicy = iota
	// NoFollowLinks stats the link itself; link targets are never content-hashed.
	NoFollowLinks
)

// Resource is the monitored object as exposed by the owning system. The
// monitor reads through this interface and never mutates the filesystem.
type Resource interface {
	// Path returns the filesystem path of the monitored object.
	Path() string

	// Stat returns the object's metadata. Missing objects must report an
	// error satisfying os.IsNotExist; other I/O failures are distinct.
	Stat() (fs.FileInfo, error)

	// LinkPolicy returns the configured symlink handling.
	LinkPolicy() LinkPolicy

	// HasActiveSourceCopy reports whether the object is currently being
	// populated from an external source, which suppresses the
	// "does not exist" diagnostic.
	HasActiveSourceCopy() bool

	// CacheStore persists an opaque key-value mapping for this object.
	CacheStore(key string, value map[string]string) error

	// CachedValue returns the mapping previously stored under key.
	CachedValue(key string) (map[string]string, bool)
}

// FileResource is the default Resource over a local path, backed by a Store
// for cross-run persistence.
type FileResource struct {
	path       string
	policy     LinkPolicy
	store      Store
	sourceCopy bool
}

// NewFileResource builds a FileResource. A nil store defaults to an
// in-memory store scoped to this resource.
func NewFileResource(path string, policy LinkPolicy, store Store) *FileResource {
	if store == nil {
		store = NewMemoryStore()
	}
	return &FileResource{path: path, policy: policy, store: store}
}

func (r *FileResource) Path() string { return r.path }

func (r *FileResource) LinkPolicy() LinkPolicy { return r.policy }

// Stat uses Lstat under NoFollowLinks so symlinks are observed as links.
func (r *FileResource) Stat() (fs.FileInfo, error) {
	if r.policy == NoFollowLinks {
		return os.Lstat(r.path)
	}
	return os.Stat(r.path)
}

func (r *FileResource) HasActiveSourceCopy() bool { return r.sourceCopy }

// SetActiveSourceCopy marks the object as being populated from elsewhere.
func (r *FileResource) SetActiveSourceCopy(active bool) { r.sourceCopy = active }

func (r *FileResource) CacheStore(key string, value map[string]string) error {
	return r.store.Put(r.path, key, value)
}

func (r *FileResource) CachedValue(key string) (map[string]string, bool) {
	value, ok, err := r.store.Get(r.path, key)
	if err != nil || !ok {
		return nil, false
	}
	return value, true
}
