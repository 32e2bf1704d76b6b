package store

// Package store is the file-backed Store implementation: one JSON record per
// node and per root inside a data directory, exclusively owned by a single
// live process.
//
// Layout of a data directory:
//
//	roots/<RootID>.json   one record per RootData
//	nodes/<NodeID>.json   one record per NodeData
//	forest.lock           exclusive lock taken for the lifetime of the store
//	journal.json          transient redo journal for two-record commits
//	head                  outer-layer session pointer, tolerated and ignored
//
// Every mutation is durable before the call returns: records are written to a
// temp file, fsynced, renamed into place, and the directory is fsynced. Node
// creation with a parent touches two records; those go through the journal so
// a crash can never surface a child without its parent's updated child list
// (see journal.go).

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/go-go-golems/forest/pkg/forest"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	rootsDir    = "roots"
	nodesDir    = "nodes"
	lockFile    = "forest.lock"
	journalFile = "journal.json"
)

type FileStore struct {
	dir  string
	lock *flock.Flock
}

var _ forest.Store = (*FileStore)(nil)

// Open prepares a data directory and takes the exclusive lock on it. A second
// process opening the same directory fails fast with ErrBusy. A journal left
// behind by a crash is replayed (or discarded if torn) before Open returns.
func Open(dir string) (*FileStore, error) {
	for _, sub := range []string{dir, filepath.Join(dir, rootsDir), filepath.Join(dir, nodesDir)} {
		if err := os.MkdirAll(sub, 0755); err != nil {
			return nil, errors.Wrapf(forest.ErrIO, "creating %s: %v", sub, err)
		}
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(forest.ErrIO, "locking %s: %v", dir, err)
	}
	if !locked {
		return nil, errors.Wrapf(forest.ErrBusy, "%s", dir)
	}

	fs := &FileStore{dir: dir, lock: lock}

	if err := fs.replayJournal(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	log.Debug().Str("dir", dir).Msg("opened forest data directory")

	return fs, nil
}

// Close releases the directory lock. The store must not be used afterwards.
func (fs *FileStore) Close() error {
	if err := fs.lock.Unlock(); err != nil {
		return errors.Wrapf(forest.ErrIO, "unlocking %s: %v", fs.dir, err)
	}
	return nil
}

func (fs *FileStore) CreateRoot(cfg forest.RootConfig) (*forest.Root, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root := &forest.Root{
		ID:        forest.NewRootID(),
		Config:    cfg,
		CreatedAt: time.Now(),
	}

	if err := fs.writeRecord(fs.rootPath(root.ID), root); err != nil {
		return nil, err
	}

	log.Trace().
		Str("root_id", root.ID.String()).
		Str("model", cfg.Model).
		Msg("persisted root record")

	return root, nil
}

// CreateNode allocates a fresh NodeID and persists the new node record. For a
// non-null parent the parent's updated child list is persisted in the same
// journaled transaction; both records are durable before the call returns.
func (fs *FileStore) CreateNode(rootID forest.RootID, parentID forest.NodeID, msg forest.Message, md forest.Metadata) (*forest.Node, error) {
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrapf(forest.ErrValidation, "%v", err)
	}

	node := &forest.Node{
		ID:       forest.NewNodeID(),
		ParentID: parentID,
		Message:  msg,
		Metadata: md,
	}

	var parent *forest.Node
	if parentID.IsNull() {
		if rootID.IsNull() {
			return nil, errors.Wrap(forest.ErrValidation, "root-level node needs a root id")
		}
		_, ok, err := fs.GetRoot(rootID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrapf(forest.ErrNotFound, "root %s", rootID)
		}
		node.RootID = rootID
	} else {
		var ok bool
		var err error
		parent, ok, err = fs.GetNode(parentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrapf(forest.ErrNotFound, "parent node %s", parentID)
		}
		node.RootID = parent.RootID
		parent.ChildIDs = append(parent.ChildIDs, node.ID)
	}

	if err := fs.commit(node, parent); err != nil {
		return nil, err
	}

	log.Trace().
		Str("node_id", node.ID.String()).
		Str("parent_id", parentID.String()).
		Str("root_id", node.RootID.String()).
		Msg("persisted node record")

	return node, nil
}

func (fs *FileStore) GetNode(id forest.NodeID) (*forest.Node, bool, error) {
	var node forest.Node
	ok, err := fs.readRecord(fs.nodePath(id), &node)
	if err != nil || !ok {
		return nil, false, err
	}
	return &node, true, nil
}

func (fs *FileStore) GetRoot(id forest.RootID) (*forest.Root, bool, error) {
	var root forest.Root
	ok, err := fs.readRecord(fs.rootPath(id), &root)
	if err != nil || !ok {
		return nil, false, err
	}
	return &root, true, nil
}

// GetChildren returns a node's children in creation order. An unknown id
// yields an empty list, indistinguishable from a leaf.
func (fs *FileStore) GetChildren(id forest.NodeID) ([]*forest.Node, error) {
	node, ok, err := fs.GetNode(id)
	if err != nil || !ok {
		return nil, err
	}

	children := make([]*forest.Node, 0, len(node.ChildIDs))
	for _, childID := range node.ChildIDs {
		child, ok, err := fs.GetNode(childID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrapf(forest.ErrIO,
				"node %s lists missing child %s", id, childID)
		}
		children = append(children, child)
	}

	return children, nil
}

// UpdateNodeMetadata replaces the node's metadata with md as given and
// persists the record atomically. Message content is never touched.
func (fs *FileStore) UpdateNodeMetadata(id forest.NodeID, md forest.Metadata) (*forest.Node, error) {
	node, ok, err := fs.GetNode(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(forest.ErrNotFound, "node %s", id)
	}

	node.Metadata = md
	if err := fs.writeRecord(fs.nodePath(id), node); err != nil {
		return nil, err
	}

	log.Trace().
		Str("node_id", id.String()).
		Strs("tags", md.Tags).
		Msg("persisted metadata update")

	return node, nil
}

func (fs *FileStore) rootPath(id forest.RootID) string {
	return filepath.Join(fs.dir, rootsDir, id.String()+".json")
}

func (fs *FileStore) nodePath(id forest.NodeID) string {
	return filepath.Join(fs.dir, nodesDir, id.String()+".json")
}

// writeRecord atomically replaces the record at path: marshal, write to a
// temp file in the same directory, fsync, rename, fsync the directory.
func (fs *FileStore) writeRecord(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(forest.ErrIO, "encoding %s: %v", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return errors.Wrapf(forest.ErrIO, "creating temp for %s: %v", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(forest.ErrIO, "writing %s: %v", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(forest.ErrIO, "syncing %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(forest.ErrIO, "closing %s: %v", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(forest.ErrIO, "renaming into %s: %v", path, err)
	}

	return syncDir(dir)
}

// readRecord reports (false, nil) for an absent record and wraps a corrupt
// one in ErrIO.
func (fs *FileStore) readRecord(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(forest.ErrIO, "reading %s: %v", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrapf(forest.ErrIO, "decoding %s: %v", path, err)
	}
	return true, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return errors.Wrapf(forest.ErrIO, "opening %s: %v", dir, err)
	}
	defer func(d *os.File) {
		_ = d.Close()
	}(d)

	if err := d.Sync(); err != nil {
		return errors.Wrapf(forest.ErrIO, "syncing %s: %v", dir, err)
	}
	return nil
}
