package store

import (
	"os"
	"path/filepath"

	"github.com/go-go-golems/forest/pkg/forest"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// journalRecord stages the one or two record writes of a node creation. The
// journal file itself is written atomically (temp + rename), so it either
// exists in full or not at all; once it exists, the transaction is committed
// and will be redone on the next Open if the process dies before applying it.
type journalRecord struct {
	Node   *forest.Node `json:"node"`
	Parent *forest.Node `json:"parent,omitempty"`
}

func (fs *FileStore) journalPath() string {
	return filepath.Join(fs.dir, journalFile)
}

// commit makes the node record and the parent's updated record (when present)
// durable as a unit. On an apply failure the transaction is rolled back so
// the caller observes unchanged state; a crash mid-apply is recovered by
// replayJournal on the next Open.
func (fs *FileStore) commit(node *forest.Node, parent *forest.Node) error {
	journal := journalRecord{Node: node, Parent: parent}
	if err := fs.writeRecord(fs.journalPath(), &journal); err != nil {
		return err
	}

	if err := fs.apply(&journal); err != nil {
		// roll back, journal first: once the journal is gone a reopen can
		// never replay a creation the caller was told failed. A node record
		// left behind by an interrupted rollback is unreferenced - no parent
		// lists its id and the id was never handed out.
		_ = os.Remove(fs.journalPath())
		_ = os.Remove(fs.nodePath(node.ID))
		return err
	}

	if err := os.Remove(fs.journalPath()); err != nil {
		return errors.Wrapf(forest.ErrIO, "clearing journal: %v", err)
	}
	return syncDir(fs.dir)
}

func (fs *FileStore) apply(journal *journalRecord) error {
	if err := fs.writeRecord(fs.nodePath(journal.Node.ID), journal.Node); err != nil {
		return err
	}
	if journal.Parent != nil {
		if err := fs.writeRecord(fs.nodePath(journal.Parent.ID), journal.Parent); err != nil {
			return err
		}
	}
	return nil
}

// replayJournal finishes a committed transaction left behind by a crash. A
// journal that does not parse was torn mid-write, meaning the transaction
// never committed; it is discarded.
func (fs *FileStore) replayJournal() error {
	var journal journalRecord
	ok, err := fs.readRecord(fs.journalPath(), &journal)
	if err != nil {
		log.Warn().
			Str("dir", fs.dir).
			Err(err).
			Msg("discarding torn journal")
		if err := os.Remove(fs.journalPath()); err != nil {
			return errors.Wrapf(forest.ErrIO, "removing torn journal: %v", err)
		}
		return nil
	}
	if !ok {
		return nil
	}

	if journal.Node == nil {
		return errors.Wrap(forest.ErrIO, "journal without node record")
	}

	log.Info().
		Str("dir", fs.dir).
		Str("node_id", journal.Node.ID.String()).
		Msg("replaying journal from interrupted node creation")

	if err := fs.apply(&journal); err != nil {
		return err
	}
	if err := os.Remove(fs.journalPath()); err != nil {
		return errors.Wrapf(forest.ErrIO, "clearing replayed journal: %v", err)
	}
	return syncDir(fs.dir)
}
